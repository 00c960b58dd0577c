package repository

import (
	"context"

	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
)

// ElectronicInvoiceRepository define el puerto de persistencia para la
// factura electrónica generada.
type ElectronicInvoiceRepository interface {
	// Create inserta la factura. La columna sale_id es única entre facturas
	// no anuladas: el constraint respalda el guard de idempotencia.
	Create(ctx context.Context, inv *entity.ElectronicInvoice) error

	GetByID(ctx context.Context, id string) (*entity.ElectronicInvoice, error)

	// GetActiveBySaleID devuelve la factura no anulada de la venta, o nil, nil
	// si la venta aún no está facturada.
	GetActiveBySaleID(ctx context.Context, saleID string) (*entity.ElectronicInvoice, error)

	// UpdateStatus persiste una transición de estado (rechazo, anulación).
	UpdateStatus(ctx context.Context, id, status string) error
}
