package billing

import (
	"context"

	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
)

// IssuanceTxRunner ejecuta el tramo transaccional de la emisión: asignación de
// consecutivo (con lock de fila) e inserción de la factura comparten una sola
// transacción PostgreSQL. Si fn devuelve error se hace rollback completo: la
// transacción abortada no desperdicia número; un hueco solo existe cuando el
// commit ya ocurrió, y nunca se reutiliza.
type IssuanceTxRunner interface {
	RunIssuance(ctx context.Context, fn func(
		rangeRepo repository.NumberingRangeRepository,
		invoiceRepo repository.ElectronicInvoiceRepository,
	) error) error
}
