package repository

import (
	"context"

	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
)

// SaleRepository es el puerto de SOLO LECTURA hacia el subsistema de ventas.
// El motor no crea ni modifica ventas; únicamente las consume como insumo.
type SaleRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
}
