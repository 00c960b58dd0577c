package repository

import (
	"context"

	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
)

// NumberingRangeRepository define el puerto de persistencia para rangos de
// numeración DIAN. Las implementaciones aceptan pool o transacción: la
// asignación de consecutivos SIEMPRE ocurre sobre una transacción.
type NumberingRangeRepository interface {
	Create(ctx context.Context, r *entity.NumberingRange) error
	GetByID(ctx context.Context, id string) (*entity.NumberingRange, error)

	// GetDefaultActiveForUpdate devuelve el rango por defecto, activo y
	// vigente del perfil fiscal, bloqueando la fila con SELECT ... FOR UPDATE.
	// Es la sección crítica del motor: dos asignaciones concurrentes sobre el
	// mismo rango se serializan aquí. Devuelve nil, nil si no hay rango
	// elegible.
	GetDefaultActiveForUpdate(ctx context.Context, fiscalProfileID string) (*entity.NumberingRange, error)

	// GetDefaultActive es la variante de solo lectura (disponibilidad), sin lock.
	GetDefaultActive(ctx context.Context, fiscalProfileID string) (*entity.NumberingRange, error)

	// UpdateCounter persiste consecutivo, estado y marca de alerta tras una
	// asignación. Debe ejecutarse en la misma transacción que tomó el lock.
	UpdateCounter(ctx context.Context, r *entity.NumberingRange) error

	ListByProfile(ctx context.Context, fiscalProfileID string) ([]*entity.NumberingRange, error)

	// UpdateStatus persiste una transición de estado (chequeo de vigencia).
	UpdateStatus(ctx context.Context, id, status string) error
}
