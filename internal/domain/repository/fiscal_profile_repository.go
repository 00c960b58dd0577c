package repository

import (
	"context"

	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
)

// FiscalProfileRepository define el puerto de persistencia para el perfil
// fiscal del emisor (configuración; el CRUD completo vive fuera del motor).
type FiscalProfileRepository interface {
	GetByID(ctx context.Context, id string) (*entity.FiscalProfile, error)
	GetActive(ctx context.Context) (*entity.FiscalProfile, error)
}
