package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
)

var _ repository.FiscalProfileRepository = (*FiscalProfileRepo)(nil)

// FiscalProfileRepo implementa FiscalProfileRepository sobre PostgreSQL.
type FiscalProfileRepo struct {
	q Querier
}

// NewFiscalProfileRepository construye el repositorio.
func NewFiscalProfileRepository(q Querier) *FiscalProfileRepo {
	return &FiscalProfileRepo{q: q}
}

const profileColumns = `
	id, issuer_nit, check_digit, business_name, address,
	environment, is_active, created_at, updated_at`

func (r *FiscalProfileRepo) GetByID(ctx context.Context, id string) (*entity.FiscalProfile, error) {
	q := `SELECT ` + profileColumns + ` FROM fiscal_perfiles WHERE id = $1`
	p, err := scanProfile(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get perfil fiscal by id: %w", err)
	}
	return p, nil
}

// GetActive devuelve el perfil fiscal activo del emisor (nil, nil si no hay).
func (r *FiscalProfileRepo) GetActive(ctx context.Context) (*entity.FiscalProfile, error) {
	q := `SELECT ` + profileColumns + `
		FROM fiscal_perfiles
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT 1`
	p, err := scanProfile(r.q.QueryRow(ctx, q))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get perfil fiscal activo: %w", err)
	}
	return p, nil
}

func scanProfile(row pgxScanner) (*entity.FiscalProfile, error) {
	var p entity.FiscalProfile
	err := row.Scan(
		&p.ID, &p.IssuerNIT, &p.CheckDigit, &p.BusinessName, &p.Address,
		&p.Environment, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
