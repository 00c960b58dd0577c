package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/facturacion-dian/internal/domain"
	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
)

var _ repository.NumberingRangeRepository = (*NumberingRangeRepo)(nil)

// NumberingRangeRepo implementa NumberingRangeRepository sobre PostgreSQL.
// q puede ser el pool (lecturas) o una transacción (asignación con lock).
type NumberingRangeRepo struct {
	q Querier
}

// NewNumberingRangeRepository construye el repositorio.
func NewNumberingRangeRepository(q Querier) *NumberingRangeRepo {
	return &NumberingRangeRepo{q: q}
}

const rangeColumns = `
	id, fiscal_profile_id, resolution_number, resolution_date,
	valid_from, valid_until, prefix, range_start, range_end,
	current_counter, technical_key, status, is_default,
	alert_threshold, alert_sent, notes, created_at, updated_at`

func (r *NumberingRangeRepo) Create(ctx context.Context, rng *entity.NumberingRange) error {
	const q = `
		INSERT INTO fiscal_rangos_numeracion
			(id, fiscal_profile_id, resolution_number, resolution_date,
			 valid_from, valid_until, prefix, range_start, range_end,
			 current_counter, technical_key, status, is_default,
			 alert_threshold, alert_sent, notes, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())`
	_, err := r.q.Exec(ctx, q,
		rng.ID, rng.FiscalProfileID, rng.ResolutionNumber, rng.ResolutionDate,
		rng.ValidFrom, rng.ValidUntil, rng.Prefix, rng.RangeStart, rng.RangeEnd,
		rng.CurrentCounter, rng.TechnicalKey, rng.Status, rng.IsDefault,
		rng.AlertThreshold, rng.AlertSent, rng.Notes,
	)
	if err != nil {
		// uq_rango_default_activo: índice único parcial sobre
		// (fiscal_profile_id) WHERE is_default AND status = 'activo'. Respalda
		// en base de datos la validación del caso de uso ante altas
		// concurrentes.
		if isUniqueViolation(err) {
			return fmt.Errorf("ya existe otro rango activo marcado como predeterminado: %w", domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert rango_numeracion: %w", err)
	}
	return nil
}

func (r *NumberingRangeRepo) GetByID(ctx context.Context, id string) (*entity.NumberingRange, error) {
	q := `SELECT ` + rangeColumns + ` FROM fiscal_rangos_numeracion WHERE id = $1`
	rng, err := scanRange(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rango_numeracion by id: %w", err)
	}
	return rng, nil
}

// GetDefaultActiveForUpdate es la sección crítica del motor: bloquea la fila
// del rango por defecto con SELECT ... FOR UPDATE. Dos emisiones concurrentes
// sobre el mismo rango se serializan en este lock; el alcance es una sola
// fila, nunca la tabla. Devuelve nil, nil si no hay rango elegible.
//
// Los rangos agotados SÍ se devuelven: el asignador debe distinguir
// ErrRangeExhausted (pedir nueva resolución) de ErrNoAvailableRange
// (revisar configuración).
func (r *NumberingRangeRepo) GetDefaultActiveForUpdate(ctx context.Context, fiscalProfileID string) (*entity.NumberingRange, error) {
	q := `SELECT ` + rangeColumns + `
		FROM fiscal_rangos_numeracion
		WHERE fiscal_profile_id = $1
		  AND is_default  = true
		  AND status IN ('activo', 'agotado')
		  AND valid_from <= CURRENT_DATE
		  AND valid_until >= CURRENT_DATE
		ORDER BY valid_from DESC
		LIMIT 1
		FOR UPDATE`
	rng, err := scanRange(r.q.QueryRow(ctx, q, fiscalProfileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock rango_numeracion por defecto: %w", err)
	}
	return rng, nil
}

// GetDefaultActive es la variante de solo lectura (disponibilidad), sin lock.
func (r *NumberingRangeRepo) GetDefaultActive(ctx context.Context, fiscalProfileID string) (*entity.NumberingRange, error) {
	q := `SELECT ` + rangeColumns + `
		FROM fiscal_rangos_numeracion
		WHERE fiscal_profile_id = $1
		  AND is_default = true
		  AND status IN ('activo', 'agotado')
		ORDER BY valid_from DESC
		LIMIT 1`
	rng, err := scanRange(r.q.QueryRow(ctx, q, fiscalProfileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rango_numeracion por defecto: %w", err)
	}
	return rng, nil
}

// UpdateCounter persiste consecutivo, estado y marca de alerta de una
// asignación. Debe correr en la misma transacción que tomó el lock.
func (r *NumberingRangeRepo) UpdateCounter(ctx context.Context, rng *entity.NumberingRange) error {
	const q = `
		UPDATE fiscal_rangos_numeracion
		SET current_counter = $2, status = $3, alert_sent = $4, updated_at = now()
		WHERE id = $1`
	_, err := r.q.Exec(ctx, q, rng.ID, rng.CurrentCounter, rng.Status, rng.AlertSent)
	if err != nil {
		return fmt.Errorf("update contador de rango: %w", err)
	}
	return nil
}

func (r *NumberingRangeRepo) ListByProfile(ctx context.Context, fiscalProfileID string) ([]*entity.NumberingRange, error) {
	q := `SELECT ` + rangeColumns + `
		FROM fiscal_rangos_numeracion
		WHERE fiscal_profile_id = $1
		ORDER BY valid_from DESC`
	rows, err := r.q.Query(ctx, q, fiscalProfileID)
	if err != nil {
		return nil, fmt.Errorf("list rangos_numeracion: %w", err)
	}
	defer rows.Close()
	var list []*entity.NumberingRange
	for rows.Next() {
		rng, err := scanRange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rango_numeracion: %w", err)
		}
		list = append(list, rng)
	}
	return list, rows.Err()
}

func (r *NumberingRangeRepo) UpdateStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE fiscal_rangos_numeracion SET status = $2, updated_at = now() WHERE id = $1`
	_, err := r.q.Exec(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("update estado de rango: %w", err)
	}
	return nil
}

func scanRange(row pgxScanner) (*entity.NumberingRange, error) {
	var rng entity.NumberingRange
	err := row.Scan(
		&rng.ID, &rng.FiscalProfileID, &rng.ResolutionNumber, &rng.ResolutionDate,
		&rng.ValidFrom, &rng.ValidUntil, &rng.Prefix, &rng.RangeStart, &rng.RangeEnd,
		&rng.CurrentCounter, &rng.TechnicalKey, &rng.Status, &rng.IsDefault,
		&rng.AlertThreshold, &rng.AlertSent, &rng.Notes, &rng.CreatedAt, &rng.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rng, nil
}
