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

var _ repository.ElectronicInvoiceRepository = (*ElectronicInvoiceRepo)(nil)

// ElectronicInvoiceRepo implementa ElectronicInvoiceRepository sobre PostgreSQL.
// La tabla lleva un índice único parcial sobre sale_id (status <> 'anulada'):
// el constraint respalda en la base el guard de idempotencia del orquestador.
type ElectronicInvoiceRepo struct {
	q Querier
}

// NewElectronicInvoiceRepository construye el repositorio.
func NewElectronicInvoiceRepository(q Querier) *ElectronicInvoiceRepo {
	return &ElectronicInvoiceRepo{q: q}
}

const invoiceColumns = `
	id, sale_id, range_id, prefix, sequence, full_number, cufe,
	xml_document, xml_digest, status, environment, issued_at, created_at, updated_at`

func (r *ElectronicInvoiceRepo) Create(ctx context.Context, inv *entity.ElectronicInvoice) error {
	const q = `
		INSERT INTO facturas_electronicas
			(id, sale_id, range_id, prefix, sequence, full_number, cufe,
			 xml_document, xml_digest, status, environment, issued_at, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())`
	_, err := r.q.Exec(ctx, q,
		inv.ID, inv.SaleID, inv.RangeID, inv.Prefix, inv.Sequence, inv.FullNumber,
		inv.CUFE, inv.XMLDocument, inv.XMLDigest, inv.Status, inv.Environment, inv.IssuedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert factura_electronica: %w", domain.ErrAlreadyInvoiced)
		}
		return fmt.Errorf("insert factura_electronica: %w (%w)", err, domain.ErrPersistenceFailure)
	}
	return nil
}

func (r *ElectronicInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.ElectronicInvoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM facturas_electronicas WHERE id = $1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get factura_electronica by id: %w", err)
	}
	return inv, nil
}

// GetActiveBySaleID devuelve la factura no anulada de la venta, o nil, nil si
// la venta aún no está facturada.
func (r *ElectronicInvoiceRepo) GetActiveBySaleID(ctx context.Context, saleID string) (*entity.ElectronicInvoice, error) {
	q := `SELECT ` + invoiceColumns + `
		FROM facturas_electronicas
		WHERE sale_id = $1 AND status <> 'anulada'
		LIMIT 1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, q, saleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get factura activa por venta: %w", err)
	}
	return inv, nil
}

func (r *ElectronicInvoiceRepo) UpdateStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE facturas_electronicas SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("update estado de factura: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanInvoice(row pgxScanner) (*entity.ElectronicInvoice, error) {
	var inv entity.ElectronicInvoice
	err := row.Scan(
		&inv.ID, &inv.SaleID, &inv.RangeID, &inv.Prefix, &inv.Sequence,
		&inv.FullNumber, &inv.CUFE, &inv.XMLDocument, &inv.XMLDigest,
		&inv.Status, &inv.Environment, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
