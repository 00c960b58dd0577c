package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo lee ventas del subsistema de ventas. Solo lectura: el motor de
// facturación nunca crea ni modifica filas de ventas.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el repositorio.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	const q = `
		SELECT id, occurred_at, customer_name, customer_document, customer_document_type,
		       payment_type, total, notes
		FROM ventas WHERE id = $1`
	var sale entity.Sale
	err := r.q.QueryRow(ctx, q, id).Scan(
		&sale.ID, &sale.OccurredAt,
		&sale.Customer.Name, &sale.Customer.Document, &sale.Customer.DocumentType,
		&sale.PaymentType, &sale.Total, &sale.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get venta by id: %w", err)
	}

	items, err := r.itemsBySale(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (r *SaleRepo) itemsBySale(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	const q = `
		SELECT product_code, description, quantity, unit_price,
		       tax_code, tax_rate, tax_included, unit_code
		FROM venta_items
		WHERE sale_id = $1
		ORDER BY position ASC`
	rows, err := r.q.Query(ctx, q, saleID)
	if err != nil {
		return nil, fmt.Errorf("list items de venta: %w", err)
	}
	defer rows.Close()
	var items []entity.SaleItem
	for rows.Next() {
		var item entity.SaleItem
		if err := rows.Scan(
			&item.ProductCode, &item.Description, &item.Quantity, &item.UnitPrice,
			&item.TaxCode, &item.TaxRate, &item.TaxIncluded, &item.UnitCode,
		); err != nil {
			return nil, fmt.Errorf("scan item de venta: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
