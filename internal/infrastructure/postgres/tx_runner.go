package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/facturacion-dian/internal/application/billing"
	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
)

var _ billing.IssuanceTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunIssuance inicia una transacción, ejecuta fn con repos atados a la tx y
// hace Commit o Rollback. El SELECT ... FOR UPDATE del rango y el INSERT de la
// factura conviven aquí: si fn falla, el rollback devuelve el consecutivo sin
// consumir; si el commit ocurre, el número queda gastado para siempre.
func (r *TxRunner) RunIssuance(ctx context.Context, fn func(
	rangeRepo repository.NumberingRangeRepository,
	invoiceRepo repository.ElectronicInvoiceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rangeRepo := NewNumberingRangeRepository(tx)
	invoiceRepo := NewElectronicInvoiceRepository(tx)

	if err := fn(rangeRepo, invoiceRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
