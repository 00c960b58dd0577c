package numbering

import (
	"context"

	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
)

// ExhaustionNotifier recibe la alerta de agotamiento de un rango. La entrega
// efectiva (correo, webhook) es responsabilidad externa; el asignador
// garantiza que se dispara a lo sumo una vez por rango (alert_sent).
type ExhaustionNotifier interface {
	NotifyRangeExhaustion(ctx context.Context, r *entity.NumberingRange)
}
