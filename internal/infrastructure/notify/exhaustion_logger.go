// Package notify implementa los puertos de notificación del motor.
package notify

import (
	"context"

	"github.com/tu-usuario/facturacion-dian/internal/application/numbering"
	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
	"github.com/tu-usuario/facturacion-dian/pkg/logger"
)

var _ numbering.ExhaustionNotifier = (*LogExhaustionNotifier)(nil)

// LogExhaustionNotifier registra la alerta de agotamiento como evento
// estructurado. La entrega por correo o webhook se integra detrás del mismo
// puerto sin tocar al asignador.
type LogExhaustionNotifier struct {
	log *logger.Logger
}

// NewLogExhaustionNotifier construye el notificador.
func NewLogExhaustionNotifier(log *logger.Logger) *LogExhaustionNotifier {
	return &LogExhaustionNotifier{log: log}
}

// NotifyRangeExhaustion registra la alerta; el asignador garantiza que llega
// a lo sumo una vez por rango.
func (n *LogExhaustionNotifier) NotifyRangeExhaustion(ctx context.Context, r *entity.NumberingRange) {
	n.log.Warn().
		Str("rango", r.ID).
		Str("resolucion", r.ResolutionNumber).
		Str("prefijo", r.Prefix).
		Int64("disponibles", r.NumerosDisponibles()).
		Str("porcentaje_uso", r.PorcentajeUso().Round(2).StringFixed(2)).
		Msg("rango de numeración próximo a agotarse: solicitar nueva resolución a la DIAN")
}
