package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/tu-usuario/facturacion-dian/internal/domain"
	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
	"github.com/tu-usuario/facturacion-dian/pkg/logger"
)

// Allocation es el resultado de una asignación de consecutivo.
type Allocation struct {
	RangeID      string
	Prefix       string
	Sequence     int64
	FullNumber   string // prefijo + consecutivo formateado
	TechnicalKey string
	Range        *entity.NumberingRange
}

// Allocator entrega consecutivos únicos y sin reuso desde el rango por
// defecto del perfil fiscal. La secuencia leer-verificar-incrementar-guardar
// corre bajo el lock de fila que toma GetDefaultActiveForUpdate: debe
// invocarse con un repositorio atado a la transacción de emisión, nunca con
// el pool directo.
type Allocator struct {
	notifier ExhaustionNotifier
	log      *logger.Logger
	now      func() time.Time
}

// NewAllocator construye el asignador. notifier puede ser nil (sin alertas).
func NewAllocator(notifier ExhaustionNotifier, log *logger.Logger) *Allocator {
	return &Allocator{notifier: notifier, log: log, now: time.Now}
}

// WithClock fija el reloj (tests).
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// Allocate reserva el próximo número del rango por defecto del perfil.
//
// Falla con ErrNoAvailableRange si no hay rango activo por defecto vigente, y
// con ErrRangeExhausted si el consecutivo superaría el final del rango (el
// rango queda en estado agotado). Ambos errores abortan la emisión: nunca se
// genera factura sin número autorizado.
func (a *Allocator) Allocate(ctx context.Context, rangeRepo repository.NumberingRangeRepository, fiscalProfileID string) (*Allocation, error) {
	r, err := rangeRepo.GetDefaultActiveForUpdate(ctx, fiscalProfileID)
	if err != nil {
		return nil, fmt.Errorf("consultar rango por defecto: %w", err)
	}
	if r == nil {
		return nil, domain.ErrNoAvailableRange
	}

	now := a.now()
	if !r.EstaVigente(now) {
		// La query filtra por vigencia; si la fila cambió entre medias el
		// estado persistido queda corregido igualmente.
		r.ActualizarEstado(now)
		if err := rangeRepo.UpdateCounter(ctx, r); err != nil {
			return nil, fmt.Errorf("actualizar estado de rango no vigente: %w", err)
		}
		return nil, domain.ErrNoAvailableRange
	}

	if r.CurrentCounter > r.RangeEnd {
		r.Status = entity.RangeStatusAgotado
		if err := rangeRepo.UpdateCounter(ctx, r); err != nil {
			return nil, fmt.Errorf("marcar rango agotado: %w", err)
		}
		return nil, domain.ErrRangeExhausted
	}

	seq := r.CurrentCounter
	full := r.FormatNumber(seq)
	r.CurrentCounter++
	if r.CurrentCounter > r.RangeEnd {
		r.Status = entity.RangeStatusAgotado
	}

	// Alerta de agotamiento: a lo sumo una vez por rango.
	if a.notifier != nil && r.RequiereAlerta() {
		a.notifier.NotifyRangeExhaustion(ctx, r)
		r.AlertSent = true
	}

	if err := rangeRepo.UpdateCounter(ctx, r); err != nil {
		return nil, fmt.Errorf("persistir consecutivo: %w", err)
	}

	if a.log != nil {
		a.log.Info().
			Str("rango", r.ID).
			Str("numero", full).
			Int64("consecutivo_actual", r.CurrentCounter).
			Msg("número de factura asignado")
	}

	return &Allocation{
		RangeID:      r.ID,
		Prefix:       r.Prefix,
		Sequence:     seq,
		FullNumber:   full,
		TechnicalKey: r.TechnicalKey,
		Range:        r,
	}, nil
}
