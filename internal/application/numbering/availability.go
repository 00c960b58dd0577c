package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/facturacion-dian/internal/application/dto"
	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
	"github.com/tu-usuario/facturacion-dian/pkg/logger"
)

// Umbrales de severidad para los mensajes de disponibilidad.
var (
	decimal90 = decimal.NewFromInt(90)
	decimal70 = decimal.NewFromInt(70)
)

// StatusUseCase consultas de disponibilidad y chequeo programado de vigencia
// sobre los rangos (solo lectura sobre el pool, sin lock).
type StatusUseCase struct {
	rangeRepo repository.NumberingRangeRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewStatusUseCase construye el caso de uso.
func NewStatusUseCase(rangeRepo repository.NumberingRangeRepository, log *logger.Logger) *StatusUseCase {
	return &StatusUseCase{rangeRepo: rangeRepo, log: log, now: time.Now}
}

// WithClock fija el reloj (tests).
func (uc *StatusUseCase) WithClock(now func() time.Time) *StatusUseCase {
	uc.now = now
	return uc
}

// CheckAvailability informa cuántos números quedan en el rango por defecto
// del perfil, con un mensaje de severidad según el porcentaje de uso.
func (uc *StatusUseCase) CheckAvailability(ctx context.Context, fiscalProfileID string) (*dto.AvailabilityResponse, error) {
	r, err := uc.rangeRepo.GetDefaultActive(ctx, fiscalProfileID)
	if err != nil {
		return nil, fmt.Errorf("consultar rango activo: %w", err)
	}
	if r == nil {
		return &dto.AvailabilityResponse{
			Available: false,
			Message:   "no hay rangos activos disponibles",
		}, nil
	}

	disponibles := r.NumerosDisponibles()
	porcentaje := r.PorcentajeUso()

	var msg string
	switch {
	case disponibles == 0:
		msg = "rango agotado"
	case porcentaje.GreaterThanOrEqual(decimal90):
		msg = fmt.Sprintf("quedan solo %d números disponibles (crítico)", disponibles)
	case porcentaje.GreaterThanOrEqual(decimal70):
		msg = fmt.Sprintf("quedan %d números disponibles (atención)", disponibles)
	default:
		msg = fmt.Sprintf("%d números disponibles", disponibles)
	}

	return &dto.AvailabilityResponse{
		Available:        r.PuedeAsignar(uc.now()),
		RemainingNumbers: disponibles,
		UsagePercent:     porcentaje.Round(2).StringFixed(2),
		Message:          msg,
	}, nil
}

// RefreshStatuses recorre los rangos del perfil y persiste las transiciones
// de estado derivadas de vigencia y consumo (activo→vencido, activo→agotado).
// Pensado para ejecución programada; los rangos nunca se eliminan.
func (uc *StatusUseCase) RefreshStatuses(ctx context.Context, fiscalProfileID string) (int, error) {
	ranges, err := uc.rangeRepo.ListByProfile(ctx, fiscalProfileID)
	if err != nil {
		return 0, fmt.Errorf("listar rangos: %w", err)
	}
	now := uc.now()
	var changed int
	for _, r := range ranges {
		before := r.Status
		r.ActualizarEstado(now)
		if r.Status == before {
			continue
		}
		if err := uc.rangeRepo.UpdateStatus(ctx, r.ID, r.Status); err != nil {
			return changed, fmt.Errorf("actualizar estado de rango %s: %w", r.ID, err)
		}
		changed++
		if uc.log != nil {
			uc.log.Warn().
				Str("rango", r.ID).
				Str("antes", before).
				Str("despues", r.Status).
				Msg("transición de estado de rango de numeración")
		}
	}
	return changed, nil
}
