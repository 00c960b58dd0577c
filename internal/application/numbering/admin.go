package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/facturacion-dian/internal/application/dto"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
	"github.com/tu-usuario/facturacion-dian/pkg/logger"
)

// RangeAdminUseCase registra y lista rangos de numeración (configuración).
// Los rangos nunca se eliminan: las transiciones de estado las maneja
// StatusUseCase.
type RangeAdminUseCase struct {
	rangeRepo   repository.NumberingRangeRepository
	profileRepo repository.FiscalProfileRepository
	log         *logger.Logger
	now         func() time.Time
}

// NewRangeAdminUseCase construye el caso de uso.
func NewRangeAdminUseCase(rangeRepo repository.NumberingRangeRepository, profileRepo repository.FiscalProfileRepository, log *logger.Logger) *RangeAdminUseCase {
	return &RangeAdminUseCase{rangeRepo: rangeRepo, profileRepo: profileRepo, log: log, now: time.Now}
}

// WithClock fija el reloj (tests).
func (uc *RangeAdminUseCase) WithClock(now func() time.Time) *RangeAdminUseCase {
	uc.now = now
	return uc
}

// ResolveProfileID devuelve requested si no está vacío; si no, el id del
// perfil fiscal activo.
func (uc *RangeAdminUseCase) ResolveProfileID(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	profile, err := uc.profileRepo.GetActive(ctx)
	if err != nil {
		return "", fmt.Errorf("consultar perfil fiscal activo: %w", err)
	}
	if profile == nil {
		return "", fmt.Errorf("no hay perfil fiscal activo: %w", domain.ErrNotFound)
	}
	return profile.ID, nil
}

// CreateRange registra un rango autorizado por resolución DIAN. El contador
// arranca en range_start y el estado se deriva de la vigencia.
func (uc *RangeAdminUseCase) CreateRange(ctx context.Context, in dto.CreateRangeRequest) (*dto.RangeResponse, error) {
	if in.ResolutionNumber == "" || in.TechnicalKey == "" {
		return nil, fmt.Errorf("resolución y clave técnica son obligatorias: %w", domain.ErrInvalidInput)
	}
	if in.RangeStart <= 0 || in.RangeEnd < in.RangeStart {
		return nil, fmt.Errorf("rango autorizado inválido [%d, %d]: %w", in.RangeStart, in.RangeEnd, domain.ErrInvalidInput)
	}

	profileID, err := uc.ResolveProfileID(ctx, in.FiscalProfileID)
	if err != nil {
		return nil, err
	}
	resolutionDate, err := parseDate(in.ResolutionDate)
	if err != nil {
		return nil, err
	}
	validFrom, err := parseDate(in.ValidFrom)
	if err != nil {
		return nil, err
	}
	validUntil, err := parseDate(in.ValidUntil)
	if err != nil {
		return nil, err
	}
	if validUntil.Before(validFrom) {
		return nil, fmt.Errorf("vigencia invertida (%s > %s): %w", in.ValidFrom, in.ValidUntil, domain.ErrInvalidInput)
	}

	threshold := decimal.NewFromInt(90)
	if in.AlertThreshold != "" {
		threshold, err = decimal.NewFromString(in.AlertThreshold)
		if err != nil {
			return nil, fmt.Errorf("umbral de alerta %q: %w", in.AlertThreshold, domain.ErrInvalidInput)
		}
	}

	rng := &entity.NumberingRange{
		ID:               uuid.NewString(),
		FiscalProfileID:  profileID,
		ResolutionNumber: in.ResolutionNumber,
		ResolutionDate:   resolutionDate,
		ValidFrom:        validFrom,
		ValidUntil:       validUntil,
		Prefix:           in.Prefix,
		RangeStart:       in.RangeStart,
		RangeEnd:         in.RangeEnd,
		CurrentCounter:   in.RangeStart,
		TechnicalKey:     in.TechnicalKey,
		Status:           entity.RangeStatusActivo,
		IsDefault:        in.IsDefault,
		AlertThreshold:   threshold,
	}
	rng.ActualizarEstado(uc.now())

	// Solo puede haber un rango por defecto activo por perfil fiscal: de lo
	// contrario la asignación dependería del desempate por vigencia.
	if rng.IsDefault && rng.Status == entity.RangeStatusActivo {
		existentes, err := uc.rangeRepo.ListByProfile(ctx, profileID)
		if err != nil {
			return nil, fmt.Errorf("consultar rangos del perfil: %w", err)
		}
		for _, otro := range existentes {
			if otro.IsDefault && otro.Status == entity.RangeStatusActivo {
				return nil, fmt.Errorf("ya existe otro rango activo marcado como predeterminado (resolución %s): %w",
					otro.ResolutionNumber, domain.ErrInvalidInput)
			}
		}
	}

	if err := uc.rangeRepo.Create(ctx, rng); err != nil {
		return nil, err
	}
	if uc.log != nil {
		uc.log.Info().
			Str("rango", rng.ID).
			Str("resolucion", rng.ResolutionNumber).
			Str("prefijo", rng.Prefix).
			Int64("desde", rng.RangeStart).
			Int64("hasta", rng.RangeEnd).
			Msg("rango de numeración registrado")
	}
	resp := toRangeResponse(rng)
	return &resp, nil
}

// ListRanges lista los rangos del perfil (el activo si profileID viene vacío).
func (uc *RangeAdminUseCase) ListRanges(ctx context.Context, profileID string) ([]dto.RangeResponse, error) {
	id, err := uc.ResolveProfileID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	ranges, err := uc.rangeRepo.ListByProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RangeResponse, 0, len(ranges))
	for _, rng := range ranges {
		out = append(out, toRangeResponse(rng))
	}
	return out, nil
}

func toRangeResponse(rng *entity.NumberingRange) dto.RangeResponse {
	return dto.RangeResponse{
		ID:               rng.ID,
		ResolutionNumber: rng.ResolutionNumber,
		Prefix:           rng.Prefix,
		RangeStart:       rng.RangeStart,
		RangeEnd:         rng.RangeEnd,
		CurrentCounter:   rng.CurrentCounter,
		Status:           rng.Status,
		IsDefault:        rng.IsDefault,
		ValidFrom:        rng.ValidFrom.Format("2006-01-02"),
		ValidUntil:       rng.ValidUntil.Format("2006-01-02"),
	}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha %q (se espera YYYY-MM-DD): %w", s, domain.ErrInvalidInput)
	}
	return t, nil
}
