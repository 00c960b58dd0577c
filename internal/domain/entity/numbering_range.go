package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados del rango de numeración autorizado por la DIAN.
const (
	RangeStatusActivo   = "activo"
	RangeStatusAgotado  = "agotado"
	RangeStatusVencido  = "vencido"
	RangeStatusInactivo = "inactivo"
)

// NumberingRange representa un rango de numeración autorizado por resolución DIAN.
// Los consecutivos se asignan dentro de [RangeStart, RangeEnd]; CurrentCounter es
// el próximo número a entregar y solo crece. Los rangos nunca se borran, solo se
// desactivan, para conservar la trazabilidad ante auditorías.
type NumberingRange struct {
	ID               string
	FiscalProfileID  string
	ResolutionNumber string
	ResolutionDate   time.Time
	ValidFrom        time.Time // inicio de vigencia
	ValidUntil       time.Time // fin de vigencia
	Prefix           string    // prefijo autorizado (ej: SETP, FE)
	RangeStart       int64
	RangeEnd         int64
	CurrentCounter   int64  // próximo número a asignar
	TechnicalKey     string // clave técnica de la resolución (entra en el CUFE)
	Status           string
	IsDefault        bool
	AlertThreshold   decimal.Decimal // porcentaje de uso que dispara la alerta
	AlertSent        bool
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EstaVigente indica si el rango está dentro de su ventana de vigencia en now.
func (r *NumberingRange) EstaVigente(now time.Time) bool {
	day := now.Truncate(24 * time.Hour)
	return !day.Before(r.ValidFrom.Truncate(24*time.Hour)) &&
		!day.After(r.ValidUntil.Truncate(24*time.Hour))
}

// PuedeAsignar indica si el rango puede entregar números: activo, vigente y
// con consecutivo dentro del rango autorizado.
func (r *NumberingRange) PuedeAsignar(now time.Time) bool {
	return r.Status == RangeStatusActivo &&
		r.EstaVigente(now) &&
		r.CurrentCounter <= r.RangeEnd
}

// NumerosDisponibles devuelve cuántos números quedan en el rango.
func (r *NumberingRange) NumerosDisponibles() int64 {
	disponibles := r.RangeEnd - r.CurrentCounter + 1
	if disponibles < 0 {
		return 0
	}
	return disponibles
}

// NumerosUsados devuelve cuántos números se han consumido.
func (r *NumberingRange) NumerosUsados() int64 {
	return r.CurrentCounter - r.RangeStart
}

// PorcentajeUso devuelve el porcentaje de consumo del rango (0-100).
func (r *NumberingRange) PorcentajeUso() decimal.Decimal {
	total := r.RangeEnd - r.RangeStart + 1
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(r.NumerosUsados()).
		Div(decimal.NewFromInt(total)).
		Mul(decimal.NewFromInt(100))
}

// RequiereAlerta indica si debe emitirse la alerta de agotamiento: el uso
// alcanzó el umbral configurado y aún no se ha notificado.
func (r *NumberingRange) RequiereAlerta() bool {
	return r.Status == RangeStatusActivo &&
		!r.AlertSent &&
		r.PorcentajeUso().GreaterThanOrEqual(r.AlertThreshold)
}

// FormatNumber formatea un consecutivo con el prefijo del rango, rellenando
// con ceros al ancho del número final del rango (rango 1-100 → TEST001;
// rango 1-3 → SETP1).
func (r *NumberingRange) FormatNumber(n int64) string {
	width := len(fmt.Sprintf("%d", r.RangeEnd))
	return fmt.Sprintf("%s%0*d", r.Prefix, width, n)
}

// ActualizarEstado recalcula el estado según vigencia y consumo, imitando el
// ciclo de vida de la resolución: fuera de vigencia → vencido/inactivo,
// consecutivo excedido → agotado. Solo revive rangos vencidos o agotados:
// inactivo es una desactivación manual y debe persistir.
func (r *NumberingRange) ActualizarEstado(now time.Time) {
	day := now.Truncate(24 * time.Hour)
	switch {
	case day.Before(r.ValidFrom.Truncate(24 * time.Hour)):
		r.Status = RangeStatusInactivo
	case day.After(r.ValidUntil.Truncate(24 * time.Hour)):
		r.Status = RangeStatusVencido
	case r.CurrentCounter > r.RangeEnd:
		r.Status = RangeStatusAgotado
	default:
		if r.Status == RangeStatusVencido || r.Status == RangeStatusAgotado {
			r.Status = RangeStatusActivo
		}
	}
}
