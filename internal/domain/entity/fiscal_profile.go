package entity

import "time"

// Ambientes DIAN.
const (
	EnvironmentProduccion   = "1"
	EnvironmentHabilitacion = "2"
)

// FiscalProfile es la identidad tributaria del emisor bajo la cual se emiten
// facturas: NIT, razón social y ambiente (producción o habilitación).
type FiscalProfile struct {
	ID           string
	IssuerNIT    string // sin dígito de verificación
	CheckDigit   string
	BusinessName string
	Address      string
	Environment  string // ver constantes Environment*
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
