package entity

import "time"

// Estados de la factura electrónica.
const (
	InvoiceStatusPendiente = "pendiente"
	InvoiceStatusGenerada  = "generada" // XML y CUFE producidos
	InvoiceStatusFirmada   = "firmada"  // firma inyectada por el callback externo
	InvoiceStatusRechazada = "rechazada"
	InvoiceStatusAnulada   = "anulada"
)

// ElectronicInvoice es el resultado persistido de una emisión: número asignado,
// CUFE, documento UBL y estado. Una venta tiene a lo sumo una factura
// electrónica no anulada; el número nunca se regenera para una venta ya
// facturada.
type ElectronicInvoice struct {
	ID          string
	SaleID      string
	RangeID     string // rango de numeración que respaldó el número
	Prefix      string
	Sequence    int64  // consecutivo sin prefijo
	FullNumber  string // prefijo + consecutivo formateado (único)
	CUFE        string // SHA-384 hex, 96 caracteres
	XMLDocument string // documento UBL 2.1 completo
	XMLDigest   string // SHA-256 hex del XML canonicalizado (C14N)
	Status      string
	Environment string // "1" producción, "2" habilitación
	IssuedAt    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EsActiva indica si la factura cuenta para el guard de idempotencia
// (toda factura no anulada bloquea una nueva emisión sobre la misma venta).
func (f *ElectronicInvoice) EsActiva() bool {
	return f.Status != InvoiceStatusAnulada
}
