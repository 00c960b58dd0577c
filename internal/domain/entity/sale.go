package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Counterparty identifica al adquiriente de la venta (cliente).
type Counterparty struct {
	Name         string
	Document     string // NIT o cédula, con o sin formato
	DocumentType string // código DIAN: 13=CC, 31=NIT
}

// SaleItem es una línea de detalle de la venta, tal como la entrega el
// subsistema de ventas. TaxIncluded indica que el precio unitario ya
// incorpora el impuesto (el mapper lo desglosa).
type SaleItem struct {
	ProductCode string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxCode     string          // 01=IVA, 04=INC, 03=ICA
	TaxRate     decimal.Decimal // porcentaje (19 = 19%)
	TaxIncluded bool
	UnitCode    string // unidad de medida DIAN; vacío = unidad (94)
}

// Sale es el registro de venta que consume el motor. Es insumo de solo
// lectura: el CRUD de ventas vive fuera de este módulo.
type Sale struct {
	ID          string
	OccurredAt  time.Time
	Customer    Counterparty
	PaymentType string          // efectivo, credito...
	Total       decimal.Decimal // total con impuestos, según el subsistema de ventas
	Items       []SaleItem      // puede venir vacío: ver fallback del mapper
	Notes       string
}
