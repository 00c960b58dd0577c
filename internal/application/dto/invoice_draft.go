package dto

import "github.com/shopspring/decimal"

// PartyData bloque de identidad de emisor o adquiriente en el borrador.
type PartyData struct {
	Name         string
	Document     string // solo dígitos
	DocumentType string // código DIAN (13, 31...)
	Address      string
}

// TaxSubtotalData subtotal por código de impuesto, ya agregado por el mapper.
// Los montos van formateados a dos decimales: el formato hace parte de la
// identidad legal del documento (entra tal cual en el CUFE y en el XML).
type TaxSubtotalData struct {
	Code          string // 01=IVA, 04=INC, 03=ICA
	Percent       string // tasa, ej "19.00"
	TaxableAmount string // base imponible, dos decimales
	TaxAmount     string // valor del impuesto, dos decimales
}

// LineData línea de factura en el orden original de la venta.
type LineData struct {
	ProductCode   string
	Description   string
	Quantity      decimal.Decimal
	UnitCode      string
	UnitPrice     string // precio base unitario, dos decimales
	TaxCode       string
	TaxPercent    string
	TaxAmount     string // impuesto de la línea, dos decimales
	LineExtension string // base * cantidad, dos decimales
}

// InvoiceDraft es la representación canónica, ya formateada, del contenido de
// la factura. La construye el mapper y la consumen tanto el cálculo del CUFE
// como el codificador UBL: un solo origen para ambos evita que el hash y el
// XML diverjan por redondeos.
type InvoiceDraft struct {
	FullNumber string // prefijo + consecutivo
	IssueDate  string // YYYY-MM-DD
	IssueTime  string // HH:MM:SS±HH:MM

	Supplier PartyData
	Customer PartyData

	Lines        []LineData
	TaxSubtotals []TaxSubtotalData // orden canónico CUFE: 01, 04, 03

	LineExtensionTotal string // suma de bases de línea, dos decimales
	TaxExclusiveTotal  string // total sin impuestos, dos decimales
	TaxTotal           string // total de impuestos, dos decimales
	TaxInclusiveTotal  string // total con impuestos, dos decimales
	PayableTotal       string // total a pagar, dos decimales

	TechnicalKey string
	Environment  string // "1" producción, "2" habilitación

	// TaxDetailInferred marca que el desglose tributario se derivó del total
	// plano de la venta bajo la tasa por defecto (fallback explícito, no
	// pérdida silenciosa de datos).
	TaxDetailInferred bool

	// Datos de la resolución para sts:DianExtensions.
	ResolutionNumber   string
	ResolutionPrefix   string
	ResolutionFrom     int64
	ResolutionTo       int64
	ResolutionDateFrom string // YYYY-MM-DD
	ResolutionDateTo   string // YYYY-MM-DD
}

// TaxValueFor devuelve el valor agregado del código de impuesto dado, sumando
// todos los subtotales del código (puede haber varias tasas). Devuelve "0.00"
// si el código no aplica: en la cadena CUFE nunca se omite.
func (d *InvoiceDraft) TaxValueFor(code string) string {
	total := decimal.Zero
	found := false
	for _, t := range d.TaxSubtotals {
		if t.Code != code {
			continue
		}
		v, err := decimal.NewFromString(t.TaxAmount)
		if err != nil {
			continue
		}
		total = total.Add(v)
		found = true
	}
	if !found {
		return "0.00"
	}
	return total.StringFixed(2)
}
