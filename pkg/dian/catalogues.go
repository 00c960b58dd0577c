// Package dian contiene catálogos y validaciones alineados al Anexo Técnico
// de Factura Electrónica de Venta DIAN (Colombia) v1.9.
package dian

// =============================================================================
// Tabla 11 - Tipos de Impuesto (Anexo 1.9 - 13.2.2)
// Orden canónico de la cadena CUFE: IVA (01), INC (04), ICA (03).
// =============================================================================

const (
	TaxCodeIVA = "01" // IVA
	TaxCodeINC = "04" // Impuesto Nacional al Consumo
	TaxCodeICA = "03" // ICA
)

// TaxSchemeName devuelve el nombre del esquema tributario para el XML.
func TaxSchemeName(code string) string {
	switch code {
	case TaxCodeIVA:
		return "IVA"
	case TaxCodeINC:
		return "INC"
	case TaxCodeICA:
		return "ICA"
	default:
		return "IVA"
	}
}

// =============================================================================
// Tabla 3 - Tipos de identificación (Anexo 1.9 - 13.2.1)
// =============================================================================

const (
	IdentificationTypeNIT = "31" // NIT - requiere dígito de verificación
	IdentificationTypeCC  = "13" // Cédula de ciudadanía
	IdentificationTypeCE  = "22" // Cédula de extranjería
)

// ValidIdentificationTypeCodes tipos de identificación soportados.
var ValidIdentificationTypeCodes = map[string]bool{
	IdentificationTypeNIT: true,
	IdentificationTypeCC:  true,
	IdentificationTypeCE:  true,
}

// =============================================================================
// Tabla 6 - Unidades de Medida (Anexo 1.9 - 13.3.6 Unidades de Cantidad @unitCode)
// =============================================================================

const (
	UnitUnit     = "94"  // Unidad
	UnitKilogram = "KGM" // Kilogramo
	UnitLitre    = "LTR" // Litro
	UnitMetre    = "MTR" // Metro
	UnitHour     = "HUR" // Hora
)

// =============================================================================
// Tabla 14 - Forma de Pago / Tabla 13 - Medios de Pago (Anexo 1.9 - 13.3.4)
// =============================================================================

const (
	PaymentFormContado = "1" // Contado
	PaymentFormCredito = "2" // Crédito

	PaymentMethodEfectivo       = "10" // Efectivo
	PaymentMethodTransferencia  = "47" // Transferencia Débito Bancaria
	PaymentMethodTarjetaCredito = "48" // Tarjeta Crédito
)
