// Package dian: cálculo del CUFE (Código Único de Factura Electrónica) según Anexo Técnico DIAN 1.9.
// Algoritmo: SHA-384. Fórmula de concatenación en el orden estricto definido por la DIAN.

package dian

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/tu-usuario/facturacion-dian/internal/domain"
)

// Códigos de impuesto DIAN para la cadena CUFE, en su orden canónico.
// Los códigos sin valor aplicable se representan con "0.00", nunca se omiten.
const (
	CodImpIVA         = "01" // IVA
	CodImpImpoconsumo = "04" // Impoconsumo (Impuesto Nacional al Consumo)
	CodImpICA         = "03" // ICA
)

// montoRe: los montos de la cadena CUFE deben venir ya formateados con punto
// decimal y exactamente dos decimales (el formato es parte de la identidad
// legal del documento, no una conveniencia de presentación).
var montoRe = regexp.MustCompile(`^\d+\.\d{2}$`)

var espaciosRe = regexp.MustCompile(`\s+`)

// CufeParams contiene los datos para calcular el CUFE en el orden exigido por la DIAN.
// Los montos llegan como strings ya formateados a dos decimales (ver InvoiceDraft).
type CufeParams struct {
	NumFac  string // número de factura (prefijo + consecutivo, sin espacios)
	FecFac  string // fecha de emisión YYYY-MM-DD
	HorFac  string // hora de emisión HH:MM:SS±HH:MM
	ValFac  string // valor total de la factura (dos decimales)
	ValImp1 string // valor IVA (código 01)
	ValImp2 string // valor Impoconsumo (código 04)
	ValImp3 string // valor ICA (código 03)
	ValPag  string // valor total a pagar (dos decimales)
	NitOfe  string // NIT del facturador (solo dígitos, sin dígito de verificación)
	TipAdq  string // código de tipo de documento del adquiriente (13, 31...)
	NumAdq  string // número de documento del adquiriente (solo dígitos)
	ClTec   string // clave técnica del rango de numeración
	TipoAmb string // "1" = Producción, "2" = Habilitación
}

// CufeCalculatorService calcula el CUFE según el Anexo Técnico 1.9.
type CufeCalculatorService struct{}

// NewCufeCalculatorService crea el servicio.
func NewCufeCalculatorService() *CufeCalculatorService {
	return &CufeCalculatorService{}
}

// Calculate genera el CUFE (96 hex minúsculas) a partir de los parámetros.
// Fórmula (sin separadores):
//
//	NumFac + FecFac + HorFac + ValFac + CodImp1 + ValImp1 + CodImp2 + ValImp2 +
//	CodImp3 + ValImp3 + ValPag + NitOfe + TipAdq + NumAdq + ClTec + TipoAmb
//
// La función es pura y determinista: campos idénticos producen siempre el
// mismo digest; cualquier campo distinto (incluido un redondeo diferente)
// produce un digest distinto.
func (s *CufeCalculatorService) Calculate(p *CufeParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("dian: CufeParams es obligatorio: %w", domain.ErrInvalidFieldFormat)
	}

	numFac := espaciosRe.ReplaceAllString(strings.TrimSpace(p.NumFac), "")
	if numFac == "" {
		return "", fmt.Errorf("dian: NumFac es obligatorio: %w", domain.ErrInvalidFieldFormat)
	}
	if p.FecFac == "" {
		return "", fmt.Errorf("dian: FecFac es obligatorio (YYYY-MM-DD): %w", domain.ErrInvalidFieldFormat)
	}
	if p.HorFac == "" {
		return "", fmt.Errorf("dian: HorFac es obligatorio (HH:MM:SS±HH:MM): %w", domain.ErrInvalidFieldFormat)
	}
	for campo, valor := range map[string]string{
		"ValFac": p.ValFac, "ValImp1": p.ValImp1, "ValImp2": p.ValImp2,
		"ValImp3": p.ValImp3, "ValPag": p.ValPag,
	} {
		if !montoRe.MatchString(valor) {
			return "", fmt.Errorf("dian: %s debe tener exactamente dos decimales, recibido %q: %w",
				campo, valor, domain.ErrInvalidFieldFormat)
		}
	}

	nitOfe := onlyDigits(p.NitOfe)
	numAdq := onlyDigits(p.NumAdq)
	if nitOfe == "" {
		return "", fmt.Errorf("dian: NitOfe es obligatorio para el CUFE: %w", domain.ErrInvalidFieldFormat)
	}
	if p.TipAdq == "" {
		return "", fmt.Errorf("dian: TipAdq es obligatorio para el CUFE: %w", domain.ErrInvalidFieldFormat)
	}
	if numAdq == "" {
		return "", fmt.Errorf("dian: NumAdq es obligatorio para el CUFE: %w", domain.ErrInvalidFieldFormat)
	}
	if p.ClTec == "" {
		return "", fmt.Errorf("dian: ClTec es obligatoria para el CUFE: %w", domain.ErrInvalidFieldFormat)
	}
	tipoAmb := p.TipoAmb
	if tipoAmb == "" {
		tipoAmb = "1"
	}

	// Orden estricto DIAN (sin separadores)
	cadena := numFac +
		p.FecFac +
		p.HorFac +
		p.ValFac +
		CodImpIVA + p.ValImp1 +
		CodImpImpoconsumo + p.ValImp2 +
		CodImpICA + p.ValImp3 +
		p.ValPag +
		nitOfe +
		p.TipAdq +
		numAdq +
		p.ClTec +
		tipoAmb

	hash := sha512.Sum384([]byte(cadena))
	cufe := hex.EncodeToString(hash[:])

	// Postcondición: 96 caracteres hexadecimales. Si no se cumple es una
	// violación de invariante interna y la emisión debe abortar.
	if !IsValidCufe(cufe) {
		return "", fmt.Errorf("dian: invariante violada: CUFE generado con formato inválido (%d caracteres)", len(cufe))
	}
	return cufe, nil
}

// onlyDigits deja solo dígitos 0-9 (para NIT y documento).
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
