package billing

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/facturacion-dian/internal/application/dto"
	"github.com/tu-usuario/facturacion-dian/internal/application/numbering"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
	pkgdian "github.com/tu-usuario/facturacion-dian/pkg/dian"
)

var cien = decimal.NewFromInt(100)

// ordenCufe posición de cada código de impuesto en el orden canónico de la
// cadena CUFE: IVA (01), Impoconsumo (04), ICA (03).
var ordenCufe = map[string]int{
	pkgdian.TaxCodeIVA: 0,
	pkgdian.TaxCodeINC: 1,
	pkgdian.TaxCodeICA: 2,
}

// Mapper traduce la venta al borrador canónico de factura (InvoiceDraft):
// desglose base/impuesto por línea, agregación por código y tasa, totales y
// formateo definitivo a dos decimales. El borrador que produce es la única
// fuente para el CUFE y para el XML UBL.
type Mapper struct {
	defaultTaxRate decimal.Decimal
	location       *time.Location
	fallbackEnv    string
}

// NewMapper construye el mapper. defaultTaxRate es el porcentaje del fallback
// sin desglose (ej. 19); loc la zona horaria del emisor para fecha y hora de
// emisión (nil = UTC).
func NewMapper(defaultTaxRate decimal.Decimal, loc *time.Location) *Mapper {
	if loc == nil {
		loc = time.UTC
	}
	return &Mapper{
		defaultTaxRate: defaultTaxRate,
		location:       loc,
		fallbackEnv:    entity.EnvironmentHabilitacion,
	}
}

// WithFallbackEnvironment fija el ambiente DIAN a usar cuando el perfil
// fiscal no lo declara (DIAN_ENVIRONMENT).
func (m *Mapper) WithFallbackEnvironment(env string) *Mapper {
	if env != "" {
		m.fallbackEnv = env
	}
	return m
}

// MapSaleToDraft construye el borrador a partir de la venta, el perfil fiscal
// del emisor y la asignación de numeración, con issuedAt como instante legal
// de emisión.
//
// Reglas de importe (por línea, en orden de la venta):
//   - precio con impuesto incluido → base unitaria = precio / (1 + tasa/100)
//   - base de línea = base unitaria × cantidad, redondeada a dos decimales
//   - impuesto de línea = base de línea × tasa/100, redondeada a dos decimales
//
// Si la venta no trae detalle de líneas, el total plano se desglosa bajo la
// tasa por defecto y el borrador queda marcado con TaxDetailInferred: el
// fallback es explícito, nunca silencioso.
func (m *Mapper) MapSaleToDraft(sale *entity.Sale, profile *entity.FiscalProfile, alloc *numbering.Allocation, issuedAt time.Time) (*dto.InvoiceDraft, error) {
	if sale == nil {
		return nil, fmt.Errorf("venta nula: %w", domain.ErrMappingError)
	}
	if profile == nil {
		return nil, fmt.Errorf("perfil fiscal nulo: %w", domain.ErrMappingError)
	}
	if alloc == nil || alloc.Range == nil {
		return nil, fmt.Errorf("asignación de numeración nula: %w", domain.ErrMappingError)
	}

	customerDoc := pkgdian.CleanNIT(sale.Customer.Document)
	if customerDoc == "" {
		return nil, fmt.Errorf("venta %s sin documento del adquiriente: %w", sale.ID, domain.ErrMappingError)
	}
	if len(sale.Items) == 0 && !sale.Total.IsPositive() {
		return nil, fmt.Errorf("venta %s sin ítems ni total: %w", sale.ID, domain.ErrMappingError)
	}

	local := issuedAt.In(m.location)
	draft := &dto.InvoiceDraft{
		FullNumber: alloc.FullNumber,
		IssueDate:  local.Format("2006-01-02"),
		IssueTime:  local.Format("15:04:05-07:00"),
		Supplier: dto.PartyData{
			Name:         profile.BusinessName,
			Document:     pkgdian.CleanNIT(profile.IssuerNIT),
			DocumentType: pkgdian.IdentificationTypeNIT,
			Address:      profile.Address,
		},
		Customer: dto.PartyData{
			Name:         sale.Customer.Name,
			Document:     customerDoc,
			DocumentType: customerDocumentType(sale.Customer.DocumentType, customerDoc),
		},
		TechnicalKey:       alloc.TechnicalKey,
		Environment:        profile.Environment,
		ResolutionNumber:   alloc.Range.ResolutionNumber,
		ResolutionPrefix:   alloc.Range.Prefix,
		ResolutionFrom:     alloc.Range.RangeStart,
		ResolutionTo:       alloc.Range.RangeEnd,
		ResolutionDateFrom: alloc.Range.ValidFrom.Format("2006-01-02"),
		ResolutionDateTo:   alloc.Range.ValidUntil.Format("2006-01-02"),
	}
	if draft.Environment == "" {
		draft.Environment = m.fallbackEnv
	}

	if len(sale.Items) > 0 {
		m.mapLines(sale, draft)
	} else {
		m.mapFlatTotal(sale, draft)
	}
	return draft, nil
}

// mapLines desglosa cada línea de la venta y agrega subtotales por (código, tasa).
func (m *Mapper) mapLines(sale *entity.Sale, draft *dto.InvoiceDraft) {
	type bucketKey struct {
		code string
		rate string
	}
	type bucket struct {
		code    string
		rate    decimal.Decimal
		base    decimal.Decimal
		taxAmnt decimal.Decimal
	}
	buckets := make(map[bucketKey]*bucket)

	totalBase := decimal.Zero
	totalTax := decimal.Zero

	for _, item := range sale.Items {
		code := item.TaxCode
		if code == "" {
			code = pkgdian.TaxCodeIVA
		}
		rate := item.TaxRate

		unitBase := item.UnitPrice
		if item.TaxIncluded && rate.IsPositive() {
			unitBase = item.UnitPrice.Div(decimal.NewFromInt(1).Add(rate.Div(cien)))
		}
		lineBase := unitBase.Mul(item.Quantity).Round(2)
		lineTax := lineBase.Mul(rate).Div(cien).Round(2)

		totalBase = totalBase.Add(lineBase)
		totalTax = totalTax.Add(lineTax)

		unitCode := item.UnitCode
		if unitCode == "" {
			unitCode = pkgdian.UnitUnit
		}
		draft.Lines = append(draft.Lines, dto.LineData{
			ProductCode:   item.ProductCode,
			Description:   item.Description,
			Quantity:      item.Quantity,
			UnitCode:      unitCode,
			UnitPrice:     unitBase.Round(2).StringFixed(2),
			TaxCode:       code,
			TaxPercent:    rate.StringFixed(2),
			TaxAmount:     lineTax.StringFixed(2),
			LineExtension: lineBase.StringFixed(2),
		})

		key := bucketKey{code: code, rate: rate.StringFixed(2)}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{code: code, rate: rate}
			buckets[key] = b
		}
		b.base = b.base.Add(lineBase)
		b.taxAmnt = b.taxAmnt.Add(lineTax)
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool {
		oi, oj := taxOrder(ordered[i].code), taxOrder(ordered[j].code)
		if oi != oj {
			return oi < oj
		}
		return ordered[i].rate.LessThan(ordered[j].rate)
	})
	for _, b := range ordered {
		draft.TaxSubtotals = append(draft.TaxSubtotals, dto.TaxSubtotalData{
			Code:          b.code,
			Percent:       b.rate.StringFixed(2),
			TaxableAmount: b.base.StringFixed(2),
			TaxAmount:     b.taxAmnt.StringFixed(2),
		})
	}

	m.setTotals(draft, totalBase, totalTax)
}

// mapFlatTotal desglosa el total plano de la venta bajo la tasa por defecto y
// marca el borrador como inferido.
func (m *Mapper) mapFlatTotal(sale *entity.Sale, draft *dto.InvoiceDraft) {
	base := sale.Total.Div(decimal.NewFromInt(1).Add(m.defaultTaxRate.Div(cien))).Round(2)
	tax := sale.Total.Round(2).Sub(base)

	draft.TaxDetailInferred = true
	draft.Lines = append(draft.Lines, dto.LineData{
		Description:   "Venta",
		Quantity:      decimal.NewFromInt(1),
		UnitCode:      pkgdian.UnitUnit,
		UnitPrice:     base.StringFixed(2),
		TaxCode:       pkgdian.TaxCodeIVA,
		TaxPercent:    m.defaultTaxRate.StringFixed(2),
		TaxAmount:     tax.StringFixed(2),
		LineExtension: base.StringFixed(2),
	})
	draft.TaxSubtotals = append(draft.TaxSubtotals, dto.TaxSubtotalData{
		Code:          pkgdian.TaxCodeIVA,
		Percent:       m.defaultTaxRate.StringFixed(2),
		TaxableAmount: base.StringFixed(2),
		TaxAmount:     tax.StringFixed(2),
	})

	m.setTotals(draft, base, tax)
}

func (m *Mapper) setTotals(draft *dto.InvoiceDraft, base, tax decimal.Decimal) {
	inclusive := base.Add(tax)
	draft.LineExtensionTotal = base.StringFixed(2)
	draft.TaxExclusiveTotal = base.StringFixed(2)
	draft.TaxTotal = tax.StringFixed(2)
	draft.TaxInclusiveTotal = inclusive.StringFixed(2)
	draft.PayableTotal = inclusive.StringFixed(2)
}

func taxOrder(code string) int {
	if pos, ok := ordenCufe[code]; ok {
		return pos
	}
	return len(ordenCufe)
}

// customerDocumentType devuelve el tipo de identificación del adquiriente:
// el declarado en la venta si es válido, si no se infiere por longitud del
// documento (9+ dígitos → NIT, menos → cédula).
func customerDocumentType(declared, docDigits string) string {
	if pkgdian.ValidIdentificationTypeCodes[declared] {
		return declared
	}
	if len(docDigits) >= 9 {
		return pkgdian.IdentificationTypeNIT
	}
	return pkgdian.IdentificationTypeCC
}
