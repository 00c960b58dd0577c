package dian

import (
	"fmt"

	"github.com/tu-usuario/facturacion-dian/internal/application/dto"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
	domdian "github.com/tu-usuario/facturacion-dian/internal/domain/dian"
	pkgdian "github.com/tu-usuario/facturacion-dian/pkg/dian"
)

// CufeParamsFromDraft construye los parámetros del CUFE desde el borrador
// canónico. Los montos viajan tal cual están formateados: el borrador es la
// única fuente tanto del hash como del XML.
func CufeParamsFromDraft(draft *dto.InvoiceDraft) *domdian.CufeParams {
	return &domdian.CufeParams{
		NumFac:  draft.FullNumber,
		FecFac:  draft.IssueDate,
		HorFac:  draft.IssueTime,
		ValFac:  draft.TaxExclusiveTotal,
		ValImp1: draft.TaxValueFor(pkgdian.TaxCodeIVA),
		ValImp2: draft.TaxValueFor(pkgdian.TaxCodeINC),
		ValImp3: draft.TaxValueFor(pkgdian.TaxCodeICA),
		ValPag:  draft.PayableTotal,
		NitOfe:  draft.Supplier.Document,
		TipAdq:  draft.Customer.DocumentType,
		NumAdq:  draft.Customer.Document,
		ClTec:   draft.TechnicalKey,
		TipoAmb: draft.Environment,
	}
}

// CalculateCufeFromDraft calcula el CUFE del borrador (96 hex minúsculas).
func CalculateCufeFromDraft(draft *dto.InvoiceDraft) (string, error) {
	if draft == nil {
		return "", fmt.Errorf("dian: borrador nulo: %w", domain.ErrInvalidFieldFormat)
	}
	svc := domdian.NewCufeCalculatorService()
	return svc.Calculate(CufeParamsFromDraft(draft))
}
