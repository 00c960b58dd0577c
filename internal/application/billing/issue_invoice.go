package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/facturacion-dian/internal/application/numbering"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
	infradian "github.com/tu-usuario/facturacion-dian/internal/infrastructure/dian"
	pkgdian "github.com/tu-usuario/facturacion-dian/pkg/dian"
	"github.com/tu-usuario/facturacion-dian/pkg/logger"
)

// IssueInvoiceUseCase orquesta el ciclo completo de emisión:
//
//	venta → validación → numeración → mapeo → CUFE → XML UBL → persistencia
//
// La asignación del consecutivo y la inserción de la factura comparten una
// sola transacción: cualquier fallo dentro del ciclo hace rollback de ambas y
// no desperdicia número. Una vez el commit ocurre, el consecutivo nunca se
// reutiliza aunque la factura termine rechazada o anulada.
type IssueInvoiceUseCase struct {
	txRunner    IssuanceTxRunner
	saleRepo    repository.SaleRepository
	profileRepo repository.FiscalProfileRepository
	invoiceRepo repository.ElectronicInvoiceRepository // lecturas fuera de la tx
	allocator   *numbering.Allocator
	mapper      *Mapper
	xmlBuilder  *infradian.XMLBuilderService
	signer      pkgdian.Signer // opcional; nil = factura queda en estado generada
	log         *logger.Logger
	now         func() time.Time
}

// NewIssueInvoiceUseCase construye el caso de uso. signer puede ser nil.
func NewIssueInvoiceUseCase(
	txRunner IssuanceTxRunner,
	saleRepo repository.SaleRepository,
	profileRepo repository.FiscalProfileRepository,
	invoiceRepo repository.ElectronicInvoiceRepository,
	allocator *numbering.Allocator,
	mapper *Mapper,
	xmlBuilder *infradian.XMLBuilderService,
	signer pkgdian.Signer,
	log *logger.Logger,
) *IssueInvoiceUseCase {
	return &IssueInvoiceUseCase{
		txRunner:    txRunner,
		saleRepo:    saleRepo,
		profileRepo: profileRepo,
		invoiceRepo: invoiceRepo,
		allocator:   allocator,
		mapper:      mapper,
		xmlBuilder:  xmlBuilder,
		signer:      signer,
		log:         log,
		now:         time.Now,
	}
}

// WithClock fija el reloj del instante de emisión (tests).
func (uc *IssueInvoiceUseCase) WithClock(now func() time.Time) *IssueInvoiceUseCase {
	uc.now = now
	return uc
}

// IssueInvoice emite la factura electrónica de la venta. Es idempotente por
// venta: si ya existe una factura no anulada devuelve ErrAlreadyInvoiced sin
// consumir número. Todo error va envuelto en StageError con la etapa fallida.
func (uc *IssueInvoiceUseCase) IssueInvoice(ctx context.Context, saleID string) (*entity.ElectronicInvoice, error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, domain.NewStageError(domain.StageValidated, fmt.Errorf("consultar venta: %w", err))
	}
	if sale == nil {
		return nil, domain.NewStageError(domain.StageValidated, fmt.Errorf("venta %s: %w", saleID, domain.ErrNotFound))
	}

	existing, err := uc.invoiceRepo.GetActiveBySaleID(ctx, saleID)
	if err != nil {
		return nil, domain.NewStageError(domain.StageValidated, fmt.Errorf("verificar facturación previa: %w", err))
	}
	if existing != nil {
		return nil, domain.NewStageError(domain.StageValidated, domain.ErrAlreadyInvoiced)
	}

	profile, err := uc.profileRepo.GetActive(ctx)
	if err != nil {
		return nil, domain.NewStageError(domain.StageValidated, fmt.Errorf("consultar perfil fiscal: %w", err))
	}
	if profile == nil {
		return nil, domain.NewStageError(domain.StageValidated, fmt.Errorf("no hay perfil fiscal activo: %w", domain.ErrNotFound))
	}

	var invoice *entity.ElectronicInvoice
	err = uc.txRunner.RunIssuance(ctx, func(
		rangeRepo repository.NumberingRangeRepository,
		invoiceRepo repository.ElectronicInvoiceRepository,
	) error {
		alloc, err := uc.allocator.Allocate(ctx, rangeRepo, profile.ID)
		if err != nil {
			return domain.NewStageError(domain.StageNumbered, err)
		}

		issuedAt := uc.now()
		draft, err := uc.mapper.MapSaleToDraft(sale, profile, alloc, issuedAt)
		if err != nil {
			return domain.NewStageError(domain.StageMapped, err)
		}

		cufe, err := infradian.CalculateCufeFromDraft(draft)
		if err != nil {
			return domain.NewStageError(domain.StageFingerprinted, err)
		}

		xmlBytes, err := uc.xmlBuilder.Build(draft, cufe)
		if err != nil {
			return domain.NewStageError(domain.StageEncoded, err)
		}

		status := entity.InvoiceStatusGenerada
		if uc.signer != nil {
			signed, err := uc.signer.Sign(xmlBytes)
			if err != nil {
				return domain.NewStageError(domain.StageEncoded, fmt.Errorf("firmar XML: %w", err))
			}
			xmlBytes = signed
			status = entity.InvoiceStatusFirmada
		}

		digest, err := infradian.CanonicalDigest(xmlBytes)
		if err != nil {
			return domain.NewStageError(domain.StageEncoded, err)
		}

		inv := &entity.ElectronicInvoice{
			ID:          uuid.NewString(),
			SaleID:      sale.ID,
			RangeID:     alloc.RangeID,
			Prefix:      alloc.Prefix,
			Sequence:    alloc.Sequence,
			FullNumber:  alloc.FullNumber,
			CUFE:        cufe,
			XMLDocument: string(xmlBytes),
			XMLDigest:   digest,
			Status:      status,
			Environment: draft.Environment,
			IssuedAt:    issuedAt,
		}
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return domain.NewStageError(domain.StagePersisted, err)
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.log != nil {
		uc.log.Info().
			Str("venta", sale.ID).
			Str("numero", invoice.FullNumber).
			Str("cufe", invoice.CUFE).
			Str("estado", invoice.Status).
			Msg("factura electrónica emitida")
	}
	return invoice, nil
}

// GetInvoice devuelve la factura por id (ErrNotFound si no existe).
func (uc *IssueInvoiceUseCase) GetInvoice(ctx context.Context, id string) (*entity.ElectronicInvoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}
