package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturacion-dian/internal/application/billing"
	"github.com/tu-usuario/facturacion-dian/internal/application/dto"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
)

// InvoiceHandler maneja las peticiones HTTP de emisión y consulta de facturas.
type InvoiceHandler struct {
	uc *billing.IssueInvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.IssueInvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Issue emite la factura electrónica de una venta.
// POST /api/v1/invoices/issue
func (h *InvoiceHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.SaleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "sale_id requerido"})
	}
	inv, err := h.uc.IssueInvoice(c.Context(), in.SaleID)
	if err != nil {
		return mapIssueError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toInvoiceResponse(inv))
}

// GetByID obtiene la factura por id.
// GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	inv, err := h.uc.GetInvoice(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toInvoiceResponse(inv))
}

// GetXML devuelve el documento UBL de la factura.
// GET /api/v1/invoices/:id/xml
func (h *InvoiceHandler) GetXML(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	inv, err := h.uc.GetInvoice(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.SendString(inv.XMLDocument)
}

// mapIssueError traduce los errores de dominio de la emisión a HTTP:
// conflictos de numeración y emisión repetida → 409 con códigos distintos,
// datos insuficientes o mal formados → 422, fallo de conciliación → 500.
func mapIssueError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNoAvailableRange):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_AVAILABLE_RANGE", Message: "no hay rangos de numeración activos disponibles"})
	case errors.Is(err, domain.ErrRangeExhausted):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RANGE_EXHAUSTED", Message: "rango de numeración agotado: solicitar nueva resolución"})
	case errors.Is(err, domain.ErrAlreadyInvoiced):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_INVOICED", Message: "la venta ya tiene factura electrónica"})
	case errors.Is(err, domain.ErrMappingError):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "MAPPING_ERROR", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidFieldFormat):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INVALID_FIELD_FORMAT", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "venta no encontrada"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func toInvoiceResponse(inv *entity.ElectronicInvoice) dto.InvoiceResponse {
	return dto.InvoiceResponse{
		ID:          inv.ID,
		SaleID:      inv.SaleID,
		FullNumber:  inv.FullNumber,
		CUFE:        inv.CUFE,
		Status:      inv.Status,
		Environment: inv.Environment,
		XMLDigest:   inv.XMLDigest,
		IssuedAt:    inv.IssuedAt.Format("2006-01-02T15:04:05-07:00"),
	}
}
