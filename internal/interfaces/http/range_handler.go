package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturacion-dian/internal/application/dto"
	"github.com/tu-usuario/facturacion-dian/internal/application/numbering"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
)

// RangeHandler maneja la administración y consulta de rangos de numeración.
type RangeHandler struct {
	adminUC  *numbering.RangeAdminUseCase
	statusUC *numbering.StatusUseCase
}

// NewRangeHandler construye el handler.
func NewRangeHandler(adminUC *numbering.RangeAdminUseCase, statusUC *numbering.StatusUseCase) *RangeHandler {
	return &RangeHandler{adminUC: adminUC, statusUC: statusUC}
}

// Create registra un rango de numeración autorizado.
// POST /api/v1/ranges
func (h *RangeHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRangeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	rng, err := h.adminUC.CreateRange(c.Context(), in)
	if err != nil {
		return mapRangeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rng)
}

// List lista los rangos del perfil fiscal.
// GET /api/v1/ranges?fiscal_profile_id=...
func (h *RangeHandler) List(c *fiber.Ctx) error {
	ranges, err := h.adminUC.ListRanges(c.Context(), c.Query("fiscal_profile_id"))
	if err != nil {
		return mapRangeError(c, err)
	}
	return c.JSON(ranges)
}

// Availability informa la disponibilidad del rango por defecto.
// GET /api/v1/ranges/availability
func (h *RangeHandler) Availability(c *fiber.Ctx) error {
	profileID, err := h.adminUC.ResolveProfileID(c.Context(), c.Query("fiscal_profile_id"))
	if err != nil {
		return mapRangeError(c, err)
	}
	report, err := h.statusUC.CheckAvailability(c.Context(), profileID)
	if err != nil {
		return mapRangeError(c, err)
	}
	return c.JSON(report)
}

// RefreshStatuses ejecuta el chequeo de vigencia sobre los rangos del perfil.
// POST /api/v1/ranges/refresh-statuses
func (h *RangeHandler) RefreshStatuses(c *fiber.Ctx) error {
	profileID, err := h.adminUC.ResolveProfileID(c.Context(), c.Query("fiscal_profile_id"))
	if err != nil {
		return mapRangeError(c, err)
	}
	changed, err := h.statusUC.RefreshStatuses(c.Context(), profileID)
	if err != nil {
		return mapRangeError(c, err)
	}
	return c.JSON(fiber.Map{"updated": changed})
}

func mapRangeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
