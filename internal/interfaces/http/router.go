package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturacion-dian/internal/application/billing"
	"github.com/tu-usuario/facturacion-dian/internal/application/numbering"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	IssueInvoice *billing.IssueInvoiceUseCase
	RangeAdmin   *numbering.RangeAdminUseCase
	RangeStatus  *numbering.StatusUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.IssueInvoice)
	invoices.Post("/issue", invoiceHandler.Issue)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/xml", invoiceHandler.GetXML)

	ranges := api.Group("/ranges")
	rangeHandler := NewRangeHandler(deps.RangeAdmin, deps.RangeStatus)
	ranges.Post("/", rangeHandler.Create)
	ranges.Get("/", rangeHandler.List)
	ranges.Get("/availability", rangeHandler.Availability)
	ranges.Post("/refresh-statuses", rangeHandler.RefreshStatuses)
}
