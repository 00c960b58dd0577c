package dto

// ErrorResponse respuesta de error estándar de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IssueInvoiceRequest petición de emisión de factura electrónica.
type IssueInvoiceRequest struct {
	SaleID string `json:"sale_id"`
}

// InvoiceResponse factura electrónica serializada hacia el cliente HTTP.
type InvoiceResponse struct {
	ID          string `json:"id"`
	SaleID      string `json:"sale_id"`
	FullNumber  string `json:"full_number"`
	CUFE        string `json:"cufe"`
	Status      string `json:"status"`
	Environment string `json:"environment"`
	XMLDigest   string `json:"xml_digest"`
	IssuedAt    string `json:"issued_at"`
}

// CreateRangeRequest alta de un rango de numeración (configuración).
type CreateRangeRequest struct {
	FiscalProfileID  string `json:"fiscal_profile_id"`
	ResolutionNumber string `json:"resolution_number"`
	ResolutionDate   string `json:"resolution_date"` // YYYY-MM-DD
	ValidFrom        string `json:"valid_from"`
	ValidUntil       string `json:"valid_until"`
	Prefix           string `json:"prefix"`
	RangeStart       int64  `json:"range_start"`
	RangeEnd         int64  `json:"range_end"`
	TechnicalKey     string `json:"technical_key"`
	IsDefault        bool   `json:"is_default"`
	AlertThreshold   string `json:"alert_threshold"` // porcentaje, ej "90"
}

// RangeResponse rango de numeración serializado.
type RangeResponse struct {
	ID               string `json:"id"`
	ResolutionNumber string `json:"resolution_number"`
	Prefix           string `json:"prefix"`
	RangeStart       int64  `json:"range_start"`
	RangeEnd         int64  `json:"range_end"`
	CurrentCounter   int64  `json:"current_counter"`
	Status           string `json:"status"`
	IsDefault        bool   `json:"is_default"`
	ValidFrom        string `json:"valid_from"`
	ValidUntil       string `json:"valid_until"`
}

// AvailabilityResponse reporte de disponibilidad del rango por defecto.
type AvailabilityResponse struct {
	Available        bool   `json:"available"`
	RemainingNumbers int64  `json:"remaining_numbers"`
	UsagePercent     string `json:"usage_percent"`
	Message          string `json:"message"`
}
