package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-dian/internal/application/billing"
	"github.com/tu-usuario/facturacion-dian/internal/application/dto"
	"github.com/tu-usuario/facturacion-dian/internal/application/numbering"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
	"github.com/tu-usuario/facturacion-dian/internal/domain/repository"
	infradian "github.com/tu-usuario/facturacion-dian/internal/infrastructure/dian"
	apphttp "github.com/tu-usuario/facturacion-dian/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test: wiring completo en memoria
// ──────────────────────────────────────────────────────────────────────────────

var (
	instante   = time.Date(2024, 1, 15, 19, 30, 0, 0, time.UTC)
	zonaEmisor = time.FixedZone("-05", -5*3600)
)

type memVentas struct{ ventas map[string]*entity.Sale }

func (m *memVentas) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	return m.ventas[id], nil
}

type memPerfil struct{ perfil *entity.FiscalProfile }

func (m *memPerfil) GetByID(_ context.Context, id string) (*entity.FiscalProfile, error) {
	if m.perfil != nil && m.perfil.ID == id {
		return m.perfil, nil
	}
	return nil, nil
}
func (m *memPerfil) GetActive(_ context.Context) (*entity.FiscalProfile, error) {
	return m.perfil, nil
}

type memFacturas struct{ porID map[string]*entity.ElectronicInvoice }

func (m *memFacturas) Create(_ context.Context, inv *entity.ElectronicInvoice) error {
	for _, f := range m.porID {
		if f.SaleID == inv.SaleID && f.EsActiva() {
			return domain.ErrAlreadyInvoiced
		}
	}
	copia := *inv
	m.porID[inv.ID] = &copia
	return nil
}
func (m *memFacturas) GetByID(_ context.Context, id string) (*entity.ElectronicInvoice, error) {
	return m.porID[id], nil
}
func (m *memFacturas) GetActiveBySaleID(_ context.Context, saleID string) (*entity.ElectronicInvoice, error) {
	for _, f := range m.porID {
		if f.SaleID == saleID && f.EsActiva() {
			return f, nil
		}
	}
	return nil, nil
}
func (m *memFacturas) UpdateStatus(_ context.Context, id, status string) error {
	f, ok := m.porID[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.Status = status
	return nil
}

type memRangos struct{ rng *entity.NumberingRange }

func (m *memRangos) Create(_ context.Context, r *entity.NumberingRange) error {
	copia := *r
	m.rng = &copia
	return nil
}
func (m *memRangos) GetByID(_ context.Context, id string) (*entity.NumberingRange, error) {
	return m.rng, nil
}
func (m *memRangos) GetDefaultActiveForUpdate(_ context.Context, fiscalProfileID string) (*entity.NumberingRange, error) {
	if m.rng == nil || m.rng.FiscalProfileID != fiscalProfileID || !m.rng.IsDefault {
		return nil, nil
	}
	if m.rng.Status != entity.RangeStatusActivo && m.rng.Status != entity.RangeStatusAgotado {
		return nil, nil
	}
	if !m.rng.EstaVigente(instante) {
		return nil, nil
	}
	copia := *m.rng
	return &copia, nil
}
func (m *memRangos) GetDefaultActive(ctx context.Context, fiscalProfileID string) (*entity.NumberingRange, error) {
	return m.GetDefaultActiveForUpdate(ctx, fiscalProfileID)
}
func (m *memRangos) UpdateCounter(_ context.Context, r *entity.NumberingRange) error {
	copia := *r
	m.rng = &copia
	return nil
}
func (m *memRangos) ListByProfile(_ context.Context, fiscalProfileID string) ([]*entity.NumberingRange, error) {
	if m.rng == nil {
		return nil, nil
	}
	copia := *m.rng
	return []*entity.NumberingRange{&copia}, nil
}
func (m *memRangos) UpdateStatus(_ context.Context, id, status string) error {
	if m.rng != nil && m.rng.ID == id {
		m.rng.Status = status
	}
	return nil
}

type memTx struct {
	rangos   *memRangos
	facturas *memFacturas
}

func (tx *memTx) RunIssuance(_ context.Context, fn func(repository.NumberingRangeRepository, repository.ElectronicInvoiceRepository) error) error {
	var rngAntes *entity.NumberingRange
	if tx.rangos.rng != nil {
		copia := *tx.rangos.rng
		rngAntes = &copia
	}
	antes := make(map[string]*entity.ElectronicInvoice, len(tx.facturas.porID))
	for id, f := range tx.facturas.porID {
		copia := *f
		antes[id] = &copia
	}
	if err := fn(tx.rangos, tx.facturas); err != nil {
		tx.rangos.rng = rngAntes
		tx.facturas.porID = antes
		return err
	}
	return nil
}

type entornoAPI struct {
	app    *fiber.App
	rangos *memRangos
}

// buildTestApp arma la API completa contra repositorios en memoria.
func buildTestApp(t *testing.T, rng *entity.NumberingRange) *entornoAPI {
	t.Helper()

	ventas := &memVentas{ventas: map[string]*entity.Sale{
		"venta-1": {
			ID:         "venta-1",
			OccurredAt: instante,
			Customer:   entity.Counterparty{Name: "Cliente Uno", Document: "860123456", DocumentType: "31"},
			Total:      decimal.NewFromInt(119000),
			Items: []entity.SaleItem{{
				Description: "Café tostado 500g",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(119000),
				TaxCode:     "01",
				TaxRate:     decimal.NewFromInt(19),
				TaxIncluded: true,
			}},
		},
	}}
	perfil := &memPerfil{perfil: &entity.FiscalProfile{
		ID:           "perfil-1",
		IssuerNIT:    "900123456",
		BusinessName: "Emisor de Prueba SAS",
		Environment:  entity.EnvironmentHabilitacion,
		IsActive:     true,
	}}
	facturas := &memFacturas{porID: make(map[string]*entity.ElectronicInvoice)}
	rangos := &memRangos{rng: rng}

	reloj := func() time.Time { return instante.In(zonaEmisor) }
	issueUC := billing.NewIssueInvoiceUseCase(
		&memTx{rangos: rangos, facturas: facturas},
		ventas, perfil, facturas,
		numbering.NewAllocator(nil, nil).WithClock(reloj),
		billing.NewMapper(decimal.NewFromInt(19), zonaEmisor),
		infradian.NewXMLBuilderService(),
		nil, nil,
	).WithClock(reloj)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		IssueInvoice: issueUC,
		RangeAdmin:   numbering.NewRangeAdminUseCase(rangos, perfil, nil).WithClock(reloj),
		RangeStatus:  numbering.NewStatusUseCase(rangos, nil).WithClock(reloj),
	})
	return &entornoAPI{app: app, rangos: rangos}
}

func rangoVigente(end int64) *entity.NumberingRange {
	return &entity.NumberingRange{
		ID:               "rango-1",
		FiscalProfileID:  "perfil-1",
		ResolutionNumber: "18764000000001",
		ValidFrom:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:       time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Prefix:           "SETP",
		RangeStart:       1,
		RangeEnd:         end,
		CurrentCounter:   1,
		TechnicalKey:     "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
		Status:           entity.RangeStatusActivo,
		IsDefault:        true,
		AlertThreshold:   decimal.NewFromInt(90),
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *nethttp.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func getPath(t *testing.T, app *fiber.App, path string) *nethttp.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func decodeInvoice(t *testing.T, resp *nethttp.Response) dto.InvoiceResponse {
	t.Helper()
	var out dto.InvoiceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Emisión
// ──────────────────────────────────────────────────────────────────────────────

func TestIssueEndpoint_Emite201(t *testing.T) {
	env := buildTestApp(t, rangoVigente(100))

	resp := postJSON(t, env.app, "/api/v1/invoices/issue", dto.IssueInvoiceRequest{SaleID: "venta-1"})
	defer resp.Body.Close()

	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	inv := decodeInvoice(t, resp)
	assert.Equal(t, "SETP001", inv.FullNumber)
	assert.Len(t, inv.CUFE, 96)
	assert.Equal(t, entity.InvoiceStatusGenerada, inv.Status)
	assert.Equal(t, "2024-01-15T14:30:00-05:00", inv.IssuedAt, "instante en la zona del emisor")
	assert.Equal(t, int64(2), env.rangos.rng.CurrentCounter, "el contador avanzó tras la emisión")
}

func TestIssueEndpoint_SegundaEmision409(t *testing.T) {
	env := buildTestApp(t, rangoVigente(100))

	resp := postJSON(t, env.app, "/api/v1/invoices/issue", dto.IssueInvoiceRequest{SaleID: "venta-1"})
	resp.Body.Close()
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

	resp = postJSON(t, env.app, "/api/v1/invoices/issue", dto.IssueInvoiceRequest{SaleID: "venta-1"})
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "ALREADY_INVOICED")
}

func TestIssueEndpoint_RangoAgotado409(t *testing.T) {
	rng := rangoVigente(3)
	rng.CurrentCounter = 4
	rng.Status = entity.RangeStatusAgotado
	env := buildTestApp(t, rng)

	resp := postJSON(t, env.app, "/api/v1/invoices/issue", dto.IssueInvoiceRequest{SaleID: "venta-1"})
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "RANGE_EXHAUSTED")
}

func TestIssueEndpoint_SinRango409(t *testing.T) {
	env := buildTestApp(t, nil)

	resp := postJSON(t, env.app, "/api/v1/invoices/issue", dto.IssueInvoiceRequest{SaleID: "venta-1"})
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "NO_AVAILABLE_RANGE")
}

func TestIssueEndpoint_SinSaleID400(t *testing.T) {
	env := buildTestApp(t, rangoVigente(100))

	resp := postJSON(t, env.app, "/api/v1/invoices/issue", dto.IssueInvoiceRequest{})
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestIssueEndpoint_VentaInexistente404(t *testing.T) {
	env := buildTestApp(t, rangoVigente(100))

	resp := postJSON(t, env.app, "/api/v1/invoices/issue", dto.IssueInvoiceRequest{SaleID: "no-existe"})
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consulta
// ──────────────────────────────────────────────────────────────────────────────

func TestGetInvoiceEndpoints(t *testing.T) {
	env := buildTestApp(t, rangoVigente(100))

	resp := postJSON(t, env.app, "/api/v1/invoices/issue", dto.IssueInvoiceRequest{SaleID: "venta-1"})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	emitida := decodeInvoice(t, resp)
	resp.Body.Close()

	resp = getPath(t, env.app, "/api/v1/invoices/"+emitida.ID)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, emitida.CUFE, decodeInvoice(t, resp).CUFE)

	respXML := getPath(t, env.app, "/api/v1/invoices/"+emitida.ID+"/xml")
	defer respXML.Body.Close()
	require.Equal(t, nethttp.StatusOK, respXML.StatusCode)
	assert.Contains(t, respXML.Header.Get("Content-Type"), "application/xml")
	xmlBody, _ := io.ReadAll(respXML.Body)
	assert.Contains(t, string(xmlBody), emitida.CUFE)
	assert.Contains(t, string(xmlBody), "<cbc:UUID>")
}

func TestGetInvoiceEndpoint_NoEncontrada404(t *testing.T) {
	env := buildTestApp(t, rangoVigente(100))

	resp := getPath(t, env.app, "/api/v1/invoices/inexistente")
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rangos
// ──────────────────────────────────────────────────────────────────────────────

func TestRangeEndpoints(t *testing.T) {
	env := buildTestApp(t, nil)

	resp := postJSON(t, env.app, "/api/v1/ranges/", dto.CreateRangeRequest{
		ResolutionNumber: "18764000000001",
		ResolutionDate:   "2024-01-10",
		ValidFrom:        "2024-01-01",
		ValidUntil:       "2024-12-31",
		Prefix:           "SETP",
		RangeStart:       1,
		RangeEnd:         100,
		TechnicalKey:     "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
		IsDefault:        true,
	})
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

	respList := getPath(t, env.app, "/api/v1/ranges/")
	defer respList.Body.Close()
	require.Equal(t, nethttp.StatusOK, respList.StatusCode)
	var listado []dto.RangeResponse
	require.NoError(t, json.NewDecoder(respList.Body).Decode(&listado))
	require.Len(t, listado, 1)
	assert.Equal(t, "SETP", listado[0].Prefix)

	respAvail := getPath(t, env.app, "/api/v1/ranges/availability")
	defer respAvail.Body.Close()
	require.Equal(t, nethttp.StatusOK, respAvail.StatusCode)
	var avail dto.AvailabilityResponse
	require.NoError(t, json.NewDecoder(respAvail.Body).Decode(&avail))
	assert.True(t, avail.Available)
	assert.Equal(t, int64(100), avail.RemainingNumbers)
}

func TestRangeEndpoint_Validacion400(t *testing.T) {
	env := buildTestApp(t, nil)

	resp := postJSON(t, env.app, "/api/v1/ranges/", dto.CreateRangeRequest{
		ResolutionNumber: "",
		TechnicalKey:     "clave",
		RangeStart:       1,
		RangeEnd:         100,
	})
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "VALIDATION")
}
