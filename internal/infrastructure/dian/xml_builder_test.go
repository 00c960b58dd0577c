package dian_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-dian/internal/application/dto"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
	infradian "github.com/tu-usuario/facturacion-dian/internal/infrastructure/dian"
)

const cufeDePrueba = "34b40210d41f632a5a7ff5f3414e28f91452c4df41be648383966e15c1c05844d292eeaea2b28952836e1ec52c6e3125"

func borradorDePrueba() *dto.InvoiceDraft {
	return &dto.InvoiceDraft{
		FullNumber: "SETP990000001",
		IssueDate:  "2024-01-15",
		IssueTime:  "14:30:00-05:00",
		Supplier: dto.PartyData{
			Name:         "Comercializadora La Rebaja SAS",
			Document:     "900123456",
			DocumentType: "31",
			Address:      "Calle 10 # 20-30, Bogotá",
		},
		Customer: dto.PartyData{
			Name:         "Distribuidora El Trébol",
			Document:     "860123456",
			DocumentType: "31",
		},
		Lines: []dto.LineData{
			{
				ProductCode:   "SKU-001",
				Description:   "Café tostado 500g",
				Quantity:      decimal.NewFromInt(2),
				UnitCode:      "94",
				UnitPrice:     "50000.00",
				TaxCode:       "01",
				TaxPercent:    "19.00",
				TaxAmount:     "19000.00",
				LineExtension: "100000.00",
			},
		},
		TaxSubtotals: []dto.TaxSubtotalData{
			{Code: "01", Percent: "19.00", TaxableAmount: "100000.00", TaxAmount: "19000.00"},
			{Code: "04", Percent: "8.00", TaxableAmount: "0.00", TaxAmount: "0.00"},
		},
		LineExtensionTotal: "100000.00",
		TaxExclusiveTotal:  "100000.00",
		TaxTotal:           "19000.00",
		TaxInclusiveTotal:  "119000.00",
		PayableTotal:       "119000.00",
		TechnicalKey:       "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
		Environment:        "2",
		ResolutionNumber:   "18764000000001",
		ResolutionPrefix:   "SETP",
		ResolutionFrom:     990000000,
		ResolutionTo:       995000000,
		ResolutionDateFrom: "2024-01-01",
		ResolutionDateTo:   "2024-12-31",
	}
}

func parsear(t *testing.T, xmlBytes []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(xmlBytes))
	root := doc.Root()
	require.NotNil(t, root)
	return root
}

// TestBuild_EstructuraUBL verifica la estructura base del documento: raíz
// Invoice, UBLExtensions como primer hijo, encabezado y CUFE en cbc:UUID.
func TestBuild_EstructuraUBL(t *testing.T) {
	svc := infradian.NewXMLBuilderService()

	xmlBytes, err := svc.Build(borradorDePrueba(), cufeDePrueba)
	require.NoError(t, err)

	root := parsear(t, xmlBytes)
	assert.Equal(t, "Invoice", root.Tag)

	hijos := root.ChildElements()
	require.NotEmpty(t, hijos)
	assert.Equal(t, "UBLExtensions", hijos[0].Tag, "las extensiones van primero para el firmador")

	extensiones := hijos[0].ChildElements()
	require.Len(t, extensiones, 2, "extensión DIAN más placeholder de firma")

	dianExt := extensiones[0].FindElement("./ext:ExtensionContent/sts:DianExtensions/sts:InvoiceControl/sts:InvoiceAuthorization")
	require.NotNil(t, dianExt)
	assert.Equal(t, "18764000000001", dianExt.Text())

	assert.Equal(t, "2.1", root.SelectElement("cbc:UBLVersionID").Text())
	assert.Equal(t, "2", root.SelectElement("cbc:ProfileExecutionID").Text())
	assert.Equal(t, "SETP990000001", root.SelectElement("cbc:ID").Text())
	assert.Equal(t, cufeDePrueba, root.SelectElement("cbc:UUID").Text())
	assert.Equal(t, "2024-01-15", root.SelectElement("cbc:IssueDate").Text())
	assert.Equal(t, "14:30:00-05:00", root.SelectElement("cbc:IssueTime").Text())
	assert.Equal(t, "COP", root.SelectElement("cbc:DocumentCurrencyCode").Text())
	assert.Equal(t, "1", root.SelectElement("cbc:LineCountNumeric").Text())
}

// TestBuild_PartesEmisorYAdquiriente verifica los bloques de identidad con el
// schemeID del tipo de documento.
func TestBuild_PartesEmisorYAdquiriente(t *testing.T) {
	svc := infradian.NewXMLBuilderService()

	xmlBytes, err := svc.Build(borradorDePrueba(), cufeDePrueba)
	require.NoError(t, err)
	root := parsear(t, xmlBytes)

	emisor := root.FindElement("./cac:AccountingSupplierParty/cac:Party/cac:PartyIdentification/cbc:ID")
	require.NotNil(t, emisor)
	assert.Equal(t, "900123456", emisor.Text())
	assert.Equal(t, "31", emisor.SelectAttrValue("schemeID", ""))

	adquiriente := root.FindElement("./cac:AccountingCustomerParty/cac:Party/cac:PartyIdentification/cbc:ID")
	require.NotNil(t, adquiriente)
	assert.Equal(t, "860123456", adquiriente.Text())
}

// TestBuild_SoloImpuestosDistintosDeCero verifica que los subtotales en cero
// no generan cac:TaxTotal.
func TestBuild_SoloImpuestosDistintosDeCero(t *testing.T) {
	svc := infradian.NewXMLBuilderService()

	xmlBytes, err := svc.Build(borradorDePrueba(), cufeDePrueba)
	require.NoError(t, err)
	root := parsear(t, xmlBytes)

	totales := root.FindElements("./cac:TaxTotal")
	require.Len(t, totales, 1, "el INC en 0.00 no se serializa")

	monto := totales[0].FindElement("./cbc:TaxAmount")
	require.NotNil(t, monto)
	assert.Equal(t, "19000.00", monto.Text())
	assert.Equal(t, "COP", monto.SelectAttrValue("currencyID", ""))

	esquema := totales[0].FindElement("./cac:TaxSubtotal/cac:TaxCategory/cac:TaxScheme/cbc:ID")
	require.NotNil(t, esquema)
	assert.Equal(t, "01", esquema.Text())
}

// TestBuild_TotalesMonetarios verifica el bloque LegalMonetaryTotal.
func TestBuild_TotalesMonetarios(t *testing.T) {
	svc := infradian.NewXMLBuilderService()

	xmlBytes, err := svc.Build(borradorDePrueba(), cufeDePrueba)
	require.NoError(t, err)
	root := parsear(t, xmlBytes)

	total := root.FindElement("./cac:LegalMonetaryTotal")
	require.NotNil(t, total)
	assert.Equal(t, "100000.00", total.FindElement("./cbc:LineExtensionAmount").Text())
	assert.Equal(t, "100000.00", total.FindElement("./cbc:TaxExclusiveAmount").Text())
	assert.Equal(t, "119000.00", total.FindElement("./cbc:TaxInclusiveAmount").Text())
	assert.Equal(t, "119000.00", total.FindElement("./cbc:PayableAmount").Text())
}

// TestBuild_LineasEnOrden verifica numeración y contenido de las líneas.
func TestBuild_LineasEnOrden(t *testing.T) {
	svc := infradian.NewXMLBuilderService()

	borrador := borradorDePrueba()
	borrador.Lines = append(borrador.Lines, dto.LineData{
		Description:   "Azúcar morena 1kg",
		Quantity:      decimal.NewFromInt(1),
		UnitCode:      "94",
		UnitPrice:     "8000.00",
		TaxCode:       "01",
		TaxPercent:    "19.00",
		TaxAmount:     "1520.00",
		LineExtension: "8000.00",
	})

	xmlBytes, err := svc.Build(borrador, cufeDePrueba)
	require.NoError(t, err)
	root := parsear(t, xmlBytes)

	lineas := root.FindElements("./cac:InvoiceLine")
	require.Len(t, lineas, 2)
	assert.Equal(t, "1", lineas[0].FindElement("./cbc:ID").Text())
	assert.Equal(t, "2", lineas[1].FindElement("./cbc:ID").Text())
	assert.Equal(t, "Café tostado 500g", lineas[0].FindElement("./cac:Item/cbc:Description").Text())
	assert.Equal(t, "SKU-001", lineas[0].FindElement("./cac:Item/cac:SellersItemIdentification/cbc:ID").Text())
	assert.Equal(t, "50000.00", lineas[0].FindElement("./cac:Price/cbc:PriceAmount").Text())

	cantidad := lineas[0].FindElement("./cbc:InvoicedQuantity")
	require.NotNil(t, cantidad)
	assert.Equal(t, "2", cantidad.Text())
	assert.Equal(t, "94", cantidad.SelectAttrValue("unitCode", ""))
}

// TestBuild_Determinista verifica que el mismo borrador produce exactamente
// los mismos bytes (requisito para que CUFE y digest sean verificables).
func TestBuild_Determinista(t *testing.T) {
	svc := infradian.NewXMLBuilderService()

	a, err := svc.Build(borradorDePrueba(), cufeDePrueba)
	require.NoError(t, err)
	b, err := svc.Build(borradorDePrueba(), cufeDePrueba)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a, b), "salida byte a byte estable")
}

// TestBuild_ErrorSiNoConcilia verifica el aborto cuando el total a pagar no
// cuadra con base más impuestos.
func TestBuild_ErrorSiNoConcilia(t *testing.T) {
	svc := infradian.NewXMLBuilderService()

	borrador := borradorDePrueba()
	borrador.PayableTotal = "118000.00" // 1000 de diferencia

	_, err := svc.Build(borrador, cufeDePrueba)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEncodingError))
	assert.True(t, strings.Contains(err.Error(), "no concilia"))
}

// TestBuild_ErrorBorradorNulo verifica el rechazo del borrador nulo.
func TestBuild_ErrorBorradorNulo(t *testing.T) {
	svc := infradian.NewXMLBuilderService()

	_, err := svc.Build(nil, cufeDePrueba)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEncodingError))
}
