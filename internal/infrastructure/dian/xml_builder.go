package dian

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/facturacion-dian/internal/application/dto"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
	pkgdian "github.com/tu-usuario/facturacion-dian/pkg/dian"
)

// Namespaces oficiales UBL 2.1 y DIAN (Anexo Técnico 1.9).
const (
	// Namespace por defecto (UBL Invoice)
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	// DIAN Extensions
	NsSts = "dian:gov:co:facturaelectronica:v1"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
	// XAdES (para la firma)
	NsXades = "http://uri.etsi.org/01903/v1.3.2#"
	// XML Schema Instance (para schemaLocation)
	nsXsi = "http://www.w3.org/2001/XMLSchema-instance"
	// Schema location UBL Invoice 2.1
	schemaLocationInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2 http://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-Invoice-2.1.xsd"
)

// XMLBuilderService serializa el borrador canónico de la factura a UBL 2.1
// (sin firma). La salida es determinista: mismo borrador y mismo CUFE
// producen exactamente los mismos bytes.
//
// Los elementos se escriben con prefijo explícito (cbc:, cac:, ext:, sts:) y
// los namespaces se declaran una sola vez en la raíz; el encoder de la
// librería estándar repetiría xmlns en cada elemento si se usara Name.Space.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del documento Invoice según UBL 2.1 y extensiones
// DIAN. cufe va en cbc:UUID.
//
// Antes de serializar se concilia el borrador: el total a pagar debe coincidir
// con base más impuestos dentro de un centavo, si no la emisión aborta con
// ErrEncodingError (nunca se persiste un XML que no cuadra).
func (s *XMLBuilderService) Build(draft *dto.InvoiceDraft, cufe string) ([]byte, error) {
	if draft == nil {
		return nil, fmt.Errorf("dian: borrador nulo: %w", domain.ErrEncodingError)
	}
	if err := reconcile(draft); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	// Root <Invoice> con atributos obligatorios (Anexo 1.9). Id para Reference URI en firma XAdES.
	root := xml.StartElement{
		Name: xml.Name{Local: "Invoice"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "Id"}, Value: "invoice-id"},
			{Name: xml.Name{Local: "xmlns"}, Value: NsInvoice},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: NsDs},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: NsExt},
			{Name: xml.Name{Local: "xmlns:sts"}, Value: NsSts},
			{Name: xml.Name{Local: "xmlns:xades"}, Value: NsXades},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXsi},
			{Name: xml.Name{Local: "xsi:schemaLocation"}, Value: schemaLocationInvoice},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ext:UBLExtensions siempre como primer hijo de Invoice (requerido por el firmador).
	// Extensión 1: DIAN (resolución). Extensión 2: placeholder para ds:Signature.
	s.writeUBLExtensions(enc, draft)

	writeCbc(enc, "UBLVersionID", "2.1")
	writeCbc(enc, "CustomizationID", "10")
	writeCbc(enc, "ProfileID", "DIAN 2.1: Factura Electrónica de Venta")
	writeCbc(enc, "ProfileExecutionID", draft.Environment)
	writeCbc(enc, "ID", draft.FullNumber)
	// cbc:UUID = CUFE (Código Único de Factura Electrónica)
	if cufe != "" {
		writeCbc(enc, "UUID", cufe)
	}
	writeCbc(enc, "IssueDate", draft.IssueDate)
	writeCbc(enc, "IssueTime", draft.IssueTime)
	writeCbc(enc, "InvoiceTypeCode", "01")
	writeCbc(enc, "DocumentCurrencyCode", "COP")
	writeCbc(enc, "LineCountNumeric", strconv.Itoa(len(draft.Lines)))

	s.writeParty(enc, "AccountingSupplierParty", draft.Supplier)
	s.writeParty(enc, "AccountingCustomerParty", draft.Customer)
	s.writeTaxTotals(enc, draft)
	s.writeLegalMonetaryTotal(enc, draft)
	for i, line := range draft.Lines {
		s.writeInvoiceLine(enc, i+1, line)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// reconcile verifica que los totales del borrador cuadren dentro de un centavo.
func reconcile(draft *dto.InvoiceDraft) error {
	exclusive, err := decimal.NewFromString(draft.TaxExclusiveTotal)
	if err != nil {
		return fmt.Errorf("dian: TaxExclusiveTotal %q: %w", draft.TaxExclusiveTotal, domain.ErrEncodingError)
	}
	tax, err := decimal.NewFromString(draft.TaxTotal)
	if err != nil {
		return fmt.Errorf("dian: TaxTotal %q: %w", draft.TaxTotal, domain.ErrEncodingError)
	}
	payable, err := decimal.NewFromString(draft.PayableTotal)
	if err != nil {
		return fmt.Errorf("dian: PayableTotal %q: %w", draft.PayableTotal, domain.ErrEncodingError)
	}
	diff := payable.Sub(exclusive.Add(tax)).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(0.01)) {
		return fmt.Errorf("dian: total a pagar %s no concilia con base %s + impuestos %s (diferencia %s): %w",
			draft.PayableTotal, draft.TaxExclusiveTotal, draft.TaxTotal, diff.String(), domain.ErrEncodingError)
	}
	return nil
}

func writeStart(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}})
}

func writeEnd(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func writeElem(enc *xml.Encoder, name, value string, attr ...xml.Attr) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attr})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func writeCbc(enc *xml.Encoder, local, value string) {
	writeElem(enc, "cbc:"+local, value)
}

func writeCbcAmount(enc *xml.Encoder, local, value string, currency string) {
	if currency == "" {
		writeElem(enc, "cbc:"+local, value)
		return
	}
	writeElem(enc, "cbc:"+local, value, xml.Attr{Name: xml.Name{Local: "currencyID"}, Value: currency})
}

func writeCbcWithAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	writeElem(enc, "cbc:"+local, value, xml.Attr{Name: xml.Name{Local: attrLocal}, Value: attrValue})
}

func writeSts(enc *xml.Encoder, local, value string) {
	writeElem(enc, "sts:"+local, value)
}

// writeUBLExtensions escribe ext:UBLExtensions con la extensión DIAN (datos de
// la resolución del rango) y un segundo ExtensionContent vacío donde el
// firmador inyecta <ds:Signature>.
func (s *XMLBuilderService) writeUBLExtensions(enc *xml.Encoder, draft *dto.InvoiceDraft) {
	writeStart(enc, "ext:UBLExtensions")

	// 1. Extensión DIAN (resolución de numeración)
	writeStart(enc, "ext:UBLExtension")
	writeStart(enc, "ext:ExtensionContent")
	if draft.ResolutionNumber != "" {
		writeStart(enc, "sts:DianExtensions")
		writeStart(enc, "sts:InvoiceControl")
		writeSts(enc, "InvoiceAuthorization", draft.ResolutionNumber)
		writeStart(enc, "sts:AuthorizationPeriod")
		writeSts(enc, "StartDate", draft.ResolutionDateFrom)
		writeSts(enc, "EndDate", draft.ResolutionDateTo)
		writeEnd(enc, "sts:AuthorizationPeriod")
		writeStart(enc, "sts:AuthorizedInvoices")
		writeSts(enc, "Prefix", draft.ResolutionPrefix)
		writeSts(enc, "From", strconv.FormatInt(draft.ResolutionFrom, 10))
		writeSts(enc, "To", strconv.FormatInt(draft.ResolutionTo, 10))
		writeEnd(enc, "sts:AuthorizedInvoices")
		writeEnd(enc, "sts:InvoiceControl")
		writeEnd(enc, "sts:DianExtensions")
	}
	writeEnd(enc, "ext:ExtensionContent")
	writeEnd(enc, "ext:UBLExtension")

	// 2. Extensión para la firma (placeholder vacío)
	writeStart(enc, "ext:UBLExtension")
	writeStart(enc, "ext:ExtensionContent")
	writeEnd(enc, "ext:ExtensionContent")
	writeEnd(enc, "ext:UBLExtension")

	writeEnd(enc, "ext:UBLExtensions")
}

func (s *XMLBuilderService) writeParty(enc *xml.Encoder, container string, party dto.PartyData) {
	writeStart(enc, "cac:"+container)
	writeStart(enc, "cac:Party")

	writeStart(enc, "cac:PartyIdentification")
	writeCbcWithAttr(enc, "ID", party.Document, "schemeID", party.DocumentType)
	writeEnd(enc, "cac:PartyIdentification")

	writeStart(enc, "cac:PartyName")
	writeCbc(enc, "Name", party.Name)
	writeEnd(enc, "cac:PartyName")

	if party.Address != "" {
		writeStart(enc, "cac:PostalAddress")
		writeCbc(enc, "StreetName", party.Address)
		writeEnd(enc, "cac:PostalAddress")
	}

	writeEnd(enc, "cac:Party")
	writeEnd(enc, "cac:"+container)
}

// writeTaxTotals escribe un cac:TaxTotal por cada subtotal del borrador con
// valor distinto de cero, en el orden canónico (01, 04, 03) que ya trae el
// borrador.
func (s *XMLBuilderService) writeTaxTotals(enc *xml.Encoder, draft *dto.InvoiceDraft) {
	for _, sub := range draft.TaxSubtotals {
		if sub.TaxAmount == "0.00" {
			continue
		}
		writeStart(enc, "cac:TaxTotal")
		writeCbcAmount(enc, "TaxAmount", sub.TaxAmount, "COP")
		writeStart(enc, "cac:TaxSubtotal")
		writeCbcAmount(enc, "TaxableAmount", sub.TaxableAmount, "COP")
		writeCbcAmount(enc, "TaxAmount", sub.TaxAmount, "COP")
		writeStart(enc, "cac:TaxCategory")
		writeCbc(enc, "Percent", sub.Percent)
		writeStart(enc, "cac:TaxScheme")
		writeCbc(enc, "ID", sub.Code)
		writeCbc(enc, "Name", pkgdian.TaxSchemeName(sub.Code))
		writeEnd(enc, "cac:TaxScheme")
		writeEnd(enc, "cac:TaxCategory")
		writeEnd(enc, "cac:TaxSubtotal")
		writeEnd(enc, "cac:TaxTotal")
	}
}

func (s *XMLBuilderService) writeLegalMonetaryTotal(enc *xml.Encoder, draft *dto.InvoiceDraft) {
	writeStart(enc, "cac:LegalMonetaryTotal")
	writeCbcAmount(enc, "LineExtensionAmount", draft.LineExtensionTotal, "COP")
	writeCbcAmount(enc, "TaxExclusiveAmount", draft.TaxExclusiveTotal, "COP")
	writeCbcAmount(enc, "TaxInclusiveAmount", draft.TaxInclusiveTotal, "COP")
	writeCbcAmount(enc, "PayableAmount", draft.PayableTotal, "COP")
	writeEnd(enc, "cac:LegalMonetaryTotal")
}

func (s *XMLBuilderService) writeInvoiceLine(enc *xml.Encoder, lineNum int, line dto.LineData) {
	unitCode := line.UnitCode
	if unitCode == "" {
		unitCode = pkgdian.UnitUnit
	}
	writeStart(enc, "cac:InvoiceLine")
	writeCbc(enc, "ID", strconv.Itoa(lineNum))
	writeCbcWithAttr(enc, "InvoicedQuantity", line.Quantity.String(), "unitCode", unitCode)
	writeCbcAmount(enc, "LineExtensionAmount", line.LineExtension, "COP")

	// cac:Item
	writeStart(enc, "cac:Item")
	desc := line.Description
	if desc == "" {
		desc = "Item " + strconv.Itoa(lineNum)
	}
	writeCbc(enc, "Description", desc)
	if line.ProductCode != "" {
		writeStart(enc, "cac:SellersItemIdentification")
		writeCbc(enc, "ID", line.ProductCode)
		writeEnd(enc, "cac:SellersItemIdentification")
	}
	writeEnd(enc, "cac:Item")

	// cac:Price
	writeStart(enc, "cac:Price")
	writeCbcAmount(enc, "PriceAmount", line.UnitPrice, "COP")
	writeCbcWithAttr(enc, "BaseQuantity", "1", "unitCode", unitCode)
	writeEnd(enc, "cac:Price")

	writeEnd(enc, "cac:InvoiceLine")
}
