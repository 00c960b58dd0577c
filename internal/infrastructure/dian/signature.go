// Utilidades de firma y canonicalización del XML UBL: inyección del nodo
// ds:Signature en el segundo ext:ExtensionContent y digest canónico C14N.

package dian

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// InjectSignature coloca el fragmento signatureXML (un nodo ds:Signature
// completo) dentro del segundo ext:ExtensionContent del documento, el
// placeholder vacío que deja el codificador. Devuelve el documento
// serializado de nuevo.
func InjectSignature(xmlBytes []byte, signatureXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("dian: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("dian: documento sin raíz")
	}

	// Buscar ext:UBLExtensions (Tag puede traer o no el prefijo según el parser)
	var ublExt *etree.Element
	for _, child := range root.ChildElements() {
		if child.Tag == "UBLExtensions" || child.Tag == "ext:UBLExtensions" {
			ublExt = child
			break
		}
	}
	if ublExt == nil {
		return nil, fmt.Errorf("dian: no se encontró ext:UBLExtensions en el XML")
	}

	extensions := ublExt.ChildElements()
	if len(extensions) < 2 {
		return nil, fmt.Errorf("dian: el documento no trae la segunda UBLExtension para la firma")
	}
	second := extensions[1]
	var content *etree.Element
	for _, child := range second.ChildElements() {
		if child.Tag == "ExtensionContent" || child.Tag == "ext:ExtensionContent" {
			content = child
			break
		}
	}
	if content == nil {
		content = second.CreateElement("ExtensionContent")
		content.Space = second.Space
	}

	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("dian: parsear nodo Signature: %w", err)
	}
	sigRoot := sigDoc.Root()
	if sigRoot == nil {
		return nil, fmt.Errorf("dian: fragmento de firma vacío")
	}
	content.AddChild(sigRoot)

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("dian: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

// CanonicalDigest canonicaliza el XML (C14N) y devuelve el SHA-256 en hex.
// Es el valor que se persiste como xml_digest junto a la factura: permite
// verificar después que el documento almacenado no fue alterado.
func CanonicalDigest(xmlBytes []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("dian: canonicalizar XML: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
