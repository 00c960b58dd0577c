// Package dian: punto de extensión para la firma digital XAdES del documento.

package dian

// Signer es el callback de firma que recibe el XML UBL ya codificado y
// devuelve el documento con el nodo ds:Signature inyectado en el segundo
// ext:ExtensionContent. La gestión del certificado y el algoritmo XAdES son
// responsabilidad de la implementación externa; el motor solo garantiza el
// placeholder en el documento (ver infraestructura dian.InjectSignature).
type Signer interface {
	Sign(xmlBytes []byte) ([]byte, error)
}
