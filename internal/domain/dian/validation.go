// Validaciones de formato para identificadores DIAN.

package dian

// IsValidCufe valida que el CUFE tenga exactamente 96 caracteres
// hexadecimales en minúscula (SHA-384: 384 bits / 4 bits por nibble).
func IsValidCufe(cufe string) bool {
	if len(cufe) != 96 {
		return false
	}
	for _, r := range cufe {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
