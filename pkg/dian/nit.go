package dian

import (
	"fmt"
	"unicode"
)

// pesos para el cálculo del dígito de verificación NIT (Orden Administrativa 4 de 1989, DIAN).
// Se aplican a los 9 primeros dígitos del NIT, de izquierda a derecha.
var nitWeights = [9]int{41, 37, 29, 23, 19, 17, 13, 7, 3}

// CleanNIT elimina todo carácter no numérico del NIT o documento
// ("900.123.456-7" → "9001234567").
func CleanNIT(nit string) string {
	return string(extractDigits(nit))
}

// ValidateNITVerificationDigit valida que el NIT (con o sin puntos/guiones) tenga
// un dígito de verificación correcto según el algoritmo módulo 11 de la DIAN.
func ValidateNITVerificationDigit(taxID string) error {
	digits := extractDigits(taxID)
	if len(digits) < 10 {
		return fmt.Errorf("dian: NIT con dígito de verificación debe tener 10 dígitos, se encontraron %d", len(digits))
	}
	expected, err := ComputeNITVerificationDigit(string(digits[:9]))
	if err != nil {
		return err
	}
	if digits[9] != expected {
		return fmt.Errorf("dian: dígito de verificación del NIT inválido: esperado %c, recibido %c", expected, digits[9])
	}
	return nil
}

// ComputeNITVerificationDigit calcula el dígito de verificación para los 9
// primeros dígitos del NIT (módulo 11).
func ComputeNITVerificationDigit(taxID string) (byte, error) {
	digits := extractDigits(taxID)
	if len(digits) < 9 {
		return 0, fmt.Errorf("dian: se requieren al menos 9 dígitos para calcular el dígito de verificación, se encontraron %d", len(digits))
	}
	var sum int
	for i, d := range digits[:9] {
		sum += int(d-'0') * nitWeights[i]
	}
	remainder := sum % 11
	if remainder == 0 || remainder == 1 {
		return byte('0' + remainder), nil
	}
	return byte('0' + (11 - remainder)), nil
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
