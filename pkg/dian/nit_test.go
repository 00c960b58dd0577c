package dian_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-dian/pkg/dian"
)

func TestCleanNIT(t *testing.T) {
	assert.Equal(t, "9001234567", dian.CleanNIT("900.123.456-7"))
	assert.Equal(t, "860123456", dian.CleanNIT("  860 123 456 "))
	assert.Equal(t, "", dian.CleanNIT("sin dígitos"))
}

func TestComputeNITVerificationDigit(t *testing.T) {
	casos := []struct {
		nit string
		dv  byte
	}{
		{"900123456", '8'},
		{"860123456", '3'},
		{"900000009", '0'}, // residuo módulo 11 en 0
		{"900.123.456", '8'},
	}
	for _, c := range casos {
		dv, err := dian.ComputeNITVerificationDigit(c.nit)
		require.NoError(t, err, c.nit)
		assert.Equal(t, string(c.dv), string(dv), c.nit)
	}
}

func TestComputeNITVerificationDigit_MuyCorto(t *testing.T) {
	_, err := dian.ComputeNITVerificationDigit("12345")
	require.Error(t, err)
}

func TestValidateNITVerificationDigit(t *testing.T) {
	require.NoError(t, dian.ValidateNITVerificationDigit("900.123.456-8"))
	require.NoError(t, dian.ValidateNITVerificationDigit("8601234563"))

	err := dian.ValidateNITVerificationDigit("900.123.456-7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dígito de verificación")

	require.Error(t, dian.ValidateNITVerificationDigit("900123456"))
}
