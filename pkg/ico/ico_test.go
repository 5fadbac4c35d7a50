package ico_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evidenta-api/pkg/ico"
)

// ──────────────────────────────────────────────────────────────────────────────
// Vectores reales de empresas registradas (ARES).
// ──────────────────────────────────────────────────────────────────────────────

var validNumbers = []string{"25596641", "27082440", "00006947", "45274649", "49240901", "00023221"}

func TestValidate_NumerosValidos(t *testing.T) {
	for _, n := range validNumbers {
		assert.NoError(t, ico.Validate(n), "el IČO %s debe ser válido", n)
	}
}

func TestValidate_DigitoControlIncorrecto(t *testing.T) {
	assert.Error(t, ico.Validate("12345678"))
	assert.Error(t, ico.Validate("25596642"), "cambiar el último dígito invalida el número")
}

func TestValidate_LongitudYCaracteres(t *testing.T) {
	assert.Error(t, ico.Validate(""))
	assert.Error(t, ico.Validate("2559664"))
	assert.Error(t, ico.Validate("255966410"))
	assert.Error(t, ico.Validate("2559664a"))
	assert.Error(t, ico.Validate("255 6641"))
}

// Cualquier mutación de un solo dígito debe detectarse en al menos una posición,
// y el dígito de control solo admite un valor.
func TestValidate_SensibleAMutacionDeUnDigito(t *testing.T) {
	for _, n := range validNumbers {
		detected := 0
		for pos := 0; pos < ico.Length; pos++ {
			for d := byte('0'); d <= '9'; d++ {
				if n[pos] == d {
					continue
				}
				mutated := []byte(n)
				mutated[pos] = d
				if ico.Validate(string(mutated)) != nil {
					detected++
				}
			}
		}
		assert.Greater(t, detected, 0, "mutaciones de %s deben invalidar el número", n)

		for d := byte('0'); d <= '9'; d++ {
			if n[ico.Length-1] == d {
				continue
			}
			assert.Error(t, ico.Validate(n[:ico.Length-1]+string(d)))
		}
	}
}

func TestComputeCheckDigit_CoincideConValidate(t *testing.T) {
	for _, n := range validNumbers {
		d, err := ico.ComputeCheckDigit(n[:7])
		require.NoError(t, err)
		assert.Equal(t, n[7], d)
	}
	_, err := ico.ComputeCheckDigit("123")
	assert.Error(t, err)
}
