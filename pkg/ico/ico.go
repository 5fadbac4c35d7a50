package ico

import "fmt"

// Length número de dígitos de un identificador de empresa (IČO).
const Length = 8

// Validate verifica el identificador de empresa de 8 dígitos con el algoritmo módulo 11.
// Los 7 primeros dígitos se ponderan de derecha a izquierda con pesos 2..8;
// el último dígito es el de control.
func Validate(number string) error {
	if len(number) != Length {
		return fmt.Errorf("ico: debe tener %d dígitos, se recibieron %d", Length, len(number))
	}
	if len(extractDigits(number)) != Length {
		return fmt.Errorf("ico: contiene caracteres no numéricos")
	}
	expected, err := ComputeCheckDigit(number[:Length-1])
	if err != nil {
		return err
	}
	if number[Length-1] != expected {
		return fmt.Errorf("ico: dígito de control inválido: esperado %c, recibido %c", expected, number[Length-1])
	}
	return nil
}

// ComputeCheckDigit calcula el dígito de control para los 7 primeros dígitos.
func ComputeCheckDigit(base string) (byte, error) {
	digits := extractDigits(base)
	if len(digits) != Length-1 || len(base) != Length-1 {
		return 0, fmt.Errorf("ico: se requieren %d dígitos para calcular el control", Length-1)
	}
	var sum int
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
	}
	switch mod := sum % 11; mod {
	case 0:
		return '1', nil
	case 1:
		return '0', nil
	default:
		return byte('0' + 11 - mod), nil
	}
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, byte(r))
		}
	}
	return out
}
