// Package password hashea y verifica contraseñas con bcrypt.
package password

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash genera el hash bcrypt con el coste por defecto.
func Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Check compara plain contra hash. Un hash vacío nunca coincide.
func Check(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
