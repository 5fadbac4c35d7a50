package entity

import (
	"strconv"
	"strings"
)

// PasswordMinLength longitud mínima de contraseña.
const PasswordMinLength = 8

// PasswordViolation regla de fortaleza incumplida.
type PasswordViolation string

const (
	PasswordTooShort        PasswordViolation = "password_too_short"
	PasswordTooCommon       PasswordViolation = "password_too_common"
	PasswordEntirelyNumeric PasswordViolation = "password_entirely_numeric"
)

// commonPasswords lista corta de contraseñas frecuentes (comparación sin mayúsculas).
var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		123456 password 12345678 qwerty 123456789 12345 1234 111111 1234567 dragon
		123123 baseball abc123 football monkey letmein 696969 shadow master 666666
		qwertyuiop 123321 mustang 1234567890 michael 654321 superman 1qaz2wsx 7777777
		121212 000000 qazwsx 123qwe killer trustno1 jordan jennifer zxcvbnm asdfgh
		hunter buster soccer harley batman andrew tigger sunshine iloveyou 2000
		charlie robert thomas hockey ranger daniel starwars klaster 112233 george
		computer michelle jessica pepper 1111 zxcvbn 555555 11111111 131313 freedom
		777777 pass maggie 159753 aaaaaa ginger princess joshua cheese amanda summer
		love ashley nicole chelsea biteme matthew access yankees 987654321 dallas
		austin thunder taylor matrix mobilemail mom monitor monitoring montana moon
		moscow admin administrator welcome welcome1 password1 password123 passw0rd
		qwerty123 letmein1 changeme secret root toor guest login abc abcdef abcd1234
	`) {
		commonPasswords[p] = struct{}{}
	}
}

// CheckPasswordStrength devuelve las reglas incumplidas por la contraseña (vacío = válida).
func CheckPasswordStrength(password string) []PasswordViolation {
	var out []PasswordViolation
	if len([]rune(password)) < PasswordMinLength {
		out = append(out, PasswordTooShort)
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		out = append(out, PasswordTooCommon)
	}
	if password != "" && isNumeric(password) {
		out = append(out, PasswordEntirelyNumeric)
	}
	return out
}

// PasswordMinLengthParam parámetro textual para mensajes.
func PasswordMinLengthParam() string {
	return strconv.Itoa(PasswordMinLength)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
