package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más la identidad de la sesión.
// Los permisos no viajan en el token: se resuelven en cada petición desde la DB.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	// OrigIat emisión del primer token de la cadena de refrescos (unix).
	OrigIat int64 `json:"orig_iat,omitempty"`
}

// OrigIssuedAt fecha de emisión del token original; cae en IssuedAt si falta orig_iat.
func (c *Claims) OrigIssuedAt() time.Time {
	if c.OrigIat != 0 {
		return time.Unix(c.OrigIat, 0)
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// Generate genera un token JWT firmado para la sesión del usuario.
func Generate(secret, userID, username, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:   userID,
		Username: username,
		Role:     role,
		OrigIat:  now.Unix(),
	}
	return sign(secret, claims)
}

// Refresh vuelve a firmar los claims con iat y exp nuevos. orig_iat se conserva
// para que quien refresca pueda acotar la vida total de la sesión.
func Refresh(secret string, claims *Claims, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	if claims == nil || claims.UserID == "" {
		return "", fmt.Errorf("jwt: claims inválidos")
	}
	now := time.Now()
	out := *claims
	out.OrigIat = claims.OrigIssuedAt().Unix()
	out.IssuedAt = jwt.NewNumericDate(now)
	out.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute))
	return sign(secret, out)
}

func sign(secret string, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve sus claims.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("claims inválidos")
	}
	return claims, nil
}
