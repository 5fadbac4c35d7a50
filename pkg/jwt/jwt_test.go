package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/evidenta-api/pkg/jwt"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testUserID = "00000000-0000-0000-0000-000000000001"
)

func TestGenerateAndParse_ConservaClaims(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, "supervisor", "supervisor", "evidenta-test", 60)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, "supervisor", claims.Username)
	assert.Equal(t, "supervisor", claims.Role)
	assert.Equal(t, testUserID, claims.Subject)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, "guest", "guest", "evidenta-test", -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, "guest", "guest", "evidenta-test", 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", testUserID, "guest", "guest", "evidenta-test", 60)
	assert.Error(t, err)
}

func TestRefresh_ConservaOrigIatYRenuevaExpiracion(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testUserID, "guest", "guest", "evidenta-test", 1)
	require.NoError(t, err)
	claims, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	orig := claims.OrigIat
	require.NotZero(t, orig)

	// orig_iat del primer token aunque el que se refresca no lo traiga
	claims.OrigIat = 0
	claims.IssuedAt.Time = time.Unix(orig, 0)

	refreshed, err := pkgjwt.Refresh(testSecret, claims, 120)
	require.NoError(t, err)
	got, err := pkgjwt.Parse(testSecret, refreshed)
	require.NoError(t, err)
	assert.Equal(t, orig, got.OrigIat)
	assert.Equal(t, testUserID, got.UserID)
	assert.Equal(t, "evidenta-test", got.Issuer)
	assert.True(t, got.ExpiresAt.After(claims.ExpiresAt.Time), "exp debe avanzar")
	assert.WithinDuration(t, time.Unix(orig, 0), got.OrigIssuedAt(), 0)
}

func TestRefresh_SecretOClaimsVacios(t *testing.T) {
	_, err := pkgjwt.Refresh("", &pkgjwt.Claims{UserID: testUserID}, 60)
	assert.Error(t, err)
	_, err = pkgjwt.Refresh(testSecret, &pkgjwt.Claims{}, 60)
	assert.Error(t, err)
	_, err = pkgjwt.Refresh(testSecret, nil, 60)
	assert.Error(t, err)
}
