package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.App.Storage)
	assert.Equal(t, 64, cfg.Auth.TokenLength)
	assert.Equal(t, 6, cfg.Auth.OTPLength)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 3, cfg.RateLimit.InvitationMax)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.InvitationWindow)
	assert.False(t, cfg.Seed.BaseUsers)
	assert.Equal(t, 60, cfg.JWT.Expiration)
	assert.Equal(t, 7*24*60, cfg.JWT.RefreshExpiration)
}

func TestFromViper_LeeVariables(t *testing.T) {
	v := viper.New()
	v.Set("FRONTEND_URL", "https://app.evidenta.cz/")
	v.Set("INVITATION_LINK_TOKEN_EXPIRATION_MINS", "30")
	v.Set("RATE_LIMIT_WINDOW", "90s")
	v.Set("NOTIFICATION_TIMEOUT", "2")
	v.Set("STORAGE_DRIVER", "memory")
	v.Set("JWT_REFRESH_EXPIRATION_MINUTES", "120")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "https://app.evidenta.cz", cfg.Auth.FrontendURL, "la barra final se elimina")
	assert.Equal(t, 30, cfg.Auth.InvitationLinkExpirationMinutes)
	assert.Equal(t, 90*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 2*time.Second, cfg.Notification.Timeout)
	assert.Equal(t, "memory", cfg.App.Storage)
	assert.Equal(t, 120, cfg.JWT.RefreshExpiration)
}

func TestFromViper_ProduccionSinSecretFalla(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestFromViper_StorageInvalido(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "sqlite")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "evidenta", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/evidenta?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
