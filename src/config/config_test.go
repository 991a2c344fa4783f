package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QR_MAX_AGE", "")
	t.Setenv("GATEWAY_TIMEOUT", "not-a-duration")
	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.QRMaxAge)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestQRSecretsOrder(t *testing.T) {
	t.Setenv("QR_SIGNING_SECRET", "current")
	t.Setenv("QR_PREVIOUS_SECRETS", " rotated-2 ,rotated-1,")
	t.Setenv("QR_LEGACY_SECRET", "legacy-default")

	cfg := Load()
	assert.Equal(t, []string{"current", "rotated-2", "rotated-1", "legacy-default"}, cfg.QRSecrets())
}

func TestQRSecretsWithoutLegacy(t *testing.T) {
	t.Setenv("QR_SIGNING_SECRET", "current")
	t.Setenv("QR_PREVIOUS_SECRETS", "")
	t.Setenv("QR_LEGACY_SECRET", "")

	cfg := Load()
	assert.Equal(t, []string{"current"}, cfg.QRSecrets())
}

func TestGetDSN(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_USER", "u")
	t.Setenv("DATABASE_PASSWORD", "p")
	t.Setenv("DATABASE_NAME", "events")
	t.Setenv("DATABASE_PORT", "")

	assert.Equal(t, "host=db user=u password=p dbname=events port=5432 sslmode=disable TimeZone=UTC", GetDSN())
}
