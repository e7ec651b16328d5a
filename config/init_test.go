package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.Equal(t, "", cfg.Database.Driver)
	assert.Equal(t, 1, cfg.Download.DefaultLimit)
	assert.Equal(t, 24*time.Hour, cfg.Download.DefaultTTL)
	assert.Equal(t, "10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16", cfg.Provisioning.AllowedIPs)
	assert.Equal(t, 51820, cfg.Provisioning.DefaultPort)
	assert.Equal(t, "local", cfg.QR.Mode)
	assert.Equal(t, 5*time.Second, cfg.QR.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("DOWNLOAD_DEFAULT_TTL", "2h")
	t.Setenv("DOWNLOAD_DEFAULT_LIMIT", "3")
	t.Setenv("PROVISIONING_ROUTER_DIALECT", "openwrt")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Download.DefaultTTL)
	assert.Equal(t, 3, cfg.Download.DefaultLimit)
	assert.Equal(t, "openwrt", cfg.Provisioning.RouterDialect)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_DISABLED", "false")
	_, err := Load()
	assert.ErrorContains(t, err, "auth.jwt_secret")
}

func TestValidate_Rejects(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "x")

	cases := map[string]string{
		"DATABASE_DRIVER":          "oracle",
		"DOWNLOAD_DEFAULT_LIMIT":   "0",
		"QR_MODE":                  "fax",
		"QR_SIZE":                  "100",
		"PROVISIONING_ALLOWED_IPS": "10.0.0.0/8, nope",
	}
	for env, val := range cases {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RejectsBadAllowedIPs(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "x")
	t.Setenv("PROVISIONING_ALLOWED_IPS", "10.0.0.0/8,192.168.1.300/24")
	_, err := Load()
	assert.ErrorContains(t, err, "provisioning.allowed_ips")
}
