package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test-defaults")

	c, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Port)
	require.Empty(t, c.DBUrl)
	require.Equal(t, "redis://localhost:6379/0", c.RedisUrl)
	require.Equal(t, 0.1, c.ClaimRadiusKm)
	require.Equal(t, 5*time.Minute, c.SessionTTL)
	require.Equal(t, "redis", c.Verifier)
	require.False(t, c.AccuracyAware)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	content := "PORT=:9999\nCLAIM_RADIUS_KM=0.25\nSESSION_TTL=90s\nVERIFIER=local\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte(content), 0o600))
	t.Setenv("VERIFIER", "redis")

	c, err := Load(viper.New(), dir)
	require.NoError(t, err)
	require.Equal(t, ":9999", c.Port)
	require.Equal(t, 0.25, c.ClaimRadiusKm)
	require.Equal(t, 90*time.Second, c.SessionTTL)
	require.Equal(t, "redis", c.Verifier)
}

func TestValidate(t *testing.T) {
	good := Config{ClaimRadiusKm: 0.1, SessionTTL: time.Minute, VerifyTimeout: time.Second, Verifier: "local"}
	require.NoError(t, good.Validate())

	bad := good
	bad.ClaimRadiusKm = 0
	require.Error(t, bad.Validate())

	bad = good
	bad.Verifier = "chain"
	require.Error(t, bad.Validate())

	bad = good
	bad.SessionTTL = 0
	require.Error(t, bad.Validate())
}
