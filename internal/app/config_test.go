package app

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.AppAddr)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.AppRequestTimeout)
	assert.Zero(t, cfg.RateLimitPerMinute)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_ADDR", ":9999")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9999", cfg.AppAddr)
	assert.Equal(t, StoreRedis, cfg.StoreDriver)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"STORE_DRIVER":          "postgres",
		"LOG_FORMAT":            "xml",
		"APP_ENV":               "staging",
		"RATE_LIMIT_PER_MINUTE": "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestIsProductionNilSafe(t *testing.T) {
	var cfg *Config
	assert.False(t, cfg.IsProduction())
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{LogFormat: "json"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	newLogger(nil, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestRefreshTestMode(t *testing.T) {
	t.Cleanup(RefreshTestMode)
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestEnvSwitchReadsOnceUntilReload(t *testing.T) {
	const name = "JWTPIZZA_TEST_SWITCH"
	t.Setenv(name, "1")
	sw := &envSwitch{name: name}
	assert.True(t, sw.enabled())

	t.Setenv(name, "")
	assert.True(t, sw.enabled(), "value is cached after first read")

	sw.reload()
	assert.False(t, sw.enabled())
}
