package app

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers for the account directory.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds runtime configuration for the mock server.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development" validate:"oneof=development test production"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":3001" validate:"required"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s" validate:"gt=0"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s" validate:"gt=0"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty" validate:"oneof=pretty json"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory" validate:"oneof=memory redis"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379" validate:"required_if=StoreDriver redis"`
	SeedFile    string `envconfig:"SEED_FILE"`

	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"0" validate:"gte=0"`
	CORSOrigin         string `envconfig:"CORS_ORIGIN" default:"*"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsProduction returns true when the server runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// testModeEnv set to "1" makes the binary exit before binding a port or
// dialing Redis. Tests set it by importing the module's testing package.
const testModeEnv = "JWTPIZZA_TEST_MODE"

// envSwitch is a boolean environment variable read on first use.
type envSwitch struct {
	name string
	once sync.Once
	mu   sync.RWMutex
	on   bool
}

func (s *envSwitch) enabled() bool {
	s.once.Do(s.reload)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.on
}

func (s *envSwitch) reload() {
	s.mu.Lock()
	s.on = os.Getenv(s.name) == "1"
	s.mu.Unlock()
}

var testMode = &envSwitch{name: testModeEnv}

// InTestMode reports whether JWTPIZZA_TEST_MODE is "1".
func InTestMode() bool {
	return testMode.enabled()
}

// RefreshTestMode re-reads JWTPIZZA_TEST_MODE after the environment changed.
func RefreshTestMode() {
	testMode.reload()
}
