package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Redis    RedisConfig
	DB       DBConfig
	Backend  BackendConfig
	Checkout CheckoutConfig
	Notify   NotifyConfig
	Session  SessionConfig
	JWT      JWTConfig

	AuthRateLimit AuthRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HOMETEX_APP_ENV" required:"true"`
	Port         string `envconfig:"HOMETEX_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"HOMETEX_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"HOMETEX_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"HOMETEX_LOG_WARN_STACK" default:"false"`
	// CORSOrigins lists the storefront origins allowed to call the API.
	CORSOrigins []string `envconfig:"HOMETEX_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the key-value backend standing in for browser local storage.
type StorageConfig struct {
	Driver    string `envconfig:"HOMETEX_STORAGE_DRIVER" default:"memory"`
	Namespace string `envconfig:"HOMETEX_STORAGE_NAMESPACE" default:"hometex"`
}

// NormalizedDriver returns the lower-cased driver name.
func (s StorageConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

// IsSQL reports whether the configured driver is backed by GORM.
func (s StorageConfig) IsSQL() bool {
	switch s.NormalizedDriver() {
	case StorageDriverPostgres, StorageDriverSQLite:
		return true
	}
	return false
}

type RedisConfig struct {
	URL          string        `envconfig:"HOMETEX_REDIS_URL"`
	Address      string        `envconfig:"HOMETEX_REDIS_ADDR"`
	Password     string        `envconfig:"HOMETEX_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOMETEX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOMETEX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOMETEX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOMETEX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOMETEX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOMETEX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN         string `envconfig:"HOMETEX_DB_DSN"`
	AutoMigrate bool   `envconfig:"HOMETEX_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"HOMETEX_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"HOMETEX_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"HOMETEX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOMETEX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery is the duration above which a statement is logged at warn.
	SlowQuery time.Duration `envconfig:"HOMETEX_DB_SLOW_QUERY" default:"200ms"`
}

// BackendConfig points at the external storefront API that owns authentication.
type BackendConfig struct {
	BaseURL string        `envconfig:"HOMETEX_BACKEND_BASE_URL" default:"http://localhost:8000/api"`
	Timeout time.Duration `envconfig:"HOMETEX_BACKEND_TIMEOUT" default:"10s"`
}

// CheckoutConfig holds the simulated latencies standing in for backend calls.
type CheckoutConfig struct {
	OrderPlacementDelay time.Duration `envconfig:"HOMETEX_ORDER_PLACEMENT_DELAY" default:"1s"`
	SocialLoginDelay    time.Duration `envconfig:"HOMETEX_SOCIAL_LOGIN_DELAY" default:"1s"`
}

type NotifyConfig struct {
	DebounceWindow time.Duration `envconfig:"HOMETEX_NOTIFY_DEBOUNCE_WINDOW" default:"500ms"`
	FeedCapacity   int           `envconfig:"HOMETEX_NOTIFY_FEED_CAPACITY" default:"20"`
}

type SessionConfig struct {
	IdleTTL time.Duration `envconfig:"HOMETEX_SESSION_IDLE_TTL" default:"30m"`
}

// JWTConfig controls how persisted bearer tokens are inspected. Tokens are
// never verified here; the backend owns signing keys.
type JWTConfig struct {
	ExpiryLeeway time.Duration `envconfig:"HOMETEX_JWT_EXPIRY_LEEWAY" default:"30s"`
}

// AuthRateLimitConfig throttles login and signup attempts per device and per email.
type AuthRateLimitConfig struct {
	Window      time.Duration `envconfig:"HOMETEX_AUTH_RATE_LIMIT_WINDOW" default:"1m"`
	DeviceLimit int           `envconfig:"HOMETEX_AUTH_RATE_LIMIT_DEVICE" default:"20"`
	EmailLimit  int           `envconfig:"HOMETEX_AUTH_RATE_LIMIT_EMAIL" default:"10"`
}

func (c *Config) validate() error {
	switch c.Storage.NormalizedDriver() {
	case StorageDriverMemory:
	case StorageDriverRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
	case StorageDriverPostgres, StorageDriverSQLite:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required for the %s storage driver", EnvDBDSN, c.Storage.NormalizedDriver())
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Notify.FeedCapacity <= 0 {
		return fmt.Errorf("%s must be positive", EnvNotifyFeedCapacity)
	}
	return nil
}
