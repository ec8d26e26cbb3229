package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	Metrics      MetricsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENDA_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VENDA_DB_DSN"`
	Driver string `envconfig:"VENDA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VENDA_DB_HOST"`
	Port     int    `envconfig:"VENDA_DB_PORT" default:"5432"`
	User     string `envconfig:"VENDA_DB_USER"`
	Password string `envconfig:"VENDA_DB_PASSWORD"`
	Name     string `envconfig:"VENDA_DB_NAME"`
	SSLMode  string `envconfig:"VENDA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDA_REDIS_URL"`
	Address      string        `envconfig:"VENDA_REDIS_ADDR"`
	Password     string        `envconfig:"VENDA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig carries the per-session parameters of the checkout engine.
type CheckoutConfig struct {
	// DefaultTaxRatePercent is used when the settings table has no override.
	DefaultTaxRatePercent string        `envconfig:"VENDA_CHECKOUT_TAX_RATE_PERCENT" default:"16"`
	PointValue            string        `envconfig:"VENDA_CHECKOUT_POINT_VALUE" default:"1"`
	CommitTimeout         time.Duration `envconfig:"VENDA_CHECKOUT_COMMIT_TIMEOUT" default:"15s"`
	WalkInCustomerName    string        `envconfig:"VENDA_CHECKOUT_WALK_IN_NAME" default:"Walk-in"`
	SessionTTL            time.Duration `envconfig:"VENDA_CHECKOUT_SESSION_TTL" default:"4h"`
}

func (c CheckoutConfig) validate() error {
	if c.CommitTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutCommitTimeout)
	}
	return nil
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"VENDA_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"VENDA_METRICS_PATH" default:"/metrics"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VENDA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
