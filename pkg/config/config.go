package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the backend reads.
	EnvPrefix = "YASBOSS"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "YASBOSS_APP_ENV"
	EnvDBDSN  = "YASBOSS_DB_DSN"
	EnvDBHost = "YASBOSS_DB_HOST"
	EnvDBUser = "YASBOSS_DB_USER"
	EnvDBName = "YASBOSS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	Cache        CacheConfig
	Cron         CronConfig
	Payments     PaymentsConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"YASBOSS_APP_ENV" required:"true"`
	Port         string `envconfig:"YASBOSS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"YASBOSS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"YASBOSS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"YASBOSS_DB_DSN"`
	Driver string `envconfig:"YASBOSS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"YASBOSS_DB_HOST"`
	LegacyPort     int    `envconfig:"YASBOSS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"YASBOSS_DB_USER"`
	LegacyPassword string `envconfig:"YASBOSS_DB_PASSWORD"`
	LegacyName     string `envconfig:"YASBOSS_DB_NAME"`
	LegacySSLMode  string `envconfig:"YASBOSS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"YASBOSS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"YASBOSS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"YASBOSS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"YASBOSS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"YASBOSS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"YASBOSS_REDIS_ADDR"`
	Password     string        `envconfig:"YASBOSS_REDIS_PASSWORD"`
	DB           int           `envconfig:"YASBOSS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"YASBOSS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"YASBOSS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"YASBOSS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"YASBOSS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"YASBOSS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig carries the pricing defaults used when the settings table
// has no override for a key.
type CheckoutConfig struct {
	FreeShippingThreshold string `envconfig:"YASBOSS_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"500"`
	DeliveryFee           string `envconfig:"YASBOSS_CHECKOUT_DELIVERY_FEE" default:"49"`
	TaxPercent            string `envconfig:"YASBOSS_CHECKOUT_TAX_PERCENT" default:"0"`

	// PointRedeemRate is the currency value of one loyalty point spent at
	// checkout. Pending product-owner confirmation; do not hardcode.
	PointRedeemRate string `envconfig:"YASBOSS_CHECKOUT_POINT_REDEEM_RATE" default:"1"`

	PendingOrderTTL time.Duration `envconfig:"YASBOSS_CHECKOUT_PENDING_ORDER_TTL" default:"72h"`
}

type CacheConfig struct {
	SettingsTTL time.Duration `envconfig:"YASBOSS_CACHE_SETTINGS_TTL" default:"5m"`
	CatalogTTL  time.Duration `envconfig:"YASBOSS_CACHE_CATALOG_TTL" default:"10m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"YASBOSS_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"YASBOSS_CRON_LOCK_TTL" default:"55m"`
}

type PaymentsConfig struct {
	IdempotencyTTL time.Duration `envconfig:"YASBOSS_PAYMENTS_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"YASBOSS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
