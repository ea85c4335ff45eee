package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SCOREBOARD"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv         = "SCOREBOARD_APP_ENV"
	EnvPort           = "SCOREBOARD_APP_PORT"
	EnvDBDSN          = "SCOREBOARD_DB_DSN"
	EnvDBElevatedDSN  = "SCOREBOARD_DB_ELEVATED_DSN"
	EnvDBHost         = "SCOREBOARD_DB_HOST"
	EnvDBUser         = "SCOREBOARD_DB_USER"
	EnvDBName         = "SCOREBOARD_DB_NAME"
	EnvRedisURL       = "SCOREBOARD_REDIS_URL"
	EnvJWTSecret      = "SCOREBOARD_JWT_SECRET"
	EnvJWTIssuer      = "SCOREBOARD_JWT_ISSUER"
	EnvBillingAPIKey  = "LEMONSQUEEZY_API_KEY"
	EnvBillingStoreID = "LEMONSQUEEZY_STORE_ID"
	EnvBillingSecret  = "LEMONSQUEEZY_WEBHOOK_SECRET"
	EnvPricingTTL     = "SCOREBOARD_PRICING_CACHE_TTL"

	EnvMonthlySupporterVariant   = "LEMONSQUEEZY_MONTHLY_SUPPORTER_VARIANT_ID"
	EnvMonthlyChampionVariant    = "LEMONSQUEEZY_MONTHLY_CHAMPION_VARIANT_ID"
	EnvMonthlyLegendVariant      = "LEMONSQUEEZY_MONTHLY_LEGEND_VARIANT_ID"
	EnvMonthlyHallOfFamerVariant = "LEMONSQUEEZY_MONTHLY_HALL_OF_FAMER_VARIANT_ID"
	EnvYearlySupporterVariant    = "LEMONSQUEEZY_YEARLY_SUPPORTER_VARIANT_ID"
	EnvYearlyChampionVariant     = "LEMONSQUEEZY_YEARLY_CHAMPION_VARIANT_ID"
	EnvYearlyLegendVariant       = "LEMONSQUEEZY_YEARLY_LEGEND_VARIANT_ID"
	EnvYearlyHallOfFamerVariant  = "LEMONSQUEEZY_YEARLY_HALL_OF_FAMER_VARIANT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Billing      BillingConfig
	Variants     VariantsConfig
	Pricing      PricingConfig
	Kiosk        KioskConfig
	CORS         CORSConfig
	Cron         CronConfig
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
	Env          string `envconfig:"SCOREBOARD_APP_ENV" required:"true"`
	Port         string `envconfig:"SCOREBOARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SCOREBOARD_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SCOREBOARD_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SCOREBOARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SCOREBOARD_DB_DSN"`
	Driver string `envconfig:"SCOREBOARD_DB_DRIVER" default:"postgres"`

	// ElevatedDSN connects as the service role that bypasses row level security.
	// Admin operations use it; when unset the primary DSN is reused.
	ElevatedDSN string `envconfig:"SCOREBOARD_DB_ELEVATED_DSN"`

	LegacyHost     string `envconfig:"SCOREBOARD_DB_HOST"`
	LegacyPort     int    `envconfig:"SCOREBOARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCOREBOARD_DB_USER"`
	LegacyPassword string `envconfig:"SCOREBOARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCOREBOARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCOREBOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCOREBOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCOREBOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCOREBOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCOREBOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SCOREBOARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SCOREBOARD_REDIS_ADDR"`
	Password     string        `envconfig:"SCOREBOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"SCOREBOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SCOREBOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCOREBOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCOREBOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCOREBOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCOREBOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"SCOREBOARD_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SCOREBOARD_JWT_ISSUER" required:"true"`
	// CheckSessions enables the Redis session lookup on every authenticated request.
	CheckSessions bool `envconfig:"SCOREBOARD_JWT_CHECK_SESSIONS" default:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SCOREBOARD_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"SCOREBOARD_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type BillingConfig struct {
	APIKey        string        `envconfig:"LEMONSQUEEZY_API_KEY"`
	StoreID       string        `envconfig:"LEMONSQUEEZY_STORE_ID"`
	WebhookSecret string        `envconfig:"LEMONSQUEEZY_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"LEMONSQUEEZY_BASE_URL" default:"https://api.lemonsqueezy.com"`
	Timeout       time.Duration `envconfig:"LEMONSQUEEZY_HTTP_TIMEOUT" default:"15s"`
}

// VariantsConfig holds the external variant identifier for every (tier, interval) pair.
// Empty values are valid and mean the pair is not purchasable.
type VariantsConfig struct {
	MonthlySupporter   string `envconfig:"LEMONSQUEEZY_MONTHLY_SUPPORTER_VARIANT_ID"`
	MonthlyChampion    string `envconfig:"LEMONSQUEEZY_MONTHLY_CHAMPION_VARIANT_ID"`
	MonthlyLegend      string `envconfig:"LEMONSQUEEZY_MONTHLY_LEGEND_VARIANT_ID"`
	MonthlyHallOfFamer string `envconfig:"LEMONSQUEEZY_MONTHLY_HALL_OF_FAMER_VARIANT_ID"`
	YearlySupporter    string `envconfig:"LEMONSQUEEZY_YEARLY_SUPPORTER_VARIANT_ID"`
	YearlyChampion     string `envconfig:"LEMONSQUEEZY_YEARLY_CHAMPION_VARIANT_ID"`
	YearlyLegend       string `envconfig:"LEMONSQUEEZY_YEARLY_LEGEND_VARIANT_ID"`
	YearlyHallOfFamer  string `envconfig:"LEMONSQUEEZY_YEARLY_HALL_OF_FAMER_VARIANT_ID"`
}

type PricingConfig struct {
	CacheTTL time.Duration `envconfig:"SCOREBOARD_PRICING_CACHE_TTL" default:"5m"`
}

type KioskConfig struct {
	MaxSlides          int `envconfig:"SCOREBOARD_KIOSK_MAX_SLIDES" default:"20"`
	TempPositionOffset int `envconfig:"SCOREBOARD_KIOSK_TEMP_POSITION_OFFSET" default:"1000"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SCOREBOARD_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// CronConfig drives cmd/cron-worker. Each job runs at most once per interval
// across all worker instances.
type CronConfig struct {
	Tick                   time.Duration `envconfig:"SCOREBOARD_CRON_TICK" default:"1m"`
	ReconcileInterval      time.Duration `envconfig:"SCOREBOARD_CRON_RECONCILE_INTERVAL" default:"1h"`
	ReconcileStaleAfter    time.Duration `envconfig:"SCOREBOARD_CRON_RECONCILE_STALE_AFTER" default:"24h"`
	ReconcileBatchSize     int           `envconfig:"SCOREBOARD_CRON_RECONCILE_BATCH_SIZE" default:"100"`
	PricingRefreshInterval time.Duration `envconfig:"SCOREBOARD_CRON_PRICING_REFRESH_INTERVAL" default:"6h"`
	MetricsAddr            string        `envconfig:"SCOREBOARD_CRON_METRICS_ADDR" default:":9091"`
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
