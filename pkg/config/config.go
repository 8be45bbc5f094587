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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Gateway      GatewayConfig
	Stripe       StripeConfig
	Square       SquareConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Links        LinkConfig
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
	Env          string `envconfig:"RENTIVA_APP_ENV" required:"true"`
	Port         string `envconfig:"RENTIVA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RENTIVA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RENTIVA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RENTIVA_DB_DSN"`
	Driver string `envconfig:"RENTIVA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RENTIVA_DB_HOST"`
	LegacyPort     int    `envconfig:"RENTIVA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RENTIVA_DB_USER"`
	LegacyPassword string `envconfig:"RENTIVA_DB_PASSWORD"`
	LegacyName     string `envconfig:"RENTIVA_DB_NAME"`
	LegacySSLMode  string `envconfig:"RENTIVA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RENTIVA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RENTIVA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RENTIVA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RENTIVA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RENTIVA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RENTIVA_REDIS_ADDR"`
	Password     string        `envconfig:"RENTIVA_REDIS_PASSWORD"`
	DB           int           `envconfig:"RENTIVA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RENTIVA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RENTIVA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RENTIVA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RENTIVA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RENTIVA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RENTIVA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RENTIVA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RENTIVA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RENTIVA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RENTIVA_AUTO_MIGRATE" default:"false"`
}

// GatewayConfig bounds outbound gateway calls. A call that exceeds the
// timeout is treated as failed; retry happens on the next link-generation
// trigger, never by spinning in place.
type GatewayConfig struct {
	CallTimeout  time.Duration `envconfig:"RENTIVA_GATEWAY_CALL_TIMEOUT" default:"10s"`
	LinkTTL      time.Duration `envconfig:"RENTIVA_GATEWAY_LINK_TTL" default:"72h"`
	WebhookDedup time.Duration `envconfig:"RENTIVA_GATEWAY_WEBHOOK_DEDUP_TTL" default:"720h"`
}

type StripeConfig struct {
	APIKey string `envconfig:"RENTIVA_STRIPE_API_KEY"`
	Secret string `envconfig:"RENTIVA_STRIPE_SECRET"`
	Env    string `envconfig:"RENTIVA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SquareConfig struct {
	AccessToken   string `envconfig:"RENTIVA_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"RENTIVA_SQUARE_WEBHOOK_SECRET"`
	LocationID    string `envconfig:"RENTIVA_SQUARE_LOCATION_ID"`
	Env           string `envconfig:"RENTIVA_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RENTIVA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"RENTIVA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RENTIVA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"RENTIVA_PUBSUB_NOTIFICATION_TOPIC" default:"rv-notification-events"`
}

// LinkConfig holds presentation data embedded in generated payment links.
type LinkConfig struct {
	MerchantName     string `envconfig:"RENTIVA_LINK_MERCHANT_NAME" default:"Rentiva Car Rental"`
	BankAccountIBAN  string `envconfig:"RENTIVA_LINK_BANK_IBAN"`
	BankAccountOwner string `envconfig:"RENTIVA_LINK_BANK_OWNER"`
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
