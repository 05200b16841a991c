package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	Mongo         MongoConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Tracking      TrackingConfig
	Push          PushConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Stripe        StripeConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"MEALBRIDGE_APP_ENV" required:"true"`
	Port         string `envconfig:"MEALBRIDGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEALBRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEALBRIDGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind        string `envconfig:"MEALBRIDGE_SERVICE_KIND" default:"api"`
	// MetricsAddr is where background workers expose /metrics; empty disables it.
	MetricsAddr string `envconfig:"MEALBRIDGE_WORKER_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"MEALBRIDGE_DB_DSN"`
	Driver string `envconfig:"MEALBRIDGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEALBRIDGE_DB_HOST"`
	LegacyPort     int    `envconfig:"MEALBRIDGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEALBRIDGE_DB_USER"`
	LegacyPassword string `envconfig:"MEALBRIDGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEALBRIDGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEALBRIDGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEALBRIDGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEALBRIDGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEALBRIDGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEALBRIDGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"MEALBRIDGE_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEALBRIDGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEALBRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"MEALBRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEALBRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEALBRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEALBRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEALBRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEALBRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEALBRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// MongoConfig is optional; an empty URI disables the delivery breadcrumb trail.
type MongoConfig struct {
	URI            string        `envconfig:"MEALBRIDGE_MONGO_URI"`
	Database       string        `envconfig:"MEALBRIDGE_MONGO_DB" default:"mealbridge"`
	ConnectTimeout time.Duration `envconfig:"MEALBRIDGE_MONGO_CONNECT_TIMEOUT" default:"10s"`
}

func (m MongoConfig) Enabled() bool {
	return strings.TrimSpace(m.URI) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"MEALBRIDGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEALBRIDGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MEALBRIDGE_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MEALBRIDGE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MEALBRIDGE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MEALBRIDGE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MEALBRIDGE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MEALBRIDGE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MEALBRIDGE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MEALBRIDGE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MEALBRIDGE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MEALBRIDGE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MEALBRIDGE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MEALBRIDGE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	ClientURL string `envconfig:"MEALBRIDGE_CLIENT_URL" required:"true"`
}

// AllowedOrigins splits the comma separated client url list.
func (c CORSConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, part := range strings.Split(c.ClientURL, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEALBRIDGE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"MEALBRIDGE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type TrackingConfig struct {
	ChannelPrefix  string        `envconfig:"MEALBRIDGE_TRACKING_CHANNEL_PREFIX" default:"mealbridge:tracking:order"`
	TrailLimit     int           `envconfig:"MEALBRIDGE_TRACKING_TRAIL_LIMIT" default:"20"`
	SendBufferSize int           `envconfig:"MEALBRIDGE_TRACKING_SEND_BUFFER" default:"16"`
	WriteTimeout   time.Duration `envconfig:"MEALBRIDGE_TRACKING_WRITE_TIMEOUT" default:"10s"`
}

type PushConfig struct {
	VAPIDPublicKey  string        `envconfig:"MEALBRIDGE_VAPID_PUBLIC_KEY" required:"true"`
	VAPIDPrivateKey string        `envconfig:"MEALBRIDGE_VAPID_PRIVATE_KEY" required:"true"`
	Subscriber      string        `envconfig:"MEALBRIDGE_VAPID_SUBJECT" default:"ops@mealbridge.app"`
	TTLSeconds      int           `envconfig:"MEALBRIDGE_PUSH_TTL_SECONDS" default:"60"`
	DispatchTimeout time.Duration `envconfig:"MEALBRIDGE_PUSH_DISPATCH_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MEALBRIDGE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"MEALBRIDGE_PUBSUB_DOMAIN_TOPIC" default:"mealbridge-domain-events"`
	DomainSubscription string `envconfig:"MEALBRIDGE_PUBSUB_DOMAIN_SUBSCRIPTION" default:"mealbridge-domain-notifications"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MEALBRIDGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MEALBRIDGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MEALBRIDGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	SecretKey     string `envconfig:"MEALBRIDGE_STRIPE_SECRET_KEY" required:"true"`
	WebhookSecret string `envconfig:"MEALBRIDGE_STRIPE_WEBHOOK_SECRET" required:"true"`
	Currency      string `envconfig:"MEALBRIDGE_STRIPE_CURRENCY" default:"usd"`
	Env           string `envconfig:"MEALBRIDGE_STRIPE_ENV" default:"test"`
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
