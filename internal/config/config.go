package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Ticketing TicketingConfig
	Storage   StorageConfig
	Gallery   GalleryConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type LoggingConfig struct {
	Dir   string `env:"LOG_DIR" envDefault:"logs"`
	Name  string `env:"LOG_NAME" envDefault:"gallery-service"`
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type DatabaseConfig struct {
	DSN            string        `env:"POSTGRES_DSN"`
	MaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	MaxLifetime    time.Duration `env:"DB_MAX_LIFETIME" envDefault:"5m"`
	ConnectRetries int           `env:"DB_CONNECT_RETRIES" envDefault:"5"`
	MigrationsDir  string        `env:"MIGRATIONS_DIR" envDefault:"./migrations"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE" envDefault:"true"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"EVENTS_CACHE_TTL" envDefault:"10m"`
}

type KafkaConfig struct {
	Enabled     bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers     []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	GroupID     string   `env:"KAFKA_GROUP_ID" envDefault:"gallery-service"`
	ChangeTopic string   `env:"KAFKA_TOPIC_EVENT_CHANGES" envDefault:"gallery.events.changed"`
}

type AuthConfig struct {
	OIDCIssuer   string `env:"OIDC_ISSUER"`
	OIDCClientID string `env:"OIDC_CLIENT_ID"`
	JWTSecret    string `env:"AUTH_JWT_SECRET"`
}

// TicketingConfig holds the remote ticketing credentials and listing defaults.
// The timezone and capacity are defaults, not fixed constants.
type TicketingConfig struct {
	BaseURL        string        `env:"TICKETING_BASE_URL" envDefault:"https://www.eventbriteapi.com/v3"`
	APIKey         string        `env:"EVENTBRITE_API_KEY"`
	OrganizationID string        `env:"EVENTBRITE_ORGANIZATION_ID"`
	Timezone       string        `env:"TICKETING_TIMEZONE" envDefault:"America/New_York"`
	Capacity       int           `env:"TICKETING_CAPACITY" envDefault:"100"`
	Currency       string        `env:"TICKETING_CURRENCY" envDefault:"USD"`
	Locale         string        `env:"TICKETING_LOCALE" envDefault:"en_US"`
	RatePerSecond  float64       `env:"TICKETING_RATE_PER_SEC" envDefault:"5"`
	Timeout        time.Duration `env:"TICKETING_TIMEOUT" envDefault:"10s"`
}

// Configured reports whether both the API key and the organization are set.
func (c TicketingConfig) Configured() bool {
	return c.APIKey != "" && c.OrganizationID != ""
}

type StorageConfig struct {
	URL       string        `env:"STORAGE_URL"`
	APIKey    string        `env:"STORAGE_API_KEY"`
	Bucket    string        `env:"STORAGE_BUCKET" envDefault:"artists-public"`
	ListLimit int           `env:"STORAGE_LIST_LIMIT" envDefault:"1000"`
	Timeout   time.Duration `env:"STORAGE_TIMEOUT" envDefault:"10s"`
}

type GalleryConfig struct {
	Concurrency   int           `env:"GALLERY_CONCURRENCY" envDefault:"8"`
	ArtistTimeout time.Duration `env:"GALLERY_ARTIST_TIMEOUT" envDefault:"0s"`
}

// Load parses the process environment. A .env file, if any, must already be
// loaded by the caller.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Ticketing.BaseURL = strings.TrimRight(cfg.Ticketing.BaseURL, "/")
	cfg.Storage.URL = strings.TrimRight(cfg.Storage.URL, "/")

	if cfg.Ticketing.Capacity <= 0 {
		return nil, fmt.Errorf("TICKETING_CAPACITY must be positive, got %d", cfg.Ticketing.Capacity)
	}
	if _, err := time.LoadLocation(cfg.Ticketing.Timezone); err != nil {
		return nil, fmt.Errorf("TICKETING_TIMEZONE %q: %w", cfg.Ticketing.Timezone, err)
	}
	if cfg.Gallery.Concurrency <= 0 {
		cfg.Gallery.Concurrency = 1
	}

	return cfg, nil
}
