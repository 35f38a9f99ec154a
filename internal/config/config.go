package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration, loaded from environment
// variables. Field and env-var names mirror the original OpenLabs API
// settings so existing deployment env files keep working.
type Config struct {
	// Mode selects the runtime mode: "api", "worker", or "seed".
	Mode string `env:"OPENLABS_MODE" envDefault:"api"`

	AppName string `env:"APP_NAME" envDefault:"OpenLabsX"`

	Host string `env:"OPENLABS_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"OPENLABS_PORT" envDefault:"8000"`

	// Postgres
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"openlabs"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"openlabs"`
	PostgresServer   string `env:"POSTGRES_SERVER" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"openlabs"`

	// Redis-backed job queue.
	RedisQueueHost     string `env:"REDIS_QUEUE_HOST" envDefault:"localhost"`
	RedisQueuePort     int    `env:"REDIS_QUEUE_PORT" envDefault:"6379"`
	RedisQueuePassword string `env:"REDIS_QUEUE_PASSWORD"`

	// Auth
	SecretKey                string `env:"SECRET_KEY" envDefault:"ChangeMe123!"`
	Algorithm                string `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"10080"`

	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@openlabs.sh"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"ChangeMeAdmin123!"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"OpenLabs Admin"`

	// Range Materializer / Provisioner Driver working directory root.
	CDKTFDir string `env:"CDKTF_DIR" envDefault:"/tmp/openlabs-cdktf"`

	// ProvisionerBin is the executable the Provisioner Driver spawns.
	// Configurable (rather than hardcoded "terraform") so tests can point
	// it at a stub binary.
	ProvisionerBin string `env:"OPENLABS_PROVISIONER_BIN" envDefault:"terraform"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	MetricsPath   string `env:"METRICS_PATH" envDefault:"/metrics"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	// CORS
	CORSOrigins     []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	CORSCredentials bool     `env:"CORS_CREDENTIALS" envDefault:"true"`
	CORSMethods     []string `env:"CORS_METHODS" envDefault:"*" envSeparator:","`
	CORSHeaders     []string `env:"CORS_HEADERS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the address the HTTP server should listen on.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseURL builds the Postgres connection string from the discrete
// POSTGRES_* settings, matching the original config's POSTGRES_URI shape.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresServer, c.PostgresPort, c.PostgresDB)
}

// RedisURL builds the Redis connection string for the job queue.
func (c *Config) RedisURL() string {
	if c.RedisQueuePassword == "" {
		return fmt.Sprintf("redis://%s:%d/0", c.RedisQueueHost, c.RedisQueuePort)
	}
	return fmt.Sprintf("redis://:%s@%s:%d/0", c.RedisQueuePassword, c.RedisQueueHost, c.RedisQueuePort)
}
