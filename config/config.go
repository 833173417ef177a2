package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	Redis    RedisConfig
	Auth     AuthConfig
	App      AppConfig
	Tracing  TracingConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
}

type DatabaseConfig struct {
	// Driver is "pgx" (jackc/pgx stdlib) or "postgres" (lib/pq).
	Driver       string `env:"DB_DRIVER" envDefault:"pgx"`
	DSN          string `env:"DB_DSN"`
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         int    `env:"DB_PORT" envDefault:"5432"`
	User         string `env:"DB_USER" envDefault:"postgres"`
	Password     string `env:"DB_PASSWORD"`
	Name         string `env:"DB_NAME" envDefault:"consultdesk"`
	SSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

type StoreConfig struct {
	// Backend is "postgres" or "memory".
	Backend string `env:"STORE_BACKEND" envDefault:"postgres"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	StatsTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`
}

type AuthConfig struct {
	// Mode is "firebase" or "jwt".
	Mode                    string `env:"AUTH_MODE" envDefault:"firebase"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	JWTSecret               string `env:"JWT_SECRET"`
	JWTIssuer               string `env:"JWT_ISSUER"`
}

type AppConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"consultdesk-tracker"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"APP_VERSION" envDefault:"1.0.0"`
}

type TracingConfig struct {
	Enabled     bool    `env:"TRACING_ENABLED" envDefault:"false"`
	SampleRatio float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"0.1"`
}

type WorkerConfig struct {
	StatsSchedule string `env:"STATS_REPORT_SCHEDULE" envDefault:"0 0 7 * * *"`
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("DB_DSN or DB_HOST is required")
		}
		if c.Database.Driver != "pgx" && c.Database.Driver != "postgres" {
			return fmt.Errorf("DB_DRIVER must be pgx or postgres, got %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be postgres or memory, got %q", c.Store.Backend)
	}

	switch strings.ToLower(c.Auth.Mode) {
	case "firebase":
		if c.Auth.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when AUTH_MODE=firebase")
		}
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be firebase or jwt, got %q", c.Auth.Mode)
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}

	return nil
}
