// Package config loads the server settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	DriverJSONFile = "jsonfile"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds every setting of the API server
type Config struct {
	Env     string `env:"APP_ENV" env-default:"local"`
	HTTP    HTTPServer
	Storage Storage
	Auth    Auth
	CORS    CORS
}

// HTTPServer holds listener and routing settings
type HTTPServer struct {
	Port              string        `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	LegacyRoutes      bool          `env:"LEGACY_ROUTES" env-default:"false"`
	RequireAuthOnRead bool          `env:"REQUIRE_AUTH_ON_READS" env-default:"false"`
}

// Storage selects and configures the record store
type Storage struct {
	Driver   string `env:"STORAGE_DRIVER" env-default:"jsonfile"`
	DataFile string `env:"DATA_FILE" env-default:"data/db.json"`
	DB       DBConfig
	Mongo    MongoConfig
}

// Auth holds token and login settings
type Auth struct {
	JWTSecret          string  `env:"JWT_SECRET_KEY" env-required:"true"`
	JWTExpirationHours int64   `env:"JWT_EXPIRATION_HOURS" env-default:"24"`
	InitialAdminEmail  string  `env:"INITIAL_ADMIN_EMAIL"`
	LoginRatePerSecond float64 `env:"LOGIN_RATE_PER_SECOND" env-default:"1"`
	LoginBurst         int     `env:"LOGIN_BURST" env-default:"5"`
}

// CORS lists the browser origins allowed to call the API
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
}

// Load reads the configuration from environment variables and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that depend on each other
func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q (want local, dev or prod)", c.Env)
	}

	switch c.Storage.Driver {
	case DriverJSONFile:
		if c.Storage.DataFile == "" {
			return fmt.Errorf("DATA_FILE must be set for the jsonfile driver")
		}
	case DriverPostgres:
		if err := c.Storage.DB.Validate(); err != nil {
			return err
		}
	case DriverMongo:
		if err := c.Storage.Mongo.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want jsonfile, postgres or mongo)", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}
	if c.Auth.JWTExpirationHours <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be positive")
	}
	if c.Auth.LoginRatePerSecond <= 0 || c.Auth.LoginBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_SECOND and LOGIN_BURST must be positive")
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	for _, o := range c.CORS.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS entry %q must start with http:// or https://", o)
		}
	}
	return nil
}
