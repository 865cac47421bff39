package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.False(t, cfg.HTTP.LegacyRoutes)
	assert.Equal(t, DriverJSONFile, cfg.Storage.Driver)
	assert.Equal(t, "data/db.json", cfg.Storage.DataFile)
	assert.Equal(t, "sghss", cfg.Storage.Mongo.Database)
	assert.Equal(t, int64(24), cfg.Auth.JWTExpirationHours)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LEGACY_ROUTES", "true")
	t.Setenv("INITIAL_ADMIN_EMAIL", "admin@vidaplus.com")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.True(t, cfg.HTTP.LegacyRoutes)
	assert.Equal(t, "admin@vidaplus.com", cfg.Auth.InitialAdminEmail)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:     EnvLocal,
			Storage: Storage{Driver: DriverJSONFile, DataFile: "db.json"},
			Auth:    Auth{JWTSecret: "s", JWTExpirationHours: 1, LoginRatePerSecond: 1, LoginBurst: 1},
			CORS:    CORS{AllowedOrigins: []string{"http://localhost:5173"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown env", mutate: func(c *Config) { c.Env = "staging" }, wantErr: "APP_ENV"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: "STORAGE_DRIVER"},
		{name: "postgres without db settings", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres }, wantErr: "DB_HOST"},
		{
			name: "postgres with db settings",
			mutate: func(c *Config) {
				c.Storage.Driver = DriverPostgres
				c.Storage.DB = DBConfig{Host: "localhost", Port: "5432", User: "vida", Name: "sghss"}
			},
		},
		{name: "mongo without uri", mutate: func(c *Config) { c.Storage.Driver = DriverMongo }, wantErr: "MONGO_URI"},
		{
			name: "mongo with uri",
			mutate: func(c *Config) {
				c.Storage.Driver = DriverMongo
				c.Storage.Mongo = MongoConfig{URI: "mongodb://localhost:27017", Database: "sghss"}
			},
		},
		{name: "empty secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "JWT_SECRET_KEY"},
		{name: "non-positive expiration", mutate: func(c *Config) { c.Auth.JWTExpirationHours = 0 }, wantErr: "JWT_EXPIRATION_HOURS"},
		{name: "zero burst", mutate: func(c *Config) { c.Auth.LoginBurst = 0 }, wantErr: "LOGIN_BURST"},
		{name: "origin without scheme", mutate: func(c *Config) { c.CORS.AllowedOrigins = []string{"localhost:5173"} }, wantErr: "CORS_ALLOWED_ORIGINS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "vida", Password: "pw", Name: "sghss", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=vida password=pw dbname=sghss sslmode=disable", c.DSN())
}
