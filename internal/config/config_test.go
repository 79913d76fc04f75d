package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 環境変数をクリア
	envVars := []string{
		"PORT", "APP_ENV", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
		"RESERVED_REFRESH_INTERVAL",
	}
	for _, env := range envVars {
		os.Unsetenv(env)
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "parking_reservation", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, time.Minute, cfg.Worker.ReservedRefreshInterval)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("DB_HOST", "db.example.com")
	os.Setenv("DB_SSLMODE", "require")
	os.Setenv("REDIS_DB", "2")
	os.Setenv("RESERVED_REFRESH_INTERVAL", "5m")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_SSLMODE")
		os.Unsetenv("REDIS_DB")
		os.Unsetenv("RESERVED_REFRESH_INTERVAL")
	}()

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 5*time.Minute, cfg.Worker.ReservedRefreshInterval)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := &DatabaseConfig{
		Host: "localhost", Port: "5432", User: "postgres",
		Password: "secret", DBName: "parking_reservation", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=parking_reservation sslmode=disable",
		c.DSN())
}
