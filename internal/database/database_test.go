package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_NAME", "DB_CONN_MAX_LIFETIME"} {
		t.Setenv(k, "")
	}

	cfg := ConfigFromEnv()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "saferoute", cfg.User)
	assert.Equal(t, "saferoute", cfg.Database)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.False(t, Enabled())
}

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			"fields",
			Config{Host: "db", Port: 5433, User: "map", Password: "secret", Database: "saferoute", SSLMode: "disable"},
			"postgres://map:secret@db:5433/saferoute?sslmode=disable",
		},
		{
			"escaped password",
			Config{Host: "db", Port: 5432, User: "map", Password: "p@ss/word", Database: "saferoute", SSLMode: "require"},
			"postgres://map:p%40ss%2Fword@db:5432/saferoute?sslmode=require",
		},
		{
			"url wins",
			Config{URL: "postgres://u@h/d", Host: "ignored"},
			"postgres://u@h/d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ConnectionString())
		})
	}
}

func TestEnabled(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "postgres")
	assert.True(t, Enabled())
}
