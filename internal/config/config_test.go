package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgeteer/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 6, cfg.Dashboard.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.Dashboard.DuplicateTolerance)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "books")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://postgres:secret@db:5432/books?sslmode=disable", cfg.ConnectionString())
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
	assert.True(t, cfg.Logger().Enabled(t.Context(), slog.LevelDebug))
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	_, err := config.Load()
	assert.Error(t, err)
}
