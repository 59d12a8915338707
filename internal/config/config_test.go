package config

import (
	"os"
	"path/filepath"
	"testing"

	"gotidy/domain/datareadiness/dates"
	"gotidy/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TIDY_LOG_LEVEL", "TIDY_LOG_FORMAT", "TIDY_SEED", "TIDY_DATE_FORMATS",
		"TIDY_DATE_MODE", "TIDY_FILL_VALUE", "TIDY_POLICY", "TIDY_DB_DRIVER",
		"DATABASE_URL", "PORT", "TIDY_WORKERS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int64(42), cfg.Pipeline.Seed)
	assert.Equal(t, dates.DefaultFormats, cfg.Pipeline.DateFormats)
	assert.Equal(t, dates.ModeMixed, cfg.Pipeline.DateMode)
	assert.Equal(t, "Unknown", cfg.Pipeline.FillValue)
	assert.Equal(t, "backfill_then_fill", cfg.Pipeline.Policy)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIDY_SEED", "7")
	t.Setenv("TIDY_DATE_FORMATS", " %d.%m.%Y , %Y-%m-%d ,")
	t.Setenv("TIDY_DATE_MODE", "inferred")
	t.Setenv("TIDY_POLICY", "drop_rows")
	t.Setenv("TIDY_DB_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "file:runs.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Pipeline.Seed)
	assert.Equal(t, []string{"%d.%m.%Y", "%Y-%m-%d"}, cfg.Pipeline.DateFormats)
	assert.Equal(t, dates.ModeInferred, cfg.Pipeline.DateMode)
	assert.Equal(t, "drop_rows", cfg.Pipeline.Policy)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"TIDY_DATE_MODE":    "fuzzy",
		"TIDY_POLICY":       "interpolate",
		"TIDY_DB_DRIVER":    "mysql",
		"TIDY_WORKERS":      "0",
		"PORT":              "http",
		"TIDY_DATE_FORMATS": " , ",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("TIDY_SEED"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TIDY_SEED=99\n"), 0o600))

	assert.True(t, LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("TIDY_SEED") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Pipeline.Seed)

	assert.False(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
