package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_DSN":     "postgres://localhost/scheduler",
		"JWT_SECRET": "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, int64(1), cfg.FocusCategoryID)
	assert.Equal(t, "overlap", cfg.CascadeShiftMode)
	assert.Equal(t, "*/5 * * * *", cfg.SweepSpec)
	assert.Equal(t, 5, cfg.SuggestionsRate)
	assert.Equal(t, time.Hour, cfg.SuggestionTTL)
	assert.False(t, cfg.SuggestionsEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_DSN":                 "postgres://localhost/scheduler",
		"JWT_SECRET":             "secret",
		"FOCUS_TIME_CATEGORY_ID": "7",
		"CASCADE_SHIFT_MODE":     "delta",
		"SUGGESTION_CACHE_TTL":   "15m",
		"GEMINI_API_KEY":         "key",
	}))
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.FocusCategoryID)
	assert.Equal(t, "delta", cfg.CascadeShiftMode)
	assert.Equal(t, 15*time.Minute, cfg.SuggestionTTL)
	assert.True(t, cfg.SuggestionsEnabled())
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{name: "missing dsn", values: map[string]string{"JWT_SECRET": "s"}},
		{name: "missing jwt secret", values: map[string]string{"DB_DSN": "d"}},
		{name: "bad focus id", values: map[string]string{"DB_DSN": "d", "JWT_SECRET": "s", "FOCUS_TIME_CATEGORY_ID": "focus"}},
		{name: "bad ttl", values: map[string]string{"DB_DSN": "d", "JWT_SECRET": "s", "SUGGESTION_CACHE_TTL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(env(tt.values))
			assert.Error(t, err)
		})
	}
}
