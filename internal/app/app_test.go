package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/tinylink/internal/config"
)

func sqliteEnv(t *testing.T) {
	t.Helper()
	env := map[string]string{
		"SERVER_PORT":             "0",
		"SERVER_HOST":             "127.0.0.1",
		"SERVER_BASE_URL":         "http://localhost:8080",
		"SERVER_READ_TIMEOUT":     "5s",
		"SERVER_WRITE_TIMEOUT":    "5s",
		"SERVER_IDLE_TIMEOUT":     "60s",
		"SERVER_SHUTDOWN_TIMEOUT": "5s",
		"DB_DRIVER":               "sqlite",
		"DB_PATH":                 filepath.Join(t.TempDir(), "links.db"),
		"DB_MAX_CONNS":            "4",
		"DB_MIN_CONNS":            "1",
		"APP_ENV":                 "production",
		"LOG_LEVEL":               "error",
		"METRICS_ENABLED":         "true",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestNew_SQLite(t *testing.T) {
	sqliteEnv(t)

	a, err := New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Equal(t, config.DriverSQLite, a.Config.Database.Driver)
	require.NotNil(t, a.Metrics)

	ts := httptest.NewServer(a.Server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNew_MetricsDisabled(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("METRICS_ENABLED", "false")

	a, err := New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Nil(t, a.Metrics)
}

func TestNew_InvalidConfig(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("CODE_LENGTH", "12")

	_, err := New(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code length")
}

func TestOpenStore_SQLiteWithoutMigrations(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     ":memory:",
		MaxConns: 1,
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := openStore(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer st.close()

	require.NoError(t, st.pinger.Ping(context.Background()))

	// Without migrations the links table does not exist.
	_, err = st.repo.List(context.Background())
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := setupLogger(tt.level)
			assert.True(t, logger.Enabled(context.Background(), tt.want))
			if tt.want > slog.LevelDebug {
				assert.False(t, logger.Enabled(context.Background(), tt.want-1))
			}
		})
	}
}
