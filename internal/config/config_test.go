package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(`
tick_rate_hz: 10
crafting_refresh_ticks: 5
calc_timeout_ms: 250
metrics_addr: ":9090"
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.TickRateHz)
	assert.Equal(t, int64(1), cfg.CraftableRefreshTicks, "unset keys keep defaults")
	assert.Equal(t, int64(5), cfg.CraftingRefreshTicks)
	assert.Equal(t, 250*time.Millisecond, cfg.CalcTimeout())
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Empty(t, cfg.WSAddr)

	svc := cfg.Service()
	assert.Equal(t, int64(5), svc.CraftingRefreshTicks)
	assert.Equal(t, Defaults().LinkGraceTicks, svc.LinkGraceTicks)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("tick_rate: 20\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field tick_rate not found")
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("tick_rate_hz: 0\ncraftable_refresh_ticks: -1\nlog_level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick_rate_hz must be positive")
	assert.Contains(t, err.Error(), "craftable_refresh_ticks must be positive")
	assert.Contains(t, err.Error(), `unknown level "loud"`)
}

func TestLoad_ErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("tick_rate_hz: [1]\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
