// Package config loads craftd's service tuning from craftd.yaml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
)

// DefaultFile is the config file name looked up when none is given.
const DefaultFile = "craftd.yaml"

// Config is the service tuning.
type Config struct {
	TickRateHz            int   `yaml:"tick_rate_hz"`
	CraftableRefreshTicks int64 `yaml:"craftable_refresh_ticks"`
	CraftingRefreshTicks  int64 `yaml:"crafting_refresh_ticks"`
	LinkGraceTicks        int64 `yaml:"link_grace_ticks"`

	// CalcTimeoutMs bounds each calculation. 0 disables the bound.
	CalcTimeoutMs int `yaml:"calc_timeout_ms"`

	LogLevel string `yaml:"log_level"`

	// Listen addresses. Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
	WSAddr      string `yaml:"ws_addr"`

	// EventLogDir receives zstd-compressed event logs. Empty disables them.
	EventLogDir string `yaml:"event_log_dir"`
}

// Defaults returns the tuning used when no file is present.
func Defaults() Config {
	return Config{
		TickRateHz:            20,
		CraftableRefreshTicks: 1,
		CraftingRefreshTicks:  1,
		LinkGraceTicks:        link.DefaultGraceTicks,
		LogLevel:              "info",
	}
}

// Load reads path on top of Defaults. A missing file yields Defaults with
// no error; unknown keys are an error.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML on top of Defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.TickRateHz <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate_hz must be positive, got %d", c.TickRateHz))
	}
	if c.CraftableRefreshTicks <= 0 {
		errs = append(errs, fmt.Errorf("craftable_refresh_ticks must be positive, got %d", c.CraftableRefreshTicks))
	}
	if c.CraftingRefreshTicks <= 0 {
		errs = append(errs, fmt.Errorf("crafting_refresh_ticks must be positive, got %d", c.CraftingRefreshTicks))
	}
	if c.LinkGraceTicks < 0 {
		errs = append(errs, fmt.Errorf("link_grace_ticks must not be negative, got %d", c.LinkGraceTicks))
	}
	if c.CalcTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("calc_timeout_ms must not be negative, got %d", c.CalcTimeoutMs))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Service returns the crafting service knobs.
func (c Config) Service() crafting.Config {
	return crafting.Config{
		CraftableRefreshTicks: c.CraftableRefreshTicks,
		CraftingRefreshTicks:  c.CraftingRefreshTicks,
		LinkGraceTicks:        c.LinkGraceTicks,
	}
}

// CalcTimeout returns the calculation bound, 0 for none.
func (c Config) CalcTimeout() time.Duration {
	return time.Duration(c.CalcTimeoutMs) * time.Millisecond
}

// ParseLevel maps a log_level value to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log_level: unknown level %q", s)
}
