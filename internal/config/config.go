// Package config loads environment settings: defaults, then an optional YAML
// file, then NGLENV_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/ngl-gym/internal/catalog"
	"github.com/danielpatrickdp/ngl-gym/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NGLENV_"

// #region types
// Config is the full runtime configuration.
type Config struct {
	Driver   DriverConfig     `yaml:"driver"`
	Env      EnvConfig        `yaml:"env"`
	Catalog  catalog.Geometry `yaml:"catalog"`
	Log      logging.Config   `yaml:"log"`
	Recorder RecorderConfig   `yaml:"recorder"`
	Metrics  MetricsConfig    `yaml:"metrics"`
}

// DriverConfig locates the viewport driver.
type DriverConfig struct {
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
}

// EnvConfig selects the action layout and catalog.
type EnvConfig struct {
	EulerAngles bool   `yaml:"euler_angles"`
	Catalog     string `yaml:"catalog"` // free | grid
	MaxSteps    int    `yaml:"max_steps"`
}

// RecorderConfig enables the SQLite transition log when DBPath is set.
type RecorderConfig struct {
	DBPath string `yaml:"db_path"`
}

// MetricsConfig serves /metrics on Addr when set.
type MetricsConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// #endregion types

// #region defaults
// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Driver:  DriverConfig{Addr: "localhost:50061", Timeout: 10 * time.Second},
		Env:     EnvConfig{EulerAngles: true, Catalog: catalog.Grid.String()},
		Catalog: catalog.DefaultGeometry(),
		Log:     logging.DefaultConfig(),
		Metrics: MetricsConfig{Namespace: "nglenv"},
	}
}

// #endregion defaults

// #region load
// Load applies path (skipped when empty) and the environment on top of the
// defaults, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Driver.Addr = envOr("DRIVER_ADDR", cfg.Driver.Addr)
	cfg.Env.Catalog = envOr("CATALOG", cfg.Env.Catalog)
	cfg.Log.Level = envOr("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("LOG_FORMAT", cfg.Log.Format)
	cfg.Recorder.DBPath = envOr("DB", cfg.Recorder.DBPath)
	cfg.Metrics.Addr = envOr("METRICS_ADDR", cfg.Metrics.Addr)

	var err error
	if cfg.Driver.Timeout, err = envParse("DRIVER_TIMEOUT", cfg.Driver.Timeout, time.ParseDuration); err != nil {
		return err
	}
	if cfg.Env.EulerAngles, err = envParse("EULER_ANGLES", cfg.Env.EulerAngles, strconv.ParseBool); err != nil {
		return err
	}
	if cfg.Env.MaxSteps, err = envParse("MAX_STEPS", cfg.Env.MaxSteps, strconv.Atoi); err != nil {
		return err
	}
	if cfg.Catalog.ImageWidth, err = envParse("IMAGE_WIDTH", cfg.Catalog.ImageWidth, strconv.Atoi); err != nil {
		return err
	}
	if cfg.Catalog.ImageHeight, err = envParse("IMAGE_HEIGHT", cfg.Catalog.ImageHeight, strconv.Atoi); err != nil {
		return err
	}
	if cfg.Catalog.GridSizeX, err = envParse("GRID_SIZE_X", cfg.Catalog.GridSizeX, strconv.Atoi); err != nil {
		return err
	}
	if cfg.Catalog.GridSizeY, err = envParse("GRID_SIZE_Y", cfg.Catalog.GridSizeY, strconv.Atoi); err != nil {
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
		return v
	}
	return fallback
}

func envParse[T any](key string, fallback T, parse func(string) (T, error)) (T, error) {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback, nil
	}
	out, err := parse(v)
	if err != nil {
		return fallback, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, err)
	}
	return out, nil
}

// #endregion load

// #region validate
// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []string
	if c.Driver.Timeout <= 0 {
		errs = append(errs, "driver timeout must be positive")
	}
	if _, err := catalog.ParseVariant(c.Env.Catalog); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Env.MaxSteps < 0 {
		errs = append(errs, "max_steps must not be negative")
	}
	g := c.Catalog
	if g.ImageWidth <= 0 || g.ImageHeight <= 0 {
		errs = append(errs, "image size must be positive")
	}
	if g.GridSizeX <= 0 || g.GridSizeY <= 0 {
		errs = append(errs, "grid size must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Variant is the parsed catalog variant. Call after Validate.
func (c *Config) Variant() catalog.Variant {
	v, _ := catalog.ParseVariant(c.Env.Catalog)
	return v
}

// #endregion validate
