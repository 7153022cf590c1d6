// Package config loads the application configuration from an optional YAML
// file, WORKLOG_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/warp/worklog/ledger"
)

// Config is the global application configuration
type Config struct {
	Database           string          `mapstructure:"database" validate:"required"`
	DefaultPosition    string          `mapstructure:"default_position" validate:"oneof=O R H C M"`
	MinWorkDuration    string          `mapstructure:"min_work_duration" validate:"required"`
	MinLunchMinutes    int             `mapstructure:"min_duration_lunch_break" validate:"gte=0"`
	MaxLunchMinutes    int             `mapstructure:"max_duration_lunch_break" validate:"gtefield=MinLunchMinutes"`
	EnforceLunchBounds bool            `mapstructure:"enforce_lunch_bounds"`
	AutoLunch          AutoLunchConfig `mapstructure:"auto_lunch"`
	Server             ServerConfig    `mapstructure:"server"`
	Log                LogConfig       `mapstructure:"log"`
	Sweeper            SweeperConfig   `mapstructure:"sweeper"`
}

// AutoLunchConfig controls lunch deduction from a midday OUT/IN gap
type AutoLunchConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	WindowStart string `mapstructure:"window_start" validate:"required"`
	WindowEnd   string `mapstructure:"window_end" validate:"required"`
}

// ServerConfig is the HTTP server configuration
type ServerConfig struct {
	Port        int      `mapstructure:"port" validate:"min=1,max=65535"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LogConfig is the logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// SweeperConfig controls the periodic pair index recompute
type SweeperConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"required_if=Enabled true"`
}

// Load reads configuration from path (optional) and the environment.
// Priority: environment > config file > defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("worklog")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("WORKLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file: defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database", "worklog.db")
	v.SetDefault("default_position", "O")
	v.SetDefault("min_work_duration", "8h")
	v.SetDefault("min_duration_lunch_break", 30)
	v.SetDefault("max_duration_lunch_break", 90)
	v.SetDefault("enforce_lunch_bounds", false)

	v.SetDefault("auto_lunch.enabled", true)
	v.SetDefault("auto_lunch.window_start", "12:00")
	v.SetDefault("auto_lunch.window_end", "14:30")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("sweeper.enabled", false)
	v.SetDefault("sweeper.interval", "1h")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the values that need parsing.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := ParseWorkDuration(c.MinWorkDuration); err != nil {
		return fmt.Errorf("invalid config: min_work_duration: %w", err)
	}
	start, err := ledger.ParseClockTime(c.AutoLunch.WindowStart)
	if err != nil {
		return fmt.Errorf("invalid config: auto_lunch.window_start: %w", err)
	}
	end, err := ledger.ParseClockTime(c.AutoLunch.WindowEnd)
	if err != nil {
		return fmt.Errorf("invalid config: auto_lunch.window_end: %w", err)
	}
	if end <= start {
		return fmt.Errorf("invalid config: auto_lunch window %s-%s is empty", c.AutoLunch.WindowStart, c.AutoLunch.WindowEnd)
	}
	return nil
}

// Engine returns the work rules passed into every ledger computation.
// Call it on a validated config.
func (c *Config) Engine() ledger.Config {
	work, _ := ParseWorkDuration(c.MinWorkDuration)
	pos, err := ledger.ParsePosition(c.DefaultPosition)
	if err != nil {
		pos = ledger.PositionOffice
	}
	return ledger.Config{
		DefaultPosition:     pos,
		WorkDurationMinutes: work,
		MinLunchMinutes:     c.MinLunchMinutes,
		MaxLunchMinutes:     c.MaxLunchMinutes,
	}
}

// AutoLunchRule returns the lunch deduction rule. Call it on a validated config.
func (c *Config) AutoLunchRule() ledger.AutoLunchRule {
	start, _ := ledger.ParseClockTime(c.AutoLunch.WindowStart)
	end, _ := ledger.ParseClockTime(c.AutoLunch.WindowEnd)
	return ledger.AutoLunchRule{
		Enabled:     c.AutoLunch.Enabled,
		WindowStart: start,
		WindowEnd:   end,
	}
}
