package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Report    ReportConfig    `mapstructure:"report"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// MapsConfig configures the static map image provider.
type MapsConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	FetchTimeout int    `mapstructure:"fetch_timeout"` // seconds
}

// ReportConfig configures report compilation.
type ReportConfig struct {
	CruiseSpeedKt float64 `mapstructure:"cruise_speed_kt"`
}

// CacheConfig bounds the server-side image cache.
type CacheConfig struct {
	MaxImages int `mapstructure:"max_images"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.base_url", "https://maps.googleapis.com/maps/api/staticmap")
	v.SetDefault("maps.fetch_timeout", 20)
	v.SetDefault("report.cruise_speed_kt", 100)
	v.SetDefault("cache.max_images", 512)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SKYPLAN_MAPS_API_KEY → maps.api_key
	v.SetEnvPrefix("SKYPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Maps.BaseURL == "" {
		errs = append(errs, "maps.base_url is required")
	}
	if c.Maps.FetchTimeout <= 0 {
		errs = append(errs, "maps.fetch_timeout must be positive")
	}
	if c.Report.CruiseSpeedKt <= 0 {
		errs = append(errs, "report.cruise_speed_kt must be positive")
	}
	if c.Cache.MaxImages <= 0 {
		errs = append(errs, "cache.max_images must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
