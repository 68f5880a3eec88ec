package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	RequestTimeout int `mapstructure:"request_timeout"` // seconds
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type EngineConfig struct {
	DefaultRadiusKm    float64 `mapstructure:"default_radius_km"`
	MaxCompetitors     int     `mapstructure:"max_competitors"`
	UseSpatialIndex    bool    `mapstructure:"use_spatial_index"`
	MinBrandPresence   int     `mapstructure:"min_brand_presence"`
	SearchDefaultLimit int     `mapstructure:"search_default_limit"`
}

type VoiceConfig struct {
	// Shared secret the voice platform sends on every tool-call webhook.
	Secret string `mapstructure:"secret"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from configs/config.yaml, .env, and environment
// variables, in increasing order of precedence.
func Load() (*Config, error) {
	// .env is optional; system environment wins either way.
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("RETAIL_INTEL")
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 30)
	v.SetDefault("database.path", "data/retail-intel.db")
	v.SetDefault("engine.default_radius_km", 10.0)
	v.SetDefault("engine.max_competitors", 20)
	v.SetDefault("engine.use_spatial_index", false)
	v.SetDefault("engine.min_brand_presence", 2)
	v.SetDefault("engine.search_default_limit", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Engine.DefaultRadiusKm <= 0 {
		return fmt.Errorf("engine.default_radius_km must be positive")
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}
