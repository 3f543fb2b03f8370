package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Issuer  IssuerConfig  `mapstructure:"issuer"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	IdleTimeout  string `mapstructure:"idle_timeout"`
}

type IssuerConfig struct {
	Mode     string `mapstructure:"mode"` // memory, http
	BaseURL  string `mapstructure:"base_url"`
	Resource string `mapstructure:"resource"`
	Timeout  string `mapstructure:"timeout"`
}

type CacheConfig struct {
	Debounce             string  `mapstructure:"debounce"`
	MaxBatchSize         int     `mapstructure:"max_batch_size"`
	MaxRetries           int     `mapstructure:"max_retries"`
	RefreshThreshold     float64 `mapstructure:"refresh_threshold"`
	DefaultExpirySeconds int     `mapstructure:"default_expiry_seconds"`
}

type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Path           string `mapstructure:"path"`
	Namespace      string `mapstructure:"namespace"`
	Subsystem      string `mapstructure:"subsystem"`
	CollectRuntime bool   `mapstructure:"collect_runtime"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/finch/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.idle_timeout", "60s")

	viper.SetDefault("issuer.mode", "memory")
	viper.SetDefault("issuer.base_url", "")
	viper.SetDefault("issuer.resource", "cases")
	viper.SetDefault("issuer.timeout", "10s")

	viper.SetDefault("cache.debounce", "500ms")
	viper.SetDefault("cache.max_batch_size", 20)
	viper.SetDefault("cache.max_retries", 2)
	viper.SetDefault("cache.refresh_threshold", 0.8)
	viper.SetDefault("cache.default_expiry_seconds", 180)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.namespace", "finch")
	viper.SetDefault("metrics.subsystem", "urlcache")
	viper.SetDefault("metrics.collect_runtime", true)

	viper.SetDefault("logging.level", "info")

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// DebounceDuration parses the cache debounce knob, falling back to the
// given default when the value is missing or malformed.
func (c CacheConfig) DebounceDuration(fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// TimeoutDuration parses the issuer request timeout.
func (c IssuerConfig) TimeoutDuration(fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
