package config

import (
	"log"

	"github.com/spf13/viper"
)

type WebServerConfig struct {
	Port            string `mapstructure:"port"`
	IP              string `mapstructure:"ip"`
	Scheme          string `mapstructure:"scheme"`
	BaseURL         string `mapstructure:"base_url"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	CORSOrigin      string `mapstructure:"cors_origin"`
	Environment     string `mapstructure:"environment"`
}

type RedisConfig struct {
	Address          string `mapstructure:"address"`
	Password         string `mapstructure:"password"`
	DB               int    `mapstructure:"db"`
	PoolSize         int    `mapstructure:"pool_size"`
	MinIdleConns     int    `mapstructure:"min_idle_conns"`
	OperationTimeout int    `mapstructure:"operation_timeout"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CacheConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MaxSizeMB   int  `mapstructure:"max_size_mb"`
	TTLSeconds  int  `mapstructure:"ttl_seconds"`
	CounterSize int  `mapstructure:"counter_size"`
}

type ShortenerConfig struct {
	CodeLength       int `mapstructure:"code_length"`
	MaxRetries       int `mapstructure:"max_retries"`
	MinAliasLength   int `mapstructure:"min_alias_length"`
	MaxAliasLength   int `mapstructure:"max_alias_length"`
	BulkBatchLimit   int `mapstructure:"bulk_batch_limit"`
	SuggestionsCount int `mapstructure:"suggestions_count"`
}

type AnalyticsConfig struct {
	DefaultWindowDays int `mapstructure:"default_window_days"`
	TopLimit          int `mapstructure:"top_limit"`
	RecentClicksLimit int `mapstructure:"recent_clicks_limit"`
}

type Config struct {
	WebServer WebServerConfig `mapstructure:"webserver"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Shortener ShortenerConfig `mapstructure:"shortener"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

// IsProduction reports whether the service runs in production posture.
// Production posture enables the private-address guard in URL validation.
func (c Config) IsProduction() bool {
	return c.WebServer.Environment == "production"
}

func LoadConfig() (Config, error) {
	var config Config

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Enable environment variable overrides
	viper.SetEnvPrefix("QUICKLINK")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults plus env cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Error reading config file: %v", err)
			return config, err
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		log.Printf("Unable to decode into struct: %v", err)
		return config, err
	}

	return config, nil
}

func MustLoadConfig() Config {
	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return config
}

func setDefaults() {
	// WebServer defaults
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.ip", "127.0.0.1")
	viper.SetDefault("webserver.scheme", "http")
	viper.SetDefault("webserver.base_url", "")
	viper.SetDefault("webserver.read_timeout", 15)
	viper.SetDefault("webserver.write_timeout", 15)
	viper.SetDefault("webserver.shutdown_timeout", 30)
	viper.SetDefault("webserver.cors_origin", "*")
	viper.SetDefault("webserver.environment", "development")

	// Redis defaults
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 5)
	viper.SetDefault("redis.operation_timeout", 5)

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size_mb", 100)
	viper.SetDefault("cache.ttl_seconds", 300)
	viper.SetDefault("cache.counter_size", 1000000)

	// RateLimit defaults
	viper.SetDefault("ratelimit.requests_per_second", 10.0)
	viper.SetDefault("ratelimit.burst", 20)

	// Shortener defaults
	viper.SetDefault("shortener.code_length", 6)
	viper.SetDefault("shortener.max_retries", 5)
	viper.SetDefault("shortener.min_alias_length", 3)
	viper.SetDefault("shortener.max_alias_length", 15)
	viper.SetDefault("shortener.bulk_batch_limit", 100)
	viper.SetDefault("shortener.suggestions_count", 3)

	// Analytics defaults
	viper.SetDefault("analytics.default_window_days", 30)
	viper.SetDefault("analytics.top_limit", 10)
	viper.SetDefault("analytics.recent_clicks_limit", 20)
}
