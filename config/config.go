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
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Address          string `mapstructure:"address"`
	Password         string `mapstructure:"password"`
	DB               int    `mapstructure:"db"`
	PoolSize         int    `mapstructure:"pool_size"`
	MinIdleConns     int    `mapstructure:"min_idle_conns"`
	OperationTimeout int    `mapstructure:"operation_timeout"`
}

type CacheConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MaxSizeMB   int  `mapstructure:"max_size_mb"`
	TTLSeconds  int  `mapstructure:"ttl_seconds"`
	CounterSize int  `mapstructure:"counter_size"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type GeoConfig struct {
	CountryHeader   string `mapstructure:"country_header"`
	CityHeader      string `mapstructure:"city_header"`
	LookupBaseURL   string `mapstructure:"lookup_base_url"`
	LookupTimeoutMS int    `mapstructure:"lookup_timeout_ms"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

type TrackingConfig struct {
	CookieTTLDays    int    `mapstructure:"cookie_ttl_days"`
	SecureCookies    bool   `mapstructure:"secure_cookies"`
	IPSalt           string `mapstructure:"ip_salt"`
	StrictClickWrite bool   `mapstructure:"strict_click_write"` // redirect waits for the click insert
	ClickTimeoutMS   int    `mapstructure:"click_timeout_ms"`
}

type AttributionConfig struct {
	BatchWindowDays   int `mapstructure:"batch_window_days"`
	ManualWindowDays  int `mapstructure:"manual_window_days"`
	BatchLookbackDays int `mapstructure:"batch_lookback_days"`
}

type SecurityConfig struct {
	AdminAPIKey             string `mapstructure:"admin_api_key"`
	AdminAuthEnabled        bool   `mapstructure:"admin_auth_enabled"`
	BotDetectionEnabled     bool   `mapstructure:"bot_detection_enabled"`
	BotMaxRequestsPerMinute int    `mapstructure:"bot_max_requests_per_minute"`
}

type Config struct {
	WebServer   WebServerConfig   `mapstructure:"webserver"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Cache       CacheConfig       `mapstructure:"cache"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Geo         GeoConfig         `mapstructure:"geo"`
	Tracking    TrackingConfig    `mapstructure:"tracking"`
	Attribution AttributionConfig `mapstructure:"attribution"`
	Security    SecurityConfig    `mapstructure:"security"`
}

func LoadConfig() (Config, error) {
	var config Config

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Enable environment variable overrides
	viper.SetEnvPrefix("LINKTRACK")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Error reading config file: %v", err)
		return config, err
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

	// Database defaults
	viper.SetDefault("database.host", "127.0.0.1")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "linktrack")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "linktrack")
	viper.SetDefault("database.ssl_mode", "disable")

	// Redis defaults
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 5)
	viper.SetDefault("redis.operation_timeout", 5)

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size_mb", 64)
	viper.SetDefault("cache.ttl_seconds", 300)
	viper.SetDefault("cache.counter_size", 100000)

	// RateLimit defaults
	viper.SetDefault("ratelimit.requests_per_second", 50.0)
	viper.SetDefault("ratelimit.burst", 100)

	// Geo defaults
	viper.SetDefault("geo.country_header", "X-Vercel-IP-Country")
	viper.SetDefault("geo.city_header", "X-Vercel-IP-City")
	viper.SetDefault("geo.lookup_base_url", "https://ipapi.co")
	viper.SetDefault("geo.lookup_timeout_ms", 800)
	viper.SetDefault("geo.cache_ttl_seconds", 86400)

	// Tracking defaults
	viper.SetDefault("tracking.cookie_ttl_days", 60)
	viper.SetDefault("tracking.secure_cookies", false)
	viper.SetDefault("tracking.ip_salt", "")
	viper.SetDefault("tracking.strict_click_write", false)
	viper.SetDefault("tracking.click_timeout_ms", 2000)

	// Attribution defaults. The batch reconciler historically ran with a
	// 90-day window and the manual fix tool with 60 days; both stay
	// configurable rather than hard-coded.
	viper.SetDefault("attribution.batch_window_days", 90)
	viper.SetDefault("attribution.manual_window_days", 60)
	viper.SetDefault("attribution.batch_lookback_days", 7)

	// Security defaults
	viper.SetDefault("security.admin_api_key", "")
	viper.SetDefault("security.admin_auth_enabled", true)
	viper.SetDefault("security.bot_detection_enabled", true)
	viper.SetDefault("security.bot_max_requests_per_minute", 120)
}
