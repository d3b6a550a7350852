package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	Logger    Logger    `mapstructure:"logger"`
	Auth      Auth      `mapstructure:"auth"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
	Alerts    Alerts    `mapstructure:"alerts"`
	Pricing   Pricing   `mapstructure:"pricing"`
	Valuation Valuation `mapstructure:"valuation"`
}

// Server holds the configuration for the HTTP API.
type Server struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For is believed.
	// Empty means the client IP is always the socket peer.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string  `mapstructure:"level"`
	Format string  `mapstructure:"format"`
	File   LogFile `mapstructure:"file"`
}

// LogFile configures the optional rotating log file.
type LogFile struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// Auth holds token signing configuration.
type Auth struct {
	Secret        string        `mapstructure:"secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
}

// RateLimit bounds requests per client IP.
type RateLimit struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// Alerts holds the configuration for the alert scan job.
type Alerts struct {
	Enabled       bool          `mapstructure:"enabled"`
	Interval      time.Duration `mapstructure:"interval"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
	Workers       int           `mapstructure:"workers"`
}

// Pricing holds the configuration for the quote providers.
type Pricing struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	MaxRetries     int           `mapstructure:"max_retries"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	Finnhub        Finnhub       `mapstructure:"finnhub"`
	AlphaVantage   AlphaVantage  `mapstructure:"alpha_vantage"`
	Binance        Binance       `mapstructure:"binance"`
}

// Finnhub is the primary stock/ETF quote provider.
type Finnhub struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// AlphaVantage is the fallback stock/ETF quote provider. Keys are used round-robin.
type AlphaVantage struct {
	BaseURL string   `mapstructure:"base_url"`
	APIKeys []string `mapstructure:"api_keys"`
}

// Binance is the crypto quote provider.
type Binance struct {
	BaseURL string `mapstructure:"base_url"`
}

// Valuation controls how portfolio values are computed on reads.
type Valuation struct {
	LivePrices bool `mapstructure:"live_prices"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and the environment still apply.
func LoadConfig(path string) (config Config, err error) {
	// Pick up a local .env if there is one.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("FINDASH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 8*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.dsn", "findash.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.file.enabled", false)
	v.SetDefault("logger.file.path", "logs/findash.log")
	v.SetDefault("logger.file.max_size", 50)
	v.SetDefault("logger.file.max_backups", 5)
	v.SetDefault("logger.file.max_age", 28)

	v.SetDefault("auth.secret", "secret")
	v.SetDefault("auth.refresh_secret", "refresh_secret")
	v.SetDefault("auth.access_ttl", 7*24*time.Hour)
	v.SetDefault("auth.refresh_ttl", 30*24*time.Hour)

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Hour)

	v.SetDefault("alerts.enabled", true)
	v.SetDefault("alerts.interval", 5*time.Minute)
	v.SetDefault("alerts.lookup_timeout", 5*time.Second)
	v.SetDefault("alerts.workers", 4)

	v.SetDefault("pricing.timeout", 5*time.Second)
	v.SetDefault("pricing.rate_limit", 5)       // requests per second, per provider
	v.SetDefault("pricing.rate_limit_burst", 5) // burst size
	v.SetDefault("pricing.max_retries", 2)
	v.SetDefault("pricing.cache_ttl", 30*time.Second)
	v.SetDefault("pricing.finnhub.base_url", "https://finnhub.io/api/v1")
	v.SetDefault("pricing.finnhub.api_key", "")
	v.SetDefault("pricing.alpha_vantage.base_url", "https://www.alphavantage.co")
	v.SetDefault("pricing.alpha_vantage.api_keys", []string{})
	v.SetDefault("pricing.binance.base_url", "https://api.binance.com/api/v3")

	v.SetDefault("valuation.live_prices", true)
}
