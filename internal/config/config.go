package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/clinreport/portal-api/internal/remote"
)

type ServerConfig struct {
	Port         int           `mapstructure:"port" envconfig:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
}

type AuthConfig struct {
	CookieName   string        `mapstructure:"cookie_name" envconfig:"AUTH_COOKIE_NAME"`
	CookieMaxAge time.Duration `mapstructure:"cookie_max_age" envconfig:"AUTH_COOKIE_MAX_AGE"`
	SecureCookie bool          `mapstructure:"secure_cookie" envconfig:"AUTH_SECURE_COOKIE"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" envconfig:"RATE_LIMIT_RPS"`
	Burst int     `mapstructure:"burst" envconfig:"RATE_LIMIT_BURST"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

type GeoConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" envconfig:"GEO_CACHE_TTL"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" envconfig:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" envconfig:"LOG_PRETTY"`
}

type Config struct {
	Env       string          `mapstructure:"env" envconfig:"ENV"`
	Server    ServerConfig    `mapstructure:"server"`
	Remote    remote.Config   `mapstructure:"remote"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Security  SecurityConfig  `mapstructure:"security"`
	Geo       GeoConfig       `mapstructure:"geo"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// IsProduction selects production-only behavior such as the Secure
// cookie attribute.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("env", "development")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("remote.timeout", "10s")
	viper.SetDefault("auth.cookie_name", "auth_token")
	viper.SetDefault("auth.cookie_max_age", "168h")
	viper.SetDefault("rate_limit.rps", 50)
	viper.SetDefault("rate_limit.burst", 100)
	viper.SetDefault("geo.cache_ttl", "10m")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; defaults plus environment cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Environment overrides win over the file.
	if err := envconfig.Process("portal", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if config.IsProduction() {
		config.Auth.SecureCookie = true
	}

	return &config, nil
}
