// Package config provides application configuration loaded from an optional
// config.yaml and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
// When DSN is empty a postgres DSN is built from the discrete fields.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Attempts uint   `mapstructure:"attempts"`
}

// AuthConfig holds session and token signing settings.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// CacheConfig tunes the profile cache.
type CacheConfig struct {
	ProfileTTL  time.Duration `mapstructure:"profile_ttl"`
	ProfileSize int           `mapstructure:"profile_size"`
}

// RedisConfig enables cross-instance cache invalidation when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// LoggerConfig selects the zap logger flavour.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool   `mapstructure:"dev"`
	Migrations    bool   `mapstructure:"migrations"`
	Seed          bool   `mapstructure:"seed"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

// PostgresDSN returns the connection string in key=value format.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads config.yaml (from . or ./configs) when present and lets
// environment variables override any key: SERVER_PORT overrides server.port.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key, which also makes AutomaticEnv see them
// during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "policy")
	v.SetDefault("database.password", "policy123")
	v.SetDefault("database.dbname", "policy")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.attempts", 5)

	v.SetDefault("auth.secret", "devsessionsecret")
	v.SetDefault("auth.issuer", "go-policy")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("cache.profile_ttl", 5*time.Minute)
	v.SetDefault("cache.profile_size", 4096)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "gopolicy:profiles:invalidate")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("app.dev", false)
	v.SetDefault("app.migrations", true)
	v.SetDefault("app.seed", true)
	v.SetDefault("app.admin_email", "admin@example.com")
	v.SetDefault("app.admin_password", "")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		return errors.New("database.dsn is required for sqlite")
	}
	if !c.App.Dev && c.Auth.Secret == "devsessionsecret" {
		return errors.New("auth.secret must be set outside dev mode")
	}
	return nil
}
