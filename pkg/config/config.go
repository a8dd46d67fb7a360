package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the client reads.
const EnvPrefix = "PATIENTPORTAL"

// Store drivers
const (
	StoreDriverFile   = "file"
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
	StoreDriverVault  = "vault"
)

// Config holds all client configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Vault   VaultConfig   `mapstructure:"vault"`
	Booking BookingConfig `mapstructure:"booking"`
	Log     LogConfig     `mapstructure:"log"`
	OTEL    OTELConfig    `mapstructure:"otel"`
}

// APIConfig holds the remote clinic API settings
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
}

// StoreConfig selects where the access token is kept
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// VaultConfig holds the Vault KV settings for the vault store driver
type VaultConfig struct {
	Addr      string        `mapstructure:"addr"`
	Token     string        `mapstructure:"token"`
	Namespace string        `mapstructure:"namespace"`
	Mount     string        `mapstructure:"mount"`
	Path      string        `mapstructure:"path"`
	KVVersion int           `mapstructure:"kv_version"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// BookingConfig holds booking workflow settings
type BookingConfig struct {
	MinuteInterval int    `mapstructure:"minute_interval"`
	Location       string `mapstructure:"location"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Endpoint       string `mapstructure:"endpoint"`
	Enabled        bool   `mapstructure:"enabled"`
}

// Load reads configuration from defaults, an optional config file and
// PATIENTPORTAL_* environment variables, in increasing precedence. A .env
// file in the working directory is merged into the environment first and
// never overrides variables that are already set.
// An explicit path must exist; otherwise patientportal.yaml is looked up
// in the working directory and $HOME/.config/patientportal.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("patientportal")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "patientportal"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://127.0.0.1:8000/api/")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.rate_limit_rps", 5.0)
	v.SetDefault("api.rate_limit_burst", 10)
	v.SetDefault("api.retry_attempts", 3)

	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("store.key_prefix", "patientportal:")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("vault.addr", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.mount", "secret")
	v.SetDefault("vault.path", "patientportal")
	v.SetDefault("vault.kv_version", 2)
	v.SetDefault("vault.timeout", 5*time.Second)

	v.SetDefault("booking.minute_interval", 30)
	v.SetDefault("booking.location", "Local")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "production")

	v.SetDefault("otel.service_name", "patientportal")
	v.SetDefault("otel.service_version", "1.0.0")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.enabled", false)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".patientportal", "credentials.json")
	}
	return filepath.Join(home, ".patientportal", "credentials.json")
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the file driver")
		}
	case StoreDriverVault:
		if c.Vault.Addr == "" || c.Vault.Token == "" {
			return fmt.Errorf("vault.addr and vault.token are required for the vault driver")
		}
	case StoreDriverRedis, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Booking.MinuteInterval <= 0 || 60%c.Booking.MinuteInterval != 0 {
		return fmt.Errorf("booking.minute_interval must divide 60, got %d", c.Booking.MinuteInterval)
	}
	if _, err := c.Booking.TimeLocation(); err != nil {
		return err
	}
	return nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TimeLocation resolves the configured zone used for calendar dates
func (c *BookingConfig) TimeLocation() (*time.Location, error) {
	if c.Location == "" || c.Location == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("booking.location: %w", err)
	}
	return loc, nil
}
