package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/sushihentaime/blogboard/internal/userservice"
)

const (
	driverPostgres  = "postgres"
	driverPgx       = "pgx"
	driverPostgREST = "postgrest"

	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendRedis    = "redis"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	Version     string `mapstructure:"VERSION"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`

	StoreURL    string `mapstructure:"STORE_URL"`
	StoreKey    string `mapstructure:"STORE_KEY"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`

	DBMaxOpenConns int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxIdleTime  time.Duration `mapstructure:"DB_MAX_IDLE_TIME"`

	UserStore     string        `mapstructure:"USER_STORE"`
	SessionStore  string        `mapstructure:"SESSION_STORE"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`

	LimiterEnabled bool    `mapstructure:"LIMITER_ENABLED"`
	LimiterRPS     float64 `mapstructure:"LIMITER_RPS"`
	LimiterBurst   int     `mapstructure:"LIMITER_BURST"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`
	NotifyEmail  string `mapstructure:"NOTIFY_EMAIL"`
}

var configDefaults = map[string]any{
	"PORT":              ":4000",
	"ENVIRONMENT":       "development",
	"VERSION":           "1.0.0",
	"DB_MAX_OPEN_CONNS": 25,
	"DB_MAX_IDLE_CONNS": 25,
	"DB_MAX_IDLE_TIME":  "15m",
	"USER_STORE":        backendMemory,
	"SESSION_STORE":     backendMemory,
	"SESSION_TTL":       userservice.DefaultSessionTTL,
	"LIMITER_ENABLED":   true,
	"LIMITER_RPS":       10,
	"LIMITER_BURST":     20,
	"RABBITMQ_PORT":     "5672",
	"MAIL_PORT":         587,
}

// configKeys without a default still need binding so environment values reach Unmarshal.
var configKeys = []string{
	"TLS_CERT_FILE", "TLS_KEY_FILE",
	"STORE_URL", "STORE_KEY", "STORE_DRIVER", "URL", "KEY",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RABBITMQ_HOST", "RABBITMQ_USER", "RABBITMQ_PASSWORD",
	"MAIL_HOST", "MAIL_USER", "MAIL_PASSWORD", "MAIL_SENDER", "NOTIFY_EMAIL",
}

// loadConfig reads path when it exists, then lets environment variables
// override it.
func loadConfig(path string) (*Config, error) {
	v := viper.New()

	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.StoreURL == "" {
		config.StoreURL = v.GetString("URL")
	}
	if config.StoreKey == "" {
		config.StoreKey = v.GetString("KEY")
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.StoreURL == "" {
		return errors.New("STORE_URL (or URL) must be set")
	}

	if c.StoreKey == "" {
		return errors.New("STORE_KEY (or KEY) must be set")
	}

	if c.StoreDriver == "" {
		driver, err := inferDriver(c.StoreURL)
		if err != nil {
			return err
		}
		c.StoreDriver = driver
	}

	switch c.StoreDriver {
	case driverPostgres, driverPgx, driverPostgREST:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.UserStore {
	case backendMemory:
	case backendPostgres:
		if c.StoreDriver == driverPostgREST {
			return errors.New("USER_STORE=postgres requires a postgres store url")
		}
	default:
		return fmt.Errorf("unknown USER_STORE %q", c.UserStore)
	}

	switch c.SessionStore {
	case backendMemory:
	case backendRedis:
		if c.RedisAddr == "" {
			return errors.New("SESSION_STORE=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.SessionTTL < 0 {
		return errors.New("SESSION_TTL must not be negative")
	}

	return nil
}

func inferDriver(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse STORE_URL: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return driverPostgres, nil
	case "http", "https":
		return driverPostgREST, nil
	default:
		return "", fmt.Errorf("cannot infer STORE_DRIVER from scheme %q", u.Scheme)
	}
}

func (c *Config) isProduction() bool {
	return c.Environment == "production"
}
