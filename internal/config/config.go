package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// MpesaConfig holds the process-level Daraja credentials. The merchant
// side (shortcode, passkey, environment, callback base) is admin-editable
// and lives in the database behind the settings provider.
type MpesaConfig struct {
	ConsumerKey    string        `yaml:"-"` // MPESA_CONSUMER_KEY
	ConsumerSecret string        `yaml:"-"` // MPESA_CONSUMER_SECRET
	Timeout        time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret   string `yaml:"-"` // JWT_SECRET
	AdminAPIKey string `yaml:"-"` // ADMIN_API_KEY
}

type SweepConfig struct {
	PaymentInterval   time.Duration `yaml:"payment_interval"`
	PaymentStaleAfter time.Duration `yaml:"payment_stale_after"`
	ExpiryInterval    time.Duration `yaml:"expiry_interval"`
}

type RateLimitConfig struct {
	InitiatePerMinute int `yaml:"initiate_per_minute"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Mpesa     MpesaConfig     `yaml:"mpesa"`
	Auth      AuthConfig      `yaml:"auth"`
	Sweep     SweepConfig     `yaml:"sweep"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// secrets come from the environment, never the file
	cfg.Mpesa.ConsumerKey = os.Getenv("MPESA_CONSUMER_KEY")
	cfg.Mpesa.ConsumerSecret = os.Getenv("MPESA_CONSUMER_SECRET")
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.AdminAPIKey = os.Getenv("ADMIN_API_KEY")
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Mpesa.Timeout <= 0 {
		cfg.Mpesa.Timeout = 15 * time.Second
	}
	if cfg.Sweep.PaymentInterval <= 0 {
		cfg.Sweep.PaymentInterval = 10 * time.Minute
	}
	if cfg.Sweep.PaymentStaleAfter <= 0 {
		cfg.Sweep.PaymentStaleAfter = 2 * time.Hour
	}
	if cfg.Sweep.ExpiryInterval <= 0 {
		cfg.Sweep.ExpiryInterval = time.Hour
	}
	if cfg.RateLimit.InitiatePerMinute <= 0 {
		cfg.RateLimit.InitiatePerMinute = 5
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" && !dev {
		return nil, errors.New("JWT_SECRET is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
