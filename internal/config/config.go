// Package config provides application configuration loaded from environment
// variables (and an optional config file) through viper.
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
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
	Payments PaymentsConfig
	Cache    CacheConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	ReadTimeout     int // seconds
	WriteTimeout    int // seconds
	IdleTimeout     int // seconds
	ShutdownTimeout int // seconds
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file
	Debug    bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
	SeedFile   string
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// PaymentsConfig holds card provider settings.
type PaymentsConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
	Timeout       time.Duration
}

// CacheConfig holds in-process cache settings.
type CacheConfig struct {
	IdentityTTL time.Duration
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Masked returns a loggable description of the target database.
func (d DatabaseConfig) Masked() string {
	if d.Driver == "sqlite" {
		return "sqlite:" + d.Path
	}
	return fmt.Sprintf("postgres://%s:***@%s:%d/%s", d.User, d.Host, d.Port, d.DBName)
}

// DevJWTSecret is the signing secret used when JWT_SECRET is unset. It is only
// accepted in development.
const DevJWTSecret = "devjwtsecret"

// ValidateServe reports settings the API server must not start with.
func (c *Config) ValidateServe() error {
	if c.Payments.WebhookSecret == "" {
		return errors.New("STRIPE_WEBHOOK_SECRET is required: webhook deliveries cannot be verified without it")
	}
	if c.Auth.Secret == "" || (!c.App.Dev && c.Auth.Secret == DevJWTSecret) {
		return errors.New("JWT_SECRET must be set outside development")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "marketplace")
	v.SetDefault("DB_PASSWORD", "marketplace")
	v.SetDefault("DB_NAME", "marketplace")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "marketplace.db")
	v.SetDefault("DB_DEBUG", false)

	v.SetDefault("DEV", true)
	v.SetDefault("MIGRATIONS", false)
	v.SetDefault("SEED_FILE", "")

	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("JWT_ACCESS_TTL", "5m")
	v.SetDefault("JWT_REFRESH_TTL", "24h")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("PAYMENTS_CURRENCY", "mxn")
	v.SetDefault("PAYMENTS_SUCCESS_URL", "http://localhost:3000/checkout/success")
	v.SetDefault("PAYMENTS_CANCEL_URL", "http://localhost:3000/checkout/cancel")
	v.SetDefault("PAYMENTS_TIMEOUT", "15s")

	v.SetDefault("IDENTITY_CACHE_TTL", "1m")
}

// Load reads configuration from environment variables, and from the file
// named by CONFIG_FILE when set. It uses sensible defaults for local development.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetInt("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetInt("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetInt("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Path:     v.GetString("DB_PATH"),
			Debug:    v.GetBool("DB_DEBUG"),
		},
		App: AppConfig{
			Dev:        v.GetBool("DEV"),
			Migrations: v.GetBool("MIGRATIONS"),
			SeedFile:   v.GetString("SEED_FILE"),
		},
		Auth: AuthConfig{
			Secret:     v.GetString("JWT_SECRET"),
			AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		Payments: PaymentsConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:      strings.ToLower(v.GetString("PAYMENTS_CURRENCY")),
			SuccessURL:    v.GetString("PAYMENTS_SUCCESS_URL"),
			CancelURL:     v.GetString("PAYMENTS_CANCEL_URL"),
			Timeout:       v.GetDuration("PAYMENTS_TIMEOUT"),
		},
		Cache: CacheConfig{
			IdentityTTL: v.GetDuration("IDENTITY_CACHE_TTL"),
		},
	}, nil
}
