package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration, read from a YAML file with
// environment variables taking precedence. Payment credentials are required;
// there are no baked-in fallback identities or secrets.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	HTTP      HTTP      `mapstructure:"http"`
	DB        Postgres  `mapstructure:"database"`
	RMQ       RabbitMQ  `mapstructure:"rabbitmq"`
	Payment   Payment   `mapstructure:"payment"`
	Store     Store     `mapstructure:"store"`
	Blacklist Blacklist `mapstructure:"blacklist"`
}

type HTTP struct {
	Port int `mapstructure:"port"`
}

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RabbitMQ struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type Payment struct {
	BaseURL       string        `mapstructure:"base_url"`
	SecretKey     string        `mapstructure:"secret_key"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	Currency      string        `mapstructure:"currency"`
	MethodTypes   []string      `mapstructure:"method_types"`
	SuccessURL    string        `mapstructure:"success_url"`
	CancelURL     string        `mapstructure:"cancel_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type Store struct {
	Timezone       string `mapstructure:"timezone"`
	Opening        string `mapstructure:"opening"`
	DefaultClosing string `mapstructure:"default_closing"`
}

type Blacklist struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// The deployment must supply these; startup fails without them. The webhook
// secret is deliberately the same credential surface as the gateway key
// config, never a placeholder constant in code.
var requiredFields = []string{
	"database.host",
	"database.user",
	"database.database",
	"payment.secret_key",
	"payment.webhook_secret",
}

// Load reads configuration from the given file and the environment.
// Environment variables use underscores, e.g. PAYMENT_SECRET_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, field := range requiredFields {
		v.BindEnv(field)
	}

	v.SetDefault("log_level", "info")
	v.SetDefault("http.port", 8080)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("payment.base_url", "https://api.paymongo.com/v1")
	v.SetDefault("payment.currency", "PHP")
	v.SetDefault("payment.method_types", []string{"gcash", "paymaya", "card"})
	v.SetDefault("payment.timeout", 15*time.Second)
	v.SetDefault("store.timezone", "Asia/Manila")
	v.SetDefault("store.opening", "09:00")
	v.SetDefault("store.default_closing", "17:00")
	v.SetDefault("blacklist.sweep_interval", time.Hour)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	for _, field := range requiredFields {
		if !v.IsSet(field) || v.GetString(field) == "" {
			return nil, fmt.Errorf("missing required config field: %s", field)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	return &config, nil
}

// Location resolves the deployment time zone every pickup computation is
// anchored to.
func (s Store) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load store timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}
