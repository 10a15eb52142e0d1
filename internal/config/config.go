package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Mail       MailConfig       `yaml:"mail"`
	Notify     NotifyConfig     `yaml:"notify"`
	Session    SessionConfig    `yaml:"session"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
	Admins     []string         `yaml:"admins"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MailConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Sender         string `yaml:"sender"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type NotifyConfig struct {
	Enabled       bool `yaml:"enabled"`
	MaxRetries    int  `yaml:"max_retries"`
	PollSeconds   int  `yaml:"poll_seconds"`
	BatchSize     int  `yaml:"batch_size"`
	InitialDelayS int  `yaml:"initial_delay_seconds"`
	MaxDelayS     int  `yaml:"max_delay_seconds"`
}

type SessionConfig struct {
	TTLHours          int `yaml:"ttl_hours"`
	RateLimitRequests int `yaml:"rate_limit_requests"`
	RateLimitWindowS  int `yaml:"rate_limit_window_seconds"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment wins either way.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis address is required when redis is enabled")
	}

	if c.Notify.Enabled && c.Mail.Endpoint == "" {
		return errors.New("mail endpoint is required when notifications are enabled")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth enabled by default when API is enabled
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Mail.TimeoutSeconds == 0 {
		c.Mail.TimeoutSeconds = 10
	}
	if c.Mail.Sender == "" {
		c.Mail.Sender = "noreply@ensai.fr"
	}

	if c.Notify.MaxRetries == 0 {
		c.Notify.MaxRetries = 5
	}
	if c.Notify.PollSeconds == 0 {
		c.Notify.PollSeconds = 2
	}
	if c.Notify.BatchSize == 0 {
		c.Notify.BatchSize = 20
	}
	if c.Notify.InitialDelayS == 0 {
		c.Notify.InitialDelayS = 2
	}
	if c.Notify.MaxDelayS == 0 {
		c.Notify.MaxDelayS = 60
	}

	if c.Session.TTLHours == 0 {
		c.Session.TTLHours = 24
	}
	if c.Session.RateLimitRequests == 0 {
		c.Session.RateLimitRequests = 30
	}
	if c.Session.RateLimitWindowS == 0 {
		c.Session.RateLimitWindowS = 60
	}
}

// SessionTTL returns the configured session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}
