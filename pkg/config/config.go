package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// BackendKind selects the provisioning backend implementation.
type BackendKind string

const (
	BackendAPI  BackendKind = "api"
	BackendFile BackendKind = "file"
)

// Config holds the full daemon configuration. Values are resolved in three
// layers: built-in defaults, then the YAML config file, then environment
// variables. Environment variables win so secrets never have to live in the
// file.
type Config struct {
	// Messaging platform (membership oracle)
	BotToken        string        `yaml:"bot_token" env:"SUBGATE_BOT_TOKEN"`
	ChannelID       string        `yaml:"channel_id" env:"SUBGATE_CHANNEL_ID"` // "@channel" or numeric chat id
	TelegramAPIBase string        `yaml:"telegram_api_base" env:"SUBGATE_TELEGRAM_API_BASE"`
	OracleTimeout   time.Duration `yaml:"oracle_timeout" env:"SUBGATE_ORACLE_TIMEOUT"`

	// Reconciliation
	CheckInterval time.Duration `yaml:"check_interval" env:"SUBGATE_CHECK_INTERVAL"`

	// Provisioning backend selection
	Backend BackendKind `yaml:"backend" env:"SUBGATE_BACKEND"`

	// Control-API backend
	ControlURL string `yaml:"control_url" env:"SUBGATE_CONTROL_URL"`
	InboundTag string `yaml:"inbound_tag" env:"SUBGATE_INBOUND_TAG"`

	// File backend
	XrayConfigPath  string `yaml:"xray_config_path" env:"SUBGATE_XRAY_CONFIG_PATH"`
	InboundPort     int    `yaml:"inbound_port" env:"SUBGATE_INBOUND_PORT"`
	InboundProtocol string `yaml:"inbound_protocol" env:"SUBGATE_INBOUND_PROTOCOL"`
	ReloadURL       string `yaml:"reload_url" env:"SUBGATE_RELOAD_URL"`

	// Provisioning retry budget for transient connectivity failures
	RetryAttempts int           `yaml:"retry_attempts" env:"SUBGATE_RETRY_ATTEMPTS"`
	RetryDelay    time.Duration `yaml:"retry_delay" env:"SUBGATE_RETRY_DELAY"`

	// Credential metadata
	ServerDomain string `yaml:"server_domain" env:"SUBGATE_SERVER_DOMAIN"`
	ServerPort   int    `yaml:"server_port" env:"SUBGATE_SERVER_PORT"`
	EmailDomain  string `yaml:"email_domain" env:"SUBGATE_EMAIL_DOMAIN"`
	Flow         string `yaml:"flow" env:"SUBGATE_FLOW"`

	// HTTP API listener
	ListenAddr string `yaml:"listen_addr" env:"SUBGATE_LISTEN_ADDR"`

	// Logging
	LogLevel  string `yaml:"log_level" env:"SUBGATE_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"SUBGATE_LOG_FORMAT"` // "json" or "console"
}

// Default returns a Config with built-in defaults applied.
func Default() *Config {
	return &Config{
		TelegramAPIBase: "https://api.telegram.org",
		OracleTimeout:   5 * time.Second,
		CheckInterval:   time.Hour,
		Backend:         BackendAPI,
		InboundTag:      "vless_tls",
		InboundPort:     443,
		InboundProtocol: "vless",
		RetryAttempts:   2,
		RetryDelay:      time.Second,
		ServerPort:      443,
		EmailDomain:     "myserver",
		Flow:            "xtls-rprx-vision",
		ListenAddr:      ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variable overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency and required values.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("bot_token is required")
	}
	if c.ChannelID == "" {
		return fmt.Errorf("channel_id is required")
	}
	if c.ServerDomain == "" {
		return fmt.Errorf("server_domain is required")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive, got %s", c.CheckInterval)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1, got %d", c.RetryAttempts)
	}

	switch c.Backend {
	case BackendAPI:
		if c.ControlURL == "" {
			return fmt.Errorf("control_url is required for the api backend")
		}
	case BackendFile:
		if c.XrayConfigPath == "" {
			return fmt.Errorf("xray_config_path is required for the file backend")
		}
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendAPI, BackendFile, c.Backend)
	}

	return nil
}
