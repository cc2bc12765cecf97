package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Policy  PolicyConfig  `yaml:"policy" envconfig:"POLICY"`
	Feed    FeedConfig    `yaml:"feed" envconfig:"FEED"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Export  ExportConfig  `yaml:"export" envconfig:"EXPORT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PolicyConfig holds the data-quality policy applied by the record
// normalizer and the ledger merger. Close prices must lie strictly
// inside (MinClose, MaxClose); rows outside are dropped, never stored.
type PolicyConfig struct {
	MinClose   float64 `yaml:"min_close" envconfig:"MIN_CLOSE" validate:"gt=0"`
	MaxClose   float64 `yaml:"max_close" envconfig:"MAX_CLOSE" validate:"gtfield=MinClose"`
	DateLayout string  `yaml:"date_layout" envconfig:"DATE_LAYOUT" validate:"required"`
}

// FeedConfig configures the live quote feed client.
type FeedConfig struct {
	URL        string        `yaml:"url" envconfig:"URL" validate:"required,url"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	RatePerSec float64       `yaml:"rate_per_sec" envconfig:"RATE_PER_SEC"`
	CronSpec   string        `yaml:"cron_spec" envconfig:"CRON_SPEC"`
	UserAgent  string        `yaml:"user_agent" envconfig:"USER_AGENT"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// ExportConfig controls the derived market export.
type ExportConfig struct {
	HistoryLimit int           `yaml:"history_limit" envconfig:"HISTORY_LIMIT" validate:"min=1"`
	MoversLimit  int           `yaml:"movers_limit" envconfig:"MOVERS_LIMIT" validate:"min=1"`
	CacheTTL     time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
}

// Default returns the built-in configuration. Defaults live here rather
// than in envconfig `default:` tags: envconfig applies tag defaults
// whenever the variable is unset, which would overwrite values already
// loaded from the YAML file.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Policy: PolicyConfig{
			MinClose:   0.01,
			MaxClose:   1000,
			DateLayout: "02/01/2006",
		},
		Feed: FeedConfig{
			URL:        "https://dev.kwayisi.org/apis/gse/live",
			Timeout:    30 * time.Second,
			RatePerSec: 1,
			CronSpec:   "0 18 * * MON-FRI",
			UserAgent:  "gsewatch/1.0",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Export: ExportConfig{
			HistoryLimit: 500,
			MoversLimit:  5,
			CacheTTL:     time.Hour,
		},
	}
}

// Load starts from the built-in defaults, overlays an optional YAML
// file, then applies GSE_* environment variable overrides, then
// validates. Precedence: env > file > default.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("GSE", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
