// Package config loads the static application config from config.yaml.
// Mutable relay state (sources, keywords, target) lives elsewhere.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "config.yaml"
	DefaultStateFile  = "state.json"
	DefaultDBFile     = "blacklist.db"

	DefaultTokenEnv       = "CHANRELAY_BOT_TOKEN"
	DefaultInterval       = time.Minute
	DefaultWinddown       = 5 * time.Second
	DefaultChannelLimit   = 50
	DefaultSiteTimeout    = 30 * time.Second
	DefaultSendRate       = 1.0
	DefaultResolveRetries = 2
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "60s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Scan     ScanConfig     `yaml:"scan"`
	Storage  StorageConfig  `yaml:"storage"`
	Publish  PublishConfig  `yaml:"publish"`
}

type TelegramConfig struct {
	TokenEnv   string `yaml:"token_env"`
	Collector  string `yaml:"collector"`
	PythonPath string `yaml:"python_path"`
	SessionDir string `yaml:"session_dir"`

	// Resolved from the env var at load time.
	Token string `yaml:"-"`
}

type ScanConfig struct {
	Interval     Duration `yaml:"interval"`
	Winddown     Duration `yaml:"winddown"`
	ChannelLimit int      `yaml:"channel_limit"`
	SiteTimeout  Duration `yaml:"site_timeout"`
}

type StorageConfig struct {
	StatePath     string `yaml:"state_path"`
	BlacklistPath string `yaml:"blacklist_path"`

	// MaxLedgerEntries caps the sent-hash ledger; 0 keeps every hash.
	MaxLedgerEntries int `yaml:"max_ledger_entries"`
}

type PublishConfig struct {
	Signature      string  `yaml:"signature"`
	SendRate       float64 `yaml:"send_rate"`
	ResolveRetries int     `yaml:"resolve_retries"`
}

// Load reads config.yaml from dir, applies defaults, resolves env vars, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg, dir)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config, dir string) {
	if cfg.Telegram.TokenEnv == "" {
		cfg.Telegram.TokenEnv = DefaultTokenEnv
	}
	if cfg.Telegram.PythonPath == "" {
		cfg.Telegram.PythonPath = "python3"
	}
	if cfg.Telegram.SessionDir == "" {
		cfg.Telegram.SessionDir = filepath.Join(dir, "session")
	}
	if cfg.Scan.Interval.Duration == 0 {
		cfg.Scan.Interval.Duration = DefaultInterval
	}
	if cfg.Scan.Winddown.Duration == 0 {
		cfg.Scan.Winddown.Duration = DefaultWinddown
	}
	if cfg.Scan.ChannelLimit == 0 {
		cfg.Scan.ChannelLimit = DefaultChannelLimit
	}
	if cfg.Scan.SiteTimeout.Duration == 0 {
		cfg.Scan.SiteTimeout.Duration = DefaultSiteTimeout
	}
	if cfg.Storage.StatePath == "" {
		cfg.Storage.StatePath = filepath.Join(dir, DefaultStateFile)
	}
	if cfg.Storage.BlacklistPath == "" {
		cfg.Storage.BlacklistPath = filepath.Join(dir, DefaultDBFile)
	}
	if cfg.Publish.SendRate == 0 {
		cfg.Publish.SendRate = DefaultSendRate
	}
	if cfg.Publish.ResolveRetries == 0 {
		cfg.Publish.ResolveRetries = DefaultResolveRetries
	}
}

func resolveEnv(cfg *Config) {
	if cfg.Telegram.TokenEnv != "" {
		cfg.Telegram.Token = os.Getenv(cfg.Telegram.TokenEnv)
	}
}

func validate(cfg *Config) error {
	if cfg.Scan.Interval.Duration < time.Second {
		return fmt.Errorf("scan.interval: %s is below the 1s minimum", cfg.Scan.Interval.Duration)
	}
	if cfg.Scan.ChannelLimit < 0 {
		return errors.New("scan.channel_limit: must not be negative")
	}
	if cfg.Storage.MaxLedgerEntries < 0 {
		return errors.New("storage.max_ledger_entries: must not be negative")
	}
	if cfg.Publish.SendRate < 0 {
		return errors.New("publish.send_rate: must not be negative")
	}
	if cfg.Publish.ResolveRetries < 0 {
		return errors.New("publish.resolve_retries: must not be negative")
	}
	return nil
}
