package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

const (
	defaultMarket              = "en-US"
	defaultHost                = "https://www.bing.com"
	defaultDisplayPollInterval = 5 * time.Second
	configFileName             = "config.toml"
)

// Path is the location of the config file; empty means the default location
type Path string

// AppConfig holds application configuration
type AppConfig struct {
	logger *zap.Logger
	path   string

	PicturesDir         string        `toml:"pictures_dir"`
	Market              string        `toml:"market"`
	Host                string        `toml:"host"`
	DisplayPollInterval time.Duration `toml:"display_poll_interval"`
}

// DefaultConfigDir returns ~/.config/bingwall
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "bingwall")
}

// DefaultPicturesDir resolves the platform pictures directory
func DefaultPicturesDir() string {
	if dir := os.Getenv("XDG_PICTURES_DIR"); dir != "" {
		return expandPath(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "Pictures")
	}
	return filepath.Join(home, "Pictures")
}

// Default returns a configuration populated with defaults only
func Default() *AppConfig {
	return &AppConfig{
		logger:              zap.NewNop(),
		PicturesDir:         DefaultPicturesDir(),
		Market:              defaultMarket,
		Host:                defaultHost,
		DisplayPollInterval: defaultDisplayPollInterval,
	}
}

// NewAppConfig creates a new application configuration instance.
// The TOML file is optional; environment variables override it.
func NewAppConfig(path Path, logger *zap.Logger) (*AppConfig, error) {
	cfg, err := Load(string(path))
	if err != nil {
		return nil, err
	}
	cfg.logger = logger

	logger.Info("Configuration loaded",
		zap.String("file", cfg.path),
		zap.String("picturesDir", cfg.PicturesDir),
		zap.String("market", cfg.Market),
		zap.String("host", cfg.Host),
		zap.Duration("displayPoll", cfg.DisplayPollInterval))

	return cfg, nil
}

// Load reads the config file at path (or the default location) and applies
// environment overrides
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), configFileName)
	}
	path = expandPath(path)

	cfg := Default()
	cfg.path = path

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.postProcess()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv("BINGWALL_PICTURES_DIR"); v != "" {
		c.PicturesDir = v
	}
	if v := os.Getenv("BINGWALL_MARKET"); v != "" {
		c.Market = v
	}
	if v := os.Getenv("BINGWALL_HOST"); v != "" {
		c.Host = v
	}
}

func (c *AppConfig) postProcess() {
	c.PicturesDir = expandPath(os.ExpandEnv(strings.TrimSpace(c.PicturesDir)))
	if c.PicturesDir == "" {
		c.PicturesDir = DefaultPicturesDir()
	}
	c.Market = strings.TrimSpace(c.Market)
	c.Host = strings.TrimRight(strings.TrimSpace(c.Host), "/")
	if c.DisplayPollInterval == 0 {
		c.DisplayPollInterval = defaultDisplayPollInterval
	}
}

// Validate checks that every setting is usable
func (c *AppConfig) Validate() error {
	if c.Market == "" {
		return fmt.Errorf("market must not be empty")
	}

	u, err := url.Parse(c.Host)
	if err != nil {
		return fmt.Errorf("invalid host %q: %w", c.Host, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("invalid host %q (must be an absolute http(s) URL)", c.Host)
	}

	if c.DisplayPollInterval < 0 {
		return fmt.Errorf("display_poll_interval must be positive, got %s", c.DisplayPollInterval)
	}

	return nil
}

// ConfigPath returns the file the configuration was read from
func (c *AppConfig) ConfigPath() string {
	return c.path
}

// GetPicturesDir returns the root directory for cached wallpapers
func (c *AppConfig) GetPicturesDir() string {
	return c.PicturesDir
}

// GetMarket returns the feed market code
func (c *AppConfig) GetMarket() string {
	return c.Market
}

// GetHost returns the feed and image host
func (c *AppConfig) GetHost() string {
	return c.Host
}

// GetDisplayPollInterval returns the sampling period of the polling display watcher
func (c *AppConfig) GetDisplayPollInterval() time.Duration {
	return c.DisplayPollInterval
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
