// Package config loads user settings from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/thiagokokada/autosquash-review/internal/apperr"
	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/history"
	"github.com/thiagokokada/autosquash-review/internal/tools"
)

const EnvPrefix = "AUTOSQUASH_REVIEW"

type Config struct {
	Upstream  UpstreamConfig `mapstructure:"upstream" toml:"upstream"`
	Walk      WalkConfig     `mapstructure:"walk" toml:"walk"`
	Tools     ToolsConfig    `mapstructure:"tools" toml:"tools"`
	Theme     string         `mapstructure:"theme" toml:"theme"`
	LogLevel  string         `mapstructure:"log_level" toml:"log_level"`
	StatePath string         `mapstructure:"state_path" toml:"state_path,omitempty"`
}

type UpstreamConfig struct {
	RemoteURLs []string `mapstructure:"remote_urls" toml:"remote_urls"`
	Branches   []string `mapstructure:"branches" toml:"branches"`
}

type WalkConfig struct {
	Limit int `mapstructure:"limit" toml:"limit"`
}

type ToolsConfig struct {
	Editors []string `mapstructure:"editors" toml:"editors"`
	Viewers []string `mapstructure:"viewers" toml:"viewers"`
}

var themes = []string{"auto", "light", "dark"}

func Default() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			RemoteURLs: slices.Clone(history.DefaultRemoteURLs),
			Branches:   slices.Clone(history.DefaultBranches),
		},
		Walk:     WalkConfig{Limit: git.DefaultLimit},
		Tools:    ToolsConfig{Editors: slices.Clone(tools.DefaultEditors), Viewers: slices.Clone(tools.DefaultViewers)},
		Theme:    "auto",
		LogLevel: "info",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/autosquash-review/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "autosquash-review", "config.toml"), nil
}

// Load reads the configuration. An empty path means DefaultPath, which may
// be missing; an explicit path must exist. Environment variables prefixed
// with AUTOSQUASH_REVIEW_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("upstream.remote_urls", def.Upstream.RemoteURLs)
	v.SetDefault("upstream.branches", def.Upstream.Branches)
	v.SetDefault("walk.limit", def.Walk.Limit)
	v.SetDefault("tools.editors", def.Tools.Editors)
	v.SetDefault("tools.viewers", def.Tools.Viewers)
	v.SetDefault("theme", def.Theme)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("state_path", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, apperr.Wrapf(err, apperr.KindConfig, "Could not read configuration file “%s”.", path)
		}
		slog.Debug("configuration loaded", slog.String("path", path))
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Wrapf(err, apperr.KindConfig, "Could not read configuration file “%s”.", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Wrap(err, apperr.KindConfig, "Invalid configuration.")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !slices.Contains(themes, c.Theme) {
		return apperr.New(apperr.KindConfig, fmt.Sprintf("Invalid theme %q.", c.Theme)).
			WithHint("Use one of: " + strings.Join(themes, ", ") + ".")
	}
	if _, err := c.Level(); err != nil {
		return apperr.Wrapf(err, apperr.KindConfig, "Invalid log level %q.", c.LogLevel)
	}
	if c.Walk.Limit < 0 {
		return apperr.New(apperr.KindConfig, fmt.Sprintf("Invalid walk limit %d.", c.Walk.Limit))
	}
	return nil
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}

// HistoryOptions returns the walk options described by c for base.
func (c *Config) HistoryOptions(base string) history.Options {
	return history.Options{
		Base:       base,
		RemoteURLs: c.Upstream.RemoteURLs,
		Branches:   c.Upstream.Branches,
		Limit:      c.Walk.Limit,
	}
}

// Init writes the default configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return apperr.New(apperr.KindConfig, fmt.Sprintf("Configuration file “%s” already exists.", path)).
				WithHint("Pass --force to overwrite it.")
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	if err := Encode(f, Default()); err != nil {
		return err
	}
	return f.Close()
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
