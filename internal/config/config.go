package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/axondata/go-launchd"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// LAUNCHDM_LAUNCHCTL_TIMEOUT=30s
const EnvPrefix = "LAUNCHDM"

// Config is the launchdm configuration
type Config struct {
	Launchctl LaunchctlConfig `mapstructure:"launchctl"`
	Manager   ManagerConfig   `mapstructure:"manager"`
	Roots     RootsConfig     `mapstructure:"roots"`
	Log       LogConfig       `mapstructure:"log"`
	Logs      LogsConfig      `mapstructure:"logs"`
}

// LaunchctlConfig controls how launchctl is invoked
type LaunchctlConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ManagerConfig controls reconciliation
type ManagerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// RootsConfig overrides the scanned directories. Empty values use the
// standard macOS locations.
type RootsConfig struct {
	UserAgents    string `mapstructure:"user_agents"`
	SystemAgents  string `mapstructure:"system_agents"`
	SystemDaemons string `mapstructure:"system_daemons"`
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// LogsConfig controls the job log viewer
type LogsConfig struct {
	TailLines int `mapstructure:"tail_lines"`
}

// DefaultPath returns $XDG_CONFIG_HOME/launchdm/config.toml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "launchdm", "config.toml")
}

// New returns a viper instance with defaults and environment binding set up
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration from path. An empty path reads DefaultPath when
// that file exists and otherwise uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := New()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil || explicit {
			v.SetConfigFile(path)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "failed to read config file %s", path)
			}
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates configuration from v
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveRoots applies the configured overrides on top of the default roots
func (c *Config) ResolveRoots() (launchd.Roots, error) {
	roots, err := launchd.DefaultRoots()
	if err != nil {
		if c.Roots.UserAgents == "" {
			return launchd.Roots{}, err
		}
		roots = launchd.Roots{
			SystemAgents:  launchd.DefaultSystemAgentsDir,
			SystemDaemons: launchd.DefaultSystemDaemonsDir,
		}
	}
	if c.Roots.UserAgents != "" {
		roots.UserAgents = expandHome(c.Roots.UserAgents)
	}
	if c.Roots.SystemAgents != "" {
		roots.SystemAgents = c.Roots.SystemAgents
	}
	if c.Roots.SystemDaemons != "" {
		roots.SystemDaemons = c.Roots.SystemDaemons
	}
	return roots, nil
}

// expandHome replaces a leading ~/ with the home directory
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
