// Package config resolves the settings shared by filterpack commands.
// A flag beats a FILTERPACK_* variable, which beats .filterpack.yaml.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Log levels accepted by --log-level.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log formats accepted by --log-format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultAddr is the listen address serve uses when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// Config holds the resolved settings. Keys match the flag names.
type Config struct {
	LogLevel  string `mapstructure:"log-level" json:"logLevel"`
	LogFormat string `mapstructure:"log-format" json:"logFormat"`
	Quiet     bool   `mapstructure:"quiet" json:"quiet"`

	// Lists is a YAML list fixture; StoreURL, when set, wins over it.
	Lists    string `mapstructure:"lists" json:"lists"`
	StoreURL string `mapstructure:"store-url" json:"storeUrl"`

	// CurrentUser is the email people widgets fall back to.
	CurrentUser string `mapstructure:"current-user" json:"currentUser"`

	Addr string `mapstructure:"addr" json:"addr"`

	// ConfigFile is the file Load read, empty when none was found.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Default is the configuration with no file, variable or flag applied.
func Default() *Config {
	return &Config{
		LogLevel:  LogLevelInfo,
		LogFormat: LogFormatText,
		Addr:      DefaultAddr,
	}
}

// Validate rejects unknown level or format names, a relative store URL
// and an empty listen address.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	if c.StoreURL != "" {
		u, err := url.Parse(c.StoreURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid store url %q: must be an absolute URL", c.StoreURL)
		}
	}

	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("invalid addr: must not be empty")
	}
	return nil
}

// EffectiveLogLevel is LogLevel, or error under --quiet.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}
	return c.LogLevel
}

// Load resolves the configuration for cmd. configFile, when set, must
// exist; otherwise .filterpack.yaml is looked up in the working directory
// and ~/.config/filterpack.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := newViper()

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.Lists = resolveRelative(cfg.Lists, cfg.ConfigFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// newViper seeds every key from Default so FILTERPACK_* variables resolve
// even for keys no file mentions.
func newViper() *viper.Viper {
	v := viper.NewWithOptions(viper.EnvKeyReplacer(strings.NewReplacer("-", "_")))
	v.SetEnvPrefix("FILTERPACK")
	v.AutomaticEnv()

	d := Default()
	for key, value := range map[string]any{
		"log-level":    d.LogLevel,
		"log-format":   d.LogFormat,
		"quiet":        d.Quiet,
		"lists":        d.Lists,
		"store-url":    d.StoreURL,
		"current-user": d.CurrentUser,
		"addr":         d.Addr,
	} {
		v.SetDefault(key, value)
	}
	return v
}

func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName(".filterpack")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "filterpack"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// bindFlags binds cmd's local flags plus the persistent flags it inherits.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}
	return nil
}

// resolveRelative reads a relative lists path from the config file's
// directory unless it already exists from the working directory.
func resolveRelative(path, configFile string) string {
	if path == "" || configFile == "" || filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(filepath.Dir(configFile), path)
}

type ctxKey struct{}

// NewContext attaches cfg to ctx.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the Config attached by NewContext, or Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}
	return Default()
}
