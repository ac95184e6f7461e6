package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Transport modes. Never branch on these outside the remote store setup.
const (
	TransportWebDAV = "webdav"
	TransportCLI    = "cli"
)

// Config is everything the tool needs for one invocation. Values come
// from flags, the config file, and INTERNXT_SYNC_* environment variables,
// in that order of precedence.
type Config struct {
	Transport string `mapstructure:"transport"`
	WebDAVURL string `mapstructure:"webdav_url"`
	CLIBin    string `mapstructure:"cli_bin"`

	ExcludeHidden bool     `mapstructure:"exclude_hidden"`
	Excludes      []string `mapstructure:"excludes"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("transport", TransportWebDAV)
	v.SetDefault("webdav_url", "https://127.0.0.1:3005")
	v.SetDefault("cli_bin", "internxt")
	v.SetDefault("exclude_hidden", true)
	v.SetDefault("excludes", []string{})
}

// Load materializes the config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Transport {
	case TransportWebDAV, TransportCLI:
	default:
		return fmt.Errorf("invalid transport %q (want %q or %q)", c.Transport, TransportWebDAV, TransportCLI)
	}
	if c.Transport == TransportWebDAV && c.WebDAVURL == "" {
		return fmt.Errorf("webdav_url must not be empty")
	}
	if c.Transport == TransportCLI && c.CLIBin == "" {
		return fmt.Errorf("cli_bin must not be empty")
	}
	return nil
}
