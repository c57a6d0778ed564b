// Package cliconfig loads mgosh's configuration the way spf13/viper is
// built to: defaults registered first, then a YAML config file, then
// MONGOSH_<SECTION>_<KEY> environment variables, then explicit CLI flags
// (spec.md §6 "Precedence: CLI flag > env var > config file > default").
package cliconfig

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Connection mirrors spec.md §6's "connection" config section.
type Connection struct {
	DefaultURI    string `mapstructure:"default_uri" yaml:"default_uri"`
	Timeout       int    `mapstructure:"timeout" yaml:"timeout"`
	RetryAttempts int    `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	MaxPoolSize   int    `mapstructure:"max_pool_size" yaml:"max_pool_size"`
	MinPoolSize   int    `mapstructure:"min_pool_size" yaml:"min_pool_size"`
	IdleTimeout   int    `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// Display mirrors the "display" config section.
type Display struct {
	Format             string `mapstructure:"format" yaml:"format"`
	ColorOutput        bool   `mapstructure:"color_output" yaml:"color_output"`
	PageSize           int    `mapstructure:"page_size" yaml:"page_size"`
	SyntaxHighlighting bool   `mapstructure:"syntax_highlighting" yaml:"syntax_highlighting"`
	ShowTiming         bool   `mapstructure:"show_timing" yaml:"show_timing"`
}

// History mirrors the "history" config section.
type History struct {
	MaxSize  int    `mapstructure:"max_size" yaml:"max_size"`
	FilePath string `mapstructure:"file_path" yaml:"file_path"`
	Persist  bool   `mapstructure:"persist" yaml:"persist"`
}

// Logging mirrors the "logging" config section.
type Logging struct {
	Level      string `mapstructure:"level" yaml:"level"`
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
	Timestamps bool   `mapstructure:"timestamps" yaml:"timestamps"`
}

// Plugins mirrors the "plugins" config section.
type Plugins struct {
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
	Directory      string   `mapstructure:"directory" yaml:"directory"`
	EnabledPlugins []string `mapstructure:"enabled_plugins" yaml:"enabled_plugins"`
}

// Config is the fully resolved configuration, after defaults/file/env/flag
// precedence has been applied.
type Config struct {
	Connection Connection `mapstructure:"connection" yaml:"connection"`
	Display    Display    `mapstructure:"display" yaml:"display"`
	History    History    `mapstructure:"history" yaml:"history"`
	Logging    Logging    `mapstructure:"logging" yaml:"logging"`
	Plugins    Plugins    `mapstructure:"plugins" yaml:"plugins"`
}

// envPrefix is the MONGOSH_ prefix viper uses to derive MONGOSH_<SECTION>_<KEY>.
const envPrefix = "mongosh"

func setDefaults(v *viper.Viper) {
	v.SetDefault("connection.default_uri", "mongodb://localhost:27017")
	v.SetDefault("connection.timeout", 10)
	v.SetDefault("connection.retry_attempts", 6)
	v.SetDefault("connection.max_pool_size", 100)
	v.SetDefault("connection.min_pool_size", 0)
	v.SetDefault("connection.idle_timeout", 0)

	v.SetDefault("display.format", "shell")
	v.SetDefault("display.color_output", true)
	v.SetDefault("display.page_size", 20)
	v.SetDefault("display.syntax_highlighting", true)
	v.SetDefault("display.show_timing", false)

	v.SetDefault("history.max_size", 1000)
	v.SetDefault("history.file_path", "~/.mgosh_history")
	v.SetDefault("history.persist", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.timestamps", true)

	v.SetDefault("plugins.enabled", false)
	v.SetDefault("plugins.directory", "~/.mgosh/plugins")
	v.SetDefault("plugins.enabled_plugins", []string{})
}

// Load resolves configuration from defaults, an optional YAML file at
// configPath, MONGOSH_<SECTION>_<KEY> environment variables, and any bound
// CLI flags, in that ascending precedence order.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cliconfig: reading %s: %w", configPath, err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cliconfig: unmarshal: %w", err)
	}
	return &cfg, nil
}

// flagKeys maps cobra/pflag flag names to the dotted viper key they feed.
// Flags whose effect isn't a direct value copy (--no-color negates
// color_output, --verbose/--vv step the logging level) are applied by the
// caller after Load returns rather than bound here.
var flagKeys = map[string]string{
	"format":  "display.format",
	"timeout": "connection.timeout",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for flagName, key := range flagKeys {
		f := flags.Lookup(flagName)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("cliconfig: bind flag %s: %w", flagName, err)
		}
	}
	return nil
}
