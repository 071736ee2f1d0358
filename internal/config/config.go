// Package config provides configuration management for ionbuild.
//
// Configuration is loaded from four sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (IONBUILD_ prefix)
//  3. Config file (.ionbuild.yaml)
//  4. Built-in defaults describing the standard www/ project layout
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultPort is the development server port used when none is configured.
const DefaultPort = 8100

// keyDelim separates nested viper keys. It is not "." because define keys
// such as "process.env.NODE_ENV" contain dots.
const keyDelim = "::"

// Config represents the global configuration for ionbuild.
type Config struct {
	// LogLevel controls the verbosity of log output.
	// Valid values: debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" json:"logLevel" yaml:"log-level"`

	// LogFormat controls the format of log output.
	// Valid values: text, json.
	LogFormat string `mapstructure:"log-format" json:"logFormat" yaml:"log-format"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no-color" json:"noColor" yaml:"no-color"`

	// Quiet suppresses all log output below error level.
	Quiet bool `mapstructure:"quiet" json:"quiet" yaml:"quiet"`

	// Root is the directory served by the development server.
	Root string `mapstructure:"root" json:"root" yaml:"root"`

	// Port is the development server port.
	Port int `mapstructure:"port" json:"port" yaml:"port"`

	// LiveReload enables the websocket reload endpoint on the server.
	LiveReload bool `mapstructure:"livereload" json:"livereload" yaml:"livereload"`

	Bundle BundleConfig `mapstructure:"bundle" json:"bundle" yaml:"bundle"`
	Styles StylesConfig `mapstructure:"styles" json:"styles" yaml:"styles"`
	Fonts  FontsConfig  `mapstructure:"fonts" json:"fonts" yaml:"fonts"`

	// Clean lists the paths removed by the clean task.
	Clean []string `mapstructure:"clean" json:"clean" yaml:"clean"`

	// ConfigFile is the resolved path to the config file used.
	// Set after Load(); never read from config itself.
	ConfigFile string `mapstructure:"-" json:"-" yaml:"-"`
}

// BundleConfig describes the script bundle.
type BundleConfig struct {
	EntryPoints []string          `mapstructure:"entry-points" json:"entryPoints" yaml:"entry-points"`
	Outdir      string            `mapstructure:"outdir" json:"outdir" yaml:"outdir"`
	Sourcemap   bool              `mapstructure:"sourcemap" json:"sourcemap" yaml:"sourcemap"`
	Minify      bool              `mapstructure:"minify" json:"minify" yaml:"minify"`
	Define      map[string]string `mapstructure:"define" json:"define,omitempty" yaml:"define,omitempty"`

	// Modules prints the per-module size analysis after every pass.
	Modules bool `mapstructure:"modules" json:"modules" yaml:"modules"`

	// Exclude hides analysis lines containing any of these substrings.
	Exclude []string `mapstructure:"exclude" json:"exclude" yaml:"exclude"`
}

// StylesConfig describes the Sass pipeline.
type StylesConfig struct {
	Entry        string   `mapstructure:"entry" json:"entry" yaml:"entry"`
	IncludePaths []string `mapstructure:"include-paths" json:"includePaths" yaml:"include-paths"`
	Outdir       string   `mapstructure:"outdir" json:"outdir" yaml:"outdir"`
	Watch        []string `mapstructure:"watch" json:"watch" yaml:"watch"`
	Browsers     []string `mapstructure:"browsers" json:"browsers" yaml:"browsers"`

	// SassBinary is the Dart Sass executable (must support --embedded).
	SassBinary string `mapstructure:"sass-binary" json:"sassBinary" yaml:"sass-binary"`
}

// FontsConfig describes the font copy task.
type FontsConfig struct {
	Patterns []string `mapstructure:"patterns" json:"patterns" yaml:"patterns"`
	Outdir   string   `mapstructure:"outdir" json:"outdir" yaml:"outdir"`
}

// DefaultBrowsers is the browser list used for vendor prefixing.
var DefaultBrowsers = []string{
	"last 2 versions",
	"iOS >= 7",
	"Android >= 4",
	"Explorer >= 10",
	"ExplorerMobile >= 11",
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:  LogLevelInfo,
		LogFormat: LogFormatText,
		Root:      "www",
		Port:      DefaultPort,
		Bundle: BundleConfig{
			EntryPoints: []string{"www/app/app.js"},
			Outdir:      "www/build/js",
			Sourcemap:   true,
			Modules:     true,
			Exclude:     []string{"node_modules"},
		},
		Styles: StylesConfig{
			Entry:        "www/app/app.scss",
			IncludePaths: []string{"node_modules/ionic-framework/src/scss"},
			Outdir:       "www/build/css",
			Watch:        []string{"www/app/**/*.scss"},
			Browsers:     append([]string(nil), DefaultBrowsers...),
			SassBinary:   "sass",
		},
		Fonts: FontsConfig{
			Patterns: []string{
				"node_modules/ionic-framework/fonts/**/*.ttf",
				"node_modules/ionic-framework/fonts/**/*.woff",
			},
			Outdir: "www/build/fonts",
		},
		Clean: []string{"www/build"},
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		// valid
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}

	var errs []error

	if c.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}

	if len(c.Bundle.EntryPoints) == 0 {
		errs = append(errs, errors.New("bundle.entry-points must not be empty"))
	}

	if c.Bundle.Outdir == "" {
		errs = append(errs, errors.New("bundle.outdir must not be empty"))
	}

	if c.Styles.Entry == "" || c.Styles.Outdir == "" {
		errs = append(errs, errors.New("styles.entry and styles.outdir must not be empty"))
	}

	if c.Fonts.Outdir == "" {
		errs = append(errs, errors.New("fonts.outdir must not be empty"))
	}

	return errors.Join(errs...)
}

// EffectiveLogLevel returns the log level to use. When Quiet is true the log
// level is overridden to "error" regardless of the configured LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelim))

	setDefaults(v)
	configureEnv(v)

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

	// Viper lowercases map keys; define identifiers are case-sensitive.
	if cfg.ConfigFile != "" {
		define, err := readDefine(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}

		if define != nil {
			cfg.Bundle.Define = define
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("no-color", d.NoColor)
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("root", d.Root)
	v.SetDefault("port", d.Port)
	v.SetDefault("livereload", d.LiveReload)

	v.SetDefault("bundle::entry-points", d.Bundle.EntryPoints)
	v.SetDefault("bundle::outdir", d.Bundle.Outdir)
	v.SetDefault("bundle::sourcemap", d.Bundle.Sourcemap)
	v.SetDefault("bundle::minify", d.Bundle.Minify)
	v.SetDefault("bundle::modules", d.Bundle.Modules)
	v.SetDefault("bundle::exclude", d.Bundle.Exclude)

	v.SetDefault("styles::entry", d.Styles.Entry)
	v.SetDefault("styles::include-paths", d.Styles.IncludePaths)
	v.SetDefault("styles::outdir", d.Styles.Outdir)
	v.SetDefault("styles::watch", d.Styles.Watch)
	v.SetDefault("styles::browsers", d.Styles.Browsers)
	v.SetDefault("styles::sass-binary", d.Styles.SassBinary)

	v.SetDefault("fonts::patterns", d.Fonts.Patterns)
	v.SetDefault("fonts::outdir", d.Fonts.Outdir)

	v.SetDefault("clean", d.Clean)
}

// configureEnv sets up environment variable support.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("IONBUILD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelim, "_", "-", "_", ".", "_"))
}

// configureFile sets up the config file source.
func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	// Auto-discovery mode.
	v.SetConfigName(".ionbuild")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "ionbuild"))
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file found → perfectly fine in auto-discovery.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}

		// Found a file but it was malformed.
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// readDefine reads bundle.define from a YAML or JSON config file with its
// keys exactly as written. It returns nil for other formats or when the key
// is absent.
func readDefine(path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", "":
	default:
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var doc struct {
		Bundle struct {
			Define map[string]string `yaml:"define"`
		} `yaml:"bundle"`
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing bundle.define in %q: %w", path, err)
	}

	return doc.Bundle.Define, nil
}

// bindFlags walks from cmd up to the root and binds all PersistentFlags.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	// Bind the current command's own flags.
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	// Walk up to root and bind all persistent flags at each level.
	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
