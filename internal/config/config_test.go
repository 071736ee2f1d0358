package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newTestRootCmd creates a cobra.Command with the same persistent flags as the
// real root command so that Load can bind them during tests.
func newTestRootCmd() *cobra.Command {
	cmd := &cobra.Command{}
	pf := cmd.PersistentFlags()
	pf.String("config", "", "")
	pf.String("log-level", "info", "")
	pf.String("log-format", "text", "")
	pf.Bool("no-color", false, "")
	pf.BoolP("quiet", "q", false, "")
	pf.Int("port", DefaultPort, "")

	return cmd
}

// writeTempConfig writes a YAML string to a temporary file and returns the path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

// ---------------------------------------------------------------------------
// Default
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Quiet)
	assert.Equal(t, "www", cfg.Root)
	assert.Equal(t, 8100, cfg.Port)
	assert.False(t, cfg.LiveReload)
	assert.Equal(t, []string{"www/build"}, cfg.Clean)
	assert.Equal(t, "www/build/css", cfg.Styles.Outdir)
	assert.Equal(t, "www/build/fonts", cfg.Fonts.Outdir)
	assert.Len(t, cfg.Fonts.Patterns, 2)
	assert.Equal(t, DefaultBrowsers, cfg.Styles.Browsers)
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate_ValidValues(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		cfg := Default()
		cfg.LogLevel = lvl
		assert.NoError(t, cfg.Validate(), "level=%s", lvl)
	}

	for _, fmt := range []string{"text", "json"} {
		cfg := Default()
		cfg.LogFormat = fmt
		assert.NoError(t, cfg.Validate(), "format=%s", fmt)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	assert.ErrorContains(t, cfg.Validate(), "invalid log level")
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := Default()
		cfg.Port = port
		assert.ErrorContains(t, cfg.Validate(), "invalid port", "port=%d", port)
	}
}

func TestValidate_EmptyPaths(t *testing.T) {
	cfg := Default()
	cfg.Root = ""
	cfg.Bundle.EntryPoints = nil
	cfg.Fonts.Outdir = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root must not be empty")
	assert.Contains(t, err.Error(), "bundle.entry-points")
	assert.Contains(t, err.Error(), "fonts.outdir")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	assert.ErrorContains(t, cfg.Validate(), "invalid log format")
}

// ---------------------------------------------------------------------------
// EffectiveLogLevel
// ---------------------------------------------------------------------------

func TestEffectiveLogLevel_Normal(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestEffectiveLogLevel_QuietOverride(t *testing.T) {
	cfg := &Config{LogLevel: "debug", Quiet: true}
	assert.Equal(t, "error", cfg.EffectiveLogLevel())
}

// ---------------------------------------------------------------------------
// Load: defaults only
// ---------------------------------------------------------------------------

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Quiet)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, Default().Bundle, cfg.Bundle)
	assert.Equal(t, Default().Styles, cfg.Styles)
	assert.Equal(t, Default().Fonts, cfg.Fonts)
}

// ---------------------------------------------------------------------------
// Load: environment variables
// ---------------------------------------------------------------------------

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("IONBUILD_LOG_LEVEL", "debug")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvBooleans(t *testing.T) {
	t.Setenv("IONBUILD_NO_COLOR", "true")
	t.Setenv("IONBUILD_QUIET", "true")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.Quiet)
}

func TestLoad_EnvNestedKey(t *testing.T) {
	t.Setenv("IONBUILD_BUNDLE_OUTDIR", "public/js")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "public/js", cfg.Bundle.Outdir)
}

// ---------------------------------------------------------------------------
// Load: config file
// ---------------------------------------------------------------------------

func TestLoad_ConfigFileProjectLayout(t *testing.T) {
	p := writeTempConfig(t, `root: public
port: 3000
livereload: true
bundle:
  entry-points: [src/main.ts]
  outdir: public/js
  minify: true
styles:
  entry: src/main.scss
  include-paths: [vendor/scss]
fonts:
  outdir: public/fonts
clean: [public/js, public/css]
`)

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.Root)
	assert.Equal(t, 3000, cfg.Port)
	assert.True(t, cfg.LiveReload)
	assert.Equal(t, []string{"src/main.ts"}, cfg.Bundle.EntryPoints)
	assert.Equal(t, "public/js", cfg.Bundle.Outdir)
	assert.True(t, cfg.Bundle.Minify)
	assert.Equal(t, "src/main.scss", cfg.Styles.Entry)
	assert.Equal(t, []string{"vendor/scss"}, cfg.Styles.IncludePaths)
	assert.Equal(t, "www/build/css", cfg.Styles.Outdir, "unset keys keep their default")
	assert.Equal(t, "public/fonts", cfg.Fonts.Outdir)
	assert.Equal(t, []string{"public/js", "public/css"}, cfg.Clean)
	assert.Equal(t, p, cfg.ConfigFile)
}

func TestLoad_DefinePreservesKeys(t *testing.T) {
	p := writeTempConfig(t, `bundle:
  define:
    DEBUG: "false"
    process.env.NODE_ENV: '"production"'
`)

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"DEBUG":                "false",
		"process.env.NODE_ENV": `"production"`,
	}, cfg.Bundle.Define)
	assert.Equal(t, "www/build/js", cfg.Bundle.Outdir, "defaults survive alongside define")
}

func TestLoad_DefineFromJSONFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"bundle":{"define":{"API_URL":"\"/api\""}}}`), 0o600))

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"API_URL": `"/api"`}, cfg.Bundle.Define)
}

func TestLoad_ConfigFile(t *testing.T) {
	p := writeTempConfig(t, "log-level: warn\nlog-format: json\n")

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(nil, "/tmp/nonexistent-ionbuild-cfg-12345.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	p := writeTempConfig(t, ": invalid yaml :")

	_, err := Load(nil, p)
	require.Error(t, err)
}

func TestLoad_MissingAutoDiscoverFile(t *testing.T) {
	// When no explicit file is given and auto-discover finds nothing, Load
	// should succeed with defaults.
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
}

// ---------------------------------------------------------------------------
// Load: flag precedence
// ---------------------------------------------------------------------------

func TestLoad_FlagOverridesDefault(t *testing.T) {
	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "error"))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("IONBUILD_LOG_LEVEL", "debug")

	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "error"))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("IONBUILD_LOG_LEVEL", "debug")
	p := writeTempConfig(t, "log-level: warn\n")

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FlagOverridesAll(t *testing.T) {
	t.Setenv("IONBUILD_LOG_LEVEL", "debug")
	p := writeTempConfig(t, "log-level: warn\n")

	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "error"))

	cfg, err := Load(cmd, p)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_PortDefault(t *testing.T) {
	cmd := newTestRootCmd()

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, 8100, cfg.Port)
}

func TestLoad_PortFlag(t *testing.T) {
	cmd := newTestRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--port=9000"}))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoad_PortFlagOverridesFile(t *testing.T) {
	p := writeTempConfig(t, "port: 3000\n")

	cmd := newTestRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9000"}))

	cfg, err := Load(cmd, p)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
}

// ---------------------------------------------------------------------------
// Load: validation on loaded values
// ---------------------------------------------------------------------------

func TestLoad_InvalidLogLevelFromEnv(t *testing.T) {
	t.Setenv("IONBUILD_LOG_LEVEL", "verbose")

	_, err := Load(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoad_InvalidLogFormatFromFile(t *testing.T) {
	p := writeTempConfig(t, "log-format: xml\n")

	_, err := Load(nil, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func TestContext_RoundTrip(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	ctx := NewContext(context.Background(), cfg)
	got := FromContext(ctx)
	assert.Equal(t, cfg, got)
}

func TestFromContext_FallbackToDefault(t *testing.T) {
	got := FromContext(context.Background())
	assert.Equal(t, Default(), got)
}
