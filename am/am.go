package am

import (
	"runtime"
	"strings"

	"github.com/teranos/annogen/model"
	"github.com/teranos/annogen/router"
)

// Config represents the annogen configuration
type Config struct {
	Generator  GeneratorConfig           `mapstructure:"generator" toml:"generator"`
	Output     OutputConfig              `mapstructure:"output" toml:"output"`
	Log        LogConfig                 `mapstructure:"log" toml:"log"`
	Processors map[string]map[string]any `mapstructure:"processors" toml:"processors,omitempty"`
}

// GeneratorConfig configures package loading and round processing
type GeneratorConfig struct {
	DirectivePrefix string   `mapstructure:"directive_prefix" toml:"directive_prefix"` // e.g. "annogen:" for //annogen:builder
	MaxRounds       int      `mapstructure:"max_rounds" toml:"max_rounds"`             // rounds before giving up on generated markers (default: 10)
	Concurrency     int      `mapstructure:"concurrency" toml:"concurrency"`           // units of work in flight per round (0 = GOMAXPROCS)
	Processors      []string `mapstructure:"processors" toml:"processors"`             // enabled processors (empty = all registered)
	Patterns        []string `mapstructure:"patterns" toml:"patterns"`                 // package patterns (default: ["./..."])
	Tests           bool     `mapstructure:"tests" toml:"tests"`                       // also scan _test.go files
	BuildTags       []string `mapstructure:"build_tags" toml:"build_tags"`
}

// OutputConfig configures how generated files are written
type OutputConfig struct {
	Encoding   string `mapstructure:"encoding" toml:"encoding"`       // WHATWG encoding name (default: utf-8)
	LineEnding string `mapstructure:"line_ending" toml:"line_ending"` // native, lf or crlf
	Manifest   string `mapstructure:"manifest" toml:"manifest"`       // manifest file in the module root ("" disables)
	Header     string `mapstructure:"header" toml:"header"`           // extra comment below the generated-code prolog
}

// LogConfig configures logging
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity"` // 0 warn, 1 info, 2+ debug
}

// ConfigFileName is the project configuration file, found by walking up from the working directory
const ConfigFileName = "annogen.toml"

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// EffectiveConcurrency returns generator.concurrency, with 0 meaning GOMAXPROCS
func (c *Config) EffectiveConcurrency() int {
	if c.Generator.Concurrency <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Generator.Concurrency
}

// LoadConfig returns the package loading settings for the module in dir
func (c *Config) LoadConfig(dir string) model.LoadConfig {
	cfg := model.LoadConfig{
		Dir:    dir,
		Prefix: c.Generator.DirectivePrefix,
		Tests:  c.Generator.Tests,
	}
	if len(c.Generator.BuildTags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(c.Generator.BuildTags, ",")}
	}
	return cfg
}

// RouterOptions converts the output section into router options
func (c *Config) RouterOptions() ([]router.Option, error) {
	sep, err := router.LineSeparator(c.Output.LineEnding)
	if err != nil {
		return nil, err
	}
	opts := []router.Option{router.WithLineSeparator(sep)}
	if c.Output.Encoding != "" {
		opts = append(opts, router.WithEncoding(c.Output.Encoding))
	}
	if c.Output.Header != "" {
		opts = append(opts, router.WithHeader(c.Output.Header))
	}
	return opts, nil
}

// PatternsOrDefault returns the configured package patterns, or ./...
func (c *Config) PatternsOrDefault() []string {
	if len(c.Generator.Patterns) == 0 {
		return []string{"./..."}
	}
	return c.Generator.Patterns
}
