package am

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/teranos/annogen/model"
	"github.com/teranos/annogen/router"
)

// Default values
const (
	DefaultMaxRounds  = 10
	DefaultEncoding   = "utf-8"
	DefaultLineEnding = "lf" // gofmt output, independent of the platform
)

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Generator: GeneratorConfig{
			DirectivePrefix: model.DefaultPrefix,
			MaxRounds:       DefaultMaxRounds,
			Processors:      []string{},
			Patterns:        []string{"./..."},
			BuildTags:       []string{},
		},
		Output: OutputConfig{
			Encoding:   DefaultEncoding,
			LineEnding: DefaultLineEnding,
			Manifest:   router.DefaultManifestName,
		},
	}
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	d := Defaults()

	// Generator defaults
	v.SetDefault("generator.directive_prefix", d.Generator.DirectivePrefix)
	v.SetDefault("generator.max_rounds", d.Generator.MaxRounds)
	v.SetDefault("generator.concurrency", 0) // GOMAXPROCS
	v.SetDefault("generator.processors", d.Generator.Processors)
	v.SetDefault("generator.patterns", d.Generator.Patterns)
	v.SetDefault("generator.tests", false)
	v.SetDefault("generator.build_tags", d.Generator.BuildTags)

	// Output defaults
	v.SetDefault("output.encoding", d.Output.Encoding)
	v.SetDefault("output.line_ending", d.Output.LineEnding)
	v.SetDefault("output.manifest", d.Output.Manifest)
	v.SetDefault("output.header", "")

	// Log defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Generator: {Prefix: %s, MaxRounds: %d, Processors: %v}, Output: {Encoding: %s, LineEnding: %s}}",
		c.Generator.DirectivePrefix, c.Generator.MaxRounds, c.Generator.Processors, c.Output.Encoding, c.Output.LineEnding)
}
