package am

import (
	"path/filepath"
	"strings"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/router"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Directive prefix follows "//" directly, so it cannot start with a slash or contain spaces
	prefix := c.Generator.DirectivePrefix
	if prefix == "" {
		return errors.NewInvalidArgumentError("generator.directive_prefix cannot be empty")
	}
	if strings.HasPrefix(prefix, "/") || strings.ContainsAny(prefix, " \t\n") {
		return errors.NewInvalidArgumentError("generator.directive_prefix %q must be a single word such as %q", prefix, "annogen:")
	}

	// Max rounds: at least the first round must run
	if c.Generator.MaxRounds < 1 {
		return errors.NewInvalidArgumentError("generator.max_rounds must be >= 1, got %d", c.Generator.MaxRounds)
	}

	// Concurrency: 0 = GOMAXPROCS, negative = invalid
	if c.Generator.Concurrency < 0 {
		return errors.NewInvalidArgumentError("generator.concurrency must be >= 0, got %d", c.Generator.Concurrency)
	}

	for _, name := range c.Generator.Processors {
		if strings.TrimSpace(name) == "" {
			return errors.NewInvalidArgumentError("generator.processors cannot contain empty names")
		}
	}

	if _, err := router.LineSeparator(c.Output.LineEnding); err != nil {
		return errors.Wrap(err, "output.line_ending")
	}
	if c.Output.Encoding != "" {
		if err := router.ValidateEncoding(c.Output.Encoding); err != nil {
			return errors.Wrap(err, "output.encoding")
		}
	}

	// Manifest lives in the module root
	if c.Output.Manifest != "" && (filepath.IsAbs(c.Output.Manifest) || strings.Contains(filepath.ToSlash(c.Output.Manifest), "../")) {
		return errors.NewInvalidArgumentError("output.manifest must be relative to the module root, got %q", c.Output.Manifest)
	}

	if c.Log.Verbosity < 0 {
		return errors.NewInvalidArgumentError("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	return nil
}
