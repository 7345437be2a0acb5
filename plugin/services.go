package plugin

import (
	"go.uber.org/zap"

	"github.com/teranos/annogen/diag"
)

// Services provides access to annogen core services for processors.
type Services interface {
	// Reporter is the diagnostic reporter shared by all processors
	Reporter() *diag.Reporter

	// Logger returns a logger named after the processor
	Logger(processor string) *zap.SugaredLogger

	// Config returns processor-specific configuration ([processors.<name>])
	Config(processor string) Config

	// Concurrency is the maximum number of units a processor should run at once
	Concurrency() int
}

// Config provides access to processor configuration
type Config interface {
	// GetString retrieves a string configuration value
	GetString(key string) string

	// GetInt retrieves an integer configuration value
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice configuration value
	GetStringSlice(key string) []string

	// IsSet reports whether the key was configured
	IsSet(key string) bool
}

// ConfigProvider provides configuration for processors
type ConfigProvider interface {
	// GetProcessorConfig returns configuration for a specific processor
	GetProcessorConfig(processor string) Config
}

// DefaultServices is the standard implementation of Services
type DefaultServices struct {
	reporter    *diag.Reporter
	logger      *zap.SugaredLogger
	config      ConfigProvider
	concurrency int
}

// NewServices creates the services handed to processors. config may be nil,
// in which case every processor sees an empty configuration.
func NewServices(reporter *diag.Reporter, logger *zap.SugaredLogger, config ConfigProvider, concurrency int) Services {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DefaultServices{
		reporter:    reporter,
		logger:      logger,
		config:      config,
		concurrency: concurrency,
	}
}

func (s *DefaultServices) Reporter() *diag.Reporter { return s.reporter }

// Logger returns a logger for the specified processor
func (s *DefaultServices) Logger(processor string) *zap.SugaredLogger {
	return s.logger.Named(processor)
}

// Config returns processor-specific configuration
func (s *DefaultServices) Config(processor string) Config {
	if s.config == nil {
		return EmptyConfig{}
	}
	if cfg := s.config.GetProcessorConfig(processor); cfg != nil {
		return cfg
	}
	return EmptyConfig{}
}

func (s *DefaultServices) Concurrency() int { return s.concurrency }

// EmptyConfig is a Config with no keys.
type EmptyConfig struct{}

func (EmptyConfig) GetString(string) string        { return "" }
func (EmptyConfig) GetInt(string) int              { return 0 }
func (EmptyConfig) GetBool(string) bool            { return false }
func (EmptyConfig) GetStringSlice(string) []string { return nil }
func (EmptyConfig) IsSet(string) bool              { return false }
