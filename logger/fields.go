package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across annogen.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRoundID   = "round_id"
	FieldRound     = "round"
	FieldProcessor = "processor"

	// Components
	FieldComponent = "component"

	// Declarations
	FieldElement    = "element"
	FieldKind       = "kind"
	FieldMarker     = "marker"
	FieldMarkers    = "markers"
	FieldAnnotation = "annotation"
	FieldAttribute  = "attribute"
	FieldPackage    = "package"

	// Output
	FieldFile          = "file"
	FieldQualifiedName = "qualified_name"
	FieldBytes         = "bytes"
	FieldEncoding      = "encoding"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount    = "count"
	FieldClaimed  = "claimed"
	FieldFailed   = "failed"
	FieldEmitted  = "emitted"
	FieldErrors   = "errors"
	FieldWarnings = "warnings"
)

// Context keys for propagating logging context
type contextKey string

const (
	roundIDKey   contextKey = "logger_round_id"
	processorKey contextKey = "logger_processor"
	componentKey contextKey = "logger_component"
)

// WithRoundID adds a round ID to the context for logging
func WithRoundID(ctx context.Context, roundID string) context.Context {
	return context.WithValue(ctx, roundIDKey, roundID)
}

// WithProcessor adds a processor name to the context for logging
func WithProcessor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, processorKey, name)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if roundID, ok := ctx.Value(roundIDKey).(string); ok && roundID != "" {
		fields = append(fields, FieldRoundID, roundID)
	}
	if processor, ok := ctx.Value(processorKey).(string); ok && processor != "" {
		fields = append(fields, FieldProcessor, processor)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Controller struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func New() *Controller {
//	    return &Controller{
//	        logger: logger.ComponentLogger("round"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
