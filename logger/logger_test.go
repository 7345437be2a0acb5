package logger

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	return regexp.MustCompile(`\x1b\[[0-9;]*m`).ReplaceAllString(str, "")
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{name: "JSON output mode", jsonOutput: true, verbosity: VerbosityInfo},
		{name: "Console output mode", jsonOutput: false, verbosity: VerbosityUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Logger
			defer func() { Logger = prev; JSONOutput = false }()

			require.NoError(t, Initialize(tt.jsonOutput, tt.verbosity))
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(VerbosityUser))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(9))
}

func TestShouldOutput(t *testing.T) {
	assert.True(t, ShouldOutput(VerbosityUser, OutputDiagnostics))
	assert.False(t, ShouldOutput(VerbosityUser, OutputRoundProgress))
	assert.True(t, ShouldOutput(VerbosityInfo, OutputRoundProgress))
	assert.False(t, ShouldOutput(VerbosityDebug, OutputFiles))
	assert.True(t, ShouldOutput(VerbosityTrace, OutputFiles))
	assert.False(t, ShouldOutput(VerbosityTrace, OutputCategory(99)))
	assert.Equal(t, "rendered-source", CategoryName(OutputRenderedSource))
	assert.Equal(t, "unknown", CategoryName(OutputCategory(99)))
}

func TestLoggerFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))
	defer restore()

	ctx := WithRoundID(context.Background(), "r-1")
	ctx = WithProcessor(ctx, "builder")
	LoggerFromContext(ctx).Infow("Round finished", FieldClaimed, true)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "r-1", fields[FieldRoundID])
	assert.Equal(t, "builder", fields[FieldProcessor])
	assert.Equal(t, true, fields[FieldClaimed])
}

func TestLoggerFromContextWithoutFields(t *testing.T) {
	assert.Same(t, Logger, LoggerFromContext(context.Background()))
}

func TestMinimalEncoderKeepsAllFields(t *testing.T) {
	enc := newMinimalEncoder()
	entry := zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Time:       time.Date(2026, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "round",
		Message:    "Emission failed",
	}

	withCtx := enc.Clone()
	zap.String(FieldRoundID, "r-9").AddTo(withCtx)

	buf, err := withCtx.EncodeEntry(entry, []zapcore.Field{
		zap.String(FieldFile, "person_builder_gen.go"),
		zap.Int(FieldCount, 3),
		zap.Bool(FieldClaimed, true),
		zap.Error(nil),
	})
	require.NoError(t, err)

	out := stripANSI(buf.String())
	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "round  Emission failed")
	assert.Contains(t, out, "round_id=r-9")
	assert.Contains(t, out, "file=person_builder_gen.go")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "claimed=true")
	assert.Regexp(t, `round_id=r-9 .*claimed=true`, out)
}

func TestMinimalEncoderCloneIsIndependent(t *testing.T) {
	base := newMinimalEncoder()
	a := base.Clone()
	zap.String("a", "1").AddTo(a)

	buf, err := base.Clone().EncodeEntry(zapcore.Entry{Message: "x"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, stripANSI(buf.String()), "a=1")
}
