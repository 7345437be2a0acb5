package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestInvalidArgument(t *testing.T) {
	err := NewInvalidArgumentError("element is required (got %v)", nil)

	assert.True(t, IsInvalidArgument(err))
	assert.True(t, Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "element is required")
	assert.False(t, IsInvalidArgument(nil))
	assert.False(t, IsInvalidArgument(New("other")))
}

func TestNotFound(t *testing.T) {
	err := NewNotFoundError("processor %q", "builder")
	assert.True(t, Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), `processor "builder"`)
}

func TestFromPanic(t *testing.T) {
	t.Run("string value", func(t *testing.T) {
		err := FromPanic("boom")
		assert.Contains(t, err.Error(), "panic: boom")
	})

	t.Run("error value keeps identity", func(t *testing.T) {
		base := New("base")
		err := FromPanic(base)
		assert.True(t, Is(err, base))
	})
}

func TestTrace(t *testing.T) {
	err := Wrap(New("with stack"), "outer")

	trace := Trace(err)
	assert.Contains(t, trace, "outer")
	assert.Contains(t, trace, "with stack")
	assert.Contains(t, trace, "errors_test.go")
	assert.Empty(t, Trace(nil))
}

func TestWithHint(t *testing.T) {
	err := New("error")
	withHint := WithHint(err, "try this fix")

	hints := GetAllHints(withHint)
	require.Len(t, hints, 1)
	assert.Equal(t, "try this fix", hints[0])
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithStack(nil))
	assert.Nil(t, WithHint(nil, "hint"))
}

func ExampleWrap() {
	baseErr := New("disk full")
	err := Wrap(baseErr, "failed to write person_builder_gen.go")
	fmt.Println(err)
	// Output: failed to write person_builder_gen.go: disk full
}
