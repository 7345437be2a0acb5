package diag

import (
	"context"
	"go/token"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/model"
)

// Target is what a diagnostic is attributed to. The zero Target means
// "none": diagnostics reported under it are unattributed.
type Target struct {
	Element    model.Element
	Annotation *model.Annotation
	Value      *model.Value
}

// IsZero reports whether no part of the target is set.
func (t Target) IsZero() bool {
	return model.IsNil(t.Element) && t.Annotation == nil && t.Value == nil
}

// Validate checks the construction rules: an Element is required and a
// Value needs its Annotation.
func (t Target) Validate() error {
	if model.IsNil(t.Element) {
		return errors.NewInvalidArgumentError("diagnostic target requires an element")
	}
	if t.Value != nil && t.Annotation == nil {
		return errors.NewInvalidArgumentError("value %q supplied without its annotation", t.Value.Name)
	}
	return nil
}

// Pos is the most specific known source position of the target.
func (t Target) Pos() token.Position {
	switch {
	case t.Value != nil && t.Value.Pos.IsValid():
		return t.Value.Pos
	case t.Annotation != nil && t.Annotation.Pos.IsValid():
		return t.Annotation.Pos
	case !model.IsNil(t.Element):
		return t.Element.Pos()
	}
	return token.Position{}
}

func (t Target) String() string {
	if model.IsNil(t.Element) {
		return "<none>"
	}
	s := model.QualifiedName(t.Element)
	if t.Annotation != nil {
		s += " @" + string(t.Annotation.Marker)
	}
	if t.Value != nil {
		s += " " + t.Value.Name
	}
	return s
}

type targetKey struct{}

// Push derives a context whose current target is t. It returns the target
// that was current in ctx, the zero Target if there was none.
func Push(ctx context.Context, t Target) (context.Context, Target) {
	prev := Current(ctx)
	return context.WithValue(ctx, targetKey{}, t), prev
}

// Current returns the target installed in ctx.
func Current(ctx context.Context) Target {
	if ctx == nil {
		return Target{}
	}
	t, _ := ctx.Value(targetKey{}).(Target)
	return t
}
