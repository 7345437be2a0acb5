package model

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/teranos/annogen/errors"
)

// Marker names an annotation type, the word after the directive prefix.
type Marker string

// Annotation is one marker instance on one declaration.
type Annotation struct {
	Marker Marker
	// Values are the attributes in source order.
	Values []*Value
	Pos    token.Position
	// Text is the directive as written, without the leading "//".
	Text string

	element Element
}

// Element returns the annotated declaration.
func (a *Annotation) Element() Element { return a.element }

// Value returns the attribute named name.
func (a *Annotation) Value(name string) (*Value, bool) {
	for _, v := range a.Values {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// StringValue returns the named attribute or def when absent.
func (a *Annotation) StringValue(name, def string) string {
	if v, ok := a.Value(name); ok {
		return v.String()
	}
	return def
}

func (a *Annotation) String() string {
	if len(a.Values) == 0 {
		return "@" + string(a.Marker)
	}
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = v.String()
	}
	return "@" + string(a.Marker) + "(" + strings.Join(parts, ", ") + ")"
}

// Value is one attribute of an annotation.
type Value struct {
	Name string
	Raw  string
	Pos  token.Position

	annotation *Annotation
}

// NewValue creates an attribute value; Annotate links it to its annotation.
func NewValue(name, raw string, pos token.Position) *Value {
	return &Value{Name: name, Raw: raw, Pos: pos}
}

// Annotation returns the owning annotation.
func (v *Value) Annotation() *Annotation { return v.annotation }

func (v *Value) String() string { return v.Name + "=" + v.Raw }

// Bool parses the value as a boolean. A bare attribute ("omitempty") is true.
func (v *Value) Bool() (bool, error) {
	b, err := strconv.ParseBool(v.Raw)
	if err != nil {
		return false, errors.Wrapf(errors.ErrInvalidArgument, "attribute %s: %q is not a boolean", v.Name, v.Raw)
	}
	return b, nil
}

// Int parses the value as a base-10 integer.
func (v *Value) Int() (int, error) {
	i, err := strconv.Atoi(v.Raw)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidArgument, "attribute %s: %q is not an integer", v.Name, v.Raw)
	}
	return i, nil
}

// List splits a comma separated value. Surrounding brackets are optional:
// "a,b" and "[a, b]" both yield [a b].
func (v *Value) List() []string {
	raw := strings.TrimSpace(v.Raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
