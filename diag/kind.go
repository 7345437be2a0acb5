// Package diag attributes diagnostics to the declaration, annotation or
// attribute value currently being processed.
//
// The current Target travels in a context.Context. A unit of work derives a
// context with Push and hands it to the code it runs; returning to the
// caller's context restores the previous target, on every exit path:
//
//	ctx, _ = diag.Push(ctx, diag.Target{Element: e, Annotation: a})
//	r.Errorf(ctx, "unsupported type %s", typ) // attributed to e and a
package diag

import (
	"strings"

	"github.com/teranos/annogen/errors"
)

// Kind is the severity of a diagnostic, ordered so that Error is highest.
type Kind int

const (
	Other Kind = iota
	Note
	Warning
	Error
)

var kindNames = []string{"other", "note", "warning", "error"}

func (k Kind) String() string {
	if k < Other || k > Error {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind parses a kind name case-insensitively ("ERROR", "warning", ...).
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return Other, errors.NewInvalidArgumentError("unknown diagnostic kind %q", s)
}
