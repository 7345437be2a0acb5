package model

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/annogen/errors"
)

// DefaultPrefix introduces annogen directives: //annogen:<marker> k=v ...
const DefaultPrefix = "annogen:"

// Directive is a parsed directive not yet attached to a declaration.
type Directive struct {
	Marker Marker
	Values []*Value
	Text   string
	Pos    token.Position
}

// IsDirective reports whether a comment line is an annogen directive.
func IsDirective(prefix, comment string) bool {
	return strings.HasPrefix(comment, "//"+prefix)
}

// Parse parses one comment line such as
//
//	//annogen:builder name=PersonBuilder "doc=Builds a person" validate
//
// Attributes are split with shell quoting rules. A bare word is a boolean
// attribute set to "true". ok is false when the line is not a directive.
func Parse(prefix, comment string, pos token.Position) (d *Directive, ok bool, err error) {
	if !IsDirective(prefix, comment) {
		return nil, false, nil
	}
	text := strings.TrimPrefix(comment, "//")
	body := strings.TrimPrefix(text, prefix)

	words, err := shellquote.Split(body)
	if err != nil {
		return nil, true, errors.Wrapf(errors.ErrInvalidArgument, "malformed directive %q: %v", text, err)
	}
	if len(words) == 0 || words[0] == "" {
		return nil, true, errors.Wrapf(errors.ErrInvalidArgument, "directive %q has no marker", text)
	}
	marker := words[0]
	if strings.ContainsAny(marker, "=\"'") {
		return nil, true, errors.Wrapf(errors.ErrInvalidArgument, "directive %q: invalid marker %q", text, marker)
	}

	d = &Directive{Marker: Marker(marker), Text: text, Pos: pos}
	seen := make(map[string]bool)
	for _, w := range words[1:] {
		name, raw, hasValue := strings.Cut(w, "=")
		if name == "" {
			return nil, true, errors.Wrapf(errors.ErrInvalidArgument, "directive %q: attribute %q has no name", text, w)
		}
		if !hasValue {
			raw = "true"
		}
		if seen[name] {
			return nil, true, errors.Wrapf(errors.ErrInvalidArgument, "directive %q: duplicate attribute %q", text, name)
		}
		seen[name] = true
		d.Values = append(d.Values, NewValue(name, raw, valuePos(pos, comment, name)))
	}
	return d, true, nil
}

// valuePos points at the attribute inside the comment line.
func valuePos(pos token.Position, comment, name string) token.Position {
	if i := strings.Index(comment, " "+name); i >= 0 && pos.IsValid() {
		pos.Column += i + 1
		pos.Offset += i + 1
	}
	return pos
}

// DirectiveError is a directive that could not be parsed. The loader skips
// the directive and hosts report the error as a warning on Element.
type DirectiveError struct {
	Element Element
	Pos     token.Position
	Err     error
}

func (e *DirectiveError) Error() string { return e.Pos.String() + ": " + e.Err.Error() }

func (e *DirectiveError) Unwrap() error { return e.Err }

// annotateFromDoc parses every directive in doc and attaches it to d.
func annotateFromDoc(fset *token.FileSet, prefix string, doc *ast.CommentGroup, d *Decl) []*DirectiveError {
	if doc == nil {
		return nil
	}
	var errs []*DirectiveError
	for _, c := range doc.List {
		pos := fset.Position(c.Slash)
		dir, ok, err := Parse(prefix, c.Text, pos)
		if !ok {
			continue
		}
		if err != nil {
			errs = append(errs, &DirectiveError{Element: d, Pos: pos, Err: err})
			continue
		}
		a := d.Annotate(dir.Marker, dir.Pos, dir.Values...)
		a.Text = dir.Text
	}
	return errs
}
