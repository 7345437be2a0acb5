package codemodel

import (
	"go/token"
	"go/types"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dave/jennifer/jen"
)

// NaiveType turns a type expression written as text into jen code.
// Package-qualified names use the full import path:
//
//	NaiveType("[]*example.com/shapes.Point")
//	NaiveType("map[string]example.com/x.Set[int]")
//
// Anything that cannot be parsed is emitted verbatim as an identifier, so
// type parameters and names of not-yet-generated types still work.
func NaiveType(name string) jen.Code {
	name = strings.TrimSpace(name)
	if code, ok := naive(name); ok {
		return code
	}
	return jen.Id(name)
}

func naive(s string) (*jen.Statement, bool) {
	switch {
	case s == "":
		return nil, false
	case strings.HasPrefix(s, "*"):
		return wrap(jen.Op("*"), s[1:])
	case strings.HasPrefix(s, "[]"):
		return wrap(jen.Index(), s[2:])
	case strings.HasPrefix(s, "chan "):
		return wrap(jen.Chan(), s[len("chan "):])
	case strings.HasPrefix(s, "map["):
		end := matching(s, len("map"))
		if end < 0 {
			return nil, false
		}
		key, ok := naive(s[len("map["):end])
		if !ok {
			return nil, false
		}
		return wrap(jen.Map(key), s[end+1:])
	case strings.HasPrefix(s, "["):
		end := matching(s, 0)
		if end < 0 {
			return nil, false
		}
		return wrap(jen.Index(jen.Id(strings.TrimSpace(s[1:end]))), s[end+1:])
	}

	base, args := s, ""
	if i := strings.IndexByte(s, '['); i > 0 {
		end := matching(s, i)
		if end != len(s)-1 {
			return nil, false
		}
		base, args = s[:i], s[i+1:end]
	}
	stmt, ok := named(base)
	if !ok {
		return nil, false
	}
	if args != "" {
		var codes []jen.Code
		for _, a := range splitTop(args) {
			c, ok := naive(strings.TrimSpace(a))
			if !ok {
				return nil, false
			}
			codes = append(codes, c)
		}
		stmt = stmt.Types(codes...)
	}
	return stmt, true
}

func wrap(prefix *jen.Statement, rest string) (*jen.Statement, bool) {
	inner, ok := naive(strings.TrimSpace(rest))
	if !ok {
		return nil, false
	}
	return prefix.Add(inner), true
}

// named handles "ident" and "import/path.Ident".
func named(s string) (*jen.Statement, bool) {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		if !token.IsIdentifier(s) {
			return nil, false
		}
		return jen.Id(s), true
	}
	path, ident := s[:dot], s[dot+1:]
	if path == "" || !token.IsIdentifier(ident) || strings.ContainsAny(path, " []*") {
		return nil, false
	}
	return jen.Qual(path, ident), true
}

// matching returns the index of the bracket closing the one at open.
func matching(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTop(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// TypeOf converts a type from the loaded program into jen code. Named types
// become qualified references so the generated file imports their package.
func TypeOf(t types.Type) jen.Code {
	switch t := t.(type) {
	case *types.Basic:
		return jen.Id(t.Name())
	case *types.Pointer:
		return jen.Op("*").Add(TypeOf(t.Elem()))
	case *types.Slice:
		return jen.Index().Add(TypeOf(t.Elem()))
	case *types.Array:
		return jen.Index(jen.Lit(int(t.Len()))).Add(TypeOf(t.Elem()))
	case *types.Map:
		return jen.Map(TypeOf(t.Key())).Add(TypeOf(t.Elem()))
	case *types.Chan:
		switch t.Dir() {
		case types.SendOnly:
			return jen.Chan().Op("<-").Add(TypeOf(t.Elem()))
		case types.RecvOnly:
			return jen.Op("<-").Chan().Add(TypeOf(t.Elem()))
		}
		return jen.Chan().Add(TypeOf(t.Elem()))
	case *types.TypeParam:
		return jen.Id(t.Obj().Name())
	case *types.Alias:
		return qualified(t.Obj(), t.TypeArgs())
	case *types.Named:
		return qualified(t.Obj(), t.TypeArgs())
	case *types.Interface:
		if t.Empty() {
			return jen.Id("any")
		}
		if u, ok := union(t); ok {
			return u
		}
	}
	return jen.Id(types.TypeString(t, func(p *types.Package) string { return p.Name() }))
}

func qualified(obj *types.TypeName, targs *types.TypeList) jen.Code {
	var stmt *jen.Statement
	if obj.Pkg() == nil {
		stmt = jen.Id(obj.Name())
	} else {
		stmt = jen.Qual(obj.Pkg().Path(), obj.Name())
	}
	if targs != nil && targs.Len() > 0 {
		codes := make([]jen.Code, targs.Len())
		for i := 0; i < targs.Len(); i++ {
			codes[i] = TypeOf(targs.At(i))
		}
		stmt = stmt.Types(codes...)
	}
	return stmt
}

// union renders implicit constraint interfaces such as ~int | ~string.
func union(t *types.Interface) (jen.Code, bool) {
	if !t.IsImplicit() || t.NumEmbeddeds() != 1 {
		return nil, false
	}
	u, ok := t.EmbeddedType(0).(*types.Union)
	if !ok {
		return nil, false
	}
	terms := make([]jen.Code, u.Len())
	for i := 0; i < u.Len(); i++ {
		term := u.Term(i)
		if term.Tilde() {
			terms[i] = jen.Op("~").Add(TypeOf(term.Type()))
		} else {
			terms[i] = TypeOf(term.Type())
		}
	}
	return jen.Union(terms...), true
}

// TypeParams copies generic parameters with their constraints, ready for
// jen's Types: jen.Type().Id("B").Types(TypeParams(list)...).
func TypeParams(list *types.TypeParamList) []jen.Code {
	if list == nil {
		return nil
	}
	codes := make([]jen.Code, list.Len())
	for i := 0; i < list.Len(); i++ {
		tp := list.At(i)
		codes[i] = jen.Id(tp.Obj().Name()).Add(TypeOf(tp.Constraint()))
	}
	return codes
}

// TypeArgs is the instantiation list matching TypeParams: [T, U].
func TypeArgs(list *types.TypeParamList) []jen.Code {
	if list == nil {
		return nil
	}
	codes := make([]jen.Code, list.Len())
	for i := 0; i < list.Len(); i++ {
		codes[i] = jen.Id(list.At(i).Obj().Name())
	}
	return codes
}

// Exported returns name with its first letter upper-cased.
func Exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// Unexported lower-cases the leading capital run of name, keeping the last
// capital when it starts the next word: URLParser becomes urlParser.
func Unexported(name string) string {
	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	out := string(runes)
	if token.IsKeyword(out) {
		out += "_"
	}
	return out
}
