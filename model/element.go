// Package model is the read-only view of a Go program that processors inspect.
//
// Declarations are loaded with golang.org/x/tools/go/packages and exposed as
// Elements. Marker annotations are comment directives placed in a
// declaration's doc comment:
//
//	//annogen:builder name=PersonBuilder "doc=Builds a person"
//	type Person struct { ... }
//
// Nothing in this package mutates the loaded program; a Program is discarded
// and reloaded between rounds.
package model

import (
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
)

// Kind classifies an Element.
type Kind int

const (
	KindInvalid Kind = iota
	KindStruct
	KindInterface
	KindNamedType // named non-struct, non-interface type (type Color string)
	KindFunc
	KindMethod
	KindField
	KindConst
	KindVar
)

var kindNames = map[Kind]string{
	KindInvalid:   "invalid",
	KindStruct:    "struct",
	KindInterface: "interface",
	KindNamedType: "type",
	KindFunc:      "func",
	KindMethod:    "method",
	KindField:     "field",
	KindConst:     "const",
	KindVar:       "var",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsType reports whether the kind declares a named type.
func (k Kind) IsType() bool {
	return k == KindStruct || k == KindInterface || k == KindNamedType
}

// Element is an opaque reference to one declaration in the host program.
type Element interface {
	// Name is the declared identifier (field name, method name, ...).
	Name() string
	Kind() Kind
	// PkgPath is the import path of the declaring package.
	PkgPath() string
	Pos() token.Position
	// Object is the type-checker object, nil when type information is unavailable.
	Object() types.Object
	// Node is the syntax node (*ast.TypeSpec, *ast.FuncDecl, *ast.Field, *ast.ValueSpec).
	Node() ast.Node
	Annotations() []*Annotation
	// Enclosing is the owning type for fields and methods, nil otherwise.
	Enclosing() Element
	Modifiers() Modifier
}

// Decl is the Element implementation produced by Load.
type Decl struct {
	name        string
	kind        Kind
	pkgPath     string
	pos         token.Position
	obj         types.Object
	node        ast.Node
	annotations []*Annotation
	enclosing   Element
	mods        Modifier
	members     []*Decl
}

// NewDecl builds a declaration by hand. Load is the usual source; NewDecl
// exists for hosts that model declarations some other way and for tests.
func NewDecl(name string, kind Kind, pkgPath string, pos token.Position) *Decl {
	d := &Decl{name: name, kind: kind, pkgPath: pkgPath, pos: pos}
	if token.IsExported(name) {
		d.mods |= ModExported
	}
	return d
}

func (d *Decl) Name() string               { return d.name }
func (d *Decl) Kind() Kind                 { return d.kind }
func (d *Decl) PkgPath() string            { return d.pkgPath }
func (d *Decl) Pos() token.Position        { return d.pos }
func (d *Decl) Object() types.Object       { return d.obj }
func (d *Decl) Node() ast.Node             { return d.node }
func (d *Decl) Annotations() []*Annotation { return d.annotations }
func (d *Decl) Enclosing() Element {
	if d.enclosing == nil {
		return nil
	}
	return d.enclosing
}
func (d *Decl) Modifiers() Modifier { return d.mods }

// Members returns the fields (for structs) and methods declared on a type.
func (d *Decl) Members() []*Decl { return d.members }

// Annotate attaches a new annotation for marker m and returns it.
func (d *Decl) Annotate(m Marker, pos token.Position, values ...*Value) *Annotation {
	a := &Annotation{Marker: m, Pos: pos, element: d}
	for _, v := range values {
		v.annotation = a
		a.Values = append(a.Values, v)
	}
	d.annotations = append(d.annotations, a)
	return a
}

// WithObject sets the type-checker object; used by Load and by tests.
func (d *Decl) WithObject(obj types.Object) *Decl {
	d.obj = obj
	return d
}

// WithModifiers adds modifier bits.
func (d *Decl) WithModifiers(m Modifier) *Decl {
	d.mods |= m
	return d
}

// AddMember records a field or method and sets its enclosing type.
func (d *Decl) AddMember(m *Decl) {
	m.enclosing = d
	d.members = append(d.members, m)
}

func (d *Decl) String() string {
	if d.enclosing != nil {
		return d.enclosing.Name() + "." + d.name
	}
	return d.name
}

// QualifiedName returns pkgPath.Name (or pkgPath.Type.Member).
func QualifiedName(e Element) string {
	if IsNil(e) {
		return ""
	}
	name := e.Name()
	if enc := e.Enclosing(); !IsNil(enc) {
		name = enc.Name() + "." + name
	}
	if e.PkgPath() == "" {
		return name
	}
	return e.PkgPath() + "." + name
}

// IsNil reports whether v is nil or an interface holding a typed nil pointer.
func IsNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}
