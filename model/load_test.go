package model

import (
	"context"
	"go/token"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadShapes(t *testing.T) (*Program, string) {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("testdata", "shapes"))
	require.NoError(t, err)
	p, err := Load(context.Background(), LoadConfig{Dir: dir}, "./...")
	require.NoError(t, err)
	return p, dir
}

func names(elements []Element) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.Name()
	}
	return out
}

func TestLoad(t *testing.T) {
	p, dir := loadShapes(t)
	env := p.Env(1)

	assert.Equal(t, "example.com/shapes", p.ModulePath)
	assert.Empty(t, p.PackageErrors)
	assert.Equal(t, []Marker{"builder", "enum", "trace"}, env.Markers())
	assert.Equal(t, []string{"Point", "cache", "Box"}, names(env.ElementsAnnotatedWith("builder")))
	assert.Equal(t, []string{"Color", "Size"}, names(env.ElementsAnnotatedWith("enum")))
	assert.Equal(t, []string{"Point", "Color", "Red", "Green", "Box", "Broken", "Size", "Shape"}, names(env.RootElements()))
	assert.False(t, env.ProcessingOver())
	assert.Equal(t, 1, env.Round())

	t.Run("malformed directive is skipped", func(t *testing.T) {
		require.Len(t, p.DirectiveErrors, 1)
		de := p.DirectiveErrors[0]
		assert.Equal(t, "Broken", de.Element.Name())
		assert.Contains(t, de.Error(), "malformed directive")
	})

	t.Run("struct members", func(t *testing.T) {
		point := env.ElementsAnnotatedWith("builder")[0]
		assert.Equal(t, KindStruct, point.Kind())
		assert.NotNil(t, point.Object())
		a := point.Annotations()[0]
		assert.Equal(t, "PointBuilder", a.StringValue("name", ""))
		assert.Equal(t, 5, a.Pos.Line)

		st, ok := StructType(point)
		require.True(t, ok)
		assert.Equal(t, 3, st.NumFields())

		cache := env.ElementsAnnotatedWith("builder")[1]
		assert.Equal(t, KindField, cache.Kind())
		assert.Equal(t, point, cache.Enclosing())
		assert.False(t, cache.Modifiers().Has(ModExported))

		members := point.(*Decl).Members()
		assert.Equal(t, []string{"X", "Y", "cache", "Area"}, names(toElements(members)))
	})

	t.Run("methods", func(t *testing.T) {
		area := env.ElementsAnnotatedWith("trace")[0]
		assert.Equal(t, KindMethod, area.Kind())
		assert.True(t, area.Modifiers().Has(ModPointerReceiver))
		assert.Equal(t, "example.com/shapes.Point.Area", QualifiedName(area))
	})

	t.Run("generics", func(t *testing.T) {
		box := env.ElementsAnnotatedWith("builder")[2]
		assert.True(t, box.Modifiers().Has(ModGeneric))
		require.NotNil(t, TypeParams(box))
		assert.Equal(t, 1, TypeParams(box).Len())
		assert.Equal(t, []string{"Box"}, names(FilterByModifier(env.RootElements(), ModGeneric)))
	})

	t.Run("kinds", func(t *testing.T) {
		enums := env.ElementsAnnotatedWith("enum")
		assert.Equal(t, KindNamedType, enums[0].Kind())
		roots := env.RootElements()
		assert.Equal(t, KindConst, roots[2].Kind())
		assert.Equal(t, KindInterface, roots[7].Kind())
		assert.Empty(t, roots[7].Annotations(), "group doc is absent, spec doc is absent")
	})

	t.Run("package dirs", func(t *testing.T) {
		got, ok := p.PackageDir("example.com/shapes")
		require.True(t, ok)
		assert.Equal(t, dir, got)

		got, ok = p.PackageDir("example.com/shapes/gen")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "gen"), got)

		_, ok = p.PackageDir("example.com/other")
		assert.False(t, ok)

		name, ok := p.PackageName("example.com/shapes")
		require.True(t, ok)
		assert.Equal(t, "shapes", name)
	})
}

func TestEnv(t *testing.T) {
	a := NewDecl("A", KindStruct, "p", token0)
	a.Annotate("x", token0)
	b := NewDecl("B", KindStruct, "p", token0)
	f := NewDecl("F", KindField, "p", token0)
	f.Annotate("x", token0)
	f.Annotate("y", token0)
	b.AddMember(f)

	raised := false
	env := NewEnv(2, []Element{a, b}).WithErrorRaised(func() bool { return raised })
	assert.Equal(t, []string{"A", "F"}, names(env.ElementsAnnotatedWith("x")))
	assert.Len(t, Annotations(env, "x"), 2)
	assert.Equal(t, []Marker{"x", "y"}, env.Markers())
	assert.False(t, env.ErrorRaised())
	raised = true
	assert.True(t, env.ErrorRaised())

	env.Over()
	assert.True(t, env.ProcessingOver())
	assert.Empty(t, env.RootElements())
	assert.Empty(t, env.Markers())
}

func toElements(decls []*Decl) []Element {
	out := make([]Element, len(decls))
	for i, d := range decls {
		out[i] = d
	}
	return out
}

var token0 = token.Position{}
