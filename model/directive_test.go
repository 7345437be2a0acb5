package model

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/annogen/errors"
)

func TestParse(t *testing.T) {
	pos := token.Position{Filename: "a.go", Line: 3, Column: 1}

	t.Run("marker only", func(t *testing.T) {
		d, ok, err := Parse(DefaultPrefix, "//annogen:builder", pos)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Marker("builder"), d.Marker)
		assert.Empty(t, d.Values)
		assert.Equal(t, "annogen:builder", d.Text)
	})

	t.Run("attributes with quoting", func(t *testing.T) {
		d, ok, err := Parse(DefaultPrefix, `//annogen:builder name=PersonBuilder "doc=Builds a person" validate`, pos)
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, d.Values, 3)
		assert.Equal(t, "name", d.Values[0].Name)
		assert.Equal(t, "PersonBuilder", d.Values[0].Raw)
		assert.Equal(t, "Builds a person", d.Values[1].Raw)
		assert.Equal(t, "true", d.Values[2].Raw)
		assert.Greater(t, d.Values[0].Pos.Column, pos.Column)
	})

	t.Run("not a directive", func(t *testing.T) {
		_, ok, err := Parse(DefaultPrefix, "// just a comment", pos)
		assert.NoError(t, err)
		assert.False(t, ok)

		_, ok, _ = Parse(DefaultPrefix, "// annogen:builder", pos)
		assert.False(t, ok, "a space after the slashes is prose, not a directive")
	})

	t.Run("custom prefix", func(t *testing.T) {
		d, ok, err := Parse("gen:", "//gen:enum", pos)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Marker("enum"), d.Marker)
	})

	for name, line := range map[string]string{
		"unterminated quote": `//annogen:builder "name=x`,
		"missing marker":     `//annogen:`,
		"duplicate":          `//annogen:builder name=a name=b`,
		"empty name":         `//annogen:builder =x`,
		"marker with value":  `//annogen:a=b`,
	} {
		t.Run(name, func(t *testing.T) {
			_, ok, err := Parse(DefaultPrefix, line, pos)
			assert.True(t, ok)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidArgument(err))
		})
	}
}

func TestValueAccessors(t *testing.T) {
	v := NewValue("n", "42", token.Position{})
	n, err := v.Int()
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = NewValue("b", "maybe", token.Position{}).Bool()
	assert.True(t, errors.IsInvalidArgument(err))

	b, err := NewValue("b", "true", token.Position{}).Bool()
	require.NoError(t, err)
	assert.True(t, b)

	assert.Equal(t, []string{"a", "b"}, NewValue("l", "[a, b]", token.Position{}).List())
	assert.Equal(t, []string{"x"}, NewValue("l", "x,", token.Position{}).List())
	assert.Nil(t, NewValue("l", "[]", token.Position{}).List())
}

func TestAnnotate(t *testing.T) {
	d := NewDecl("Person", KindStruct, "example.com/p", token.Position{})
	v := NewValue("name", "PersonBuilder", token.Position{})
	a := d.Annotate("builder", token.Position{}, v)

	assert.Same(t, a, v.Annotation())
	assert.Equal(t, d, a.Element())
	assert.Equal(t, "PersonBuilder", a.StringValue("name", ""))
	assert.Equal(t, "fallback", a.StringValue("missing", "fallback"))
	assert.Equal(t, "@builder(name=PersonBuilder)", a.String())
	assert.True(t, d.Modifiers().Has(ModExported))
	assert.Equal(t, "example.com/p.Person", QualifiedName(d))

	field := NewDecl("age", KindField, "example.com/p", token.Position{})
	d.AddMember(field)
	assert.Equal(t, d, field.Enclosing())
	assert.Equal(t, "example.com/p.Person.age", QualifiedName(field))
	assert.False(t, field.Modifiers().Has(ModExported))
}

func TestIsNil(t *testing.T) {
	var d *Decl
	var e Element = d
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(e))
	assert.False(t, IsNil(NewDecl("X", KindStruct, "", token.Position{})))
	assert.Equal(t, "", QualifiedName(e))
}
