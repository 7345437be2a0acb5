package router

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/annogen/codemodel"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/model"
)

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "example.com/shapes.point_builder", QualifiedName("example.com/shapes", "point_builder.go"))
	assert.Equal(t, "p.a", QualifiedName("p", "a"))
}

func TestSplitQualifiedName(t *testing.T) {
	tests := []struct {
		qn, pkg, base string
	}{
		{"example.com/shapes.point_builder", "example.com/shapes", "point_builder"},
		{"example.com/a/b.x.pb", "example.com/a/b", "x.pb"},
		{"example.com.gen", "example.com", "gen"},
		{"p.a", "p", "a"},
	}
	for _, tt := range tests {
		pkg, base, err := SplitQualifiedName(tt.qn)
		require.NoError(t, err, tt.qn)
		assert.Equal(t, tt.pkg, pkg)
		assert.Equal(t, tt.base, base)
	}
	for _, bad := range []string{"", "nodot", ".a", "a.", "example.com/x"} {
		_, _, err := SplitQualifiedName(bad)
		assert.True(t, errors.IsInvalidArgument(err), bad)
	}
}

func TestLineSeparator(t *testing.T) {
	sep, err := LineSeparator("crlf")
	require.NoError(t, err)
	assert.Equal(t, "\r\n", sep)
	sep, err = LineSeparator("LF")
	require.NoError(t, err)
	assert.Equal(t, "\n", sep)
	sep, err = LineSeparator("native")
	require.NoError(t, err)
	assert.Equal(t, NativeLineSeparator(), sep)
	_, err = LineSeparator("cr")
	assert.True(t, errors.IsInvalidArgument(err))
}

func sample() *codemodel.Model {
	m := codemodel.New()
	m.File("example.com/shapes", "shapes", "point_builder.go").Add(jen.Var().Id("Name").Op("=").Lit("café"))
	m.File("example.com/shapes", "shapes", "color_enum.go").Add(jen.Var().Id("N").Int())
	return m
}

func TestRouterEmits(t *testing.T) {
	filer := NewMemFiler()
	justifying := []model.Marker{"builder", "enum"}
	r, err := New(filer, justifying, WithLineSeparator("\n"))
	require.NoError(t, err)
	require.NoError(t, sample().Build(r))

	files := filer.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "example.com/shapes.color_enum", files[0].QualifiedName)
	assert.Equal(t, "example.com/shapes.point_builder", files[1].QualifiedName)
	for _, f := range files {
		assert.Equal(t, justifying, f.Markers)
		content := string(f.Content)
		assert.True(t, strings.HasPrefix(content, "// Code generated by annogen. DO NOT EDIT.\n\npackage shapes\n"), content)
		assert.Equal(t, 1, strings.Count(content, "Code generated"), "prolog is written once")
	}
	assert.Contains(t, string(files[1].Content), `"café"`)
	assert.NoError(t, r.Close())
	assert.Equal(t, justifying, r.Justifying())
}

func TestRouterLineSeparator(t *testing.T) {
	filer := NewMemFiler()
	r, err := New(filer, nil, WithLineSeparator("\r\n"), WithProlog("generated"))
	require.NoError(t, err)
	require.NoError(t, sample().Build(r))

	content := string(filer.Files()[0].Content)
	assert.True(t, strings.HasPrefix(content, "// generated\r\n\r\npackage shapes\r\n"))
	assert.NotContains(t, strings.ReplaceAll(content, "\r\n", ""), "\n")
}

func TestRouterEncoding(t *testing.T) {
	filer := NewMemFiler()
	r, err := New(filer, nil, WithEncoding("windows-1252"), WithLineSeparator("\n"))
	require.NoError(t, err)
	require.NoError(t, sample().Build(r))

	f, ok := filer.Get("example.com/shapes.point_builder")
	require.True(t, ok)
	assert.True(t, bytes.Contains(f.Content, []byte("caf\xe9")), "é is a single byte in windows-1252")

	_, err = New(filer, nil, WithEncoding("klingon"))
	assert.True(t, errors.IsInvalidArgument(err))
	_, err = New(filer, nil, WithLineSeparator("\r"))
	assert.True(t, errors.IsInvalidArgument(err))
	_, err = New(nil, nil)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestRouterUnencodable(t *testing.T) {
	filer := NewMemFiler()
	r, err := New(filer, nil, WithEncoding("us-ascii"), WithLineSeparator("\n"))
	require.NoError(t, err)

	m := codemodel.New()
	m.File("p", "p", "a.go").Add(jen.Var().Id("S").Op("=").Lit("日本"))
	require.Error(t, m.Build(r))
	assert.Equal(t, 0, filer.Len(), "partially encoded output is discarded")
}

type failingFiler struct{ calls int }

func (f *failingFiler) Create(string, []model.Marker) (io.WriteCloser, error) {
	f.calls++
	return nil, errors.New("no space left")
}

func TestRouterFilerFailure(t *testing.T) {
	filer := &failingFiler{}
	r, err := New(filer, nil)
	require.NoError(t, err)
	err = sample().Build(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "example.com/shapes.color_enum")
	assert.Contains(t, err.Error(), "no space left")
	assert.Equal(t, 1, filer.calls)
}

func TestMemFilerDuplicate(t *testing.T) {
	filer := NewMemFiler()
	w, err := filer.Create("p.a", nil)
	require.NoError(t, err)
	_, err = filer.Create("p.a", nil)
	assert.True(t, errors.Is(err, errors.ErrDuplicateOutput))

	assert.Equal(t, 0, filer.Len(), "not committed until closed")
	_, _ = w.Write([]byte("x"))
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("y"))
	assert.Error(t, err)
	assert.Equal(t, 1, filer.Len())
}

func TestDefaultProlog(t *testing.T) {
	assert.Equal(t, "Code generated by annogen (builder). DO NOT EDIT.", DefaultProlog("builder"))
}

func TestRouterHeader(t *testing.T) {
	filer := NewMemFiler()
	r, err := New(filer, nil, WithLineSeparator("\n"), WithProlog(DefaultProlog("enum")),
		WithHeader("Copyright 2026 Example Authors\n"))
	require.NoError(t, err)
	require.NoError(t, sample().Build(r))

	content := string(filer.Files()[0].Content)
	assert.True(t, strings.HasPrefix(content,
		"// Code generated by annogen (enum). DO NOT EDIT.\n//\n// Copyright 2026 Example Authors\n\npackage shapes\n"), content)
}

func TestValidateEncoding(t *testing.T) {
	assert.NoError(t, ValidateEncoding("utf-8"))
	assert.NoError(t, ValidateEncoding("latin1"))
	assert.True(t, errors.IsInvalidArgument(ValidateEncoding("klingon")))
}
