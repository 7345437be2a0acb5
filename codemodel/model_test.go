package codemodel

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/annogen/errors"
)

// memWriter records every opened file.
type memWriter struct {
	files   map[string]*bytes.Buffer
	opened  []string
	closed  int
	failOn  string
	closeFn func() error
}

func newMemWriter() *memWriter { return &memWriter{files: make(map[string]*bytes.Buffer)} }

type nopCloser struct {
	io.Writer
	w *memWriter
}

func (n nopCloser) Close() error {
	n.w.closed++
	return nil
}

func (m *memWriter) Open(pkg Package, fileName string) (io.WriteCloser, error) {
	key := pkg.Path + "/" + fileName
	m.opened = append(m.opened, key)
	if key == m.failOn {
		return nil, errors.New("allocator refused")
	}
	buf := &bytes.Buffer{}
	m.files[key] = buf
	return nopCloser{Writer: buf, w: m}, nil
}

func (m *memWriter) Close() error {
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

func TestModelFile(t *testing.T) {
	m := New()
	a := m.File("example.com/shapes", "", "point_builder")
	b := m.File("example.com/shapes", "shapes", "point_builder.go")
	assert.Same(t, a, b)
	assert.Equal(t, "point_builder.go", a.Name())
	assert.Equal(t, Package{Path: "example.com/shapes", Name: "shapes"}, a.Package())

	m.File("example.com/a", "a", "z.go")
	m.File("example.com/shapes", "shapes", "color_enum.go")
	var got []string
	for _, f := range m.Files() {
		got = append(got, f.Package().Path+"/"+f.Name())
	}
	assert.Equal(t, []string{
		"example.com/a/z.go",
		"example.com/shapes/color_enum.go",
		"example.com/shapes/point_builder.go",
	}, got)
	assert.Equal(t, 3, m.Len())
}

func TestModelBuild(t *testing.T) {
	m := New()
	m.File("example.com/shapes", "shapes", "a.go").Add(
		jen.Func().Id("A").Params().Qual("fmt", "Stringer").Block(jen.Return(jen.Nil())),
	)
	m.File("example.com/shapes", "shapes", "b.go").Add(jen.Var().Id("B").Int())

	w := newMemWriter()
	require.NoError(t, m.Build(w))
	assert.Equal(t, []string{"example.com/shapes/a.go", "example.com/shapes/b.go"}, w.opened)
	assert.Equal(t, 2, w.closed)

	a := w.files["example.com/shapes/a.go"].String()
	assert.Contains(t, a, "package shapes")
	assert.Contains(t, a, `import "fmt"`)
	assert.Contains(t, a, "func A() fmt.Stringer")
}

func TestModelBuildEmpty(t *testing.T) {
	w := newMemWriter()
	require.NoError(t, New().Build(w))
	assert.Empty(t, w.opened)
}

func TestModelBuildOpenFailure(t *testing.T) {
	m := New()
	m.File("p", "p", "a.go").Add(jen.Var().Id("A").Int())
	m.File("p", "p", "b.go").Add(jen.Var().Id("B").Int())
	m.File("p", "p", "c.go").Add(jen.Var().Id("C").Int())

	w := newMemWriter()
	w.failOn = "p/b.go"
	err := m.Build(w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p/b.go")
	assert.Contains(t, err.Error(), "allocator refused")
	assert.Equal(t, []string{"p/a.go", "p/b.go"}, w.opened, "build stops at the first failure")
}

func TestModelBuildRenderFailure(t *testing.T) {
	m := New()
	m.File("p", "p", "bad.go").Add(jen.Id("func {"))
	w := newMemWriter()
	require.Error(t, m.Build(w))
	assert.Equal(t, 1, w.closed, "sink is closed even when rendering fails")
}

func TestModelBuildCloseFailure(t *testing.T) {
	w := newMemWriter()
	w.closeFn = func() error { return errors.New("flush failed") }
	err := New().Build(w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush failed")
}

func TestFileConcurrentAdd(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.File("p", "p", "all.go").Add(jen.Var().Id("V" + string(rune('A'+i))).Int())
		}(i)
	}
	wg.Wait()

	w := newMemWriter()
	require.NoError(t, m.Build(w))
	out := w.files["p/all.go"].String()
	for i := 0; i < 20; i++ {
		assert.Contains(t, out, "V"+string(rune('A'+i)))
	}
}

func TestPrologWriter(t *testing.T) {
	m := New()
	m.File("p", "p", "a.go").Add(jen.Var().Id("A").Int())
	w := newMemWriter()
	require.NoError(t, m.Build(NewPrologWriter(w, "Code generated by annogen. DO NOT EDIT.\n\nsource: p.go")))

	out := w.files["p/a.go"].String()
	assert.True(t, bytes.HasPrefix([]byte(out), []byte("// Code generated by annogen. DO NOT EDIT.\n//\n// source: p.go\n\npackage p")), out)
}

func TestWriteProlog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProlog(&buf, ""))
	assert.Empty(t, buf.String())
}
