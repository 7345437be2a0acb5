// Package codemodel is the in-memory representation of generated source.
//
// It is a narrow layer over github.com/dave/jennifer: processors declare
// files and add jen code to them, and the round controller renders every
// file through a CodeWriter once generation succeeded.
package codemodel

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/dave/jennifer/jen"

	"github.com/teranos/annogen/errors"
)

// GoSuffix is the source file suffix stripped when naming outputs.
const GoSuffix = ".go"

// Package identifies the package a generated file belongs to.
type Package struct {
	Path string
	Name string
}

// File is one generated compilation unit.
type File struct {
	mu   sync.Mutex
	pkg  Package
	name string
	jf   *jen.File
}

// Package returns the package the file is declared in.
func (f *File) Package() Package { return f.pkg }

// Name is the file name including the .go suffix.
func (f *File) Name() string { return f.name }

// Do runs fn with exclusive access to the underlying jen.File. Units running
// on different goroutines may add to the same file.
func (f *File) Do(fn func(jf *jen.File)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.jf)
}

// Add appends top-level code to the file.
func (f *File) Add(code ...jen.Code) {
	f.Do(func(jf *jen.File) {
		for _, c := range code {
			jf.Add(c)
			jf.Line()
		}
	})
}

// Render writes the formatted source of the file.
func (f *File) Render(w io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jf.Render(w)
}

type fileKey struct {
	pkgPath string
	name    string
}

// Model holds the files generated during one round. It is safe for
// concurrent use.
type Model struct {
	mu    sync.Mutex
	files map[fileKey]*File
}

func New() *Model {
	return &Model{files: make(map[fileKey]*File)}
}

// File declares a compilation unit, or returns the one already declared
// under the same package path and file name. The .go suffix is added when
// missing. pkgName defaults to the last element of pkgPath.
func (m *Model) File(pkgPath, pkgName, fileName string) *File {
	if !strings.HasSuffix(fileName, GoSuffix) {
		fileName += GoSuffix
	}
	if pkgName == "" {
		pkgName = pkgPath[strings.LastIndex(pkgPath, "/")+1:]
	}
	key := fileKey{pkgPath: pkgPath, name: fileName}

	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[key]; ok {
		return f
	}
	f := &File{
		pkg:  Package{Path: pkgPath, Name: pkgName},
		name: fileName,
		jf:   jen.NewFilePathName(pkgPath, pkgName),
	}
	m.files[key] = f
	return f
}

// Files returns the declared files ordered by package path then file name.
func (m *Model) Files() []*File {
	m.mu.Lock()
	files := make([]*File, 0, len(m.files))
	for _, f := range m.files {
		files = append(files, f)
	}
	m.mu.Unlock()

	sort.Slice(files, func(i, j int) bool {
		if files[i].pkg.Path != files[j].pkg.Path {
			return files[i].pkg.Path < files[j].pkg.Path
		}
		return files[i].name < files[j].name
	})
	return files
}

// Len is the number of declared files.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Build renders every file through w, one Open per file, closing each sink
// before the next file. A sink whose file failed to render is discarded. The first failure stops the build. w.Close is called
// once at the end in every case.
func (m *Model) Build(w CodeWriter) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil {
			if err == nil {
				err = errors.Wrap(cerr, "failed to close code writer")
			} else {
				err = errors.WithSecondaryError(err, cerr)
			}
		}
	}()

	for _, f := range m.Files() {
		if err := buildFile(w, f); err != nil {
			return errors.Wrapf(err, "failed to write %s/%s", f.pkg.Path, f.name)
		}
	}
	return nil
}

func buildFile(w CodeWriter, f *File) error {
	sink, err := w.Open(f.pkg, f.name)
	if err != nil {
		return err
	}
	if err := f.Render(sink); err != nil {
		return errors.WithSecondaryError(err, Discard(sink))
	}
	return sink.Close()
}
