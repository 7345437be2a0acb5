package router

import (
	"bytes"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"github.com/teranos/annogen/codemodel"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/logger"
	"github.com/teranos/annogen/model"
)

// Resolver maps an import path to the directory its files live in.
// *model.Program implements it.
type Resolver interface {
	PackageDir(importPath string) (string, bool)
}

// DirFiler writes generated files into the source tree. Each file is
// committed atomically when its sink is closed. A qualified name may be
// created once per run; Reset starts a new run.
type DirFiler struct {
	root     string
	resolver Resolver
	manifest *Manifest

	mu      sync.Mutex
	created map[string]bool
	written []string
}

// NewDirFiler creates a filer rooted at the module directory root. manifest
// may be nil.
func NewDirFiler(root string, resolver Resolver, manifest *Manifest) *DirFiler {
	return &DirFiler{
		root:     root,
		resolver: resolver,
		manifest: manifest,
		created:  make(map[string]bool),
	}
}

// SetResolver swaps the package resolver, typically once per round after
// reloading the program.
func (f *DirFiler) SetResolver(r Resolver) {
	f.mu.Lock()
	f.resolver = r
	f.mu.Unlock()
}

// Path returns where qualifiedName is written.
func (f *DirFiler) Path(qualifiedName string) (string, error) {
	f.mu.Lock()
	resolver := f.resolver
	f.mu.Unlock()
	return ResolvePath(resolver, qualifiedName)
}

// ResolvePath maps a qualified name to a file path through r.
func ResolvePath(r Resolver, qualifiedName string) (string, error) {
	pkgPath, base, err := SplitQualifiedName(qualifiedName)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", errors.NewNotFoundError("no resolver for package %s", pkgPath)
	}
	dir, ok := r.PackageDir(pkgPath)
	if !ok {
		return "", errors.NewNotFoundError("package %s is not in the main module", pkgPath)
	}
	return filepath.Join(dir, base+codemodel.GoSuffix), nil
}

func (f *DirFiler) Create(qualifiedName string, justifying []model.Marker) (io.WriteCloser, error) {
	path, err := f.Path(qualifiedName)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.created[qualifiedName] {
		return nil, errors.Wrapf(errors.ErrDuplicateOutput, "%s was already generated", qualifiedName)
	}
	f.created[qualifiedName] = true

	markers := append([]model.Marker(nil), justifying...)
	return &dirSink{filer: f, qn: qualifiedName, path: path, markers: markers}, nil
}

// Written returns the paths committed since the last Reset, sorted.
func (f *DirFiler) Written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.written...)
	sort.Strings(out)
	return out
}

// Reset forgets the names created so far.
func (f *DirFiler) Reset() {
	f.mu.Lock()
	f.created = make(map[string]bool)
	f.written = nil
	f.mu.Unlock()
}

func (f *DirFiler) commit(s *dirSink) error {
	data := s.buf.Bytes()
	unchanged := sameContent(s.path, data)
	if !unchanged {
		if err := writeFileAtomic(s.path, data, 0o644); err != nil {
			return err
		}
	}
	logger.Logger.Debugw("Wrote generated file",
		logger.FieldFile, s.path,
		logger.FieldBytes, len(data),
		"unchanged", unchanged)

	if f.manifest != nil {
		rel, err := filepath.Rel(f.root, s.path)
		if err != nil {
			rel = s.path
		}
		f.manifest.Record(rel, s.qn, s.markers, checksum(data))
	}
	f.mu.Lock()
	f.written = append(f.written, s.path)
	f.mu.Unlock()
	return nil
}

// dirSink buffers a file and commits it on Close. Generated files are small
// and buffering lets an unchanged file keep its modification time.
type dirSink struct {
	filer   *DirFiler
	qn      string
	path    string
	markers []model.Marker
	buf     bytes.Buffer
	done    bool
}

func (s *dirSink) Write(p []byte) (int, error) {
	if s.done {
		return 0, errors.Newf("write to closed output %s", s.qn)
	}
	return s.buf.Write(p)
}

func (s *dirSink) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.filer.commit(s)
}

// Abort drops the buffered content. The name stays reserved.
func (s *dirSink) Abort() error {
	s.done = true
	s.buf.Reset()
	return nil
}
