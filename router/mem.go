package router

import (
	"bytes"
	"io"
	"sort"
	"sync"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/model"
)

// MemFile is one output held by a MemFiler.
type MemFile struct {
	QualifiedName string
	Markers       []model.Marker
	Content       []byte
	// Committed is false while the sink is open or after it was aborted.
	Committed bool
}

// MemFiler keeps outputs in memory. Used for dry runs, check mode and tests.
type MemFiler struct {
	mu    sync.Mutex
	files map[string]*MemFile
}

func NewMemFiler() *MemFiler {
	return &MemFiler{files: make(map[string]*MemFile)}
}

func (m *MemFiler) Create(qualifiedName string, justifying []model.Marker) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[qualifiedName]; ok {
		return nil, errors.Wrapf(errors.ErrDuplicateOutput, "%s was already generated", qualifiedName)
	}
	f := &MemFile{QualifiedName: qualifiedName, Markers: append([]model.Marker(nil), justifying...)}
	m.files[qualifiedName] = f
	return &memSink{filer: m, file: f}, nil
}

// Get returns the output for qualifiedName.
func (m *MemFiler) Get(qualifiedName string) (*MemFile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[qualifiedName]
	return f, ok
}

// Files returns committed outputs sorted by qualified name.
func (m *MemFiler) Files() []*MemFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MemFile, 0, len(m.files))
	for _, f := range m.files {
		if f.Committed {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName < out[j].QualifiedName })
	return out
}

// Len is the number of committed outputs.
func (m *MemFiler) Len() int { return len(m.Files()) }

type memSink struct {
	filer *MemFiler
	file  *MemFile
	buf   bytes.Buffer
	done  bool
}

func (s *memSink) Write(p []byte) (int, error) {
	if s.done {
		return 0, errors.Newf("write to closed output %s", s.file.QualifiedName)
	}
	return s.buf.Write(p)
}

func (s *memSink) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.filer.mu.Lock()
	s.file.Content = append([]byte(nil), s.buf.Bytes()...)
	s.file.Committed = true
	s.filer.mu.Unlock()
	return nil
}

func (s *memSink) Abort() error {
	s.done = true
	return nil
}
