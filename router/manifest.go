package router

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/model"
	"github.com/teranos/annogen/version"
)

// DefaultManifestName is the manifest file written at the module root.
const DefaultManifestName = ".annogen-manifest.yaml"

// Manifest records which markers justified each generated file. Paths are
// slash-separated and relative to the module root.
type Manifest struct {
	mu      sync.Mutex
	Tool    string                    `yaml:"tool"`
	Version string                    `yaml:"version"`
	Files   map[string]*ManifestEntry `yaml:"files"`
}

// ManifestEntry describes one generated file.
type ManifestEntry struct {
	QualifiedName string   `yaml:"qualified_name"`
	Markers       []string `yaml:"markers"`
	SHA256        string   `yaml:"sha256"`
}

func NewManifest() *Manifest {
	return &Manifest{
		Tool:    version.Tool,
		Version: version.Version,
		Files:   make(map[string]*ManifestEntry),
	}
}

// LoadManifest reads a manifest; a missing file yields an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %s", path)
	}
	m := NewManifest()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %s", path)
	}
	if m.Files == nil {
		m.Files = make(map[string]*ManifestEntry)
	}
	return m, nil
}

// Record adds or replaces the entry for path.
func (m *Manifest) Record(path, qualifiedName string, markers []model.Marker, sum string) {
	names := make([]string, len(markers))
	for i, mk := range markers {
		names[i] = string(mk)
	}
	sort.Strings(names)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[filepath.ToSlash(path)] = &ManifestEntry{
		QualifiedName: qualifiedName,
		Markers:       names,
		SHA256:        sum,
	}
}

// Matches reports whether data is the content this entry was recorded with.
func (e *ManifestEntry) Matches(data []byte) bool {
	return e.SHA256 == checksum(data)
}

// Entry returns the entry for path.
func (m *Manifest) Entry(path string) (*ManifestEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Files[filepath.ToSlash(path)]
	return e, ok
}

// CopyEntry copies the entry for path from another manifest.
func (m *Manifest) CopyEntry(from *Manifest, path string) bool {
	e, ok := from.Entry(path)
	if !ok {
		return false
	}
	copied := *e
	m.mu.Lock()
	m.Files[filepath.ToSlash(path)] = &copied
	m.mu.Unlock()
	return true
}

// Paths returns every recorded path, sorted.
func (m *Manifest) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Save writes the manifest as YAML, atomically.
func (m *Manifest) Save(path string) error {
	m.mu.Lock()
	data, err := yaml.Marshal(m)
	m.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	return writeFileAtomic(path, data, 0o644)
}
