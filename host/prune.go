package host

import (
	"os"
	"path/filepath"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/logger"
	"github.com/teranos/annogen/router"
)

// Orphans returns the manifest paths of previous, relative to root, that
// still exist but were not among the files just written.
func Orphans(root string, previous *router.Manifest, written []string) []string {
	if previous == nil {
		return nil
	}
	current := make(map[string]bool, len(written))
	for _, p := range written {
		current[filepath.Clean(p)] = true
	}
	var out []string
	for _, rel := range previous.Paths() {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if current[filepath.Clean(path)] {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			out = append(out, rel)
		}
	}
	return out
}

// Prune removes the orphans of previous. A file edited since it was
// generated no longer matches its checksum and is kept. It returns the
// removed paths and the kept ones.
func Prune(root string, previous *router.Manifest, written []string) (removed, kept []string, err error) {
	for _, rel := range Orphans(root, previous, written) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		data, err := os.ReadFile(path)
		if err != nil {
			return removed, kept, errors.Wrapf(err, "failed to read %s", path)
		}
		entry, _ := previous.Entry(rel)
		if !entry.Matches(data) {
			logger.Warnw("Keeping modified generated file", logger.FieldFile, path)
			kept = append(kept, path)
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, kept, errors.Wrapf(err, "failed to remove %s", path)
		}
		removed = append(removed, path)
	}
	return removed, kept, nil
}
