package host

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/teranos/annogen/diag"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/plugin"
	"github.com/teranos/annogen/router"
)

// CheckResult holds the result of comparing fresh output with the tree.
type CheckResult struct {
	UpToDate bool
	// Stale files exist but differ from what would be generated.
	Stale []string
	// Missing files would be generated but do not exist.
	Missing []string
	// Orphaned files are in the manifest but no longer generated.
	Orphaned []string
	// Run is the in-memory run the comparison was made against.
	Run *Result
}

// CheckOptions configures Check.
type CheckOptions struct {
	// Root is the module directory; manifest paths are relative to it.
	Root string
	// Manifest enables orphan detection. May be nil.
	Manifest *router.Manifest
	// DriverOptions are applied to the in-memory driver.
	DriverOptions []Option
}

// Check renders every processor's output in memory and compares it with the
// files on disk. Nothing is written. Generation diagnostics go to reporter
// as usual; a run that raised errors is never up to date.
func Check(ctx context.Context, processors []plugin.Processor, reporter *diag.Reporter, load Loader, opts CheckOptions) (*CheckResult, error) {
	mem := router.NewMemFiler()
	d, err := NewDriver(processors, reporter, mem, load, opts.DriverOptions...)
	if err != nil {
		return nil, err
	}
	res, err := d.Run(ctx)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Run: res}
	generated := make(map[string]bool)
	for _, f := range mem.Files() {
		path, err := router.ResolvePath(res.Resolver, f.QualifiedName)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to place %s", f.QualifiedName)
		}
		generated[filepath.Clean(path)] = true

		different, exists, err := fileDiffers(path, f.Content)
		if err != nil {
			return nil, err
		}
		switch {
		case !exists:
			result.Missing = append(result.Missing, path)
		case different:
			result.Stale = append(result.Stale, path)
		}
	}

	if opts.Manifest != nil {
		for _, rel := range opts.Manifest.Paths() {
			path := filepath.Join(opts.Root, filepath.FromSlash(rel))
			if !generated[filepath.Clean(path)] {
				result.Orphaned = append(result.Orphaned, path)
			}
		}
	}

	sort.Strings(result.Stale)
	sort.Strings(result.Missing)
	result.UpToDate = res.OK() && len(result.Stale) == 0 && len(result.Missing) == 0 && len(result.Orphaned) == 0
	return result, nil
}

// fileDiffers compares the file at path with want.
func fileDiffers(path string, want []byte) (different, exists bool, err error) {
	have, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return true, false, nil
	}
	if err != nil {
		return false, false, errors.Wrapf(err, "failed to read %s", path)
	}
	return !bytes.Equal(have, want), true, nil
}
