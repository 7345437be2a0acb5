package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/annogen/diag"
	"github.com/teranos/annogen/model"
	"github.com/teranos/annogen/plugin"
	"github.com/teranos/annogen/router"
)

func checkProcessors() []plugin.Processor {
	return []plugin.Processor{
		&testProcessor{name: "builder", markers: []model.Marker{"builder"}, gen: emitFor("builder", "builder")},
	}
}

func checkOptions() CheckOptions {
	return CheckOptions{DriverOptions: []Option{WithRouterOptions(router.WithLineSeparator("\n"))}}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	load := staticLoader(dir, decl(dir, "point.go", "Point", "builder"))
	generated := filepath.Join(dir, "point_builder.go")

	t.Run("missing before first run", func(t *testing.T) {
		result, err := Check(context.Background(), checkProcessors(), diag.NewReporter(nil), load, checkOptions())
		require.NoError(t, err)
		assert.False(t, result.UpToDate)
		assert.Equal(t, []string{generated}, result.Missing)
		assert.Empty(t, result.Stale)
		_, err = os.Stat(generated)
		assert.True(t, os.IsNotExist(err), "check must not write")
	})

	t.Run("up to date after run", func(t *testing.T) {
		filer := router.NewDirFiler(dir, nil, nil)
		d, _ := newTestDriver(t, filer, load, checkProcessors())
		_, err := d.Run(context.Background())
		require.NoError(t, err)

		result, err := Check(context.Background(), checkProcessors(), diag.NewReporter(nil), load, checkOptions())
		require.NoError(t, err)
		assert.True(t, result.UpToDate)
		assert.Equal(t, 2, result.Run.Rounds)
	})

	t.Run("stale after hand edit", func(t *testing.T) {
		require.NoError(t, os.WriteFile(generated, []byte("package app\n"), 0o644))

		result, err := Check(context.Background(), checkProcessors(), diag.NewReporter(nil), load, checkOptions())
		require.NoError(t, err)
		assert.False(t, result.UpToDate)
		assert.Equal(t, []string{generated}, result.Stale)
	})

	t.Run("orphaned manifest entries", func(t *testing.T) {
		m := router.NewManifest()
		m.Record("point_builder.go", appPkg+".point_builder", []model.Marker{"builder"}, "")
		m.Record("old_builder.go", appPkg+".old_builder", []model.Marker{"builder"}, "")

		opts := checkOptions()
		opts.Root = dir
		opts.Manifest = m
		result, err := Check(context.Background(), checkProcessors(), diag.NewReporter(nil), load, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "old_builder.go")}, result.Orphaned)
	})
}

func TestCheckUnresolvablePackage(t *testing.T) {
	load := func(ctx context.Context) (*Snapshot, error) {
		return &Snapshot{
			Roots:    []model.Element{decl("/src", "point.go", "Point", "builder")},
			Resolver: mapResolver{},
		}, nil
	}
	_, err := Check(context.Background(), checkProcessors(), diag.NewReporter(nil), load, checkOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to place")
}
