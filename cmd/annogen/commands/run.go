package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/host"
	"github.com/teranos/annogen/router"
)

var (
	runWatch  bool
	runDryRun bool
	runPrune  bool
)

// RunCmd generates sources for the module
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate sources for the annotated declarations in the module",
	Long: `Load the module's packages, offer every //annogen: directive to the
processors that support it, and write the generated files next to the
declarations that caused them.

Processing runs in rounds: files generated in one round are loaded again and
their directives are processed in the next, until a round generates nothing.

Examples:
  annogen run                       # Generate once
  annogen run --processors enum     # Only run the enum processor
  annogen run --dry-run             # Print generated files to stdout
  annogen run --watch               # Regenerate when sources change
  annogen run --prune               # Also delete files no longer generated`,
	RunE: runGenerate,
}

func init() {
	RunCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Regenerate when Go sources change")
	RunCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print generated files instead of writing them")
	RunCmd.Flags().BoolVar(&runPrune, "prune", false, "Delete unmodified files from a previous run that were not generated again")
	addSessionFlags(RunCmd)
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&moduleDir, "dir", "C", "", "Module directory (default: directory of annogen.toml, else current directory)")
	cmd.Flags().StringSliceVarP(&processorNames, "processors", "p", nil, "Processors to run (default: generator.processors, else all)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if runWatch && runDryRun {
		return errors.NewInvalidArgumentError("--watch and --dry-run cannot be combined")
	}
	s, err := newSession()
	if err != nil {
		return err
	}

	if runDryRun {
		return s.dryRun(contextOf(cmd), cmd.OutOrStdout())
	}

	if runWatch {
		ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w, err := host.NewWatcher(s.root, func(ctx context.Context) ([]string, error) {
			res, written, err := s.generate(ctx)
			if err != nil {
				pterm.Error.Println(err.Error())
				return written, err
			}
			printSummary(res, written)
			return written, nil
		})
		if err != nil {
			return err
		}
		pterm.Info.Printf("Watching %s (Ctrl+C to stop)\n", s.root)
		return w.Watch(ctx)
	}

	res, written, err := s.generate(contextOf(cmd))
	if err != nil {
		return err
	}
	printSummary(res, written)
	if !res.OK() {
		return errors.Newf("generation failed with %d error(s)", res.Errors)
	}
	return nil
}

// generate runs every processor over the module, writing into the tree, and
// returns the run result and the paths written.
func (s *session) generate(ctx context.Context) (*host.Result, []string, error) {
	previous, err := s.loadManifest()
	if err != nil {
		return nil, nil, err
	}

	var manifest *router.Manifest
	if previous != nil {
		manifest = router.NewManifest()
	}
	filer := router.NewDirFiler(s.root, nil, manifest)
	reporter := s.reporter()
	opts := s.driverOptions(reporter)
	if manifest != nil {
		opts = append(opts, host.WithManifest(manifest, s.manifestPath()))
	}

	d, err := host.NewDriver(s.processors, reporter, filer, s.load, opts...)
	if err != nil {
		return nil, nil, err
	}
	res, err := d.Run(ctx)
	if err != nil {
		return nil, filer.Written(), err
	}
	written := filer.Written()

	if manifest == nil {
		return res, written, nil
	}
	orphans := host.Orphans(s.root, previous, written)
	if len(orphans) == 0 && (len(written) > 0 || len(previous.Paths()) == 0) {
		return res, written, nil
	}
	if runPrune && res.OK() {
		removed, kept, err := host.Prune(s.root, previous, written)
		if err != nil {
			return res, written, err
		}
		for _, p := range removed {
			pterm.Info.Printf("Removed %s\n", s.rel(p))
		}
		for _, p := range kept {
			pterm.Warning.Printf("Kept %s: edited since it was generated\n", s.rel(p))
			manifest.CopyEntry(previous, s.rel(p))
		}
	} else if len(orphans) > 0 {
		for _, rel := range orphans {
			manifest.CopyEntry(previous, rel)
		}
		pterm.Warning.Printf("%d file(s) from a previous run were not generated again; use --prune to delete them\n", len(orphans))
	}
	// the driver only saves after writing files
	if err := manifest.Save(s.manifestPath()); err != nil {
		return res, written, err
	}
	return res, written, nil
}

// dryRun renders into memory and streams every file to out.
func (s *session) dryRun(ctx context.Context, out io.Writer) error {
	mem := router.NewMemFiler()
	reporter := s.reporter()
	d, err := host.NewDriver(s.processors, reporter, mem, s.load, s.driverOptions(reporter)...)
	if err != nil {
		return err
	}
	res, err := d.Run(ctx)
	if err != nil {
		return err
	}

	for _, f := range mem.Files() {
		name := f.QualifiedName
		if path, err := router.ResolvePath(res.Resolver, f.QualifiedName); err == nil {
			name = s.rel(path)
		}
		fmt.Fprintf(out, "// ==> %s\n%s\n", name, f.Content)
	}
	if !res.OK() {
		return errors.Newf("generation failed with %d error(s)", res.Errors)
	}
	return nil
}

// rel shortens path for display.
func (s *session) rel(path string) string {
	if r, err := filepath.Rel(s.root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}

func (s *session) relAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = s.rel(p)
	}
	return out
}

func printSummary(res *host.Result, written []string) {
	if res == nil {
		return
	}
	msg := fmt.Sprintf("%d file(s) in %d round(s), %d error(s), %d warning(s) [%s]",
		len(written), res.Rounds, res.Errors, res.Warnings, res.Duration.Round(time.Millisecond))
	if res.OK() {
		pterm.Success.Println(msg)
		return
	}
	pterm.Error.Println(msg)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
