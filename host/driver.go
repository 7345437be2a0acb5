// Package host runs processors over a Go module the way a compiler runs
// annotation processors: round after round until no new sources appear.
//
// Round 1 sees every declaration. Each later round sees only the
// declarations found in files written by the round before it. When a round
// writes nothing, a final round with ProcessingOver()==true is offered to
// every processor.
package host

import (
	"context"
	"path/filepath"
	"time"

	"github.com/teranos/annogen/diag"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/logger"
	"github.com/teranos/annogen/model"
	"github.com/teranos/annogen/plugin"
	"github.com/teranos/annogen/round"
	"github.com/teranos/annogen/router"
)

// DefaultMaxRounds bounds processing when a processor keeps generating
// annotated sources.
const DefaultMaxRounds = 10

// Snapshot is one load of the host program.
type Snapshot struct {
	Roots           []model.Element
	Resolver        router.Resolver
	DirectiveErrors []*model.DirectiveError
}

// Loader loads the host program at the start of a round.
type Loader func(ctx context.Context) (*Snapshot, error)

// ProgramLoader loads packages with model.Load.
func ProgramLoader(cfg model.LoadConfig, patterns ...string) Loader {
	return func(ctx context.Context) (*Snapshot, error) {
		p, err := model.Load(ctx, cfg, patterns...)
		if err != nil {
			return nil, err
		}
		return &Snapshot{
			Roots:           p.RootElements(),
			Resolver:        p,
			DirectiveErrors: p.DirectiveErrors,
		}, nil
	}
}

// resolverSetter is implemented by filers that map packages to directories.
type resolverSetter interface {
	SetResolver(router.Resolver)
}

// Result summarizes a run.
type Result struct {
	Rounds int
	// Files are the qualified names written, in round order.
	Files    []string
	Outcomes []round.Outcome
	Errors   int
	Warnings int
	// Resolver is the last program snapshot's resolver.
	Resolver router.Resolver
	Duration time.Duration
}

// OK reports whether the run finished without ERROR diagnostics.
func (r *Result) OK() bool { return r.Errors == 0 }

// Driver runs the enabled processors over the rounds of one run.
type Driver struct {
	controllers []*round.Controller
	processors  []plugin.Processor
	reporter    *diag.Reporter
	filer       router.Filer
	load        Loader

	maxRounds    int
	services     plugin.Services
	manifest     *router.Manifest
	manifestPath string
	routerOpts   []router.Option
}

// Option configures a Driver.
type Option func(*Driver)

// WithMaxRounds bounds the number of generating rounds. n <= 0 keeps the default.
func WithMaxRounds(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.maxRounds = n
		}
	}
}

// WithServices initializes processors with services before the first round.
func WithServices(s plugin.Services) Option {
	return func(d *Driver) { d.services = s }
}

// WithManifest saves m to path after a run that wrote files.
func WithManifest(m *router.Manifest, path string) Option {
	return func(d *Driver) {
		d.manifest = m
		d.manifestPath = path
	}
}

// WithRouterOptions passes output options to every round's router.
func WithRouterOptions(opts ...router.Option) Option {
	return func(d *Driver) { d.routerOpts = append(d.routerOpts, opts...) }
}

// NewDriver creates a driver. Processors run in the order given.
func NewDriver(processors []plugin.Processor, reporter *diag.Reporter, filer router.Filer, load Loader, opts ...Option) (*Driver, error) {
	if len(processors) == 0 {
		return nil, errors.NewInvalidArgumentError("driver requires at least one processor")
	}
	if load == nil {
		return nil, errors.NewInvalidArgumentError("driver requires a loader")
	}
	d := &Driver{
		processors: processors,
		reporter:   reporter,
		filer:      filer,
		load:       load,
		maxRounds:  DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, p := range processors {
		c, err := round.New(p, reporter, filer, round.WithRouterOptions(d.routerOpts...))
		if err != nil {
			return nil, errors.Wrapf(err, "processor %s", p.Name())
		}
		d.controllers = append(d.controllers, c)
	}
	return d, nil
}

// Run processes rounds until no new files are generated. The returned error
// is reserved for failures outside any round: initialization, loading and
// saving the manifest. Everything else is a diagnostic.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := logger.ComponentLogger("driver")
	res := &Result{}

	if d.services != nil {
		if err := plugin.InitializeAll(ctx, d.processors, d.services); err != nil {
			return nil, err
		}
	}

	var generated map[string]bool
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := d.load(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load round %d", n)
		}
		res.Resolver = snap.Resolver
		if rs, ok := d.filer.(resolverSetter); ok {
			rs.SetResolver(snap.Resolver)
		}

		roots := snap.Roots
		if n > 1 {
			roots = inFiles(snap.Roots, generated)
		}
		d.reportDirectiveErrors(snap.DirectiveErrors, n, generated)

		files := d.round(ctx, n, model.NewEnv(n, roots), res)
		res.Rounds = n
		log.Infow("Round complete",
			logger.FieldRound, n,
			"roots", len(roots),
			logger.FieldEmitted, len(files))

		if len(files) == 0 {
			break
		}
		if n >= d.maxRounds {
			d.reporter.Report(ctx, diag.Warning,
				"stopped after %d rounds; generated sources still carry markers", d.maxRounds)
			break
		}
		generated = d.paths(snap.Resolver, files)
	}

	res.Rounds++
	d.round(ctx, res.Rounds, model.NewEnv(res.Rounds, nil).Over(), res)

	if d.manifest != nil && d.manifestPath != "" && len(res.Files) > 0 {
		if err := d.manifest.Save(d.manifestPath); err != nil {
			return nil, err
		}
	}

	res.Errors = d.reporter.Count(diag.Error)
	res.Warnings = d.reporter.Count(diag.Warning)
	res.Duration = time.Since(start)
	log.Infow("Processing finished",
		"rounds", res.Rounds,
		logger.FieldCount, len(res.Files),
		logger.FieldErrors, res.Errors,
		logger.FieldWarnings, res.Warnings,
		logger.FieldDurationMS, res.Duration.Milliseconds())
	return res, nil
}

// round offers the markers present in env to each processor in turn and
// returns the qualified names written.
func (d *Driver) round(ctx context.Context, n int, env *model.Env, res *Result) []string {
	raisedBefore := d.reporter.ErrorRaised()
	env.WithErrorRaised(func() bool { return raisedBefore })

	present := env.Markers()
	claimed := make(map[model.Marker]bool)
	var files []string
	for i, c := range d.controllers {
		meta := d.processors[i].Metadata()
		var offered []model.Marker
		for _, m := range present {
			if !claimed[m] && meta.Supports(m) {
				offered = append(offered, m)
			}
		}
		if len(offered) == 0 && !env.ProcessingOver() {
			continue
		}

		out := c.ProcessRound(ctx, offered, env)
		res.Outcomes = append(res.Outcomes, out)
		files = append(files, out.Files...)
		if out.Claimed {
			for _, m := range offered {
				claimed[m] = true
			}
		}
	}
	res.Files = append(res.Files, files...)
	return files
}

// paths resolves qualified names to clean file paths. Names that do not
// resolve cannot hold sources for the next round and are dropped.
func (d *Driver) paths(r router.Resolver, names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, qn := range names {
		p, err := router.ResolvePath(r, qn)
		if err != nil {
			logger.Logger.Debugw("Generated file has no path",
				logger.FieldQualifiedName, qn,
				logger.FieldError, err.Error())
			continue
		}
		out[filepath.Clean(p)] = true
	}
	return out
}

// reportDirectiveErrors reports malformed directives once: all of them in
// round 1, afterwards only those in newly generated files.
func (d *Driver) reportDirectiveErrors(errs []*model.DirectiveError, n int, generated map[string]bool) {
	for _, e := range errs {
		if n > 1 && !generated[filepath.Clean(e.Pos.Filename)] {
			continue
		}
		d.reporter.ReportTo(diag.Target{Element: e.Element}, diag.Warning,
			"ignoring malformed directive: %v", e.Err)
	}
}

func inFiles(elements []model.Element, files map[string]bool) []model.Element {
	var out []model.Element
	for _, el := range elements {
		if files[filepath.Clean(el.Pos().Filename)] {
			out = append(out, el)
		}
	}
	return out
}
