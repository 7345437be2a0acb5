// Package round drives one processing round: generate into a fresh code
// model, then emit it through a router if the generator claimed the round.
package round

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/annogen/codemodel"
	"github.com/teranos/annogen/diag"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/logger"
	"github.com/teranos/annogen/model"
	"github.com/teranos/annogen/router"
)

// Generator populates the code model for one round. It reports whether it
// claimed the markers it was offered. Per-declaration failures are expected
// to be absorbed by process.Unit; a returned error or a panic fails the
// whole round.
type Generator interface {
	Name() string
	Generate(ctx context.Context, m *codemodel.Model, markers []model.Marker, env model.RoundEnv) (bool, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, m *codemodel.Model, markers []model.Marker, env model.RoundEnv) (bool, error)

func (f GeneratorFunc) Name() string { return "func" }

func (f GeneratorFunc) Generate(ctx context.Context, m *codemodel.Model, markers []model.Marker, env model.RoundEnv) (bool, error) {
	return f(ctx, m, markers, env)
}

// Named gives a GeneratorFunc a name for logs and the prolog.
func Named(name string, f GeneratorFunc) Generator {
	return named{name: name, GeneratorFunc: f}
}

type named struct {
	name string
	GeneratorFunc
}

func (n named) Name() string { return n.name }

// Outcome is what happened in one round.
type Outcome struct {
	RoundID string
	// Claimed is the result handed back to the host.
	Claimed bool
	// Files are the qualified names committed by the filer.
	Files []string
	// Emitted is true when emission ran and succeeded.
	Emitted bool
	// Err is the generation or emission failure, already reported.
	Err      error
	Duration time.Duration
}

// Controller runs rounds for one generator.
type Controller struct {
	gen        Generator
	reporter   *diag.Reporter
	filer      router.Filer
	routerOpts []router.Option
}

// Option configures a Controller.
type Option func(*Controller)

// WithRouterOptions sets the options every round's router is built with.
func WithRouterOptions(opts ...router.Option) Option {
	return func(c *Controller) { c.routerOpts = append(c.routerOpts, opts...) }
}

func New(gen Generator, reporter *diag.Reporter, filer router.Filer, opts ...Option) (*Controller, error) {
	if model.IsNil(gen) {
		return nil, errors.NewInvalidArgumentError("round controller requires a generator")
	}
	if reporter == nil {
		return nil, errors.NewInvalidArgumentError("round controller requires a reporter")
	}
	if model.IsNil(filer) {
		return nil, errors.NewInvalidArgumentError("round controller requires a filer")
	}
	c := &Controller{gen: gen, reporter: reporter, filer: filer}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generator returns the controlled generator.
func (c *Controller) Generator() Generator { return c.gen }

// Process runs one round and returns whether it was claimed.
func (c *Controller) Process(ctx context.Context, markers []model.Marker, env model.RoundEnv) bool {
	return c.ProcessRound(ctx, markers, env).Claimed
}

// ProcessRound runs one round. Failures are reported through the reporter
// and never returned as panics. A generation failure leaves the round
// unclaimed and skips emission; an emission failure leaves the claim as is.
func (c *Controller) ProcessRound(ctx context.Context, markers []model.Marker, env model.RoundEnv) Outcome {
	start := time.Now()
	out := Outcome{RoundID: uuid.NewString()}
	logCtx := logger.WithProcessor(logger.WithRoundID(ctx, out.RoundID), c.gen.Name())
	log := logger.LoggerFromContext(logCtx)
	log.Debugw("Round started", logger.FieldMarkers, markers)

	m := codemodel.New()
	claimed, err := c.generate(logCtx, m, markers, env)
	if err != nil {
		c.reporter.Fail(ctx, err, "Error creating code model")
		log.Warnw("Generation failed", logger.FieldError, err.Error())
		out.Err = err
		out.Duration = time.Since(start)
		return out
	}
	out.Claimed = claimed

	if claimed {
		files, err := c.emit(m, markers)
		out.Files = files
		if err != nil {
			c.reporter.Fail(ctx, err, "Error generating code")
			log.Warnw("Emission failed", logger.FieldError, err.Error())
			out.Err = err
		} else {
			out.Emitted = true
		}
	}

	out.Duration = time.Since(start)
	log.Infow("Round finished",
		logger.FieldClaimed, out.Claimed,
		logger.FieldEmitted, len(out.Files),
		logger.FieldDurationMS, out.Duration.Milliseconds())
	return out
}

func (c *Controller) generate(ctx context.Context, m *codemodel.Model, markers []model.Marker, env model.RoundEnv) (claimed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			claimed, err = false, errors.FromPanic(r)
		}
	}()
	return c.gen.Generate(ctx, m, markers, env)
}

// emit renders the model through a fresh router. A panic while rendering or
// inside the filer is an emission failure like any other.
func (c *Controller) emit(m *codemodel.Model, markers []model.Marker) (files []string, err error) {
	rec := &recordingFiler{Filer: c.filer}
	defer func() {
		if r := recover(); r != nil {
			files, err = rec.committed(), errors.FromPanic(r)
		}
	}()
	opts := append([]router.Option{router.WithProlog(router.DefaultProlog(c.gen.Name()))}, c.routerOpts...)
	rt, err := router.New(rec, markers, opts...)
	if err != nil {
		return nil, err
	}
	err = m.Build(rt)
	return rec.committed(), err
}

// recordingFiler remembers which outputs were committed.
type recordingFiler struct {
	router.Filer
	mu    sync.Mutex
	names []string
}

func (r *recordingFiler) Create(qualifiedName string, justifying []model.Marker) (io.WriteCloser, error) {
	w, err := r.Filer.Create(qualifiedName, justifying)
	if err != nil {
		return nil, err
	}
	return &recordingSink{WriteCloser: w, qn: qualifiedName, rec: r}, nil
}

func (r *recordingFiler) committed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

type recordingSink struct {
	io.WriteCloser
	qn  string
	rec *recordingFiler
}

func (s *recordingSink) Close() error {
	if err := s.WriteCloser.Close(); err != nil {
		return err
	}
	s.rec.mu.Lock()
	s.rec.names = append(s.rec.names, s.qn)
	s.rec.mu.Unlock()
	return nil
}

func (s *recordingSink) Abort() error { return codemodel.Discard(s.WriteCloser) }
