// Package process runs generation logic bound to one declaration and turns
// its failures into diagnostics attributed to that declaration.
package process

import (
	"context"
	"sync/atomic"

	"github.com/teranos/annogen/diag"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/logger"
	"github.com/teranos/annogen/model"
)

// Step is the generation logic of a Unit. The context carries the unit's
// diagnostic target; report through it.
type Step func(ctx context.Context) error

// Unit is one self-contained processing task.
type Unit struct {
	reporter *diag.Reporter
	target   diag.Target
	step     Step
	ran      atomic.Bool
	err      error
}

// New creates a unit for an arbitrary target.
func New(r *diag.Reporter, target diag.Target, step Step) (*Unit, error) {
	if r == nil {
		return nil, errors.NewInvalidArgumentError("unit of work requires a reporter")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if step == nil {
		return nil, errors.NewInvalidArgumentError("unit of work for %s has no step", target)
	}
	return &Unit{reporter: r, target: target, step: step}, nil
}

// ForElement creates a unit attributed to e.
func ForElement(r *diag.Reporter, e model.Element, step Step) (*Unit, error) {
	return New(r, diag.Target{Element: e}, step)
}

// ForAnnotation creates a unit attributed to annotation a on e.
func ForAnnotation(r *diag.Reporter, e model.Element, a *model.Annotation, step Step) (*Unit, error) {
	if a == nil {
		return nil, errors.NewInvalidArgumentError("annotation is nil")
	}
	return New(r, diag.Target{Element: e, Annotation: a}, step)
}

// ForValue creates a unit attributed to attribute v of annotation a on e.
func ForValue(r *diag.Reporter, e model.Element, a *model.Annotation, v *model.Value, step Step) (*Unit, error) {
	if v == nil {
		return nil, errors.NewInvalidArgumentError("annotation value is nil")
	}
	return New(r, diag.Target{Element: e, Annotation: a, Value: v}, step)
}

// Target returns the target diagnostics of this unit are attributed to.
func (u *Unit) Target() diag.Target { return u.target }

// Err returns the failure absorbed by Run, nil if the step succeeded or has
// not run.
func (u *Unit) Err() error { return u.err }

// Run executes the step under the unit's target and reports whether it
// succeeded. A returned error or a panic becomes exactly one ERROR
// diagnostic; neither escapes Run. The caller's context, and with it the
// caller's target, is never modified.
func (u *Unit) Run(ctx context.Context) (ok bool) {
	if !u.ran.CompareAndSwap(false, true) {
		u.reporter.ReportTo(u.target, diag.Error, "unit of work for %s already ran", u.target)
		return false
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, _ = diag.Push(ctx, u.target)
	defer func() {
		if r := recover(); r != nil {
			u.fail(ctx, errors.FromPanic(r))
			ok = false
		}
	}()

	if err := u.step(ctx); err != nil {
		u.fail(ctx, err)
		return false
	}
	return true
}

func (u *Unit) fail(ctx context.Context, err error) {
	u.err = err
	logger.LoggerFromContext(ctx).Debugw("Unit of work failed",
		logger.FieldElement, model.QualifiedName(u.target.Element),
		logger.FieldError, err.Error())
	u.reporter.Fail(ctx, err, "Processing error: %v", err)
}

// ForElements builds one unit per element, each running step against its
// element.
func ForElements(r *diag.Reporter, elements []model.Element, step func(ctx context.Context, e model.Element) error) ([]*Unit, error) {
	units := make([]*Unit, 0, len(elements))
	for _, e := range elements {
		e := e
		u, err := ForElement(r, e, func(ctx context.Context) error { return step(ctx, e) })
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}
