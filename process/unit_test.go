package process

import (
	"context"
	"fmt"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/annogen/diag"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/model"
)

func decl(name string) *model.Decl {
	return model.NewDecl(name, model.KindStruct, "example.com/p", token.Position{Filename: "p.go", Line: 1, Column: 1})
}

func setup() (*diag.Reporter, *diag.Collector) {
	c := diag.NewCollector()
	return diag.NewReporter(c), c
}

func noop(context.Context) error { return nil }

func TestConstructorsRejectMissingElement(t *testing.T) {
	r, _ := setup()
	e := decl("A")
	a := e.Annotate("x", token.Position{})
	v := model.NewValue("k", "v", token.Position{})
	var nilDecl *model.Decl

	for _, el := range []model.Element{nil, nilDecl} {
		_, err := ForElement(r, el, noop)
		assert.True(t, errors.IsInvalidArgument(err))
		_, err = ForAnnotation(r, el, a, noop)
		assert.True(t, errors.IsInvalidArgument(err))
		_, err = ForValue(r, el, a, v, noop)
		assert.True(t, errors.IsInvalidArgument(err))
		_, err = New(r, diag.Target{Element: el, Annotation: a, Value: v}, noop)
		assert.True(t, errors.IsInvalidArgument(err))
	}
}

func TestConstructorsRejectValueWithoutAnnotation(t *testing.T) {
	r, _ := setup()
	e := decl("A")
	v := model.NewValue("k", "v", token.Position{})

	_, err := ForValue(r, e, nil, v, noop)
	assert.True(t, errors.IsInvalidArgument(err))
	_, err = New(r, diag.Target{Element: e, Value: v}, noop)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestConstructorsRejectOtherAbsentArguments(t *testing.T) {
	r, _ := setup()
	e := decl("A")
	a := e.Annotate("x", token.Position{})

	_, err := ForAnnotation(r, e, nil, noop)
	assert.True(t, errors.IsInvalidArgument(err))
	_, err = ForValue(r, e, a, nil, noop)
	assert.True(t, errors.IsInvalidArgument(err))
	_, err = ForElement(r, e, nil)
	assert.True(t, errors.IsInvalidArgument(err))
	_, err = ForElement(nil, e, noop)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestRunAbsorbsFailures(t *testing.T) {
	e := decl("A")
	a := e.Annotate("x", token.Position{Filename: "p.go", Line: 1})
	v := model.NewValue("k", "v", token.Position{})
	a2 := e.Annotate("y", token.Position{}, v)

	cases := map[string]func(r *diag.Reporter, step Step) (*Unit, error){
		"element":    func(r *diag.Reporter, s Step) (*Unit, error) { return ForElement(r, e, s) },
		"annotation": func(r *diag.Reporter, s Step) (*Unit, error) { return ForAnnotation(r, e, a, s) },
		"value":      func(r *diag.Reporter, s Step) (*Unit, error) { return ForValue(r, e, a2, v, s) },
	}
	steps := map[string]Step{
		"error": func(context.Context) error { return errors.New("boom") },
		"panic": func(context.Context) error { panic("boom") },
		"panic with error": func(context.Context) error {
			panic(fmt.Errorf("wrapped: %w", errors.New("boom")))
		},
	}

	for cname, mk := range cases {
		for sname, step := range steps {
			t.Run(cname+"/"+sname, func(t *testing.T) {
				r, c := setup()
				u, err := mk(r, step)
				require.NoError(t, err)

				ctx := context.Background()
				var ok bool
				assert.NotPanics(t, func() { ok = u.Run(ctx) })
				assert.False(t, ok)
				assert.Error(t, u.Err())

				errs := c.Filter(diag.Error)
				require.Len(t, errs, 1)
				assert.Equal(t, u.Target(), errs[0].Target())
				assert.Contains(t, errs[0].Message, "Processing error: ")
				assert.Contains(t, errs[0].Message, "boom")
				assert.True(t, diag.Current(ctx).IsZero())
			})
		}
	}
}

func TestRunSuccess(t *testing.T) {
	r, c := setup()
	e := decl("A")
	var seen diag.Target
	u, err := ForElement(r, e, func(ctx context.Context) error {
		seen = diag.Current(ctx)
		r.Notef(ctx, "visited")
		return nil
	})
	require.NoError(t, err)

	assert.True(t, u.Run(context.Background()))
	assert.NoError(t, u.Err())
	assert.Equal(t, e, seen.Element)
	require.Len(t, c.Items(), 1)
	assert.Equal(t, e, c.Items()[0].Element)
	assert.False(t, r.ErrorRaised())
}

func TestRunNilContext(t *testing.T) {
	r, c := setup()
	e := decl("A")
	var seen diag.Target
	u, err := ForElement(r, e, func(ctx context.Context) error {
		seen = diag.Current(ctx)
		return errors.New("boom")
	})
	require.NoError(t, err)

	var ctx context.Context
	var ok bool
	require.NotPanics(t, func() { ok = u.Run(ctx) })
	assert.False(t, ok)
	assert.Equal(t, e, seen.Element)
	require.Len(t, c.Filter(diag.Error), 1)
	assert.Equal(t, e, c.Items()[0].Element)

	units, err := ForElements(r, []model.Element{decl("B"), decl("C")}, func(context.Context, model.Element) error { return nil })
	require.NoError(t, err)
	require.NotPanics(t, func() { assert.Zero(t, RunAll(ctx, units, 1)) })
	units, err = ForElements(r, []model.Element{decl("D"), decl("E")}, func(context.Context, model.Element) error { return nil })
	require.NoError(t, err)
	require.NotPanics(t, func() { assert.Zero(t, RunAll(ctx, units, 4)) })
}

func TestRunOnce(t *testing.T) {
	r, c := setup()
	calls := 0
	u, err := ForElement(r, decl("A"), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	assert.True(t, u.Run(context.Background()))
	assert.False(t, u.Run(context.Background()))
	assert.Equal(t, 1, calls)
	require.Len(t, c.Filter(diag.Error), 1)
	assert.Contains(t, c.Items()[0].Message, "already ran")
}

// nest builds depth units, each running the next inside its step. The
// innermost one fails when fail is set.
func nest(t *testing.T, r *diag.Reporter, depth int, fail bool, check func(ctx context.Context, level int)) *Unit {
	t.Helper()
	var build func(level int) *Unit
	build = func(level int) *Unit {
		e := decl(fmt.Sprintf("L%d", level))
		u, err := ForElement(r, e, func(ctx context.Context) error {
			if level == depth {
				if fail {
					panic("innermost failed")
				}
				return nil
			}
			before := diag.Current(ctx)
			build(level + 1).Run(ctx)
			check(ctx, level)
			assert.Equal(t, before, diag.Current(ctx))
			return nil
		})
		require.NoError(t, err)
		return u
	}
	return build(1)
}

func TestNestedUnitsRestoreTarget(t *testing.T) {
	for depth := 1; depth <= 5; depth++ {
		for _, fail := range []bool{false, true} {
			t.Run(fmt.Sprintf("depth=%d fail=%v", depth, fail), func(t *testing.T) {
				r, c := setup()
				outer, _ := diag.Push(context.Background(), diag.Target{Element: decl("Outer")})
				u := nest(t, r, depth, fail, func(ctx context.Context, level int) {
					assert.Equal(t, fmt.Sprintf("L%d", level), diag.Current(ctx).Element.Name())
				})

				ok := u.Run(outer)
				assert.Equal(t, "Outer", diag.Current(outer).Element.Name())
				if fail {
					errs := c.Filter(diag.Error)
					require.Len(t, errs, 1)
					assert.Equal(t, fmt.Sprintf("L%d", depth), errs[0].Element.Name())
					assert.Equal(t, depth > 1, ok, "outer units absorb inner failures")
				} else {
					assert.True(t, ok)
					assert.Zero(t, c.Len())
				}
			})
		}
	}
}

func TestForElements(t *testing.T) {
	r, c := setup()
	elements := []model.Element{decl("A"), decl("B"), decl("C")}
	var visited []string
	units, err := ForElements(r, elements, func(ctx context.Context, e model.Element) error {
		visited = append(visited, e.Name())
		if e.Name() == "B" {
			return errors.New("no B")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, RunAll(context.Background(), units, 1))
	assert.Equal(t, []string{"A", "B", "C"}, visited)
	require.Len(t, c.Items(), 1)
	assert.Equal(t, "B", c.Items()[0].Element.Name())

	_, err = ForElements(r, []model.Element{decl("A"), nil}, noopElement)
	assert.True(t, errors.IsInvalidArgument(err))
}

func noopElement(context.Context, model.Element) error { return nil }
