// Package enum generates helpers for named string and integer types whose
// constants form an enumeration:
//
//	//annogen:enum
//	type Color string
//
// produces color_enum.go with ColorValues, a String method and ParseColor.
// Attributes string=false and parse=false turn off the method or the parser.
package enum

import (
	"context"
	"go/types"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/teranos/annogen/codemodel"
	"github.com/teranos/annogen/diag"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/model"
	"github.com/teranos/annogen/plugin"
	"github.com/teranos/annogen/process"
)

const Marker model.Marker = "enum"

const fileSuffix = "_enum"

// Processor implements plugin.InitializableProcessor.
type Processor struct {
	reporter    *diag.Reporter
	log         *zap.SugaredLogger
	concurrency int
}

func New() *Processor {
	return &Processor{log: zap.NewNop().Sugar(), concurrency: 1}
}

func (p *Processor) Name() string { return string(Marker) }

func (p *Processor) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:             string(Marker),
		Version:          "1.0.0",
		AnnogenVersion:   ">=0.4.0",
		SupportedMarkers: []model.Marker{Marker},
		Description:      "String, Values and Parse for constant enumerations",
	}
}

func (p *Processor) Initialize(ctx context.Context, services plugin.Services) error {
	p.reporter = services.Reporter()
	p.log = services.Logger(p.Name())
	p.concurrency = services.Concurrency()
	return nil
}

func (p *Processor) Generate(ctx context.Context, m *codemodel.Model, markers []model.Marker, env model.RoundEnv) (bool, error) {
	if env.ProcessingOver() || !contains(markers, Marker) {
		return false, nil
	}
	if p.reporter == nil {
		return false, errors.New("enum processor used before Initialize")
	}
	elements := env.ElementsAnnotatedWith(Marker)
	units, err := process.ForElements(p.reporter, elements, func(ctx context.Context, e model.Element) error {
		return p.generate(ctx, m, e)
	})
	if err != nil {
		return false, err
	}
	done := process.RunAll(ctx, units, p.concurrency)
	p.log.Debugw("Enums generated", "types", len(elements), "ok", done)
	return true, nil
}

func contains(markers []model.Marker, m model.Marker) bool {
	for _, x := range markers {
		if x == m {
			return true
		}
	}
	return false
}

// options are the enum annotation attributes.
type options struct {
	str   bool
	parse bool
}

// enumType is a named type and its constants in declaration order.
type enumType struct {
	name   string
	basic  *types.Basic
	consts []*types.Const
}

func (t *enumType) isString() bool { return t.basic.Info()&types.IsString != 0 }

// distinct returns the first constant of each value; Go rejects duplicate
// switch cases.
func (t *enumType) distinct() []*types.Const {
	seen := make(map[string]bool)
	var out []*types.Const
	for _, c := range t.consts {
		key := c.Val().ExactString()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func (p *Processor) generate(ctx context.Context, m *codemodel.Model, e model.Element) error {
	tn, ok := e.Object().(*types.TypeName)
	if !ok || e.Kind() != model.KindNamedType {
		return errors.Newf("%s is a %s; enum applies to named string and integer types", e.Name(), e.Kind())
	}
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return errors.Newf("%s is an alias; enum applies to defined types", e.Name())
	}
	basic, ok := named.Underlying().(*types.Basic)
	if !ok || basic.Info()&(types.IsString|types.IsInteger) == 0 {
		return errors.Newf("enum requires a string or integer type, %s is %s", e.Name(), named.Underlying())
	}

	var ann *model.Annotation
	for _, a := range e.Annotations() {
		if a.Marker == Marker {
			ann = a
			break
		}
	}
	opts, ok := p.options(ctx, e, ann)
	if !ok {
		return nil
	}

	t := &enumType{name: e.Name(), basic: basic, consts: constantsOf(named)}
	if len(t.consts) == 0 {
		p.reporter.Warnf(ctx, "%s has no constants; nothing generated", e.Name())
		return nil
	}
	if opts.str && hasMethod(named, "String") {
		p.reporter.Notef(ctx, "%s already declares String; not generating it", e.Name())
		opts.str = false
	}

	code := []jen.Code{values(t)}
	if opts.str {
		code = append(code, stringer(t))
	}
	if opts.parse {
		code = append(code, parser(t))
	}
	f := m.File(e.PkgPath(), tn.Pkg().Name(), strings.ToLower(e.Name())+fileSuffix)
	f.Add(code...)
	return nil
}

func (p *Processor) options(ctx context.Context, e model.Element, ann *model.Annotation) (options, bool) {
	opts := options{str: true, parse: true}
	valid := true
	for _, v := range ann.Values {
		var dst *bool
		switch v.Name {
		case "string":
			dst = &opts.str
		case "parse":
			dst = &opts.parse
		default:
			p.reporter.ReportTo(diag.Target{Element: e, Annotation: ann, Value: v}, diag.Warning,
				"unknown enum attribute %q", v.Name)
			continue
		}
		v := v
		u, err := process.ForValue(p.reporter, e, ann, v, func(context.Context) error {
			b, err := v.Bool()
			if err != nil {
				return err
			}
			*dst = b
			return nil
		})
		if err != nil || !u.Run(ctx) {
			valid = false
		}
	}
	return opts, valid
}

// constantsOf finds the package-level constants of type named, in source order.
func constantsOf(named *types.Named) []*types.Const {
	obj := named.Obj()
	if obj.Pkg() == nil {
		return nil
	}
	scope := obj.Pkg().Scope()
	var out []*types.Const
	for _, n := range scope.Names() {
		c, ok := scope.Lookup(n).(*types.Const)
		if ok && n != "_" && types.Identical(c.Type(), named) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos() < out[j].Pos() })
	return out
}

func hasMethod(named *types.Named, name string) bool {
	for i := 0; i < named.NumMethods(); i++ {
		if named.Method(i).Name() == name {
			return true
		}
	}
	return false
}

func ids(consts []*types.Const) []jen.Code {
	out := make([]jen.Code, len(consts))
	for i, c := range consts {
		out[i] = jen.Id(c.Name())
	}
	return out
}

func values(t *enumType) jen.Code {
	fn := t.name + "Values"
	return jen.Comment(fn+" returns every "+t.name+" constant in declaration order.").Line().
		Func().Id(fn).Params().Index().Id(t.name).Block(
		jen.Return(jen.Index().Id(t.name).Values(ids(t.consts)...)),
	)
}

func stringer(t *enumType) jen.Code {
	var body []jen.Code
	if t.isString() {
		body = []jen.Code{jen.Return(jen.String().Call(jen.Id("v")))}
	} else {
		var cases []jen.Code
		for _, c := range t.distinct() {
			cases = append(cases, jen.Case(jen.Id(c.Name())).Block(jen.Return(jen.Lit(c.Name()))))
		}
		body = []jen.Code{
			jen.Switch(jen.Id("v")).Block(cases...),
			jen.Return(jen.Qual("fmt", "Sprintf").Call(
				jen.Lit(t.name+"(%d)"), jen.Id(t.basic.Name()).Call(jen.Id("v")))),
		}
	}
	return jen.Comment("String returns the name of the "+t.name+".").Line().
		Func().Params(jen.Id("v").Id(t.name)).Id("String").Params().String().Block(body...)
}

func parser(t *enumType) jen.Code {
	fn := "Parse" + t.name
	fail := jen.Qual("fmt", "Errorf").Call(jen.Lit("invalid "+t.name+" %q"), jen.Id("s"))

	if t.isString() {
		return jen.Comment(fn+" returns the "+t.name+" whose value is s.").Line().
			Func().Id(fn).Params(jen.Id("s").String()).Params(jen.Id(t.name), jen.Error()).Block(
			jen.Switch(jen.Id(t.name).Call(jen.Id("s"))).Block(
				jen.Case(ids(t.distinct())...).Block(jen.Return(jen.Id(t.name).Call(jen.Id("s")), jen.Nil())),
			),
			jen.Return(jen.Lit(""), fail),
		)
	}

	var cases []jen.Code
	for _, c := range t.consts {
		cases = append(cases, jen.Case(jen.Lit(c.Name())).Block(jen.Return(jen.Id(c.Name()), jen.Nil())))
	}
	return jen.Comment(fn+" returns the "+t.name+" named s.").Line().
		Func().Id(fn).Params(jen.Id("s").String()).Params(jen.Id(t.name), jen.Error()).Block(
		jen.Switch(jen.Id("s")).Block(cases...),
		jen.Return(jen.Lit(0), fail),
	)
}
