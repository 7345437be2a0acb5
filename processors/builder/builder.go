// Package builder generates fluent builders for annotated structs.
//
//	//annogen:builder name=PointMaker
//	type Point struct {
//		X, Y int
//		//annogen:builder skip
//		cache string
//	}
//
// produces point_builder.go with NewPointMaker, one setter per field and
// Build. Type parameters of generic structs carry over to the builder.
package builder

import (
	"context"
	"go/token"
	"go/types"
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

// Marker is the directive this processor handles.
const Marker model.Marker = "builder"

// DefaultFileSuffix is appended to the lower-cased struct name.
const DefaultFileSuffix = "_builder"

// Attributes recognized on the struct and field annotations.
const (
	attrName = "name"
	attrSkip = "skip"
)

// Processor implements plugin.InitializableProcessor.
type Processor struct {
	reporter    *diag.Reporter
	log         *zap.SugaredLogger
	concurrency int
	fileSuffix  string
}

// New creates the builder processor. It must be initialized before use.
func New() *Processor {
	return &Processor{
		log:         zap.NewNop().Sugar(),
		concurrency: 1,
		fileSuffix:  DefaultFileSuffix,
	}
}

func (p *Processor) Name() string { return string(Marker) }

func (p *Processor) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:             string(Marker),
		Version:          "1.0.0",
		AnnogenVersion:   ">=0.4.0",
		SupportedMarkers: []model.Marker{Marker},
		Description:      "Fluent builders for structs",
	}
}

// Initialize reads [processors.builder]:
//
//	file_suffix = "_builder"
func (p *Processor) Initialize(ctx context.Context, services plugin.Services) error {
	p.reporter = services.Reporter()
	p.log = services.Logger(p.Name())
	p.concurrency = services.Concurrency()

	cfg := services.Config(p.Name())
	if cfg.IsSet("file_suffix") {
		suffix := cfg.GetString("file_suffix")
		if suffix == "" || strings.ContainsAny(suffix, `/\`) {
			return errors.NewInvalidArgumentError("processors.builder.file_suffix %q is not a valid file name suffix", suffix)
		}
		p.fileSuffix = suffix
	}
	return nil
}

func (p *Processor) Generate(ctx context.Context, m *codemodel.Model, markers []model.Marker, env model.RoundEnv) (bool, error) {
	if env.ProcessingOver() || !offered(markers) {
		return false, nil
	}
	if p.reporter == nil {
		return false, errors.New("builder processor used before Initialize")
	}

	var structs []model.Element
	for _, e := range env.ElementsAnnotatedWith(Marker) {
		if e.Kind() != model.KindField {
			structs = append(structs, e)
			continue
		}
		if owner := e.Enclosing(); model.IsNil(owner) || annotation(owner) == nil {
			p.reporter.ReportTo(diag.Target{Element: e, Annotation: annotation(e)}, diag.Warning,
				"builder annotation on field %s has no effect without a builder annotation on its struct", e.Name())
		}
	}

	units, err := process.ForElements(p.reporter, structs, func(ctx context.Context, e model.Element) error {
		return p.build(ctx, m, e)
	})
	if err != nil {
		return false, err
	}
	done := process.RunAll(ctx, units, p.concurrency)
	p.log.Debugw("Builders generated", "structs", len(structs), "ok", done)
	return true, nil
}

func offered(markers []model.Marker) bool {
	for _, m := range markers {
		if m == Marker {
			return true
		}
	}
	return false
}

func annotation(e model.Element) *model.Annotation {
	for _, a := range e.Annotations() {
		if a.Marker == Marker {
			return a
		}
	}
	return nil
}

// field is one settable struct field.
type field struct {
	name  string
	param string
	typ   types.Type
}

func (p *Processor) build(ctx context.Context, m *codemodel.Model, e model.Element) error {
	st, ok := model.StructType(e)
	if !ok {
		if e.Object() == nil {
			return errors.Newf("no type information for %s", e.Name())
		}
		return errors.Newf("%s is a %s; builder applies to structs", e.Name(), e.Kind())
	}
	ann := annotation(e)

	name := e.Name() + "Builder"
	for _, v := range ann.Values {
		if v.Name == attrName {
			continue
		}
		p.reporter.ReportTo(diag.Target{Element: e, Annotation: ann, Value: v}, diag.Warning,
			"unknown builder attribute %q", v.Name)
	}
	if v, ok := ann.Value(attrName); ok {
		ok := p.checkValue(ctx, e, ann, v, func() error {
			if !token.IsIdentifier(v.Raw) {
				return errors.Newf("name %q is not a valid identifier", v.Raw)
			}
			if !token.IsExported(v.Raw) && token.IsExported(e.Name()) {
				return errors.Newf("name %q must be exported like %s", v.Raw, e.Name())
			}
			return nil
		})
		if !ok {
			return nil
		}
		name = v.Raw
	}

	fields, ok := p.fields(ctx, e, st)
	if !ok {
		return nil
	}

	pkgName := ""
	if pkg := e.Object().Pkg(); pkg != nil {
		pkgName = pkg.Name()
	}
	f := m.File(e.PkgPath(), pkgName, strings.ToLower(e.Name())+p.fileSuffix)
	f.Add(declarations(e.Name(), name, model.TypeParams(e), fields)...)
	return nil
}

// fields collects the settable fields of st. Field annotations are checked
// in their own units so a bad value is reported on the value itself.
func (p *Processor) fields(ctx context.Context, e model.Element, st *types.Struct) ([]field, bool) {
	members := make(map[string]model.Element)
	if d, ok := e.(interface{ Members() []*model.Decl }); ok {
		for _, mem := range d.Members() {
			if mem.Kind() == model.KindField {
				members[mem.Name()] = mem
			}
		}
	}

	var out []field
	valid := true
	for i := 0; i < st.NumFields(); i++ {
		v := st.Field(i)
		if v.Name() == "_" {
			continue
		}
		skip := false
		if mem, ok := members[v.Name()]; ok {
			if a := annotation(mem); a != nil {
				s, ok := p.skipValue(ctx, mem, a)
				if !ok {
					valid = false
					continue
				}
				skip = s
			}
		}
		if skip {
			continue
		}
		if v.Name() == "Build" {
			p.reporter.ReportTo(diag.Target{Element: members[v.Name()]}, diag.Error,
				"field Build of %s collides with the Build method; skip it", e.Name())
			valid = false
			continue
		}
		param := codemodel.Unexported(v.Name())
		if param == "b" {
			param = "value"
		}
		out = append(out, field{name: v.Name(), param: param, typ: v.Type()})
	}
	return out, valid
}

func (p *Processor) skipValue(ctx context.Context, mem model.Element, a *model.Annotation) (skip, ok bool) {
	v, found := a.Value(attrSkip)
	if !found {
		return false, true
	}
	ok = p.checkValue(ctx, mem, a, v, func() error {
		var err error
		skip, err = v.Bool()
		return err
	})
	return skip, ok
}

// checkValue runs check as a unit of work attributed to v.
func (p *Processor) checkValue(ctx context.Context, e model.Element, a *model.Annotation, v *model.Value, check func() error) bool {
	u, err := process.ForValue(p.reporter, e, a, v, func(context.Context) error { return check() })
	if err != nil {
		return false
	}
	return u.Run(ctx)
}

func declarations(target, name string, tparams *types.TypeParamList, fields []field) []jen.Code {
	params := codemodel.TypeParams(tparams)
	args := codemodel.TypeArgs(tparams)
	self := func() *jen.Statement { return withTypes(jen.Id(name), args) }
	recv := func() *jen.Statement { return jen.Id("b").Op("*").Add(self()) }

	code := []jen.Code{
		jen.Comment(name + " builds " + target + " values.").Line().
			Type().Add(withTypes(jen.Id(name), params)).Struct(
			jen.Id("v").Add(withTypes(jen.Id(target), args)),
		),
		jen.Comment("New" + name + " returns an empty " + name + ".").Line().
			Func().Add(withTypes(jen.Id("New"+name), params)).Params().Op("*").Add(self()).Block(
			jen.Return(jen.Op("&").Add(self()).Values()),
		),
	}
	for _, f := range fields {
		code = append(code, jen.Comment(f.name+" sets "+target+"."+f.name+".").Line().
			Func().Params(recv()).Id(f.name).Params(jen.Id(f.param).Add(codemodel.TypeOf(f.typ))).Op("*").Add(self()).Block(
			jen.Id("b").Dot("v").Dot(f.name).Op("=").Id(f.param),
			jen.Return(jen.Id("b")),
		))
	}
	code = append(code, jen.Comment("Build returns the built "+target+".").Line().
		Func().Params(recv()).Id("Build").Params().Add(withTypes(jen.Id(target), args)).Block(
		jen.Return(jen.Id("b").Dot("v")),
	))
	return code
}

func withTypes(s *jen.Statement, codes []jen.Code) *jen.Statement {
	if len(codes) == 0 {
		return s
	}
	return s.Types(codes...)
}
