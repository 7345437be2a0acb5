package model

import (
	"context"
	"go/ast"
	"go/token"
	"go/types"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/logger"
)

// LoadConfig controls how packages are loaded.
type LoadConfig struct {
	// Dir is the working directory for the go command, usually the module root.
	Dir string
	// Prefix is the directive prefix, DefaultPrefix when empty.
	Prefix string
	// Tests includes _test.go files.
	Tests bool
	// Env overrides the go command environment, nil inherits os.Environ.
	Env []string
	// BuildFlags are passed through to the go command (e.g. -tags).
	BuildFlags []string
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedModule

// Program is the loaded host program for one round.
type Program struct {
	Fset     *token.FileSet
	Packages []*packages.Package
	// ModulePath and ModuleDir describe the main module, empty outside module mode.
	ModulePath string
	ModuleDir  string
	// DirectiveErrors are malformed directives that were skipped.
	DirectiveErrors []*DirectiveError
	// PackageErrors are load and type errors. They do not abort loading
	// because sources commonly reference code that has not been generated yet.
	PackageErrors []packages.Error

	roots    []Element
	pkgDirs  map[string]string
	pkgNames map[string]string
}

// Load loads the packages matching patterns and indexes their annotated
// declarations.
func Load(ctx context.Context, cfg LoadConfig, patterns ...string) (*Program, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	fset := token.NewFileSet()
	pcfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        cfg.Dir,
		Env:        cfg.Env,
		BuildFlags: cfg.BuildFlags,
		Tests:      cfg.Tests,
		Fset:       fset,
	}
	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load packages %v", patterns)
	}
	if len(pkgs) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no packages found for %v", patterns)
	}

	p := &Program{
		Fset:     fset,
		Packages: pkgs,
		pkgDirs:  make(map[string]string),
		pkgNames: make(map[string]string),
	}
	for _, pkg := range pkgs {
		p.index(pkg, prefix)
	}

	logger.Logger.Debugw("Loaded packages",
		logger.FieldCount, len(pkgs),
		"elements", len(p.roots),
		logger.FieldErrors, len(p.PackageErrors),
		"directive_errors", len(p.DirectiveErrors))
	return p, nil
}

func (p *Program) index(pkg *packages.Package, prefix string) {
	if pkg.Module != nil && p.ModulePath == "" {
		p.ModulePath = pkg.Module.Path
		p.ModuleDir = pkg.Module.Dir
	}
	p.pkgNames[pkg.PkgPath] = pkg.Name
	if len(pkg.GoFiles) > 0 {
		p.pkgDirs[pkg.PkgPath] = filepath.Dir(pkg.GoFiles[0])
	}
	p.PackageErrors = append(p.PackageErrors, pkg.Errors...)
	if pkg.TypesInfo == nil {
		return
	}

	ix := &indexer{fset: p.Fset, pkg: pkg, prefix: prefix, types: make(map[string]*Decl)}
	for _, file := range pkg.Syntax {
		ix.file(file)
	}
	ix.attachMethods()
	p.roots = append(p.roots, ix.roots...)
	p.DirectiveErrors = append(p.DirectiveErrors, ix.errs...)
}

// Env returns the round environment backed by this program.
func (p *Program) Env(round int) *Env {
	return NewEnv(round, p.roots)
}

// RootElements returns the top-level declarations in load order.
func (p *Program) RootElements() []Element { return p.roots }

// PackageName returns the declared name of a loaded package.
func (p *Program) PackageName(importPath string) (string, bool) {
	name, ok := p.pkgNames[importPath]
	return name, ok
}

// PackageDir maps an import path to its directory. Packages that were not
// loaded, such as a new package that only holds generated code, resolve
// relative to the main module.
func (p *Program) PackageDir(importPath string) (string, bool) {
	if dir, ok := p.pkgDirs[importPath]; ok {
		return dir, true
	}
	if p.ModulePath == "" {
		return "", false
	}
	if importPath == p.ModulePath {
		return p.ModuleDir, true
	}
	if rel, ok := strings.CutPrefix(importPath, p.ModulePath+"/"); ok {
		return filepath.Join(p.ModuleDir, filepath.FromSlash(rel)), true
	}
	return "", false
}

type indexer struct {
	fset    *token.FileSet
	pkg     *packages.Package
	prefix  string
	roots   []Element
	types   map[string]*Decl
	methods []pendingMethod
	errs    []*DirectiveError
}

type pendingMethod struct {
	recv string
	decl *Decl
}

func (ix *indexer) file(file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			ix.genDecl(d)
		case *ast.FuncDecl:
			ix.funcDecl(d)
		}
	}
}

func (ix *indexer) newDecl(ident *ast.Ident, kind Kind, node ast.Node) *Decl {
	d := NewDecl(ident.Name, kind, ix.pkg.PkgPath, ix.fset.Position(ident.Pos()))
	d.node = node
	if obj := ix.pkg.TypesInfo.Defs[ident]; obj != nil {
		d.obj = obj
	}
	return d
}

func (ix *indexer) annotate(doc *ast.CommentGroup, d *Decl) {
	ix.errs = append(ix.errs, annotateFromDoc(ix.fset, ix.prefix, doc, d)...)
}

func (ix *indexer) genDecl(gd *ast.GenDecl) {
	for _, spec := range gd.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			d := ix.newDecl(s.Name, typeKind(s), s)
			if s.TypeParams != nil && s.TypeParams.NumFields() > 0 {
				d.mods |= ModGeneric
			}
			ix.annotate(docOf(s.Doc, gd.Doc), d)
			if st, ok := s.Type.(*ast.StructType); ok {
				ix.fields(d, st)
			}
			ix.types[d.name] = d
			ix.roots = append(ix.roots, d)
		case *ast.ValueSpec:
			kind := KindVar
			if gd.Tok == token.CONST {
				kind = KindConst
			}
			for _, name := range s.Names {
				if name.Name == "_" {
					continue
				}
				d := ix.newDecl(name, kind, s)
				ix.annotate(docOf(s.Doc, gd.Doc), d)
				ix.roots = append(ix.roots, d)
			}
		}
	}
}

func (ix *indexer) fields(owner *Decl, st *ast.StructType) {
	if st.Fields == nil {
		return
	}
	var tst *types.Struct
	if owner.obj != nil {
		tst, _ = owner.obj.Type().Underlying().(*types.Struct)
	}
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			name := embeddedName(f.Type)
			if name == "" {
				continue
			}
			d := NewDecl(name, KindField, ix.pkg.PkgPath, ix.fset.Position(f.Type.Pos()))
			d.node = f
			d.mods |= ModEmbedded
			d.obj = structField(tst, name)
			ix.annotate(f.Doc, d)
			owner.AddMember(d)
			continue
		}
		for _, name := range f.Names {
			d := ix.newDecl(name, KindField, f)
			ix.annotate(f.Doc, d)
			owner.AddMember(d)
		}
	}
}

func (ix *indexer) funcDecl(fd *ast.FuncDecl) {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		d := ix.newDecl(fd.Name, KindFunc, fd)
		if fd.Type.TypeParams != nil && fd.Type.TypeParams.NumFields() > 0 {
			d.mods |= ModGeneric
		}
		ix.annotate(fd.Doc, d)
		ix.roots = append(ix.roots, d)
		return
	}
	d := ix.newDecl(fd.Name, KindMethod, fd)
	recv, pointer := receiverName(fd.Recv.List[0].Type)
	if pointer {
		d.mods |= ModPointerReceiver
	}
	ix.annotate(fd.Doc, d)
	ix.methods = append(ix.methods, pendingMethod{recv: recv, decl: d})
}

// attachMethods runs after every file is indexed since methods may be
// declared in a different file than their receiver.
func (ix *indexer) attachMethods() {
	sort.SliceStable(ix.methods, func(i, j int) bool {
		a, b := ix.methods[i].decl.pos, ix.methods[j].decl.pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Offset < b.Offset
	})
	for _, m := range ix.methods {
		if owner, ok := ix.types[m.recv]; ok {
			owner.AddMember(m.decl)
			continue
		}
		ix.roots = append(ix.roots, m.decl)
	}
}

func docOf(own, group *ast.CommentGroup) *ast.CommentGroup {
	if own != nil {
		return own
	}
	return group
}

func typeKind(s *ast.TypeSpec) Kind {
	switch s.Type.(type) {
	case *ast.StructType:
		return KindStruct
	case *ast.InterfaceType:
		return KindInterface
	default:
		return KindNamedType
	}
}

func receiverName(expr ast.Expr) (name string, pointer bool) {
	if star, ok := expr.(*ast.StarExpr); ok {
		pointer = true
		expr = star.X
	}
	switch t := expr.(type) {
	case *ast.IndexExpr:
		expr = t.X
	case *ast.IndexListExpr:
		expr = t.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name, pointer
	}
	return "", pointer
}

func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	}
	return ""
}

func structField(st *types.Struct, name string) types.Object {
	if st == nil {
		return nil
	}
	for i := 0; i < st.NumFields(); i++ {
		if f := st.Field(i); f.Name() == name {
			return f
		}
	}
	return nil
}

// ImportName is the last element of an import path, the usual package name.
func ImportName(importPath string) string {
	return path.Base(importPath)
}
