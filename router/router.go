// Package router connects the code model to the host's output allocator.
//
// A Router is built once per round. It names every generated file
// "<package path>.<file name without .go>", asks the Filer for a sink tied to
// the markers that justified the round, and writes the provenance prolog,
// line endings and text encoding the round was configured with.
package router

import (
	"bytes"
	"io"
	"runtime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/teranos/annogen/codemodel"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/logger"
	"github.com/teranos/annogen/model"
	"github.com/teranos/annogen/version"
)

// Filer is the host's output-file allocator.
type Filer interface {
	// Create returns the sink for qualifiedName. justifying lists the markers
	// whose presence caused the file, for incremental rebuild tracking.
	Create(qualifiedName string, justifying []model.Marker) (io.WriteCloser, error)
}

// DefaultProlog is the standard generated-code marker recognised by go vet
// and gopls.
func DefaultProlog(generator string) string {
	if generator == "" {
		return "Code generated by " + version.Tool + ". DO NOT EDIT."
	}
	return "Code generated by " + version.Tool + " (" + generator + "). DO NOT EDIT."
}

// NativeLineSeparator is the platform line separator.
func NativeLineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// LineSeparator maps a configured line ending (native, lf, crlf) to its bytes.
func LineSeparator(name string) (string, error) {
	switch strings.ToLower(name) {
	case "", "native":
		return NativeLineSeparator(), nil
	case "lf":
		return "\n", nil
	case "crlf":
		return "\r\n", nil
	}
	return "", errors.NewInvalidArgumentError("unknown line ending %q (want native, lf or crlf)", name)
}

// Router is a codemodel.CodeWriter over a Filer.
type Router struct {
	filer      Filer
	justifying []model.Marker
	prolog     string
	header     string
	encName    string
	enc        encoding.Encoding
	sep        string
	writer     codemodel.CodeWriter
}

// Option configures a Router.
type Option func(*Router)

// WithProlog replaces the provenance prolog. Empty disables it.
func WithProlog(text string) Option {
	return func(r *Router) { r.prolog = text }
}

// WithHeader adds text after the prolog, such as a license notice.
func WithHeader(text string) Option {
	return func(r *Router) { r.header = strings.TrimRight(text, "\n") }
}

// WithEncoding sets the output encoding by IANA or WHATWG name
// ("utf-8", "iso-8859-1", "windows-1252", ...).
func WithEncoding(name string) Option {
	return func(r *Router) { r.encName = name }
}

// WithLineSeparator sets the line separator, "\n" or "\r\n".
func WithLineSeparator(sep string) Option {
	return func(r *Router) { r.sep = sep }
}

// New creates a router for one round.
func New(filer Filer, justifying []model.Marker, opts ...Option) (*Router, error) {
	if filer == nil {
		return nil, errors.NewInvalidArgumentError("router requires a filer")
	}
	r := &Router{
		filer:      filer,
		justifying: justifying,
		prolog:     DefaultProlog(""),
		encName:    "utf-8",
		sep:        NativeLineSeparator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sep != "\n" && r.sep != "\r\n" {
		return nil, errors.NewInvalidArgumentError("unsupported line separator %q", r.sep)
	}
	enc, err := lookupEncoding(r.encName)
	if err != nil {
		return nil, err
	}
	if name, _ := htmlindex.Name(enc); name != "utf-8" {
		r.enc = enc
	}
	prolog := r.prolog
	if r.header != "" {
		if prolog != "" {
			prolog += "\n\n"
		}
		prolog += r.header
	}
	r.writer = codemodel.NewPrologWriter(rawWriter{r}, prolog)
	return r, nil
}

// ValidateEncoding reports whether name is an encoding the router can write.
func ValidateEncoding(name string) error {
	_, err := lookupEncoding(name)
	return err
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "unknown encoding %q", name)
	}
	return enc, nil
}

// QualifiedName is the name a generated file is requested under.
func QualifiedName(pkgPath, fileName string) string {
	return pkgPath + "." + strings.TrimSuffix(fileName, codemodel.GoSuffix)
}

// SplitQualifiedName reverses QualifiedName. The package path ends at the
// first dot after its last slash; for paths without a slash, at the last dot.
func SplitQualifiedName(qn string) (pkgPath, baseName string, err error) {
	slash := strings.LastIndexByte(qn, '/')
	var dot int
	if slash < 0 {
		dot = strings.LastIndexByte(qn, '.')
	} else if i := strings.IndexByte(qn[slash+1:], '.'); i >= 0 {
		dot = slash + 1 + i
	} else {
		dot = -1
	}
	if dot <= 0 || dot == len(qn)-1 {
		return "", "", errors.NewInvalidArgumentError("malformed qualified name %q", qn)
	}
	return qn[:dot], qn[dot+1:], nil
}

// Justifying returns the markers passed to every Create call.
func (r *Router) Justifying() []model.Marker { return r.justifying }

func (r *Router) Open(pkg codemodel.Package, fileName string) (io.WriteCloser, error) {
	return r.writer.Open(pkg, fileName)
}

// Close releases nothing; each sink is closed by the code model.
func (r *Router) Close() error { return nil }

type rawWriter struct{ r *Router }

func (w rawWriter) Open(pkg codemodel.Package, fileName string) (io.WriteCloser, error) {
	r := w.r
	qn := QualifiedName(pkg.Path, fileName)
	sink, err := r.filer.Create(qn, r.justifying)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", qn)
	}
	logger.Logger.Debugw("Opened output",
		logger.FieldQualifiedName, qn,
		logger.FieldMarkers, r.justifying,
		logger.FieldEncoding, r.encName)

	out := &sinkChain{sink: sink, w: sink}
	if r.enc != nil {
		out.enc = transform.NewWriter(sink, r.enc.NewEncoder())
		out.w = out.enc
	}
	if r.sep != "\n" {
		out.w = &lineWriter{w: out.w, sep: []byte(r.sep)}
	}
	return out, nil
}

func (rawWriter) Close() error { return nil }

// sinkChain is the writer handed to the code model: text flows through line
// translation and encoding into the filer's sink.
type sinkChain struct {
	sink io.WriteCloser
	enc  io.WriteCloser
	w    io.Writer
}

func (s *sinkChain) Write(p []byte) (int, error) { return s.w.Write(p) }

func (s *sinkChain) Close() error {
	if s.enc != nil {
		if err := s.enc.Close(); err != nil {
			return errors.WithSecondaryError(errors.Wrap(err, "failed to encode output"), codemodel.Discard(s.sink))
		}
	}
	return s.sink.Close()
}

func (s *sinkChain) Abort() error { return codemodel.Discard(s.sink) }

type lineWriter struct {
	w   io.Writer
	sep []byte
}

func (l *lineWriter) Write(p []byte) (int, error) {
	if _, err := l.w.Write(bytes.ReplaceAll(p, []byte("\n"), l.sep)); err != nil {
		return 0, err
	}
	return len(p), nil
}
