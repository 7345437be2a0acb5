package codemodel

import (
	"io"
	"strings"

	"github.com/teranos/annogen/errors"
)

// CodeWriter receives rendered files from Model.Build.
type CodeWriter interface {
	// Open returns the sink for one file. Build closes it.
	Open(pkg Package, fileName string) (io.WriteCloser, error)
	// Close is called once after the last file.
	Close() error
}

// Aborter is implemented by sinks that can discard partial output instead
// of committing it on Close.
type Aborter interface {
	Abort() error
}

// Discard aborts sink when it supports it and closes it otherwise.
func Discard(sink io.WriteCloser) error {
	if a, ok := sink.(Aborter); ok {
		return a.Abort()
	}
	return sink.Close()
}

// PrologWriter decorates a CodeWriter so every file starts with a comment
// prolog, one "// " line per line of text, followed by a blank line.
type PrologWriter struct {
	inner  CodeWriter
	prolog string
}

// NewPrologWriter wraps inner. An empty prolog writes nothing.
func NewPrologWriter(inner CodeWriter, prolog string) *PrologWriter {
	return &PrologWriter{inner: inner, prolog: prolog}
}

func (p *PrologWriter) Open(pkg Package, fileName string) (io.WriteCloser, error) {
	sink, err := p.inner.Open(pkg, fileName)
	if err != nil {
		return nil, err
	}
	if err := WriteProlog(sink, p.prolog); err != nil {
		return nil, errors.WithSecondaryError(err, Discard(sink))
	}
	return sink, nil
}

func (p *PrologWriter) Close() error { return p.inner.Close() }

// WriteProlog writes text as line comments followed by a blank line, so the
// prolog never becomes the package doc comment.
func WriteProlog(w io.Writer, text string) error {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteString("//\n")
			continue
		}
		b.WriteString("// ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "failed to write prolog")
}
