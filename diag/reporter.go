package diag

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/teranos/annogen/errors"
)

// Reporter formats diagnostics, attributes them to the current target and
// forwards them to a Messager. It is safe for concurrent use as long as the
// Messager is.
type Reporter struct {
	sink   Messager
	counts [Error + 1]atomic.Int64
}

// NewReporter creates a Reporter writing to sink. A nil sink discards.
func NewReporter(sink Messager) *Reporter {
	if sink == nil {
		sink = Discard
	}
	return &Reporter{sink: sink}
}

// Report sends a diagnostic attributed to Current(ctx). The message is only
// passed through fmt when args are given, so a literal "%" survives.
func (r *Reporter) Report(ctx context.Context, kind Kind, format string, args ...interface{}) {
	r.ReportTo(Current(ctx), kind, format, args...)
}

// ReportTo sends a diagnostic attributed to an explicit target.
func (r *Reporter) ReportTo(t Target, kind Kind, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	if kind >= Other && kind <= Error {
		r.counts[kind].Add(1)
	}
	r.sink.PrintMessage(Diagnostic{
		Kind:       kind,
		Message:    msg,
		Element:    t.Element,
		Annotation: t.Annotation,
		Value:      t.Value,
		Pos:        t.Pos(),
	})
}

func (r *Reporter) Errorf(ctx context.Context, format string, args ...interface{}) {
	r.Report(ctx, Error, format, args...)
}

func (r *Reporter) Warnf(ctx context.Context, format string, args ...interface{}) {
	r.Report(ctx, Warning, format, args...)
}

func (r *Reporter) Notef(ctx context.Context, format string, args ...interface{}) {
	r.Report(ctx, Note, format, args...)
}

// Validate reports an error when cond is false and returns cond.
func (r *Reporter) Validate(ctx context.Context, cond bool, format string, args ...interface{}) bool {
	if !cond {
		r.Report(ctx, Error, format, args...)
	}
	return cond
}

// Fail reports an error whose message is the formatted text followed by the
// rendered cause chain and stack trace of err.
func (r *Reporter) Fail(ctx context.Context, err error, format string, args ...interface{}) {
	var b strings.Builder
	if len(args) > 0 {
		fmt.Fprintf(&b, format, args...)
	} else {
		b.WriteString(format)
	}
	if err != nil {
		b.WriteString("\n")
		b.WriteString(errors.Trace(err))
	}
	r.Report(ctx, Error, "%s", b.String())
}

// ErrorRaised reports whether any Error diagnostic has been reported.
func (r *Reporter) ErrorRaised() bool { return r.Count(Error) > 0 }

// Count returns how many diagnostics of kind were reported.
func (r *Reporter) Count(kind Kind) int {
	if kind < Other || kind > Error {
		return 0
	}
	return int(r.counts[kind].Load())
}
