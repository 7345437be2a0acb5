package diag

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"

	"github.com/teranos/annogen/logger"
	"github.com/teranos/annogen/model"
)

// Console prints diagnostics as "file:line:col: kind: message" lines and
// mirrors them into the zap logger.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	// MinKind suppresses diagnostics below this kind.
	MinKind Kind
}

// NewConsole writes to out, os.Stderr when nil.
func NewConsole(out io.Writer, color bool) *Console {
	if out == nil {
		out = os.Stderr
	}
	return &Console{out: out, color: color, MinKind: Other}
}

func (c *Console) PrintMessage(d Diagnostic) {
	mirror(d)
	if d.Kind < c.MinKind {
		return
	}
	kind := d.Kind.String()
	if c.color {
		kind = colorKind(d.Kind)
	}
	line := fmt.Sprintf("%s: %s", kind, d.Message)
	if d.Pos.IsValid() {
		line = fmt.Sprintf("%s: %s", d.Pos, line)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

func colorKind(k Kind) string {
	switch k {
	case Error:
		return pterm.Red(k.String())
	case Warning:
		return pterm.Yellow(k.String())
	case Note:
		return pterm.Cyan(k.String())
	}
	return pterm.Gray(k.String())
}

// mirror logs the diagnostic. In JSON mode the entry carries the severity so
// log pipelines see diagnostics; on the console it stays at debug to avoid
// printing everything twice.
func mirror(d Diagnostic) {
	fields := []interface{}{logger.FieldKind, d.Kind.String()}
	if d.Attributed() {
		fields = append(fields, logger.FieldElement, model.QualifiedName(d.Element))
	}
	if d.Annotation != nil {
		fields = append(fields, logger.FieldAnnotation, string(d.Annotation.Marker))
	}
	if d.Value != nil {
		fields = append(fields, logger.FieldAttribute, d.Value.Name)
	}
	if d.Pos.IsValid() {
		fields = append(fields, logger.FieldFile, d.Pos.String())
	}

	if !logger.JSONOutput {
		logger.Logger.Debugw(d.Message, fields...)
		return
	}
	switch d.Kind {
	case Error:
		logger.Logger.Errorw(d.Message, fields...)
	case Warning:
		logger.Logger.Warnw(d.Message, fields...)
	default:
		logger.Logger.Infow(d.Message, fields...)
	}
}
