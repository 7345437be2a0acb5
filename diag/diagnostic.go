package diag

import (
	"fmt"
	"go/token"

	"github.com/teranos/annogen/model"
)

// Diagnostic is one message handed to a Messager.
type Diagnostic struct {
	Kind    Kind
	Message string
	// Element, Annotation and Value are set as far as the reporting target
	// had them; all nil for an unattributed diagnostic.
	Element    model.Element
	Annotation *model.Annotation
	Value      *model.Value
	Pos        token.Position
}

// Attributed reports whether the diagnostic names a declaration.
func (d Diagnostic) Attributed() bool { return !model.IsNil(d.Element) }

// Target returns the attribution as a Target.
func (d Diagnostic) Target() Target {
	return Target{Element: d.Element, Annotation: d.Annotation, Value: d.Value}
}

// String renders the diagnostic the way the go tool prints errors:
// "file:line:col: kind: message".
func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Messager is the host's message-reporting facility.
type Messager interface {
	PrintMessage(d Diagnostic)
}

// MessagerFunc adapts a function to Messager.
type MessagerFunc func(d Diagnostic)

func (f MessagerFunc) PrintMessage(d Diagnostic) { f(d) }

// Tee forwards every diagnostic to each Messager in order.
type Tee []Messager

func (t Tee) PrintMessage(d Diagnostic) {
	for _, m := range t {
		if m != nil {
			m.PrintMessage(d)
		}
	}
}

// Discard drops every diagnostic.
var Discard Messager = MessagerFunc(func(Diagnostic) {})
