package model

import "sort"

// RoundEnv is the query surface a processor sees for one round.
type RoundEnv interface {
	// Round is the 1-based round number.
	Round() int
	// RootElements are the top-level declarations loaded for this round.
	RootElements() []Element
	// ElementsAnnotatedWith returns every element, including fields and
	// methods, that carries marker m, in source order.
	ElementsAnnotatedWith(m Marker) []Element
	// Markers lists the distinct markers present, sorted.
	Markers() []Marker
	// ProcessingOver is true for the final round, which has no root elements.
	ProcessingOver() bool
	// ErrorRaised reports whether an ERROR diagnostic was raised in a
	// previous round.
	ErrorRaised() bool
}

// Env is the RoundEnv implementation shared by Program and hand-built rounds.
type Env struct {
	round       int
	roots       []Element
	over        bool
	errorRaised func() bool
}

// NewEnv creates a round environment over roots.
func NewEnv(round int, roots []Element) *Env {
	return &Env{round: round, roots: roots}
}

// Over marks the environment as the final round and clears its roots.
func (e *Env) Over() *Env {
	e.over = true
	e.roots = nil
	return e
}

// WithErrorRaised sets the callback backing ErrorRaised.
func (e *Env) WithErrorRaised(fn func() bool) *Env {
	e.errorRaised = fn
	return e
}

func (e *Env) Round() int              { return e.round }
func (e *Env) RootElements() []Element { return e.roots }
func (e *Env) ProcessingOver() bool    { return e.over }

func (e *Env) ErrorRaised() bool {
	if e.errorRaised == nil {
		return false
	}
	return e.errorRaised()
}

func (e *Env) ElementsAnnotatedWith(m Marker) []Element {
	var result []Element
	walk(e.roots, func(el Element) {
		for _, a := range el.Annotations() {
			if a.Marker == m {
				result = append(result, el)
				return
			}
		}
	})
	return result
}

func (e *Env) Markers() []Marker {
	seen := make(map[Marker]bool)
	walk(e.roots, func(el Element) {
		for _, a := range el.Annotations() {
			seen[a.Marker] = true
		}
	})
	markers := make([]Marker, 0, len(seen))
	for m := range seen {
		markers = append(markers, m)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i] < markers[j] })
	return markers
}

// Annotations returns every annotation with marker m across the round.
func Annotations(env RoundEnv, m Marker) []*Annotation {
	var result []*Annotation
	for _, el := range env.ElementsAnnotatedWith(m) {
		for _, a := range el.Annotations() {
			if a.Marker == m {
				result = append(result, a)
			}
		}
	}
	return result
}

type memberer interface {
	Members() []*Decl
}

func walk(elements []Element, fn func(Element)) {
	for _, el := range elements {
		if IsNil(el) {
			continue
		}
		fn(el)
		if m, ok := el.(memberer); ok {
			for _, member := range m.Members() {
				fn(member)
			}
		}
	}
}
