package model

import (
	"go/types"
	"strings"
)

// Modifier is a bit set of declaration properties processors commonly filter on.
type Modifier uint8

const (
	ModExported Modifier = 1 << iota
	ModGeneric
	ModEmbedded
	ModPointerReceiver
)

// Has reports whether all bits in m are set.
func (mod Modifier) Has(m Modifier) bool { return mod&m == m }

func (mod Modifier) String() string {
	var parts []string
	if mod.Has(ModExported) {
		parts = append(parts, "exported")
	}
	if mod.Has(ModGeneric) {
		parts = append(parts, "generic")
	}
	if mod.Has(ModEmbedded) {
		parts = append(parts, "embedded")
	}
	if mod.Has(ModPointerReceiver) {
		parts = append(parts, "pointer-receiver")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// FilterByModifier returns the elements carrying every modifier in mods.
// With no modifiers all elements are returned.
func FilterByModifier[E Element](elements []E, mods ...Modifier) []E {
	var want Modifier
	for _, m := range mods {
		want |= m
	}
	result := make([]E, 0, len(elements))
	for _, e := range elements {
		if e.Modifiers().Has(want) {
			result = append(result, e)
		}
	}
	return result
}

// TypeParams returns the type parameters of a generic named type or function.
func TypeParams(e Element) *types.TypeParamList {
	if IsNil(e) || e.Object() == nil {
		return nil
	}
	switch obj := e.Object().(type) {
	case *types.TypeName:
		if named, ok := obj.Type().(*types.Named); ok {
			return named.TypeParams()
		}
	case *types.Func:
		if sig, ok := obj.Type().(*types.Signature); ok {
			return sig.TypeParams()
		}
	}
	return nil
}

// StructType returns the underlying struct of a struct element.
func StructType(e Element) (*types.Struct, bool) {
	if IsNil(e) || e.Object() == nil {
		return nil, false
	}
	st, ok := e.Object().Type().Underlying().(*types.Struct)
	return st, ok
}
