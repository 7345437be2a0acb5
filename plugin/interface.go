// Package plugin provides the processor architecture for annogen.
//
// A processor handles one or more markers. The host driver offers each
// processor the markers it supports that occur in a round; a processor that
// claims its markers hides them from processors later in the order.
//
// Architecture:
//   - Processors are compiled in and registered with a Registry at startup
//   - Every processor implements round.Generator plus Metadata
//   - Processors never talk to each other; they only share the round's code model
package plugin

import (
	"context"

	"github.com/teranos/annogen/model"
	"github.com/teranos/annogen/round"
)

// AnyMarker in SupportedMarkers makes a processor see every marker.
const AnyMarker model.Marker = "*"

// Processor defines the interface every annotation processor implements.
type Processor interface {
	round.Generator

	// Metadata returns information about this processor
	Metadata() Metadata
}

// Metadata describes a processor
type Metadata struct {
	// Name is the processor identifier (e.g., "builder", "enum")
	Name string `json:"name"`

	// Version is the processor version (semver)
	Version string `json:"version"`

	// AnnogenVersion is the required annogen version (semver constraint)
	AnnogenVersion string `json:"annogen_version"`

	// SupportedMarkers lists the markers the processor handles
	SupportedMarkers []model.Marker `json:"supported_markers"`

	// Description is a human-readable description
	Description string `json:"description"`
}

// Supports reports whether the processor handles marker m.
func (m Metadata) Supports(marker model.Marker) bool {
	for _, s := range m.SupportedMarkers {
		if s == marker || s == AnyMarker {
			return true
		}
	}
	return false
}

// InitializableProcessor is an optional interface for processors that need
// services (configuration, reporter) before the first round.
type InitializableProcessor interface {
	Processor

	// Initialize is called once per run, before the first round.
	Initialize(ctx context.Context, services Services) error
}
