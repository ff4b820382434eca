// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"encoding/json"
	"strings"

	"github.com/casapropia/geocheck/internal/geo"
	"github.com/casapropia/geocheck/internal/vartype"
)

// Context kinds used to read administrative names from a suggestion.
const (
	ContextPlace    = "place"
	ContextLocality = "locality"
	ContextRegion   = "region"
)

// Suggestion is one autocomplete candidate. It round-trips through JSON so a caller can
// submit a previously picked suggestion back for validation.
type Suggestion struct {
	ID             string             `json:"id"`
	DisplayName    string             `json:"display_name"`
	ShortText      string             `json:"short_text"`
	HouseNumber    string             `json:"house_number,omitempty"`
	Center         *geo.Point         `json:"center,omitempty"`
	Geometry       *Geometry          `json:"geometry,omitempty"`
	PlaceTypes     []string           `json:"place_types"`
	Properties     map[string]any     `json:"properties,omitempty"`
	RoutablePoints []RoutablePoint    `json:"routable_points,omitempty"`
	Context        []ContextEntry     `json:"context"`
	Relevance      vartype.VarFloat64 `json:"relevance"`

	// Raw holds the provider payload the suggestion was read from, if any.
	Raw json.RawMessage `json:"-"`
}

// Geometry is a GeoJSON point geometry. Coordinates are in [lon, lat] order.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// RoutablePoint is a navigation entry point. Coordinates are in [lon, lat] order.
type RoutablePoint struct {
	Name        string    `json:"name"`
	Coordinates []float64 `json:"coordinates"`
}

// ContextEntry is one administrative entity the suggestion belongs to.
type ContextEntry struct {
	ID        string `json:"id"`
	Kind      string `json:"kind,omitempty"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code,omitempty"`
}

// EntryKind returns the kind of the entry, falling back to the "kind.id" prefix of its ID.
func (c ContextEntry) EntryKind() string {
	if c.Kind != "" {
		return c.Kind
	}
	kind, _, found := strings.Cut(c.ID, ".")
	if !found {
		return ""
	}
	return kind
}

// ResolvePoint returns the coordinate to trust for the suggestion: the first routable
// point, then the geometry, then the center. The first finite pair wins.
func (s Suggestion) ResolvePoint() (geo.Point, bool) {
	for _, rp := range s.RoutablePoints {
		if p, ok := lonLat(rp.Coordinates); ok {
			return p, true
		}
	}
	if s.Geometry != nil {
		if p, ok := lonLat(s.Geometry.Coordinates); ok {
			return p, true
		}
	}
	if s.Center != nil && s.Center.Valid() {
		return *s.Center, true
	}
	return geo.Point{}, false
}

// StreetNumber returns the structured house number, or the one found in the display name.
func (s Suggestion) StreetNumber() string {
	if s.HouseNumber != "" {
		return s.HouseNumber
	}
	return ExtractHouseNumber(s.DisplayName)
}

// Comuna returns the name of the place (or locality) context entry.
func (s Suggestion) Comuna() string {
	if name := s.contextText(ContextPlace); name != "" {
		return name
	}
	return s.contextText(ContextLocality)
}

// Region returns the name of the region context entry.
func (s Suggestion) Region() string {
	return s.contextText(ContextRegion)
}

// Result converts the suggestion into a geocoding result for the given provider. It fails
// if no coordinate can be resolved.
func (s Suggestion) Result(provider string) (Result, bool) {
	point, ok := s.ResolvePoint()
	if !ok {
		return Result{}, false
	}
	return Result{
		Provider:    provider,
		DisplayName: s.DisplayName,
		Point:       point,
		Comuna:      s.Comuna(),
		Region:      s.Region(),
		HouseNumber: s.StreetNumber(),
		Relevance:   s.Relevance,
		Raw:         s.Payload(),
	}, true
}

// Payload returns the raw provider payload, or the JSON encoding of the suggestion when the
// suggestion was not read from a provider response.
func (s Suggestion) Payload() json.RawMessage {
	if len(s.Raw) > 0 {
		return s.Raw
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return data
}

func (s Suggestion) contextText(kind string) string {
	for _, entry := range s.Context {
		if entry.EntryKind() == kind {
			return entry.Text
		}
	}
	return ""
}

func lonLat(coords []float64) (geo.Point, bool) {
	if len(coords) < 2 {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: coords[1], Lon: coords[0]}
	return p, p.Valid()
}
