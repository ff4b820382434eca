// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/casapropia/geocheck/internal/geo"
	"github.com/casapropia/geocheck/internal/vartype"
)

var (
	// ErrNoResult is returned when a provider answers without a usable candidate.
	ErrNoResult = errors.New("no result returned by provider")
	// ErrOutOfBounds is returned when the candidate lies outside the Chile bounding box.
	ErrOutOfBounds = errors.New("result is outside Chile bounds")
	// ErrMissingCredential is returned without a network call when a provider needs an API
	// credential that is not configured.
	ErrMissingCredential = errors.New("provider credential is not configured")
	// ErrInvalidCoordinates is returned when no numeric coordinate could be read from a candidate.
	ErrInvalidCoordinates = errors.New("candidate has no valid coordinates")
)

// Result is the normalized top candidate of one forward geocoding call. Empty strings
// mean the provider did not supply the field.
type Result struct {
	Provider    string
	DisplayName string
	Point       geo.Point
	Comuna      string
	Region      string
	HouseNumber string
	Relevance   vartype.VarFloat64
	Raw         json.RawMessage
}

// Geocoder resolves a free-text address into its best candidate. Implementations never
// retry and report every failure as an error.
type Geocoder interface {
	Name() string
	Search(ctx context.Context, address string) (Result, error)
}
