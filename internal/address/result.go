// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package address

import (
	"encoding/json"
	"strings"

	"github.com/casapropia/geocheck/internal/geo"
	"github.com/casapropia/geocheck/internal/geocode"
	"github.com/casapropia/geocheck/internal/vartype"
)

// Rejection reasons reported in Result.Reason.
const (
	ReasonMissingHouseNumber  = "missing house number"
	ReasonNoMatches           = "no matches"
	ReasonLowConfidence       = "low geocoder confidence"
	ReasonComunaMismatch      = "comuna mismatch"
	ReasonRegionMismatch      = "region mismatch"
	ReasonHouseNumberMismatch = "house number mismatch"
	ReasonOutsideBounds       = "outside Chile bounds"
	ReasonInvalidCoordinates  = "invalid coordinates"
	ReasonMissingCredential   = "cannot validate, missing credential"
)

// Request asks for one address to be validated. With a nil Feature the Address text is
// geocoded from scratch. With a Feature, the previously picked suggestion is checked and
// Query is an optional free-text address used to cross-check it.
type Request struct {
	Address string              `json:"address" validate:"required_without=Feature,max=300"`
	Comuna  string              `json:"comuna,omitempty" validate:"max=100"`
	Region  string              `json:"region,omitempty" validate:"max=100"`
	Feature *geocode.Suggestion `json:"feature,omitempty"`
	Query   string              `json:"query,omitempty" validate:"max=300"`
}

// HouseNumber returns the house number the caller asked for.
func (r Request) HouseNumber() string {
	if r.Feature == nil {
		return geocode.ExtractHouseNumber(r.Address)
	}
	if number := geocode.ExtractHouseNumber(r.Query); number != "" {
		return number
	}
	return geocode.ExtractHouseNumber(r.Feature.DisplayName)
}

// searchText returns the free text sent to the providers: the address (or query) followed
// by the comuna and region hints.
func (r Request) searchText() string {
	text := r.Address
	if r.Feature != nil {
		text = r.Query
	}
	parts := []string{strings.TrimSpace(text)}
	for _, hint := range []string{r.Comuna, r.Region} {
		hint = strings.TrimSpace(hint)
		if hint == "" || strings.Contains(strings.ToLower(parts[0]), strings.ToLower(hint)) {
			continue
		}
		parts = append(parts, hint)
	}
	return strings.Join(parts, ", ")
}

// Result is the outcome of a validation. Reason is set if and only if Valid is false.
type Result struct {
	Valid       bool               `json:"valid"`
	Reason      string             `json:"reason,omitempty"`
	DisplayName string             `json:"normalized_address,omitempty"`
	Point       *geo.Point         `json:"point,omitempty"`
	Comuna      string             `json:"comuna,omitempty"`
	Region      string             `json:"region,omitempty"`
	Provider    string             `json:"provider,omitempty"`
	Confidence  vartype.VarFloat64 `json:"confidence"`
	Raw         json.RawMessage    `json:"raw,omitempty"`
}

func reject(reason string) Result {
	return Result{Reason: reason}
}

func accept(res geocode.Result, confidence vartype.VarFloat64) Result {
	point := res.Point
	return Result{
		Valid:       true,
		DisplayName: res.DisplayName,
		Point:       &point,
		Comuna:      res.Comuna,
		Region:      res.Region,
		Provider:    res.Provider,
		Confidence:  confidence,
		Raw:         res.Raw,
	}
}
