// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/casapropia/geocheck/internal/geo"
	"github.com/casapropia/geocheck/internal/geocode"
	"github.com/casapropia/geocheck/internal/http"
	"github.com/casapropia/geocheck/internal/vartype"
)

const (
	APIEndpoint        = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	DefaultSuggestions = 8
	name               = "mapbox"
)

// DefaultProximity biases suggestions towards the Santiago metropolitan area.
var DefaultProximity = geo.Point{Lat: -33.4489, Lon: -70.6693}

type Mapbox struct {
	token     string
	http      *http.Client
	lang      language.Tag
	proximity geo.Point
	limit     int
}

// Option configures the Mapbox provider.
type Option func(*Mapbox)

// WithProximity sets the coordinate suggestions are biased towards.
func WithProximity(p geo.Point) Option {
	return func(m *Mapbox) {
		if p.Valid() {
			m.proximity = p
		}
	}
}

// WithSuggestLimit sets the maximum amount of suggestions returned by Suggest.
func WithSuggestLimit(limit int) Option {
	return func(m *Mapbox) {
		if limit > 0 {
			m.limit = limit
		}
	}
}

type Response struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	Message  string    `json:"message"`
}

type Feature struct {
	ID             string             `json:"id"`
	Type           string             `json:"type"`
	PlaceType      []string           `json:"place_type"`
	Relevance      vartype.VarFloat64 `json:"relevance"`
	Properties     map[string]any     `json:"properties"`
	Text           string             `json:"text"`
	PlaceName      string             `json:"place_name"`
	Center         []float64          `json:"center"`
	Geometry       Geometry           `json:"geometry"`
	Address        string             `json:"address"`
	Context        []Context          `json:"context"`
	RoutablePoints *RoutablePoints    `json:"routable_points"`

	raw json.RawMessage
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type Context struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code"`
	Wikidata  string `json:"wikidata"`
}

type RoutablePoints struct {
	Points []RoutablePoint `json:"points"`
}

type RoutablePoint struct {
	Name        string    `json:"name"`
	Coordinates []float64 `json:"coordinates"`
}

// UnmarshalJSON keeps the raw feature next to the decoded fields.
func (f *Feature) UnmarshalJSON(data []byte) error {
	type feature Feature
	var decoded feature
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*f = Feature(decoded)
	f.raw = append(json.RawMessage(nil), data...)
	return nil
}

func New(client *http.Client, lang language.Tag, token string, opts ...Option) *Mapbox {
	m := &Mapbox{
		token:     token,
		http:      client,
		lang:      lang,
		proximity: DefaultProximity,
		limit:     DefaultSuggestions,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mapbox) Name() string {
	return name
}

// Enabled reports whether an access token is configured.
func (m *Mapbox) Enabled() bool {
	return m.token != ""
}

// Suggest returns up to the configured amount of address candidates for a partial query,
// biased towards the proximity coordinate.
func (m *Mapbox) Suggest(ctx context.Context, partial string) ([]geocode.Suggestion, error) {
	query := m.baseQuery()
	query.Set("autocomplete", "true")
	query.Set("limit", strconv.Itoa(m.limit))
	query.Set("proximity", fmt.Sprintf("%s,%s", formatCoord(m.proximity.Lon), formatCoord(m.proximity.Lat)))

	features, err := m.forward(ctx, partial, query)
	if err != nil {
		return nil, err
	}
	suggestions := make([]geocode.Suggestion, 0, len(features))
	for _, feature := range features {
		suggestions = append(suggestions, feature.suggestion())
	}
	return suggestions, nil
}

// Lookup returns the single best candidate for address in strict mode: no autocomplete and
// no fuzzy matching. The candidate is not checked against the Chile bounds.
func (m *Mapbox) Lookup(ctx context.Context, address string) (geocode.Suggestion, error) {
	query := m.baseQuery()
	query.Set("autocomplete", "false")
	query.Set("fuzzyMatch", "false")
	query.Set("limit", "1")

	features, err := m.forward(ctx, address, query)
	if err != nil {
		return geocode.Suggestion{}, err
	}
	if len(features) < 1 {
		return geocode.Suggestion{}, fmt.Errorf("Mapbox API: %w", geocode.ErrNoResult)
	}
	return features[0].suggestion(), nil
}

// Search forward geocodes address in strict mode and returns the best candidate.
func (m *Mapbox) Search(ctx context.Context, address string) (geocode.Result, error) {
	suggestion, err := m.Lookup(ctx, address)
	if err != nil {
		return geocode.Result{}, err
	}
	result, ok := suggestion.Result(name)
	if !ok {
		return geocode.Result{}, fmt.Errorf("Mapbox API: %w", geocode.ErrInvalidCoordinates)
	}
	if !geo.InChile(result.Point) {
		return geocode.Result{}, fmt.Errorf("Mapbox API returned %s: %w", result.Point, geocode.ErrOutOfBounds)
	}
	return result, nil
}

func (m *Mapbox) baseQuery() url.Values {
	query := url.Values{}
	query.Set("access_token", m.token)
	query.Set("country", "cl")
	query.Set("types", "address")
	query.Set("routing", "true")
	query.Set("language", m.lang.String())
	return query
}

func (m *Mapbox) forward(ctx context.Context, text string, query url.Values) ([]Feature, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("Mapbox access token: %w", geocode.ErrMissingCredential)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty query for Mapbox API: %w", geocode.ErrNoResult)
	}

	var response Response
	endpoint := fmt.Sprintf("%s/%s.json", APIEndpoint, url.PathEscape(text))
	code, err := m.http.Get(ctx, endpoint, &response, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve address details from Mapbox API: %w", err)
	}
	if code != 200 {
		if response.Message != "" {
			return nil, fmt.Errorf("received non-positive response code from Mapbox API: %d (%s)", code,
				response.Message)
		}
		return nil, fmt.Errorf("received non-positive response code from Mapbox API: %d", code)
	}
	return response.Features, nil
}

func (f Feature) suggestion() geocode.Suggestion {
	suggestion := geocode.Suggestion{
		ID:          f.ID,
		DisplayName: f.PlaceName,
		ShortText:   f.Text,
		HouseNumber: f.Address,
		PlaceTypes:  f.PlaceType,
		Properties:  f.Properties,
		Relevance:   f.Relevance,
		Context:     make([]geocode.ContextEntry, 0, len(f.Context)),
		Raw:         f.raw,
	}
	if len(f.Center) >= 2 {
		suggestion.Center = &geo.Point{Lat: f.Center[1], Lon: f.Center[0]}
	}
	if len(f.Geometry.Coordinates) >= 2 {
		suggestion.Geometry = &geocode.Geometry{Type: f.Geometry.Type, Coordinates: f.Geometry.Coordinates}
	}
	if f.RoutablePoints != nil {
		for _, point := range f.RoutablePoints.Points {
			suggestion.RoutablePoints = append(suggestion.RoutablePoints, geocode.RoutablePoint{
				Name:        point.Name,
				Coordinates: point.Coordinates,
			})
		}
	}
	for _, entry := range f.Context {
		ctxEntry := geocode.ContextEntry{ID: entry.ID, Text: entry.Text, ShortCode: entry.ShortCode}
		ctxEntry.Kind = ctxEntry.EntryKind()
		suggestion.Context = append(suggestion.Context, ctxEntry)
	}
	return suggestion
}

func formatCoord(val float64) string {
	return strconv.FormatFloat(val, 'f', 6, 64)
}
