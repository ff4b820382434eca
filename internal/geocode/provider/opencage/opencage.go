// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"golang.org/x/text/language"

	"github.com/casapropia/geocheck/internal/geo"
	"github.com/casapropia/geocheck/internal/geocode"
	"github.com/casapropia/geocheck/internal/http"
)

const (
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	name        = "opencage"
)

type OpenCage struct {
	apikey   string
	endpoint string
	http     *http.Client
	lang     language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	Status       Status   `json:"status"`
	TotalResults int      `json:"total_results"`
}

type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Result struct {
	Components  Components `json:"components"`
	Confidence  int        `json:"confidence"`
	DisplayName string     `json:"formatted"`
	Geometry    Geometry   `json:"geometry"`

	raw json.RawMessage
}

type Components struct {
	NomalizedCity string `json:"_normalized_city"`
	City          string `json:"city"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
	County        string `json:"county"`
	HouseNumber   string `json:"house_number"`
	Municipality  string `json:"municipality"`
	Postcode      string `json:"postcode"`
	Road          string `json:"road"`
	State         string `json:"state"`
	StateCode     string `json:"state_code"`
	Suburb        string `json:"suburb"`
	Town          string `json:"town"`
	Village       string `json:"village"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// UnmarshalJSON keeps the raw candidate next to the decoded fields.
func (r *Result) UnmarshalJSON(data []byte) error {
	type result Result
	var decoded result
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = Result(decoded)
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

func New(client *http.Client, lang language.Tag, apikey string) *OpenCage {
	return &OpenCage{
		apikey:   apikey,
		endpoint: APIEndpoint,
		lang:     lang,
		http:     client,
	}
}

func (o *OpenCage) Name() string {
	return name
}

// Search forward geocodes address, restricted to Chile, and returns the best candidate.
func (o *OpenCage) Search(ctx context.Context, address string) (geocode.Result, error) {
	if o.apikey == "" {
		return geocode.Result{}, fmt.Errorf("OpenCage API key: %w", geocode.ErrMissingCredential)
	}

	var response Response
	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", address)
	query.Set("countrycode", "cl")
	query.Set("limit", "1")
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", o.lang.String())

	code, err := o.http.Get(ctx, o.endpoint, &response, query, nil)
	if err != nil {
		return geocode.Result{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if code != 200 {
		return geocode.Result{}, fmt.Errorf("received non-positive response code from OpenCage API: %d", code)
	}
	if len(response.Results) < 1 {
		return geocode.Result{}, fmt.Errorf("OpenCage API: %w", geocode.ErrNoResult)
	}

	candidate := response.Results[0]
	point := geo.Point{Lat: candidate.Geometry.Lat, Lon: candidate.Geometry.Lon}
	if !geo.InChile(point) {
		return geocode.Result{}, fmt.Errorf("OpenCage API returned %s: %w", point, geocode.ErrOutOfBounds)
	}

	result := geocode.Result{
		Provider:    name,
		DisplayName: candidate.DisplayName,
		Point:       point,
		Comuna:      candidate.Components.comuna(),
		Region:      candidate.Components.State,
		HouseNumber: candidate.Components.HouseNumber,
		Raw:         candidate.raw,
	}
	if result.HouseNumber == "" {
		result.HouseNumber = geocode.ExtractHouseNumber(candidate.DisplayName)
	}

	return result, nil
}

// comuna picks the most specific municipality name OpenCage provides for a Chilean address.
func (c Components) comuna() string {
	for _, name := range []string{c.NomalizedCity, c.City, c.Town, c.Village, c.Municipality, c.County} {
		if name != "" {
			return name
		}
	}
	return ""
}
