// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/text/language"

	"github.com/casapropia/geocheck/internal/geo"
	"github.com/casapropia/geocheck/internal/geocode"
	"github.com/casapropia/geocheck/internal/http"
)

const (
	APISearchEndpoint = "https://nominatim.openstreetmap.org/search"
	name              = "osm-nominatim"
)

type Nominatim struct {
	http    *http.Client
	lang    language.Tag
	headers map[string]string
}

type SearchResult struct {
	APILat      string  `json:"lat"`
	APILon      string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	Address     Address `json:"address"`

	raw json.RawMessage
}

type Address struct {
	HouseNumber  string `json:"house_number"`
	Road         string `json:"road"`
	Suburb       string `json:"suburb"`
	Municipality string `json:"municipality"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	County       string `json:"county"`
	State        string `json:"state"`
	ISO31662Lvl4 string `json:"ISO3166-2-lvl4"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
}

// UnmarshalJSON keeps the raw candidate next to the decoded fields.
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	type searchResult SearchResult
	var decoded searchResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = SearchResult(decoded)
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

// New returns a Nominatim geocoder. The usage policy of the public instance requires a
// descriptive client identifier, which is sent as User-Agent when clientID is set. A
// contact email is sent in the From header.
func New(client *http.Client, lang language.Tag, clientID, email string) *Nominatim {
	headers := make(map[string]string)
	if clientID != "" {
		headers["User-Agent"] = clientID
	}
	if email != "" {
		headers["From"] = email
	}
	return &Nominatim{
		lang:    lang,
		http:    client,
		headers: headers,
	}
}

func (n *Nominatim) Name() string {
	return name
}

// Search forward geocodes address, restricted to Chile, and returns the best candidate.
func (n *Nominatim) Search(ctx context.Context, address string) (geocode.Result, error) {
	var results []SearchResult
	var err error

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("q", address)
	query.Set("countrycodes", "cl")
	query.Set("addressdetails", "1")
	query.Set("limit", "1")
	query.Set("accept-language", n.lang.String())

	code, err := n.http.Get(ctx, APISearchEndpoint, &results, query, n.headers)
	if err != nil {
		return geocode.Result{}, fmt.Errorf("failed to fetch address details from Nominatim API: %w", err)
	}
	if code != 200 {
		return geocode.Result{}, fmt.Errorf("received non-positive response code from Nominatim API: %d", code)
	}
	if len(results) < 1 {
		return geocode.Result{}, fmt.Errorf("no coordinates found for address %q: %w", address, geocode.ErrNoResult)
	}

	candidate := results[0]
	var point geo.Point
	point.Lat, err = strconv.ParseFloat(candidate.APILat, 64)
	if err != nil {
		return geocode.Result{}, fmt.Errorf("failed to parse latitude from Nominatim API response: %w", err)
	}
	point.Lon, err = strconv.ParseFloat(candidate.APILon, 64)
	if err != nil {
		return geocode.Result{}, fmt.Errorf("failed to parse longitude from Nominatim API response: %w", err)
	}
	if !geo.InChile(point) {
		return geocode.Result{}, fmt.Errorf("Nominatim API returned %s: %w", point, geocode.ErrOutOfBounds)
	}

	result := geocode.Result{
		Provider:    name,
		DisplayName: candidate.DisplayName,
		Point:       point,
		Comuna:      candidate.Address.comuna(),
		Region:      candidate.Address.State,
		HouseNumber: candidate.Address.HouseNumber,
		Raw:         candidate.raw,
	}
	if result.HouseNumber == "" {
		result.HouseNumber = geocode.ExtractHouseNumber(candidate.DisplayName)
	}

	return result, nil
}

func (a Address) comuna() string {
	switch {
	case a.City != "":
		return a.City
	case a.Town != "":
		return a.Town
	case a.Village != "":
		return a.Village
	default:
		return a.Municipality
	}
}
