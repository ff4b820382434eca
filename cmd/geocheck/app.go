// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/casapropia/geocheck/internal/address"
	"github.com/casapropia/geocheck/internal/config"
	"github.com/casapropia/geocheck/internal/geocode"
	"github.com/casapropia/geocheck/internal/geocode/provider/mapbox"
	"github.com/casapropia/geocheck/internal/geocode/provider/opencage"
	nominatim "github.com/casapropia/geocheck/internal/geocode/provider/osm-nominatim"
	"github.com/casapropia/geocheck/internal/http"
	"github.com/casapropia/geocheck/internal/logger"
)

// app holds the providers and the address services built from one configuration.
type app struct {
	config    *config.Config
	logger    *logger.Logger
	geocoders map[string]geocode.Geocoder
	validator *address.Validator
	searcher  *address.Searcher
}

func newApp(conf *config.Config, log *logger.Logger) *app {
	client := http.New(log, http.WithTimeout(conf.Providers.Timeout))
	lang := conf.Language()

	primary := opencage.New(client, lang, conf.Providers.OpenCage.APIKey)
	secondary := nominatim.New(client, lang, conf.Providers.Nominatim.ClientID, conf.Providers.Nominatim.Email)
	commercial := mapbox.New(client, lang, conf.Providers.Mapbox.AccessToken,
		mapbox.WithProximity(conf.Proximity()), mapbox.WithSuggestLimit(conf.Providers.Mapbox.SuggestLimit))

	opts := address.Options{
		MinRelevance:     conf.Validation.MinRelevance,
		ConflictDistance: conf.Validation.ConflictDistance,
	}
	log.Debug("address providers initialized", slog.String("language", lang.String()),
		slog.Bool("opencage", conf.Providers.OpenCage.APIKey != ""), slog.Bool("mapbox", commercial.Enabled()))

	return &app{
		config: conf,
		logger: log,
		geocoders: map[string]geocode.Geocoder{
			primary.Name():    primary,
			secondary.Name():  secondary,
			commercial.Name(): commercial,
		},
		validator: address.NewValidator(log, primary, secondary, commercial, opts),
		searcher:  address.NewSearcher(log, commercial),
	}
}

// geocoder returns the provider registered under name.
func (a *app) geocoder(name string) (geocode.Geocoder, error) {
	coder, ok := a.geocoders[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q, expected one of %v", name, a.providerNames())
	}
	return coder, nil
}

func (a *app) providerNames() []string {
	names := make([]string, 0, len(a.geocoders))
	for name := range a.geocoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
