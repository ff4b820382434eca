// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package address validates Chilean addresses against several geocoding providers and
// serves address suggestions for autocomplete.
package address

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/casapropia/geocheck/internal/geo"
	"github.com/casapropia/geocheck/internal/geocode"
	"github.com/casapropia/geocheck/internal/logger"
	"github.com/casapropia/geocheck/internal/vartype"
)

const (
	DefaultMinRelevance     = 0.9
	DefaultConflictDistance = 120.0

	featureProvider = "feature"
)

// ErrProviderPanic is returned in place of a result when a provider panicked.
var ErrProviderPanic = errors.New("provider panicked")

// StrictLookup looks up the single best candidate for an address without fuzzy matching.
type StrictLookup interface {
	Name() string
	Enabled() bool
	Lookup(ctx context.Context, address string) (geocode.Suggestion, error)
}

// Options holds the tunable thresholds of the Validator.
type Options struct {
	// MinRelevance is the lowest provider relevance accepted in strict mode.
	MinRelevance float64
	// ConflictDistance is the distance in meters above which the cross-check result
	// replaces a selected feature.
	ConflictDistance float64
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{MinRelevance: DefaultMinRelevance, ConflictDistance: DefaultConflictDistance}
}

// Validator runs the provider fallback chain for a Request. It holds no mutable state and
// is safe for concurrent use.
type Validator struct {
	primary   geocode.Geocoder
	secondary geocode.Geocoder
	strict    StrictLookup
	opts      Options
	logger    *logger.Logger
}

// stage is one step of the fallback chain. attempt reports done once the stage produced
// a final result.
type stage struct {
	name    string
	attempt func(ctx context.Context, req Request, number string) (res Result, done bool)
}

// NewValidator returns a Validator using primary and secondary as lenient providers and
// strict as the last resort. Any of them may be nil.
func NewValidator(log *logger.Logger, primary, secondary geocode.Geocoder, strict StrictLookup, opts Options) *Validator {
	if opts.MinRelevance < 0 {
		opts.MinRelevance = DefaultMinRelevance
	}
	if opts.ConflictDistance <= 0 {
		opts.ConflictDistance = DefaultConflictDistance
	}
	return &Validator{
		primary:   primary,
		secondary: secondary,
		strict:    strict,
		opts:      opts,
		logger:    log,
	}
}

// Validate checks req and returns the definitive result. Provider failures never surface
// as errors; a rejected address is a Result with Valid set to false.
func (v *Validator) Validate(ctx context.Context, req Request) Result {
	log := v.logger.With(slog.String("validation_id", uuid.NewString()))
	number := req.HouseNumber()
	if number == "" {
		log.Debug("no house number in request")
		return reject(ReasonMissingHouseNumber)
	}

	var result Result
	if req.Feature != nil {
		result = v.validateFeature(ctx, log, req, number)
	} else {
		result = v.validateAddress(ctx, log, req, number)
	}
	log.Debug("address validated", slog.Bool("valid", result.Valid), slog.String("reason", result.Reason),
		slog.String("provider", result.Provider))
	return result
}

func (v *Validator) validateAddress(ctx context.Context, log *logger.Logger, req Request, number string) Result {
	stages := append(v.lenientStages(log), stage{name: v.strictName(), attempt: v.strictStage(log)})
	if result, ok := runStages(ctx, stages, req, number); ok {
		return result
	}
	return reject(ReasonNoMatches)
}

func (v *Validator) validateFeature(ctx context.Context, log *logger.Logger, req Request, number string) Result {
	feature := *req.Feature
	point, ok := feature.ResolvePoint()
	if !ok {
		return reject(ReasonInvalidCoordinates)
	}
	if !geo.InChile(point) {
		return reject(ReasonOutsideBounds)
	}
	featureNumber := feature.StreetNumber()
	if featureNumber != "" && featureNumber != number {
		return reject(ReasonHouseNumberMismatch)
	}
	if reason := adminMismatch(req, feature.Comuna(), feature.Region()); reason != "" {
		return reject(reason)
	}

	hasQuery := strings.TrimSpace(req.Query) != ""
	if hasQuery {
		if result, ok := runStages(ctx, v.lenientStages(log), req, number); ok {
			return result
		}
	}

	tentative, _ := feature.Result(v.strictName())
	if !hasQuery || v.secondary == nil {
		return accept(tentative, tentative.Relevance)
	}

	cross, err := v.search(ctx, v.secondary, req.searchText())
	if err != nil {
		log.Debug("cross-check failed, keeping selected feature", slog.String("provider", v.secondary.Name()),
			logger.Err(err))
		return accept(tentative, tentative.Relevance)
	}
	distance := geo.Distance(point, cross.Point)
	numbersDiffer := cross.HouseNumber != "" && featureNumber != "" && cross.HouseNumber != featureNumber
	if numbersDiffer || distance > v.opts.ConflictDistance {
		log.Debug("cross-check disagrees with selected feature", slog.String("provider", cross.Provider),
			slog.Float64("distance", distance), slog.Bool("house_number_differs", numbersDiffer))
		return accept(cross, vartype.NewVariable(1.0))
	}
	return accept(tentative, tentative.Relevance)
}

// lenientStages returns the stages that accept a provider result when it has no house
// number or the house number matches.
func (v *Validator) lenientStages(log *logger.Logger) []stage {
	stages := make([]stage, 0, 2)
	for _, provider := range []geocode.Geocoder{v.primary, v.secondary} {
		if provider == nil {
			continue
		}
		stages = append(stages, stage{name: provider.Name(), attempt: v.lenientStage(log, provider)})
	}
	return stages
}

func (v *Validator) lenientStage(log *logger.Logger, provider geocode.Geocoder) func(context.Context, Request, string) (Result, bool) {
	return func(ctx context.Context, req Request, number string) (Result, bool) {
		res, err := v.search(ctx, provider, req.searchText())
		if err != nil {
			log.Debug("provider returned no result", slog.String("provider", provider.Name()), logger.Err(err))
			return Result{}, false
		}
		if res.HouseNumber != "" && res.HouseNumber != number {
			log.Debug("provider house number differs", slog.String("provider", provider.Name()),
				slog.String("house_number", res.HouseNumber))
			return Result{}, false
		}
		return accept(res, vartype.NewVariable(1.0)), true
	}
}

// strictStage always produces a final result. Its gates are checked in order and the
// first violation is reported.
func (v *Validator) strictStage(log *logger.Logger) func(context.Context, Request, string) (Result, bool) {
	return func(ctx context.Context, req Request, number string) (Result, bool) {
		if v.strict == nil || !v.strict.Enabled() {
			return reject(ReasonMissingCredential), true
		}
		suggestion, err := v.lookup(ctx, req.searchText())
		switch {
		case errors.Is(err, geocode.ErrMissingCredential):
			return reject(ReasonMissingCredential), true
		case err != nil:
			log.Debug("strict lookup returned no result", slog.String("provider", v.strict.Name()),
				logger.Err(err))
			return reject(ReasonNoMatches), true
		}

		if suggestion.Relevance.IsSet() && suggestion.Relevance.Value() < v.opts.MinRelevance {
			return reject(ReasonLowConfidence), true
		}
		if reason := adminMismatch(req, suggestion.Comuna(), suggestion.Region()); reason != "" {
			return reject(reason), true
		}
		if providerNumber := suggestion.StreetNumber(); providerNumber != "" && providerNumber != number {
			return reject(ReasonHouseNumberMismatch), true
		}
		res, ok := suggestion.Result(v.strict.Name())
		if !ok {
			return reject(ReasonInvalidCoordinates), true
		}
		if !geo.InChile(res.Point) {
			return reject(ReasonOutsideBounds), true
		}
		return accept(res, res.Relevance), true
	}
}

func (v *Validator) strictName() string {
	if v.strict == nil {
		return featureProvider
	}
	return v.strict.Name()
}

// search calls the provider and converts a panic into an error.
func (v *Validator) search(ctx context.Context, provider geocode.Geocoder, text string) (res geocode.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", provider.Name(), ErrProviderPanic, r)
		}
	}()
	return provider.Search(ctx, text)
}

// lookup calls the strict provider and converts a panic into an error.
func (v *Validator) lookup(ctx context.Context, text string) (suggestion geocode.Suggestion, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", v.strict.Name(), ErrProviderPanic, r)
		}
	}()
	return v.strict.Lookup(ctx, text)
}

func runStages(ctx context.Context, stages []stage, req Request, number string) (Result, bool) {
	for _, s := range stages {
		if ctx.Err() != nil {
			return Result{}, false
		}
		if result, done := s.attempt(ctx, req, number); done {
			return result, true
		}
	}
	return Result{}, false
}

func adminMismatch(req Request, comuna, region string) string {
	if geocode.NamesConflict(req.Comuna, comuna) {
		return ReasonComunaMismatch
	}
	if geocode.NamesConflict(req.Region, region) {
		return ReasonRegionMismatch
	}
	return ""
}
