// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package address

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casapropia/geocheck/internal/geocode"
	"github.com/casapropia/geocheck/internal/logger"
)

// Suggester returns ranked address candidates for a partial query.
type Suggester interface {
	Name() string
	Enabled() bool
	Suggest(ctx context.Context, query string) ([]geocode.Suggestion, error)
}

// Searcher serves autocomplete suggestions.
type Searcher struct {
	suggester Suggester
	logger    *logger.Logger
}

func NewSearcher(log *logger.Logger, suggester Suggester) *Searcher {
	return &Searcher{suggester: suggester, logger: log}
}

// Search returns the suggestions for query. Any failure yields an empty list.
func (s *Searcher) Search(ctx context.Context, query string) []geocode.Suggestion {
	empty := make([]geocode.Suggestion, 0)
	query = strings.TrimSpace(query)
	if query == "" || s.suggester == nil || !s.suggester.Enabled() {
		return empty
	}

	suggestions, err := s.suggest(ctx, query)
	if err != nil {
		s.logger.Debug("address suggestion failed", slog.String("provider", s.suggester.Name()), logger.Err(err))
		return empty
	}
	if suggestions == nil {
		return empty
	}
	return suggestions
}

func (s *Searcher) suggest(ctx context.Context, query string) (suggestions []geocode.Suggestion, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", s.suggester.Name(), ErrProviderPanic, r)
		}
	}()
	return s.suggester.Suggest(ctx, query)
}
