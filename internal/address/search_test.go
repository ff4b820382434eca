// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package address

import (
	"context"
	"errors"
	"testing"

	"github.com/casapropia/geocheck/internal/geocode"
)

type fakeSuggester struct {
	disabled    bool
	suggestions []geocode.Suggestion
	err         error
	panics      bool
	queries     []string
}

func (f *fakeSuggester) Name() string {
	return "provider3"
}

func (f *fakeSuggester) Enabled() bool {
	return !f.disabled
}

func (f *fakeSuggester) Suggest(_ context.Context, query string) ([]geocode.Suggestion, error) {
	f.queries = append(f.queries, query)
	if f.panics {
		panic("intentionally panicking")
	}
	return f.suggestions, f.err
}

func TestSearcher_Search(t *testing.T) {
	t.Run("suggestions are returned in provider order", func(t *testing.T) {
		suggester := &fakeSuggester{suggestions: []geocode.Suggestion{
			{ID: "address.1", DisplayName: "Los Aromos 456, Maipú"},
			{ID: "address.2", DisplayName: "Los Aromos 456, La Florida"},
		}}
		suggestions := NewSearcher(testLogger(), suggester).Search(t.Context(), "  Los Aromos 456 ")
		if len(suggestions) != 2 {
			t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
		}
		if suggestions[0].ID != "address.1" || suggestions[1].ID != "address.2" {
			t.Errorf("unexpected suggestion order: %s, %s", suggestions[0].ID, suggestions[1].ID)
		}
		if suggester.queries[0] != "Los Aromos 456" {
			t.Errorf("expected query to be trimmed, got %q", suggester.queries[0])
		}
	})
	tests := []struct {
		name      string
		suggester *fakeSuggester
		query     string
		wantCalls int
	}{
		{"blank query", &fakeSuggester{}, "   ", 0},
		{"missing credential", &fakeSuggester{disabled: true}, "Los Aromos", 0},
		{"provider failure", &fakeSuggester{err: errors.New("intentionally failing")}, "Los Aromos", 1},
		{"provider panic", &fakeSuggester{panics: true}, "Los Aromos", 1},
		{"no suggestions", &fakeSuggester{}, "Los Aromos", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name+" yields an empty list", func(t *testing.T) {
			suggestions := NewSearcher(testLogger(), tc.suggester).Search(t.Context(), tc.query)
			if suggestions == nil {
				t.Fatal("expected a non-nil list")
			}
			if len(suggestions) != 0 {
				t.Errorf("expected no suggestions, got %d", len(suggestions))
			}
			if len(tc.suggester.queries) != tc.wantCalls {
				t.Errorf("expected %d provider calls, got %d", tc.wantCalls, len(tc.suggester.queries))
			}
		})
	}
	t.Run("nil suggester yields an empty list", func(t *testing.T) {
		if suggestions := NewSearcher(testLogger(), nil).Search(t.Context(), "Los Aromos"); len(suggestions) != 0 {
			t.Errorf("expected no suggestions, got %d", len(suggestions))
		}
	})
}
