// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/casapropia/geocheck/internal/geocode"
	"github.com/casapropia/geocheck/internal/http"
	"github.com/casapropia/geocheck/internal/logger"
	"github.com/casapropia/geocheck/internal/testhelper"
)

const (
	addressQuery      = "Los Aromos 456, Maipú"
	addressExpected   = "Los Aromos 456, 9250000 Maipú, Chile"
	addressFile       = "../../../../testdata/opencage_maipu.json"
	emptyFile         = "../../../../testdata/opencage_empty.json"
	buenosAiresFile   = "../../../../testdata/opencage_buenosaires.json"
	testAPIKey        = "test-api-key"
	comunaExpected    = "Maipú"
	regionExpected    = "Región Metropolitana de Santiago"
	latitudeExpected  = -33.51
	longitudeExpected = -70.76
)

func TestNew(t *testing.T) {
	t.Run("creating a new provider succeeds", func(t *testing.T) {
		coder := testCoder(t)
		if coder == nil {
			t.Fatal("expected a non-nil geocoder")
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		coder := testCoder(t)
		if coder.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, coder.Name())
		}
	})
}

func TestOpenCage_Search(t *testing.T) {
	t.Run("forward geocoding succeeds", func(t *testing.T) {
		var gotQuery map[string][]string
		fileFn := testhelper.FileResponse(t, addressFile, 200)
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotQuery = req.URL.Query()
			return fileFn(req)
		}

		coder := testCoderWithRoundtripFunc(t, testAPIKey, rtFn)
		result, err := coder.Search(t.Context(), addressQuery)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.EqualFold(result.DisplayName, addressExpected) {
			t.Errorf("expected address to be %q, got %q", addressExpected, result.DisplayName)
		}
		if result.Provider != name {
			t.Errorf("expected provider to be %q, got %q", name, result.Provider)
		}
		if result.Point.Lat != latitudeExpected || result.Point.Lon != longitudeExpected {
			t.Errorf("expected point to be %f,%f, got %s", latitudeExpected, longitudeExpected, result.Point)
		}
		if result.Comuna != comunaExpected {
			t.Errorf("expected comuna to be %q, got %q", comunaExpected, result.Comuna)
		}
		if result.Region != regionExpected {
			t.Errorf("expected region to be %q, got %q", regionExpected, result.Region)
		}
		if result.HouseNumber != "456" {
			t.Errorf("expected house number to be %q, got %q", "456", result.HouseNumber)
		}
		if result.Relevance.IsSet() {
			t.Error("expected OpenCage to not report a relevance")
		}
		if !json.Valid(result.Raw) || !strings.Contains(string(result.Raw), `"formatted"`) {
			t.Errorf("expected raw payload to hold the candidate, got %s", result.Raw)
		}
		for key, want := range map[string]string{
			"key": testAPIKey, "q": addressQuery, "countrycode": "cl", "limit": "1", "language": "es",
		} {
			if got := gotQuery[key]; len(got) != 1 || got[0] != want {
				t.Errorf("expected query parameter %s to be %q, got %v", key, want, got)
			}
		}
	})
	t.Run("house number falls back to the formatted address", func(t *testing.T) {
		response := Response{Results: []Result{{
			DisplayName: "Los Aromos 456, Maipú, Chile",
			Geometry:    Geometry{Lat: latitudeExpected, Lon: longitudeExpected},
			Components:  Components{Town: "Maipú"},
		}}}
		coder := testCoderWithRoundtripFunc(t, testAPIKey, testhelper.JSONResponse(response, 200))
		result, err := coder.Search(t.Context(), addressQuery)
		if err != nil {
			t.Fatal(err)
		}
		if result.HouseNumber != "456" {
			t.Errorf("expected house number to be %q, got %q", "456", result.HouseNumber)
		}
		if result.Comuna != "Maipú" {
			t.Errorf("expected comuna to fall back to town, got %q", result.Comuna)
		}
	})
	t.Run("missing API key fails without a request", func(t *testing.T) {
		called := false
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			called = true
			return nil, errors.New("should not be called")
		}
		coder := testCoderWithRoundtripFunc(t, "", rtFn)
		_, err := coder.Search(t.Context(), addressQuery)
		if !errors.Is(err, geocode.ErrMissingCredential) {
			t.Errorf("expected error to be %s, got %s", geocode.ErrMissingCredential, err)
		}
		if called {
			t.Error("expected no API request to be sent")
		}
	})
	t.Run("forward geocoding fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		}

		coder := testCoderWithRoundtripFunc(t, testAPIKey, rtFn)
		_, err := coder.Search(t.Context(), addressQuery)
		if err == nil {
			t.Fatal("expected API request to fail")
		}
	})
	t.Run("API responding with no results fails", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testAPIKey, testhelper.FileResponse(t, emptyFile, 200))
		_, err := coder.Search(t.Context(), addressQuery)
		if !errors.Is(err, geocode.ErrNoResult) {
			t.Errorf("expected error to be %s, got %s", geocode.ErrNoResult, err)
		}
	})
	t.Run("API responding with a non-200 reponse", func(t *testing.T) {
		response := Response{Status: Status{Code: 401, Message: "invalid API key"}}
		coder := testCoderWithRoundtripFunc(t, testAPIKey, testhelper.JSONResponse(response, 401))
		_, err := coder.Search(t.Context(), addressQuery)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		wantErr := "received non-positive response code from OpenCage API: 401"
		if !strings.EqualFold(err.Error(), wantErr) {
			t.Errorf("expected error to be %q, got %q", wantErr, err)
		}
	})
	t.Run("API responding with malformed JSON fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return &stdhttp.Response{
				StatusCode: 200,
				Body:       io.NopCloser(strings.NewReader(`{"results": [{"geometry": "nope"}]}`)),
				Header:     make(stdhttp.Header),
			}, nil
		}
		coder := testCoderWithRoundtripFunc(t, testAPIKey, rtFn)
		if _, err := coder.Search(t.Context(), addressQuery); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
	t.Run("candidate outside of Chile is rejected", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testAPIKey, testhelper.FileResponse(t, buenosAiresFile, 200))
		_, err := coder.Search(t.Context(), addressQuery)
		if !errors.Is(err, geocode.ErrOutOfBounds) {
			t.Errorf("expected error to be %s, got %s", geocode.ErrOutOfBounds, err)
		}
	})
}

func TestOpenCage_Search_integration(t *testing.T) {
	testhelper.PerformIntegrationTests(t)
	apikey := os.Getenv("OPENCAGE_APIKEY")
	if apikey == "" {
		t.Skip("no opencage API key set, skipping tests")
	}
	t.Run("forward geocoding succeeds", func(t *testing.T) {
		coder := New(http.New(logger.New(slog.LevelDebug)), language.Spanish, apikey)
		result, err := coder.Search(t.Context(), "Avenida Libertador Bernardo O'Higgins 1449, Santiago")
		if err != nil {
			t.Fatal(err)
		}
		if result.Comuna == "" {
			t.Error("expected comuna to be set")
		}
	})
}

func testCoder(t *testing.T) *OpenCage {
	t.Helper()
	return New(http.New(logger.NewLogger(slog.LevelDebug, io.Discard)), language.Spanish, testAPIKey)
}

func testCoderWithRoundtripFunc(t *testing.T, apikey string, fn func(req *stdhttp.Request) (*stdhttp.Response, error)) geocode.Geocoder {
	t.Helper()
	testHttpClient := http.New(logger.NewLogger(slog.LevelDebug, io.Discard))
	testHttpClient.Transport = testhelper.MockRoundTripper{Fn: fn}
	return New(testHttpClient, language.Spanish, apikey)
}
