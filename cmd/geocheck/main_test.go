// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/casapropia/geocheck/internal/address"
	"github.com/casapropia/geocheck/internal/config"
	"github.com/casapropia/geocheck/internal/logger"
)

func TestFindConfigFile(t *testing.T) {
	t.Run("config file in the default location is found", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		dir := filepath.Join(home, ".config", "geocheck")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("loglevel: 0\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		path, file := findConfigFile()
		if path != dir || file != "config.yaml" {
			t.Errorf("expected %s/config.yaml, got %s/%s", dir, path, file)
		}
	})
	t.Run("missing config file yields empty values", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		if path, file := findConfigFile(); path != "" || file != "" {
			t.Errorf("expected no config file, got %s/%s", path, file)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("config file from flag is used", func(t *testing.T) {
		confPath = filepath.Join(repoRoot(t), "etc", "config.toml")
		t.Cleanup(func() { confPath = "" })
		t.Chdir(t.TempDir())
		conf, err := loadConfig()
		if err != nil {
			t.Fatalf("failed to load config from %s: %s", confPath, err)
		}
		if conf.Providers.Nominatim.ClientID == "" {
			t.Error("expected Nominatim client id from the config file")
		}
	})
	t.Run("dotenv file is loaded", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv("HOME", t.TempDir())
		t.Setenv("GEOCHECK_PROVIDERS_MAPBOX_ACCESS_TOKEN", "")
		if err := os.Unsetenv("GEOCHECK_PROVIDERS_MAPBOX_ACCESS_TOKEN"); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, ".env"),
			[]byte("GEOCHECK_PROVIDERS_MAPBOX_ACCESS_TOKEN=pk.from-dotenv\nGEOCHECK_LOCALE=es\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		conf, err := loadConfig()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Providers.Mapbox.AccessToken != "pk.from-dotenv" {
			t.Errorf("expected token from .env file, got %q", conf.Providers.Mapbox.AccessToken)
		}
	})
}

func TestApp(t *testing.T) {
	t.Run("all providers are registered", func(t *testing.T) {
		app := testApp(t)
		want := []string{"mapbox", "opencage", "osm-nominatim"}
		got := app.providerNames()
		if len(got) != len(want) {
			t.Fatalf("expected providers %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("expected providers %v, got %v", want, got)
			}
		}
	})
	t.Run("unknown provider fails", func(t *testing.T) {
		if _, err := testApp(t).geocoder("google"); err == nil {
			t.Error("expected unknown provider to fail")
		}
	})
	t.Run("validate command rejects an address without house number", func(t *testing.T) {
		app := testApp(t)
		result := app.validator.Validate(t.Context(), address.Request{Address: "Calle Falsa"})
		buf := bytes.NewBuffer(nil)
		if err := printJSON(buf, result); err != nil {
			t.Fatal(err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded["reason"] != address.ReasonMissingHouseNumber {
			t.Errorf("expected reason to be %q, got %v", address.ReasonMissingHouseNumber, decoded["reason"])
		}
	})
	t.Run("search without token is empty", func(t *testing.T) {
		if suggestions := testApp(t).searcher.Search(t.Context(), "Los Aromos"); len(suggestions) != 0 {
			t.Errorf("expected no suggestions, got %d", len(suggestions))
		}
	})
}

func testApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("GEOCHECK_LOCALE", "es")
	t.Setenv("GEOCHECK_PROVIDERS_MAPBOX_ACCESS_TOKEN", "")
	conf, err := config.New()
	if err != nil {
		t.Fatalf("failed to load config: %s", err)
	}
	return newApp(conf, logger.NewLogger(slog.LevelDebug, io.Discard))
}

func repoRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatal(err)
	}
	return root
}
