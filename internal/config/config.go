// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Xuanwo/go-locale"
	"github.com/kkyr/fig"
	"golang.org/x/text/language"

	"github.com/casapropia/geocheck/internal/geo"
)

const (
	configEnv     = "GEOCHECK"
	defaultLocale = "es"
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Server struct {
		Addr            string        `fig:"addr" default:":8080"`
		ReadTimeout     time.Duration `fig:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `fig:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `fig:"shutdown_timeout" default:"10s"`

		RateLimit struct {
			RPS     float64       `fig:"rps" default:"5"`
			Burst   int           `fig:"burst" default:"10"`
			TTL     time.Duration `fig:"ttl" default:"10m"`
			Cleanup time.Duration `fig:"cleanup" default:"1m"`
		} `fig:"ratelimit"`
	} `fig:"server"`

	Providers struct {
		Timeout time.Duration `fig:"timeout" default:"10s"`

		OpenCage struct {
			APIKey string `fig:"apikey"`
		} `fig:"opencage"`

		Nominatim struct {
			// ClientID is sent as User-Agent and should identify the application.
			ClientID string `fig:"client_id"`
			Email    string `fig:"email"`
		} `fig:"nominatim"`

		Mapbox struct {
			AccessToken  string  `fig:"access_token"`
			ProximityLat float64 `fig:"proximity_lat" default:"-33.4489"`
			ProximityLon float64 `fig:"proximity_lon" default:"-70.6693"`
			// Allowed values: 1 to 10
			SuggestLimit int `fig:"suggest_limit" default:"8"`
		} `fig:"mapbox"`
	} `fig:"providers"`

	Validation struct {
		// Allowed values: 0 to 1
		MinRelevance float64 `fig:"min_relevance" default:"0.9"`
		// Distance in meters, must be positive
		ConflictDistance float64 `fig:"conflict_distance" default:"120"`
	} `fig:"validation"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	if c.Server.Addr == "" {
		return errors.New("server address must not be empty")
	}
	if c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst < 1 {
		return fmt.Errorf("invalid rate limit: %.2f requests per second, burst %d", c.Server.RateLimit.RPS,
			c.Server.RateLimit.Burst)
	}
	if c.Server.RateLimit.TTL <= 0 || c.Server.RateLimit.Cleanup <= 0 {
		return errors.New("rate limit ttl and cleanup interval must be positive")
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("invalid provider timeout: %s", c.Providers.Timeout)
	}
	if !c.Proximity().Valid() {
		return fmt.Errorf("invalid Mapbox proximity: %s", c.Proximity())
	}
	if c.Providers.Mapbox.SuggestLimit < 1 || c.Providers.Mapbox.SuggestLimit > 10 {
		return fmt.Errorf("invalid suggest limit: %d", c.Providers.Mapbox.SuggestLimit)
	}
	if c.Validation.MinRelevance < 0 || c.Validation.MinRelevance > 1 {
		return fmt.Errorf("invalid minimum relevance: %.2f", c.Validation.MinRelevance)
	}
	if c.Validation.ConflictDistance <= 0 {
		return fmt.Errorf("invalid conflict distance: %.2f", c.Validation.ConflictDistance)
	}

	return nil
}

// Language returns the configured locale as language tag.
func (c *Config) Language() language.Tag {
	return language.Make(c.Locale)
}

// Proximity returns the coordinate Mapbox suggestions are biased towards.
func (c *Config) Proximity() geo.Point {
	return geo.Point{Lat: c.Providers.Mapbox.ProximityLat, Lon: c.Providers.Mapbox.ProximityLon}
}

func getLocale() string {
	tag, err := locale.Detect()
	if err != nil || tag == language.Und {
		return defaultLocale
	}
	return tag.String()
}
