// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/casapropia/geocheck/internal/address"
	"github.com/casapropia/geocheck/internal/logger"
	"github.com/casapropia/geocheck/internal/server"
)

var (
	validateComuna string
	validateRegion string
	geocodeWith    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve address search and validation over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		serv, err := server.New(app.config, app.logger, app.validator, app.searcher)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}
		app.logger.Info("starting geocheck", slog.String("version", version),
			slog.String("commit", commit), slog.String("date", date))
		if err = serv.Run(cmd.Context()); err != nil {
			return err
		}
		app.logger.Info("shutting down geocheck")
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "print address suggestions for a partial query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		if app.config.Providers.Mapbox.AccessToken == "" {
			app.logger.Warn("no Mapbox access token configured, suggestions will be empty")
		}
		return printJSON(cmd.OutOrStdout(), app.searcher.Search(cmd.Context(), strings.Join(args, " ")))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <address>",
	Short: "validate an address and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		result := app.validator.Validate(cmd.Context(), address.Request{
			Address: strings.Join(args, " "),
			Comuna:  validateComuna,
			Region:  validateRegion,
		})
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "geocode an address with a single provider",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		coder, err := app.geocoder(geocodeWith)
		if err != nil {
			return err
		}
		result, err := coder.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("failed to geocode address with %s: %w", coder.Name(), err)
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateComuna, "comuna", "", "comuna the address must belong to")
	validateCmd.Flags().StringVar(&validateRegion, "region", "", "region the address must belong to")
	geocodeCmd.Flags().StringVar(&geocodeWith, "provider", "osm-nominatim",
		"provider to use: opencage, osm-nominatim or mapbox")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(geocodeCmd)
}

func setup() (*app, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(conf, logger.New(conf.LogLevel)), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
