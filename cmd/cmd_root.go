// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	config    string
	provider  string
	trace     bool
	traceBody bool
	timeout   time.Duration
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "geocontrol",
	Short: "place search against Nominatim, Bing Maps and RaveGeo",
	Long: `
geocontrol turns a free text place name into geocoding results from one of
several providers, and shows how a map would move to the chosen place.

Settings come from an optional YAML file (--config), a .env file in the
working directory and the BING_MAPS_KEY and GEOCODER_USER_AGENT variables.
`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// a missing .env is fine
		_ = godotenv.Load()
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "YAML configuration file")
	pf.StringVarP(&flags.provider, "provider", "p", "", "geocoding provider (nominatim, bing, ravegeo)")
	pf.BoolVar(&flags.trace, "trace", false, "dump HTTP exchanges to stderr")
	pf.BoolVar(&flags.traceBody, "trace-body", false, "include response bodies in the HTTP dump")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per query timeout (default 30s)")
}
