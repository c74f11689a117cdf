// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jcodagnone/geocontrol/geocoder"
	"github.com/jcodagnone/geocontrol/utils/httputils"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugRequestCmd = &cobra.Command{
	Use:   "request <query...>",
	Short: "Print the URL the active provider would request",
	Long: `Builds the request for the query without sending it. Parameters listed in
the redaction list (the Bing key) are hidden.

$ geocontrol debug request -p nominatim Montevideo
https://nominatim.openstreetmap.org/search?format=json&json_callback=_l_geocoder_0&limit=5&q=Montevideo
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, provider, err := setup()
		if err != nil {
			return err
		}

		query := geocoder.NormalizeQuery(strings.Join(args, " "))

		u, err := url.Parse(provider.Request(query).URL("_l_geocoder_0"))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), httputils.RedactURL(u, httputils.SensitiveParams))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugRequestCmd)
}
