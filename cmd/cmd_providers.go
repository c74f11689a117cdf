// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the geocoding providers and whether they are usable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(flags.config, &flags)
		if err != nil {
			return err
		}

		tr := cfg.Transport(nil, false)

		for _, name := range providerNames {
			status := "ready"
			if _, err := cfg.newProvider(name, tr); err != nil {
				status = err.Error()
			}

			marker := " "
			if name == cfg.Provider {
				marker = "*"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s\n", marker, name, status)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
