// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ConfigEnv names the environment variable consulted when --config is not given.
const ConfigEnv = "FIXTURE_CONFIG"

var rootCmd = &cobra.Command{
	Use:   "fixture",
	Short: "HTTP fixture for exercising browser-like clients",
	Long: `fixture serves a small, fixed set of pages for testing HTTP clients:
status setting, header and body echoing, cookie setting and reading, and
static resources under /@@/testbrowser/.`,
	SilenceUsage: true,
}

func init() {
	rootFlags(rootCmd.PersistentFlags())
}

func rootFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "configuration file (default: $"+ConfigEnv+")")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
