// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/xmidt-org/fixture"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the paths the fixture serves",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printRoutes(cmd.OutOrStdout(), fixture.NewDispatcher())
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func printRoutes(w io.Writer, d *fixture.Dispatcher) error {
	for _, p := range d.Routes().Paths() {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, fixture.ResourcePrefix+"<file>")
	return err
}
