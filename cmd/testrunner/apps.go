package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List every registered application name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		apps, _, err := loadConfig()
		if err != nil {
			return err
		}
		for _, name := range sortedAppNames(apps) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
