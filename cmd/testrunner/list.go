package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listFilter []string
	listID     string
)

var listCmd = &cobra.Command{
	Use:   "list [apps...]",
	Short: "List the tests that would be selected for one or more applications",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		apps, preset, err := loadConfig()
		if err != nil {
			return err
		}

		appNames, err := resolveAppNames(apps, args)
		if err != nil {
			return err
		}

		selected, err := selectTests(apps, preset, appNames, idFilter(listFilter, listID))
		if err != nil {
			return err
		}

		for _, t := range selected {
			fmt.Fprintf(cmd.OutOrStdout(), "%s --id %s\n", t.appName, t.id.ID)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringSliceVarP(&listFilter, "filter", "f", nil, "select ids that contain one of the given substrings")
	listCmd.Flags().StringVar(&listID, "id", "", "select exactly one test id")
}
