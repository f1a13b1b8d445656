package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices offered by the selector",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tLANGUAGE")
		for _, v := range catalog.Voices() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, v.DisplayName(), v.Language)
		}
		return w.Flush()
	},
}
