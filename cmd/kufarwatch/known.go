package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pevans/kufarwatch/knownset"
)

func newKnownCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "known",
		Short: "Print the listings recorded in the state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd.Flags(), false)
			if err != nil {
				return err
			}

			store, err := knownset.OpenReadOnly(cfg.Storage.Type, cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("failed to open known listings: %w", err)
			}
			defer store.Close()

			result := store.Load(cmd.Context())
			out := cmd.OutOrStdout()

			switch result.Status {
			case knownset.StatusAbsent:
				fmt.Fprintln(out, "No known listings yet.")
				return nil
			case knownset.StatusCorrupt:
				return fmt.Errorf("known listings are unreadable: %w", result.Err)
			}

			fmt.Fprintf(out, "%-12s %-50s %s\n", "ID", "TITLE", "URL")
			fmt.Fprintln(out, "----------------------------------------------------------------------------------------------------")

			for _, id := range result.Set.IDsDescending() {
				l := result.Set[id]
				title := l.Title
				if len([]rune(title)) > 50 {
					title = string([]rune(title)[:47]) + "..."
				}
				fmt.Fprintf(out, "%-12d %-50s %s\n", l.ID, title, l.URL)
			}
			fmt.Fprintf(out, "\n%d known listings\n", len(result.Set))

			return nil
		},
	}
}
