package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"media54/services"

	"github.com/spf13/cobra"
)

func newCollectionsCmd() *cobra.Command {
	collectionsCmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"c"},
		Short:   "List, create and inspect collections",
	}

	var filter string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			collections, err := store.ListCollections()
			if err != nil {
				return err
			}
			collections = services.FilterCollections(collections, filter)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tITEMS")
			for _, c := range collections {
				fmt.Fprintf(w, "%d\t%s\t%d\n", c.ID, c.Title, c.Items)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVarP(&filter, "filter", "f", "", "Fuzzy filter on collection titles")

	createCmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create an empty collection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			id, err := store.NextCollectionID()
			if err != nil {
				return err
			}
			if err := store.InitCollection(id); err != nil {
				return err
			}
			if len(args) == 1 {
				record, err := store.LoadManifest(id)
				if err != nil {
					return err
				}
				record.Title = args[0]
				if err := store.SaveManifest(id, record); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created collection %d\n", id)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a collection manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid collection id %q", args[0])
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			record, err := store.LoadManifest(id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		},
	}

	collectionsCmd.AddCommand(listCmd, createCmd, showCmd)
	return collectionsCmd
}

func newDisplaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "displays",
		Short: "List configured displays",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tX\tY\tWIDTH\tHEIGHT")
			for i, d := range services.NewDisplayService(cfg.Displays).ListDisplays() {
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", i, d.X, d.Y, d.Width, d.Height)
			}
			return w.Flush()
		},
	}
}
