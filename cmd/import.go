package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"media54/services"
	"media54/types"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var quiet bool

	importCmd := &cobra.Command{
		Use:   "import <collection-id> <file>...",
		Short: "Copy files into a collection and append them to its manifest",
		Long: `Copy files into a collection directory and append them to the manifest.
If a file fails, the import stops; files copied before it stay in the
collection directory but are not added to the manifest.`,
		Args: cobra.MinimumNArgs(2),
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

			var opts []services.ImportOption
			if !quiet {
				opts = append(opts, services.WithProgress(func(source string, size int64) io.Writer {
					return progressbar.DefaultBytes(size, filepath.Base(source))
				}))
			}

			imported, err := store.ImportFiles(id, args[1:], opts...)
			if err != nil {
				return err
			}

			for _, item := range imported {
				record.Items = append(record.Items, item.Item(itemTitle(item)))
			}
			if err := store.SaveManifest(id, record); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d file(s) into collection %d\n", len(imported), id)
			return nil
		},
	}
	importCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show progress bars")
	return importCmd
}

// itemTitle prefers the tag title and falls back to the source file name
func itemTitle(item types.ImportedItem) string {
	if item.Meta != nil && item.Meta.Title != "" {
		return item.Meta.Title
	}
	return strings.TrimSuffix(item.Filename, filepath.Ext(item.Filename))
}
