package cmd

import (
	"fmt"
	"os"

	"media54/config"
	"media54/services"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration flags
var (
	configFile string
	dataRoot   string
	port       int
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "media54",
		Short: "Media54 assembles media collections and presents them across displays",
		Long: `Media54 stores collections of audio, video, images and labels, and keeps any
number of full-screen presentation windows in sync with the control surface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Define persistent flags that will be available for all commands
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config file (default ~/.config/media54/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataRoot, "data-root", "d", "", "Collections directory (overrides config and MEDIA54_DATA_ROOT)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config and MEDIA54_SERVER_PORT)")

	// Add commands to root
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCollectionsCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newDisplaysCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// LoadConfig loads configuration with respect to command line flags
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.New(), configFile)
	if err != nil {
		return nil, err
	}

	if dataRoot != "" {
		cfg.DataRoot = dataRoot
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	return cfg, cfg.Validate()
}

// openStore builds the collection store for CLI commands
func openStore() (services.CollectionStore, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	store := services.NewCollectionStore(cfg.DataRoot, services.NewTagExtractor(), 0)
	if err := store.EnsureDataRoot(); err != nil {
		return nil, err
	}
	return store, nil
}
