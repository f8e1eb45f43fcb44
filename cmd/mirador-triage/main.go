package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "mirador-triage",
		Short:        "Rank alert batches into prioritised incidents",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (or MIRADOR_TRIAGE_CONFIG)")

	root.AddCommand(newRankCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	return root
}
