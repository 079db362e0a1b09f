package main

import (
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "seisplot",
		Short:        "Waveform plot web front end",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(serveCmd(&configPath), renderCmd(&configPath))
	return root
}
