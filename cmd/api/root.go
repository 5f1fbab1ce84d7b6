package main

import (
	"github.com/spf13/cobra"
	"github.com/yigit/knowledgemap/internal/config"
)

var configPath string

// rootCmd serves the API when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "knowledgemap",
	Short: "course hierarchy and prerequisite API",
	Example: `knowledgemap serve --config configs/config.yaml
knowledgemap migrate
knowledgemap seed`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
