package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "docent",
	Short: "Docent - a documentation chat agent for your project",
	Long: `Docent indexes a project's documentation and source code and serves a
streaming chat agent that answers visitor questions using that index.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to docent.yaml")
}

func Execute() error {
	return rootCmd.Execute()
}
