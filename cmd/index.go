package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docentsh/docent/core/config"
	"github.com/docentsh/docent/core/index"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index once and print what it contains",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		ix, err := index.New(cfg.Index)
		if err != nil {
			return err
		}
		if err := ix.Reindex(cmd.Context()); err != nil {
			return err
		}

		docs, code := ix.Stats()
		fmt.Printf("Indexed %d documentation files and %d code files.\n", docs, code)
		for _, f := range ix.Files() {
			fmt.Printf("  [%s] %s\n", f.Category, f.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
