package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/cellui/internal/config"
	"github.com/vango-dev/cellui/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		name  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default cellui.yaml",
		Long: `Write cellui.yaml with the default settings into the --dir directory.

Examples:
  cellui init
  cellui init --name=counter -C ./app`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if config.Exists(dir) && !force {
				return errors.New(errors.CodeConfigInvalid).
					WithDetail(config.ConfigFileName + " already exists in " + dir).
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.New()
			if name != "" {
				cfg.App.Name = name
			}
			path := filepath.Join(dir, config.ConfigFileName)
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success(cmd, "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Application name")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
