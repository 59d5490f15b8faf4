package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hoka-shop/storefront/internal/config"
	"github.com/hoka-shop/storefront/internal/errors"
)

func configCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or print the configuration",
	}

	var (
		useYAML bool
		force   bool
	)
	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default storefront.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			name := config.ConfigFileName
			if useYAML {
				name = config.YAMLConfigFileName
			}
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("S400").
					WithDetail(path + " already exists").
					WithSuggestion("Pass --force to overwrite it")
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&useYAML, "yaml", false, "Write storefront.yaml instead")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	var asYAML bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asYAML {
				return yaml.NewEncoder(out).Encode(cfg)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
	showCmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
