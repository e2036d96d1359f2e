package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect scoring configurations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the scoring configuration given by --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadScoringConfig(v)
			if err != nil {
				return err
			}
			source := v.GetString("config")
			if source == "" {
				source = "built-in default"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %s version %s (%d categories, %d themes, %d tiers)\n",
				source, cfg.Version, len(cfg.Categories), len(cfg.Themes), len(cfg.Tiers))
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the effective scoring configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadScoringConfig(v)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}
