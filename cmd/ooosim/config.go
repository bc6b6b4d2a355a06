package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/ooosim/timing/pipeline"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default engine configuration, or validate a config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		from, _ := cmd.Flags().GetString("from")

		cfg := pipeline.DefaultConfig()
		if from != "" {
			loaded, err := pipeline.LoadConfig(from)
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			cfg = loaded
		}

		return cfg.Write(cmd.OutOrStdout(), format)
	},
}

func init() {
	configCmd.Flags().String("format", pipeline.FormatTOML, "output format (toml|json)")
	configCmd.Flags().String("from", "", "load and validate this config file instead of printing defaults")
}
