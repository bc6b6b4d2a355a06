package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ooosim/benchmarks"
	"github.com/sarchlab/ooosim/timing/pipeline"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the built-in timing microbenchmarks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		config := benchmarks.DefaultConfig()
		config.Output = cmd.OutOrStdout()
		config.Verbose, _ = cmd.Root().PersistentFlags().GetBool("verbose")
		config.Parallelism, _ = cmd.Flags().GetInt("jobs")

		if path, _ := cmd.Flags().GetString("config"); path != "" {
			cfg, err := pipeline.LoadConfig(path)
			if err != nil {
				return err
			}
			if cfg.MaxCycles == 0 {
				cfg.MaxCycles = config.Engine.MaxCycles
			}
			config.Engine = cfg
		}
		if policy, _ := cmd.Flags().GetString("policy"); policy != "" {
			config.Engine.Predictor.Policy = policy
		}
		if err := config.Engine.Validate(); err != nil {
			return err
		}

		harness := benchmarks.NewHarness(config)
		if core, _ := cmd.Flags().GetBool("core"); core {
			harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
		} else {
			harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		results, err := harness.RunAll(ctx)
		if err != nil {
			return fmt.Errorf("benchmarks failed: %w", err)
		}

		if csv, _ := cmd.Flags().GetBool("csv"); csv {
			harness.PrintCSV(results)
		} else {
			harness.PrintResults(results)
		}
		return nil
	},
}

func init() {
	benchCmd.Flags().Bool("csv", false, "print results as CSV")
	benchCmd.Flags().Bool("core", false, "run only the core benchmark subset")
	benchCmd.Flags().String("config", "", "engine configuration file (.toml or .json)")
	benchCmd.Flags().String("policy", "", "override the predictor policy")
	benchCmd.Flags().IntP("jobs", "j", 0, "benchmarks run in parallel (0 = one per CPU)")
}
