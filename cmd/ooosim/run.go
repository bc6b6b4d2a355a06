package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/ooosim/timing/cache"
	"github.com/sarchlab/ooosim/timing/core"
	"github.com/sarchlab/ooosim/timing/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <file>...",
	Short: "Run programs to completion and report their final state",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExecution,
}

func init() {
	runCmd.Flags().String("config", "", "engine configuration file (.toml or .json)")
	runCmd.Flags().String("trace", "", "write a per-cycle msgpack trace to this file (single program only)")
	runCmd.Flags().Uint64("max-cycles", 0, "stop after this many cycles (0 keeps the configured limit)")
	runCmd.Flags().Int("issue-width", 0, "override the fetch/decode width")
	runCmd.Flags().String("policy", "", "override the predictor policy (not-taken|taken|bimodal)")
	runCmd.Flags().Bool("dcache", false, "enable the L1 data cache model")
	runCmd.Flags().IntP("jobs", "j", 0, "programs simulated in parallel (0 = one per CPU)")
	runCmd.Flags().Bool("dump", false, "pretty-print the final engine snapshot")
	runCmd.Flags().String("cpuprofile", "", "write a CPU profile of the simulator to this file")
	runCmd.Flags().String("memprofile", "", "write a heap profile of the simulator to this file")
}

type runOptions struct {
	config  pipeline.Config
	trace   string
	verbose bool
	jobs    int
}

type runResult struct {
	path   string
	engine *pipeline.Engine
	err    error
}

func runExecution(cmd *cobra.Command, args []string) error {
	opts, err := parseRunOptions(cmd)
	if err != nil {
		return err
	}
	if opts.trace != "" && len(args) > 1 {
		return errors.New("--trace accepts a single program")
	}

	cpuProfile, _ := cmd.Flags().GetString("cpuprofile")
	memProfile, _ := cmd.Flags().GetString("memprofile")
	stopProfiling, err := startProfiling(cpuProfile, memProfile)
	if err != nil {
		return err
	}

	results := simulateAll(cmd.Context(), args, opts)
	if err := stopProfiling(); err != nil {
		return err
	}

	colored := useColor(cmd, os.Stdout)
	dump, _ := cmd.Flags().GetBool("dump")
	p := newPalette(colored)
	out := cmd.OutOrStdout()
	failed := 0
	for i, r := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		printReport(out, p, r)
		if dump && r.engine != nil {
			dumpSnapshot(out, r.engine.Snapshot(), colored)
		}
		if r.err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d programs failed", failed, len(results))
	}
	return nil
}

func parseRunOptions(cmd *cobra.Command) (runOptions, error) {
	opts := runOptions{config: pipeline.DefaultConfig()}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := pipeline.LoadConfig(path)
		if err != nil {
			return opts, err
		}
		opts.config = cfg
	}

	if n, _ := cmd.Flags().GetUint64("max-cycles"); n > 0 {
		opts.config.MaxCycles = n
	}
	if n, _ := cmd.Flags().GetInt("issue-width"); n > 0 {
		opts.config.IssueWidth = n
	}
	if policy, _ := cmd.Flags().GetString("policy"); policy != "" {
		opts.config.Predictor.Policy = policy
	}
	if on, _ := cmd.Flags().GetBool("dcache"); on && opts.config.DCache == nil {
		dc := cache.DefaultL1DConfig()
		opts.config.DCache = &dc
	}

	if err := opts.config.Validate(); err != nil {
		return opts, err
	}

	opts.trace, _ = cmd.Flags().GetString("trace")
	opts.verbose, _ = cmd.Root().PersistentFlags().GetBool("verbose")
	opts.jobs, _ = cmd.Flags().GetInt("jobs")
	return opts, nil
}

// simulateAll runs every program and returns the results in argument order.
// A failing program does not stop the others.
func simulateAll(ctx context.Context, paths []string, opts runOptions) []runResult {
	if ctx == nil {
		ctx = context.Background()
	}

	jobs := opts.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]runResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = runResult{path: path, err: err}
				return nil
			}
			results[i] = simulate(path, opts, newLogger(opts.verbose, os.Stderr))
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func newLogger(verbose bool, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func simulate(path string, opts runOptions, log logrus.FieldLogger) runResult {
	log = log.WithField("program", path)

	var c *core.Core
	engineOpts := []pipeline.Option{pipeline.WithLogger(log)}

	var rec *traceRecorder
	if opts.trace != "" {
		rec = &traceRecorder{
			engine: func() *pipeline.Engine { return c.Engine() },
			trace:  Trace{Program: path, Config: opts.config},
		}
		engineOpts = append(engineOpts, pipeline.WithObserver(rec))
	}

	c = core.New(core.WithConfig(opts.config), core.WithEngineOptions(engineOpts...))
	if _, err := c.LoadFile(path); err != nil {
		return runResult{path: path, err: err}
	}

	runErr := c.Init(true)
	result := runResult{path: path, engine: c.Engine(), err: runErr}

	if rec != nil {
		if err := rec.save(opts.trace); err != nil && result.err == nil {
			result.err = err
		}
	}

	if runErr == nil {
		log.WithField("cycles", c.Stats().Cycles).Info("program finished")
	}
	return result
}
