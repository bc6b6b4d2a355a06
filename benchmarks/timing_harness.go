// Package benchmarks provides timing benchmark infrastructure: a set of
// assembly kernels and a harness that runs them on the out-of-order engine
// and checks the results against the in-order reference emulator.
package benchmarks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/ooosim/emu"
	"github.com/sarchlab/ooosim/loader"
	"github.com/sarchlab/ooosim/timing/pipeline"
)

// ErrMismatch is returned when a benchmark's final state differs from the
// expected values or from the reference emulator.
var ErrMismatch = errors.New("result mismatch")

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of committed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of cycles with no progress
	StallCycles uint64 `json:"stall_cycles"`

	// PipelineFlushes is the number of misprediction flushes
	PipelineFlushes uint64 `json:"pipeline_flushes"`

	// Squashed is the number of wrong-path instructions discarded
	Squashed uint64 `json:"squashed"`

	// Forwards is the number of store-to-load forwards
	Forwards uint64 `json:"forwards"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// Branch predictor stats
	BranchPredictions     uint64  `json:"branch_predictions,omitempty"`
	BranchCorrect         uint64  `json:"branch_correct,omitempty"`
	BranchMispredictions  uint64  `json:"branch_mispredictions,omitempty"`
	BranchAccuracyPercent float64 `json:"branch_accuracy_percent,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Source is the assembly program
	Source string

	// Expected maps general registers to their expected final values
	Expected map[uint8]uint64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Engine is the configuration every benchmark runs with
	Engine pipeline.Config

	// Parallelism bounds the number of benchmarks run at once.
	// 0 means one per CPU.
	Parallelism int

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	engine := pipeline.DefaultConfig()
	engine.MaxCycles = 1_000_000
	return HarnessConfig{
		Engine: engine,
		Output: os.Stdout,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks concurrently and returns their results in
// the order the benchmarks were added. It stops at the first failure.
func (h *Harness) RunAll(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, len(h.benchmarks))
	if len(h.benchmarks) == 0 {
		return results, nil
	}

	jobs := h.config.Parallelism
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(h.benchmarks)))

	for i, bench := range h.benchmarks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := h.runBenchmark(bench)
			if err != nil {
				return fmt.Errorf("benchmark %s: %w", bench.Name, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	prog, err := loader.Load(bench.Source)
	if err != nil {
		return BenchmarkResult{}, err
	}

	engine, err := pipeline.NewEngine(prog, h.config.Engine)
	if err != nil {
		return BenchmarkResult{}, err
	}

	start := time.Now()
	status := engine.Run()
	wallTime := time.Since(start)

	if status != pipeline.Ended {
		return BenchmarkResult{}, fmt.Errorf("did not finish within %d cycles", engine.Cycle())
	}

	if err := verify(bench, prog, engine); err != nil {
		return BenchmarkResult{}, err
	}

	stats := engine.Stats()
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Committed,
		CPI:                 stats.CPI(),
		StallCycles:         stats.Stalls,
		PipelineFlushes:     stats.Flushes,
		Squashed:            stats.Squashed,
		Forwards:            stats.Forwards,
		WallTime:            wallTime,
	}

	if dcStats, ok := engine.DCacheStats(); ok {
		result.DCacheHits = dcStats.Hits
		result.DCacheMisses = dcStats.Misses
	}

	bpStats := engine.PredictorStats()
	result.BranchPredictions = bpStats.Predictions
	result.BranchCorrect = bpStats.Correct
	result.BranchMispredictions = bpStats.Mispredictions
	result.BranchAccuracyPercent = bpStats.Accuracy()

	return result, nil
}

// verify checks the expected register values and compares the committed
// state with an in-order run of the same program.
func verify(bench Benchmark, prog *loader.Program, engine *pipeline.Engine) error {
	regs := engine.Registers()
	for reg, want := range bench.Expected {
		if got := regs.ReadReg(reg); got != want {
			return fmt.Errorf("%w: r%d = %d, want %d", ErrMismatch, reg, got, want)
		}
	}

	ref := emu.NewEmulator(prog, emu.WithMaxInstructions(engine.Stats().Committed))
	if err := ref.Run(); err != nil {
		return fmt.Errorf("reference run failed: %w", err)
	}
	if regs != *ref.RegFile() {
		return fmt.Errorf("%w: registers differ from the reference", ErrMismatch)
	}

	cells := engine.Memory()
	refCells := ref.Memory().Cells()
	if len(cells) != len(refCells) {
		return fmt.Errorf("%w: memory differs from the reference", ErrMismatch)
	}
	for i := range cells {
		if cells[i] != refCells[i] {
			return fmt.Errorf("%w: memory[%d] = %d, reference %d",
				ErrMismatch, cells[i].Addr, cells[i].Value, refCells[i].Value)
		}
	}
	return nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Pipeline Flushes:     %d\n", r.PipelineFlushes)
		_, _ = fmt.Fprintf(h.config.Output, "  Squashed:             %d\n", r.Squashed)
		if r.Forwards > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Store Forwards:       %d\n", r.Forwards)
		}

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.DCacheMisses)
		}

		if r.BranchPredictions > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Branch Predictor ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Predictions:     %d\n", r.BranchPredictions)
			_, _ = fmt.Fprintf(h.config.Output, "  Correct:         %d\n", r.BranchCorrect)
			_, _ = fmt.Fprintf(h.config.Output, "  Mispredictions:  %d\n", r.BranchMispredictions)
			_, _ = fmt.Fprintf(h.config.Output, "  Accuracy:        %.1f%%\n", r.BranchAccuracyPercent)
		}

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		}
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,stalls,flushes,squashed,forwards,dcache_hits,dcache_misses,mispredictions")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.PipelineFlushes,
			r.Squashed,
			r.Forwards,
			r.DCacheHits,
			r.DCacheMisses,
			r.BranchMispredictions,
		)
	}
}
