// Package core provides the simulator facade. It loads a program, owns the
// out-of-order engine for it and drives the engine either one cycle at a
// time or to completion on an Akita event engine.
package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ooosim/loader"
	"github.com/sarchlab/ooosim/timing/pipeline"
)

var (
	// ErrNoProgram is returned by Init when no program has been loaded.
	ErrNoProgram = errors.New("no program loaded")
	// ErrNotInitialized is returned by Step and Run before Init.
	ErrNotInitialized = errors.New("core not initialized")
	// ErrCycleLimit is returned by Run when MaxCycles elapses before the
	// program ends.
	ErrCycleLimit = errors.New("cycle limit reached")
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of stall cycles.
	Stalls uint64
	// Flushes is the number of misprediction flushes.
	Flushes uint64
	// Forwards is the number of store-to-load forwards.
	Forwards uint64
}

// CPI returns cycles per retired instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithConfig sets the engine configuration.
func WithConfig(cfg pipeline.Config) Option {
	return func(c *Core) {
		c.config = cfg.Clone()
	}
}

// WithEngineOptions passes options to every engine the core creates.
func WithEngineOptions(opts ...pipeline.Option) Option {
	return func(c *Core) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// WithFreq sets the clock frequency used when running on the event engine.
func WithFreq(freq sim.Freq) Option {
	return func(c *Core) {
		c.freq = freq
	}
}

// Core owns the loaded program and the engine executing it.
type Core struct {
	config     pipeline.Config
	engineOpts []pipeline.Option
	freq       sim.Freq

	prog   *loader.Program
	engine *pipeline.Engine
}

// New creates a core with the default engine configuration.
func New(opts ...Option) *Core {
	c := &Core{
		config: pipeline.DefaultConfig(),
		freq:   1 * sim.GHz,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load parses assembly text and makes it the current program. On error the
// previous program and engine are discarded.
func (c *Core) Load(text string) (*loader.Program, error) {
	c.prog = nil
	c.engine = nil

	prog, err := loader.Load(text)
	if err != nil {
		return nil, err
	}
	c.prog = prog
	return prog, nil
}

// LoadFile reads and loads an assembly file.
func (c *Core) LoadFile(path string) (*loader.Program, error) {
	c.prog = nil
	c.engine = nil

	prog, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	c.prog = prog
	return prog, nil
}

// Program returns the current program, or nil.
func (c *Core) Program() *loader.Program {
	return c.prog
}

// Init resets all engine state for the current program. With autoRun set
// it also runs the program to completion.
func (c *Core) Init(autoRun bool) error {
	if c.prog == nil {
		return ErrNoProgram
	}

	engine, err := pipeline.NewEngine(c.prog, c.config, c.engineOpts...)
	if err != nil {
		return err
	}
	c.engine = engine

	if autoRun {
		return c.Run()
	}
	return nil
}

// Step advances the engine by one cycle.
func (c *Core) Step() (pipeline.Status, error) {
	if c.engine == nil {
		return pipeline.Ended, ErrNotInitialized
	}
	return c.engine.Step(), nil
}

// Run ticks the engine on a serial Akita engine until the program ends or
// the configured cycle limit is reached.
func (c *Core) Run() error {
	if c.engine == nil {
		return ErrNotInitialized
	}

	simEngine := sim.NewSerialEngine()
	d := &driver{
		engine:    c.engine,
		maxCycles: c.config.MaxCycles,
	}
	d.TickingComponent = sim.NewTickingComponent("Core", simEngine, c.freq, d)

	d.TickLater()
	if err := simEngine.Run(); err != nil {
		return fmt.Errorf("event engine failed: %w", err)
	}

	if c.engine.Status() != pipeline.Ended {
		return fmt.Errorf("%w after %d cycles", ErrCycleLimit, c.engine.Cycle())
	}
	return nil
}

// Engine returns the engine created by the last Init, or nil.
func (c *Core) Engine() *pipeline.Engine {
	return c.engine
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	if c.engine == nil {
		return Stats{}
	}
	s := c.engine.Stats()
	return Stats{
		Cycles:       s.Cycles,
		Instructions: s.Committed,
		Stalls:       s.Stalls,
		Flushes:      s.Flushes,
		Forwards:     s.Forwards,
	}
}
