package pipeline

import (
	"github.com/sarchlab/ooosim/emu"
	"github.com/sarchlab/ooosim/timing/cache"
)

// CycleEvent describes one completed cycle.
type CycleEvent struct {
	Cycle  uint64
	Status Status
	// Committed lists the entries retired this cycle, oldest first.
	Committed []ROBEntry
}

// Observer is notified after every cycle.
type Observer interface {
	OnCycle(ev CycleEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev CycleEvent)

// OnCycle calls f(ev).
func (f ObserverFunc) OnCycle(ev CycleEvent) {
	f(ev)
}

// Snapshot is a copy of the complete engine state. It shares no storage
// with the engine.
type Snapshot struct {
	Cycle  uint64
	Status Status
	// PC is the next instruction the front end will fetch.
	PC int

	Registers emu.RegFile
	Memory    []emu.Cell
	Rename    RenameTable

	// ROB lists live entries oldest first. ROBCapacity is the number of
	// slots.
	ROB         []ROBEntry
	ROBCapacity int

	Stations []StationState
	Units    []UnitState
	Prefetch []FetchedInst

	Stats     Statistics
	Predictor BranchPredictorStats
}

// Cycle returns the number of cycles simulated since the last Reset.
func (e *Engine) Cycle() uint64 {
	return e.cycle
}

// PC returns the next instruction the front end will fetch.
func (e *Engine) PC() int {
	return e.pc
}

// Registers returns a copy of the architectural register files.
func (e *Engine) Registers() emu.RegFile {
	return e.regs
}

// Memory returns the committed memory contents ordered by address.
func (e *Engine) Memory() []emu.Cell {
	return e.memory.Cells()
}

// ReadMemory returns the committed word at addr.
func (e *Engine) ReadMemory(addr uint64) uint64 {
	return e.memory.Read(addr)
}

// ROB returns the live reorder buffer entries, oldest first.
func (e *Engine) ROB() []ROBEntry {
	return e.rob.snapshot()
}

// Stations returns the reservation stations in unit order.
func (e *Engine) Stations() []StationState {
	out := make([]StationState, 0, len(e.stations))
	for _, s := range e.stations {
		out = append(out, s.state())
	}
	return out
}

// Units returns the functional units in unit order.
func (e *Engine) Units() []UnitState {
	out := make([]UnitState, 0, len(e.units))
	for _, u := range e.units {
		out = append(out, u.state())
	}
	return out
}

// RenameMap returns a copy of the rename tables.
func (e *Engine) RenameMap() RenameTable {
	return e.rename
}

// Prefetch returns the contents of the prefetch buffer.
func (e *Engine) Prefetch() []FetchedInst {
	return e.prefetch.snapshot()
}

// Stats returns engine statistics.
func (e *Engine) Stats() Statistics {
	return e.stats
}

// PredictorStats returns jump predictor statistics.
func (e *Engine) PredictorStats() BranchPredictorStats {
	return e.predictor.Stats()
}

// DCacheStats returns data cache statistics. ok is false when no data
// cache is configured.
func (e *Engine) DCacheStats() (stats cache.Statistics, ok bool) {
	if e.dcache == nil {
		return cache.Statistics{}, false
	}
	return e.dcache.Stats(), true
}

// Snapshot copies the complete engine state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Cycle:       e.cycle,
		Status:      e.status,
		PC:          e.pc,
		Registers:   e.regs,
		Memory:      e.Memory(),
		Rename:      e.rename,
		ROB:         e.ROB(),
		ROBCapacity: e.rob.capacity(),
		Stations:    e.Stations(),
		Units:       e.Units(),
		Prefetch:    e.Prefetch(),
		Stats:       e.stats,
		Predictor:   e.predictor.Stats(),
	}
}
