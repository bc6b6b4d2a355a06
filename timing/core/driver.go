package core

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ooosim/timing/pipeline"
)

// driver steps the engine once per tick of an Akita ticking component.
type driver struct {
	*sim.TickingComponent

	engine    *pipeline.Engine
	maxCycles uint64
}

// Tick advances one cycle. Returning false stops the ticking once the
// program has ended or the cycle limit is hit.
func (d *driver) Tick() bool {
	if d.maxCycles > 0 && d.engine.Cycle() >= d.maxCycles {
		return false
	}
	return d.engine.Step() != pipeline.Ended
}
