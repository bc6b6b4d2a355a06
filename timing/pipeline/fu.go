package pipeline

import "github.com/sarchlab/ooosim/insts"

// UnitState is a copy of one functional unit.
type UnitState struct {
	Unit insts.Unit
	Busy bool
	// Remaining counts down to zero; the occupant's result is broadcast
	// in the cycle after it gets there.
	Remaining uint64
	// Tag is the occupant's reorder buffer tag, or NoTag when free.
	Tag    int
	InstID int
	Op     insts.Op
}

// execution is the result an occupant will broadcast once its latency has
// elapsed.
type execution struct {
	value uint64
	// addr is the effective address of loads and stores.
	addr  uint64
	taken bool
}

// functionalUnit holds one occupant at a time. An occupant issued in cycle
// c with latency L broadcasts in cycle c+L.
type functionalUnit struct {
	unit      insts.Unit
	busy      bool
	remaining uint64
	occupant  StationEntry
	result    execution
}

func (u *functionalUnit) start(e StationEntry, lat uint64, result execution) {
	if u.busy {
		panic("pipeline: issuing to a busy " + u.unit.String() + " unit")
	}
	u.busy = true
	u.remaining = 0
	if lat > 0 {
		u.remaining = lat - 1
	}
	u.occupant = e
	u.result = result
}

// tick counts down the occupant's latency.
func (u *functionalUnit) tick() {
	if u.busy && u.remaining > 0 {
		u.remaining--
	}
}

// done returns true when the occupant is ready to broadcast.
func (u *functionalUnit) done() bool {
	return u.busy && u.remaining == 0
}

func (u *functionalUnit) release() {
	u.busy = false
	u.remaining = 0
	u.occupant = StationEntry{}
	u.result = execution{}
}

func (u *functionalUnit) state() UnitState {
	s := UnitState{Unit: u.unit, Tag: NoTag, InstID: -1}
	if u.busy {
		s.Busy = true
		s.Remaining = u.remaining
		s.Tag = u.occupant.Dest
		s.InstID = u.occupant.InstID
		s.Op = u.occupant.Op
	}
	return s
}
