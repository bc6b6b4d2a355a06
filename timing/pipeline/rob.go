package pipeline

import (
	"fmt"

	"github.com/sarchlab/ooosim/insts"
)

// NoTag marks an operand or rename entry that does not wait on any
// reorder buffer entry.
const NoTag = -1

// EntryState is the lifecycle state of a reorder buffer entry.
type EntryState uint8

// Reorder buffer entry states.
const (
	// StateIssued entries wait in a reservation station.
	StateIssued EntryState = iota
	// StateExecuting entries occupy a functional unit.
	StateExecuting
	// StateCompleted entries have broadcast their result.
	StateCompleted
	// StateCommitted entries have retired.
	StateCommitted
)

func (s EntryState) String() string {
	switch s {
	case StateIssued:
		return "issued"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// DestKind tells where an entry's result goes at commit.
type DestKind uint8

// Destination kinds.
const (
	DestNone DestKind = iota
	DestRegister
	DestMemory
)

// ROBEntry is one reorder buffer slot.
type ROBEntry struct {
	// Tag is the slot index. It names the entry in reservation stations,
	// functional units and rename maps.
	Tag int
	// Seq is the program-order sequence number of the entry.
	Seq    uint64
	InstID int
	Op     insts.Op

	DestKind DestKind
	// Dest is the destination register when DestKind is DestRegister.
	Dest insts.Reg
	// Addr is the store address when DestKind is DestMemory.
	Addr uint64

	State EntryState
	Value uint64

	// PredictedNext is the instruction fetched after this one.
	PredictedNext int
	// ActualNext is set once a branch resolves.
	ActualNext int
	// Mispredicted is set when a resolved branch disagrees with its
	// prediction. Committing such an entry flushes the engine.
	Mispredicted bool
}

// reorderBuffer is a fixed-capacity ring of entries in program order.
type reorderBuffer struct {
	entries []ROBEntry
	busy    []bool
	head    int
	count   int
}

func newReorderBuffer(size int) *reorderBuffer {
	return &reorderBuffer{
		entries: make([]ROBEntry, size),
		busy:    make([]bool, size),
	}
}

func (r *reorderBuffer) capacity() int { return len(r.entries) }
func (r *reorderBuffer) empty() bool   { return r.count == 0 }
func (r *reorderBuffer) full() bool    { return r.count == len(r.entries) }

// alloc appends an entry at the tail and returns its tag.
func (r *reorderBuffer) alloc(e ROBEntry) int {
	if r.full() {
		panic("pipeline: allocating from a full reorder buffer")
	}
	tag := (r.head + r.count) % len(r.entries)
	e.Tag = tag
	r.entries[tag] = e
	r.busy[tag] = true
	r.count++
	return tag
}

// get returns the live entry with the given tag.
func (r *reorderBuffer) get(tag int) *ROBEntry {
	if tag < 0 || tag >= len(r.entries) || !r.busy[tag] {
		panic(fmt.Sprintf("pipeline: reorder buffer tag %d is not allocated", tag))
	}
	return &r.entries[tag]
}

// peek returns the oldest entry.
func (r *reorderBuffer) peek() *ROBEntry {
	if r.empty() {
		panic("pipeline: reading the head of an empty reorder buffer")
	}
	return &r.entries[r.head]
}

// pop frees the oldest entry and returns a copy of it.
func (r *reorderBuffer) pop() ROBEntry {
	e := *r.peek()
	r.busy[r.head] = false
	r.entries[r.head] = ROBEntry{}
	r.head = (r.head + 1) % len(r.entries)
	r.count--
	return e
}

// each visits live entries from oldest to youngest until fn returns false.
func (r *reorderBuffer) each(fn func(e *ROBEntry) bool) {
	for i := 0; i < r.count; i++ {
		if !fn(&r.entries[(r.head+i)%len(r.entries)]) {
			return
		}
	}
}

// discardYounger frees every entry with a sequence number greater than seq
// and returns their tags.
func (r *reorderBuffer) discardYounger(seq uint64) []int {
	keep := 0
	r.each(func(e *ROBEntry) bool {
		if e.Seq > seq {
			return false
		}
		keep++
		return true
	})

	var discarded []int
	for i := keep; i < r.count; i++ {
		tag := (r.head + i) % len(r.entries)
		discarded = append(discarded, tag)
		r.busy[tag] = false
		r.entries[tag] = ROBEntry{}
	}
	r.count = keep
	return discarded
}

// snapshot copies the live entries in program order.
func (r *reorderBuffer) snapshot() []ROBEntry {
	out := make([]ROBEntry, 0, r.count)
	r.each(func(e *ROBEntry) bool {
		out = append(out, *e)
		return true
	})
	return out
}

func (r *reorderBuffer) reset() {
	for i := range r.entries {
		r.entries[i] = ROBEntry{}
		r.busy[i] = false
	}
	r.head = 0
	r.count = 0
}
