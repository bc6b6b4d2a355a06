package pipeline

import "github.com/sarchlab/ooosim/insts"

// StationEntry is an instruction waiting in a reservation station.
type StationEntry struct {
	InstID int
	Op     insts.Op
	Unit   insts.Unit

	// Vj and Vk hold source values once available.
	Vj, Vk uint64
	// Qj and Qk hold the tags of pending producers, or NoTag.
	Qj, Qk int

	// Imm is the ADDI immediate or the load/store offset.
	Imm int64

	// Dest is the tag of the instruction's reorder buffer entry.
	Dest int
	Seq  uint64
}

// Ready returns true once both source operands hold values.
func (e StationEntry) Ready() bool {
	return e.Qj == NoTag && e.Qk == NoTag
}

// StationState is a copy of one reservation station.
type StationState struct {
	Unit     insts.Unit
	Capacity int
	Entries  []StationEntry
}

type reservationStation struct {
	unit     insts.Unit
	capacity int
	entries  []StationEntry
}

func newReservationStation(unit insts.Unit, capacity int) *reservationStation {
	return &reservationStation{
		unit:     unit,
		capacity: capacity,
		entries:  make([]StationEntry, 0, capacity),
	}
}

func (s *reservationStation) full() bool  { return len(s.entries) >= s.capacity }
func (s *reservationStation) empty() bool { return len(s.entries) == 0 }

func (s *reservationStation) add(e StationEntry) {
	if s.full() {
		panic("pipeline: dispatching to a full " + s.unit.String() + " station")
	}
	s.entries = append(s.entries, e)
}

// oldestReady returns the index of the ready entry with the lowest sequence
// number, ties broken by the lowest tag, for which canIssue also holds.
// It returns -1 if no entry qualifies.
func (s *reservationStation) oldestReady(canIssue func(StationEntry) bool) int {
	best := -1
	for i, e := range s.entries {
		if !e.Ready() || !canIssue(e) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := s.entries[best]
		if e.Seq < b.Seq || (e.Seq == b.Seq && e.Dest < b.Dest) {
			best = i
		}
	}
	return best
}

func (s *reservationStation) remove(i int) StationEntry {
	e := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return e
}

// broadcast delivers a produced value to entries waiting on tag.
func (s *reservationStation) broadcast(tag int, value uint64) {
	for i := range s.entries {
		e := &s.entries[i]
		if e.Qj == tag {
			e.Vj = value
			e.Qj = NoTag
		}
		if e.Qk == tag {
			e.Vk = value
			e.Qk = NoTag
		}
	}
}

// drop removes entries whose destination tag is in discarded and returns
// how many were removed.
func (s *reservationStation) drop(discarded map[int]bool) int {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !discarded[e.Dest] {
			kept = append(kept, e)
		}
	}
	n := len(s.entries) - len(kept)
	s.entries = kept
	return n
}

func (s *reservationStation) state() StationState {
	return StationState{
		Unit:     s.unit,
		Capacity: s.capacity,
		Entries:  append([]StationEntry(nil), s.entries...),
	}
}

func (s *reservationStation) reset() {
	s.entries = s.entries[:0]
}
