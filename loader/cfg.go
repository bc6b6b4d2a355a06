package loader

// BlockStart is the first instruction of a basic block. A block created
// for a label that has been referenced but not yet defined is Unresolved.
type BlockStart struct {
	resolved bool
	line     int
}

// Unresolved returns the start of a placeholder block.
func Unresolved() BlockStart {
	return BlockStart{}
}

// Resolved returns a start at the given instruction index.
func Resolved(line int) BlockStart {
	return BlockStart{resolved: true, line: line}
}

// Line returns the instruction index and whether the start is resolved.
func (s BlockStart) Line() (int, bool) {
	return s.line, s.resolved
}

// IsResolved reports whether the block has been materialised.
func (s BlockStart) IsResolved() bool {
	return s.resolved
}

// BasicBlock is a node of the control-flow graph.
type BasicBlock struct {
	// ID is assigned in program order when the block is materialised.
	ID    int
	Start BlockStart
	// Successors holds the branch target (if any) followed by the
	// fallthrough block (if any), without duplicates.
	Successors []int
	// Next is the following block in program order, or -1.
	Next int
}

// Label is an entry of the label table.
type Label struct {
	Name string
	// Block is the id of the block the label starts.
	Block int
}

// blockArena owns the blocks while a program is being built. Blocks are
// addressed by handle; ids are only assigned on materialisation, so
// placeholders live in the arena without one.
type blockArena struct {
	blocks []BasicBlock
	nextID int
}

func (a *blockArena) placeholder() int {
	a.blocks = append(a.blocks, BasicBlock{ID: -1, Start: Unresolved(), Next: -1})
	return len(a.blocks) - 1
}

func (a *blockArena) open(line int) int {
	h := a.placeholder()
	a.materialize(h, line)
	return h
}

func (a *blockArena) materialize(h, line int) {
	a.blocks[h].Start = Resolved(line)
	a.blocks[h].ID = a.nextID
	a.nextID++
}

// link makes to the program-order successor of from, with a fallthrough
// edge.
func (a *blockArena) link(from, to int) {
	if from < 0 {
		return
	}
	a.blocks[from].Next = to
	a.addEdge(from, to)
}

func (a *blockArena) addEdge(from, to int) {
	for _, s := range a.blocks[from].Successors {
		if s == to {
			return
		}
	}
	a.blocks[from].Successors = append(a.blocks[from].Successors, to)
}

// finish returns the blocks indexed by id with handles translated to ids.
// Every block must be resolved.
func (a *blockArena) finish() []BasicBlock {
	out := make([]BasicBlock, a.nextID)
	for _, b := range a.blocks {
		if !b.Start.IsResolved() {
			continue
		}
		blk := BasicBlock{ID: b.ID, Start: b.Start, Next: -1}
		if b.Next >= 0 {
			blk.Next = a.blocks[b.Next].ID
		}
		for _, s := range b.Successors {
			blk.Successors = append(blk.Successors, a.blocks[s].ID)
		}
		out[b.ID] = blk
	}
	return out
}
