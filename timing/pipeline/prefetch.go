package pipeline

// FetchedInst is an instruction waiting in the prefetch buffer.
type FetchedInst struct {
	InstID int
	// PredictedNext is the instruction the front end fetched after this
	// one.
	PredictedNext int
}

type prefetchBuffer struct {
	capacity int
	entries  []FetchedInst
}

func newPrefetchBuffer(capacity int) *prefetchBuffer {
	return &prefetchBuffer{
		capacity: capacity,
		entries:  make([]FetchedInst, 0, capacity),
	}
}

func (b *prefetchBuffer) full() bool  { return len(b.entries) >= b.capacity }
func (b *prefetchBuffer) empty() bool { return len(b.entries) == 0 }

func (b *prefetchBuffer) push(f FetchedInst) {
	b.entries = append(b.entries, f)
}

func (b *prefetchBuffer) peek() FetchedInst {
	return b.entries[0]
}

func (b *prefetchBuffer) pop() {
	b.entries = b.entries[1:]
}

func (b *prefetchBuffer) snapshot() []FetchedInst {
	return append([]FetchedInst(nil), b.entries...)
}

func (b *prefetchBuffer) clear() {
	b.entries = make([]FetchedInst, 0, b.capacity)
}
