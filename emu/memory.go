package emu

import "sort"

// Cell is one memory word.
type Cell struct {
	Addr  uint64
	Value uint64
}

// Memory is a sparse, word-addressed data store. Unwritten words read as
// zero.
type Memory struct {
	words map[uint64]uint64
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{words: make(map[uint64]uint64)}
}

// Read returns the word at addr.
func (m *Memory) Read(addr uint64) uint64 {
	return m.words[addr]
}

// Write stores a word at addr.
func (m *Memory) Write(addr, value uint64) {
	m.words[addr] = value
}

// Len returns the number of words that have been written.
func (m *Memory) Len() int {
	return len(m.words)
}

// Cells returns the written words ordered by address.
func (m *Memory) Cells() []Cell {
	cells := make([]Cell, 0, len(m.words))
	for addr, v := range m.words {
		cells = append(cells, Cell{Addr: addr, Value: v})
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Addr < cells[j].Addr })
	return cells
}

// Clone returns an independent copy.
func (m *Memory) Clone() *Memory {
	c := NewMemory()
	for addr, v := range m.words {
		c.words[addr] = v
	}
	return c
}

// Reset clears every word.
func (m *Memory) Reset() {
	m.words = make(map[uint64]uint64)
}
