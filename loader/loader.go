// Package loader turns assembly source into an instruction list and a
// control-flow graph of basic blocks.
package loader

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/ooosim/insts"
)

// Program is a loaded assembly program.
type Program struct {
	Instructions []insts.Instruction
	// Blocks is indexed by block id.
	Blocks []BasicBlock
	Labels []Label
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// NumBlocks returns the number of basic blocks.
func (p *Program) NumBlocks() int {
	return len(p.Blocks)
}

// BlockStart returns the index of the first instruction of a block, or -1
// if the id does not name a block.
func (p *Program) BlockStart(id int) int {
	if id < 0 || id >= len(p.Blocks) {
		return -1
	}
	line, _ := p.Blocks[id].Start.Line()
	return line
}

// BlockOf returns the id of the block owning an instruction, or -1 if the
// index is out of range.
func (p *Program) BlockOf(instID int) int {
	if instID < 0 || instID >= len(p.Instructions) {
		return -1
	}
	return p.Instructions[instID].Block
}

// LoadFile reads and loads an assembly file.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	return Load(string(data))
}

// Load parses assembly text. The first token is the instruction count N;
// exactly N instructions follow, each optionally prefixed by a label.
// On error no part of the program is returned.
func Load(text string) (*Program, error) {
	b := &builder{
		lex:        NewLexer(text),
		size:       len(text),
		labelIndex: make(map[string]int),
		cur:        -1,
	}
	return b.load()
}

type labelEntry struct {
	name   string
	handle int
}

// builder holds the state of a single load.
type builder struct {
	lex        *Lexer
	size       int
	arena      blockArena
	labels     []labelEntry
	labelIndex map[string]int
	insts      []insts.Instruction
	// lines holds the source line of every instruction.
	lines []int
	// cur is the handle of the block being filled, or -1.
	cur int
}

func (b *builder) load() (*Program, error) {
	tok, err := b.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokenLineCount {
		return nil, parseErrorf(tok.Line, "expected: %s got: %s", TokenLineCount, tok.describe())
	}
	n, err := strconv.Atoi(tok.Text)
	if err != nil {
		return nil, parseErrorf(tok.Line, "bad instruction count %s", tok.Text)
	}

	// Each instruction needs at least one byte of source.
	capacity := min(n, b.size)
	b.insts = make([]insts.Instruction, 0, capacity)
	b.lines = make([]int, 0, capacity)

	newBlock := true
	for i := 0; i < n; i++ {
		endsBlock, err := b.parseInstruction(i, newBlock)
		if err != nil {
			return nil, err
		}
		newBlock = endsBlock
	}

	if err := b.replaceLabels(); err != nil {
		return nil, err
	}

	return b.program(), nil
}

// parseInstruction reads instruction i. It returns true if the
// instruction ends its basic block.
func (b *builder) parseInstruction(i int, newBlock bool) (bool, error) {
	b.insts = append(b.insts, insts.Instruction{ID: i})
	b.lines = append(b.lines, 0)
	inst := &b.insts[i]

	tok, err := b.lex.Next()
	if err != nil {
		return false, err
	}

	switch {
	case tok.Kind == TokenLabel:
		if err := b.defineLabel(tok, i); err != nil {
			return false, err
		}
		inst.Label = labelKey(tok.Text)
		if tok, err = b.lex.Next(); err != nil {
			return false, err
		}
	case newBlock:
		h := b.arena.open(i)
		b.arena.link(b.cur, h)
		b.cur = h
	}

	b.lines[i] = tok.Line
	if tok.Kind != TokenID {
		return false, parseErrorf(tok.Line, "expected: %s got: %s", TokenID, tok.describe())
	}

	inst.Op = insts.ParseOp(tok.Text)
	g := grammarFor(inst.Op)
	if g == nil {
		return false, parseErrorf(tok.Line, "unknown opcode %s", tok.Text)
	}
	inst.Block = b.arena.blocks[b.cur].ID

	d := &operandDecoder{lex: b.lex, resolve: b.referenceLabel}
	if err := g(d, inst); err != nil {
		return false, err
	}

	return inst.Op.IsBranch(), nil
}

// labelKey normalises a label name so that definitions ("loop:") and
// references ("loop") share a table entry.
func labelKey(name string) string {
	return strings.TrimSuffix(name, ":")
}

// defineLabel materialises the block of a label defined at instruction i.
func (b *builder) defineLabel(tok Token, i int) error {
	name := labelKey(tok.Text)

	idx, seen := b.labelIndex[name]
	if !seen {
		h := b.arena.open(i)
		b.labels = append(b.labels, labelEntry{name: name, handle: h})
		b.labelIndex[name] = len(b.labels) - 1
		b.arena.link(b.cur, h)
		b.cur = h
		return nil
	}

	h := b.labels[idx].handle
	if b.arena.blocks[h].Start.IsResolved() {
		return &ParseError{
			Line:   tok.Line,
			Reason: fmt.Sprintf("label %s already exists", name),
			Label:  name,
		}
	}
	b.arena.materialize(h, i)
	b.arena.link(b.cur, h)
	b.cur = h
	return nil
}

// referenceLabel returns the label-table index of a branch target,
// creating a placeholder block for a label not seen yet. The current
// block gains an edge to the target.
func (b *builder) referenceLabel(name string) int {
	name = labelKey(name)

	idx, seen := b.labelIndex[name]
	if !seen {
		h := b.arena.placeholder()
		b.labels = append(b.labels, labelEntry{name: name, handle: h})
		idx = len(b.labels) - 1
		b.labelIndex[name] = idx
	}
	b.arena.addEdge(b.cur, b.labels[idx].handle)
	return idx
}

// replaceLabels is the second pass: branch targets become block ids.
func (b *builder) replaceLabels() error {
	for i := range b.insts {
		inst := &b.insts[i]
		if !inst.Op.IsBranch() {
			continue
		}

		entry := b.labels[inst.Operands[2].Value]
		blk := b.arena.blocks[entry.handle]
		if !blk.Start.IsResolved() {
			return &ParseError{
				Line:   b.lines[i],
				Reason: fmt.Sprintf("label %s is not defined", entry.name),
				Label:  entry.name,
			}
		}
		inst.Operands[2].Kind = insts.OperandBlock
		inst.Operands[2].Value = int64(blk.ID)
	}
	return nil
}

func (b *builder) program() *Program {
	p := &Program{
		Instructions: b.insts,
		Blocks:       b.arena.finish(),
		Labels:       make([]Label, len(b.labels)),
	}
	for i, l := range b.labels {
		p.Labels[i] = Label{Name: l.name, Block: b.arena.blocks[l.handle].ID}
	}
	return p
}
