package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ooosim/insts"
	"github.com/sarchlab/ooosim/loader"
)

// ErrMaxInstructions is returned by Run when the instruction limit is hit.
var ErrMaxInstructions = errors.New("max instructions reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Done is true once the program counter has run past the last
	// instruction.
	Done bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes a loaded program one instruction at a time, in program
// order and without speculation. It defines the architectural result the
// out-of-order engine must reproduce.
type Emulator struct {
	prog    *loader.Program
	regFile *RegFile
	memory  *Memory

	pc int

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates an emulator for prog.
func NewEmulator(prog *loader.Program, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		prog:    prog,
		regFile: &RegFile{},
		memory:  NewMemory(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// PC returns the index of the next instruction to execute.
func (e *Emulator) PC() int {
	return e.pc
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Reset restores the initial state.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.memory.Reset()
	e.pc = 0
	e.instructionCount = 0
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.pc >= e.prog.Len() {
		return StepResult{Done: true}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	inst := &e.prog.Instructions[e.pc]
	if err := e.execute(inst); err != nil {
		return StepResult{Err: err}
	}
	e.instructionCount++

	return StepResult{Done: e.pc >= e.prog.Len()}
}

// Run executes instructions until the program ends or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Done {
			return nil
		}
	}
}

func (e *Emulator) execute(inst *insts.Instruction) error {
	j, k, _, _ := inst.Sources()
	a := e.regFile.ReadBits(j)
	b := e.regFile.ReadBits(k)

	next := e.pc + 1

	switch {
	case inst.Op == insts.OpUnknown:
		return fmt.Errorf("unknown instruction at %d", e.pc)
	case inst.Op == insts.OpNOP:
	case inst.Op.IsBranch():
		if EvalBranch(inst.Op, a, b) {
			next = e.prog.BlockStart(inst.Target())
		}
	case inst.Op.IsLoad():
		dest, _ := inst.Dest()
		e.regFile.WriteBits(dest, e.memory.Read(EffectiveAddress(a, inst.Imm())))
	case inst.Op.IsStore():
		e.memory.Write(EffectiveAddress(a, inst.Imm()), b)
	default:
		dest, _ := inst.Dest()
		e.regFile.WriteBits(dest, Execute(inst.Op, a, b, inst.Imm()))
	}

	e.pc = next
	return nil
}
