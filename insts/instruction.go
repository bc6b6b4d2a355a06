package insts

import (
	"fmt"

	"fortio.org/safecast"
)

// OperandKind tells how an operand's Value is interpreted.
type OperandKind uint8

// Operand kinds.
const (
	OperandNone OperandKind = iota
	OperandGPR
	OperandFPR
	OperandImmediate
	OperandOffset
	// OperandLabel holds a label-table index before the loader's second
	// pass replaces it with a block id.
	OperandLabel
	OperandBlock
)

var operandKindNames = [...]string{"none", "gpr", "fpr", "immediate", "offset", "label", "block"}

// String returns a short name for the kind.
func (k OperandKind) String() string {
	if int(k) < len(operandKindNames) {
		return operandKindNames[k]
	}
	return "unknown"
}

// Operand is a decoded instruction operand.
type Operand struct {
	Kind  OperandKind
	Value int64
	// Text is the source text the operand was decoded from.
	Text string
}

// RegClass selects a register file.
type RegClass uint8

// Register classes.
const (
	ClassGPR RegClass = iota
	ClassFPR
)

// String returns "r" or "f".
func (c RegClass) String() string {
	if c == ClassFPR {
		return "f"
	}
	return "r"
}

// Reg names an architectural register.
type Reg struct {
	Class RegClass
	Index uint8
}

// String formats the register the way it is written in assembly.
func (r Reg) String() string {
	return fmt.Sprintf("%s%d", r.Class, r.Index)
}

// Instruction is a decoded instruction. Instructions are immutable once the
// loader returns them.
//
// Operand layout:
//   - three-register ops: dest, src1, src2
//   - ADDI: dest, src, immediate
//   - loads and stores: data register, offset, base register
//   - branches: src1, src2, target block
type Instruction struct {
	ID       int
	Op       Op
	Operands [3]Operand
	// Label is the label defined on this instruction, if any.
	Label string
	// Block is the id of the owning basic block.
	Block int
}

func (i *Instruction) dataClass() RegClass {
	if i.Op.IsFloat() {
		return ClassFPR
	}
	return ClassGPR
}

func (i *Instruction) reg(n int, class RegClass) Reg {
	index, err := safecast.Conv[uint8](i.Operands[n].Value)
	if err != nil {
		panic(fmt.Errorf("insts: register operand %d of %s: %w", n, i.Op, err))
	}
	return Reg{Class: class, Index: index}
}

// Dest returns the destination register, if the instruction writes one.
func (i *Instruction) Dest() (Reg, bool) {
	if !i.Op.WritesRegister() {
		return Reg{}, false
	}
	return i.reg(0, i.dataClass()), true
}

// Sources returns the source registers read by the instruction. Unused
// slots have ok set to false. For stores, the first source is the base
// register and the second is the data register.
func (i *Instruction) Sources() (j, k Reg, jok, kok bool) {
	switch {
	case i.Op == OpNOP || i.Op == OpUnknown:
		return Reg{}, Reg{}, false, false
	case i.Op == OpADDI:
		return i.reg(1, ClassGPR), Reg{}, true, false
	case i.Op.IsLoad():
		return i.reg(2, ClassGPR), Reg{}, true, false
	case i.Op.IsStore():
		return i.reg(2, ClassGPR), i.reg(0, i.dataClass()), true, true
	case i.Op.IsBranch():
		return i.reg(0, ClassGPR), i.reg(1, ClassGPR), true, true
	default:
		class := i.dataClass()
		return i.reg(1, class), i.reg(2, class), true, true
	}
}

// Imm returns the immediate of ADDI or the address offset of a load or
// store, and 0 otherwise.
func (i *Instruction) Imm() int64 {
	switch {
	case i.Op == OpADDI:
		return i.Operands[2].Value
	case i.Op.IsLoad(), i.Op.IsStore():
		return i.Operands[1].Value
	default:
		return 0
	}
}

// Target returns the resolved target block of a branch.
func (i *Instruction) Target() int {
	return safecast.MustConv[int](i.Operands[2].Value)
}

// String renders the instruction in assembly syntax.
func (i *Instruction) String() string {
	s := i.Op.String()
	if i.Label != "" {
		s = i.Label + ": " + s
	}
	for _, o := range i.Operands {
		if o.Kind == OperandNone || o.Text == "" {
			continue
		}
		s += " " + o.Text
	}
	return s
}
