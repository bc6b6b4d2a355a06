package insts

// Op represents an opcode of the simulated machine.
type Op uint8

// Opcodes, in the order of the assembly vocabulary.
const (
	OpNOP Op = iota
	OpADD
	OpADDI
	OpSUB
	OpADDF
	OpSUBF
	OpMULT
	OpMULTF
	OpOR
	OpAND
	OpXOR
	OpNOR
	OpSLLV
	OpSRLV
	OpSW
	OpSF
	OpLW
	OpLF
	OpBNE
	OpBEQ
	OpBGT
	OpUnknown
)

var opNames = [...]string{
	"NOP", "ADD", "ADDI", "SUB", "ADDF", "SUBF", "MULT", "MULTF", "OR", "AND",
	"XOR", "NOR", "SLLV", "SRLV", "SW", "SF", "LW", "LF", "BNE", "BEQ", "BGT",
}

// ParseOp returns the opcode for a mnemonic, or OpUnknown.
// Mnemonics are case sensitive.
func ParseOp(name string) Op {
	for i, n := range opNames {
		if n == name {
			return Op(i)
		}
	}
	return OpUnknown
}

// String returns the assembly mnemonic.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "UNKNOWN"
}

// Unit represents a functional-unit class. Each class owns one reservation
// station and one functional unit.
type Unit uint8

// Functional-unit classes.
const (
	UnitIntAdd Unit = iota
	UnitIntMul
	UnitFloatAdd
	UnitFloatMul
	UnitMemory
	UnitJump
)

// NumUnits is the number of functional-unit classes.
const NumUnits = 6

var unitNames = [NumUnits]string{
	"int-add", "int-mul", "float-add", "float-mul", "memory", "jump",
}

// String returns a short name for the class.
func (u Unit) String() string {
	if int(u) < NumUnits {
		return unitNames[u]
	}
	return "unknown"
}

// Units returns every functional-unit class in index order.
func Units() []Unit {
	return []Unit{UnitIntAdd, UnitIntMul, UnitFloatAdd, UnitFloatMul, UnitMemory, UnitJump}
}

// Unit returns the functional-unit class that executes the opcode.
// NOP and unknown opcodes are executed by the integer adder.
func (o Op) Unit() Unit {
	switch o {
	case OpADDF, OpSUBF:
		return UnitFloatAdd
	case OpMULT:
		return UnitIntMul
	case OpMULTF:
		return UnitFloatMul
	case OpSW, OpSF, OpLW, OpLF:
		return UnitMemory
	case OpBNE, OpBEQ, OpBGT:
		return UnitJump
	default:
		return UnitIntAdd
	}
}

// IsBranch returns true for the compare-and-branch opcodes.
func (o Op) IsBranch() bool {
	return o == OpBNE || o == OpBEQ || o == OpBGT
}

// IsLoad returns true for LW and LF.
func (o Op) IsLoad() bool {
	return o == OpLW || o == OpLF
}

// IsStore returns true for SW and SF.
func (o Op) IsStore() bool {
	return o == OpSW || o == OpSF
}

// IsFloat returns true if the opcode's register operands name floating
// registers.
func (o Op) IsFloat() bool {
	switch o {
	case OpADDF, OpSUBF, OpMULTF, OpSF, OpLF:
		return true
	default:
		return false
	}
}

// WritesRegister returns true if the opcode produces a register result.
func (o Op) WritesRegister() bool {
	switch o {
	case OpNOP, OpSW, OpSF, OpBNE, OpBEQ, OpBGT, OpUnknown:
		return false
	default:
		return true
	}
}
