package emu

import (
	"math"

	"github.com/sarchlab/ooosim/insts"
)

// Execute computes the result of an arithmetic or logic opcode from its
// source operands. Floating-point operands and results are IEEE-754 bits.
// For ADDI, b is ignored and imm is added to a.
func Execute(op insts.Op, a, b uint64, imm int64) uint64 {
	switch op {
	case insts.OpADD:
		return a + b
	case insts.OpADDI:
		return a + uint64(imm)
	case insts.OpSUB:
		return a - b
	case insts.OpMULT:
		return a * b
	case insts.OpOR:
		return a | b
	case insts.OpAND:
		return a & b
	case insts.OpXOR:
		return a ^ b
	case insts.OpNOR:
		return ^(a | b)
	case insts.OpSLLV:
		return a << (b & 63)
	case insts.OpSRLV:
		return a >> (b & 63)
	case insts.OpADDF:
		return floatOp(a, b, func(x, y float64) float64 { return x + y })
	case insts.OpSUBF:
		return floatOp(a, b, func(x, y float64) float64 { return x - y })
	case insts.OpMULTF:
		return floatOp(a, b, func(x, y float64) float64 { return x * y })
	default:
		return 0
	}
}

func floatOp(a, b uint64, f func(x, y float64) float64) uint64 {
	return math.Float64bits(f(math.Float64frombits(a), math.Float64frombits(b)))
}

// EffectiveAddress computes the word address of a load or store.
func EffectiveAddress(base uint64, offset int64) uint64 {
	return base + uint64(offset)
}
