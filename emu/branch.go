package emu

import "github.com/sarchlab/ooosim/insts"

// EvalBranch reports whether a compare-and-branch is taken.
// BGT compares its operands as signed integers.
func EvalBranch(op insts.Op, a, b uint64) bool {
	switch op {
	case insts.OpBEQ:
		return a == b
	case insts.OpBNE:
		return a != b
	case insts.OpBGT:
		return int64(a) > int64(b)
	default:
		return false
	}
}
