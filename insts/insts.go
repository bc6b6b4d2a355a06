// Package insts provides the instruction set of the simulated superscalar
// machine.
//
// The vocabulary is fixed: integer and floating-point arithmetic, logic and
// variable shifts, word loads and stores, and three compare-and-branch
// instructions. Every opcode is executed by exactly one functional-unit
// class.
//
// Usage:
//
//	op := insts.ParseOp("ADDI")
//	fmt.Printf("Op: %v, Unit: %v, Branch: %v\n", op, op.Unit(), op.IsBranch())
package insts

// NumGPR is the number of general-purpose registers (r0..r31).
const NumGPR = 32

// NumFPR is the number of floating-point registers (f0..f31).
const NumFPR = 32
