// Package emu provides the architectural state of the simulated machine and
// a functional, in-order reference emulator.
package emu

import (
	"math"

	"github.com/sarchlab/ooosim/insts"
)

// RegFile holds the general-purpose and floating-point registers.
// Register 0 of each file always reads as zero; writes to it are ignored.
type RegFile struct {
	// X holds general-purpose registers r0-r31.
	X [insts.NumGPR]uint64

	// F holds floating-point registers f0-f31.
	F [insts.NumFPR]float64
}

// ReadReg reads a general-purpose register.
func (r RegFile) ReadReg(reg uint8) uint64 {
	if reg == 0 || int(reg) >= insts.NumGPR {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a general-purpose register. Writes to r0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg == 0 || int(reg) >= insts.NumGPR {
		return
	}
	r.X[reg] = value
}

// ReadFReg reads a floating-point register.
func (r RegFile) ReadFReg(reg uint8) float64 {
	if reg == 0 || int(reg) >= insts.NumFPR {
		return 0
	}
	return r.F[reg]
}

// WriteFReg writes a floating-point register. Writes to f0 are ignored.
func (r *RegFile) WriteFReg(reg uint8, value float64) {
	if reg == 0 || int(reg) >= insts.NumFPR {
		return
	}
	r.F[reg] = value
}

// ReadBits reads a register of either class as raw 64-bit data.
// Floating-point values are returned as IEEE-754 bits.
func (r RegFile) ReadBits(reg insts.Reg) uint64 {
	if reg.Class == insts.ClassFPR {
		return math.Float64bits(r.ReadFReg(reg.Index))
	}
	return r.ReadReg(reg.Index)
}

// WriteBits writes raw 64-bit data to a register of either class.
func (r *RegFile) WriteBits(reg insts.Reg, value uint64) {
	if reg.Class == insts.ClassFPR {
		r.WriteFReg(reg.Index, math.Float64frombits(value))
		return
	}
	r.WriteReg(reg.Index, value)
}

// Reset zeroes every register.
func (r *RegFile) Reset() {
	*r = RegFile{}
}
