package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooosim/emu"
	"github.com/sarchlab/ooosim/insts"
	"github.com/sarchlab/ooosim/loader"
)

var _ = Describe("Emulator", func() {
	run := func(text string, opts ...emu.EmulatorOption) *emu.Emulator {
		prog, err := loader.Load(text)
		Expect(err).NotTo(HaveOccurred())
		e := emu.NewEmulator(prog, opts...)
		Expect(e.Run()).To(Succeed())
		return e
	}

	Describe("ALU instructions", func() {
		It("should add immediates and registers", func() {
			e := run("4\nADDI r1 r0 #5\nADDI r2 r0 #3\nADD r3 r1 r2\nNOP")
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint64(5)))
			Expect(e.RegFile().ReadReg(2)).To(Equal(uint64(3)))
			Expect(e.RegFile().ReadReg(3)).To(Equal(uint64(8)))
			Expect(e.InstructionCount()).To(Equal(uint64(4)))
		})

		It("should read registers from a returned copy", func() {
			e := run("2\nADDI r1 r0 #5\nSW r1 0(r0)\n")
			regs := func() emu.RegFile { return *e.RegFile() }

			Expect(regs().ReadReg(1)).To(Equal(uint64(5)))
			Expect(regs().ReadFReg(1)).To(BeZero())
			Expect(regs().ReadBits(insts.Reg{Class: insts.ClassGPR, Index: 1})).To(Equal(uint64(5)))
		})

		It("should subtract into negative values", func() {
			e := run("3\nADDI r1 r0 #2\nADDI r2 r0 #9\nSUB r3 r1 r2")
			Expect(int64(e.RegFile().ReadReg(3))).To(Equal(int64(-7)))
		})

		It("should never write r0", func() {
			e := run("2\nADDI r0 r0 #4\nADD r1 r0 r0")
			Expect(e.RegFile().ReadReg(0)).To(BeZero())
			Expect(e.RegFile().ReadReg(1)).To(BeZero())
		})
	})

	Describe("Memory instructions", func() {
		It("should store and load integers", func() {
			e := run("4\nADDI r1 r0 #42\nADDI r2 r0 #10\nSW r1 4(r2)\nLW r3 14(r0)")
			Expect(e.Memory().Read(14)).To(Equal(uint64(42)))
			Expect(e.RegFile().ReadReg(3)).To(Equal(uint64(42)))
		})

		It("should move floating-point values through memory", func() {
			prog, err := loader.Load("3\nADDF f3 f1 f2\nSF f3 (r0)\nLF f4 (r0)")
			Expect(err).NotTo(HaveOccurred())
			e := emu.NewEmulator(prog)
			e.RegFile().WriteFReg(1, 1.5)
			e.RegFile().WriteFReg(2, 2.25)
			Expect(e.Run()).To(Succeed())

			Expect(e.RegFile().ReadFReg(4)).To(Equal(3.75))
			Expect(e.Memory().Read(0)).To(Equal(math.Float64bits(3.75)))
		})
	})

	Describe("Branches", func() {
		It("should run a counted loop", func() {
			e := run(`5
      ADDI r2 r0 #4
loop: ADDI r1 r1 #1
      ADD r3 r3 r1
      BGT r2 r1 loop
      NOP`)
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint64(4)))
			Expect(e.RegFile().ReadReg(3)).To(Equal(uint64(10)))
		})

		It("should skip the fallthrough path when taken", func() {
			e := run("4\nADD r1 r0 r0\nBEQ r0 r0 end\nADDI r2 r0 #1\nend: NOP")
			Expect(e.RegFile().ReadReg(2)).To(BeZero())
		})

		It("should stop at the instruction limit", func() {
			prog, err := loader.Load("1\nloop: BEQ r0 r0 loop")
			Expect(err).NotTo(HaveOccurred())
			e := emu.NewEmulator(prog, emu.WithMaxInstructions(10))
			Expect(e.Run()).To(MatchError(emu.ErrMaxInstructions))
			Expect(e.InstructionCount()).To(Equal(uint64(10)))
		})
	})

	It("should reset state", func() {
		e := run("1\nADDI r1 r0 #1")
		e.Reset()
		Expect(e.RegFile().ReadReg(1)).To(BeZero())
		Expect(e.PC()).To(BeZero())
	})
})

var _ = DescribeTable("Execute",
	func(op insts.Op, a, b uint64, want uint64) {
		Expect(emu.Execute(op, a, b, 0)).To(Equal(want))
	},
	Entry("OR", insts.OpOR, uint64(0b1010), uint64(0b0101), uint64(0b1111)),
	Entry("AND", insts.OpAND, uint64(0b1110), uint64(0b0111), uint64(0b0110)),
	Entry("XOR", insts.OpXOR, uint64(0b1100), uint64(0b1010), uint64(0b0110)),
	Entry("NOR", insts.OpNOR, uint64(0), uint64(0), ^uint64(0)),
	Entry("SLLV", insts.OpSLLV, uint64(3), uint64(4), uint64(48)),
	Entry("SRLV", insts.OpSRLV, uint64(48), uint64(4), uint64(3)),
	Entry("SLLV masks the shift", insts.OpSLLV, uint64(1), uint64(65), uint64(2)),
	Entry("MULT", insts.OpMULT, uint64(6), uint64(7), uint64(42)),
	Entry("MULTF", insts.OpMULTF, math.Float64bits(1.5), math.Float64bits(4), math.Float64bits(6)),
)

var _ = DescribeTable("EvalBranch",
	func(op insts.Op, a, b int64, taken bool) {
		Expect(emu.EvalBranch(op, uint64(a), uint64(b))).To(Equal(taken))
	},
	Entry("BEQ equal", insts.OpBEQ, int64(3), int64(3), true),
	Entry("BNE equal", insts.OpBNE, int64(3), int64(3), false),
	Entry("BGT signed", insts.OpBGT, int64(1), int64(-1), true),
	Entry("BGT not greater", insts.OpBGT, int64(-2), int64(-1), false),
)

var _ = Describe("Memory", func() {
	It("should list cells in address order", func() {
		m := emu.NewMemory()
		m.Write(30, 3)
		m.Write(10, 1)
		m.Write(20, 2)
		Expect(m.Cells()).To(Equal([]emu.Cell{{Addr: 10, Value: 1}, {Addr: 20, Value: 2}, {Addr: 30, Value: 3}}))

		c := m.Clone()
		c.Write(10, 99)
		Expect(m.Read(10)).To(Equal(uint64(1)))
	})
})
