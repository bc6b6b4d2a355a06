package loader_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooosim/insts"
	"github.com/sarchlab/ooosim/loader"
)

var _ = Describe("Load", func() {
	expectParseError := func(text string) *loader.ParseError {
		prog, err := loader.Load(text)
		Expect(prog).To(BeNil())
		var parseErr *loader.ParseError
		Expect(errors.As(err, &parseErr)).To(BeTrue(), "got %v", err)
		return parseErr
	}

	Describe("Straight-line code", func() {
		It("should load a single basic block", func() {
			prog, err := loader.Load("4\nADDI r1 r0 #5\nADDI r2 r0 #3\nADD r3 r1 r2\nNOP")
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(Equal(4))
			Expect(prog.NumBlocks()).To(Equal(1))
			Expect(prog.Labels).To(BeEmpty())
			for _, inst := range prog.Instructions {
				Expect(inst.Block).To(Equal(0))
			}
			Expect(prog.Blocks[0].Successors).To(BeEmpty())
			Expect(prog.Blocks[0].Next).To(Equal(-1))
		})

		It("should decode operands", func() {
			prog, err := loader.Load("3\nADDI r1 r2 #-7\nSF f3 -8(r4)\nLW r5 (r6)")
			Expect(err).NotTo(HaveOccurred())

			addi := prog.Instructions[0]
			Expect(addi.Op).To(Equal(insts.OpADDI))
			Expect(addi.Operands[0]).To(Equal(insts.Operand{Kind: insts.OperandGPR, Value: 1, Text: "r1"}))
			Expect(addi.Operands[1].Value).To(Equal(int64(2)))
			Expect(addi.Operands[2].Kind).To(Equal(insts.OperandImmediate))
			Expect(addi.Operands[2].Value).To(Equal(int64(-7)))

			sf := prog.Instructions[1]
			Expect(sf.Operands[0].Kind).To(Equal(insts.OperandFPR))
			Expect(sf.Operands[1].Value).To(Equal(int64(-8)))
			Expect(sf.Operands[2].Value).To(Equal(int64(4)))

			lw := prog.Instructions[2]
			Expect(lw.Operands[1].Value).To(Equal(int64(0)))
			Expect(lw.Operands[2].Value).To(Equal(int64(6)))
		})

		It("should load an empty program", func() {
			prog, err := loader.Load("0")
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(Equal(0))
			Expect(prog.NumBlocks()).To(Equal(0))
		})
	})

	Describe("Basic blocks", func() {
		It("should split after a branch and before a label", func() {
			prog, err := loader.Load("4\nADD r1 r0 r0\nBEQ r0 r0 end\nADD r2 r0 r0\nend: NOP")
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.NumBlocks()).To(Equal(3))

			Expect(prog.BlockStart(0)).To(Equal(0))
			Expect(prog.BlockStart(1)).To(Equal(2))
			Expect(prog.BlockStart(2)).To(Equal(3))
			Expect(prog.BlockStart(3)).To(Equal(-1))
			Expect(prog.BlockOf(1)).To(Equal(0))
			Expect(prog.BlockOf(3)).To(Equal(2))
			Expect(prog.BlockOf(4)).To(Equal(-1))

			blocks := []int{0, 0, 1, 2}
			for i, inst := range prog.Instructions {
				Expect(inst.Block).To(Equal(blocks[i]))
			}

			Expect(prog.Blocks[0].Successors).To(Equal([]int{2, 1}))
			Expect(prog.Blocks[1].Successors).To(Equal([]int{2}))
			Expect(prog.Blocks[0].Next).To(Equal(1))
			Expect(prog.Blocks[1].Next).To(Equal(2))
			Expect(prog.Blocks[2].Next).To(Equal(-1))
		})

		It("should resolve backward and forward references", func() {
			prog, err := loader.Load(`5
loop: ADDI r1 r1 #1
      BGT r2 r1 loop
      BEQ r0 r0 done
      NOP
done: NOP`)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.NumBlocks()).To(Equal(4))

			Expect(prog.Instructions[1].Operands[2]).To(Equal(insts.Operand{Kind: insts.OperandBlock, Value: 0, Text: "loop"}))
			Expect(prog.Instructions[2].Target()).To(Equal(3))
			Expect(prog.Instructions[0].Label).To(Equal("loop"))
			Expect(prog.Blocks[0].Successors).To(ConsistOf(0, 1))
		})

		It("should resolve every branch to a materialised block", func() {
			prog, err := loader.Load(`6
a: BEQ r1 r2 c
b: BNE r1 r2 a
   BGT r1 r2 b
c: ADD r1 r1 r1
   BEQ r0 r0 c
   NOP`)
			Expect(err).NotTo(HaveOccurred())
			for _, inst := range prog.Instructions {
				if !inst.Op.IsBranch() {
					continue
				}
				Expect(inst.Operands[2].Kind).To(Equal(insts.OperandBlock))
				_, resolved := prog.Blocks[inst.Target()].Start.Line()
				Expect(resolved).To(BeTrue())
				Expect(prog.BlockStart(inst.Target())).To(BeNumerically(">=", 0))
			}
		})

		It("should assign labels to their blocks", func() {
			prog, err := loader.Load("3\nBEQ r0 r0 x\nx: NOP\ny: NOP")
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Labels).To(Equal([]loader.Label{{Name: "x", Block: 1}, {Name: "y", Block: 2}}))
		})
	})

	Describe("Errors", func() {
		It("should require a line count first", func() {
			e := expectParseError("ADD r1 r2 r3")
			Expect(e.Line).To(Equal(1))
		})

		It("should reject an unknown opcode", func() {
			e := expectParseError("2\nNOP\nMOVE r1 r2")
			Expect(e.Line).To(Equal(3))
			Expect(e.Error()).To(Equal("Error at line 3, unknown opcode MOVE"))
		})

		It("should reject an operand of the wrong kind", func() {
			e := expectParseError("1\nADD r1 f2 r3")
			Expect(e.Error()).To(Equal("Error at line 2, expected: REGGP got: f2"))
		})

		It("should reject a missing immediate", func() {
			e := expectParseError("1\nADDI r1 r2 r3")
			Expect(e.Reason).To(ContainSubstring("IMMEDIATE"))
		})

		It("should reject a register outside the file", func() {
			expectParseError("1\nADD r1 r2 r32")
		})

		It("should reject truncated input", func() {
			e := expectParseError("3\nNOP\nNOP")
			Expect(e.Reason).To(ContainSubstring("end of input"))
		})

		It("should reject a count larger than the source", func() {
			e := expectParseError("99999999999999999\nNOP")
			Expect(e.Reason).To(ContainSubstring("end of input"))

			e = expectParseError("2000000000\nNOP\nNOP")
			Expect(e.Reason).To(ContainSubstring("end of input"))
		})

		It("should reject a count that does not fit an int", func() {
			e := expectParseError("99999999999999999999999\nNOP")
			Expect(e.Reason).To(ContainSubstring("bad instruction count"))
		})

		It("should name an undefined label", func() {
			e := expectParseError("2\nBEQ r1 r2 nowhere\nNOP")
			Expect(e.Label).To(Equal("nowhere"))
			Expect(e.Line).To(Equal(2))
			Expect(e.Error()).To(ContainSubstring("nowhere"))
		})

		It("should reject a duplicate label", func() {
			e := expectParseError("2\nx: NOP\nx: NOP")
			Expect(e.Label).To(Equal("x"))
			Expect(e.Reason).To(ContainSubstring("already exists"))
		})

		It("should reject a duplicate of a forward-referenced label", func() {
			expectParseError("3\nBEQ r0 r0 x\nx: NOP\nx: NOP")
		})

		It("should surface lexical errors unchanged", func() {
			_, err := loader.Load("1\nADD r1 r2 @")
			var lexErr *loader.LexError
			Expect(errors.As(err, &lexErr)).To(BeTrue())
		})
	})
})
