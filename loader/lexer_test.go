package loader_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooosim/loader"
)

var _ = Describe("Lexer", func() {
	collect := func(text string) ([]loader.Token, error) {
		var toks []loader.Token
		for tok, err := range loader.NewLexer(text).Tokens() {
			if err != nil {
				return toks, err
			}
			toks = append(toks, tok)
		}
		return toks, nil
	}

	kinds := func(toks []loader.Token) []loader.TokenKind {
		out := make([]loader.TokenKind, len(toks))
		for i, t := range toks {
			out[i] = t.Kind
		}
		return out
	}

	It("should classify every token kind", func() {
		toks, err := collect("3\nloop: ADDI r1 r0 #-5\nLF f2 8(r3)\nBNE r1 r0 loop")
		Expect(err).NotTo(HaveOccurred())
		Expect(kinds(toks)).To(Equal([]loader.TokenKind{
			loader.TokenLineCount,
			loader.TokenLabel, loader.TokenID, loader.TokenGPR, loader.TokenGPR, loader.TokenImmediate,
			loader.TokenID, loader.TokenFPR, loader.TokenAddress,
			loader.TokenID, loader.TokenGPR, loader.TokenGPR, loader.TokenID,
		}))
	})

	It("should track source lines", func() {
		toks, err := collect("2\nNOP\n\nNOP")
		Expect(err).NotTo(HaveOccurred())
		Expect(toks[1].Line).To(Equal(2))
		Expect(toks[2].Line).To(Equal(4))
	})

	It("should only treat the first number as a line count", func() {
		lx := loader.NewLexer("4 4")
		tok, err := lx.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(tok.Kind).To(Equal(loader.TokenLineCount))

		_, err = lx.Next()
		var lexErr *loader.LexError
		Expect(errors.As(err, &lexErr)).To(BeTrue())
	})

	It("should skip commas and comments", func() {
		toks, err := collect("1 // count\nADD r1, r2, r3 ; sum")
		Expect(err).NotTo(HaveOccurred())
		Expect(toks).To(HaveLen(5))
		Expect(toks[4].Text).To(Equal("r3"))
	})

	It("should accept an address without an offset", func() {
		toks, err := collect("1\nLW r1 (r2)")
		Expect(err).NotTo(HaveOccurred())
		Expect(toks[3].Kind).To(Equal(loader.TokenAddress))
	})

	It("should report unrecognised input with its line", func() {
		_, err := collect("1\n\nADD r1 r2 $3")
		var lexErr *loader.LexError
		Expect(errors.As(err, &lexErr)).To(BeTrue())
		Expect(lexErr.Line).To(Equal(3))
		Expect(lexErr.Text).To(Equal("$3"))
		Expect(err.Error()).To(HavePrefix("Error at line 3,"))
	})

	It("should keep returning EOF at the end", func() {
		lx := loader.NewLexer("")
		for i := 0; i < 3; i++ {
			tok, err := lx.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(tok.Kind).To(Equal(loader.TokenEOF))
		}
	})
})
