package loader

import (
	"strconv"
	"strings"

	"fortio.org/safecast"

	"github.com/sarchlab/ooosim/insts"
)

// grammar reads the operands of one instruction from the token stream.
type grammar func(d *operandDecoder, inst *insts.Instruction) error

// grammarFor returns the operand grammar of an opcode, or nil for
// opcodes that have none.
func grammarFor(op insts.Op) grammar {
	switch op {
	case insts.OpNOP:
		return grammarNone
	case insts.OpADD, insts.OpSUB, insts.OpMULT, insts.OpOR, insts.OpAND,
		insts.OpXOR, insts.OpNOR, insts.OpSLLV, insts.OpSRLV:
		return grammarThreeGP
	case insts.OpADDF, insts.OpSUBF, insts.OpMULTF:
		return grammarThreeFP
	case insts.OpADDI:
		return grammarImmediate
	case insts.OpSW, insts.OpLW:
		return grammarLoadStoreGP
	case insts.OpSF, insts.OpLF:
		return grammarLoadStoreFP
	case insts.OpBNE, insts.OpBEQ, insts.OpBGT:
		return grammarBranch
	default:
		return nil
	}
}

// labelResolver maps a branch-target name to a label-table index.
type labelResolver func(name string) int

// operandDecoder applies grammars to the tokens of a single lexer.
type operandDecoder struct {
	lex     *Lexer
	resolve labelResolver
}

func grammarNone(_ *operandDecoder, _ *insts.Instruction) error {
	return nil
}

func grammarThreeGP(d *operandDecoder, inst *insts.Instruction) error {
	for i := 0; i < 3; i++ {
		if err := d.register(inst, i, TokenGPR); err != nil {
			return err
		}
	}
	return nil
}

func grammarThreeFP(d *operandDecoder, inst *insts.Instruction) error {
	for i := 0; i < 3; i++ {
		if err := d.register(inst, i, TokenFPR); err != nil {
			return err
		}
	}
	return nil
}

func grammarImmediate(d *operandDecoder, inst *insts.Instruction) error {
	if err := d.register(inst, 0, TokenGPR); err != nil {
		return err
	}
	if err := d.register(inst, 1, TokenGPR); err != nil {
		return err
	}

	tok, err := d.expect(TokenImmediate)
	if err != nil {
		return err
	}
	imm, err := strconv.ParseInt(tok.Text[1:], 10, 64)
	if err != nil {
		return parseErrorf(tok.Line, "immediate %s out of range", tok.Text)
	}
	inst.Operands[2] = insts.Operand{Kind: insts.OperandImmediate, Value: imm, Text: tok.Text}
	return nil
}

func grammarLoadStoreGP(d *operandDecoder, inst *insts.Instruction) error {
	if err := d.register(inst, 0, TokenGPR); err != nil {
		return err
	}
	return d.address(inst)
}

func grammarLoadStoreFP(d *operandDecoder, inst *insts.Instruction) error {
	if err := d.register(inst, 0, TokenFPR); err != nil {
		return err
	}
	return d.address(inst)
}

func grammarBranch(d *operandDecoder, inst *insts.Instruction) error {
	if err := d.register(inst, 0, TokenGPR); err != nil {
		return err
	}
	if err := d.register(inst, 1, TokenGPR); err != nil {
		return err
	}

	tok, err := d.expect(TokenID)
	if err != nil {
		return err
	}
	index := d.resolve(tok.Text)
	inst.Operands[2] = insts.Operand{Kind: insts.OperandLabel, Value: int64(index), Text: tok.Text}
	return nil
}

// expect reads one token and checks its kind.
func (d *operandDecoder) expect(kind TokenKind) (Token, error) {
	tok, err := d.lex.Next()
	if err != nil {
		return tok, err
	}
	if tok.Kind != kind {
		return tok, parseErrorf(tok.Line, "expected: %s got: %s", kind, tok.describe())
	}
	return tok, nil
}

func (d *operandDecoder) register(inst *insts.Instruction, slot int, kind TokenKind) error {
	tok, err := d.expect(kind)
	if err != nil {
		return err
	}
	index, err := decodeRegister(tok)
	if err != nil {
		return err
	}

	operandKind := insts.OperandGPR
	if kind == TokenFPR {
		operandKind = insts.OperandFPR
	}
	inst.Operands[slot] = insts.Operand{Kind: operandKind, Value: int64(index), Text: tok.Text}
	return nil
}

// address decodes "<offset>(r<n>)" into operand slots 1 (offset) and 2
// (base register).
func (d *operandDecoder) address(inst *insts.Instruction) error {
	tok, err := d.expect(TokenAddress)
	if err != nil {
		return err
	}

	open := strings.IndexByte(tok.Text, '(')
	var offset int64
	if open > 0 {
		offset, err = strconv.ParseInt(tok.Text[:open], 10, 64)
		if err != nil {
			return parseErrorf(tok.Line, "offset %s out of range", tok.Text[:open])
		}
	}

	base := Token{Kind: TokenGPR, Text: tok.Text[open+1 : len(tok.Text)-1], Line: tok.Line}
	index, err := decodeRegister(base)
	if err != nil {
		return err
	}

	inst.Operands[1] = insts.Operand{Kind: insts.OperandOffset, Value: offset, Text: tok.Text}
	inst.Operands[2] = insts.Operand{Kind: insts.OperandGPR, Value: int64(index)}
	return nil
}

// decodeRegister returns the numeric suffix of a register token.
func decodeRegister(tok Token) (uint8, error) {
	n, err := strconv.Atoi(tok.Text[1:])
	if err != nil {
		return 0, parseErrorf(tok.Line, "bad register %s", tok.Text)
	}
	index, err := safecast.Conv[uint8](n)
	if err != nil || index >= insts.NumGPR {
		return 0, parseErrorf(tok.Line, "register %s does not exist", tok.Text)
	}
	return index, nil
}
