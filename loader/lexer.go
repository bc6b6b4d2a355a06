package loader

import (
	"iter"
	"regexp"
	"strings"
)

// TokenKind identifies the lexical class of a token.
type TokenKind uint8

// Token kinds.
const (
	TokenEOF TokenKind = iota
	TokenLineCount
	TokenLabel
	TokenID
	TokenGPR
	TokenFPR
	TokenImmediate
	TokenAddress
)

var tokenKindNames = [...]string{
	"EOF", "LINECOUNT", "LABEL", "ID", "REGGP", "REGFP", "IMMEDIATE", "ADDRESS",
}

// String returns the upper-case name used in error messages.
func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "UNKNOWN"
}

// Token is a lexical unit of the assembly source.
type Token struct {
	Kind TokenKind
	Text string
	// Line is the 1-based source line the token starts on.
	Line int
}

func (t Token) describe() string {
	if t.Kind == TokenEOF {
		return "end of input"
	}
	return t.Text
}

var (
	lineCountRe = regexp.MustCompile(`^[0-9]+$`)
	labelRe     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*:$`)
	gprRe       = regexp.MustCompile(`^r[0-9]+$`)
	fprRe       = regexp.MustCompile(`^f[0-9]+$`)
	immediateRe = regexp.MustCompile(`^#[-+]?[0-9]+$`)
	addressRe   = regexp.MustCompile(`^[-+]?[0-9]*\(r[0-9]+\)$`)
	idRe        = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// Lexer splits assembly text into tokens. A Lexer is single use: once a
// token has been returned it cannot be read again.
type Lexer struct {
	src   string
	pos   int
	line  int
	first bool
}

// NewLexer creates a lexer over text.
func NewLexer(text string) *Lexer {
	return &Lexer{src: text, line: 1, first: true}
}

// Next returns the next token. At the end of input it returns a TokenEOF
// token, and keeps doing so on further calls.
func (l *Lexer) Next() (Token, error) {
	l.skipSeparators()
	if l.pos >= len(l.src) {
		return Token{Kind: TokenEOF, Line: l.line}, nil
	}

	start := l.pos
	for l.pos < len(l.src) && !l.atSeparator() {
		l.pos++
	}
	word := l.src[start:l.pos]
	tok := Token{Text: word, Line: l.line}

	first := l.first
	l.first = false

	switch {
	case first && lineCountRe.MatchString(word):
		tok.Kind = TokenLineCount
	case labelRe.MatchString(word):
		tok.Kind = TokenLabel
	case gprRe.MatchString(word):
		tok.Kind = TokenGPR
	case fprRe.MatchString(word):
		tok.Kind = TokenFPR
	case immediateRe.MatchString(word):
		tok.Kind = TokenImmediate
	case addressRe.MatchString(word):
		tok.Kind = TokenAddress
	case idRe.MatchString(word):
		tok.Kind = TokenID
	default:
		return Token{}, &LexError{Line: tok.Line, Text: word}
	}

	return tok, nil
}

// Tokens returns the remaining tokens as a sequence. The sequence ends
// after the first error or before the EOF token.
func (l *Lexer) Tokens() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := l.Next()
			if err != nil {
				yield(tok, err)
				return
			}
			if tok.Kind == TokenEOF {
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

func (l *Lexer) atSeparator() bool {
	c := l.src[l.pos]
	switch c {
	case ' ', '\t', '\r', '\n', ',', ';':
		return true
	case '/':
		return strings.HasPrefix(l.src[l.pos:], "//")
	}
	return false
}

// skipSeparators consumes whitespace, commas and comments.
func (l *Lexer) skipSeparators() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == ',':
			l.pos++
		case c == ';' || strings.HasPrefix(l.src[l.pos:], "//"):
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}
