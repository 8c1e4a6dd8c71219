// Package parser turns EventQL text into query trees.
package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/zoobzio/eventql/internal/types"
)

type TokenType string

const (
	EOF    TokenType = "EOF"
	IDENT  TokenType = "IDENT"
	QIDENT TokenType = "QIDENT"
	NUMBER TokenType = "NUMBER"
	STRING TokenType = "STRING"

	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	COMMA    TokenType = ","
	DOT      TokenType = "."
	STAR     TokenType = "*"
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	CONCAT   TokenType = "||"
	ARROW    TokenType = "->"
	EQ       TokenType = "="
	EQ2      TokenType = "=="
	NEQ      TokenType = "!="
	LTGT     TokenType = "<>"
	LT       TokenType = "<"
	GT       TokenType = ">"
	LTE      TokenType = "<="
	GTE      TokenType = ">="
)

// Token is one lexeme. Lit holds identifier names, unquoted string
// contents and number text.
type Token struct {
	Typ    TokenType
	Lit    string
	Line   int
	Column int
}

var punctuation = []TokenType{
	CONCAT, ARROW, EQ2, NEQ, LTGT, LTE, GTE,
	LPAREN, RPAREN, LBRACKET, RBRACKET, LBRACE, RBRACE, COMMA, DOT,
	STAR, PLUS, MINUS, SLASH, PERCENT, EQ, LT, GT,
}

type lexer struct {
	input  string
	pos    int
	line   int
	col    int
	tokens []Token
}

// Lex splits input into tokens. Identifiers are NFC normalized so that
// visually identical names compare equal.
func Lex(input string) ([]Token, error) {
	l := &lexer{input: input, line: 1, col: 1}
	for {
		l.skip()
		if l.pos >= len(l.input) {
			l.tokens = append(l.tokens, Token{Typ: EOF, Line: l.line, Column: l.col})
			return l.tokens, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) fail(msg string) error {
	return types.SyntaxError{Line: l.line, Column: l.col, Message: msg}
}

func (l *lexer) advance(n int) {
	for _, r := range l.input[l.pos : l.pos+n] {
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
	l.pos += n
}

// skip consumes whitespace and -- or /* */ comments.
func (l *lexer) skip() {
	for l.pos < len(l.input) {
		rest := l.input[l.pos:]
		r, size := utf8.DecodeRuneInString(rest)
		switch {
		case unicode.IsSpace(r):
			l.advance(size)
		case strings.HasPrefix(rest, "--"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			l.advance(end)
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				l.advance(len(rest))
				return
			}
			l.advance(end + 4)
		default:
			return
		}
	}
}

func (l *lexer) emit(typ TokenType, lit string, line, col int) {
	l.tokens = append(l.tokens, Token{Typ: typ, Lit: lit, Line: line, Column: col})
}

func (l *lexer) last() TokenType {
	if len(l.tokens) == 0 {
		return EOF
	}
	return l.tokens[len(l.tokens)-1].Typ
}

func (l *lexer) next() error {
	line, col := l.line, l.col
	rest := l.input[l.pos:]
	r, _ := utf8.DecodeRuneInString(rest)

	switch {
	case r == '\'':
		s, n, err := l.quoted(rest, '\'')
		if err != nil {
			return err
		}
		l.advance(n)
		l.emit(STRING, s, line, col)
		return nil

	case r == '`' || r == '"':
		s, n, err := l.quoted(rest, byte(r))
		if err != nil {
			return err
		}
		l.advance(n)
		l.emit(QIDENT, norm.NFC.String(s), line, col)
		return nil

	case r >= '0' && r <= '9':
		n := l.number(rest)
		l.emit(NUMBER, rest[:n], line, col)
		l.advance(n)
		return nil

	case isIdentStart(r):
		n := 0
		for n < len(rest) {
			c, size := utf8.DecodeRuneInString(rest[n:])
			if !isIdentPart(c) {
				break
			}
			n += size
		}
		l.emit(IDENT, norm.NFC.String(rest[:n]), line, col)
		l.advance(n)
		return nil
	}

	for _, p := range punctuation {
		if strings.HasPrefix(rest, string(p)) {
			l.emit(p, string(p), line, col)
			l.advance(len(p))
			return nil
		}
	}
	return l.fail("unexpected character " + string(r))
}

// number scans a numeric literal. Right after a dot only digits are read,
// so t.1.2 is two tuple accesses.
func (l *lexer) number(rest string) int {
	n := 0
	digits := func() {
		for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
	}
	digits()
	if l.last() == DOT {
		return n
	}
	if n+1 < len(rest) && rest[n] == '.' && rest[n+1] >= '0' && rest[n+1] <= '9' {
		n++
		digits()
	}
	if n < len(rest) && (rest[n] == 'e' || rest[n] == 'E') {
		m := n + 1
		if m < len(rest) && (rest[m] == '+' || rest[m] == '-') {
			m++
		}
		if m < len(rest) && rest[m] >= '0' && rest[m] <= '9' {
			n = m
			digits()
		}
	}
	return n
}

// quoted reads a quoted literal starting at rest[0]. A doubled quote or a
// backslash escape stands for the character itself.
func (l *lexer) quoted(rest string, quote byte) (string, int, error) {
	var b strings.Builder
	i := 1
	for i < len(rest) {
		c := rest[i]
		switch {
		case c == '\\' && i+1 < len(rest):
			switch rest[i+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(rest[i+1])
			}
			i += 2
		case c == quote && i+1 < len(rest) && rest[i+1] == quote:
			b.WriteByte(quote)
			i += 2
		case c == quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, l.fail("unterminated quoted literal")
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

// Combining marks are accepted so decomposed input normalises to NFC.
func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc)
}
