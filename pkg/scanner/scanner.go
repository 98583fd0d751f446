package scanner

import (
	"strconv"
	"unicode"

	"github.com/lemonberrylabs/golox/pkg/types"
)

// Scanner tokenizes source text in a single forward pass. It never stops
// early: malformed input is recorded as a diagnostic and skipped.
type Scanner struct {
	source []rune
	tokens []Token
	diags  types.Diagnostics

	start   int // first rune of the token being scanned
	current int // rune about to be consumed
	line    int
}

// New creates a scanner for the given source.
func New(source string) *Scanner {
	return &Scanner{source: []rune(source), line: 1}
}

// ScanTokens scans the entire input. The returned slice always ends with a
// single EOF token.
func (s *Scanner) ScanTokens() ([]Token, types.Diagnostics) {
	for !s.isAtEnd() {
		s.start = s.current
		s.scanToken()
	}
	s.tokens = append(s.tokens, Token{Type: TokenEOF, Line: s.line})
	return s.tokens, s.diags
}

func (s *Scanner) scanToken() {
	ch := s.advance()
	switch ch {
	case '(':
		s.addToken(TokenLeftParen)
	case ')':
		s.addToken(TokenRightParen)
	case '{':
		s.addToken(TokenLeftBrace)
	case '}':
		s.addToken(TokenRightBrace)
	case ',':
		s.addToken(TokenComma)
	case '.':
		s.addToken(TokenDot)
	case '-':
		s.addToken(TokenMinus)
	case '+':
		s.addToken(TokenPlus)
	case ';':
		s.addToken(TokenSemicolon)
	case '*':
		s.addToken(TokenStar)

	case '!':
		s.addToken(s.pick('=', TokenBangEqual, TokenBang))
	case '=':
		s.addToken(s.pick('=', TokenEqualEqual, TokenEqual))
	case '<':
		s.addToken(s.pick('=', TokenLessEqual, TokenLess))
	case '>':
		s.addToken(s.pick('=', TokenGreaterEqual, TokenGreater))

	case '/':
		if s.match('/') {
			// Line comment: runs to the newline, which is left for the
			// next scanToken call so the line counter sees it.
			for s.peek() != '\n' && !s.isAtEnd() {
				s.advance()
			}
		} else {
			s.addToken(TokenSlash)
		}

	case ' ', '\r', '\t':
	case '\n':
		s.line++

	case '"':
		s.readString()

	default:
		switch {
		case isDigit(ch):
			s.readNumber()
		case isIdentStart(ch):
			s.readIdentifier()
		default:
			s.error(s.line, "Unexpected character.")
		}
	}
}

// readString consumes a string literal; the opening quote is already consumed.
func (s *Scanner) readString() {
	openLine := s.line
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}

	if s.isAtEnd() {
		s.error(openLine, "Unterminated string.")
		return
	}

	s.advance() // closing quote

	value := string(s.source[s.start+1 : s.current-1])
	s.addLiteral(TokenString, types.NewString(value))
}

// readNumber consumes an integer or decimal literal. A trailing '.' that is
// not followed by a digit is left for the next token.
func (s *Scanner) readNumber() {
	for isDigit(s.peek()) {
		s.advance()
	}

	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance() // the '.'
		for isDigit(s.peek()) {
			s.advance()
		}
	}

	// The run is always a well-formed decimal. The only possible error is
	// ErrRange, for which ParseFloat still returns +Inf.
	f, _ := strconv.ParseFloat(string(s.source[s.start:s.current]), 64)
	s.addLiteral(TokenNumber, types.NewNumber(f))
}

// readIdentifier consumes an identifier or reserved word.
func (s *Scanner) readIdentifier() {
	for isIdentPart(s.peek()) {
		s.advance()
	}
	s.addToken(LookupKeyword(string(s.source[s.start:s.current])))
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) advance() rune {
	ch := s.source[s.current]
	s.current++
	return ch
}

// match consumes the next rune only if it equals want.
func (s *Scanner) match(want rune) bool {
	if s.isAtEnd() || s.source[s.current] != want {
		return false
	}
	s.current++
	return true
}

// pick returns two when the next rune is want (consuming it), else one.
func (s *Scanner) pick(want rune, two, one TokenType) TokenType {
	if s.match(want) {
		return two
	}
	return one
}

func (s *Scanner) peek() rune {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() rune {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

func (s *Scanner) addToken(tt TokenType) {
	s.addLiteral(tt, types.Nil)
}

func (s *Scanner) addLiteral(tt TokenType, literal types.Value) {
	s.tokens = append(s.tokens, Token{
		Type:    tt,
		Lexeme:  string(s.source[s.start:s.current]),
		Literal: literal,
		Line:    s.line,
	})
}

func (s *Scanner) error(line int, msg string) {
	s.diags = append(s.diags, types.NewLexicalError(line, msg))
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
