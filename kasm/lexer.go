package kasm

import (
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes kernel assembly. Newlines are tokens: a statement ends at
// the end of its line. The pipeline expression parser uses the same lexer
// and skips them.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 4 characters of source.
	estTokens := len(source) / 4
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		pos:    0,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	r := l.advance()

	switch r {
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case ',':
		l.addToken(TokenComma)
	case '.':
		l.addToken(TokenDot)
	case ':':
		l.addToken(TokenColon)
	case '=':
		l.addToken(TokenEqual)
	case '&':
		l.addToken(TokenAmpersand)
	case '-':
		l.addToken(TokenMinus)
	case '~':
		switch {
		case l.match('>'):
			l.addToken(TokenTildeGreater)
		case l.match('&'):
			l.addToken(TokenTildeAmp)
		default:
			return l.errorf("expected ~> or ~&")
		}
	case '>':
		if !l.match('>') {
			return l.errorf("expected >>")
		}
		l.addToken(TokenGreaterGreater)
	case '<':
		if !l.match('<') {
			return l.errorf("expected <<")
		}
		l.addToken(TokenLessLess)
	case '"':
		return l.str()
	case '#':
		l.lineComment()
	case '/':
		if l.match('/') {
			l.lineComment()
		} else if l.match('*') {
			l.blockComment()
		} else {
			return l.errorf("unexpected character '/'")
		}
	case ';':
		// Statement separator, same as a newline.
		l.addToken(TokenNewline)

	// Whitespace
	case ' ', '\r', '\t':
	case '\n':
		l.addToken(TokenNewline)
		l.line++
		l.column = 1

	default:
		switch {
		case isDigit(r):
			l.number()
		case isAlpha(r) || r == '_':
			l.identifier()
		default:
			return l.errorf("unexpected character %q", r)
		}
	}

	return nil
}

func (l *Lexer) lineComment() {
	for l.peek() != '\n' && !l.isAtEnd() {
		l.advance()
	}
}

func (l *Lexer) blockComment() {
	depth := 1
	for depth > 0 && !l.isAtEnd() {
		if l.peek() == '/' && l.peekNext() == '*' {
			l.advance()
			l.advance()
			depth++
		} else if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			depth--
		} else {
			if l.peek() == '\n' {
				l.line++
				l.column = 0
			}
			l.advance()
		}
	}
}

func (l *Lexer) str() error {
	for l.peek() != '"' {
		if l.isAtEnd() || l.peek() == '\n' {
			return l.errorf("unterminated string")
		}
		l.advance()
	}
	l.advance() // closing quote
	l.addToken(TokenString)
	return nil
}

func (l *Lexer) number() {
	for isDigit(l.peek()) {
		l.advance()
	}

	// "1.5" is a number, "1.x" is not valid anywhere but stays two tokens.
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // consume '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekNext()
		if isDigit(next) || next == '+' || next == '-' {
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	l.addToken(TokenNumber)
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	text := l.source[l.start:l.pos]
	kind := l.lookupKeyword(text)
	l.addToken(kind)
}

var keywords = map[string]TokenKind{
	"target":   TokenTarget,
	"input":    TokenInput,
	"output":   TokenOutput,
	"inout":    TokenInOut,
	"temp":     TokenTemp,
	"const":    TokenConst,
	"uniform":  TokenUniform,
	"texture":  TokenTexture,
	"stream":   TokenStream,
	"kill":     TokenKill,
	"if":       TokenIf,
	"else":     TokenElse,
	"endif":    TokenEndIf,
	"while":    TokenWhile,
	"endwhile": TokenEndWhile,
}

func (l *Lexer) lookupKeyword(text string) TokenKind {
	if kind, ok := keywords[text]; ok {
		return kind
	}
	return TokenIdent
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.line,
		Column: l.column - (l.pos - l.start),
	})
}

func (l *Lexer) errorf(format string, args ...interface{}) error {
	span := Span{Start: Position{Line: l.line, Column: l.column - (l.pos - l.start), Offset: l.start}}
	return NewSourceErrorf(span, l.source, format, args...)
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	l.column++
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}
