package kasm

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenNumber
	TokenString

	// Line structure
	TokenNewline

	// Operators
	TokenMinus          // -
	TokenEqual          // =
	TokenDot            // .
	TokenComma          // ,
	TokenColon          // :
	TokenAmpersand      // &
	TokenGreaterGreater // >>
	TokenLessLess       // <<
	TokenTildeGreater   // ~>
	TokenTildeAmp       // ~&

	// Delimiters
	TokenLeftParen  // (
	TokenRightParen // )

	// Keywords
	TokenTarget
	TokenInput
	TokenOutput
	TokenInOut
	TokenTemp
	TokenConst
	TokenUniform
	TokenTexture
	TokenStream
	TokenKill
	TokenIf
	TokenElse
	TokenEndIf
	TokenWhile
	TokenEndWhile
)

var tokenNames = map[TokenKind]string{
	TokenEOF:            "EOF",
	TokenError:          "Error",
	TokenIdent:          "Ident",
	TokenNumber:         "Number",
	TokenString:         "String",
	TokenNewline:        "newline",
	TokenMinus:          "-",
	TokenEqual:          "=",
	TokenDot:            ".",
	TokenComma:          ",",
	TokenColon:          ":",
	TokenAmpersand:      "&",
	TokenGreaterGreater: ">>",
	TokenLessLess:       "<<",
	TokenTildeGreater:   "~>",
	TokenTildeAmp:       "~&",
	TokenLeftParen:      "(",
	TokenRightParen:     ")",
	TokenTarget:         "target",
	TokenInput:          "input",
	TokenOutput:         "output",
	TokenInOut:          "inout",
	TokenTemp:           "temp",
	TokenConst:          "const",
	TokenUniform:        "uniform",
	TokenTexture:        "texture",
	TokenStream:         "stream",
	TokenKill:           "kill",
	TokenIf:             "if",
	TokenElse:           "else",
	TokenEndIf:          "endif",
	TokenWhile:          "while",
	TokenEndWhile:       "endwhile",
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsDeclaration reports whether the token starts a symbol declaration.
func (k TokenKind) IsDeclaration() bool {
	return k >= TokenInput && k <= TokenStream
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
}

// Span returns the source span covered by the token.
func (t Token) Span() Span {
	return Span{
		Start: Position{Line: t.Line, Column: t.Column},
		End:   Position{Line: t.Line, Column: t.Column + len(t.Lexeme)},
	}
}
