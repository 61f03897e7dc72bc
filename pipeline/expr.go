package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/kernel/kasm"
)

// Expr is a node of a composition expression.
type Expr interface {
	fmt.Stringer
	exprNode()
}

// Ref names a kernel, or a channel when it appears as a call argument.
type Ref struct {
	Name string
}

// Number is an integer call argument.
type Number struct {
	Value int
}

// Str is a quoted call argument.
type Str struct {
	Value string
}

// Binary is a composition of two expressions. Op is one of
// kasm.TokenGreaterGreater (connect), kasm.TokenLessLess (connect, right
// to left), kasm.TokenAmpersand (combine), kasm.TokenTildeGreater (connect
// by name) and kasm.TokenTildeAmp (combine by name).
type Binary struct {
	Op          kasm.TokenKind
	Left, Right Expr
}

// Call applies a manipulator or a named operation.
type Call struct {
	Name string
	Args []Expr
}

func (Ref) exprNode()    {}
func (Number) exprNode() {}
func (Str) exprNode()    {}
func (Binary) exprNode() {}
func (Call) exprNode()   {}

func (r Ref) String() string    { return r.Name }
func (n Number) String() string { return strconv.Itoa(n.Value) }
func (s Str) String() string    { return strconv.Quote(s.Value) }

func (b Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

// ParseExpr parses a composition expression:
//
//	expr    = combine { (">>" | "<<" | "~>") combine }
//	combine = primary { ("&" | "~&") primary }
//	primary = name | name "(" [ arg { "," arg } ] ")" | "(" expr ")"
//	arg     = expr | ["-"] number | string
//
// Both levels associate to the left, and combination binds tighter than
// connection. Newlines are ignored.
func ParseExpr(source string) (Expr, error) {
	tokens, err := kasm.NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &exprParser{source: source}
	for _, tok := range tokens {
		if tok.Kind != kasm.TokenNewline {
			p.tokens = append(p.tokens, tok)
		}
	}
	x, err := p.connect()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != kasm.TokenEOF {
		return nil, p.errorf(tok, "unexpected %s after expression", describe(tok))
	}
	return x, nil
}

type exprParser struct {
	source string
	tokens []kasm.Token
	pos    int
}

func (p *exprParser) peek() kasm.Token {
	return p.tokens[p.pos]
}

func (p *exprParser) advance() kasm.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != kasm.TokenEOF {
		p.pos++
	}
	return tok
}

func (p *exprParser) errorf(tok kasm.Token, format string, args ...interface{}) error {
	return kasm.NewSourceErrorf(tok.Span(), p.source, format, args...)
}

func (p *exprParser) connect() (Expr, error) {
	left, err := p.combine()
	if err != nil {
		return nil, err
	}
	for {
		switch op := p.peek().Kind; op {
		case kasm.TokenGreaterGreater, kasm.TokenLessLess, kasm.TokenTildeGreater:
			p.advance()
			right, err := p.combine()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: op, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *exprParser) combine() (Expr, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch op := p.peek().Kind; op {
		case kasm.TokenAmpersand, kasm.TokenTildeAmp:
			p.advance()
			right, err := p.primary()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: op, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *exprParser) primary() (Expr, error) {
	tok := p.advance()
	switch tok.Kind {
	case kasm.TokenIdent:
		if p.peek().Kind != kasm.TokenLeftParen {
			return Ref{Name: tok.Lexeme}, nil
		}
		p.advance()
		return p.call(tok.Lexeme)
	case kasm.TokenLeftParen:
		x, err := p.connect()
		if err != nil {
			return nil, err
		}
		if closing := p.advance(); closing.Kind != kasm.TokenRightParen {
			return nil, p.errorf(closing, "expected ), got %s", describe(closing))
		}
		return x, nil
	default:
		return nil, p.errorf(tok, "expected kernel name or (, got %s", describe(tok))
	}
}

func (p *exprParser) call(name string) (Expr, error) {
	c := Call{Name: name}
	if p.peek().Kind == kasm.TokenRightParen {
		p.advance()
		return c, nil
	}
	for {
		arg, err := p.arg()
		if err != nil {
			return nil, err
		}
		c.Args = append(c.Args, arg)

		tok := p.advance()
		switch tok.Kind {
		case kasm.TokenComma:
		case kasm.TokenRightParen:
			return c, nil
		default:
			return nil, p.errorf(tok, "expected , or ) in call to %s, got %s", name, describe(tok))
		}
	}
}

func (p *exprParser) arg() (Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case kasm.TokenString:
		p.advance()
		return Str{Value: strings.Trim(tok.Lexeme, `"`)}, nil
	case kasm.TokenMinus, kasm.TokenNumber:
		p.advance()
		sign := 1
		if tok.Kind == kasm.TokenMinus {
			sign = -1
			if tok = p.advance(); tok.Kind != kasm.TokenNumber {
				return nil, p.errorf(tok, "expected number after -, got %s", describe(tok))
			}
		}
		n, err := strconv.Atoi(tok.Lexeme)
		if err != nil {
			return nil, p.errorf(tok, "invalid index %s", tok.Lexeme)
		}
		return Number{Value: sign * n}, nil
	default:
		return p.connect()
	}
}

func describe(tok kasm.Token) string {
	switch tok.Kind {
	case kasm.TokenEOF:
		return "end of expression"
	case kasm.TokenIdent, kasm.TokenNumber, kasm.TokenString:
		return fmt.Sprintf("%q", tok.Lexeme)
	default:
		return tok.Kind.String()
	}
}
