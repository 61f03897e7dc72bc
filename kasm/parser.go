package kasm

import (
	"strconv"

	"github.com/gogpu/kernel/ir"
)

// Parser parses kernel assembly tokens into a File.
type Parser struct {
	tokens  []Token
	current int
	source  string
	errors  SourceErrors
}

// NewParser creates a new parser for the given tokens. The source is only
// used for error context.
func NewParser(tokens []Token, source string) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
		source:  source,
	}
}

// Parse parses the tokens and returns the File. On error the partial File is
// returned along with every error found; parsing resumes at the next line.
func (p *Parser) Parse() (*File, error) {
	file := &File{}

	for !p.isAtEnd() {
		if p.match(TokenNewline) {
			continue
		}
		stmt, err := p.statement(file)
		if err == nil {
			err = p.endOfLine()
		}
		if err != nil {
			p.errors.Add(err)
			p.synchronize()
			continue
		}
		if stmt != nil {
			file.Stmts = append(file.Stmts, stmt)
		}
	}

	if p.errors.HasErrors() {
		return file, p.errors
	}
	return file, nil
}

// statement parses one line. Target lines update file and return no
// statement.
func (p *Parser) statement(file *File) (Stmt, *SourceError) {
	tok := p.peek()
	switch {
	case tok.Kind == TokenTarget:
		return nil, p.target(file)
	case tok.Kind.IsDeclaration():
		return p.decl()
	case tok.Kind == TokenKill:
		p.advance()
		src, err := p.operand()
		if err != nil {
			return nil, err
		}
		return &KillStmt{Src: src, Span: p.spanFrom(tok)}, nil
	case tok.Kind == TokenIf:
		p.advance()
		cond, err := p.operand()
		if err != nil {
			return nil, err
		}
		return &IfStmt{Cond: cond, Span: p.spanFrom(tok)}, nil
	case tok.Kind == TokenWhile:
		p.advance()
		cond, err := p.operand()
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Cond: cond, Span: p.spanFrom(tok)}, nil
	case tok.Kind == TokenElse:
		p.advance()
		return &ElseStmt{Span: tok.Span()}, nil
	case tok.Kind == TokenEndIf:
		p.advance()
		return &EndIfStmt{Span: tok.Span()}, nil
	case tok.Kind == TokenEndWhile:
		p.advance()
		return &EndWhileStmt{Span: tok.Span()}, nil
	case tok.Kind == TokenIdent:
		return p.instruction()
	default:
		return nil, p.errorAt(tok, "unexpected %s, expected statement", describe(tok))
	}
}

func (p *Parser) target(file *File) *SourceError {
	tok := p.advance()
	if file.Target != "" {
		return p.errorAt(tok, "duplicate target (already %s)", file.Target)
	}
	backend, err := p.expectErr(TokenIdent)
	if err != nil {
		return err
	}
	if err := p.expectKind(TokenColon); err != nil {
		return err
	}
	stage, err := p.expectErr(TokenIdent)
	if err != nil {
		return err
	}
	file.Target = backend.Lexeme + ":" + stage.Lexeme
	file.TargetSpan = p.spanFrom(tok)
	return nil
}

var declKinds = map[TokenKind]ir.SymbolKind{
	TokenInput:   ir.KindInput,
	TokenOutput:  ir.KindOutput,
	TokenInOut:   ir.KindInOut,
	TokenTemp:    ir.KindTemp,
	TokenConst:   ir.KindConst,
	TokenUniform: ir.KindUniform,
	TokenTexture: ir.KindTexture,
	TokenStream:  ir.KindStream,
}

// decl parses "kind name:size [semantic] [scalar] [= v, ...]".
func (p *Parser) decl() (Stmt, *SourceError) {
	start := p.advance()
	d := &DeclStmt{Kind: declKinds[start.Kind]}

	name, err := p.expectErr(TokenIdent)
	if err != nil {
		return nil, err
	}
	d.Name = name.Lexeme
	if err := p.expectKind(TokenColon); err != nil {
		return nil, err
	}
	sizeTok, err := p.expectErr(TokenNumber)
	if err != nil {
		return nil, err
	}
	size, convErr := strconv.Atoi(sizeTok.Lexeme)
	if convErr != nil || size < 1 {
		return nil, p.errorAt(sizeTok, "invalid size %s for %s", sizeTok.Lexeme, d.Name)
	}
	d.Size = size

	for p.check(TokenIdent) {
		tok := p.advance()
		if _, ok := ir.ParseScalar(tok.Lexeme); ok {
			if d.Scalar != "" {
				return nil, p.errorAt(tok, "%s has two scalar types", d.Name)
			}
			d.Scalar = tok.Lexeme
			continue
		}
		if d.Semantic != "" {
			return nil, p.errorAt(tok, "%s has two semantics", d.Name)
		}
		d.Semantic = tok.Lexeme
	}

	if p.match(TokenEqual) {
		values, err := p.numberList()
		if err != nil {
			return nil, err
		}
		d.Values = values
	}
	d.Span = p.spanFrom(start)
	return d, nil
}

// instruction parses "dst = op src, ..." and "dst = src". An identifier
// after '=' is an opcode only when it names one that writes a destination
// and an operand follows it; otherwise it is the source of an assignment.
func (p *Parser) instruction() (Stmt, *SourceError) {
	start := p.peek()
	if op, ok := ir.LookupOp(start.Lexeme); ok && !op.Info().HasDst {
		p.advance()
		if op == ir.OpKil {
			src, err := p.operand()
			if err != nil {
				return nil, err
			}
			return &KillStmt{Src: src, Span: p.spanFrom(start)}, nil
		}
		// nop
		return nil, nil
	}

	dst, err := p.operand()
	if err != nil {
		return nil, err
	}
	if err := p.expectKind(TokenEqual); err != nil {
		return nil, err
	}

	in := &InstrStmt{Op: ir.OpAsn, Dst: dst}
	if tok := p.peek(); tok.Kind == TokenIdent && p.startsOperand(p.peekAt(1)) {
		if op, ok := ir.LookupOp(tok.Lexeme); ok && op.Info().HasDst {
			p.advance()
			in.Op = op
		}
	}
	for {
		src, err := p.operand()
		if err != nil {
			return nil, err
		}
		in.Srcs = append(in.Srcs, src)
		if !p.match(TokenComma) {
			break
		}
	}
	in.Span = p.spanFrom(start)
	return in, nil
}

func (p *Parser) startsOperand(tok Token) bool {
	switch tok.Kind {
	case TokenIdent, TokenNumber, TokenMinus, TokenLeftParen:
		return true
	}
	return false
}

// operand parses "[-]name[.swizzle]", "[-]number" or "[-](n, ...)".
func (p *Parser) operand() (Operand, *SourceError) {
	start := p.peek()
	neg := p.match(TokenMinus)

	switch {
	case p.check(TokenNumber):
		v, err := p.number()
		if err != nil {
			return Operand{}, err
		}
		if neg {
			v = -v
		}
		return Operand{Literal: []float64{v}, Span: p.spanFrom(start)}, nil

	case p.check(TokenLeftParen):
		p.advance()
		values, err := p.numberList()
		if err != nil {
			return Operand{}, err
		}
		if err := p.expectKind(TokenRightParen); err != nil {
			return Operand{}, err
		}
		if neg {
			for i := range values {
				values[i] = -values[i]
			}
		}
		return Operand{Literal: values, Span: p.spanFrom(start)}, nil

	case p.check(TokenIdent):
		o := Operand{Name: p.advance().Lexeme, Neg: neg}
		if p.match(TokenDot) {
			sw, err := p.expectErr(TokenIdent)
			if err != nil {
				return Operand{}, err
			}
			o.Swizzle = sw.Lexeme
		}
		o.Span = p.spanFrom(start)
		return o, nil
	}
	return Operand{}, p.errorAt(p.peek(), "unexpected %s, expected operand", describe(p.peek()))
}

// numberList parses "[-]n {, [-]n}".
func (p *Parser) numberList() ([]float64, *SourceError) {
	var values []float64
	for {
		neg := p.match(TokenMinus)
		v, err := p.number()
		if err != nil {
			return nil, err
		}
		if neg {
			v = -v
		}
		values = append(values, v)
		if !p.match(TokenComma) {
			return values, nil
		}
	}
}

func (p *Parser) number() (float64, *SourceError) {
	tok, err := p.expectErr(TokenNumber)
	if err != nil {
		return 0, err
	}
	v, convErr := strconv.ParseFloat(tok.Lexeme, 64)
	if convErr != nil {
		return 0, p.errorAt(tok, "invalid number %s", tok.Lexeme)
	}
	return v, nil
}

func (p *Parser) endOfLine() *SourceError {
	if p.isAtEnd() || p.match(TokenNewline) {
		return nil
	}
	return p.errorAt(p.peek(), "unexpected %s at end of statement", describe(p.peek()))
}

// Helper methods

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectErr(kind TokenKind) (Token, *SourceError) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return Token{}, p.errorAt(p.peek(), "expected %s, got %s", kind, describe(p.peek()))
}

func (p *Parser) expectKind(kind TokenKind) *SourceError {
	_, err := p.expectErr(kind)
	return err
}

// synchronize skips to the start of the next line.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.advance().Kind == TokenNewline {
			return
		}
	}
}

// spanFrom returns the span from start to the last consumed token.
func (p *Parser) spanFrom(start Token) Span {
	end := p.previous()
	return Span{
		Start: Position{Line: start.Line, Column: start.Column},
		End:   Position{Line: end.Line, Column: end.Column + len(end.Lexeme)},
	}
}

func (p *Parser) errorAt(tok Token, format string, args ...interface{}) *SourceError {
	return NewSourceErrorf(tok.Span(), p.source, format, args...)
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenIdent, TokenNumber, TokenString:
		return tok.Kind.String() + " " + strconv.Quote(tok.Lexeme)
	}
	return tok.Kind.String()
}
