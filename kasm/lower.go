package kasm

import (
	"strings"

	"github.com/gogpu/kernel/ir"
)

// LowerResult holds the lowered program and any warnings.
type LowerResult struct {
	Program  *ir.Program
	Warnings []*SourceError
}

// Lowerer converts a File into an ir.Program through an ir.Builder.
type Lowerer struct {
	b      *ir.Builder
	source string

	symbols   map[string]*ir.Symbol
	declSpans map[string]Span
	declOrder []string
	used      map[string]bool

	// open holds the spans of unclosed if and while statements.
	open []Span
}

// Lower converts a kernel assembly File to a program.
func Lower(file *File) (*ir.Program, error) {
	return LowerWithSource(file, "")
}

// LowerWithSource converts a File to a program, keeping source for error
// messages.
func LowerWithSource(file *File, source string) (*ir.Program, error) {
	result, err := LowerWithWarnings(file, source)
	if err != nil {
		return nil, err
	}
	return result.Program, nil
}

// LowerWithWarnings converts a File to a program, returning warnings for
// symbols that are declared but never used. Lowering stops at the first
// error.
func LowerWithWarnings(file *File, source string) (*LowerResult, error) {
	l := &Lowerer{
		b:         ir.Begin(file.Target),
		source:    source,
		symbols:   make(map[string]*ir.Symbol, 16),
		declSpans: make(map[string]Span, 16),
		used:      make(map[string]bool, 16),
	}

	for _, stmt := range file.Stmts {
		if err := l.stmt(stmt); err != nil {
			return nil, err
		}
	}

	p, err := l.b.End()
	if err != nil {
		span := Span{}
		if len(l.open) > 0 {
			span = l.open[len(l.open)-1]
		}
		return nil, wrapSourceError(err, span, source)
	}

	result := &LowerResult{Program: p}
	for _, name := range l.declOrder {
		s := l.symbols[name]
		if l.used[name] || s.IsInput() || s.IsOutput() {
			continue
		}
		result.Warnings = append(result.Warnings,
			NewSourceErrorf(l.declSpans[name], source, "%s %s is declared but never used", s.Kind(), name))
	}
	return result, nil
}

func (l *Lowerer) stmt(stmt Stmt) error {
	var err error
	switch s := stmt.(type) {
	case *DeclStmt:
		return l.decl(s)
	case *InstrStmt:
		err = l.instr(s)
	case *KillStmt:
		var src ir.View
		if src, err = l.view(&s.Src); err != nil {
			return err
		}
		err = l.b.Kill(src)
	case *IfStmt:
		var cond ir.View
		if cond, err = l.view(&s.Cond); err != nil {
			return err
		}
		if err = l.b.If(cond); err == nil {
			l.open = append(l.open, s.Span)
		}
	case *ElseStmt:
		err = l.b.Else()
	case *EndIfStmt:
		if err = l.b.EndIf(); err == nil {
			l.open = l.open[:len(l.open)-1]
		}
	case *WhileStmt:
		var cond ir.View
		if cond, err = l.view(&s.Cond); err != nil {
			return err
		}
		if err = l.b.While(cond); err == nil {
			l.open = append(l.open, s.Span)
		}
	case *EndWhileStmt:
		if err = l.b.EndWhile(); err == nil {
			l.open = l.open[:len(l.open)-1]
		}
	default:
		return NewSourceErrorf(stmt.Pos(), l.source, "unsupported statement %T", stmt)
	}
	if err != nil {
		if _, ok := err.(*SourceError); ok {
			return err
		}
		return wrapSourceError(err, stmt.Pos(), l.source)
	}
	return nil
}

func (l *Lowerer) decl(d *DeclStmt) error {
	if prev, exists := l.declSpans[d.Name]; exists {
		return NewSourceErrorf(d.Span, l.source, "%s redeclared (first declared at %d:%d)",
			d.Name, prev.Start.Line, prev.Start.Column)
	}

	info := ir.SymbolInfo{Kind: d.Kind, Size: d.Size, Name: d.Name}
	if d.Semantic != "" {
		sem, ok := ir.ParseSemantic(strings.ToLower(d.Semantic))
		if !ok {
			return NewSourceErrorf(d.Span, l.source, "unknown semantic %q", d.Semantic)
		}
		info.Semantic = sem
	}
	if d.Scalar != "" {
		info.Scalar, _ = ir.ParseScalar(d.Scalar)
	}

	switch d.Kind {
	case ir.KindConst, ir.KindUniform:
		if d.Kind == ir.KindConst && len(d.Values) == 0 {
			return NewSourceErrorf(d.Span, l.source, "constant %s needs a value", d.Name)
		}
		if len(d.Values) != 0 && len(d.Values) != d.Size {
			return wrapSourceError(ir.Errorf(ir.ErrSizeMismatch, "%s:%d initialized with %d values",
				d.Name, d.Size, len(d.Values)), d.Span, l.source)
		}
		info.Value = d.Values
	default:
		if len(d.Values) != 0 {
			return NewSourceErrorf(d.Span, l.source, "%s %s cannot have a value", d.Kind, d.Name)
		}
	}

	l.symbols[d.Name] = l.b.Declare(info)
	l.declSpans[d.Name] = d.Span
	l.declOrder = append(l.declOrder, d.Name)
	return nil
}

func (l *Lowerer) instr(in *InstrStmt) error {
	if in.Dst.IsLiteral() {
		return NewSourceErrorf(in.Dst.Span, l.source, "cannot assign to a literal")
	}
	dst, err := l.view(&in.Dst)
	if err != nil {
		return err
	}
	switch dst.Sym.Kind() {
	case ir.KindConst, ir.KindUniform, ir.KindTexture, ir.KindStream:
		return NewSourceErrorf(in.Dst.Span, l.source, "cannot write read-only %s", dst.Sym.Describe())
	}
	srcs := make([]ir.View, len(in.Srcs))
	for i := range in.Srcs {
		if srcs[i], err = l.view(&in.Srcs[i]); err != nil {
			return err
		}
	}
	return l.b.Emit(in.Op, dst, srcs...)
}

// view resolves an operand. Literals become shared constants.
func (l *Lowerer) view(o *Operand) (ir.View, error) {
	if o.IsLiteral() {
		return ir.Full(l.b.Const(o.Literal...)), nil
	}
	s, ok := l.symbols[o.Name]
	if !ok {
		return ir.View{}, NewSourceErrorf(o.Span, l.source, "undefined symbol %s", o.Name)
	}
	l.used[o.Name] = true
	v := ir.View{Sym: s, Neg: o.Neg}
	if o.Swizzle != "" {
		sw, err := ir.ParseSwizzle(o.Swizzle)
		if err != nil {
			return ir.View{}, wrapSourceError(err, o.Span, l.source)
		}
		v.Swizzle = sw
	}
	return v, nil
}
