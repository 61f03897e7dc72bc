package kasm

import "github.com/gogpu/kernel/ir"

// File represents a kernel assembly source file.
type File struct {
	// Target is the "<backend>:<stage>" of the kernel, empty if the file
	// has no target line.
	Target     string
	TargetSpan Span

	Stmts []Stmt
}

// Node is the base interface for all AST nodes.
type Node interface {
	Pos() Span
}

// Stmt is the interface for statements.
type Stmt interface {
	Node
	stmtNode()
}

// Operand is a source or destination of an instruction: a symbol reference
// with optional negation and element selector, or a numeric literal.
type Operand struct {
	Name    string
	Swizzle string
	Neg     bool

	// Literal holds the values of a literal operand, "0.5" or "(1, 0, 0)".
	// Name is empty for literals.
	Literal []float64

	Span Span
}

func (o *Operand) Pos() Span { return o.Span }

// IsLiteral reports whether the operand is a numeric literal.
func (o *Operand) IsLiteral() bool { return o.Literal != nil }

// DeclStmt declares a symbol: "input color:4 color float32 = 1, 1, 1, 1".
type DeclStmt struct {
	Kind ir.SymbolKind
	Name string
	Size int

	// Semantic and Scalar are the names written after the size, resolved
	// during lowering. Empty means the default.
	Semantic string
	Scalar   string

	Values []float64
	Span   Span
}

func (d *DeclStmt) Pos() Span { return d.Span }
func (d *DeclStmt) stmtNode() {}

// InstrStmt is "dst = op src, ..." or the assignment "dst = src".
type InstrStmt struct {
	Op   ir.Op
	Dst  Operand
	Srcs []Operand
	Span Span
}

func (i *InstrStmt) Pos() Span { return i.Span }
func (i *InstrStmt) stmtNode() {}

// KillStmt discards the fragment when any element of Src is negative.
type KillStmt struct {
	Src  Operand
	Span Span
}

func (k *KillStmt) Pos() Span { return k.Span }
func (k *KillStmt) stmtNode() {}

// IfStmt opens a conditional taken when the first element of Cond is
// positive.
type IfStmt struct {
	Cond Operand
	Span Span
}

func (i *IfStmt) Pos() Span { return i.Span }
func (i *IfStmt) stmtNode() {}

// ElseStmt starts the alternative of the innermost if.
type ElseStmt struct {
	Span Span
}

func (e *ElseStmt) Pos() Span { return e.Span }
func (e *ElseStmt) stmtNode() {}

// EndIfStmt closes the innermost if.
type EndIfStmt struct {
	Span Span
}

func (e *EndIfStmt) Pos() Span { return e.Span }
func (e *EndIfStmt) stmtNode() {}

// WhileStmt opens a loop repeated while the first element of Cond is
// positive.
type WhileStmt struct {
	Cond Operand
	Span Span
}

func (w *WhileStmt) Pos() Span { return w.Span }
func (w *WhileStmt) stmtNode() {}

// EndWhileStmt closes the innermost while.
type EndWhileStmt struct {
	Span Span
}

func (e *EndWhileStmt) Pos() Span { return e.Span }
func (e *EndWhileStmt) stmtNode() {}

// Span represents a source code location span.
type Span struct {
	Start Position
	End   Position
}

// Position represents a position in source code.
type Position struct {
	Line   int
	Column int
	Offset int
}
