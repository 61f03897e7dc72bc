package kasm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/kernel/ir"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func parse(t *testing.T, source string) *File {
	t.Helper()
	file, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return file
}

func TestParseDeclarations(t *testing.T) {
	file := parse(t, `
target hlsl:ps
input  uv:2 texcoord
output color:4 color f16
uniform tint:4 = 1, 0.5, -0.5, 1
const half:1 = 0.5
texture albedo:4
`)
	if file.Target != "hlsl:ps" {
		t.Errorf("Expected target hlsl:ps, got %q", file.Target)
	}

	want := []Stmt{
		&DeclStmt{Kind: ir.KindInput, Name: "uv", Size: 2, Semantic: "texcoord"},
		&DeclStmt{Kind: ir.KindOutput, Name: "color", Size: 4, Semantic: "color", Scalar: "f16"},
		&DeclStmt{Kind: ir.KindUniform, Name: "tint", Size: 4, Values: []float64{1, 0.5, -0.5, 1}},
		&DeclStmt{Kind: ir.KindConst, Name: "half", Size: 1, Values: []float64{0.5}},
		&DeclStmt{Kind: ir.KindTexture, Name: "albedo", Size: 4},
	}
	if diff := cmp.Diff(want, file.Stmts, cmpopts.IgnoreTypes(Span{})); diff != "" {
		t.Errorf("Statements mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInstructions(t *testing.T) {
	file := parse(t, `
t = mul x.xyz, -y
t.w = 1
o = -t.wzyx
o = lrp 0.5, (1, 0, 0, 1), o
sin = sin sin
kil t.x
nop
`)
	want := []Stmt{
		&InstrStmt{Op: ir.OpMul, Dst: Operand{Name: "t"}, Srcs: []Operand{
			{Name: "x", Swizzle: "xyz"}, {Name: "y", Neg: true}}},
		&InstrStmt{Op: ir.OpAsn, Dst: Operand{Name: "t", Swizzle: "w"}, Srcs: []Operand{{Literal: []float64{1}}}},
		&InstrStmt{Op: ir.OpAsn, Dst: Operand{Name: "o"}, Srcs: []Operand{{Name: "t", Swizzle: "wzyx", Neg: true}}},
		&InstrStmt{Op: ir.OpLrp, Dst: Operand{Name: "o"}, Srcs: []Operand{
			{Literal: []float64{0.5}}, {Literal: []float64{1, 0, 0, 1}}, {Name: "o"}}},
		&InstrStmt{Op: ir.OpSin, Dst: Operand{Name: "sin"}, Srcs: []Operand{{Name: "sin"}}},
		&KillStmt{Src: Operand{Name: "t", Swizzle: "x"}},
	}
	if diff := cmp.Diff(want, file.Stmts, cmpopts.IgnoreTypes(Span{})); diff != "" {
		t.Errorf("Statements mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAssignFromOpName(t *testing.T) {
	// An opcode name not followed by an operand is a plain symbol.
	file := parse(t, "y = abs\nz = abs.x")
	for i, stmt := range file.Stmts {
		in := stmt.(*InstrStmt)
		if in.Op != ir.OpAsn || in.Srcs[0].Name != "abs" {
			t.Errorf("Statement %d: expected an assignment from abs, got %s %+v", i, in.Op, in.Srcs)
		}
	}
}

func TestParseControlFlow(t *testing.T) {
	file := parse(t, "if c.x\nelse\nendif\nwhile -n\nkill v\nendwhile")
	kinds := make([]string, len(file.Stmts))
	for i, stmt := range file.Stmts {
		kinds[i] = fmt.Sprintf("%T", stmt)
	}
	want := []string{"*kasm.IfStmt", "*kasm.ElseStmt", "*kasm.EndIfStmt", "*kasm.WhileStmt", "*kasm.KillStmt", "*kasm.EndWhileStmt"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("Statement kinds mismatch (-want +got):\n%s", diff)
	}
	if w := file.Stmts[3].(*WhileStmt); !w.Cond.Neg || w.Cond.Name != "n" {
		t.Errorf("Expected while condition -n, got %+v", w.Cond)
	}
}

func TestParseSpans(t *testing.T) {
	file := parse(t, "temp t:4\n  t = add t, t")
	in := file.Stmts[1].(*InstrStmt)
	if in.Span.Start.Line != 2 || in.Span.Start.Column != 3 {
		t.Errorf("Expected instruction at 2:3, got %d:%d", in.Span.Start.Line, in.Span.Start.Column)
	}
	if in.Span.End.Column != 15 {
		t.Errorf("Expected instruction to end at column 15, got %d", in.Span.End.Column)
	}
	if src := in.Srcs[1]; src.Span.Start.Column != 14 {
		t.Errorf("Expected second source at column 14, got %d", src.Span.Start.Column)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
	}{
		{"missing size", "input x", "expected :"},
		{"bad size", "input x:0", "invalid size 0"},
		{"fractional size", "input x:1.5", "invalid size 1.5"},
		{"two semantics", "input x:4 color normal", "two semantics"},
		{"two scalars", "input x:4 f32 f16", "two scalar types"},
		{"missing operand", "x = ", "expected operand"},
		{"missing equals", "x y", "expected ="},
		{"trailing token", "else endif", "at end of statement"},
		{"duplicate target", "target glsl:vs\ntarget hlsl:vs", "duplicate target"},
		{"stray operator", "= x", "expected statement"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Expected error containing %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestParseRecovers(t *testing.T) {
	file, err := Parse("input x:\ntemp t:1\nt = = x\nt = x")
	if err == nil {
		t.Fatal("Expected errors")
	}
	errs, ok := err.(SourceErrors)
	if !ok {
		t.Fatalf("Expected SourceErrors, got %T", err)
	}
	if len(errs) != 2 {
		t.Errorf("Expected 2 errors, got %d: %v", len(errs), errs.FormatAll())
	}
	if errs[0].Span.Start.Line != 1 || errs[1].Span.Start.Line != 3 {
		t.Errorf("Expected errors on lines 1 and 3, got %d and %d", errs[0].Span.Start.Line, errs[1].Span.Start.Line)
	}
	if len(file.Stmts) != 2 {
		t.Errorf("Expected the 2 valid lines to be kept, got %d statements", len(file.Stmts))
	}
}
