package ir

import (
	"errors"
	"testing"
)

func TestBuilder_StraightLine(t *testing.T) {
	b := Begin("glsl:vertex")
	pos := b.Input(3, "position")
	scale := b.Uniform(1, "scale", 2)
	out := b.Output(3, "result")
	tmp := b.Temp(3, "scaled")

	if err := b.Emit(OpMul, Full(tmp), Full(pos), Full(scale)); err != nil {
		t.Fatal(err)
	}
	if err := b.Emit(OpAdd, Full(out), Full(tmp), Full(b.Const(1))); err != nil {
		t.Fatal(err)
	}
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}

	if p.Target != "glsl:vertex" {
		t.Errorf("Expected target glsl:vertex, got %q", p.Target)
	}
	if len(p.Inputs) != 1 || len(p.Outputs) != 1 || len(p.Temps) != 1 {
		t.Errorf("Unexpected interface: %d inputs, %d outputs, %d temps", len(p.Inputs), len(p.Outputs), len(p.Temps))
	}
	if len(p.Constants) != 1 || len(p.Uniforms) != 1 {
		t.Errorf("Expected one constant and one uniform, got %d and %d", len(p.Constants), len(p.Uniforms))
	}
	if errs, err := Validate(p); err != nil || len(errs) != 0 {
		t.Errorf("Expected a valid program, got %v %v", errs, err)
	}
}

func TestBuilder_ConstantsShared(t *testing.T) {
	b := Begin("")
	if b.Const(1, 2) != b.Const(1, 2) {
		t.Error("Expected equal constants to be shared")
	}
	if b.Const(1) == b.Const(2) {
		t.Error("Expected different constants to differ")
	}
}

func TestBuilder_InOutListedTwice(t *testing.T) {
	b := Begin("")
	x := b.InOut(2, "x")
	if err := b.Emit(OpAdd, Full(x), Full(x), Full(b.Const(1))); err != nil {
		t.Fatal(err)
	}
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}
	if IndexOf(p.Inputs, x) != 0 || IndexOf(p.Outputs, x) != 0 {
		t.Error("Expected inout symbol in both lists")
	}
	if len(p.Temps) != 0 {
		t.Errorf("Expected no temps, got %v", p.Temps)
	}
}

func TestBuilder_IfElse(t *testing.T) {
	b := Begin("")
	c := b.Input(1, "c")
	out := b.Output(1, "out")

	if err := b.If(Full(c)); err != nil {
		t.Fatal(err)
	}
	if err := b.Assign(Full(out), Full(b.Const(1))); err != nil {
		t.Fatal(err)
	}
	if err := b.Else(); err != nil {
		t.Fatal(err)
	}
	if err := b.Assign(Full(out), Full(b.Const(2))); err != nil {
		t.Fatal(err)
	}
	if err := b.EndIf(); err != nil {
		t.Fatal(err)
	}
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}

	head := p.CFG.Node(p.CFG.Entry)
	if len(head.Branches) != 1 {
		t.Fatalf("Expected one branch from the entry, got %d", len(head.Branches))
	}
	then := p.CFG.Node(head.Branches[0].Target)
	alt := p.CFG.Node(head.Follower)
	if then.Follower != alt.Follower {
		t.Error("Expected both arms to join")
	}
	if p.CFG.Node(then.Follower).Follower != p.CFG.Exit {
		t.Error("Expected join to fall through to the exit")
	}
	if errs, err := Validate(p); err != nil || len(errs) != 0 {
		t.Errorf("Expected a valid program, got %v %v", errs, err)
	}
}

func TestBuilder_While(t *testing.T) {
	b := Begin("")
	n := b.InOut(1, "n")
	if err := b.While(Full(n)); err != nil {
		t.Fatal(err)
	}
	if err := b.Emit(OpAdd, Full(n), Full(n), Full(b.Const(-1))); err != nil {
		t.Fatal(err)
	}
	if err := b.EndWhile(); err != nil {
		t.Fatal(err)
	}
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}

	loop := p.CFG.Node(p.CFG.Entry).Follower
	body := p.CFG.Node(loop).Branches[0].Target
	if p.CFG.Node(body).Follower != loop {
		t.Error("Expected a back-edge from the body to the loop test")
	}
	if errs, err := Validate(p); err != nil || len(errs) != 0 {
		t.Errorf("Expected a valid program, got %v %v", errs, err)
	}
}

func TestBuilder_Misnesting(t *testing.T) {
	b := Begin("")
	if err := b.Else(); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("Expected else without if to fail, got %v", err)
	}
	if err := b.EndWhile(); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("Expected endwhile without while to fail, got %v", err)
	}
	c := b.Input(1, "c")
	if err := b.While(Full(c)); err != nil {
		t.Fatal(err)
	}
	if err := b.EndIf(); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("Expected endif inside while to fail, got %v", err)
	}
	if _, err := b.End(); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("Expected unterminated while to fail, got %v", err)
	}
}

func TestBuilder_EndTwice(t *testing.T) {
	b := Begin("")
	if _, err := b.End(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.End(); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("Expected second End to fail, got %v", err)
	}
	if err := b.Kill(Full(NewTemp(1))); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("Expected emit after End to fail, got %v", err)
	}
}

func TestBuilder_Inline(t *testing.T) {
	inner := Begin("")
	x := inner.Temp(1, "x")
	if err := inner.Assign(Full(x), Full(inner.Const(3))); err != nil {
		t.Fatal(err)
	}
	body, err := inner.End()
	if err != nil {
		t.Fatal(err)
	}

	b := Begin("")
	out := b.Output(1, "out")
	if err := b.Inline(body); err != nil {
		t.Fatal(err)
	}
	if err := b.Assign(Full(out), Full(x)); err != nil {
		t.Fatal(err)
	}
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}
	if p.CFG.Instructions() != 2 {
		t.Errorf("Expected 2 instructions, got %d", p.CFG.Instructions())
	}
	if IndexOf(p.Temps, x) < 0 {
		t.Error("Expected inlined temp to be collected")
	}
	if errs, err := Validate(p); err != nil || len(errs) != 0 {
		t.Errorf("Expected a valid program, got %v %v", errs, err)
	}

	withInput := Begin("")
	withInput.Input(1, "in")
	q, _ := withInput.End()
	if err := Begin("").Inline(q); !errors.Is(err, ErrUnsupportedBinding) {
		t.Errorf("Expected inlining a program with inputs to fail, got %v", err)
	}
}
