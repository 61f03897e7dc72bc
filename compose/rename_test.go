package compose

import (
	"errors"
	"testing"

	"github.com/gogpu/kernel/ir"
	"github.com/google/go-cmp/cmp"
)

func TestRenameInput(t *testing.T) {
	h := scale(t, "", "in", "out", 2, 2)
	renamed, err := RenameInput(h, "in", "position")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"input position:2", "->", "output out:2"}
	if diff := cmp.Diff(want, iface(renamed)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
	if h.prog.Inputs[0].Name() != "in" {
		t.Error("Expected the original to keep its name")
	}
	checkRun(t, renamed, [][]float64{{1, 2}}, [][]float64{{2, 4}})

	same, err := RenameInput(h, "missing", "x")
	if err != nil || same != h {
		t.Errorf("Expected an unknown name to be a no-op, got %v %v", same, err)
	}
}

func TestRenameOutput(t *testing.T) {
	renamed, err := RenameOutput(fanOut3(t), "y", "z")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"input x:1", "->", "output z:1", "output z:1", "output z:1"}
	if diff := cmp.Diff(want, iface(renamed)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
}

func TestRename_InOut(t *testing.T) {
	renamed, err := RenameInput(increment(t), "x", "counter")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"inout counter:1", "->", "inout counter:1"}
	if diff := cmp.Diff(want, iface(renamed)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
	if renamed.prog.Inputs[0] != renamed.prog.Outputs[0] {
		t.Error("Expected the renamed InOut to stay one symbol")
	}
	checkRun(t, renamed, [][]float64{{1}}, [][]float64{{2}})
}

func TestRename_Nil(t *testing.T) {
	if _, err := RenameInput(nil, "a", "b"); !errors.Is(err, ir.ErrNullOperand) {
		t.Errorf("Expected ErrNullOperand, got %v", err)
	}
	if _, err := RenameOutput(nil, "a", "b"); !errors.Is(err, ir.ErrNullOperand) {
		t.Errorf("Expected ErrNullOperand, got %v", err)
	}
}

func TestReplaceVariable(t *testing.T) {
	b := ir.Begin("")
	g := b.Uniform(1, "gain", 2)
	x := b.Input(1, "x")
	y := b.Output(1, "y")
	must(t, b.Emit(ir.OpMul, ir.Full(y), ir.Full(x), ir.Full(g)))
	h := end(t, b)

	g2 := ir.Declare(ir.SymbolInfo{Kind: ir.KindUniform, Size: 1, Name: "gain2", Value: []float64{5}})
	replaced, err := ReplaceVariable(h, g, g2)
	if err != nil {
		t.Fatal(err)
	}
	if ir.IndexOf(replaced.prog.Uniforms, g) >= 0 || ir.IndexOf(replaced.prog.Uniforms, g2) < 0 {
		t.Errorf("Expected gain2 to replace gain, got %v", replaced.prog.Uniforms)
	}
	checkRun(t, replaced, [][]float64{{3}}, [][]float64{{15}})
	checkRun(t, h, [][]float64{{3}}, [][]float64{{6}})

	wide := ir.NewSymbol(ir.KindUniform, 2, "wide")
	if _, err := ReplaceVariable(h, g, wide); !errors.Is(err, ir.ErrSizeMismatch) {
		t.Errorf("Expected ErrSizeMismatch, got %v", err)
	}
	if _, err := ReplaceVariable(h, nil, g2); !errors.Is(err, ir.ErrNullOperand) {
		t.Errorf("Expected ErrNullOperand, got %v", err)
	}
}
