package compose

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/kernel/ir"
	"github.com/google/go-cmp/cmp"
)

// splitter has inputs u:2, v:1 and outputs p = u, q = v, p = u*2.
func splitter(t *testing.T) *Handle {
	t.Helper()
	b := ir.Begin("")
	u := b.Input(2, "u")
	v := b.Input(1, "v")
	p1 := b.Output(2, "p")
	q := b.Output(1, "q")
	p2 := b.Output(2, "p")
	must(t, b.Assign(ir.Full(p1), ir.Full(u)))
	must(t, b.Assign(ir.Full(q), ir.Full(v)))
	must(t, b.Emit(ir.OpMul, ir.Full(p2), ir.Full(u), ir.Full(b.Const(2))))
	return end(t, b)
}

// weigh has inputs q:1, p:2 and output r = p * q.
func weigh(t *testing.T) *Handle {
	t.Helper()
	b := ir.Begin("")
	q := b.Input(1, "q")
	p := b.Input(2, "p")
	r := b.Output(2, "r")
	must(t, b.Emit(ir.OpMul, ir.Full(r), ir.Full(p), ir.Full(q)))
	return end(t, b)
}

func TestNamedConnect_Matching(t *testing.T) {
	h, err := NamedConnect(splitter(t), weigh(t), false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"input u:2", "input v:1", "->", "output r:2"}
	if diff := cmp.Diff(want, iface(h)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
	// the first p output is matched, not the second
	checkRun(t, h, [][]float64{{1, 2}, {3}}, [][]float64{{3, 6}})
}

func TestNamedConnect_Deterministic(t *testing.T) {
	a, b := splitter(t), weigh(t)
	first, err := NamedConnect(a, b, true)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := NamedConnect(a, b, true)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(iface(first), iface(again)); diff != "" {
			t.Fatalf("Run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestNamedConnect_KeepExtra(t *testing.T) {
	h, err := NamedConnect(splitter(t), weigh(t), true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"input u:2", "input v:1", "->", "output r:2", "output p:2"}
	if diff := cmp.Diff(want, iface(h)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
	checkRun(t, h, [][]float64{{1, 2}, {3}}, [][]float64{{3, 6}, {2, 4}})
}

func TestNamedConnect_UnmatchedInputs(t *testing.T) {
	// b needs p, which a does not produce
	b := ir.Begin("")
	q := b.Input(1, "q")
	p := b.Input(2, "p")
	r := b.Output(2, "r")
	must(t, b.Emit(ir.OpAdd, ir.Full(r), ir.Full(p), ir.Full(q)))
	second := end(t, b)

	h, err := NamedConnect(scale(t, "", "x", "q", 1, 10), second, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"input x:1", "input p:2", "->", "output r:2"}
	if diff := cmp.Diff(want, iface(h)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
	checkRun(t, h, [][]float64{{1}, {1, 2}}, [][]float64{{11, 12}})
}

func TestNamedConnect_SizeDiffers(t *testing.T) {
	var logged []string
	c := DefaultComposer()
	c.Metrics = nil
	c.Logf = func(format string, v ...interface{}) {
		logged = append(logged, format)
	}

	// a's q has two elements, b's q one
	h, err := c.NamedConnect(scale(t, "", "x", "q", 2, 1), scale(t, "", "q", "y", 1, 1), false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"input x:2", "input q:1", "->", "output y:1"}
	if diff := cmp.Diff(want, iface(h)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
	diags := h.Graph().Diagnostics
	if len(diags) != 1 || !strings.Contains(diags[0], "sizes differ") {
		t.Errorf("Expected a size diagnostic, got %v", diags)
	}
	if len(logged) != 1 {
		t.Errorf("Expected one warning, got %v", logged)
	}
}

func TestNamedConnect_Nil(t *testing.T) {
	if _, err := NamedConnect(nil, nil, false); !errors.Is(err, ir.ErrNullOperand) {
		t.Errorf("Expected ErrNullOperand, got %v", err)
	}
	h, err := NamedConnect(nil, weigh(t), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.FreeInputs()) != 2 {
		t.Errorf("Expected the other operand's inputs, got %v", iface(h))
	}
}

func TestMergeNames_DupCollapse(t *testing.T) {
	// a: p:2 -> p = p*2, q = p.x
	ba := ir.Begin("")
	pa := ba.Input(2, "p")
	po := ba.Output(2, "p")
	qo := ba.Output(1, "q")
	must(t, ba.Emit(ir.OpMul, ir.Full(po), ir.Full(pa), ir.Full(ba.Const(2))))
	must(t, ba.Assign(ir.Full(qo), ir.Full(pa).Swizzled(0)))
	a := end(t, ba)

	// b: q:1, p:2, p:2 -> r = p1*q + p2
	bb := ir.Begin("")
	q := bb.Input(1, "q")
	p1 := bb.Input(2, "p")
	p2 := bb.Input(2, "p")
	r := bb.Output(2, "r")
	must(t, bb.Emit(ir.OpMad, ir.Full(r), ir.Full(p1), ir.Full(q), ir.Full(p2)))
	b := end(t, bb)

	h, err := NamedConnect(a, b, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"input p:2", "->", "output r:2"}
	if diff := cmp.Diff(want, iface(h)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
	// p = (1,2): (2,4)*1 + (1,2)
	checkRun(t, h, [][]float64{{1, 2}}, [][]float64{{3, 6}})
}

func TestMergeNames_Groups(t *testing.T) {
	b := ir.Begin("")
	x1 := b.Input(1, "x")
	y := b.Input(1, "y")
	x2 := b.Input(1, "x")
	wide := b.Input(2, "x")
	out := b.Output(1, "out")
	must(t, b.Emit(ir.OpMad, ir.Full(out), ir.Full(x1), ir.Full(y), ir.Full(x2)))
	must(t, b.Emit(ir.OpAdd, ir.Full(out), ir.Full(out), ir.Full(wide).Swizzled(1)))
	h := end(t, b)

	merged, err := MergeNames(h)
	if err != nil {
		t.Fatal(err)
	}
	// x:1 groups first, x:2 differs in size and stays apart
	want := []string{"input x:1", "input y:1", "input x:2", "->", "output out:1"}
	if diff := cmp.Diff(want, iface(merged)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
	// x*y + x + wide.y
	checkRun(t, merged, [][]float64{{2}, {3}, {0, 10}}, [][]float64{{18}})
}

func TestMergeNames_NoDuplicates(t *testing.T) {
	c := DefaultComposer()
	c.Optimize = false
	c.Metrics = nil
	h := weigh(t)
	out, err := c.MergeNames(h)
	if err != nil {
		t.Fatal(err)
	}
	if out != h {
		t.Error("Expected a handle without duplicates to be returned as is")
	}
}

func TestNamedCombine(t *testing.T) {
	h, err := NamedCombine(scale(t, "", "p", "a", 2, 2), scale(t, "", "p", "b", 2, 3))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"input p:2", "->", "output a:2", "output b:2"}
	if diff := cmp.Diff(want, iface(h)); diff != "" {
		t.Errorf("Unexpected interface (-want +got):\n%s", diff)
	}
	checkRun(t, h, [][]float64{{1, 2}}, [][]float64{{2, 4}, {3, 6}})
}
