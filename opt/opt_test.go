package opt

import (
	"testing"

	"github.com/gogpu/kernel/ir"
)

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func countOps(p *ir.Program, op ir.Op) int {
	n := 0
	p.CFG.Walk(func(_ ir.NodeHandle, node *ir.Node) {
		for _, in := range node.Block {
			if in.Op == op {
				n++
			}
		}
	})
	return n
}

func TestDeadCodeEliminate_UnusedChain(t *testing.T) {
	b := ir.Begin("")
	in := b.Input(2, "in")
	out := b.Output(2, "out")
	t1 := b.Temp(2, "t1")
	t2 := b.Temp(2, "t2")
	must(t, b.Emit(ir.OpAbs, ir.Full(t1), ir.Full(in)))
	must(t, b.Emit(ir.OpSqrt, ir.Full(t2), ir.Full(t1))) // only feeds nothing
	must(t, b.Assign(ir.Full(out), ir.Full(in)))
	p, err := b.End()
	must(t, err)

	if removed := DeadCodeEliminate(p); removed != 2 {
		t.Errorf("Expected 2 removed instructions, got %d", removed)
	}
	if p.CFG.Instructions() != 1 {
		t.Errorf("Expected 1 instruction left, got %d", p.CFG.Instructions())
	}
}

func TestDeadCodeEliminate_PartialWriteKeepsEarlierWrite(t *testing.T) {
	b := ir.Begin("")
	in := b.Input(2, "in")
	out := b.Output(2, "out")
	must(t, b.Assign(ir.Full(out), ir.Full(in)))
	must(t, b.Assign(ir.Full(out).Swizzled(0), ir.Full(b.Const(0))))
	p, err := b.End()
	must(t, err)

	if removed := DeadCodeEliminate(p); removed != 0 {
		t.Errorf("Expected nothing removed, got %d", removed)
	}
}

func TestDeadCodeEliminate_FullOverwrite(t *testing.T) {
	b := ir.Begin("")
	in := b.Input(1, "in")
	out := b.Output(1, "out")
	must(t, b.Assign(ir.Full(out), ir.Full(in)))
	must(t, b.Assign(ir.Full(out), ir.Full(b.Const(1))))
	p, err := b.End()
	must(t, err)

	if removed := DeadCodeEliminate(p); removed != 1 {
		t.Errorf("Expected the overwritten assignment to be removed, got %d", removed)
	}
}

func TestDeadCodeEliminate_KeepsKillAndConditions(t *testing.T) {
	b := ir.Begin("")
	in := b.Input(1, "in")
	c := b.Temp(1, "c")
	k := b.Temp(1, "k")
	out := b.Output(1, "out")
	must(t, b.Emit(ir.OpSlt, ir.Full(c), ir.Full(in), ir.Full(b.Const(0.5))))
	must(t, b.Emit(ir.OpSge, ir.Full(k), ir.Full(in), ir.Full(b.Const(0.9))))
	must(t, b.Kill(ir.Full(k)))
	must(t, b.If(ir.Full(c)))
	must(t, b.Assign(ir.Full(out), ir.Full(in)))
	must(t, b.EndIf())
	p, err := b.End()
	must(t, err)

	if removed := DeadCodeEliminate(p); removed != 0 {
		t.Errorf("Expected nothing removed, got %d", removed)
	}
	if countOps(p, ir.OpKil) != 1 {
		t.Error("Expected kill to survive")
	}
}

func TestDeadCodeEliminate_LoopCarried(t *testing.T) {
	b := ir.Begin("")
	n := b.Input(1, "n")
	out := b.Output(1, "out")
	i := b.Temp(1, "i")
	acc := b.Temp(1, "acc")
	must(t, b.Assign(ir.Full(i), ir.Full(n)))
	must(t, b.Assign(ir.Full(acc), ir.Full(b.Const(0))))
	must(t, b.While(ir.Full(i)))
	must(t, b.Emit(ir.OpAdd, ir.Full(acc), ir.Full(acc), ir.Full(i)))
	must(t, b.Emit(ir.OpAdd, ir.Full(i), ir.Full(i), ir.Full(b.Const(-1))))
	must(t, b.EndWhile())
	must(t, b.Assign(ir.Full(out), ir.Full(acc)))
	p, err := b.End()
	must(t, err)

	if removed := DeadCodeEliminate(p); removed != 0 {
		t.Errorf("Expected loop-carried values to stay live, got %d removed", removed)
	}
}

func TestStraighten(t *testing.T) {
	p := ir.NewProgram("")
	a := p.CFG.PrependEntry()
	p.CFG.AppendExit()
	p.CFG.AppendExit()

	merged := Straighten(p.CFG)
	if merged != 4 {
		t.Errorf("Expected 4 merges, got %d", merged)
	}
	if p.CFG.Entry != a || p.CFG.Exit != a {
		t.Errorf("Expected a single node, entry %d exit %d", p.CFG.Entry, p.CFG.Exit)
	}
}

func TestStraighten_KeepsJoins(t *testing.T) {
	b := ir.Begin("")
	c := b.Input(1, "c")
	out := b.Output(1, "out")
	must(t, b.If(ir.Full(c)))
	must(t, b.Assign(ir.Full(out), ir.Full(c)))
	must(t, b.Else())
	must(t, b.Assign(ir.Full(out), ir.Full(b.Const(0))))
	must(t, b.EndIf())
	p, err := b.End()
	must(t, err)

	Straighten(p.CFG)
	p.CFG.Compact()

	// entry, then, else, join+exit
	if p.CFG.Len() != 4 {
		t.Errorf("Expected 4 nodes, got %d", p.CFG.Len())
	}
	if errs, err := ir.Validate(p); err != nil || len(errs) != 0 {
		t.Errorf("Expected a valid program, got %v %v", errs, err)
	}
}

func TestOptimize(t *testing.T) {
	b := ir.Begin("")
	in := b.Input(1, "in")
	out := b.Output(1, "out")
	dead := b.Temp(1, "dead")
	must(t, b.Assign(ir.Full(dead), ir.Full(in)))
	must(t, b.Assign(ir.Full(out), ir.Full(in)))
	p, err := b.End()
	must(t, err)
	p.CFG.PrependEntry()
	p.CFG.AppendExit()

	st := Optimize(p, DefaultOptions())
	if st.RemovedInstructions != 1 {
		t.Errorf("Expected 1 removed instruction, got %d", st.RemovedInstructions)
	}
	if p.CFG.Len() != 1 {
		t.Errorf("Expected a single node, got %d", p.CFG.Len())
	}
	if len(p.Temps) != 0 {
		t.Errorf("Expected dead temp to be dropped, got %v", p.Temps)
	}
	if errs, err := ir.Validate(p); err != nil || len(errs) != 0 {
		t.Errorf("Expected a valid program, got %v %v", errs, err)
	}
}
