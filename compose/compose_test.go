package compose

import (
	"strconv"
	"testing"

	"github.com/gogpu/kernel/interp"
	"github.com/gogpu/kernel/ir"
	"github.com/google/go-cmp/cmp"
)

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func end(t *testing.T, b *ir.Builder) *Handle {
	t.Helper()
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}
	return NewHandle(p)
}

// scale returns out = in * k for size-n channels.
func scale(t *testing.T, target, in, out string, n int, k float64) *Handle {
	t.Helper()
	b := ir.Begin(target)
	x := b.Input(n, in)
	y := b.Output(n, out)
	must(t, b.Emit(ir.OpMul, ir.Full(y), ir.Full(x), ir.Full(b.Const(k))))
	return end(t, b)
}

// fanOut3 returns three outputs in*1, in*2, in*3.
func fanOut3(t *testing.T) *Handle {
	t.Helper()
	b := ir.Begin("")
	x := b.Input(1, "x")
	for i := 1; i <= 3; i++ {
		y := b.Output(1, "y")
		must(t, b.Emit(ir.OpMul, ir.Full(y), ir.Full(x), ir.Full(b.Const(float64(i)))))
	}
	return end(t, b)
}

// sum3 returns out = a + b + c.
func sum3(t *testing.T) *Handle {
	t.Helper()
	b := ir.Begin("")
	x := b.Input(1, "a")
	y := b.Input(1, "b")
	z := b.Input(1, "c")
	out := b.Output(1, "sum")
	must(t, b.Emit(ir.OpAdd, ir.Full(out), ir.Full(x), ir.Full(y)))
	must(t, b.Emit(ir.OpAdd, ir.Full(out), ir.Full(out), ir.Full(z)))
	return end(t, b)
}

func run(t *testing.T, h *Handle, inputs ...[]float64) [][]float64 {
	t.Helper()
	p, err := h.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if errs, err := ir.Validate(p); err != nil || len(errs) != 0 {
		t.Fatalf("Invalid program: %v %v", errs, err)
	}
	res, err := interp.Run(p, inputs, interp.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return res.Outputs
}

func checkRun(t *testing.T, h *Handle, inputs [][]float64, want [][]float64) {
	t.Helper()
	if diff := cmp.Diff(want, run(t, h, inputs...)); diff != "" {
		t.Errorf("Unexpected outputs (-want +got):\n%s", diff)
	}
}

// iface lists "kind name:size" for every input, then "->", then every output.
func iface(h *Handle) []string {
	var out []string
	for _, s := range h.prog.Inputs {
		out = append(out, s.Kind().String()+" "+s.Name()+":"+strconv.Itoa(s.Size()))
	}
	out = append(out, "->")
	for _, s := range h.prog.Outputs {
		out = append(out, s.Kind().String()+" "+s.Name()+":"+strconv.Itoa(s.Size()))
	}
	return out
}
