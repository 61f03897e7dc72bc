package manip

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/interp"
	"github.com/gogpu/kernel/ir"
	"github.com/gogpu/kernel/metrics"
	"github.com/google/go-cmp/cmp"
)

var names = []string{"a", "b", "c", "d", "e", "f"}

// identity declares one input per size, named a, b, ..., and copies each to
// an output of the same name.
func identity(t *testing.T, sizes ...int) *compose.Handle {
	t.Helper()
	b := ir.Begin("")
	ins := make([]*ir.Symbol, len(sizes))
	for i, n := range sizes {
		ins[i] = b.Input(n, names[i])
	}
	for i, n := range sizes {
		out := b.Output(n, names[i])
		if err := b.Assign(ir.Full(out), ir.Full(ins[i])); err != nil {
			t.Fatal(err)
		}
	}
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}
	return compose.NewHandle(p)
}

func inputNames(h *compose.Handle) []string {
	var out []string
	for _, s := range h.FreeInputs() {
		out = append(out, s.Name())
	}
	return out
}

func outputNames(h *compose.Handle) []string {
	var out []string
	for _, s := range h.Outputs() {
		out = append(out, s.Name())
	}
	return out
}

// values returns a distinct vector for every free input of h.
func values(h *compose.Handle) [][]float64 {
	var out [][]float64
	for i, s := range h.FreeInputs() {
		v := make([]float64, s.Size())
		for j := range v {
			v[j] = float64(10*(i+1) + j)
		}
		out = append(out, v)
	}
	return out
}

func run(t *testing.T, h *compose.Handle, inputs [][]float64) [][]float64 {
	t.Helper()
	p, err := h.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	res, err := interp.Run(p, inputs, interp.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return res.Outputs
}

func TestIndex_Resolve(t *testing.T) {
	vars := identity(t, 1, 1, 1, 1).FreeInputs()
	tests := []struct {
		index Index
		want  int
	}{
		{Absolute(1), 1},
		{Absolute(-1), 3},
		{Absolute(-1).Add(-1), 2},
		{FromStart(2), 2},
		{FromEnd(0), 3},
		{FromEnd(-1), 2},
		{Named("c", 0), 2},
		{Named("c", 1), 3},
	}
	for _, tt := range tests {
		got, err := tt.index.Resolve(vars)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.index, tt.want, got)
		}
	}
	if _, err := Named("z", 0).Resolve(vars); !errors.Is(err, ir.ErrRange) {
		t.Errorf("Expected ErrRange for an unknown name, got %v", err)
	}
}

func TestManipulator_Resolve(t *testing.T) {
	vars := identity(t, 1, 1, 1, 1).FreeInputs()
	tests := []struct {
		name string
		m    Manipulator
		want []int
	}{
		{"swizzle", Swizzle(3, 0, -2), []int{3, 0, 2}},
		{"named", NamedSwizzle("d", "a"), []int{3, 0}},
		{"range", RangeOf(Absolute(1), FromEnd(0)), []int{1, 2, 3}},
		{"empty range", RangeOf(Absolute(2), Absolute(1)), nil},
		{"extract", Extract(Absolute(2)), []int{2, 0, 1, 3}},
		{"extract first", Extract(FromStart(0)), []int{0, 1, 2, 3}},
		{"extract last", Extract(FromEnd(0)), []int{3, 0, 1, 2}},
		{"insert", Insert(Absolute(2)), []int{1, 2, 0, 3}},
		{"drop", Drop(Named("b", 0)), []int{0, 2, 3}},
		{"append", Range(Absolute(0)).Append(FromEnd(-1), FromEnd(0)), []int{0, 2, 3}},
	}
	for _, tt := range tests {
		got, err := tt.m.Resolve(vars)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s %s: unexpected positions (-want +got):\n%s", tt.name, tt.m, diff)
		}
	}

	for _, m := range []Manipulator{Range(Absolute(4)), Range(Absolute(-5)), RangeOf(Absolute(2), Absolute(7))} {
		if _, err := m.Resolve(vars); !errors.Is(err, ir.ErrRange) {
			t.Errorf("%s: expected ErrRange, got %v", m, err)
		}
	}
}

func TestApplyToInputs_RoundTrip(t *testing.T) {
	h := identity(t, 1, 2, 3, 4)
	in := values(h)
	want := run(t, h, in)
	for k := 0; k < 4; k++ {
		moved, err := ApplyToInputs(h, Extract(Absolute(k)))
		if err != nil {
			t.Fatal(err)
		}
		if got := inputNames(moved)[0]; got != names[k] {
			t.Errorf("k=%d: expected %s first, got %s", k, names[k], got)
		}
		back, err := ApplyToInputs(moved, Insert(Absolute(k)))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(inputNames(h), inputNames(back)); diff != "" {
			t.Errorf("k=%d: unexpected inputs (-want +got):\n%s", k, diff)
		}
		if diff := cmp.Diff(want, run(t, back, in)); diff != "" {
			t.Errorf("k=%d: unexpected outputs (-want +got):\n%s", k, diff)
		}
	}
}

func TestApplyToInputs_Errors(t *testing.T) {
	h := identity(t, 1, 1, 1)
	if _, err := ApplyToInputs(h, Swizzle(0, 0, 1, 2)); !errors.Is(err, ir.ErrRange) {
		t.Errorf("Expected ErrRange for a repeated input, got %v", err)
	}
	if _, err := ApplyToInputs(h, Swizzle(0, 3)); !errors.Is(err, ir.ErrRange) {
		t.Errorf("Expected ErrRange for an input out of range, got %v", err)
	}
	if _, err := ApplyToInputs(nil, Swizzle(0)); !errors.Is(err, ir.ErrNullOperand) {
		t.Errorf("Expected ErrNullOperand, got %v", err)
	}
}

func TestApplyToInputs_LeaveOut(t *testing.T) {
	h := identity(t, 1, 2, 3)
	tests := []struct {
		name   string
		m      Manipulator
		inputs []string
	}{
		{"drop", Drop(Absolute(1)), []string{"a", "c"}},
		{"swizzle", Swizzle(2, 0), []string{"c", "a"}},
		{"range", Range(FromEnd(0)), []string{"c"}},
	}
	for _, tt := range tests {
		got, err := ApplyToInputs(h, tt.m)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if diff := cmp.Diff(tt.inputs, inputNames(got)); diff != "" {
			t.Errorf("%s: unexpected inputs (-want +got):\n%s", tt.name, diff)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, outputNames(got)); diff != "" {
			t.Errorf("%s: unexpected outputs (-want +got):\n%s", tt.name, diff)
		}
	}

	dropped, err := ApplyToInputs(h, Drop(Absolute(1)))
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{1}, {0, 0}, {3, 4, 5}}
	if diff := cmp.Diff(want, run(t, dropped, [][]float64{{1}, {3, 4, 5}})); diff != "" {
		t.Errorf("Unexpected outputs (-want +got):\n%s", diff)
	}
}

func TestApplyToOutputs(t *testing.T) {
	h := identity(t, 1, 1, 1, 1)
	in := values(h)

	dropped, err := ApplyToOutputs(Drop(Absolute(1)), h)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "c", "d"}, outputNames(dropped)); diff != "" {
		t.Errorf("Unexpected outputs (-want +got):\n%s", diff)
	}

	repeated, err := ApplyToOutputs(Swizzle(3, 3, 0), h)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{in[3], in[3], in[0]}
	if diff := cmp.Diff(want, run(t, repeated, in)); diff != "" {
		t.Errorf("Unexpected values (-want +got):\n%s", diff)
	}
}

func TestFixed_KeepConserves(t *testing.T) {
	h := identity(t, 1, 2, 3, 4)
	in := values(h)
	want := run(t, h, in)
	for k := 0; k <= 4; k++ {
		f := Tree(Keep(k), Keep(4-k))
		for _, apply := range []func() (*compose.Handle, error){
			func() (*compose.Handle, error) { return FixedToInputs(h, f) },
			func() (*compose.Handle, error) { return FixedToOutputs(f, h) },
		} {
			got, err := apply()
			if err != nil {
				t.Fatal(err)
			}
			if got.FreeInputCount() != 4 || len(got.Outputs()) != 4 {
				t.Errorf("k=%d %s: expected 4 inputs and outputs, got %d and %d", k, f, got.FreeInputCount(), len(got.Outputs()))
			}
			if diff := cmp.Diff(want, run(t, got, in)); diff != "" {
				t.Errorf("k=%d %s: unexpected outputs (-want +got):\n%s", k, f, diff)
			}
		}
	}
}

func TestFixed_LoseConserves(t *testing.T) {
	h := identity(t, 1, 2, 3, 4)
	for k := 0; k < 4; k++ {
		f := Tree(Keep(k), Lose(1), Keep(3-k))

		fed, err := FixedToInputs(h, f)
		if err != nil {
			t.Fatal(err)
		}
		if fed.FreeInputCount() != 3 || len(fed.Outputs()) != 4 {
			t.Errorf("k=%d: expected 3 inputs and 4 outputs, got %d and %d", k, fed.FreeInputCount(), len(fed.Outputs()))
		}
		for _, name := range inputNames(fed) {
			if name == names[k] {
				t.Errorf("k=%d: expected input %s to be gone, got %v", k, name, inputNames(fed))
			}
		}

		drained, err := FixedToOutputs(f, h)
		if err != nil {
			t.Fatal(err)
		}
		if drained.FreeInputCount() != 4 || len(drained.Outputs()) != 3 {
			t.Errorf("k=%d: expected 4 inputs and 3 outputs, got %d and %d", k, drained.FreeInputCount(), len(drained.Outputs()))
		}
		in := values(drained)
		got := run(t, drained, in)
		var want [][]float64
		for i := range in {
			if i != k {
				want = append(want, in[i])
			}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("k=%d: unexpected outputs (-want +got):\n%s", k, diff)
		}
	}
}

func TestFixed_DupConserves(t *testing.T) {
	h := identity(t, 1, 1, 1, 1)
	for k := 0; k <= 2; k++ {
		fed, err := FixedToInputs(h, Tree(Keep(k), Dup(2), Keep(2-k)))
		if err != nil {
			t.Fatal(err)
		}
		if fed.FreeInputCount() != 3 {
			t.Fatalf("k=%d: expected 3 inputs, got %d", k, fed.FreeInputCount())
		}
		in := values(fed)
		got := run(t, fed, in)
		// input k feeds outputs k and k+1
		if got[k][0] != in[k][0] || got[k+1][0] != in[k][0] {
			t.Errorf("k=%d: expected outputs %d and %d to copy input %d, got %v", k, k, k+1, k, got)
		}
	}
	for k := 0; k < 4; k++ {
		copied, err := FixedToOutputs(Tree(Keep(k), Dup(2), Keep(3-k)), h)
		if err != nil {
			t.Fatal(err)
		}
		if len(copied.Outputs()) != 5 {
			t.Fatalf("k=%d: expected 5 outputs, got %d", k, len(copied.Outputs()))
		}
		in := values(copied)
		got := run(t, copied, in)
		if got[k][0] != in[k][0] || got[k+1][0] != in[k][0] {
			t.Errorf("k=%d: expected outputs %d and %d to copy input %d, got %v", k, k, k+1, k, got)
		}
	}
}

func TestFixed_Wrap(t *testing.T) {
	b := ir.Begin("")
	x := b.Input(1, "x")
	y := b.Output(1, "a")
	if err := b.Emit(ir.OpMul, ir.Full(y), ir.Full(x), ir.Full(b.Const(3))); err != nil {
		t.Fatal(err)
	}
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}
	triple := compose.NewHandle(p)

	h := identity(t, 1, 1)
	fed, err := FixedToInputs(h, Tree(Wrap(triple), Keep(1)))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"x", "b"}, inputNames(fed)); diff != "" {
		t.Errorf("Unexpected inputs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]float64{{6}, {5}}, run(t, fed, [][]float64{{2}, {5}})); diff != "" {
		t.Errorf("Unexpected outputs (-want +got):\n%s", diff)
	}

	// the same program wrapped twice yields independent copies
	both, err := FixedToOutputs(And(Wrap(triple), Wrap(triple)), h)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]float64{{6}, {15}}, run(t, both, [][]float64{{2}, {5}})); diff != "" {
		t.Errorf("Unexpected outputs (-want +got):\n%s", diff)
	}
}

func TestFixed_Composer(t *testing.T) {
	c := compose.DefaultComposer()
	c.Metrics = metrics.New()
	var logged []string
	c.Debug = true
	c.Logf = func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	}
	combined := map[string]string{"op": "combine", "errorful": "false"}
	before := metrics.Default.Value("kernel_composition_total", combined)

	h := identity(t, 1, 2)
	if _, err := FixedToInputsWith(c, h, Tree(Keep(1), Lose(1))); err != nil {
		t.Fatal(err)
	}
	if _, err := FixedToOutputsWith(c, Tree(Lose(1), Keep(1)), h); err != nil {
		t.Fatal(err)
	}

	if v := c.Metrics.Value("kernel_composition_total", combined); v != 4 {
		t.Errorf("Expected 4 combines on the composer, got %v", v)
	}
	if v := metrics.Default.Value("kernel_composition_total", combined); v != before {
		t.Errorf("Expected no combines on the default metrics, got %v more", v-before)
	}
	n := 0
	for _, line := range logged {
		if strings.HasPrefix(line, "combine: ") {
			n++
		}
	}
	if n != 4 {
		t.Errorf("Expected 4 logged combines, got %d in %v", n, logged)
	}
}

func TestFixed_Errors(t *testing.T) {
	h := identity(t, 1, 2)
	tests := []struct {
		name string
		f    Fixed
		want ir.ErrorKind
	}{
		{"keep overrun", Keep(3), ir.ErrCursorOverrun},
		{"tree overrun", Tree(Keep(1), Lose(2)), ir.ErrCursorOverrun},
		{"dup sizes", Dup(2), ir.ErrSizeMismatch},
		{"negative", Keep(-1), ir.ErrRange},
	}
	for _, tt := range tests {
		if _, err := FixedToInputs(h, tt.f); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
	if _, err := FixedToOutputs(Dup(2), nil); !errors.Is(err, ir.ErrNullOperand) {
		t.Errorf("Expected ErrNullOperand, got %v", err)
	}
}
