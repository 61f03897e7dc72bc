// Package manip reorders, repeats and discards program channels.
//
// A Manipulator is a list of spans over a variable list, resolved when it is
// applied: to the free inputs of a program (ApplyToInputs) or to its outputs
// (ApplyToOutputs). Fixed manipulators (Keep, Lose, Dup, Wrap and Tree) build
// a program that is connected in front of, or behind, another one.
package manip

import (
	"strings"

	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/ir"
)

// Manipulator is an ordered list of spans. The selected positions, in order,
// form the permutation.
type Manipulator []Span

// Swizzle selects the given positions; negative positions count from the
// end.
func Swizzle(idx ...int) Manipulator {
	m := make(Manipulator, len(idx))
	for i, k := range idx {
		m[i] = Span{Absolute(k), Absolute(k)}
	}
	return m
}

// NamedSwizzle selects the first variable of each name.
func NamedSwizzle(names ...string) Manipulator {
	m := make(Manipulator, len(names))
	for i, name := range names {
		m[i] = Span{Named(name, 0), Named(name, 0)}
	}
	return m
}

// Range selects a single variable.
func Range(i Index) Manipulator {
	return Manipulator{{i, i}}
}

// RangeOf selects the variables from first to last inclusive.
func RangeOf(first, last Index) Manipulator {
	return Manipulator{{first, last}}
}

// Extract moves the variable at k to the front.
func Extract(k Index) Manipulator {
	return Manipulator{
		{k, k},
		{FromStart(0), k.Add(-1)},
		{k.Add(1), FromEnd(0)},
	}
}

// Insert moves the first variable to position k. It undoes Extract(k).
func Insert(k Index) Manipulator {
	return Manipulator{
		{FromStart(1), k},
		{FromStart(0), FromStart(0)},
		{k.Add(1), FromEnd(0)},
	}
}

// Drop removes the variable at k.
func Drop(k Index) Manipulator {
	return Manipulator{
		{FromStart(0), k.Add(-1)},
		{k.Add(1), FromEnd(0)},
	}
}

// Append returns m followed by the span first..last.
func (m Manipulator) Append(first, last Index) Manipulator {
	out := make(Manipulator, len(m), len(m)+1)
	copy(out, m)
	return append(out, Span{first, last})
}

// Concat returns m followed by o.
func (m Manipulator) Concat(o Manipulator) Manipulator {
	out := make(Manipulator, 0, len(m)+len(o))
	out = append(out, m...)
	return append(out, o...)
}

// Resolve returns the positions selected in vars, in order.
func (m Manipulator) Resolve(vars []*ir.Symbol) ([]int, error) {
	var out []int
	for _, s := range m {
		idx, err := s.Resolve(vars)
		if err != nil {
			return nil, err
		}
		out = append(out, idx...)
	}
	return out, nil
}

func (m Manipulator) String() string {
	parts := make([]string, len(m))
	for i, s := range m {
		parts[i] = s.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ApplyToInputs reorders the free inputs of h: input k of the result is the
// k-th selected input. No input may be selected twice; inputs left out are
// no longer inputs of the result.
func ApplyToInputs(h *compose.Handle, m Manipulator) (*compose.Handle, error) {
	return ApplyToInputsWith(compose.Default(), h, m)
}

// ApplyToInputsWith is ApplyToInputs on a given composer.
func ApplyToInputsWith(c *compose.Composer, h *compose.Handle, m Manipulator) (*compose.Handle, error) {
	if h == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "manipulation of a nil program")
	}
	idx, err := m.Resolve(h.FreeInputs())
	if err != nil {
		return nil, err
	}
	return c.PermuteInputs(h, idx)
}

// ApplyToOutputs selects outputs of h: output k of the result is the k-th
// selected output. Outputs may be repeated or left out.
func ApplyToOutputs(m Manipulator, h *compose.Handle) (*compose.Handle, error) {
	return ApplyToOutputsWith(compose.Default(), m, h)
}

// ApplyToOutputsWith is ApplyToOutputs on a given composer.
func ApplyToOutputsWith(c *compose.Composer, m Manipulator, h *compose.Handle) (*compose.Handle, error) {
	if h == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "manipulation of a nil program")
	}
	idx, err := m.Resolve(h.Outputs())
	if err != nil {
		return nil, err
	}
	return c.PermuteOutputs(h, idx)
}
