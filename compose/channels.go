package compose

import (
	"github.com/gogpu/kernel/ir"
)

// Channel programs: small building blocks with no computation of their own,
// used to route values between composed programs. Each takes template
// symbols and declares fresh clones of them, so names, sizes and scalar types
// carry over.

// PassThrough declares one InOut channel per template: the identity.
func PassThrough(templates ...*ir.Symbol) *Handle {
	p := ir.NewProgram("")
	for _, s := range templates {
		c := s.Clone(ir.KindInOut)
		p.Inputs = append(p.Inputs, c)
		p.Outputs = append(p.Outputs, c)
	}
	return NewHandle(p)
}

// Sink declares one input per template and no outputs. Placed after a
// program it discards outputs.
func Sink(templates ...*ir.Symbol) *Handle {
	p := ir.NewProgram("")
	for _, s := range templates {
		p.Inputs = append(p.Inputs, s.Clone(ir.KindInput))
	}
	return NewHandle(p)
}

// Source declares one output per template and no inputs. Placed before a
// program it leaves the matching inputs unfed, removing them from the
// interface.
func Source(templates ...*ir.Symbol) *Handle {
	p := ir.NewProgram("")
	for _, s := range templates {
		p.Outputs = append(p.Outputs, s.Clone(ir.KindOutput))
	}
	return NewHandle(p)
}

// FanOut reads one channel and writes n copies of it.
func FanOut(template *ir.Symbol, n int) *Handle {
	p := ir.NewProgram("")
	in := template.Clone(ir.KindInput)
	p.Inputs = []*ir.Symbol{in}
	block := make(ir.Block, 0, n)
	for i := 0; i < n; i++ {
		out := template.Clone(ir.KindOutput)
		p.Outputs = append(p.Outputs, out)
		block = append(block, copyInstr(out, in))
	}
	p.CFG.Node(p.CFG.Entry).Block = block
	return NewHandle(p)
}

// permuter builds a program with one input per entry of from and one output
// per entry of to, where output k copies input src[k]. Outputs with a negative
// source are never written.
func permuter(from, to []*ir.Symbol, src []int) *Handle {
	p := ir.NewProgram("")
	for _, s := range from {
		p.Inputs = append(p.Inputs, s.Clone(ir.KindInput))
	}
	block := make(ir.Block, 0, len(to))
	for k, s := range to {
		out := s.Clone(ir.KindOutput)
		p.Outputs = append(p.Outputs, out)
		if src[k] >= 0 {
			block = append(block, copyInstr(out, p.Inputs[src[k]]))
		}
	}
	p.CFG.Node(p.CFG.Entry).Block = block
	return NewHandle(p)
}

// PermuteInputs reorders the free inputs of h: free input k of the result is
// free input idx[k] of h. No input may be selected twice. Inputs left out are
// fed from unwritten outputs, as with Source, and leave the interface.
func (c *Composer) PermuteInputs(h *Handle, idx []int) (*Handle, error) {
	out, err := c.permuteInputs(h, idx)
	return c.observe("permute_inputs", out, err)
}

func (c *Composer) permuteInputs(h *Handle, idx []int) (*Handle, error) {
	if h == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "permutation of a nil program")
	}
	free := h.FreeInputs()
	seen := make([]bool, len(free))
	for _, i := range idx {
		if i < 0 || i >= len(free) {
			return nil, ir.Errorf(ir.ErrRange, "input index %d out of range (%d free inputs)", i, len(free))
		}
		if seen[i] {
			return nil, ir.Errorf(ir.ErrRange, "input %d (%s) selected twice", i, free[i])
		}
		seen[i] = true
	}

	// the permuter reads in idx order and writes h's inputs in h's order
	from := make([]*ir.Symbol, len(idx))
	inv := make([]int, len(free))
	for i := range inv {
		inv[i] = -1
	}
	for k, i := range idx {
		from[k] = free[i]
		inv[i] = k
	}
	return c.connect(permuter(from, free, inv), h)
}

// PermuteOutputs selects outputs of h: output k of the result is output
// idx[k] of h. Outputs may be repeated or dropped.
func (c *Composer) PermuteOutputs(h *Handle, idx []int) (*Handle, error) {
	out, err := c.permuteOutputs(h, idx)
	return c.observe("permute_outputs", out, err)
}

func (c *Composer) permuteOutputs(h *Handle, idx []int) (*Handle, error) {
	if h == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "permutation of a nil program")
	}
	outs := h.Outputs()
	to := make([]*ir.Symbol, len(idx))
	for k, i := range idx {
		if i < 0 || i >= len(outs) {
			return nil, ir.Errorf(ir.ErrRange, "output index %d out of range (%d outputs)", i, len(outs))
		}
		to[k] = outs[i]
	}
	return c.connect(h, permuter(outs, to, idx))
}
