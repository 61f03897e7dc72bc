package compose

import (
	"github.com/gogpu/kernel/ir"
)

// Connect feeds the outputs of a into the free inputs of b, position by
// position. With A outputs and B free inputs:
//
//   - inputs are a's curried, b's curried, a's free, then b's free inputs
//     A.. when B > A;
//   - outputs are b's outputs, then a's outputs B.. when A > B;
//   - each connected pair must agree in size and is replaced by one fresh
//     temporary;
//   - an InOut output of a is re-exposed as a fresh input copied into the
//     temporary at entry, and an InOut input of b as a fresh output copied
//     from the temporary at exit.
//
// A nil operand yields the other one; two nil operands are ErrNullOperand.
func (c *Composer) Connect(a, b *Handle) (*Handle, error) {
	h, err := c.connect(a, b)
	return c.observe("connect", h, err)
}

// Then is Connect(a, b), a >> b.
func (c *Composer) Then(a, b *Handle) (*Handle, error) {
	return c.Connect(a, b)
}

// After is Connect(a, b) with the operands in b << a order.
func (c *Composer) After(b, a *Handle) (*Handle, error) {
	return c.Connect(a, b)
}

func (c *Composer) connect(a, b *Handle) (*Handle, error) {
	switch {
	case a == nil && b == nil:
		return nil, ir.Errorf(ir.ErrNullOperand, "connect of two nil programs")
	case a == nil:
		return b, nil
	case b == nil:
		return a, nil
	}

	ap, bp := operands(a, b)
	na, nb := len(a.bindings), len(b.bindings)
	aCur, aFree := ap.Inputs[:na], ap.Inputs[na:]
	bCur, bFree := bp.Inputs[:nb], bp.Inputs[nb:]
	aOuts, bOuts := ap.Outputs, bp.Outputs
	A, B := len(aOuts), len(bFree)
	n := A
	if B < n {
		n = B
	}

	for i := 0; i < n; i++ {
		if aOuts[i].Size() != bFree[i].Size() {
			return nil, ir.Errorf(ir.ErrSizeMismatch, "cannot connect output %d (%s) to input %d (%s)",
				i, aOuts[i].Describe(), i, bFree[i].Describe())
		}
	}

	inputs := concat(aCur, bCur, aFree)
	if B > A {
		inputs = append(inputs, bFree[A:]...)
	}
	outputs := concat(bOuts)
	if A > B {
		outputs = append(outputs, aOuts[B:]...)
	}

	m := make(map[*ir.Symbol]*ir.Symbol, 2*n)
	var prologue, epilogue ir.Block
	for i := 0; i < n; i++ {
		out, in := aOuts[i], bFree[i]
		t := out.Clone(ir.KindTemp)
		m[out] = t
		m[in] = t

		if out.IsInOut() {
			fresh := out.Clone(ir.KindInput)
			replace(inputs, out, fresh)
			prologue = append(prologue, copyInstr(t, fresh))
		}
		if in.IsInOut() {
			fresh := in.Clone(ir.KindOutput)
			replace(outputs, in, fresh)
			epilogue = append(epilogue, copyInstr(fresh, t))
		}
	}

	p := c.assemble(ap, bp)
	p.SubstituteCode(m)
	if len(prologue) > 0 {
		p.CFG.Node(p.CFG.PrependEntry()).Block = prologue
	}
	if len(epilogue) > 0 {
		p.CFG.Node(p.CFG.AppendExit()).Block = epilogue
	}
	p.Inputs = ir.Dedup(inputs)
	p.Outputs = ir.Dedup(outputs)
	c.finish(p)

	return &Handle{prog: p, bindings: concatBindings(a, b)}, nil
}

// Combine runs a and b side by side: inputs are a's curried, b's curried,
// a's free and b's free inputs; outputs are a's then b's. No values flow
// between them. Combining a handle with itself yields two independent
// copies.
func (c *Composer) Combine(a, b *Handle) (*Handle, error) {
	h, err := c.combine(a, b)
	return c.observe("combine", h, err)
}

// And is Combine(a, b), a & b.
func (c *Composer) And(a, b *Handle) (*Handle, error) {
	return c.Combine(a, b)
}

func (c *Composer) combine(a, b *Handle) (*Handle, error) {
	switch {
	case a == nil && b == nil:
		return nil, ir.Errorf(ir.ErrNullOperand, "combine of two nil programs")
	case a == nil:
		return b, nil
	case b == nil:
		return a, nil
	}

	ap, bp := operands(a, b)
	na, nb := len(a.bindings), len(b.bindings)

	p := c.assemble(ap, bp)
	p.Inputs = concat(ap.Inputs[:na], bp.Inputs[:nb], ap.Inputs[na:], bp.Inputs[nb:])
	p.Outputs = concat(ap.Outputs, bp.Outputs)
	c.finish(p)

	return &Handle{prog: p, bindings: concatBindings(a, b)}, nil
}

// replace swaps old for repl in list, in place.
func replace(list []*ir.Symbol, old, repl *ir.Symbol) {
	for i, s := range list {
		if s == old {
			list[i] = repl
		}
	}
}

func copyInstr(dst, src *ir.Symbol) ir.Instruction {
	in, err := ir.Assign(ir.Full(dst), ir.Full(src))
	if err != nil {
		panic("compose: " + err.Error()) // sizes are checked by the caller
	}
	return in
}
