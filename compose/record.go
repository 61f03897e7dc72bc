package compose

import (
	"strings"

	"github.com/gogpu/kernel/ir"
)

// Record is an ordered list of symbols assigned or bound as a unit. It
// aggregates references only; the symbols belong to whatever program
// declares them.
type Record []*ir.Symbol

// NewRecord returns a record of the given symbols.
func NewRecord(syms ...*ir.Symbol) Record {
	return append(Record(nil), syms...)
}

// Size returns the number of symbols.
func (r Record) Size() int {
	return len(r)
}

// Append returns r followed by syms.
func (r Record) Append(syms ...*ir.Symbol) Record {
	out := make(Record, 0, len(r)+len(syms))
	out = append(out, r...)
	return append(out, syms...)
}

// Prepend returns syms followed by r.
func (r Record) Prepend(syms ...*ir.Symbol) Record {
	out := make(Record, 0, len(r)+len(syms))
	out = append(out, syms...)
	return append(out, r...)
}

// Combine returns r followed by o, r & o.
func (r Record) Combine(o Record) Record {
	return r.Append(o...)
}

// Assign emits r[i] = src[i] into b for every pair. Pairing stops at the
// shorter record. Nothing is emitted when any pair disagrees in size.
func (r Record) Assign(b *ir.Builder, src Record) error {
	n := len(r)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		if r[i].Size() != src[i].Size() {
			return ir.Errorf(ir.ErrSizeMismatch, "record element %d: cannot assign %s to %s",
				i, src[i].Describe(), r[i].Describe())
		}
	}
	for i := 0; i < n; i++ {
		if err := b.Assign(ir.Full(r[i]), ir.Full(src[i])); err != nil {
			return err
		}
	}
	return nil
}

// AssignProgram runs h inside b with the default composer. See
// Composer.AssignProgram.
func (r Record) AssignProgram(b *ir.Builder, h *Handle, args Record) error {
	return std.AssignProgram(r, b, h, args)
}

// AssignProgram inlines h into b at the current position: args feed h's free
// inputs in order and h's outputs are captured into r in order. h must not
// have stream bindings, must take exactly len(args) free inputs and must
// produce exactly len(r) outputs. Uniform bindings are resolved.
//
// The bridging programs are composed without optimization: their outputs are
// b's symbols and would otherwise be dead.
func (c *Composer) AssignProgram(r Record, b *ir.Builder, h *Handle, args Record) error {
	err := c.assignProgram(r, b, h, args)
	if err != nil {
		c.Metrics.UpdateCompositionTotal("assign_program", nil, err)
		c.debugf("assign_program failed: %v", err)
		return err
	}
	c.Metrics.UpdateCompositionTotal("assign_program", nil, nil)
	return nil
}

func (c *Composer) assignProgram(r Record, b *ir.Builder, h *Handle, args Record) error {
	if h == nil {
		return ir.Errorf(ir.ErrNullOperand, "assignment of a nil program")
	}
	if h.HasStreamBindings() {
		return ir.Errorf(ir.ErrUnsupportedBinding, "cannot assign %s: it has stream bindings", h)
	}
	free := h.FreeInputs()
	if len(free) != len(args) {
		return ir.Errorf(ir.ErrUnsupportedBinding, "cannot assign %s: %d free inputs, %d arguments",
			h, len(free), len(args))
	}
	outs := h.Outputs()
	if len(outs) != len(r) {
		return ir.Errorf(ir.ErrArity, "cannot assign %s: %d outputs, record has %d elements",
			h, len(outs), len(r))
	}
	for i, s := range free {
		if s.Size() != args[i].Size() {
			return ir.Errorf(ir.ErrSizeMismatch, "argument %d: cannot feed %s to %s", i, args[i].Describe(), s.Describe())
		}
	}
	for i, s := range outs {
		if s.Size() != r[i].Size() {
			return ir.Errorf(ir.ErrSizeMismatch, "record element %d: cannot capture %s into %s", i, s.Describe(), r[i].Describe())
		}
	}

	target := b.Target()
	feeder := ir.NewProgram(target)
	for i, s := range free {
		out := s.Clone(ir.KindOutput)
		feeder.Outputs = append(feeder.Outputs, out)
		blk := &feeder.CFG.Node(feeder.CFG.Entry).Block
		*blk = append(*blk, copyInstr(out, args[i]))
	}
	capture := ir.NewProgram(target)
	for i, s := range outs {
		in := s.Clone(ir.KindInput)
		capture.Inputs = append(capture.Inputs, in)
		blk := &capture.CFG.Node(capture.CFG.Entry).Block
		*blk = append(*blk, copyInstr(r[i], in))
	}

	raw := c.raw()
	fed, err := raw.connect(NewHandle(feeder), h)
	if err != nil {
		return err
	}
	whole, err := raw.connect(fed, NewHandle(capture))
	if err != nil {
		return err
	}
	p, err := whole.Resolve()
	if err != nil {
		return err
	}
	c.debugf("assign_program: inlining %s into %s", p, strings.Join(names(r), ", "))
	return b.Inline(p)
}

func names(r Record) []string {
	out := make([]string, len(r))
	for i, s := range r {
		out[i] = s.String()
	}
	return out
}
