package compose

import (
	"github.com/gogpu/kernel/ir"
)

// RenameInput returns h with every input named old replaced by a fresh symbol
// named repl. An InOut input is renamed on the output side too. Renaming a
// name that does not occur is not an error.
func (c *Composer) RenameInput(h *Handle, old, repl string) (*Handle, error) {
	if h == nil {
		return c.observe("rename_input", nil, ir.Errorf(ir.ErrNullOperand, "rename of a nil program"))
	}
	return c.observe("rename_input", c.rename(h, h.prog.Inputs, old, repl), nil)
}

// RenameOutput is RenameInput for outputs.
func (c *Composer) RenameOutput(h *Handle, old, repl string) (*Handle, error) {
	if h == nil {
		return c.observe("rename_output", nil, ir.Errorf(ir.ErrNullOperand, "rename of a nil program"))
	}
	return c.observe("rename_output", c.rename(h, h.prog.Outputs, old, repl), nil)
}

func (c *Composer) rename(h *Handle, list []*ir.Symbol, old, repl string) *Handle {
	m := make(map[*ir.Symbol]*ir.Symbol)
	for _, s := range list {
		if s.Name() == old {
			m[s] = s.Renamed(repl)
		}
	}
	if len(m) == 0 {
		c.debugf("rename: no symbol named %q in %s", old, h.prog)
		return h
	}
	p := h.prog.Clone()
	p.Substitute(m)
	return &Handle{prog: p, bindings: h.bindings}
}

// ReplaceVariable returns h with every use of old, in code and in the symbol
// lists, replaced by repl. Both must have the same size.
func (c *Composer) ReplaceVariable(h *Handle, old, repl *ir.Symbol) (*Handle, error) {
	out, err := c.replaceVariable(h, old, repl)
	return c.observe("replace_variable", out, err)
}

func (c *Composer) replaceVariable(h *Handle, old, repl *ir.Symbol) (*Handle, error) {
	if h == nil || old == nil || repl == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "replace variable with a nil operand")
	}
	if old.Size() != repl.Size() {
		return nil, ir.Errorf(ir.ErrSizeMismatch, "cannot replace %s with %s", old.Describe(), repl.Describe())
	}
	p := h.prog.Clone()
	p.Substitute(map[*ir.Symbol]*ir.Symbol{old: repl})
	p.Collect()
	return &Handle{prog: p, bindings: h.bindings}, nil
}
