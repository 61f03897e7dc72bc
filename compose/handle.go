package compose

import (
	"fmt"

	"github.com/gogpu/kernel/ir"
)

// BindingKind says how a curried input receives its value.
type BindingKind uint8

const (
	// BindUniform feeds the input from a uniform or constant.
	BindUniform BindingKind = iota
	// BindStream feeds the input from a stream resolved by the scheduler.
	BindStream
)

func (k BindingKind) String() string {
	switch k {
	case BindUniform:
		return "uniform"
	case BindStream:
		return "stream"
	default:
		return fmt.Sprintf("binding(%d)", uint8(k))
	}
}

// Binding curries one input of a program.
type Binding struct {
	Kind   BindingKind
	Source *ir.Symbol
}

// Handle is a shared reference to a program plus the bindings curried into
// its leading inputs: binding i feeds input i. Handles are never modified
// after construction; two handles may share a program with different
// bindings.
type Handle struct {
	prog     *ir.Program
	bindings []Binding
}

// NewHandle wraps p without bindings.
func NewHandle(p *ir.Program) *Handle {
	return &Handle{prog: p}
}

// Graph returns the wrapped program. It must be treated as read-only.
func (h *Handle) Graph() *ir.Program {
	return h.prog
}

// Target returns the program's target string.
func (h *Handle) Target() string {
	return h.prog.Target
}

// Bindings returns a copy of the curried bindings.
func (h *Handle) Bindings() []Binding {
	return append([]Binding(nil), h.bindings...)
}

// Curried returns the inputs fed by bindings.
func (h *Handle) Curried() []*ir.Symbol {
	return h.prog.Inputs[:len(h.bindings)]
}

// FreeInputs returns the inputs not fed by bindings, in order.
func (h *Handle) FreeInputs() []*ir.Symbol {
	return h.prog.Inputs[len(h.bindings):]
}

// FreeInputCount returns the number of free inputs.
func (h *Handle) FreeInputCount() int {
	return len(h.prog.Inputs) - len(h.bindings)
}

// Outputs returns the program outputs, in order.
func (h *Handle) Outputs() []*ir.Symbol {
	return h.prog.Outputs
}

// HasStreamBindings reports whether any binding is a stream.
func (h *Handle) HasStreamBindings() bool {
	for _, b := range h.bindings {
		if b.Kind == BindStream {
			return true
		}
	}
	return false
}

// StreamBound reports whether every input is curried and at least one of
// them is a stream, which is what the stream scheduler accepts.
func (h *Handle) StreamBound() bool {
	return h.FreeInputCount() == 0 && h.HasStreamBindings()
}

// Bind curries the next free inputs from sources. Uniform bindings take
// uniforms or constants, stream bindings take streams.
func (h *Handle) Bind(kind BindingKind, sources ...*ir.Symbol) (*Handle, error) {
	free := h.FreeInputs()
	if len(sources) > len(free) {
		return nil, ir.Errorf(ir.ErrRange, "cannot bind %d sources: only %d free inputs", len(sources), len(free))
	}
	out := &Handle{
		prog:     h.prog,
		bindings: make([]Binding, len(h.bindings), len(h.bindings)+len(sources)),
	}
	copy(out.bindings, h.bindings)
	for i, s := range sources {
		switch {
		case kind == BindUniform && (s.Kind() == ir.KindUniform || s.Kind() == ir.KindConst):
		case kind == BindStream && s.Kind() == ir.KindStream:
		default:
			return nil, ir.Errorf(ir.ErrUnsupportedBinding, "cannot bind %s as a %s", s.Describe(), kind)
		}
		if s.Size() != free[i].Size() {
			return nil, ir.Errorf(ir.ErrSizeMismatch, "cannot bind %s to input %s", s.Describe(), free[i].Describe())
		}
		out.bindings = append(out.bindings, Binding{Kind: kind, Source: s})
	}
	return out, nil
}

// Resolve returns a copy of the program in which every uniform binding is
// replaced by an assignment at entry, so the curried inputs disappear from
// the interface. Stream bindings cannot be resolved here.
func (h *Handle) Resolve() (*ir.Program, error) {
	p := h.prog.Clone()
	if len(h.bindings) == 0 {
		return p, nil
	}

	m := make(map[*ir.Symbol]*ir.Symbol, len(h.bindings))
	prologue := make(ir.Block, 0, len(h.bindings))
	for i, b := range h.bindings {
		if b.Kind != BindUniform {
			return nil, ir.Errorf(ir.ErrUnsupportedBinding, "input %s is bound to stream %s", p.Inputs[i], b.Source)
		}
		in := p.Inputs[i]
		kind := ir.KindTemp
		if in.IsInOut() {
			kind = ir.KindOutput
		}
		r := in.Clone(kind)
		m[in] = r
		a, err := ir.Assign(ir.Full(r), ir.Full(b.Source))
		if err != nil {
			return nil, err
		}
		prologue = append(prologue, a)
	}
	p.Inputs = append([]*ir.Symbol(nil), p.Inputs[len(h.bindings):]...)
	p.Substitute(m)
	p.CFG.Node(p.CFG.PrependEntry()).Block = prologue
	p.Collect()
	return p, nil
}

// String summarizes the handle.
func (h *Handle) String() string {
	return fmt.Sprintf("%s, %d bound", h.prog, len(h.bindings))
}
