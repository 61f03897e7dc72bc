package compose

import (
	"github.com/gogpu/kernel/ir"
)

// match pairs outputs with free inputs by name and size.
type match struct {
	inputFor []int  // per output of a: matched free input of b, or -1
	matched  []bool // per free input of b
	warnings []string
}

// matchNames scans, for every output in order, the free inputs in order for
// the first unmatched one with the same name. An equal name with a different
// size is reported and skipped, and the scan goes on.
func matchNames(outs, ins []*ir.Symbol) match {
	m := match{
		inputFor: make([]int, len(outs)),
		matched:  make([]bool, len(ins)),
	}
	for i, o := range outs {
		m.inputFor[i] = -1
		for j, in := range ins {
			if m.matched[j] || in.Name() != o.Name() {
				continue
			}
			if in.Size() != o.Size() {
				m.warnings = append(m.warnings, "output "+o.Describe()+" not connected to input "+in.Describe()+": sizes differ")
				continue
			}
			m.matched[j] = true
			m.inputFor[i] = j
			break
		}
	}
	return m
}

// NamedConnect connects a to b by matching each output of a with the first
// unmatched free input of b that has the same name and size. Free inputs of
// b left unmatched stay inputs of the result, after a's inputs. Unmatched
// outputs of a are dropped unless keepExtra is set, in which case they follow
// b's outputs. Equal names with different sizes are not connected; they only
// produce a diagnostic. The result goes through MergeNames.
func (c *Composer) NamedConnect(a, b *Handle, keepExtra bool) (*Handle, error) {
	h, err := c.namedConnect(a, b, keepExtra)
	return c.observe("named_connect", h, err)
}

func (c *Composer) namedConnect(a, b *Handle, keepExtra bool) (*Handle, error) {
	switch {
	case a == nil && b == nil:
		return nil, ir.Errorf(ir.ErrNullOperand, "named connect of two nil programs")
	case a == nil:
		return c.mergeNames(b)
	case b == nil:
		return c.mergeNames(a)
	}

	outs := a.Outputs()
	free := b.FreeInputs()
	m := matchNames(outs, free)
	for _, w := range m.warnings {
		c.logf("warning: %s", w)
	}

	var unmatched []*ir.Symbol
	for j, ok := range m.matched {
		if !ok {
			unmatched = append(unmatched, free[j])
		}
	}

	r := c.raw()
	wide, err := r.combine(a, PassThrough(unmatched...))
	if err != nil {
		return nil, err
	}

	// arrange wide's outputs in b's free-input order
	outputFor := make([]int, len(free))
	for i, j := range m.inputFor {
		if j >= 0 {
			outputFor[j] = i
		}
	}
	idx := make([]int, 0, len(free)+len(outs))
	k := 0
	for j, ok := range m.matched {
		if ok {
			idx = append(idx, outputFor[j])
		} else {
			idx = append(idx, len(outs)+k)
			k++
		}
	}
	if keepExtra {
		for i, j := range m.inputFor {
			if j < 0 {
				idx = append(idx, i)
			}
		}
	}

	arranged, err := r.permuteOutputs(wide, idx)
	if err != nil {
		return nil, err
	}
	joined, err := r.connect(arranged, b)
	if err != nil {
		return nil, err
	}
	for _, w := range m.warnings {
		joined.prog.Warnf("%s", w)
	}
	return c.mergeNames(joined)
}

// NamedCombine combines a and b, then merges free inputs that share a name
// and size.
func (c *Composer) NamedCombine(a, b *Handle) (*Handle, error) {
	h, err := c.namedCombine(a, b)
	return c.observe("named_combine", h, err)
}

func (c *Composer) namedCombine(a, b *Handle) (*Handle, error) {
	h, err := c.raw().combine(a, b)
	if err != nil {
		return nil, err
	}
	return c.mergeNames(h)
}

// MergeNames collapses free inputs with equal name and size into one input
// fanned out to every former position. Groups keep the order of their first
// member. A handle without such duplicates is returned as is.
func (c *Composer) MergeNames(h *Handle) (*Handle, error) {
	out, err := c.mergeNames(h)
	return c.observe("merge_names", out, err)
}

type nameKey struct {
	name string
	size int
}

func (c *Composer) mergeNames(h *Handle) (*Handle, error) {
	if h == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "merge names of a nil program")
	}
	free := h.FreeInputs()

	var keys []nameKey
	groups := make(map[nameKey][]int)
	for i, s := range free {
		k := nameKey{s.Name(), s.Size()}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	if len(keys) == len(free) {
		if c.Optimize {
			return c.optimized(h), nil
		}
		return h, nil
	}

	r := c.raw()
	order := make([]int, 0, len(free))
	var feeder *Handle
	for _, k := range keys {
		g := groups[k]
		order = append(order, g...)
		var piece *Handle
		if len(g) > 1 {
			piece = FanOut(free[g[0]], len(g))
		} else {
			piece = PassThrough(free[g[0]])
		}
		var err error
		if feeder, err = r.combine(feeder, piece); err != nil {
			return nil, err
		}
	}

	grouped, err := r.permuteInputs(h, order)
	if err != nil {
		return nil, err
	}
	return c.connect(feeder, grouped)
}

// optimized returns h with an optimized copy of its program.
func (c *Composer) optimized(h *Handle) *Handle {
	p := h.prog.Clone()
	c.finish(p)
	return &Handle{prog: p, bindings: h.bindings}
}
