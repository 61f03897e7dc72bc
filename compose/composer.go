// Package compose implements the program algebra: functional composition
// (Connect), parallel composition (Combine), name-based wiring, channel
// permutation and record assignment.
//
// Every operation works on clones. The graph structure of its operands is
// never touched, and symbols are only shared, never modified; a step that
// needs a different symbol allocates a fresh one. An operation either
// returns a complete handle or an error, never a partial graph.
package compose

import (
	"github.com/gogpu/kernel/ir"
	"github.com/gogpu/kernel/metrics"
	"github.com/gogpu/kernel/opt"
)

// Composer carries the options shared by composition operations.
type Composer struct {
	// Optimize runs opt.Optimize on every result.
	Optimize bool

	// OptOptions selects the passes run when Optimize is set.
	OptOptions opt.Options

	// Debug enables verbose logging through Logf.
	Debug bool

	// Logf receives warnings (target conflicts, skipped name matches) and,
	// with Debug, a line per operation. Nil discards.
	Logf func(format string, v ...interface{})

	// Metrics counts operations. Nil disables counting.
	Metrics *metrics.Metrics
}

// DefaultComposer returns a composer that optimizes results and counts
// operations on metrics.Default.
func DefaultComposer() *Composer {
	return &Composer{
		Optimize:   true,
		OptOptions: opt.DefaultOptions(),
		Metrics:    metrics.Default,
	}
}

var std = DefaultComposer()

// raw returns a copy of c that does not optimize, for intermediate steps
// whose results are composed further.
func (c *Composer) raw() *Composer {
	out := *c
	out.Optimize = false
	return &out
}

func (c *Composer) logf(format string, v ...interface{}) {
	if c.Logf != nil {
		c.Logf(format, v...)
	}
}

func (c *Composer) debugf(format string, v ...interface{}) {
	if c.Debug {
		c.logf(format, v...)
	}
}

// warnf records a soft diagnostic on p and logs it.
func (c *Composer) warnf(p *ir.Program, format string, v ...interface{}) {
	p.Warnf(format, v...)
	c.logf("warning: "+format, v...)
}

// finish collects the symbol lists of a freshly assembled program and
// optimizes it.
func (c *Composer) finish(p *ir.Program) {
	p.Collect()
	if c.Optimize {
		st := opt.Optimize(p, c.OptOptions)
		c.debugf("optimized %s: removed %d instructions, merged %d nodes", p, st.RemovedInstructions, st.MergedNodes)
	}
}

// observe counts an operation and passes its results through.
func (c *Composer) observe(op string, h *Handle, err error) (*Handle, error) {
	if err != nil {
		c.Metrics.UpdateCompositionTotal(op, nil, err)
		c.debugf("%s failed: %v", op, err)
		return nil, err
	}
	c.Metrics.UpdateCompositionTotal(op, h.prog, nil)
	c.debugf("%s: %s", op, h)
	return h, nil
}

// reconcileTarget picks the target of a composition of a and b. A conflict
// yields the empty target.
func reconcileTarget(a, b string) (string, bool) {
	switch {
	case a == "":
		return b, false
	case b == "" || a == b:
		return a, false
	default:
		return "", true
	}
}

func concat(lists ...[]*ir.Symbol) []*ir.Symbol {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]*ir.Symbol, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// operands clones a and b for assembly. b is cloned with fresh local symbols
// when it shares any with a, so the halves never alias.
func operands(a, b *Handle) (ap, bp *ir.Program) {
	ap = a.prog.Clone()
	if a.prog.SharesLocals(b.prog) {
		bp, _ = b.prog.CloneFresh()
	} else {
		bp = b.prog.Clone()
	}
	return ap, bp
}

// assemble builds the program shell shared by Connect and Combine: b's CFG
// appended to a's, resources unioned, diagnostics concatenated and the
// target reconciled.
func (c *Composer) assemble(ap, bp *ir.Program) *ir.Program {
	target, conflict := reconcileTarget(ap.Target, bp.Target)
	p := ir.NewProgram(target)
	p.CFG = ap.CFG
	p.CFG.Append(bp.CFG)
	p.Temps = ir.Dedup(concat(ap.Temps, bp.Temps))
	p.Constants = ir.Dedup(concat(ap.Constants, bp.Constants))
	p.Uniforms = ir.Dedup(concat(ap.Uniforms, bp.Uniforms))
	p.Textures = ir.Dedup(concat(ap.Textures, bp.Textures))
	p.Diagnostics = append(append([]string(nil), ap.Diagnostics...), bp.Diagnostics...)
	if conflict {
		c.warnf(p, "target conflict: %q vs %q, result has no target", ap.Target, bp.Target)
	}
	return p
}

func concatBindings(a, b *Handle) []Binding {
	out := make([]Binding, 0, len(a.bindings)+len(b.bindings))
	out = append(out, a.bindings...)
	return append(out, b.bindings...)
}
