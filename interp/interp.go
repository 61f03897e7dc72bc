// Package interp evaluates programs on float64 vectors. It is a reference
// for testing composition, not a backend: every element is a float64,
// whatever the declared scalar type, and textures cannot be sampled.
package interp

import (
	"math"

	"github.com/gogpu/kernel/internal/errwrap"
	"github.com/gogpu/kernel/ir"
	"github.com/pkg/errors"
)

var (
	// ErrStepLimit is returned when a run visits more nodes than allowed.
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrUnsupported is returned for instructions the evaluator cannot run.
	ErrUnsupported = errors.New("unsupported instruction")
)

// Options configures a run.
type Options struct {
	// MaxSteps bounds the number of nodes visited. Zero means no bound.
	MaxSteps int

	// Uniforms overrides uniform values by name.
	Uniforms map[string][]float64
}

// DefaultOptions returns options suited to tests.
func DefaultOptions() Options {
	return Options{MaxSteps: 1 << 16}
}

// Result is the outcome of a run.
type Result struct {
	// Outputs holds one vector per program output.
	Outputs [][]float64

	// Killed is set when a kil instruction discarded the fragment. Outputs
	// are those at the point of the discard.
	Killed bool

	// Steps counts visited nodes.
	Steps int
}

// Machine holds the values of every symbol during a run.
type Machine struct {
	prog   *ir.Program
	opts   Options
	values map[*ir.Symbol][]float64
}

// New prepares a machine for p.
func New(p *ir.Program, opts Options) *Machine {
	return &Machine{
		prog:   p,
		opts:   opts,
		values: make(map[*ir.Symbol][]float64),
	}
}

// Run evaluates p with the given input vectors, one per input in order.
func Run(p *ir.Program, inputs [][]float64, opts Options) (*Result, error) {
	return New(p, opts).Run(inputs)
}

// Run evaluates the program from its entry to its exit.
func (m *Machine) Run(inputs [][]float64) (*Result, error) {
	p := m.prog
	if len(inputs) != len(p.Inputs) {
		return nil, errors.Errorf("program has %d inputs, got %d values", len(p.Inputs), len(inputs))
	}
	for i, s := range p.Inputs {
		if len(inputs[i]) != s.Size() {
			return nil, errors.Errorf("input %s has %d elements, got %d", s, s.Size(), len(inputs[i]))
		}
		m.values[s] = append([]float64(nil), inputs[i]...)
	}

	res := &Result{}
	c := p.CFG
	h := c.Entry
	for {
		res.Steps++
		if m.opts.MaxSteps > 0 && res.Steps > m.opts.MaxSteps {
			return nil, errors.Wrapf(ErrStepLimit, "after %d nodes", m.opts.MaxSteps)
		}
		n := c.Node(h)
		for i, in := range n.Block {
			killed, err := m.exec(in)
			if err != nil {
				return nil, errwrap.Wrapf(err, "node %d, instruction %d (%s)", h, i, in)
			}
			if killed {
				res.Killed = true
				res.Outputs = m.outputs()
				return res, nil
			}
		}
		if h == c.Exit {
			break
		}
		next := n.Follower
		for _, b := range n.Branches {
			if m.read(b.Cond)[0] > 0 {
				next = b.Target
				break
			}
		}
		if next == ir.NoNode {
			return nil, errors.Errorf("node %d has no successor", h)
		}
		h = next
	}
	res.Outputs = m.outputs()
	return res, nil
}

// Value returns the current value of s.
func (m *Machine) Value(s *ir.Symbol) []float64 {
	return append([]float64(nil), m.storage(s)...)
}

func (m *Machine) outputs() [][]float64 {
	out := make([][]float64, len(m.prog.Outputs))
	for i, s := range m.prog.Outputs {
		out[i] = m.Value(s)
	}
	return out
}

// storage returns the backing vector of s, initialising it on first use.
func (m *Machine) storage(s *ir.Symbol) []float64 {
	if v, ok := m.values[s]; ok {
		return v
	}
	v := make([]float64, s.Size())
	if s.Kind() == ir.KindUniform {
		if u, ok := m.opts.Uniforms[s.Name()]; ok {
			copy(v, u)
		} else {
			copy(v, s.Value())
		}
	} else if s.HasValue() {
		copy(v, s.Value())
	}
	m.values[s] = v
	return v
}

func (m *Machine) read(v ir.View) []float64 {
	src := m.storage(v.Sym)
	out := make([]float64, v.Size())
	for i := range out {
		out[i] = src[v.Index(i)]
		if v.Neg {
			out[i] = -out[i]
		}
	}
	return out
}

func (m *Machine) write(v ir.View, r []float64) {
	dst := m.storage(v.Sym)
	for i, x := range r {
		dst[v.Index(i)] = x
	}
}

// exec runs one instruction and reports whether it discarded the fragment.
func (m *Machine) exec(in ir.Instruction) (bool, error) {
	info := in.Op.Info()
	switch in.Op {
	case ir.OpNop:
		return false, nil
	case ir.OpKil:
		for _, x := range m.read(in.Src[0]) {
			if x < 0 {
				return true, nil
			}
		}
		return false, nil
	case ir.OpTex:
		return false, errors.Wrapf(ErrUnsupported, "cannot sample %s", in.Src[0].Sym)
	}

	srcs := make([][]float64, info.Arity)
	for i := range srcs {
		srcs[i] = m.read(in.Src[i])
	}

	var r []float64
	switch info.Rule {
	case ir.RuleElementwise:
		f, ok := elementwise[in.Op]
		if !ok {
			return false, errors.Wrapf(ErrUnsupported, "opcode %s", in.Op)
		}
		r = make([]float64, in.Dst.Size())
		args := make([]float64, len(srcs))
		for i := range r {
			for k, s := range srcs {
				args[k] = s[0]
				if len(s) > 1 {
					args[k] = s[i]
				}
			}
			r[i] = f(args)
		}
	case ir.RuleDot:
		r = []float64{dot(srcs[0], srcs[1])}
	case ir.RuleCross:
		a, b := srcs[0], srcs[1]
		r = []float64{
			a[1]*b[2] - a[2]*b[1],
			a[2]*b[0] - a[0]*b[2],
			a[0]*b[1] - a[1]*b[0],
		}
	case ir.RuleNorm:
		l := math.Sqrt(dot(srcs[0], srcs[0]))
		r = make([]float64, len(srcs[0]))
		for i, x := range srcs[0] {
			r[i] = x / l
		}
	default:
		return false, errors.Wrapf(ErrUnsupported, "opcode %s", in.Op)
	}
	m.write(in.Dst, r)
	return false, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var elementwise = map[ir.Op]func(a []float64) float64{
	ir.OpAsn:  func(a []float64) float64 { return a[0] },
	ir.OpAdd:  func(a []float64) float64 { return a[0] + a[1] },
	ir.OpMul:  func(a []float64) float64 { return a[0] * a[1] },
	ir.OpDiv:  func(a []float64) float64 { return a[0] / a[1] },
	ir.OpMod:  func(a []float64) float64 { return math.Mod(a[0], a[1]) },
	ir.OpMin:  func(a []float64) float64 { return math.Min(a[0], a[1]) },
	ir.OpMax:  func(a []float64) float64 { return math.Max(a[0], a[1]) },
	ir.OpPow:  func(a []float64) float64 { return math.Pow(a[0], a[1]) },
	ir.OpSlt:  func(a []float64) float64 { return b2f(a[0] < a[1]) },
	ir.OpSle:  func(a []float64) float64 { return b2f(a[0] <= a[1]) },
	ir.OpSgt:  func(a []float64) float64 { return b2f(a[0] > a[1]) },
	ir.OpSge:  func(a []float64) float64 { return b2f(a[0] >= a[1]) },
	ir.OpSeq:  func(a []float64) float64 { return b2f(a[0] == a[1]) },
	ir.OpSne:  func(a []float64) float64 { return b2f(a[0] != a[1]) },
	ir.OpAbs:  func(a []float64) float64 { return math.Abs(a[0]) },
	ir.OpCeil: func(a []float64) float64 { return math.Ceil(a[0]) },
	ir.OpFlr:  func(a []float64) float64 { return math.Floor(a[0]) },
	ir.OpFrac: func(a []float64) float64 { return a[0] - math.Floor(a[0]) },
	ir.OpExp:  func(a []float64) float64 { return math.Exp(a[0]) },
	ir.OpLog:  func(a []float64) float64 { return math.Log(a[0]) },
	ir.OpSqrt: func(a []float64) float64 { return math.Sqrt(a[0]) },
	ir.OpRsq:  func(a []float64) float64 { return 1 / math.Sqrt(a[0]) },
	ir.OpRcp:  func(a []float64) float64 { return 1 / a[0] },
	ir.OpSin:  func(a []float64) float64 { return math.Sin(a[0]) },
	ir.OpCos:  func(a []float64) float64 { return math.Cos(a[0]) },
	ir.OpTan:  func(a []float64) float64 { return math.Tan(a[0]) },
	ir.OpSgn:  func(a []float64) float64 { return sgn(a[0]) },
	ir.OpMad:  func(a []float64) float64 { return a[0]*a[1] + a[2] },
	ir.OpLrp:  func(a []float64) float64 { return a[0]*a[1] + (1-a[0])*a[2] },
	ir.OpCond: func(a []float64) float64 { return cond(a[0], a[1], a[2]) },
}

func sgn(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// cond selects a when c is greater than zero.
func cond(c, a, b float64) float64 {
	if c > 0 {
		return a
	}
	return b
}
