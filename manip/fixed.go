package manip

import (
	"fmt"
	"strings"

	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/ir"
)

// Fixed is a manipulator over a known number of channels. Each method
// consumes variables of vars starting at cursor and returns the program that
// handles them plus the advanced cursor. Programs are combined on c.
//
// Inputs builds a program placed in front of a program whose free inputs are
// vars: its outputs feed the consumed inputs. Outputs builds a program placed
// behind a program whose outputs are vars: its inputs read the consumed
// outputs.
type Fixed interface {
	Inputs(c *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error)
	Outputs(c *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error)
	String() string
}

func take(vars []*ir.Symbol, cursor, n int, what string) ([]*ir.Symbol, error) {
	if n < 0 {
		return nil, ir.Errorf(ir.ErrRange, "%s: negative channel count %d", what, n)
	}
	if cursor+n > len(vars) {
		return nil, ir.Errorf(ir.ErrCursorOverrun, "%s: needs %d channels at %d, only %d remain",
			what, n, cursor, len(vars)-cursor)
	}
	return vars[cursor : cursor+n], nil
}

type keep int

// Keep passes n channels through unchanged.
func Keep(n int) Fixed { return keep(n) }

func (k keep) String() string { return fmt.Sprintf("keep(%d)", int(k)) }

func (k keep) Inputs(_ *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	return k.apply(vars, cursor)
}

func (k keep) Outputs(_ *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	return k.apply(vars, cursor)
}

func (k keep) apply(vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	ch, err := take(vars, cursor, int(k), k.String())
	if err != nil {
		return nil, cursor, err
	}
	return compose.PassThrough(ch...), cursor + len(ch), nil
}

type lose int

// Lose discards n channels: inputs are left unfed and outputs are dropped.
func Lose(n int) Fixed { return lose(n) }

func (l lose) String() string { return fmt.Sprintf("lose(%d)", int(l)) }

func (l lose) Inputs(_ *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	ch, err := take(vars, cursor, int(l), l.String())
	if err != nil {
		return nil, cursor, err
	}
	return compose.Source(ch...), cursor + len(ch), nil
}

func (l lose) Outputs(_ *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	ch, err := take(vars, cursor, int(l), l.String())
	if err != nil {
		return nil, cursor, err
	}
	return compose.Sink(ch...), cursor + len(ch), nil
}

type dup int

// Dup reads one channel and writes n copies of it. Applied to inputs, the n
// inputs fed must all have the size of the first.
func Dup(n int) Fixed { return dup(n) }

func (d dup) String() string { return fmt.Sprintf("dup(%d)", int(d)) }

func (d dup) Inputs(_ *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	ch, err := take(vars, cursor, int(d), d.String())
	if err != nil {
		return nil, cursor, err
	}
	if len(ch) == 0 {
		return compose.PassThrough(), cursor, nil
	}
	for _, s := range ch[1:] {
		if s.Size() != ch[0].Size() {
			return nil, cursor, ir.Errorf(ir.ErrSizeMismatch, "%s: cannot feed %s from %s", d, s.Describe(), ch[0].Describe())
		}
	}
	return compose.FanOut(ch[0], len(ch)), cursor + len(ch), nil
}

func (d dup) Outputs(_ *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	ch, err := take(vars, cursor, 1, d.String())
	if err != nil {
		return nil, cursor, err
	}
	return compose.FanOut(ch[0], int(d)), cursor + 1, nil
}

type wrap struct {
	h *compose.Handle
}

// Wrap embeds a program. Applied to inputs it covers as many channels as the
// program has outputs; applied to outputs, as many as it has free inputs.
func Wrap(h *compose.Handle) Fixed { return wrap{h} }

func (w wrap) String() string { return fmt.Sprintf("wrap(%s)", w.h) }

func (w wrap) Inputs(_ *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	ch, err := take(vars, cursor, len(w.h.Outputs()), w.String())
	if err != nil {
		return nil, cursor, err
	}
	return w.h, cursor + len(ch), nil
}

func (w wrap) Outputs(_ *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	ch, err := take(vars, cursor, w.h.FreeInputCount(), w.String())
	if err != nil {
		return nil, cursor, err
	}
	return w.h, cursor + len(ch), nil
}

type tree []Fixed

// Tree runs its children one after the other on the same cursor and
// combines their programs, m & n.
func Tree(children ...Fixed) Fixed {
	return tree(append([]Fixed(nil), children...))
}

// And is Tree(m, n).
func And(m, n Fixed) Fixed {
	return Tree(m, n)
}

func (t tree) String() string {
	parts := make([]string, len(t))
	for i, f := range t {
		parts[i] = f.String()
	}
	return strings.Join(parts, " & ")
}

func (t tree) Inputs(c *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	return t.apply(c, vars, cursor, Fixed.Inputs)
}

func (t tree) Outputs(c *compose.Composer, vars []*ir.Symbol, cursor int) (*compose.Handle, int, error) {
	return t.apply(c, vars, cursor, Fixed.Outputs)
}

func (t tree) apply(c *compose.Composer, vars []*ir.Symbol, cursor int,
	fn func(Fixed, *compose.Composer, []*ir.Symbol, int) (*compose.Handle, int, error)) (*compose.Handle, int, error) {
	out := compose.PassThrough()
	for _, f := range t {
		h, next, err := fn(f, c, vars, cursor)
		if err != nil {
			return nil, cursor, err
		}
		if out, err = c.Combine(out, h); err != nil {
			return nil, cursor, err
		}
		cursor = next
	}
	return out, cursor, nil
}

// FixedToInputs connects the program built by f in front of h. Free inputs
// of h beyond those f covers stay free inputs of the result.
func FixedToInputs(h *compose.Handle, f Fixed) (*compose.Handle, error) {
	return FixedToInputsWith(compose.Default(), h, f)
}

// FixedToInputsWith is FixedToInputs on a given composer.
func FixedToInputsWith(c *compose.Composer, h *compose.Handle, f Fixed) (*compose.Handle, error) {
	if h == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "manipulation of a nil program")
	}
	front, _, err := f.Inputs(c, h.FreeInputs(), 0)
	if err != nil {
		return nil, err
	}
	return c.Connect(front, h)
}

// FixedToOutputs connects the program built by f behind h. Outputs of h
// beyond those f covers follow the outputs of f.
func FixedToOutputs(f Fixed, h *compose.Handle) (*compose.Handle, error) {
	return FixedToOutputsWith(compose.Default(), f, h)
}

// FixedToOutputsWith is FixedToOutputs on a given composer.
func FixedToOutputsWith(c *compose.Composer, f Fixed, h *compose.Handle) (*compose.Handle, error) {
	if h == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "manipulation of a nil program")
	}
	back, _, err := f.Outputs(c, h.Outputs(), 0)
	if err != nil {
		return nil, err
	}
	return c.Connect(h, back)
}
