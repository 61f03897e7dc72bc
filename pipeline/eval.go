package pipeline

import (
	"fmt"

	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/ir"
	"github.com/gogpu/kernel/kasm"
	"github.com/gogpu/kernel/manip"
)

// Evaluator turns expressions into handles. Kernel handles are shared by
// every expression evaluated against them and are never modified.
type Evaluator struct {
	Composer *compose.Composer
	Kernels  map[string]*compose.Handle
}

// Eval evaluates x. Calls accept:
//
//	swizzle(e, ch...)      reorder, drop or repeat the outputs of e
//	inputs(e, ch...)       reorder, drop or repeat the free inputs of e
//	in(e, f...)            fixed manipulators in front of e
//	out(e, f...)           fixed manipulators behind e
//	rename_in(e, old, new) rename a free input of e
//	rename_out(e, old, new)
//	merge(e)               merge free inputs of e that share a name
//	named(a, b)            connect by name, keeping unmatched outputs of a
//
// Channels are indices (negative ones count from the end) or names. Fixed
// manipulators are keep(n), lose(n), dup(n) and wrap(e).
func (ev *Evaluator) Eval(x Expr) (*compose.Handle, error) {
	c := ev.Composer
	if c == nil {
		c = compose.Default()
	}

	switch x := x.(type) {
	case Ref:
		h, ok := ev.Kernels[x.Name]
		if !ok {
			return nil, fmt.Errorf("unknown kernel %s", x.Name)
		}
		return h, nil
	case Binary:
		a, err := ev.Eval(x.Left)
		if err != nil {
			return nil, err
		}
		b, err := ev.Eval(x.Right)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case kasm.TokenGreaterGreater:
			return c.Connect(a, b)
		case kasm.TokenLessLess:
			return c.After(a, b)
		case kasm.TokenAmpersand:
			return c.Combine(a, b)
		case kasm.TokenTildeGreater:
			return c.NamedConnect(a, b, false)
		case kasm.TokenTildeAmp:
			return c.NamedCombine(a, b)
		}
		return nil, fmt.Errorf("unsupported operator %s", x.Op)
	case Call:
		return ev.call(c, x)
	case Number, Str:
		return nil, fmt.Errorf("%s is not a kernel", x)
	}
	return nil, fmt.Errorf("unsupported expression %T", x)
}

func (ev *Evaluator) call(c *compose.Composer, x Call) (*compose.Handle, error) {
	switch x.Name {
	case "keep", "lose", "dup", "wrap":
		return nil, fmt.Errorf("%s is a fixed manipulator and needs in() or out()", x)
	case "named":
		if len(x.Args) != 2 {
			return nil, ir.Errorf(ir.ErrArity, "named takes 2 arguments, got %d", len(x.Args))
		}
		a, err := ev.Eval(x.Args[0])
		if err != nil {
			return nil, err
		}
		b, err := ev.Eval(x.Args[1])
		if err != nil {
			return nil, err
		}
		return c.NamedConnect(a, b, true)
	}

	if len(x.Args) == 0 {
		return nil, ir.Errorf(ir.ErrArity, "%s needs a program argument", x.Name)
	}
	h, err := ev.Eval(x.Args[0])
	if err != nil {
		return nil, err
	}
	args := x.Args[1:]

	switch x.Name {
	case "swizzle", "inputs":
		m, err := manipulator(args)
		if err != nil {
			return nil, err
		}
		if x.Name == "inputs" {
			return manip.ApplyToInputsWith(c, h, m)
		}
		return manip.ApplyToOutputsWith(c, m, h)
	case "in", "out":
		f, err := ev.fixed(args)
		if err != nil {
			return nil, err
		}
		if x.Name == "in" {
			return manip.FixedToInputsWith(c, h, f)
		}
		return manip.FixedToOutputsWith(c, f, h)
	case "rename_in", "rename_out":
		if len(args) != 2 {
			return nil, ir.Errorf(ir.ErrArity, "%s takes 3 arguments, got %d", x.Name, len(x.Args))
		}
		old, err := name(args[0])
		if err != nil {
			return nil, err
		}
		repl, err := name(args[1])
		if err != nil {
			return nil, err
		}
		if x.Name == "rename_in" {
			return c.RenameInput(h, old, repl)
		}
		return c.RenameOutput(h, old, repl)
	case "merge":
		if len(args) != 0 {
			return nil, ir.Errorf(ir.ErrArity, "merge takes 1 argument, got %d", len(x.Args))
		}
		return c.MergeNames(h)
	}
	return nil, fmt.Errorf("unknown operation %s", x.Name)
}

func name(x Expr) (string, error) {
	switch x := x.(type) {
	case Ref:
		return x.Name, nil
	case Str:
		return x.Value, nil
	}
	return "", fmt.Errorf("expected a channel name, got %s", x)
}

func manipulator(args []Expr) (manip.Manipulator, error) {
	var m manip.Manipulator
	for _, a := range args {
		var idx manip.Index
		if n, ok := a.(Number); ok {
			idx = manip.Absolute(n.Value)
		} else {
			s, err := name(a)
			if err != nil {
				return nil, err
			}
			idx = manip.Named(s, 0)
		}
		m = m.Append(idx, idx)
	}
	return m, nil
}

func (ev *Evaluator) fixed(args []Expr) (manip.Fixed, error) {
	children := make([]manip.Fixed, 0, len(args))
	for _, a := range args {
		call, ok := a.(Call)
		if !ok {
			return nil, fmt.Errorf("expected a fixed manipulator, got %s", a)
		}
		if len(call.Args) != 1 {
			return nil, ir.Errorf(ir.ErrArity, "%s takes 1 argument, got %d", call.Name, len(call.Args))
		}
		if call.Name == "wrap" {
			h, err := ev.Eval(call.Args[0])
			if err != nil {
				return nil, err
			}
			children = append(children, manip.Wrap(h))
			continue
		}
		n, ok := call.Args[0].(Number)
		if !ok || n.Value < 0 {
			return nil, ir.Errorf(ir.ErrRange, "%s needs a non-negative count, got %s", call.Name, call.Args[0])
		}
		switch call.Name {
		case "keep":
			children = append(children, manip.Keep(n.Value))
		case "lose":
			children = append(children, manip.Lose(n.Value))
		case "dup":
			children = append(children, manip.Dup(n.Value))
		default:
			return nil, fmt.Errorf("unknown fixed manipulator %s", call.Name)
		}
	}
	return manip.Tree(children...), nil
}
