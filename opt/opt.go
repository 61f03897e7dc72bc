// Package opt holds the cleanup passes run on composed programs.
//
// Composition leaves behind assignments whose results are never read (for
// instance the leftover outputs dropped by a manipulator) and chains of empty
// pass-through nodes created by prologue and epilogue insertion. The passes
// here remove both without changing the program interface.
package opt

import "github.com/gogpu/kernel/ir"

// Options selects passes.
type Options struct {
	// DeadCode removes instructions whose results never reach an output.
	DeadCode bool

	// Straighten merges nodes linked by a single unconditional edge.
	Straighten bool
}

// DefaultOptions returns the options used by composition.
func DefaultOptions() Options {
	return Options{
		DeadCode:   true,
		Straighten: true,
	}
}

// Stats reports what a run changed.
type Stats struct {
	RemovedInstructions int
	MergedNodes         int
	DroppedNodes        int
}

// Optimize runs the selected passes on p in place and compacts its CFG.
func Optimize(p *ir.Program, opts Options) Stats {
	var st Stats
	if opts.DeadCode {
		st.RemovedInstructions = DeadCodeEliminate(p)
	}
	if opts.Straighten {
		st.MergedNodes = Straighten(p.CFG)
	}
	before := p.CFG.Len()
	p.CFG.Compact()
	st.DroppedNodes = before - p.CFG.Len()
	p.Collect()
	return st
}
