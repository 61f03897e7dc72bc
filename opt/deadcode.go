package opt

import (
	mapset "github.com/deckarep/golang-set"

	"github.com/gogpu/kernel/ir"
)

// DeadCodeEliminate removes instructions whose destination is not live.
// Liveness is tracked per symbol: outputs are live at the exit, branch
// conditions are live after their node's block, and only writes covering
// every element of a symbol end its live range. Instructions with side
// effects are always kept. Returns the number of removed instructions.
//
// Removal can expose more dead code, so the analysis is repeated until
// nothing changes.
func DeadCodeEliminate(p *ir.Program) int {
	removed := 0
	for {
		liveOut := liveness(p)
		n := sweep(p, liveOut)
		if n == 0 {
			return removed
		}
		removed += n
	}
}

// liveness computes the live-out set of every reachable node.
func liveness(p *ir.Program) []mapset.Set {
	c := p.CFG
	order := c.Reachable()
	liveIn := make([]mapset.Set, c.Len())
	liveOut := make([]mapset.Set, c.Len())
	for _, h := range order {
		liveIn[h] = mapset.NewThreadUnsafeSet()
	}

	for changed := true; changed; {
		changed = false
		// backward problem: visit nodes in reverse walk order
		for i := len(order) - 1; i >= 0; i-- {
			h := order[i]
			n := c.Node(h)

			out := exitSet(p, h)
			for _, s := range n.Successors() {
				if liveIn[s] != nil {
					out = out.Union(liveIn[s])
				}
			}
			for _, b := range n.Branches {
				out.Add(b.Cond.Sym)
			}
			liveOut[h] = out

			in := out.Clone()
			for j := len(n.Block) - 1; j >= 0; j-- {
				transfer(in, n.Block[j])
			}
			if !in.Equal(liveIn[h]) {
				liveIn[h] = in
				changed = true
			}
		}
	}
	return liveOut
}

func exitSet(p *ir.Program, h ir.NodeHandle) mapset.Set {
	s := mapset.NewThreadUnsafeSet()
	if h == p.CFG.Exit {
		for _, o := range p.Outputs {
			s.Add(o)
		}
	}
	return s
}

// transfer moves live backwards over one instruction.
func transfer(live mapset.Set, in ir.Instruction) {
	if !in.Dst.IsZero() && in.Dst.Covers() {
		live.Remove(in.Dst.Sym)
	}
	for _, v := range in.Sources() {
		live.Add(v.Sym)
	}
}

func isDead(live mapset.Set, in ir.Instruction) bool {
	if in.Op == ir.OpNop {
		return true
	}
	if in.Op.Info().SideEffect || in.Dst.IsZero() {
		return false
	}
	return !live.Contains(in.Dst.Sym)
}

// sweep drops dead instructions given the live-out sets.
func sweep(p *ir.Program, liveOut []mapset.Set) int {
	removed := 0
	c := p.CFG
	for _, h := range c.Reachable() {
		n := c.Node(h)
		live := liveOut[h].Clone()
		keep := make([]bool, len(n.Block))
		for j := len(n.Block) - 1; j >= 0; j-- {
			in := n.Block[j]
			if isDead(live, in) {
				removed++
				continue
			}
			keep[j] = true
			transfer(live, in)
		}
		out := n.Block[:0]
		for j, in := range n.Block {
			if keep[j] {
				out = append(out, in)
			}
		}
		n.Block = out
	}
	return removed
}
