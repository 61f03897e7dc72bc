package opt

import "github.com/gogpu/kernel/ir"

// Straighten merges a node into its predecessor when the predecessor falls
// through to it without branching and it has no other predecessor. The entry
// is never merged away; when the exit is merged its predecessor becomes the
// exit. Merged nodes are left unreachable for Compact. Returns the number of
// merges.
func Straighten(c *ir.CFG) int {
	merged := 0
	for {
		preds := c.Predecessors()
		n := 0
		for _, h := range c.Reachable() {
			a := c.Node(h)
			for len(a.Branches) == 0 && a.Follower != ir.NoNode {
				next := a.Follower
				if next == h || next == c.Entry || len(preds[next]) != 1 {
					break
				}
				b := c.Node(next)
				a.Block = append(a.Block, b.Block...)
				a.Branches = b.Branches
				a.Follower = b.Follower
				b.Block = nil
				b.Branches = nil
				b.Follower = ir.NoNode
				if next == c.Exit {
					c.Exit = h
				}
				n++
			}
		}
		if n == 0 {
			return merged
		}
		merged += n
	}
}
