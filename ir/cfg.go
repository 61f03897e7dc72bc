package ir

import "fmt"

// NodeHandle addresses a node in a CFG arena.
type NodeHandle uint32

// NoNode marks a missing follower.
const NoNode NodeHandle = ^NodeHandle(0)

// Branch is a conditional edge, taken when the first element of Cond is
// greater than zero.
type Branch struct {
	Cond   View
	Target NodeHandle
}

// Node is a basic block with its outgoing edges. Branches are tried in order
// after the block runs; if none is taken control moves to Follower.
type Node struct {
	Block    Block
	Branches []Branch
	Follower NodeHandle
}

// Successors returns branch targets followed by the follower.
func (n *Node) Successors() []NodeHandle {
	out := make([]NodeHandle, 0, len(n.Branches)+1)
	for _, b := range n.Branches {
		out = append(out, b.Target)
	}
	if n.Follower != NoNode {
		out = append(out, n.Follower)
	}
	return out
}

// CFG is an arena of nodes with one entry and one exit. Unreachable nodes may
// linger in the arena until Compact.
type CFG struct {
	Nodes []Node
	Entry NodeHandle
	Exit  NodeHandle
}

// NewCFG returns the two-node graph entry -> exit.
func NewCFG() *CFG {
	c := &CFG{Nodes: make([]Node, 0, 4)}
	c.Entry = c.NewNode()
	c.Exit = c.NewNode()
	c.Nodes[c.Entry].Follower = c.Exit
	return c
}

// NewNode allocates an empty node without edges.
func (c *CFG) NewNode() NodeHandle {
	h := NodeHandle(len(c.Nodes))
	c.Nodes = append(c.Nodes, Node{Follower: NoNode})
	return h
}

// Node returns the node at h. The pointer is valid until the next node is
// allocated. It panics on an invalid handle.
func (c *CFG) Node(h NodeHandle) *Node {
	if int(h) >= len(c.Nodes) {
		panic(fmt.Sprintf("ir: node handle %d out of range (%d nodes)", h, len(c.Nodes)))
	}
	return &c.Nodes[h]
}

// Len returns the arena size.
func (c *CFG) Len() int {
	return len(c.Nodes)
}

// Clone deep-copies nodes, blocks and edges. Symbols are shared.
func (c *CFG) Clone() *CFG {
	out := &CFG{
		Nodes: make([]Node, len(c.Nodes)),
		Entry: c.Entry,
		Exit:  c.Exit,
	}
	for i := range c.Nodes {
		src := &c.Nodes[i]
		dst := &out.Nodes[i]
		dst.Follower = src.Follower
		if src.Block != nil {
			dst.Block = make(Block, len(src.Block))
			for j := range src.Block {
				dst.Block[j] = src.Block[j].clone()
			}
		}
		if src.Branches != nil {
			dst.Branches = make([]Branch, len(src.Branches))
			for j, b := range src.Branches {
				dst.Branches[j] = Branch{Cond: b.Cond.clone(), Target: b.Target}
			}
		}
	}
	return out
}

// absorb moves other's nodes into c, rebasing their handles, and returns the
// offset added. other is left empty.
func (c *CFG) absorb(other *CFG) NodeHandle {
	if other == c {
		panic("ir: cannot absorb a CFG into itself")
	}
	base := NodeHandle(len(c.Nodes))
	for _, n := range other.Nodes {
		if n.Follower != NoNode {
			n.Follower += base
		}
		for j := range n.Branches {
			n.Branches[j].Target += base
		}
		c.Nodes = append(c.Nodes, n)
	}
	other.Nodes = nil
	return base
}

func (c *CFG) consume(other *CFG) (entry, exit NodeHandle) {
	entry, exit = other.Entry, other.Exit
	base := c.absorb(other)
	other.Entry, other.Exit = NoNode, NoNode
	return entry + base, exit + base
}

// Append links c's exit to other's entry and takes over other's nodes.
// other is consumed.
func (c *CFG) Append(other *CFG) {
	entry, exit := c.consume(other)
	c.Nodes[c.Exit].Follower = entry
	c.Exit = exit
}

// PrependEntry inserts an empty node before the entry and returns it.
func (c *CFG) PrependEntry() NodeHandle {
	h := c.NewNode()
	c.Nodes[h].Follower = c.Entry
	c.Entry = h
	return h
}

// AppendExit inserts an empty node after the exit and returns it.
func (c *CFG) AppendExit() NodeHandle {
	h := c.NewNode()
	c.Nodes[c.Exit].Follower = h
	c.Exit = h
	return h
}

// InsertAfter splices sub between node and its successors: node's follower
// and branches move to sub's exit, and node falls through to sub's entry.
// sub is consumed. The handles of sub's entry and exit in c are returned.
func (c *CFG) InsertAfter(node NodeHandle, sub *CFG) (entry, exit NodeHandle) {
	c.Node(node)
	entry, exit = c.consume(sub)

	n := &c.Nodes[node]
	x := &c.Nodes[exit]
	x.Follower = n.Follower
	x.Branches = n.Branches
	n.Follower = entry
	n.Branches = nil

	if node == c.Exit {
		c.Exit = exit
	}
	return entry, exit
}

// SplitAt moves instructions index.. of node into a new node that takes over
// node's edges, and returns the new node. index may equal the block length.
func (c *CFG) SplitAt(node NodeHandle, index int) NodeHandle {
	n := c.Node(node)
	if index < 0 || index > len(n.Block) {
		panic(fmt.Sprintf("ir: split index %d out of range for node %d (%d instructions)", index, node, len(n.Block)))
	}
	tail := c.NewNode()
	n = &c.Nodes[node]
	t := &c.Nodes[tail]

	t.Block = append(Block(nil), n.Block[index:]...)
	t.Branches = n.Branches
	t.Follower = n.Follower
	n.Block = n.Block[:index:index]
	n.Branches = nil
	n.Follower = tail

	if node == c.Exit {
		c.Exit = tail
	}
	return tail
}

// Walk visits every node reachable from the entry once, depth first, trying
// branches in order before the follower.
func (c *CFG) Walk(fn func(h NodeHandle, n *Node)) {
	if int(c.Entry) >= len(c.Nodes) {
		return
	}
	seen := make([]bool, len(c.Nodes))
	stack := []NodeHandle{c.Entry}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] {
			continue
		}
		seen[h] = true
		n := &c.Nodes[h]
		fn(h, n)

		if n.Follower != NoNode && int(n.Follower) < len(c.Nodes) && !seen[n.Follower] {
			stack = append(stack, n.Follower)
		}
		for i := len(n.Branches) - 1; i >= 0; i-- {
			t := n.Branches[i].Target
			if int(t) < len(c.Nodes) && !seen[t] {
				stack = append(stack, t)
			}
		}
	}
}

// Reachable lists reachable nodes in Walk order.
func (c *CFG) Reachable() []NodeHandle {
	var out []NodeHandle
	c.Walk(func(h NodeHandle, _ *Node) {
		out = append(out, h)
	})
	return out
}

// Predecessors returns, per node, the reachable nodes with an edge into it.
// A node with a branch and a follower to the same target is listed once.
func (c *CFG) Predecessors() [][]NodeHandle {
	preds := make([][]NodeHandle, len(c.Nodes))
	c.Walk(func(h NodeHandle, n *Node) {
		for _, s := range n.Successors() {
			if int(s) >= len(preds) {
				continue
			}
			p := preds[s]
			if len(p) > 0 && p[len(p)-1] == h {
				continue
			}
			preds[s] = append(p, h)
		}
	})
	return preds
}

// Compact drops unreachable nodes and renumbers the rest densely in Walk
// order. The exit node is kept even if unreachable.
func (c *CFG) Compact() {
	order := c.Reachable()
	remap := make([]NodeHandle, len(c.Nodes))
	for i := range remap {
		remap[i] = NoNode
	}
	for i, h := range order {
		remap[h] = NodeHandle(i)
	}
	if int(c.Exit) < len(remap) && remap[c.Exit] == NoNode {
		remap[c.Exit] = NodeHandle(len(order))
		order = append(order, c.Exit)
	}

	nodes := make([]Node, len(order))
	for i, h := range order {
		n := c.Nodes[h]
		if n.Follower != NoNode {
			n.Follower = remap[n.Follower]
		}
		for j := range n.Branches {
			n.Branches[j].Target = remap[n.Branches[j].Target]
		}
		nodes[i] = n
	}
	c.Nodes = nodes
	c.Entry = remap[c.Entry]
	c.Exit = remap[c.Exit]
}

// Instructions counts the instructions in reachable nodes.
func (c *CFG) Instructions() int {
	n := 0
	c.Walk(func(_ NodeHandle, node *Node) {
		n += len(node.Block)
	})
	return n
}
