package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a readable listing of the program: its interface, then every
// reachable node in Walk order with its edges.
func Dump(w io.Writer, p *Program) error {
	var sb strings.Builder
	target := p.Target
	if target == "" {
		target = "<none>"
	}
	fmt.Fprintf(&sb, "program %s target %s\n", p.ID, target)

	lists := []struct {
		name string
		syms []*Symbol
	}{
		{"input", p.Inputs},
		{"output", p.Outputs},
		{"temp", p.Temps},
		{"const", p.Constants},
		{"uniform", p.Uniforms},
		{"resource", p.Textures},
	}
	for _, l := range lists {
		for i, s := range l.syms {
			fmt.Fprintf(&sb, "  %-8s %2d  %s", l.name, i, s.Describe())
			if s.HasValue() {
				fmt.Fprintf(&sb, " = %v", s.Value())
			}
			sb.WriteByte('\n')
		}
	}

	c := p.CFG
	c.Walk(func(h NodeHandle, n *Node) {
		label := ""
		switch h {
		case c.Entry:
			label = " (entry)"
		case c.Exit:
			label = " (exit)"
		}
		fmt.Fprintf(&sb, "node %d%s:\n", h, label)
		for _, in := range n.Block {
			fmt.Fprintf(&sb, "  %s\n", in)
		}
		for _, b := range n.Branches {
			fmt.Fprintf(&sb, "  if %s -> %d\n", b.Cond, b.Target)
		}
		if n.Follower != NoNode {
			fmt.Fprintf(&sb, "  -> %d\n", n.Follower)
		}
	})
	for _, d := range p.Diagnostics {
		fmt.Fprintf(&sb, "# warning: %s\n", d)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
