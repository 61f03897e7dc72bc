package ir

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Program is a CFG plus the symbols it uses, partitioned by role. Order in
// Inputs and Outputs is significant: position is the default matching key
// for composition. InOut symbols are listed in both.
type Program struct {
	// ID distinguishes programs in dumps and logs.
	ID uuid.UUID

	// Target is the "<backend>:<stage>" string, or empty when unknown.
	Target string

	CFG *CFG

	Inputs    []*Symbol
	Outputs   []*Symbol
	Temps     []*Symbol
	Constants []*Symbol
	Uniforms  []*Symbol

	// Textures holds texture and stream resources.
	Textures []*Symbol

	// Diagnostics collects soft warnings produced while composing.
	Diagnostics []string
}

// NewProgram returns an empty program whose CFG is entry -> exit.
func NewProgram(target string) *Program {
	return &Program{
		ID:     uuid.New(),
		Target: target,
		CFG:    NewCFG(),
	}
}

func cloneList(list []*Symbol) []*Symbol {
	if list == nil {
		return nil
	}
	return append([]*Symbol(nil), list...)
}

// Clone copies the graph structure and lists. Symbols are shared.
func (p *Program) Clone() *Program {
	out := &Program{
		ID:        uuid.New(),
		Target:    p.Target,
		CFG:       p.CFG.Clone(),
		Inputs:    cloneList(p.Inputs),
		Outputs:   cloneList(p.Outputs),
		Temps:     cloneList(p.Temps),
		Constants: cloneList(p.Constants),
		Uniforms:  cloneList(p.Uniforms),
		Textures:  cloneList(p.Textures),
	}
	if p.Diagnostics != nil {
		out.Diagnostics = append([]string(nil), p.Diagnostics...)
	}
	return out
}

// LocalSymbols returns inputs, outputs and temporaries without repeats.
func (p *Program) LocalSymbols() []*Symbol {
	r := newSymbolRegistry(len(p.Inputs) + len(p.Outputs) + len(p.Temps))
	r.addAll(p.Inputs)
	r.addAll(p.Outputs)
	r.addAll(p.Temps)
	return r.symbols()
}

// CloneFresh clones the program and replaces every input, output and
// temporary with a fresh symbol of the same kind, so the result shares no
// local state with p. The substitution applied is returned.
func (p *Program) CloneFresh() (*Program, map[*Symbol]*Symbol) {
	out := p.Clone()
	m := make(map[*Symbol]*Symbol)
	for _, s := range p.LocalSymbols() {
		m[s] = s.Clone(s.Kind())
	}
	out.Substitute(m)
	return out, m
}

// SharesLocals reports whether p and o have any input, output or temporary
// in common.
func (p *Program) SharesLocals(o *Program) bool {
	if p == o {
		return true
	}
	r := newSymbolRegistry(0)
	r.addAll(p.LocalSymbols())
	for _, s := range o.LocalSymbols() {
		if r.contains(s) {
			return true
		}
	}
	return false
}

// SubstituteCode replaces symbols in every instruction and branch condition,
// including nodes not reachable from the entry.
func (p *Program) SubstituteCode(m map[*Symbol]*Symbol) {
	if len(m) == 0 {
		return
	}
	for i := range p.CFG.Nodes {
		n := &p.CFG.Nodes[i]
		for j := range n.Block {
			n.Block[j].substitute(m)
		}
		for j := range n.Branches {
			if r, ok := m[n.Branches[j].Cond.Sym]; ok {
				n.Branches[j].Cond.Sym = r
			}
		}
	}
}

// SubstituteLists replaces symbols in the role lists, dropping repeats that
// the replacement introduces.
func (p *Program) SubstituteLists(m map[*Symbol]*Symbol) {
	if len(m) == 0 {
		return
	}
	sub := func(list []*Symbol) []*Symbol {
		for i, s := range list {
			if r, ok := m[s]; ok {
				list[i] = r
			}
		}
		return Dedup(list)
	}
	p.Inputs = sub(p.Inputs)
	p.Outputs = sub(p.Outputs)
	p.Temps = sub(p.Temps)
	p.Constants = sub(p.Constants)
	p.Uniforms = sub(p.Uniforms)
	p.Textures = sub(p.Textures)
}

// Substitute applies m to the code and the lists.
func (p *Program) Substitute(m map[*Symbol]*Symbol) {
	p.SubstituteCode(m)
	p.SubstituteLists(m)
}

// Collect rebuilds Temps from the code and adds any referenced constant,
// uniform or resource missing from its list. Temps become the referenced
// local symbols that are neither inputs nor outputs, in Walk order.
func (p *Program) Collect() {
	io := newSymbolRegistry(len(p.Inputs) + len(p.Outputs))
	io.addAll(p.Inputs)
	io.addAll(p.Outputs)

	temps := newSymbolRegistry(len(p.Temps))
	consts := newSymbolRegistry(len(p.Constants))
	consts.addAll(p.Constants)
	uniforms := newSymbolRegistry(len(p.Uniforms))
	uniforms.addAll(p.Uniforms)
	textures := newSymbolRegistry(len(p.Textures))
	textures.addAll(p.Textures)

	visit := func(s *Symbol) {
		if s == nil {
			return
		}
		switch s.Kind() {
		case KindConst:
			consts.add(s)
		case KindUniform:
			uniforms.add(s)
		case KindTexture, KindStream:
			textures.add(s)
		default:
			if !io.contains(s) {
				temps.add(s)
			}
		}
	}
	p.CFG.Walk(func(_ NodeHandle, n *Node) {
		for _, in := range n.Block {
			for _, v := range in.Sources() {
				visit(v.Sym)
			}
			visit(in.Dst.Sym)
		}
		for _, b := range n.Branches {
			visit(b.Cond.Sym)
		}
	})

	p.Temps = temps.symbols()
	p.Constants = consts.symbols()
	p.Uniforms = uniforms.symbols()
	p.Textures = textures.symbols()
}

// Warnf records a soft diagnostic.
func (p *Program) Warnf(format string, args ...interface{}) {
	p.Diagnostics = append(p.Diagnostics, fmt.Sprintf(format, args...))
}

// FindInput returns the index of the first input with the given name, or -1.
func (p *Program) FindInput(name string) int {
	return indexByName(p.Inputs, name)
}

// FindOutput returns the index of the first output with the given name, or -1.
func (p *Program) FindOutput(name string) int {
	return indexByName(p.Outputs, name)
}

func indexByName(list []*Symbol, name string) int {
	for i, s := range list {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

// SpliceInstruction replaces instruction index of node with an inlined copy
// of repl. repl's inputs read fresh temporaries assigned from the
// instruction's sources, in order; its outputs write fresh temporaries, the
// first of which is assigned to the instruction's destination.
//
// An invalid node or index is a programming error and panics. Operand count
// and size disagreements between the instruction and repl return an error and
// leave p untouched.
func (p *Program) SpliceInstruction(node NodeHandle, index int, repl *Program) error {
	n := p.CFG.Node(node)
	if index < 0 || index >= len(n.Block) {
		panic(fmt.Sprintf("ir: instruction %d out of range in node %d (%d instructions)", index, node, len(n.Block)))
	}
	in := n.Block[index]
	srcs := in.Sources()

	if len(repl.Inputs) != len(srcs) {
		return Errorf(ErrArity, "splicing %q: replacement has %d inputs, instruction has %d sources",
			in, len(repl.Inputs), len(srcs))
	}
	hasDst := !in.Dst.IsZero()
	if hasDst && len(repl.Outputs) == 0 {
		return Errorf(ErrArity, "splicing %q: replacement has no outputs", in)
	}
	for i, s := range repl.Inputs {
		if s.Size() != srcs[i].Size() {
			return Errorf(ErrSizeMismatch, "splicing %q: input %s has %d elements, source %s has %d",
				in, s.Describe(), s.Size(), srcs[i], srcs[i].Size())
		}
	}
	if hasDst && repl.Outputs[0].Size() != in.Dst.Size() {
		return Errorf(ErrSizeMismatch, "splicing %q: output %s has %d elements, destination %s has %d",
			in, repl.Outputs[0].Describe(), repl.Outputs[0].Size(), in.Dst, in.Dst.Size())
	}

	sub, _ := repl.CloneFresh()
	m := make(map[*Symbol]*Symbol, len(sub.Inputs)+len(sub.Outputs))
	var prologue, epilogue Block
	for i, s := range sub.Inputs {
		t := s.Clone(KindTemp)
		m[s] = t
		a, err := Assign(Full(t), srcs[i])
		if err != nil {
			return err
		}
		prologue = append(prologue, a)
	}
	for _, s := range sub.Outputs {
		if _, ok := m[s]; !ok {
			m[s] = s.Clone(KindTemp)
		}
	}
	if hasDst {
		a, err := Assign(in.Dst, Full(m[sub.Outputs[0]]))
		if err != nil {
			return err
		}
		epilogue = append(epilogue, a)
	}
	sub.SubstituteCode(m)
	if len(prologue) > 0 {
		sub.CFG.Node(sub.CFG.PrependEntry()).Block = prologue
	}
	if len(epilogue) > 0 {
		sub.CFG.Node(sub.CFG.AppendExit()).Block = epilogue
	}

	tail := p.CFG.SplitAt(node, index)
	t := p.CFG.Node(tail)
	t.Block = t.Block[1:]
	p.CFG.InsertAfter(node, sub.CFG)

	p.Constants = appendUnique(p.Constants, sub.Constants)
	p.Uniforms = appendUnique(p.Uniforms, sub.Uniforms)
	p.Textures = appendUnique(p.Textures, sub.Textures)
	p.Collect()
	return nil
}

// String summarizes the interface.
func (p *Program) String() string {
	target := p.Target
	if target == "" {
		target = "<none>"
	}
	return fmt.Sprintf("program %s (%d inputs, %d outputs, target %s)",
		p.ID.String()[:8], len(p.Inputs), len(p.Outputs), target)
}

// Describe lists the interface one symbol per line after the String
// summary, followed by the diagnostics. InOut symbols appear once.
func (p *Program) Describe() string {
	var b strings.Builder
	b.WriteString(p.String())
	b.WriteByte('\n')
	seen := make(map[*Symbol]bool)
	for _, list := range [][]*Symbol{p.Inputs, p.Outputs, p.Uniforms, p.Textures} {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			fmt.Fprintf(&b, "  %s\n", s.Describe())
		}
	}
	for _, d := range p.Diagnostics {
		fmt.Fprintf(&b, "  warning: %s\n", d)
	}
	return b.String()
}
