package ir

type frameKind uint8

const (
	frameIf frameKind = iota
	frameElse
	frameWhile
)

type frame struct {
	kind frameKind
	head NodeHandle
	join NodeHandle
}

// Builder authors a program one statement at a time. Statements append to
// the current node; If and While open new nodes. A Builder is not safe for
// concurrent use.
type Builder struct {
	prog   *Program
	cur    NodeHandle
	frames []frame
	consts *ConstRegistry
	done   bool
}

// Begin starts a kernel for the given target.
func Begin(target string) *Builder {
	p := NewProgram(target)
	p.CFG.Node(p.CFG.Entry).Follower = NoNode
	return &Builder{
		prog:   p,
		cur:    p.CFG.Entry,
		consts: NewConstRegistry(),
	}
}

// Target returns the target the kernel was begun with.
func (b *Builder) Target() string {
	return b.prog.Target
}

func (b *Builder) alive() error {
	if b.done {
		return Errorf(ErrInvalidGraph, "builder already ended")
	}
	return nil
}

// Declare adds a symbol to the list matching its kind.
func (b *Builder) Declare(info SymbolInfo) *Symbol {
	s := Declare(info)
	b.add(s)
	return s
}

func (b *Builder) add(s *Symbol) {
	p := b.prog
	switch s.Kind() {
	case KindInput:
		p.Inputs = append(p.Inputs, s)
	case KindOutput:
		p.Outputs = append(p.Outputs, s)
	case KindInOut:
		p.Inputs = append(p.Inputs, s)
		p.Outputs = append(p.Outputs, s)
	case KindTemp:
		p.Temps = append(p.Temps, s)
	case KindConst:
		p.Constants = appendUnique(p.Constants, []*Symbol{s})
	case KindUniform:
		p.Uniforms = append(p.Uniforms, s)
	case KindStream, KindTexture:
		p.Textures = append(p.Textures, s)
	}
}

// Input declares a free input.
func (b *Builder) Input(size int, name string) *Symbol {
	return b.Declare(SymbolInfo{Kind: KindInput, Size: size, Name: name})
}

// Output declares an output.
func (b *Builder) Output(size int, name string) *Symbol {
	return b.Declare(SymbolInfo{Kind: KindOutput, Size: size, Name: name})
}

// InOut declares a symbol that is both read and written at the boundary.
func (b *Builder) InOut(size int, name string) *Symbol {
	return b.Declare(SymbolInfo{Kind: KindInOut, Size: size, Name: name})
}

// Temp declares a temporary.
func (b *Builder) Temp(size int, name string) *Symbol {
	return b.Declare(SymbolInfo{Kind: KindTemp, Size: size, Name: name})
}

// Const returns a constant holding values. Equal constants are shared.
func (b *Builder) Const(values ...float64) *Symbol {
	s := b.consts.GetOrCreate(ScalarFloat32, values)
	b.add(s)
	return s
}

// Uniform declares a uniform parameter with an optional default value.
func (b *Builder) Uniform(size int, name string, value ...float64) *Symbol {
	return b.Declare(SymbolInfo{Kind: KindUniform, Size: size, Name: name, Value: value})
}

// Texture declares a texture resource with size channels.
func (b *Builder) Texture(size int, name string) *Symbol {
	return b.Declare(SymbolInfo{Kind: KindTexture, Size: size, Name: name})
}

// Stream declares a stream resource with size channels.
func (b *Builder) Stream(size int, name string) *Symbol {
	return b.Declare(SymbolInfo{Kind: KindStream, Size: size, Name: name})
}

// Emit appends an instruction to the current node.
func (b *Builder) Emit(op Op, dst View, srcs ...View) error {
	if err := b.alive(); err != nil {
		return err
	}
	in, err := NewInstruction(op, dst, srcs...)
	if err != nil {
		return err
	}
	n := b.prog.CFG.Node(b.cur)
	n.Block = append(n.Block, in)
	return nil
}

// Assign emits dst = src.
func (b *Builder) Assign(dst, src View) error {
	return b.Emit(OpAsn, dst, src)
}

// Kill emits a fragment discard conditioned on src.
func (b *Builder) Kill(src View) error {
	return b.Emit(OpKil, View{}, src)
}

func (b *Builder) checkCond(cond View) error {
	if err := b.alive(); err != nil {
		return err
	}
	if cond.IsZero() {
		return Errorf(ErrArity, "missing branch condition")
	}
	return cond.check(false)
}

// If opens a conditional block executed when the first element of cond is
// greater than zero.
func (b *Builder) If(cond View) error {
	if err := b.checkCond(cond); err != nil {
		return err
	}
	c := b.prog.CFG
	then := c.NewNode()
	join := c.NewNode()
	head := c.Node(b.cur)
	head.Branches = append(head.Branches, Branch{Cond: cond.clone(), Target: then})
	head.Follower = join

	b.frames = append(b.frames, frame{kind: frameIf, head: b.cur, join: join})
	b.cur = then
	return nil
}

// Else starts the alternative of the innermost If.
func (b *Builder) Else() error {
	if err := b.alive(); err != nil {
		return err
	}
	if len(b.frames) == 0 || b.frames[len(b.frames)-1].kind != frameIf {
		return Errorf(ErrInvalidGraph, "else without if")
	}
	f := &b.frames[len(b.frames)-1]
	c := b.prog.CFG
	alt := c.NewNode()
	c.Node(f.head).Follower = alt
	c.Node(b.cur).Follower = f.join
	f.kind = frameElse
	b.cur = alt
	return nil
}

// EndIf closes the innermost If or Else.
func (b *Builder) EndIf() error {
	if err := b.alive(); err != nil {
		return err
	}
	if len(b.frames) == 0 || b.frames[len(b.frames)-1].kind == frameWhile {
		return Errorf(ErrInvalidGraph, "endif without if")
	}
	f := b.frames[len(b.frames)-1]
	b.frames = b.frames[:len(b.frames)-1]
	b.prog.CFG.Node(b.cur).Follower = f.join
	b.cur = f.join
	return nil
}

// While opens a loop whose body runs while the first element of cond is
// greater than zero. The condition is tested before every iteration.
func (b *Builder) While(cond View) error {
	if err := b.checkCond(cond); err != nil {
		return err
	}
	c := b.prog.CFG
	head := c.NewNode()
	body := c.NewNode()
	after := c.NewNode()
	c.Node(b.cur).Follower = head
	h := c.Node(head)
	h.Branches = []Branch{{Cond: cond.clone(), Target: body}}
	h.Follower = after

	b.frames = append(b.frames, frame{kind: frameWhile, head: head, join: after})
	b.cur = body
	return nil
}

// EndWhile closes the innermost While with a back-edge to its test.
func (b *Builder) EndWhile() error {
	if err := b.alive(); err != nil {
		return err
	}
	if len(b.frames) == 0 || b.frames[len(b.frames)-1].kind != frameWhile {
		return Errorf(ErrInvalidGraph, "endwhile without while")
	}
	f := b.frames[len(b.frames)-1]
	b.frames = b.frames[:len(b.frames)-1]
	b.prog.CFG.Node(b.cur).Follower = f.head
	b.cur = f.join
	return nil
}

// Inline copies the code of a program without inputs or outputs into the
// kernel at the current position.
func (b *Builder) Inline(p *Program) error {
	if err := b.alive(); err != nil {
		return err
	}
	if len(p.Inputs) != 0 || len(p.Outputs) != 0 {
		return Errorf(ErrUnsupportedBinding, "cannot inline %s: it still has %d inputs and %d outputs",
			p, len(p.Inputs), len(p.Outputs))
	}
	sub := p.CFG.Clone()
	_, exit := b.prog.CFG.InsertAfter(b.cur, sub)
	b.cur = exit

	b.prog.Constants = appendUnique(b.prog.Constants, p.Constants)
	b.prog.Uniforms = appendUnique(b.prog.Uniforms, p.Uniforms)
	b.prog.Textures = appendUnique(b.prog.Textures, p.Textures)
	b.prog.Temps = appendUnique(b.prog.Temps, p.Temps)
	return nil
}

// End finalizes the kernel. The builder cannot be used afterwards.
func (b *Builder) End() (*Program, error) {
	if err := b.alive(); err != nil {
		return nil, err
	}
	if len(b.frames) != 0 {
		kind := "if"
		if b.frames[len(b.frames)-1].kind == frameWhile {
			kind = "while"
		}
		return nil, Errorf(ErrInvalidGraph, "unterminated %s", kind)
	}
	b.done = true
	p := b.prog
	p.CFG.Node(b.cur).Follower = p.CFG.Exit
	p.Collect()
	return p, nil
}
