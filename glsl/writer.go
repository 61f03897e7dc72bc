// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/kernel/bind"
	"github.com/gogpu/kernel/ir"
	"github.com/iancoleman/strcase"
)

// Writer generates GLSL source code from a kernel program.
type Writer struct {
	program *ir.Program
	options *Options
	target  bind.Target

	// Output buffer
	out    strings.Builder
	indent int

	// Naming
	namer *namer
	names map[*ir.Symbol]string

	// Interface
	attrs    []bind.Attribute
	samplers map[*ir.Symbol]int

	// Output tracking
	uniformDefaults map[string][]float64
	structured      bool
}

// namer generates unique identifiers.
type namer struct {
	usedNames map[string]struct{}
	counter   uint32
}

func newNamer() *namer {
	return &namer{
		usedNames: make(map[string]struct{}),
	}
}

// reserve marks a name as taken without escaping it.
func (n *namer) reserve(name string) {
	n.usedNames[name] = struct{}{}
}

// call generates a unique name based on the given base.
func (n *namer) call(base string) string {
	// Escape reserved words
	escaped := escapeKeyword(base)

	// First try the base name directly
	if _, used := n.usedNames[escaped]; !used {
		n.usedNames[escaped] = struct{}{}
		return escaped
	}

	// Add numeric suffix
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		if _, used := n.usedNames[candidate]; !used {
			n.usedNames[candidate] = struct{}{}
			return candidate
		}
	}
}

// newWriter creates a new GLSL writer.
func newWriter(p *ir.Program, t bind.Target, options *Options) *Writer {
	return &Writer{
		program:  p,
		options:  options,
		target:   t,
		namer:    newNamer(),
		names:    make(map[*ir.Symbol]string),
		samplers: make(map[*ir.Symbol]int),
	}
}

// String returns the generated GLSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

// writeProgram generates GLSL code for the entire program.
func (w *Writer) writeProgram() error {
	if err := w.checkSymbols(); err != nil {
		return err
	}
	if err := w.collectSamplers(); err != nil {
		return err
	}
	attrs, err := bind.Resolve(w.program)
	if err != nil {
		return err
	}
	w.attrs = attrs

	w.writeVersionDirective()
	if err := w.writeStageLayout(); err != nil {
		return err
	}
	w.writePrecisionQualifiers()

	w.registerNames()
	w.writeConstants()
	w.writeInterface()
	return w.writeMain()
}

// writeVersionDirective writes the #version directive.
func (w *Writer) writeVersionDirective() {
	w.writeLine("#version %s", w.options.LangVersion.String())
	if w.options.WriterFlags&WriterFlagDebugInfo != 0 {
		w.writeLine("// program %s, target %s", w.program.ID, w.target)
	}
	w.writeLine("")
}

// writeStageLayout declares the work group size of compute kernels.
func (w *Writer) writeStageLayout() error {
	if w.target.Stage != bind.StageCompute {
		return nil
	}
	if !w.options.LangVersion.SupportsCompute() {
		return ir.Errorf(ir.ErrUnsupportedBinding, "compute kernels need GLSL 430 or 310 es, got %s", w.options.LangVersion)
	}
	w.writeLine("layout(local_size_x = 1) in;")
	w.writeLine("")
	return nil
}

// writePrecisionQualifiers writes precision qualifiers for ES.
func (w *Writer) writePrecisionQualifiers() {
	if !w.options.LangVersion.ES {
		return
	}

	precision := "mediump"
	if w.options.ForceHighPrecision {
		precision = "highp"
	}
	w.writeLine("precision %s float;", precision)
	w.writeLine("precision %s int;", precision)
	w.writeLine("precision %s sampler2D;", precision)
	w.writeLine("precision %s sampler3D;", precision)
	w.writeLine("")
}

// checkSymbols rejects symbols that have no GLSL float type.
func (w *Writer) checkSymbols() error {
	p := w.program
	for _, list := range [][]*ir.Symbol{p.Inputs, p.Outputs, p.Temps, p.Constants, p.Uniforms, p.Textures} {
		for _, s := range list {
			if s.Kind() == ir.KindTexture {
				continue
			}
			if sc := s.Scalar(); sc != ir.ScalarFloat32 && sc != ir.ScalarFloat16 {
				return ir.Errorf(ir.ErrUnsupportedBinding, "%s: %s elements have no GLSL float type", s.Describe(), sc)
			}
			if s.Size() > 4 {
				return ir.Errorf(ir.ErrUnsupportedBinding, "%s has %d elements, vectors have at most 4", s.Describe(), s.Size())
			}
			if s.Kind() == ir.KindStream && !w.options.LangVersion.SupportsStorageBuffers() {
				return ir.Errorf(ir.ErrUnsupportedBinding, "stream %s needs storage buffers, not available in GLSL %s",
					s.Name(), w.options.LangVersion)
			}
		}
	}
	return nil
}

// collectSamplers records the coordinate width every texture is sampled
// with. All uses of one texture must agree.
func (w *Writer) collectSamplers() error {
	var err error
	w.program.CFG.Walk(func(_ ir.NodeHandle, n *ir.Node) {
		for _, in := range n.Block {
			if in.Op != ir.OpTex || err != nil {
				continue
			}
			tex, dim := in.Src[0].Sym, in.Src[1].Size()
			if dim > 3 {
				err = ir.Errorf(ir.ErrSizeMismatch, "texture %s sampled with %d coordinates, at most 3 are supported", tex.Name(), dim)
				return
			}
			if dim == 1 && w.options.LangVersion.ES {
				err = ir.Errorf(ir.ErrUnsupportedBinding, "texture %s: GLSL ES has no one-dimensional samplers", tex.Name())
				return
			}
			if prev, ok := w.samplers[tex]; ok && prev != dim {
				err = ir.Errorf(ir.ErrSizeMismatch, "texture %s sampled with both %d and %d coordinates", tex.Name(), prev, dim)
				return
			}
			w.samplers[tex] = dim
		}
	})
	return err
}

// registerNames assigns a GLSL name to every symbol. Interface names come
// from the bindings and are taken first; locals and constants are derived
// from symbol names.
func (w *Writer) registerNames() {
	for _, a := range w.attrs {
		if !a.Builtin() {
			w.namer.reserve(a.Identifier)
		}
		if a.Direction == bind.DirectionResource {
			w.names[a.Symbol] = a.Identifier
		}
	}

	p := w.program
	for _, list := range [][]*ir.Symbol{p.Inputs, p.Outputs, p.Temps, p.Constants} {
		for _, s := range list {
			if _, ok := w.names[s]; ok {
				continue
			}
			w.names[s] = w.namer.call(localBase(s))
		}
	}
}

func localBase(s *ir.Symbol) string {
	if s.Name() != "" {
		return strcase.ToLowerCamel(s.Name())
	}
	switch s.Kind() {
	case ir.KindConst:
		return "k"
	case ir.KindTemp:
		return "t"
	}
	return s.Kind().String()
}

// writeConstants writes const declarations for constant symbols.
func (w *Writer) writeConstants() {
	if len(w.program.Constants) == 0 {
		return
	}
	for _, s := range w.program.Constants {
		w.writeLine("const %s %s = %s;", typeName(s.Size()), w.names[s], literal(s.Value(), s.Size()))
	}
	w.writeLine("")
}

// writeInterface declares stage variables and resources in binding order.
func (w *Writer) writeInterface() {
	version := w.options.LangVersion
	written := false
	for _, a := range w.attrs {
		if a.Builtin() {
			continue
		}
		s := a.Symbol
		switch a.Direction {
		case bind.DirectionIn, bind.DirectionOut:
			qual := a.Direction.String()
			if version.SupportsStageLocations() {
				qual = a.Decoration
			}
			w.writeLine("%s %s %s;", qual, typeName(s.Size()), a.Identifier)
		default:
			w.writeResource(a)
		}
		written = true
	}
	if written {
		w.writeLine("")
	}
}

func (w *Writer) writeResource(a bind.Attribute) {
	s := a.Symbol
	qual := "uniform"
	if w.options.LangVersion.SupportsResourceLayouts() {
		qual = a.Decoration
	}
	switch s.Kind() {
	case ir.KindTexture:
		dim, ok := w.samplers[s]
		if !ok {
			dim = 2
		}
		w.writeLine("%s sampler%dD %s;", qual, dim, a.Identifier)
	case ir.KindStream:
		// Storage blocks always need their binding.
		w.writeLine("%s %sBlock {", a.Decoration, strcase.ToCamel(a.Identifier))
		w.pushIndent()
		w.writeLine("%s %s[];", typeName(s.Size()), a.Identifier)
		w.popIndent()
		w.writeLine("};")
	default:
		switch {
		case !s.HasValue():
			w.writeLine("%s %s %s;", qual, typeName(s.Size()), a.Identifier)
		case w.options.LangVersion.ES:
			if w.uniformDefaults == nil {
				w.uniformDefaults = make(map[string][]float64)
			}
			w.uniformDefaults[a.Identifier] = s.Value()
			w.writeLine("%s %s %s;", qual, typeName(s.Size()), a.Identifier)
		default:
			w.writeLine("%s %s %s = %s;", qual, typeName(s.Size()), a.Identifier, literal(s.Value(), s.Size()))
		}
	}
}

// writeMain writes the entry point: locals, the graph, then the outputs.
func (w *Writer) writeMain() error {
	w.writeLine("void main() {")
	w.pushIndent()

	inputs := make(map[*ir.Symbol]bind.Attribute)
	var outputs []bind.Attribute
	for _, a := range w.attrs {
		switch a.Direction {
		case bind.DirectionIn:
			inputs[a.Symbol] = a
		case bind.DirectionOut:
			outputs = append(outputs, a)
		}
	}

	p := w.program
	declared := make(map[*ir.Symbol]bool)
	for _, list := range [][]*ir.Symbol{p.Inputs, p.Outputs, p.Temps} {
		for _, s := range list {
			if declared[s] {
				continue
			}
			declared[s] = true
			init := zero(s.Size())
			if a, ok := inputs[s]; ok {
				init = readInput(a)
			}
			w.writeLine("%s %s = %s;", typeName(s.Size()), w.names[s], init)
		}
	}

	if err := w.writeGraph(); err != nil {
		return err
	}

	for _, a := range outputs {
		w.writeLine("%s = %s;", a.Identifier, w.writeOutput(a))
	}

	w.popIndent()
	w.writeLine("}")
	return nil
}

// readInput returns the expression a local is initialized from. The
// position builtin is a vec4 and is cut down to the symbol's size.
func readInput(a bind.Attribute) string {
	n := a.Symbol.Size()
	if !a.Builtin() || n == 4 {
		return a.Identifier
	}
	return a.Identifier + "." + swizzleXYZW[:n]
}

// writeOutput returns the value stored into an output variable. The
// position builtin is padded to a homogeneous vec4.
func (w *Writer) writeOutput(a bind.Attribute) string {
	name := w.names[a.Symbol]
	n := a.Symbol.Size()
	if !a.Builtin() || n == 4 {
		return name
	}
	pad := []string{name}
	for i := n; i < 3; i++ {
		pad = append(pad, "0.0")
	}
	pad = append(pad, "1.0")
	return "vec4(" + strings.Join(pad, ", ") + ")"
}

// writeGraph writes the instruction graph. A graph without branches is a
// chain of followers and is written in order.
func (w *Writer) writeGraph() error {
	c := w.program.CFG
	linear := true
	c.Walk(func(_ ir.NodeHandle, n *ir.Node) {
		if len(n.Branches) != 0 {
			linear = false
		}
	})
	w.structured = linear
	if linear {
		seen := make(map[ir.NodeHandle]bool)
		for h := c.Entry; h != ir.NoNode && !seen[h]; h = c.Node(h).Follower {
			seen[h] = true
			if err := w.writeBlock(h); err != nil {
				return err
			}
		}
		return nil
	}

	node := w.namer.call("node")
	w.writeLine("int %s = %d;", node, c.Entry)
	w.writeLine("while (%s >= 0) {", node)
	w.pushIndent()
	w.writeLine("switch (%s) {", node)

	var err error
	c.Walk(func(h ir.NodeHandle, n *ir.Node) {
		if err != nil {
			return
		}
		w.writeLine("case %d:", h)
		w.pushIndent()
		if err = w.writeBlock(h); err != nil {
			return
		}
		for _, b := range n.Branches {
			w.writeLine("if (%s > 0.0) {", w.elementExpr(b.Cond, 0))
			w.pushIndent()
			w.writeLine("%s = %d;", node, b.Target)
			w.writeLine("break;")
			w.popIndent()
			w.writeLine("}")
		}
		next := -1
		if n.Follower != ir.NoNode {
			next = int(n.Follower)
		}
		w.writeLine("%s = %d;", node, next)
		w.writeLine("break;")
		w.popIndent()
	})
	if err != nil {
		return err
	}
	w.writeLine("default:")
	w.pushIndent()
	w.writeLine("%s = -1;", node)
	w.writeLine("break;")
	w.popIndent()

	w.writeLine("}")
	w.popIndent()
	w.writeLine("}")
	return nil
}

func (w *Writer) writeBlock(h ir.NodeHandle) error {
	block := w.program.CFG.Node(h).Block
	if w.options.WriterFlags&WriterFlagDebugInfo != 0 && len(block) != 0 {
		w.writeLine("// node %d", h)
	}
	for _, in := range block {
		if err := w.writeInstruction(in); err != nil {
			return err
		}
	}
	return nil
}

// writeLine writes a formatted line with indentation.
func (w *Writer) writeLine(format string, args ...any) {
	w.writeIndent()
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

// pushIndent increases indentation.
func (w *Writer) pushIndent() {
	w.indent++
}

// popIndent decreases indentation.
func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}

// typeName returns the GLSL type of an n element float vector.
func typeName(n int) string {
	if n == 1 {
		return "float"
	}
	return fmt.Sprintf("vec%d", n)
}

// literal returns a constructor for values, zero filled to n elements.
func literal(values []float64, n int) string {
	parts := make([]string, n)
	for i := range parts {
		v := 0.0
		if i < len(values) {
			v = values[i]
		}
		parts[i] = formatFloat(float32(v))
	}
	if n == 1 {
		return parts[0]
	}
	return typeName(n) + "(" + strings.Join(parts, ", ") + ")"
}

// zero returns the zero value of a float or vecN.
func zero(n int) string {
	if n == 1 {
		return "0.0"
	}
	return typeName(n) + "(0.0)"
}

// formatFloat formats a float32 for GLSL output.
func formatFloat(f float32) string {
	s := fmt.Sprintf("%g", f)
	// Ensure it has a decimal point or exponent
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
