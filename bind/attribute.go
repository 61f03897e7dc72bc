// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bind

import (
	"fmt"

	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/ir"
	"github.com/iancoleman/strcase"
)

// Direction tells whether an attribute is read, written or a resource.
type Direction uint8

const (
	DirectionIn Direction = iota
	DirectionOut
	DirectionResource
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "resource"
	}
}

// Attribute is the binding chosen for one interface symbol.
type Attribute struct {
	Symbol    *ir.Symbol
	Direction Direction

	// Location is the stage location or resource slot. Builtins have -1.
	Location int

	// Identifier is the name a backend would declare the symbol under.
	Identifier string

	// Decoration is the backend's binding syntax for the symbol.
	Decoration string
}

// Builtin reports whether the attribute maps to a builtin value.
func (a Attribute) Builtin() bool {
	return a.Location < 0
}

// Resolve binds the interface of p for its target. InOut symbols get one
// attribute per direction.
func Resolve(p *ir.Program) ([]Attribute, error) {
	if p == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "binding a nil program")
	}
	t, err := ParseTarget(p.Target)
	if err != nil {
		return nil, err
	}
	return t.Attributes(p.Inputs, p.Outputs, resources(p, nil))
}

// ResolveHandle binds the interface of a handle: only free inputs are stage
// inputs, and the sources of its bindings are resources next to those of
// the program.
func ResolveHandle(h *compose.Handle) ([]Attribute, error) {
	if h == nil {
		return nil, ir.Errorf(ir.ErrNullOperand, "binding a nil program")
	}
	t, err := ParseTarget(h.Target())
	if err != nil {
		return nil, err
	}
	var extra []*ir.Symbol
	for _, b := range h.Bindings() {
		extra = append(extra, b.Source)
	}
	return t.Attributes(h.FreeInputs(), h.Outputs(), resources(h.Graph(), extra))
}

func resources(p *ir.Program, extra []*ir.Symbol) []*ir.Symbol {
	var out []*ir.Symbol
	seen := make(map[*ir.Symbol]bool)
	for _, list := range [][]*ir.Symbol{p.Uniforms, p.Textures, extra} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Attributes binds the given interface. Stage inputs and outputs are
// numbered separately, in order, skipping builtins; resource slots are
// numbered per register class.
func (t Target) Attributes(inputs, outputs, res []*ir.Symbol) ([]Attribute, error) {
	if t.Stage == StageCompute && len(inputs)+len(outputs) != 0 {
		return nil, ir.Errorf(ir.ErrUnsupportedBinding,
			"%s kernels have no attribute interface (%d inputs, %d outputs)", t, len(inputs), len(outputs))
	}
	attrs := make([]Attribute, 0, len(inputs)+len(outputs)+len(res))

	attrs = t.stage(attrs, DirectionIn, inputs, t.Stage == StageFragment)
	attrs = t.stage(attrs, DirectionOut, outputs, t.Stage == StageVertex)

	slots := make(map[string]int)
	for i, s := range res {
		class, format, err := t.resource(s)
		if err != nil {
			return nil, err
		}
		slot := slots[class]
		slots[class]++
		attrs = append(attrs, Attribute{
			Symbol:     s,
			Direction:  DirectionResource,
			Location:   slot,
			Identifier: t.identifier(DirectionResource, i, s),
			Decoration: fmt.Sprintf(format, slot),
		})
	}
	return attrs, nil
}

// stage binds one direction. The first Position symbol becomes the
// position builtin when the stage has one in that direction.
func (t Target) stage(attrs []Attribute, dir Direction, list []*ir.Symbol, hasPosition bool) []Attribute {
	loc := 0
	for i, s := range list {
		a := Attribute{Symbol: s, Direction: dir, Identifier: t.identifier(dir, i, s)}
		if hasPosition && s.Semantic() == ir.SemanticPosition {
			hasPosition = false
			a.Location = -1
			a.Decoration = t.position()
			if t.Backend == BackendGLSL {
				a.Identifier = a.Decoration
			}
		} else {
			a.Location = loc
			a.Decoration = t.location(dir, loc)
			loc++
		}
		attrs = append(attrs, a)
	}
	return attrs
}

func (t Target) position() string {
	vertex := t.Stage == StageVertex
	switch t.Backend {
	case BackendGLSL:
		if vertex {
			return "gl_Position"
		}
		return "gl_FragCoord"
	case BackendHLSL:
		return "SV_Position"
	case BackendMSL:
		return "[[position]]"
	case BackendSPIRV:
		if vertex {
			return "BuiltIn Position"
		}
		return "BuiltIn FragCoord"
	default:
		if vertex {
			return "result.position"
		}
		return "fragment.position"
	}
}

func (t Target) location(dir Direction, loc int) string {
	in := dir == DirectionIn
	vertex := t.Stage == StageVertex
	switch t.Backend {
	case BackendGLSL:
		if in {
			return fmt.Sprintf("layout(location = %d) in", loc)
		}
		return fmt.Sprintf("layout(location = %d) out", loc)
	case BackendHLSL:
		// Fragment outputs are render targets; everything else is
		// interpolated through TEXCOORD.
		if !in && !vertex {
			return fmt.Sprintf("SV_Target%d", loc)
		}
		return fmt.Sprintf("TEXCOORD%d", loc)
	case BackendMSL:
		switch {
		case in && vertex:
			return fmt.Sprintf("[[attribute(%d)]]", loc)
		case !in && !vertex:
			return fmt.Sprintf("[[color(%d)]]", loc)
		}
		return fmt.Sprintf("[[user(locn%d)]]", loc)
	case BackendSPIRV:
		return fmt.Sprintf("Location %d", loc)
	default:
		switch {
		case in && vertex:
			return fmt.Sprintf("vertex.attrib[%d]", loc)
		case in:
			return fmt.Sprintf("fragment.texcoord[%d]", loc)
		case vertex:
			return fmt.Sprintf("result.texcoord[%d]", loc)
		}
		return fmt.Sprintf("result.color[%d]", loc)
	}
}

// resource returns the register class of s and the format of its
// decoration. Symbols of one class share a slot counter.
func (t Target) resource(s *ir.Symbol) (class, format string, err error) {
	kind := s.Kind()
	switch t.Backend {
	case BackendGLSL:
		switch kind {
		case ir.KindTexture:
			return "binding", "layout(binding = %d) uniform", nil
		case ir.KindStream:
			return "binding", "layout(std430, binding = %d) buffer", nil
		}
		return "location", "layout(location = %d) uniform", nil
	case BackendHLSL:
		switch kind {
		case ir.KindTexture:
			return "t", "register(t%d)", nil
		case ir.KindStream:
			return "u", "register(u%d)", nil
		}
		return "c", "register(c%d)", nil
	case BackendMSL:
		if kind == ir.KindTexture {
			return "texture", "[[texture(%d)]]", nil
		}
		return "buffer", "[[buffer(%d)]]", nil
	case BackendSPIRV:
		return "binding", "DescriptorSet 0 Binding %d", nil
	default:
		switch kind {
		case ir.KindTexture:
			return "texture", "texture[%d]", nil
		case ir.KindStream:
			return "", "", ir.Errorf(ir.ErrUnsupportedBinding, "%s programs cannot bind stream %s", t, s.Describe())
		}
		return "local", "program.local[%d]", nil
	}
}

// identifier derives a declaration name from the symbol name. Unnamed
// symbols are numbered by their position in the list.
func (t Target) identifier(dir Direction, i int, s *ir.Symbol) string {
	name := s.Name()
	if name == "" {
		prefix := "res"
		switch dir {
		case DirectionIn:
			prefix = "in"
		case DirectionOut:
			prefix = "out"
		}
		return fmt.Sprintf("%s%d", prefix, i)
	}
	switch t.Backend {
	case BackendGLSL:
		// In and out variables share one namespace.
		switch dir {
		case DirectionIn:
			return "in" + strcase.ToCamel(name)
		case DirectionOut:
			return "out" + strcase.ToCamel(name)
		}
		return strcase.ToLowerCamel(name)
	case BackendSPIRV:
		return strcase.ToLowerCamel(name)
	default:
		return strcase.ToSnake(name)
	}
}
