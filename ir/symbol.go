package ir

import (
	"fmt"
	"sync/atomic"
)

// SymbolKind is the role of a symbol inside a program.
type SymbolKind uint8

const (
	KindInput SymbolKind = iota
	KindOutput
	KindInOut
	KindTemp
	KindConst
	KindUniform
	KindStream
	KindTexture
)

// String returns the lower-case kind name used in dumps and kernel assembly.
func (k SymbolKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	case KindInOut:
		return "inout"
	case KindTemp:
		return "temp"
	case KindConst:
		return "const"
	case KindUniform:
		return "uniform"
	case KindStream:
		return "stream"
	case KindTexture:
		return "texture"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ScalarKind is the element type of a symbol.
type ScalarKind uint8

const (
	ScalarFloat32 ScalarKind = iota
	ScalarFloat16
	ScalarInt32
	ScalarUint32
	ScalarBool
)

func (s ScalarKind) String() string {
	switch s {
	case ScalarFloat32:
		return "float32"
	case ScalarFloat16:
		return "float16"
	case ScalarInt32:
		return "int32"
	case ScalarUint32:
		return "uint32"
	case ScalarBool:
		return "bool"
	default:
		return fmt.Sprintf("scalar(%d)", uint8(s))
	}
}

// ParseScalar maps a scalar name, long ("float32") or short ("f32"), back to
// its value.
func ParseScalar(name string) (ScalarKind, bool) {
	switch name {
	case "float32", "f32":
		return ScalarFloat32, true
	case "float16", "f16":
		return ScalarFloat16, true
	case "int32", "i32":
		return ScalarInt32, true
	case "uint32", "u32":
		return ScalarUint32, true
	case "bool":
		return ScalarBool, true
	}
	return 0, false
}

// Semantic describes how a value is interpreted by backends when they pick
// attribute bindings.
type Semantic uint8

const (
	SemanticAttrib Semantic = iota
	SemanticPoint
	SemanticVector
	SemanticNormal
	SemanticColor
	SemanticTexCoord
	SemanticPosition
)

var semanticNames = [...]string{
	SemanticAttrib:   "attrib",
	SemanticPoint:    "point",
	SemanticVector:   "vector",
	SemanticNormal:   "normal",
	SemanticColor:    "color",
	SemanticTexCoord: "texcoord",
	SemanticPosition: "position",
}

func (s Semantic) String() string {
	if int(s) < len(semanticNames) {
		return semanticNames[s]
	}
	return fmt.Sprintf("semantic(%d)", uint8(s))
}

// ParseSemantic maps a semantic name back to its value.
func ParseSemantic(name string) (Semantic, bool) {
	for i, n := range semanticNames {
		if n == name {
			return Semantic(i), true
		}
	}
	return 0, false
}

// SymbolInfo carries everything needed to declare a symbol.
type SymbolInfo struct {
	Kind     SymbolKind
	Size     int
	Scalar   ScalarKind
	Semantic Semantic
	Name     string

	// Value is the payload of Const and Uniform symbols. It is either empty
	// or exactly Size elements long.
	Value []float64
}

// Symbol is a typed, sized register descriptor. Identity is pointer identity.
// Symbols never change after construction; see Clone and Renamed.
type Symbol struct {
	id   uint64
	info SymbolInfo
}

var lastSymbolID atomic.Uint64

// Declare allocates a new symbol. It panics on a size below one or a value
// payload whose length disagrees with the size.
func Declare(info SymbolInfo) *Symbol {
	if info.Size < 1 {
		panic(fmt.Sprintf("ir: symbol %q declared with size %d", info.Name, info.Size))
	}
	if len(info.Value) != 0 && len(info.Value) != info.Size {
		panic(fmt.Sprintf("ir: symbol %q has %d values for size %d", info.Name, len(info.Value), info.Size))
	}
	if info.Value != nil {
		info.Value = append([]float64(nil), info.Value...)
	}
	return &Symbol{
		id:   lastSymbolID.Add(1),
		info: info,
	}
}

// NewSymbol declares a float32 attribute symbol.
func NewSymbol(kind SymbolKind, size int, name string) *Symbol {
	return Declare(SymbolInfo{Kind: kind, Size: size, Name: name})
}

// NewTemp declares an anonymous temporary of the given size.
func NewTemp(size int) *Symbol {
	return Declare(SymbolInfo{Kind: KindTemp, Size: size})
}

// Accessors.
func (s *Symbol) ID() uint64         { return s.id }
func (s *Symbol) Kind() SymbolKind   { return s.info.Kind }
func (s *Symbol) Size() int          { return s.info.Size }
func (s *Symbol) Scalar() ScalarKind { return s.info.Scalar }
func (s *Symbol) Semantic() Semantic { return s.info.Semantic }
func (s *Symbol) Name() string       { return s.info.Name }
func (s *Symbol) HasValue() bool     { return len(s.info.Value) != 0 }

// Value returns a copy of the constant payload.
func (s *Symbol) Value() []float64 {
	if s.info.Value == nil {
		return nil
	}
	return append([]float64(nil), s.info.Value...)
}

// Info returns a copy of the declaration.
func (s *Symbol) Info() SymbolInfo {
	info := s.info
	info.Value = s.Value()
	return info
}

// IsInput reports whether the symbol is read from outside (Input or InOut).
func (s *Symbol) IsInput() bool {
	return s.info.Kind == KindInput || s.info.Kind == KindInOut
}

// IsOutput reports whether the symbol is written for the outside (Output or InOut).
func (s *Symbol) IsOutput() bool {
	return s.info.Kind == KindOutput || s.info.Kind == KindInOut
}

// IsInOut reports whether the symbol is both read and written for the outside.
func (s *Symbol) IsInOut() bool {
	return s.info.Kind == KindInOut
}

// IsResource reports whether the symbol is a texture or stream.
func (s *Symbol) IsResource() bool {
	return s.info.Kind == KindTexture || s.info.Kind == KindStream
}

// SameType reports whether two symbols have equal size and scalar type.
func (s *Symbol) SameType(o *Symbol) bool {
	return s.info.Size == o.info.Size && s.info.Scalar == o.info.Scalar
}

// IsLocal reports whether the symbol belongs to a single program: inputs,
// outputs and temporaries. Constants, uniforms and resources may be shared.
func (s *Symbol) IsLocal() bool {
	switch s.info.Kind {
	case KindInput, KindOutput, KindInOut, KindTemp:
		return true
	}
	return false
}

// Clone returns a fresh symbol with the same type and name and the given kind.
func (s *Symbol) Clone(kind SymbolKind) *Symbol {
	info := s.info
	info.Kind = kind
	return Declare(info)
}

// Renamed returns a fresh symbol of the same kind and type with a new name.
func (s *Symbol) Renamed(name string) *Symbol {
	info := s.info
	info.Name = name
	return Declare(info)
}

// String returns the symbol name, or a generated one for anonymous symbols.
func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	if s.info.Name != "" {
		return s.info.Name
	}
	switch s.info.Kind {
	case KindTemp:
		return fmt.Sprintf("t%d", s.id)
	case KindConst:
		return fmt.Sprintf("c%d", s.id)
	default:
		return fmt.Sprintf("%s%d", s.info.Kind, s.id)
	}
}

// Describe returns "kind name:size scalar semantic", used in error messages
// and diagnostics.
func (s *Symbol) Describe() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s:%d %s %s", s.info.Kind, s, s.info.Size, s.info.Scalar, s.info.Semantic)
}
