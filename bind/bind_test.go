// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bind

import (
	"errors"
	"testing"

	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/ir"
	"github.com/google/go-cmp/cmp"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want Target
	}{
		{"glsl:vertex", Target{BackendGLSL, StageVertex}},
		{"HLSL:ps", Target{BackendHLSL, StageFragment}},
		{"metal:fragment", Target{BackendMSL, StageFragment}},
		{"spv:cs", Target{BackendSPIRV, StageCompute}},
		{" arb:vs ", Target{BackendARB, StageVertex}},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		if err != nil {
			t.Errorf("ParseTarget(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTarget(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "glsl", "dx9:vertex", "glsl:geometry"} {
		_, err := ParseTarget(bad)
		if !errors.Is(err, ir.ErrUnsupportedBinding) {
			t.Errorf("ParseTarget(%q): expected ErrUnsupportedBinding, got %v", bad, err)
		}
	}
}

func TestTarget_String(t *testing.T) {
	if got := MustParseTarget("spv:ps").String(); got != "spirv:fragment" {
		t.Errorf("String() = %q, want %q", got, "spirv:fragment")
	}
}

func sym(kind ir.SymbolKind, size int, name string, sem ir.Semantic) *ir.Symbol {
	return ir.Declare(ir.SymbolInfo{Kind: kind, Size: size, Name: name, Semantic: sem})
}

// decorations lists identifier=decoration pairs for compact comparison.
func decorations(attrs []Attribute) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Identifier + "=" + a.Decoration
	}
	return out
}

func vertexInterface() (in, out []*ir.Symbol) {
	in = []*ir.Symbol{
		sym(ir.KindInput, 4, "position", ir.SemanticPosition),
		sym(ir.KindInput, 3, "vertexNormal", ir.SemanticNormal),
	}
	out = []*ir.Symbol{
		sym(ir.KindOutput, 3, "vertexNormal", ir.SemanticNormal),
		sym(ir.KindOutput, 4, "clip_pos", ir.SemanticPosition),
		sym(ir.KindOutput, 2, "", ir.SemanticTexCoord),
	}
	return in, out
}

func TestAttributes_Vertex(t *testing.T) {
	in, out := vertexInterface()
	tests := []struct {
		target string
		want   []string
	}{
		{"glsl:vertex", []string{
			"inPosition=layout(location = 0) in",
			"inVertexNormal=layout(location = 1) in",
			"outVertexNormal=layout(location = 0) out",
			"gl_Position=gl_Position",
			"out2=layout(location = 1) out",
		}},
		{"hlsl:vertex", []string{
			"position=TEXCOORD0",
			"vertex_normal=TEXCOORD1",
			"vertex_normal=TEXCOORD0",
			"clip_pos=SV_Position",
			"out2=TEXCOORD1",
		}},
		{"msl:vertex", []string{
			"position=[[attribute(0)]]",
			"vertex_normal=[[attribute(1)]]",
			"vertex_normal=[[user(locn0)]]",
			"clip_pos=[[position]]",
			"out2=[[user(locn1)]]",
		}},
		{"spirv:vertex", []string{
			"position=Location 0",
			"vertexNormal=Location 1",
			"vertexNormal=Location 0",
			"clipPos=BuiltIn Position",
			"out2=Location 1",
		}},
		{"arb:vertex", []string{
			"position=vertex.attrib[0]",
			"vertex_normal=vertex.attrib[1]",
			"vertex_normal=result.texcoord[0]",
			"clip_pos=result.position",
			"out2=result.texcoord[1]",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			attrs, err := MustParseTarget(tt.target).Attributes(in, out, nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, decorations(attrs)); diff != "" {
				t.Errorf("decorations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAttributes_Fragment(t *testing.T) {
	in := []*ir.Symbol{
		sym(ir.KindInput, 2, "uv", ir.SemanticTexCoord),
		sym(ir.KindInput, 4, "frag_coord", ir.SemanticPosition),
	}
	out := []*ir.Symbol{
		sym(ir.KindOutput, 4, "color", ir.SemanticColor),
		sym(ir.KindOutput, 4, "normal", ir.SemanticNormal),
	}
	tests := []struct {
		target string
		want   []string
	}{
		{"hlsl:fragment", []string{"uv=TEXCOORD0", "frag_coord=SV_Position", "color=SV_Target0", "normal=SV_Target1"}},
		{"msl:fragment", []string{"uv=[[user(locn0)]]", "frag_coord=[[position]]", "color=[[color(0)]]", "normal=[[color(1)]]"}},
		{"glsl:fragment", []string{"inUv=layout(location = 0) in", "gl_FragCoord=gl_FragCoord",
			"outColor=layout(location = 0) out", "outNormal=layout(location = 1) out"}},
		{"arb:fragment", []string{"uv=fragment.texcoord[0]", "frag_coord=fragment.position",
			"color=result.color[0]", "normal=result.color[1]"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			attrs, err := MustParseTarget(tt.target).Attributes(in, out, nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, decorations(attrs)); diff != "" {
				t.Errorf("decorations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAttributes_PositionOnlyOnce(t *testing.T) {
	out := []*ir.Symbol{
		sym(ir.KindOutput, 4, "a", ir.SemanticPosition),
		sym(ir.KindOutput, 4, "b", ir.SemanticPosition),
	}
	attrs, err := MustParseTarget("hlsl:vs").Attributes(nil, out, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !attrs[0].Builtin() || attrs[1].Builtin() {
		t.Errorf("Expected only the first position to be a builtin, got %v", decorations(attrs))
	}
	if attrs[1].Location != 0 {
		t.Errorf("Expected the second position at location 0, got %d", attrs[1].Location)
	}
}

func TestAttributes_Resources(t *testing.T) {
	res := []*ir.Symbol{
		sym(ir.KindUniform, 4, "tint", ir.SemanticColor),
		sym(ir.KindTexture, 1, "albedo", ir.SemanticAttrib),
		sym(ir.KindUniform, 1, "", ir.SemanticAttrib),
		sym(ir.KindTexture, 1, "normal_map", ir.SemanticAttrib),
	}
	tests := []struct {
		target string
		want   []string
	}{
		{"hlsl:ps", []string{"tint=register(c0)", "albedo=register(t0)", "res2=register(c1)", "normal_map=register(t1)"}},
		{"msl:ps", []string{"tint=[[buffer(0)]]", "albedo=[[texture(0)]]", "res2=[[buffer(1)]]", "normal_map=[[texture(1)]]"}},
		{"spirv:ps", []string{"tint=DescriptorSet 0 Binding 0", "albedo=DescriptorSet 0 Binding 1",
			"res2=DescriptorSet 0 Binding 2", "normalMap=DescriptorSet 0 Binding 3"}},
		{"arb:ps", []string{"tint=program.local[0]", "albedo=texture[0]", "res2=program.local[1]", "normal_map=texture[1]"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			attrs, err := MustParseTarget(tt.target).Attributes(nil, nil, res)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, decorations(attrs)); diff != "" {
				t.Errorf("decorations mismatch (-want +got):\n%s", diff)
			}
			for _, a := range attrs {
				if a.Direction != DirectionResource {
					t.Errorf("Expected %s to be a resource, got %s", a.Identifier, a.Direction)
				}
			}
		})
	}
}

func TestAttributes_Unsupported(t *testing.T) {
	in := []*ir.Symbol{sym(ir.KindInput, 1, "x", ir.SemanticAttrib)}
	if _, err := MustParseTarget("glsl:compute").Attributes(in, nil, nil); !errors.Is(err, ir.ErrUnsupportedBinding) {
		t.Errorf("Expected ErrUnsupportedBinding for compute attributes, got %v", err)
	}

	stream := []*ir.Symbol{sym(ir.KindStream, 4, "s", ir.SemanticAttrib)}
	if _, err := MustParseTarget("arb:compute").Attributes(nil, nil, stream); !errors.Is(err, ir.ErrUnsupportedBinding) {
		t.Errorf("Expected ErrUnsupportedBinding for an ARB stream, got %v", err)
	}
	attrs, err := MustParseTarget("glsl:compute").Attributes(nil, nil, stream)
	if err != nil {
		t.Fatal(err)
	}
	if attrs[0].Decoration != "layout(std430, binding = 0) buffer" {
		t.Errorf("Expected a storage buffer, got %q", attrs[0].Decoration)
	}
}

func TestResolve(t *testing.T) {
	b := ir.Begin("glsl:fragment")
	x := b.InOut(4, "color")
	k := b.Uniform(4, "tint", 1, 1, 1, 1)
	if err := b.Emit(ir.OpMul, ir.Full(x), ir.Full(x), ir.Full(k)); err != nil {
		t.Fatal(err)
	}
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := Resolve(p)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"inColor=layout(location = 0) in",
		"outColor=layout(location = 0) out",
		"tint=layout(location = 0) uniform",
	}
	if diff := cmp.Diff(want, decorations(attrs)); diff != "" {
		t.Errorf("decorations mismatch (-want +got):\n%s", diff)
	}
	if attrs[0].Symbol != attrs[1].Symbol {
		t.Error("Expected the inout symbol in both directions")
	}

	p.Target = ""
	if _, err := Resolve(p); !errors.Is(err, ir.ErrUnsupportedBinding) {
		t.Errorf("Expected ErrUnsupportedBinding without a target, got %v", err)
	}
	if _, err := Resolve(nil); !errors.Is(err, ir.ErrNullOperand) {
		t.Errorf("Expected ErrNullOperand, got %v", err)
	}
}

func TestResolveHandle(t *testing.T) {
	b := ir.Begin("hlsl:ps")
	k := b.Input(1, "k")
	x := b.Input(1, "x")
	y := b.Output(1, "y")
	if err := b.Emit(ir.OpMul, ir.Full(y), ir.Full(x), ir.Full(k)); err != nil {
		t.Fatal(err)
	}
	p, err := b.End()
	if err != nil {
		t.Fatal(err)
	}
	u := ir.Declare(ir.SymbolInfo{Kind: ir.KindUniform, Size: 1, Name: "gain"})
	h, err := compose.NewHandle(p).Bind(compose.BindUniform, u)
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := ResolveHandle(h)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"x=TEXCOORD0", "y=SV_Target0", "gain=register(c0)"}
	if diff := cmp.Diff(want, decorations(attrs)); diff != "" {
		t.Errorf("decorations mismatch (-want +got):\n%s", diff)
	}
}
