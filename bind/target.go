// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package bind assigns attribute locations, builtins and resource slots to
// the interface of a program.
//
// The assignment depends on the program's target string, "<backend>:<stage>".
// Each backend follows the conventions its shading language uses for stage
// inputs and outputs:
//
//	backend  stage input            stage output          position builtin
//	glsl     layout(location = N)   layout(location = N)  gl_Position / gl_FragCoord
//	hlsl     TEXCOORDN              TEXCOORDN, SV_TargetN SV_Position
//	msl      [[attribute(N)]]       [[user(locnN)]]       [[position]]
//	spirv    Location N             Location N            BuiltIn Position / FragCoord
//	arb      vertex.attrib[N]       result.texcoord[N]    result.position
//
// Compute kernels read and write streams and have no attribute interface.
package bind

import (
	"strings"

	"github.com/gogpu/kernel/ir"
)

// Backend is a code generator family.
type Backend uint8

const (
	// BackendARB is the ARB assembly program format.
	BackendARB Backend = iota
	// BackendGLSL is OpenGL Shading Language.
	BackendGLSL
	// BackendHLSL is DirectX High-Level Shading Language.
	BackendHLSL
	// BackendMSL is Metal Shading Language.
	BackendMSL
	// BackendSPIRV is Vulkan SPIR-V.
	BackendSPIRV
)

var backendNames = [...]string{
	BackendARB:   "arb",
	BackendGLSL:  "glsl",
	BackendHLSL:  "hlsl",
	BackendMSL:   "msl",
	BackendSPIRV: "spirv",
}

var backendAliases = map[string]Backend{
	"arb":   BackendARB,
	"glsl":  BackendGLSL,
	"hlsl":  BackendHLSL,
	"msl":   BackendMSL,
	"metal": BackendMSL,
	"spirv": BackendSPIRV,
	"spv":   BackendSPIRV,
}

func (b Backend) String() string {
	if int(b) < len(backendNames) {
		return backendNames[b]
	}
	return "unknown"
}

// Stage is the pipeline stage a kernel runs in.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

var stageAliases = map[string]Stage{
	"vertex":   StageVertex,
	"vs":       StageVertex,
	"fragment": StageFragment,
	"fs":       StageFragment,
	"pixel":    StageFragment,
	"ps":       StageFragment,
	"compute":  StageCompute,
	"cs":       StageCompute,
}

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Target is a parsed target string.
type Target struct {
	Backend Backend
	Stage   Stage
}

// ParseTarget parses "<backend>:<stage>". Names are case-insensitive and
// accept the usual short forms ("spv", "vs", "ps", ...).
func ParseTarget(s string) (Target, error) {
	if s == "" {
		return Target{}, ir.Errorf(ir.ErrUnsupportedBinding, "program has no target")
	}
	backend, stage, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	if !ok {
		return Target{}, ir.Errorf(ir.ErrUnsupportedBinding, "target %q is not <backend>:<stage>", s)
	}
	b, ok := backendAliases[backend]
	if !ok {
		return Target{}, ir.Errorf(ir.ErrUnsupportedBinding, "unknown backend %q in target %q", backend, s)
	}
	st, ok := stageAliases[stage]
	if !ok {
		return Target{}, ir.Errorf(ir.ErrUnsupportedBinding, "unknown stage %q in target %q", stage, s)
	}
	return Target{Backend: b, Stage: st}, nil
}

// MustParseTarget is like ParseTarget but panics on error.
func MustParseTarget(s string) Target {
	t, err := ParseTarget(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the canonical target string.
func (t Target) String() string {
	return t.Backend.String() + ":" + t.Stage.String()
}
