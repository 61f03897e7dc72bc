// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/kernel/bind"
	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/ir"
	"github.com/pkg/errors"
)

// Version represents a GLSL version.
type Version struct {
	Major uint8
	Minor uint8
	ES    bool // true for GLSL ES (OpenGL ES / WebGL)
}

// Common GLSL versions.
var (
	// Desktop OpenGL versions
	Version330 = Version{Major: 3, Minor: 30, ES: false} // OpenGL 3.3 Core
	Version400 = Version{Major: 4, Minor: 0, ES: false}  // OpenGL 4.0
	Version410 = Version{Major: 4, Minor: 10, ES: false} // OpenGL 4.1
	Version420 = Version{Major: 4, Minor: 20, ES: false} // OpenGL 4.2
	Version430 = Version{Major: 4, Minor: 30, ES: false} // OpenGL 4.3 (compute shaders)
	Version450 = Version{Major: 4, Minor: 50, ES: false} // OpenGL 4.5
	Version460 = Version{Major: 4, Minor: 60, ES: false} // OpenGL 4.6

	// OpenGL ES / WebGL versions
	VersionES300 = Version{Major: 3, Minor: 0, ES: true}  // ES 3.0 / WebGL 2.0
	VersionES310 = Version{Major: 3, Minor: 10, ES: true} // ES 3.1 (compute shaders)
	VersionES320 = Version{Major: 3, Minor: 20, ES: true} // ES 3.2
)

// String returns the version as a GLSL version directive value.
func (v Version) String() string {
	if v.ES {
		return fmt.Sprintf("%d%02d es", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d%02d core", v.Major, v.Minor)
}

// VersionNumber returns just the numeric version (e.g., "330", "300").
func (v Version) VersionNumber() string {
	return fmt.Sprintf("%d%02d", v.Major, v.Minor)
}

// ParseVersion parses a version number such as "330", "430 core",
// "300 es" or "310es".
func ParseVersion(s string) (Version, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	es := false
	if rest, ok := strings.CutSuffix(s, "es"); ok {
		es = true
		s = rest
	} else if rest, ok := strings.CutSuffix(s, "core"); ok {
		s = rest
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 100 || n > 999 {
		return Version{}, fmt.Errorf("invalid GLSL version %q", s)
	}
	v := Version{Major: uint8(n / 100), Minor: uint8(n % 100), ES: es}
	if v.versionLessThan(300) {
		return Version{}, fmt.Errorf("GLSL version %s is not supported, the oldest is 300 es", v)
	}
	return v, nil
}

// versionLessThan returns true if the numeric version (Major*100+Minor) is
// less than the given number. For example, versionLessThan(410) returns true
// for GLSL 330 (3*100+30=330 < 410) and false for GLSL 410 (4*100+10=410).
func (v Version) versionLessThan(number int) bool {
	return int(v.Major)*100+int(v.Minor) < number
}

// SupportsCompute returns true if this version supports compute shaders.
func (v Version) SupportsCompute() bool {
	if v.ES {
		return !v.versionLessThan(310)
	}
	return !v.versionLessThan(430)
}

// SupportsStorageBuffers returns true if this version supports storage buffers.
func (v Version) SupportsStorageBuffers() bool {
	return v.SupportsCompute()
}

// SupportsStageLocations reports whether every stage input and output may
// carry a layout location.
func (v Version) SupportsStageLocations() bool {
	if v.ES {
		return !v.versionLessThan(310)
	}
	return !v.versionLessThan(410)
}

// SupportsResourceLayouts reports whether uniforms may carry a layout
// location and samplers a layout binding.
func (v Version) SupportsResourceLayouts() bool {
	if v.ES {
		return !v.versionLessThan(310)
	}
	return !v.versionLessThan(430)
}

// WriterFlags control output formatting.
type WriterFlags uint32

const (
	// WriterFlagNone uses default settings.
	WriterFlagNone WriterFlags = 0

	// WriterFlagDebugInfo adds node numbers and the program id as comments.
	WriterFlagDebugInfo WriterFlags = 1 << iota
)

// Options configures GLSL code generation.
type Options struct {
	// LangVersion is the target GLSL version.
	// Defaults to Version330 if zero.
	LangVersion Version

	// WriterFlags control output formatting.
	WriterFlags WriterFlags

	// ForceHighPrecision forces highp precision for all float types (ES only).
	// If false, uses mediump.
	ForceHighPrecision bool
}

// DefaultOptions returns sensible default options for GLSL generation.
func DefaultOptions() Options {
	return Options{
		LangVersion:        Version330,
		ForceHighPrecision: true,
	}
}

// TranslationInfo contains metadata about the translation.
type TranslationInfo struct {
	// Attributes is the interface binding the declarations follow.
	Attributes []bind.Attribute

	// UniformDefaults holds the values of uniforms whose initializer could
	// not be written, keyed by their GLSL name. The host has to upload them.
	UniformDefaults map[string][]float64

	// Structured is false when the graph had branches and was written as
	// a node switch.
	Structured bool
}

// Compile generates GLSL source code for a program whose target backend is
// glsl. Returns the GLSL source as a string, translation info, or an error.
func Compile(p *ir.Program, options Options) (string, TranslationInfo, error) {
	if p == nil {
		return "", TranslationInfo{}, errors.Wrap(ir.Errorf(ir.ErrNullOperand, "compiling a nil program"), "glsl")
	}
	// Apply defaults for zero values
	if options.LangVersion.Major == 0 {
		options.LangVersion = Version330
	}

	t, err := bind.ParseTarget(p.Target)
	if err != nil {
		return "", TranslationInfo{}, errors.Wrap(err, "glsl")
	}
	if t.Backend != bind.BackendGLSL {
		return "", TranslationInfo{}, errors.Wrap(ir.Errorf(ir.ErrUnsupportedBinding, "cannot emit %s programs", t), "glsl")
	}

	w := newWriter(p, t, &options)
	if err := w.writeProgram(); err != nil {
		return "", TranslationInfo{}, errors.Wrap(err, "glsl")
	}

	info := TranslationInfo{
		Attributes:      w.attrs,
		UniformDefaults: w.uniformDefaults,
		Structured:      w.structured,
	}
	return w.String(), info, nil
}

// CompileHandle resolves the bindings of h and compiles the result.
func CompileHandle(h *compose.Handle, options Options) (string, TranslationInfo, error) {
	if h == nil {
		return "", TranslationInfo{}, errors.Wrap(ir.Errorf(ir.ErrNullOperand, "compiling a nil handle"), "glsl")
	}
	p, err := h.Resolve()
	if err != nil {
		return "", TranslationInfo{}, err
	}
	return Compile(p, options)
}
