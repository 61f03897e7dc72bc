// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl emits OpenGL Shading Language source for kernel programs.
//
// Programs whose target backend is glsl become a single shader whose main
// function runs the instruction graph. Stage inputs and outputs, uniforms
// and textures are declared with the attribute bindings chosen by package
// bind, so the emitted interface matches what bind reports for the same
// program. Every symbol is a float or vecN:
//
//	#version 410 core
//
//	layout(location = 0) in vec3 inA;
//	layout(location = 0) out vec3 outO;
//	uniform float scale = 2.0;
//
//	void main() {
//	    vec3 a = inA;
//	    vec3 o = vec3(0.0);
//	    o = (a * vec3(scale));
//	    outO = o;
//	}
//
// Straight-line graphs are written inline. Graphs with branches become a
// switch over node numbers inside a loop, which keeps arbitrary control
// flow (including loops built from back edges) expressible without goto.
//
// # Versions
//
// Explicit locations for stage variables are used from GLSL 4.10 and
// GLSL ES 3.10; explicit uniform locations and texture bindings from 4.30
// and ES 3.10. Older versions fall back to plain in, out and uniform
// declarations. Uniform initializers are only legal in desktop GLSL; for
// ES the values are reported in TranslationInfo.UniformDefaults instead.
//
// # Reserved Words
//
// Local names are derived from symbol names. Names that collide with GLSL
// reserved words are prefixed with an underscore.
package glsl
