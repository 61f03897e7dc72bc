// Package kasm reads kernel assembly, a line-oriented text form of kernels.
//
// A file declares symbols and lists instructions, one per line:
//
//	target glsl:fragment
//	input  uv:2 texcoord
//	uniform tint:4 color = 1, 0.5, 0.5, 1
//	texture albedo:4
//	output color:4 color
//	temp   t:4
//
//	t = tex albedo, uv
//	color = mul t, tint
//	if t.w
//	    color.w = 1
//	endif
//
// Operands are "[-]name[.swizzle]" or numeric literals ("0.5", "(1, 0, 0)"),
// which become shared constants. "dst = src" assigns; "kill src",
// "if"/"else"/"endif" and "while"/"endwhile" build control flow. Comments
// start with "#" or "//".
package kasm

import (
	"github.com/gogpu/kernel/ir"
)

// Parse tokenizes and parses source.
func Parse(source string) (*File, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, source).Parse()
}

// Compile parses and lowers source into a program.
func Compile(source string) (*ir.Program, error) {
	result, err := CompileWithWarnings(source)
	if err != nil {
		return nil, err
	}
	return result.Program, nil
}

// CompileWithWarnings is Compile, also returning lowering warnings.
func CompileWithWarnings(source string) (*LowerResult, error) {
	file, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return LowerWithWarnings(file, source)
}
