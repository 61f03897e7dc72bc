// Package kernel composes stream kernels: small straight-line or looping
// programs over vector channels that run once per stream element.
//
// Kernels are written in kernel assembly (package kasm) or built with
// ir.Builder, and combined with the algebra in package compose:
//
//	scale, err := kernel.Compile("input x:4\noutput y:4\ny = mul x, 2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bias, _ := kernel.Compile("input y:4\noutput z:4\nz = add y, 1")
//	both, err := kernel.Connect(scale, bias)
//
// Named pipelines of kernels can be kept in a YAML or TOML file and built
// with LoadPipeline. For backend attribute bindings, use the bind package:
//
//	attrs, err := bind.ResolveHandle(both)
//
// Kernels targeting glsl can be turned into shader source with the glsl
// package:
//
//	source, info, err := glsl.CompileHandle(both, glsl.DefaultOptions())
package kernel

import (
	"context"
	"fmt"

	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/ir"
	"github.com/gogpu/kernel/kasm"
	"github.com/gogpu/kernel/opt"
	"github.com/gogpu/kernel/pipeline"
	"github.com/spf13/afero"
)

// CompileOptions configures kernel compilation.
type CompileOptions struct {
	// Target replaces the target line of the source when set.
	Target string

	// Validate enables IR validation after lowering.
	Validate bool

	// Optimize runs the optimizer on the lowered program.
	Optimize bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() CompileOptions {
	return CompileOptions{
		Validate: true,
		Optimize: false,
	}
}

// Compile compiles kernel assembly to a handle using default options.
func Compile(source string) (*compose.Handle, error) {
	return CompileWithOptions(source, DefaultOptions())
}

// CompileWithOptions compiles kernel assembly to a handle with custom
// options.
//
// The compilation pipeline is:
//  1. Parse kernel assembly to an AST
//  2. Lower the AST to a program
//  3. Validate the program (if enabled)
//  4. Optimize the program (if enabled)
func CompileWithOptions(source string, opts CompileOptions) (*compose.Handle, error) {
	file, err := Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	p, err := LowerWithSource(file, source)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	if opts.Target != "" {
		p.Target = opts.Target
	}

	if opts.Validate {
		validationErrors, err := Validate(p)
		if err != nil {
			return nil, fmt.Errorf("validation error: %w", err)
		}
		if len(validationErrors) > 0 {
			return nil, fmt.Errorf("validation failed: %w", &validationErrors[0])
		}
	}

	if opts.Optimize {
		opt.Optimize(p, opt.DefaultOptions())
	}
	return compose.NewHandle(p), nil
}

// Parse parses kernel assembly to an AST.
func Parse(source string) (*kasm.File, error) {
	return kasm.Parse(source)
}

// Lower converts a kernel assembly AST to a program.
func Lower(file *kasm.File) (*ir.Program, error) {
	return LowerWithSource(file, "")
}

// LowerWithSource converts an AST to a program, keeping source for error
// messages.
func LowerWithSource(file *kasm.File, source string) (*ir.Program, error) {
	return kasm.LowerWithSource(file, source)
}

// Validate validates a program for correctness.
//
// Returns a slice of validation errors. If the slice is empty, validation
// passed.
func Validate(p *ir.Program) ([]ir.ValidationError, error) {
	return ir.Validate(p)
}

// Connect feeds the outputs of a into the inputs of b.
func Connect(a, b *compose.Handle) (*compose.Handle, error) {
	return compose.Connect(a, b)
}

// Combine runs a and b side by side.
func Combine(a, b *compose.Handle) (*compose.Handle, error) {
	return compose.Combine(a, b)
}

// LoadPipeline reads the pipeline file at path from fs and builds all of
// its pipelines with the default composer.
func LoadPipeline(ctx context.Context, fs afero.Fs, path string) (*pipeline.Result, error) {
	cfg, err := pipeline.Load(fs, path)
	if err != nil {
		return nil, err
	}
	return cfg.Build(ctx, nil)
}
