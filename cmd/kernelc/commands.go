package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/diag"
	"github.com/gogpu/kernel/glsl"
	"github.com/gogpu/kernel/internal/errwrap"
	"github.com/gogpu/kernel/interp"
	"github.com/gogpu/kernel/ir"
	"github.com/gogpu/kernel/kasm"
	"github.com/gogpu/kernel/pipeline"
	"github.com/spf13/afero"
)

// DescribeArgs prints the interface of a kernel.
type DescribeArgs struct {
	Input string `arg:"positional,required" help:"kernel assembly file"`
}

// BindingsArgs prints the backend attribute bindings of a kernel.
type BindingsArgs struct {
	Target string `arg:"--target" help:"bind for this target instead of the file's"`
	Input  string `arg:"positional,required" help:"kernel assembly file"`
}

// DumpArgs prints the instruction graph of a kernel.
type DumpArgs struct {
	Raw   bool   `arg:"--raw" help:"dump the Go structures instead of the listing"`
	Input string `arg:"positional,required" help:"kernel assembly file"`
}

// RunArgs evaluates a kernel.
type RunArgs struct {
	Inputs   []string `arg:"-i,--input,separate" help:"comma separated values of the next free input"`
	Uniforms []string `arg:"-u,--uniform,separate" help:"name=values override of a uniform"`
	Steps    int      `arg:"--steps" default:"65536" help:"bound on visited nodes, 0 for none"`
	Input    string   `arg:"positional,required" help:"kernel assembly file"`
}

// GLSLArgs emits GLSL for a kernel or for one pipeline of a pipeline file.
type GLSLArgs struct {
	Lang      string `arg:"--lang" default:"330" help:"GLSL version, e.g. 330, 430 or 300es"`
	Target    string `arg:"--target" help:"emit for this target instead of the file's"`
	Name      string `arg:"--name" help:"treat the input as a pipeline file and emit this pipeline"`
	DebugInfo bool   `arg:"--debug-info" help:"annotate the output with node numbers"`
	Input     string `arg:"positional,required" help:"kernel assembly or pipeline file"`
}

// PipelineArgs builds the pipelines of a pipeline file.
type PipelineArgs struct {
	Name   string   `arg:"--name" help:"only this pipeline"`
	Inputs []string `arg:"-i,--input,separate" help:"run the pipeline on these values, needs --name"`
	Input  string   `arg:"positional,required" help:"pipeline file (yaml or toml)"`
}

// compile reads and compiles a kernel assembly file, logging its warnings.
func (e *env) compile(path string) (*ir.Program, error) {
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't read kernel")
	}
	res, err := kasm.CompileWithWarnings(string(data))
	if err != nil {
		switch err := err.(type) {
		case *kasm.SourceError:
			return nil, fmt.Errorf("%s:\n%s", path, err.FormatWithContext())
		case kasm.SourceErrors:
			return nil, fmt.Errorf("%s:\n%s", path, err.FormatAll())
		}
		return nil, errwrap.Wrapf(err, "%s", path)
	}
	for _, w := range res.Warnings {
		e.logger.Warnf("%s:%v", path, w)
	}
	return res.Program, nil
}

// Run is the describe subcommand.
func (obj *DescribeArgs) Run(e *env) error {
	p, err := e.compile(obj.Input)
	if err != nil {
		return err
	}
	return diag.Interface(e.out, p)
}

// Run is the bindings subcommand.
func (obj *BindingsArgs) Run(e *env) error {
	p, err := e.compile(obj.Input)
	if err != nil {
		return err
	}
	if obj.Target != "" {
		e.logger.Debugf("overriding target %q with %q", p.Target, obj.Target)
		p.Target = obj.Target
	}
	return diag.Bindings(e.out, compose.NewHandle(p))
}

// Run is the dump subcommand.
func (obj *DumpArgs) Run(e *env) error {
	p, err := e.compile(obj.Input)
	if err != nil {
		return err
	}
	if !obj.Raw {
		return ir.Dump(e.out, p)
	}
	cfg := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                6,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	cfg.Fdump(e.out, p)
	return nil
}

// Run is the run subcommand.
func (obj *RunArgs) Run(e *env) error {
	p, err := e.compile(obj.Input)
	if err != nil {
		return err
	}
	inputs, err := parseVectors(obj.Inputs)
	if err != nil {
		return err
	}
	opts := interp.Options{MaxSteps: obj.Steps, Uniforms: map[string][]float64{}}
	for _, u := range obj.Uniforms {
		name, values, ok := strings.Cut(u, "=")
		if !ok {
			return fmt.Errorf("uniform %q is not name=values", u)
		}
		v, err := parseVector(values)
		if err != nil {
			return errwrap.Wrapf(err, "uniform %s", name)
		}
		opts.Uniforms[name] = v
	}
	return e.run(p, inputs, opts)
}

func (e *env) run(p *ir.Program, inputs [][]float64, opts interp.Options) error {
	res, err := interp.Run(p, inputs, opts)
	if err != nil {
		return err
	}
	e.logger.Debugf("visited %d nodes", res.Steps)
	for i, out := range res.Outputs {
		fmt.Fprintf(e.out, "%s = %s\n", p.Outputs[i], formatVector(out))
	}
	if res.Killed {
		fmt.Fprintln(e.out, "killed")
	}
	return nil
}

// Run is the glsl subcommand.
func (obj *GLSLArgs) Run(e *env) error {
	version, err := glsl.ParseVersion(obj.Lang)
	if err != nil {
		return err
	}
	opts := glsl.DefaultOptions()
	opts.LangVersion = version
	if obj.DebugInfo {
		opts.WriterFlags |= glsl.WriterFlagDebugInfo
	}

	var p *ir.Program
	if obj.Name == "" {
		if p, err = e.compile(obj.Input); err != nil {
			return err
		}
	} else {
		h, err := e.pipeline(obj.Input, obj.Name)
		if err != nil {
			return err
		}
		if p, err = h.Resolve(); err != nil {
			return err
		}
	}
	if obj.Target != "" {
		e.logger.Debugf("overriding target %q with %q", p.Target, obj.Target)
		p.Target = obj.Target
	}

	source, info, err := glsl.Compile(p, opts)
	if err != nil {
		return err
	}
	for name := range info.UniformDefaults {
		e.logger.Warnf("uniform %s has a value GLSL %s cannot initialize", name, version)
	}
	_, err = io.WriteString(e.out, source)
	return err
}

// pipeline builds a single named pipeline of a pipeline file.
func (e *env) pipeline(path, name string) (*compose.Handle, error) {
	cfg, err := pipeline.Load(e.fs, path)
	if err != nil {
		return nil, err
	}
	expr, ok := cfg.Pipelines[name]
	if !ok {
		return nil, fmt.Errorf("no pipeline named %s in %s", name, path)
	}
	cfg.Pipelines = map[string]string{name: expr}
	res, err := cfg.Build(context.Background(), e.composer)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		e.logger.Warnf("%s", w)
	}
	return res.Pipelines[name], nil
}

// Run is the pipeline subcommand.
func (obj *PipelineArgs) Run(e *env) error {
	if len(obj.Inputs) > 0 {
		if obj.Name == "" {
			return fmt.Errorf("--input needs --name")
		}
		inputs, err := parseVectors(obj.Inputs)
		if err != nil {
			return err
		}
		h, err := e.pipeline(obj.Input, obj.Name)
		if err != nil {
			return err
		}
		p, err := h.Resolve()
		if err != nil {
			return err
		}
		return e.run(p, inputs, interp.DefaultOptions())
	}

	cfg, err := pipeline.Load(e.fs, obj.Input)
	if err != nil {
		return err
	}
	if obj.Name != "" {
		expr, ok := cfg.Pipelines[obj.Name]
		if !ok {
			return fmt.Errorf("no pipeline named %s in %s", obj.Name, obj.Input)
		}
		cfg.Pipelines = map[string]string{obj.Name: expr}
	}
	res, err := cfg.Build(context.Background(), e.composer)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		e.logger.Warnf("%s", w)
	}
	for _, name := range res.Names() {
		fmt.Fprintf(e.out, "%s: %s\n", name, cfg.Pipelines[name])
		if err := diag.Interface(e.out, res.Pipelines[name].Graph()); err != nil {
			return err
		}
	}
	return nil
}

func parseVectors(args []string) ([][]float64, error) {
	out := make([][]float64, len(args))
	for i, a := range args {
		v, err := parseVector(a)
		if err != nil {
			return nil, errwrap.Wrapf(err, "input %d", i)
		}
		out[i] = v
	}
	return out, nil
}

func parseVector(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
