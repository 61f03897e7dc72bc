// Command kernelc inspects kernel assembly files and composes pipelines.
//
// Usage:
//
//	kernelc [--debug] [--no-optimize] [--metrics] <command> [args]
//
// Examples:
//
//	kernelc describe blur.kasm                 # interface and diagnostics
//	kernelc bindings blur.kasm                 # backend attribute bindings
//	kernelc dump --raw blur.kasm               # instruction graph
//	kernelc run -i 1,2,3 -i 0.5 blur.kasm      # evaluate on inputs
//	kernelc glsl --lang 430 blur.kasm          # GLSL source
//	kernelc pipeline post.yaml                 # build every pipeline
//	kernelc pipeline --name main -i 1 post.yaml
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/internal/errwrap"
	"github.com/gogpu/kernel/internal/logging"
	"github.com/gogpu/kernel/metrics"
	"github.com/gogpu/kernel/opt"
	"github.com/spf13/afero"
)

const kernelcVersion = "0.1.0-dev"

// Args is the top-level command line structure.
type Args struct {
	Debug      bool `arg:"--debug" help:"verbose logging with caller annotations"`
	NoOptimize bool `arg:"--no-optimize" help:"skip optimization of composed programs"`
	Metrics    bool `arg:"--metrics" help:"print composition counters on exit"`

	DescribeCmd *DescribeArgs `arg:"subcommand:describe" help:"print the interface of a kernel"`
	BindingsCmd *BindingsArgs `arg:"subcommand:bindings" help:"print the backend attribute bindings of a kernel"`
	DumpCmd     *DumpArgs     `arg:"subcommand:dump" help:"print the instruction graph of a kernel"`
	RunCmd      *RunArgs      `arg:"subcommand:run" help:"evaluate a kernel on input vectors"`
	GLSLCmd     *GLSLArgs     `arg:"subcommand:glsl" help:"emit GLSL for a kernel or a pipeline"`
	PipelineCmd *PipelineArgs `arg:"subcommand:pipeline" help:"build the pipelines of a pipeline file"`
}

// Version is part of the go-arg API.
func (obj *Args) Version() string {
	return "kernelc " + kernelcVersion
}

// Description is part of the go-arg API.
func (obj *Args) Description() string {
	return "kernelc compiles and composes stream kernels"
}

// env is what every subcommand runs against.
type env struct {
	fs       afero.Fs
	out      io.Writer
	logger   *logging.Logger
	composer *compose.Composer
}

// Run executes the selected subcommand. It returns false if none was
// selected.
func (obj *Args) Run(e *env) (bool, error) {
	if cmd := obj.DescribeCmd; cmd != nil {
		return true, cmd.Run(e)
	}
	if cmd := obj.BindingsCmd; cmd != nil {
		return true, cmd.Run(e)
	}
	if cmd := obj.DumpCmd; cmd != nil {
		return true, cmd.Run(e)
	}
	if cmd := obj.RunCmd; cmd != nil {
		return true, cmd.Run(e)
	}
	if cmd := obj.GLSLCmd; cmd != nil {
		return true, cmd.Run(e)
	}
	if cmd := obj.PipelineCmd; cmd != nil {
		return true, cmd.Run(e)
	}
	return false, nil
}

// Main parses argv (without the program name) and runs the command.
func Main(argv []string, fs afero.Fs, stdout, stderr io.Writer) error {
	args := Args{}
	parser, err := arg.NewParser(arg.Config{Program: "kernelc"}, &args)
	if err != nil {
		// programming error
		return errwrap.Wrapf(err, "cli config error")
	}
	err = parser.Parse(argv)
	if err == arg.ErrHelp {
		parser.WriteHelp(stdout)
		return nil
	}
	if err == arg.ErrVersion {
		fmt.Fprintln(stdout, args.Version())
		return nil
	}
	if err != nil {
		return errwrap.Wrapf(err, "cli parse error")
	}

	logger := logging.New("kernelc: ", args.Debug)
	logger.Out = stderr

	e := &env{
		fs:     fs,
		out:    stdout,
		logger: logger,
		composer: &compose.Composer{
			Optimize:   !args.NoOptimize,
			OptOptions: opt.DefaultOptions(),
			Debug:      args.Debug,
			Logf:       logger.Logf,
			Metrics:    metrics.New(),
		},
	}

	ok, err := args.Run(e)
	if err != nil {
		return err
	}
	if !ok {
		parser.WriteHelp(stdout)
		return nil
	}
	if args.Metrics {
		return e.composer.Metrics.Write(stdout)
	}
	return nil
}

func main() {
	if err := Main(os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "kernelc: %v\n", err)
		os.Exit(1)
	}
}
