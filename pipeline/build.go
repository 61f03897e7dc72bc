package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/internal/errwrap"
	"github.com/gogpu/kernel/kasm"
	"golang.org/x/sync/errgroup"
)

// Result holds the handles built from a config.
type Result struct {
	Kernels   map[string]*compose.Handle
	Pipelines map[string]*compose.Handle

	// Warnings are the lowering warnings of the kernels, prefixed with the
	// kernel name.
	Warnings []string
}

// Names returns the pipeline names in order.
func (r *Result) Names() []string {
	return sortedKeys(r.Pipelines)
}

// Build compiles every kernel, then evaluates every pipeline. Kernels are
// compiled concurrently and all their errors are reported together;
// pipelines are evaluated concurrently and the first error cancels the rest.
// A nil composer uses compose.Default.
func (c *Config) Build(ctx context.Context, comp *compose.Composer) (*Result, error) {
	if comp == nil {
		comp = compose.Default()
	}
	if c.Optimize != nil {
		cc := *comp
		cc.Optimize = *c.Optimize
		comp = &cc
	}

	kernels, warnings, err := c.compileKernels(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Kernels:   kernels,
		Pipelines: make(map[string]*compose.Handle, len(c.Pipelines)),
		Warnings:  warnings,
	}

	names := sortedKeys(c.Pipelines)
	handles := make([]*compose.Handle, len(names))
	ev := &Evaluator{Composer: comp, Kernels: kernels}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		i, name := i, name // per-iteration copies for pre-1.22 loop semantics
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			x, err := ParseExpr(c.Pipelines[name])
			if err != nil {
				return errwrap.Wrapf(err, "pipeline %s", name)
			}
			h, err := ev.Eval(x)
			if err != nil {
				return errwrap.Wrapf(err, "pipeline %s", name)
			}
			handles[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, name := range names {
		res.Pipelines[name] = handles[i]
	}
	return res, nil
}

func (c *Config) compileKernels(ctx context.Context) (map[string]*compose.Handle, []string, error) {
	names := sortedKeys(c.Kernels)
	results := make([]*kasm.LowerResult, len(names))
	errs := make([]error, len(names))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		i, name := i, name // per-iteration copies for pre-1.22 loop semantics
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			k := c.Kernels[name]
			src, err := c.source(name, k)
			if err != nil {
				errs[i] = err
				return nil
			}
			res, err := kasm.CompileWithWarnings(src)
			if err != nil {
				errs[i] = errwrap.Wrapf(err, "kernel %s", name)
				return nil
			}
			if k.Target != "" {
				res.Program.Target = k.Target
			}
			results[i] = res
			return nil
		})
	}
	g.Wait() // goroutines report through errs

	var reterr error
	for _, err := range errs {
		reterr = errwrap.Append(reterr, err)
	}
	if reterr != nil {
		return nil, nil, reterr
	}

	kernels := make(map[string]*compose.Handle, len(names))
	var warnings []string
	for i, name := range names {
		kernels[name] = compose.NewHandle(results[i].Program)
		for _, w := range results[i].Warnings {
			warnings = append(warnings, fmt.Sprintf("kernel %s: %v", name, w))
		}
	}
	return kernels, warnings, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
