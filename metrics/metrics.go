// Package metrics counts composition operations with prometheus collectors.
// The collectors live on a private registry so that several composers (and
// tests) can keep separate books.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/kernel/ir"
)

// Metrics holds the composition collectors.
type Metrics struct {
	Registry *prometheus.Registry

	compositionTotal *prometheus.CounterVec // compositions attempted, by operation and outcome
	errorTotal       *prometheus.CounterVec // failed compositions, by operation and error kind
	instructionTotal *prometheus.CounterVec // instructions in successful results, by operation
}

// Default is used by composers that do not bring their own Metrics.
var Default = New()

// New returns an initialized Metrics.
func New() *Metrics {
	obj := &Metrics{}
	if err := obj.Init(); err != nil {
		panic(err) // only fails on duplicate registration
	}
	return obj
}

// Init creates and registers the collectors.
func (obj *Metrics) Init() error {
	obj.Registry = prometheus.NewRegistry()

	obj.compositionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kernel_composition_total",
			Help: "Number of composition operations that have run.",
		},
		// op: connect, combine, named_connect, ...
		// errorful: did the operation fail
		[]string{"op", "errorful"},
	)
	obj.errorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kernel_composition_errors_total",
			Help: "Number of failed composition operations by error kind.",
		},
		[]string{"op", "kind"},
	)
	obj.instructionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kernel_composed_instructions_total",
			Help: "Instructions in the programs produced by composition.",
		},
		[]string{"op"},
	)

	for _, c := range []prometheus.Collector{obj.compositionTotal, obj.errorTotal, obj.instructionTotal} {
		if err := obj.Registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCompositionTotal records one composition. p is the result, if any.
func (obj *Metrics) UpdateCompositionTotal(op string, p *ir.Program, err error) {
	if obj == nil {
		return
	}
	labels := prometheus.Labels{"op": op, "errorful": strconv.FormatBool(err != nil)}
	obj.compositionTotal.With(labels).Inc()

	if err != nil {
		kind := ir.KindOf(err).String()
		obj.errorTotal.With(prometheus.Labels{"op": op, "kind": kind}).Inc()
		return
	}
	if p != nil {
		obj.instructionTotal.With(prometheus.Labels{"op": op}).Add(float64(p.CFG.Instructions()))
	}
}

// Sample is one gathered counter value.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// String formats the sample in the prometheus text style.
func (s Sample) String() string {
	keys := make([]string, 0, len(s.Labels))
	for k := range s.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%q", k, s.Labels[k])
	}
	return fmt.Sprintf("%s{%s} %g", s.Name, strings.Join(pairs, ","), s.Value)
}

// Samples gathers every counter, sorted by name and labels.
func (obj *Metrics) Samples() ([]Sample, error) {
	families, err := obj.Registry.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s := Sample{
				Name:   mf.GetName(),
				Labels: make(map[string]string),
				Value:  m.GetCounter().GetValue(),
			}
			for _, lp := range m.GetLabel() {
				s.Labels[lp.GetName()] = lp.GetValue()
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].String() < out[j].String()
	})
	return out, nil
}

// Value returns the counter matching name and every given label, or zero.
func (obj *Metrics) Value(name string, labels map[string]string) float64 {
	samples, err := obj.Samples()
	if err != nil {
		return 0
	}
	total := 0.0
	for _, s := range samples {
		if s.Name != name {
			continue
		}
		match := true
		for k, v := range labels {
			if s.Labels[k] != v {
				match = false
				break
			}
		}
		if match {
			total += s.Value
		}
	}
	return total
}

// Write dumps every counter, one per line.
func (obj *Metrics) Write(w io.Writer) error {
	samples, err := obj.Samples()
	if err != nil {
		return err
	}
	for _, s := range samples {
		if _, err := fmt.Fprintln(w, s.String()); err != nil {
			return err
		}
	}
	return nil
}
