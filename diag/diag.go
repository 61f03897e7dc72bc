// Package diag prints human-readable tables describing programs and handles.
package diag

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gogpu/kernel/bind"
	"github.com/gogpu/kernel/compose"
	"github.com/gogpu/kernel/internal/errwrap"
	"github.com/gogpu/kernel/ir"
	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func values(s *ir.Symbol) string {
	if !s.HasValue() {
		return ""
	}
	parts := make([]string, 0, s.Size())
	for _, v := range s.Value() {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return strings.Join(parts, ", ")
}

// Interface writes the symbol lists of p, one row per list entry, followed
// by the program's diagnostics.
func Interface(w io.Writer, p *ir.Program) error {
	if p == nil {
		return ir.Errorf(ir.ErrNullOperand, "describing a nil program")
	}
	if _, err := fmt.Fprintln(w, p); err != nil {
		return err
	}

	table := newTable(w, "role", "#", "kind", "name", "size", "scalar", "semantic", "value")
	lists := []struct {
		role string
		syms []*ir.Symbol
	}{
		{"input", p.Inputs},
		{"output", p.Outputs},
		{"temp", p.Temps},
		{"constant", p.Constants},
		{"uniform", p.Uniforms},
		{"resource", p.Textures},
	}
	for _, l := range lists {
		for i, s := range l.syms {
			table.Append([]string{
				l.role,
				strconv.Itoa(i),
				s.Kind().String(),
				s.String(),
				strconv.Itoa(s.Size()),
				s.Scalar().String(),
				s.Semantic().String(),
				values(s),
			})
		}
	}
	table.Render()

	for _, d := range p.Diagnostics {
		if _, err := fmt.Fprintf(w, "warning: %s\n", d); err != nil {
			return err
		}
	}
	return nil
}

// Bindings writes the binding records of h and the backend attributes of
// its interface. The attribute table is omitted, with a note, when the
// target cannot be bound.
func Bindings(w io.Writer, h *compose.Handle) error {
	if h == nil {
		return ir.Errorf(ir.ErrNullOperand, "describing a nil program")
	}
	if _, err := fmt.Fprintln(w, h); err != nil {
		return err
	}

	if bs := h.Bindings(); len(bs) > 0 {
		curried := h.Curried()
		table := newTable(w, "input", "binding", "source", "size")
		for i, b := range bs {
			table.Append([]string{
				curried[i].String(),
				b.Kind.String(),
				b.Source.String(),
				strconv.Itoa(b.Source.Size()),
			})
		}
		table.Render()
	}

	attrs, err := bind.ResolveHandle(h)
	if err != nil {
		_, werr := fmt.Fprintf(w, "no attribute bindings: %v\n", err)
		return errwrap.Wrapf(werr, "write failed")
	}
	table := newTable(w, "direction", "location", "identifier", "decoration", "symbol")
	for _, a := range attrs {
		loc := "builtin"
		if !a.Builtin() {
			loc = strconv.Itoa(a.Location)
		}
		table.Append([]string{
			a.Direction.String(),
			loc,
			a.Identifier,
			a.Decoration,
			a.Symbol.Describe(),
		})
	}
	table.Render()
	return nil
}
