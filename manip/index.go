package manip

import (
	"fmt"

	"github.com/gogpu/kernel/ir"
)

// IndexKind selects how an Index is resolved.
type IndexKind uint8

const (
	// IndexAbsolute is a position; negative positions count from the end.
	IndexAbsolute IndexKind = iota
	// IndexFromStart is an offset from the first variable.
	IndexFromStart
	// IndexFromEnd is an offset from the last variable.
	IndexFromEnd
	// IndexNamed is an offset from the first variable with a given name.
	IndexNamed
)

// Index names one variable of a list whose length is only known when the
// manipulator is applied.
type Index struct {
	Kind   IndexKind
	Pos    int // IndexAbsolute only
	Name   string
	Offset int
}

// Absolute returns the index i, or n+i for negative i.
func Absolute(i int) Index {
	return Index{Kind: IndexAbsolute, Pos: i}
}

// FromStart returns the index offset places after the first variable.
func FromStart(offset int) Index {
	return Index{Kind: IndexFromStart, Offset: offset}
}

// FromEnd returns the index offset places after the last variable; offsets
// are usually zero or negative.
func FromEnd(offset int) Index {
	return Index{Kind: IndexFromEnd, Offset: offset}
}

// Named returns the index offset places after the first variable called
// name.
func Named(name string, offset int) Index {
	return Index{Kind: IndexNamed, Name: name, Offset: offset}
}

// Add returns the index moved by d places.
func (x Index) Add(d int) Index {
	x.Offset += d
	return x
}

// Resolve returns the position x names in vars. The result may lie outside
// vars; Span.Resolve checks the bounds.
func (x Index) Resolve(vars []*ir.Symbol) (int, error) {
	n := len(vars)
	switch x.Kind {
	case IndexAbsolute:
		if x.Pos < 0 {
			return n + x.Pos + x.Offset, nil
		}
		return x.Pos + x.Offset, nil
	case IndexFromStart:
		return x.Offset, nil
	case IndexFromEnd:
		return n - 1 + x.Offset, nil
	case IndexNamed:
		for i, s := range vars {
			if s.Name() == x.Name {
				return i + x.Offset, nil
			}
		}
		return 0, ir.Errorf(ir.ErrRange, "no variable named %q", x.Name)
	}
	return 0, ir.Errorf(ir.ErrRange, "unknown index kind %d", x.Kind)
}

func (x Index) String() string {
	var base string
	switch x.Kind {
	case IndexAbsolute:
		base = fmt.Sprint(x.Pos)
	case IndexFromStart:
		base = "first"
	case IndexFromEnd:
		base = "last"
	case IndexNamed:
		base = fmt.Sprintf("%q", x.Name)
	}
	if x.Offset != 0 {
		return fmt.Sprintf("%s%+d", base, x.Offset)
	}
	return base
}

// Span is an inclusive range of variables. A span whose last index resolves
// before its first is empty.
type Span struct {
	First, Last Index
}

// Resolve returns the positions covered by s in vars.
func (s Span) Resolve(vars []*ir.Symbol) ([]int, error) {
	first, err := s.First.Resolve(vars)
	if err != nil {
		return nil, err
	}
	last, err := s.Last.Resolve(vars)
	if err != nil {
		return nil, err
	}
	if last < first {
		return nil, nil
	}
	n := len(vars)
	if first < 0 || first >= n {
		return nil, ir.Errorf(ir.ErrRange, "index %s resolves to %d, outside [0, %d)", s.First, first, n)
	}
	if last >= n {
		return nil, ir.Errorf(ir.ErrRange, "index %s resolves to %d, outside [0, %d)", s.Last, last, n)
	}
	out := make([]int, 0, last-first+1)
	for i := first; i <= last; i++ {
		out = append(out, i)
	}
	return out, nil
}

func (s Span) String() string {
	if s.First == s.Last {
		return s.First.String()
	}
	return s.First.String() + ".." + s.Last.String()
}
