package ir

import (
	"strings"
)

// View selects elements of a symbol and optionally negates them. Views are
// values; they never modify the symbol they look at.
type View struct {
	Sym *Symbol

	// Swizzle lists the selected element indices. Nil selects every
	// element in order.
	Swizzle []int

	Neg bool
}

// Full returns the identity view of s.
func Full(s *Symbol) View {
	return View{Sym: s}
}

// IsZero reports whether the view is unset.
func (v View) IsZero() bool {
	return v.Sym == nil
}

// Size returns the number of selected elements.
func (v View) Size() int {
	if v.Sym == nil {
		return 0
	}
	if v.Swizzle != nil {
		return len(v.Swizzle)
	}
	return v.Sym.Size()
}

// Index maps the i-th selected element to an element of the symbol.
func (v View) Index(i int) int {
	if v.Swizzle != nil {
		return v.Swizzle[i]
	}
	return i
}

// Swizzled selects elements of this view. Indices refer to the view, not
// to the underlying symbol.
func (v View) Swizzled(idx ...int) View {
	sw := make([]int, len(idx))
	for i, k := range idx {
		sw[i] = v.Index(k)
	}
	return View{Sym: v.Sym, Swizzle: sw, Neg: v.Neg}
}

// Negated returns the view with its negation flag flipped.
func (v View) Negated() View {
	out := v.clone()
	out.Neg = !v.Neg
	return out
}

func (v View) clone() View {
	if v.Swizzle != nil {
		v.Swizzle = append([]int(nil), v.Swizzle...)
	}
	return v
}

// IsIdentity reports whether the view selects the whole symbol, in order,
// without negation.
func (v View) IsIdentity() bool {
	if v.Neg {
		return false
	}
	if v.Swizzle == nil {
		return true
	}
	if len(v.Swizzle) != v.Sym.Size() {
		return false
	}
	for i, k := range v.Swizzle {
		if k != i {
			return false
		}
	}
	return true
}

// Covers reports whether writing through v overwrites every element of its symbol.
func (v View) Covers() bool {
	if v.Swizzle == nil {
		return true
	}
	seen := make([]bool, v.Sym.Size())
	n := 0
	for _, k := range v.Swizzle {
		if k >= 0 && k < len(seen) && !seen[k] {
			seen[k] = true
			n++
		}
	}
	return n == len(seen)
}

// check validates the swizzle against the symbol. Destination views are
// write masks: they must not repeat an element and must not be negated.
func (v View) check(dst bool) error {
	if v.Sym == nil {
		return Errorf(ErrArity, "missing operand")
	}
	if v.Swizzle != nil && len(v.Swizzle) == 0 {
		return Errorf(ErrRange, "empty swizzle on %s", v.Sym)
	}
	var seen [64]bool
	for _, k := range v.Swizzle {
		if k < 0 || k >= v.Sym.Size() {
			return Errorf(ErrRange, "swizzle index %d out of range for %s", k, v.Sym.Describe())
		}
		if dst {
			if k < len(seen) && seen[k] {
				return Errorf(ErrRange, "write mask repeats element %d of %s", k, v.Sym)
			}
			if k < len(seen) {
				seen[k] = true
			}
		}
	}
	if dst && v.Neg {
		return Errorf(ErrArity, "destination %s is negated", v.Sym)
	}
	return nil
}

const swizzleXYZW = "xyzw"
const swizzleRGBA = "rgba"

// ParseSwizzle parses an "xyzw" or "rgba" element selector.
func ParseSwizzle(s string) ([]int, error) {
	if s == "" {
		return nil, Errorf(ErrRange, "empty swizzle")
	}
	set := swizzleXYZW
	if strings.IndexByte(swizzleRGBA, s[0]) >= 0 {
		set = swizzleRGBA
	}
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		k := strings.IndexByte(set, s[i])
		if k < 0 {
			return nil, Errorf(ErrRange, "invalid swizzle %q", s)
		}
		out[i] = k
	}
	return out, nil
}

// String formats the view as it appears in kernel assembly.
func (v View) String() string {
	var sb strings.Builder
	if v.Neg {
		sb.WriteByte('-')
	}
	sb.WriteString(v.Sym.String())
	if v.Swizzle != nil {
		sb.WriteByte('.')
		for _, k := range v.Swizzle {
			if k >= 0 && k < len(swizzleXYZW) {
				sb.WriteByte(swizzleXYZW[k])
			} else {
				sb.WriteByte('?')
			}
		}
	}
	return sb.String()
}
