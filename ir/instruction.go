package ir

import (
	"strings"
)

// Instruction is one IR operation. Unused source slots are zero views.
type Instruction struct {
	Op  Op
	Dst View
	Src [3]View
}

// Block is an ordered, mutable instruction sequence.
type Block []Instruction

// NewInstruction builds an instruction, checking operand arity and element
// counts against the opcode.
func NewInstruction(op Op, dst View, srcs ...View) (Instruction, error) {
	if err := checkOperands(op, dst, srcs); err != nil {
		return Instruction{}, err
	}
	in := Instruction{Op: op, Dst: dst.clone()}
	for i, s := range srcs {
		in.Src[i] = s.clone()
	}
	return in, nil
}

// Assign builds dst = src.
func Assign(dst, src View) (Instruction, error) {
	return NewInstruction(OpAsn, dst, src)
}

// copyOf builds a full-width assignment between two symbols whose sizes the
// caller has already checked.
func copyOf(dst, src *Symbol) Instruction {
	in, err := Assign(Full(dst), Full(src))
	if err != nil {
		panic("ir: " + err.Error())
	}
	return in
}

// Sources returns the used source operands.
func (in Instruction) Sources() []View {
	n := in.Op.Info().Arity
	if n > len(in.Src) {
		n = len(in.Src)
	}
	return in.Src[:n]
}

// Reads reports whether s is one of the sources.
func (in Instruction) Reads(s *Symbol) bool {
	for _, v := range in.Sources() {
		if v.Sym == s {
			return true
		}
	}
	return false
}

// Writes reports whether s is the destination.
func (in Instruction) Writes(s *Symbol) bool {
	return !in.Dst.IsZero() && in.Dst.Sym == s
}

// Check re-validates the instruction, for graphs built by hand.
func (in Instruction) Check() error {
	return checkOperands(in.Op, in.Dst, in.Sources())
}

func (in Instruction) clone() Instruction {
	out := in
	out.Dst = in.Dst.clone()
	for i := range in.Src {
		out.Src[i] = in.Src[i].clone()
	}
	return out
}

func (in *Instruction) substitute(m map[*Symbol]*Symbol) {
	if r, ok := m[in.Dst.Sym]; ok && in.Dst.Sym != nil {
		in.Dst.Sym = r
	}
	for i := range in.Src {
		if in.Src[i].Sym == nil {
			continue
		}
		if r, ok := m[in.Src[i].Sym]; ok {
			in.Src[i].Sym = r
		}
	}
}

// String formats the instruction as kernel assembly.
func (in Instruction) String() string {
	var sb strings.Builder
	info := in.Op.Info()
	if info.HasDst {
		sb.WriteString(in.Dst.String())
		sb.WriteString(" = ")
	}
	sb.WriteString(in.Op.String())
	for _, s := range in.Sources() {
		sb.WriteByte(' ')
		sb.WriteString(s.String())
	}
	return sb.String()
}
