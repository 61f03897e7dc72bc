package ir

// checkOperands validates operand presence and element counts for op.
// Every failure is either ErrArity or ErrSizeMismatch, apart from malformed
// swizzles which are ErrRange.
func checkOperands(op Op, dst View, srcs []View) error {
	if !op.Valid() {
		return Errorf(ErrArity, "unknown opcode %d", op)
	}
	info := op.Info()

	if len(srcs) != info.Arity {
		return Errorf(ErrArity, "%s takes %d source operands, got %d", info.Name, info.Arity, len(srcs))
	}
	if info.HasDst != !dst.IsZero() {
		if info.HasDst {
			return Errorf(ErrArity, "%s requires a destination", info.Name)
		}
		return Errorf(ErrArity, "%s takes no destination", info.Name)
	}
	if info.HasDst {
		if err := dst.check(true); err != nil {
			return err
		}
	}
	for i, s := range srcs {
		if s.IsZero() {
			return Errorf(ErrArity, "%s: source %d is missing", info.Name, i)
		}
		if err := s.check(false); err != nil {
			return err
		}
	}

	switch info.Rule {
	case RuleElementwise:
		n := dst.Size()
		for i, s := range srcs {
			if s.Size() != 1 && s.Size() != n {
				return Errorf(ErrSizeMismatch, "%s: source %d (%s) has %d elements, destination %s has %d",
					info.Name, i, s, s.Size(), dst, n)
			}
		}
	case RuleDot:
		if dst.Size() != 1 {
			return Errorf(ErrSizeMismatch, "dot: destination %s must have one element, has %d", dst, dst.Size())
		}
		if srcs[0].Size() != srcs[1].Size() {
			return Errorf(ErrSizeMismatch, "dot: sources %s and %s differ in size (%d != %d)",
				srcs[0], srcs[1], srcs[0].Size(), srcs[1].Size())
		}
	case RuleCross:
		if dst.Size() != 3 || srcs[0].Size() != 3 || srcs[1].Size() != 3 {
			return Errorf(ErrSizeMismatch, "xpd: operands must have three elements (%s, %s, %s)", dst, srcs[0], srcs[1])
		}
	case RuleNorm:
		if dst.Size() != srcs[0].Size() {
			return Errorf(ErrSizeMismatch, "norm: destination %s has %d elements, source %s has %d",
				dst, dst.Size(), srcs[0], srcs[0].Size())
		}
	case RuleTex:
		if srcs[0].Sym.Kind() != KindTexture {
			return Errorf(ErrArity, "tex: source 0 must be a texture, got %s", srcs[0].Sym.Describe())
		}
	case RuleKill, RuleNone:
	}
	return nil
}
