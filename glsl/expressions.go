// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/kernel/bind"
	"github.com/gogpu/kernel/ir"
)

const swizzleXYZW = "xyzw"

// Built-in functions applied element by element.
var unaryFunctions = map[ir.Op]string{
	ir.OpAbs:  "abs",
	ir.OpCeil: "ceil",
	ir.OpFlr:  "floor",
	ir.OpFrac: "fract",
	ir.OpExp:  "exp",
	ir.OpLog:  "log",
	ir.OpSqrt: "sqrt",
	ir.OpRsq:  "inversesqrt",
	ir.OpSin:  "sin",
	ir.OpCos:  "cos",
	ir.OpTan:  "tan",
	ir.OpSgn:  "sign",
}

var binaryFunctions = map[ir.Op]string{
	ir.OpMin: "min",
	ir.OpMax: "max",
	ir.OpPow: "pow",
}

var binaryOperators = map[ir.Op]string{
	ir.OpAdd: "+",
	ir.OpMul: "*",
	ir.OpDiv: "/",
}

// comparison is the scalar operator and the vector function of a set-on
// comparison. The result is 1.0 or 0.0 per element.
type comparison struct {
	operator string
	function string
}

var comparisons = map[ir.Op]comparison{
	ir.OpSlt: {"<", "lessThan"},
	ir.OpSle: {"<=", "lessThanEqual"},
	ir.OpSgt: {">", "greaterThan"},
	ir.OpSge: {">=", "greaterThanEqual"},
	ir.OpSeq: {"==", "equal"},
	ir.OpSne: {"!=", "notEqual"},
}

// writeInstruction writes one instruction as a statement.
func (w *Writer) writeInstruction(in ir.Instruction) error {
	switch in.Op {
	case ir.OpNop:
		return nil
	case ir.OpKil:
		if w.target.Stage != bind.StageFragment {
			return ir.Errorf(ir.ErrUnsupportedBinding, "kill in a %s kernel, only fragment kernels can discard", w.target.Stage)
		}
		src := in.Src[0]
		if k := src.Size(); k > 1 {
			w.writeLine("if (any(lessThan(%s, %s(0.0)))) discard;", w.viewExpr(src, k), typeName(k))
		} else {
			w.writeLine("if (%s < 0.0) discard;", w.viewExpr(src, 1))
		}
		return nil
	}

	expr, err := w.instructionExpr(in)
	if err != nil {
		return err
	}
	w.writeLine("%s = %s;", w.dstExpr(in.Dst), expr)
	return nil
}

// instructionExpr returns the value an instruction stores, sized like its
// destination.
func (w *Writer) instructionExpr(in ir.Instruction) (string, error) {
	n := in.Dst.Size()
	src := func(i int) string {
		return w.viewExpr(in.Src[i], n)
	}

	if name, ok := unaryFunctions[in.Op]; ok {
		return fmt.Sprintf("%s(%s)", name, src(0)), nil
	}
	if name, ok := binaryFunctions[in.Op]; ok {
		return fmt.Sprintf("%s(%s, %s)", name, src(0), src(1)), nil
	}
	if op, ok := binaryOperators[in.Op]; ok {
		return fmt.Sprintf("(%s %s %s)", src(0), op, src(1)), nil
	}
	if c, ok := comparisons[in.Op]; ok {
		if n == 1 {
			return fmt.Sprintf("float(%s %s %s)", src(0), c.operator, src(1)), nil
		}
		return fmt.Sprintf("%s(%s(%s, %s))", typeName(n), c.function, src(0), src(1)), nil
	}

	switch in.Op {
	case ir.OpAsn:
		return src(0), nil
	case ir.OpMod:
		// GLSL mod floors; the kernel remainder truncates toward zero.
		a, b := src(0), src(1)
		return fmt.Sprintf("(%s - %s * trunc(%s / %s))", a, b, a, b), nil
	case ir.OpRcp:
		return fmt.Sprintf("(1.0 / %s)", src(0)), nil
	case ir.OpMad:
		return fmt.Sprintf("(%s * %s + %s)", src(0), src(1), src(2)), nil
	case ir.OpLrp:
		return fmt.Sprintf("mix(%s, %s, %s)", src(2), src(1), src(0)), nil
	case ir.OpCond:
		if n == 1 {
			return fmt.Sprintf("(%s > 0.0 ? %s : %s)", src(0), src(1), src(2)), nil
		}
		vec := typeName(n)
		return fmt.Sprintf("mix(%s, %s, %s(greaterThan(%s, %s(0.0))))", src(2), src(1), vec, src(0), vec), nil
	case ir.OpDot:
		k := in.Src[0].Size()
		return fmt.Sprintf("dot(%s, %s)", w.viewExpr(in.Src[0], k), w.viewExpr(in.Src[1], k)), nil
	case ir.OpXpd:
		return fmt.Sprintf("cross(%s, %s)", src(0), src(1)), nil
	case ir.OpNorm:
		return fmt.Sprintf("normalize(%s)", src(0)), nil
	case ir.OpTex:
		coord := in.Src[1]
		e := fmt.Sprintf("texture(%s, %s)", w.names[in.Src[0].Sym], w.viewExpr(coord, coord.Size()))
		if n < 4 {
			e += "." + swizzleXYZW[:n]
		}
		return e, nil
	}
	return "", ir.Errorf(ir.ErrArity, "no GLSL form for %s", in.Op)
}

// viewExpr returns v as an n element expression. Single elements are
// widened with a vector constructor.
func (w *Writer) viewExpr(v ir.View, n int) string {
	e := w.selectExpr(v)
	if v.Size() == 1 && n > 1 {
		e = fmt.Sprintf("%s(%s)", typeName(n), e)
	}
	if v.Neg {
		e = "-" + e
	}
	return e
}

// selectExpr applies the swizzle of v to its symbol. Scalars cannot be
// swizzled, so repeating their only element needs a constructor.
func (w *Writer) selectExpr(v ir.View) string {
	name := w.names[v.Sym]
	if v.Sym.Size() == 1 {
		if k := v.Size(); k > 1 {
			return fmt.Sprintf("%s(%s)", typeName(k), name)
		}
		return name
	}
	if selectsAll(v) {
		return name
	}
	return name + "." + swizzle(v)
}

// dstExpr returns the assignment target of a write mask.
func (w *Writer) dstExpr(v ir.View) string {
	name := w.names[v.Sym]
	if v.Sym.Size() == 1 || selectsAll(v) {
		return name
	}
	return name + "." + swizzle(v)
}

// elementExpr returns the i-th element of v as a float expression.
func (w *Writer) elementExpr(v ir.View, i int) string {
	e := w.names[v.Sym]
	if v.Sym.Size() > 1 {
		e += "." + string(swizzleXYZW[v.Index(i)])
	}
	if v.Neg {
		e = "-" + e
	}
	return e
}

func selectsAll(v ir.View) bool {
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

func swizzle(v ir.View) string {
	b := make([]byte, v.Size())
	for i := range b {
		b[i] = swizzleXYZW[v.Index(i)]
	}
	return string(b)
}
