package ir

// Op is an instruction opcode.
type Op uint8

const (
	OpNop Op = iota
	OpAsn
	OpAdd
	OpMul
	OpDiv
	OpMod
	OpMin
	OpMax
	OpPow
	OpSlt
	OpSle
	OpSgt
	OpSge
	OpSeq
	OpSne
	OpAbs
	OpCeil
	OpFlr
	OpFrac
	OpExp
	OpLog
	OpSqrt
	OpRsq
	OpRcp
	OpSin
	OpCos
	OpTan
	OpSgn
	OpMad
	OpLrp
	OpCond
	OpDot
	OpXpd
	OpNorm
	OpTex
	OpKil

	opCount
)

// OpRule selects how operand sizes are checked.
type OpRule uint8

const (
	// RuleNone accepts no operands.
	RuleNone OpRule = iota
	// RuleElementwise requires every source to be scalar or destination-sized.
	RuleElementwise
	// RuleDot requires a scalar destination and equal-sized sources.
	RuleDot
	// RuleCross requires three-element operands throughout.
	RuleCross
	// RuleNorm requires the destination to match the source.
	RuleNorm
	// RuleTex requires a texture as the first source.
	RuleTex
	// RuleKill accepts a single source and no destination.
	RuleKill
)

// OpInfo describes an opcode.
type OpInfo struct {
	Name       string
	Arity      int
	HasDst     bool
	Rule       OpRule
	SideEffect bool
}

var opTable = [opCount]OpInfo{
	OpNop:  {Name: "nop", Rule: RuleNone},
	OpAsn:  {Name: "asn", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpAdd:  {Name: "add", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpMul:  {Name: "mul", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpDiv:  {Name: "div", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpMod:  {Name: "mod", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpMin:  {Name: "min", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpMax:  {Name: "max", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpPow:  {Name: "pow", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpSlt:  {Name: "slt", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpSle:  {Name: "sle", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpSgt:  {Name: "sgt", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpSge:  {Name: "sge", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpSeq:  {Name: "seq", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpSne:  {Name: "sne", Arity: 2, HasDst: true, Rule: RuleElementwise},
	OpAbs:  {Name: "abs", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpCeil: {Name: "ceil", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpFlr:  {Name: "flr", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpFrac: {Name: "frac", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpExp:  {Name: "exp", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpLog:  {Name: "log", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpSqrt: {Name: "sqrt", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpRsq:  {Name: "rsq", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpRcp:  {Name: "rcp", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpSin:  {Name: "sin", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpCos:  {Name: "cos", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpTan:  {Name: "tan", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpSgn:  {Name: "sgn", Arity: 1, HasDst: true, Rule: RuleElementwise},
	OpMad:  {Name: "mad", Arity: 3, HasDst: true, Rule: RuleElementwise},
	OpLrp:  {Name: "lrp", Arity: 3, HasDst: true, Rule: RuleElementwise},
	OpCond: {Name: "cond", Arity: 3, HasDst: true, Rule: RuleElementwise},
	OpDot:  {Name: "dot", Arity: 2, HasDst: true, Rule: RuleDot},
	OpXpd:  {Name: "xpd", Arity: 2, HasDst: true, Rule: RuleCross},
	OpNorm: {Name: "norm", Arity: 1, HasDst: true, Rule: RuleNorm},
	OpTex:  {Name: "tex", Arity: 2, HasDst: true, Rule: RuleTex},
	OpKil:  {Name: "kil", Arity: 1, Rule: RuleKill, SideEffect: true},
}

var opNames map[string]Op

func init() {
	opNames = make(map[string]Op, len(opTable))
	for i, info := range opTable {
		opNames[info.Name] = Op(i)
	}
}

// Info returns the table entry for op. Unknown opcodes yield a zero OpInfo.
func (op Op) Info() OpInfo {
	if op < opCount {
		return opTable[op]
	}
	return OpInfo{}
}

// Valid reports whether op is a known opcode.
func (op Op) Valid() bool {
	return op < opCount
}

func (op Op) String() string {
	if op < opCount {
		return opTable[op].Name
	}
	return "op?"
}

// LookupOp finds an opcode by its lower-case mnemonic.
func LookupOp(name string) (Op, bool) {
	op, ok := opNames[name]
	return op, ok
}
