package ir

import (
	"fmt"

	"github.com/gogpu/kernel/internal/errwrap"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Optional context; -1 when absent
	Node        int
	Instruction int
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Node >= 0 {
		if e.Instruction >= 0 {
			return fmt.Sprintf("in node %d, instruction %d: %s", e.Node, e.Instruction, e.Message)
		}
		return fmt.Sprintf("in node %d: %s", e.Node, e.Message)
	}
	return e.Message
}

// Validator checks the contract a finished program offers to code
// generators: duplicate-free role lists whose kinds agree with the list,
// instructions whose operands fit their opcode, declared operands and a
// well-formed CFG.
type Validator struct {
	program  *Program
	errors   []ValidationError
	declared map[*Symbol]bool
}

// Validate checks the program for correctness.
// Returns validation errors if any, or nil if the program is valid.
func Validate(p *Program) ([]ValidationError, error) {
	if p == nil {
		return nil, fmt.Errorf("program is nil")
	}
	if p.CFG == nil {
		return nil, fmt.Errorf("program has no CFG")
	}

	v := &Validator{
		program:  p,
		errors:   make([]ValidationError, 0),
		declared: make(map[*Symbol]bool),
	}
	v.ValidateProgram()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

// ValidateAll folds every validation error into one error.
func ValidateAll(p *Program) error {
	errs, err := Validate(p)
	if err != nil {
		return err
	}
	var result error
	for _, e := range errs {
		result = errwrap.Append(result, e)
	}
	return result
}

// ValidateProgram validates the complete program.
func (v *Validator) ValidateProgram() {
	v.validateLists()
	if !v.validateGraph() {
		return
	}
	v.validateCode()
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, ValidationError{Message: msg, Node: -1, Instruction: -1})
}

func (v *Validator) addNodeError(node, instr int, msg string) {
	v.errors = append(v.errors, ValidationError{Message: msg, Node: node, Instruction: instr})
}

func (v *Validator) validateList(name string, list []*Symbol, kinds ...SymbolKind) {
	seen := make(map[*Symbol]bool, len(list))
	for i, s := range list {
		if s == nil {
			v.addError(fmt.Sprintf("%s[%d] is nil", name, i))
			continue
		}
		if seen[s] {
			v.addError(fmt.Sprintf("%s lists %s more than once", name, s))
			continue
		}
		seen[s] = true
		v.declared[s] = true

		ok := false
		for _, k := range kinds {
			if s.Kind() == k {
				ok = true
				break
			}
		}
		if !ok {
			v.addError(fmt.Sprintf("%s[%d]: %s does not belong in %s", name, i, s.Describe(), name))
		}
	}
}

func (v *Validator) validateLists() {
	p := v.program
	v.validateList("inputs", p.Inputs, KindInput, KindInOut)
	v.validateList("outputs", p.Outputs, KindOutput, KindInOut)
	v.validateList("temps", p.Temps, KindTemp, KindInput, KindOutput, KindInOut)
	v.validateList("constants", p.Constants, KindConst)
	v.validateList("uniforms", p.Uniforms, KindUniform)
	v.validateList("textures", p.Textures, KindTexture, KindStream)

	for _, s := range p.Inputs {
		if s != nil && s.IsInOut() && IndexOf(p.Outputs, s) < 0 {
			v.addError(fmt.Sprintf("inout %s is listed as an input but not as an output", s))
		}
	}
	for _, s := range p.Outputs {
		if s != nil && s.IsInOut() && IndexOf(p.Inputs, s) < 0 {
			v.addError(fmt.Sprintf("inout %s is listed as an output but not as an input", s))
		}
	}
	for _, s := range p.Temps {
		if IndexOf(p.Inputs, s) >= 0 || IndexOf(p.Outputs, s) >= 0 {
			v.addError(fmt.Sprintf("temp %s is also part of the interface", s))
		}
	}
}

// validateGraph checks handles and edges. It returns false when the graph is
// too broken to walk.
func (v *Validator) validateGraph() bool {
	c := v.program.CFG
	n := len(c.Nodes)
	if int(c.Entry) >= n {
		v.addError(fmt.Sprintf("entry node %d out of range (%d nodes)", c.Entry, n))
		return false
	}
	if int(c.Exit) >= n {
		v.addError(fmt.Sprintf("exit node %d out of range (%d nodes)", c.Exit, n))
		return false
	}

	ok := true
	for i := range c.Nodes {
		node := &c.Nodes[i]
		if node.Follower != NoNode && int(node.Follower) >= n {
			v.addNodeError(i, -1, fmt.Sprintf("follower %d out of range", node.Follower))
			ok = false
		}
		for j, b := range node.Branches {
			if int(b.Target) >= n {
				v.addNodeError(i, -1, fmt.Sprintf("branch %d target %d out of range", j, b.Target))
				ok = false
			}
		}
	}
	if !ok {
		return false
	}

	exit := &c.Nodes[c.Exit]
	if exit.Follower != NoNode || len(exit.Branches) != 0 {
		v.addNodeError(int(c.Exit), -1, "exit node has successors")
	}

	reached := false
	c.Walk(func(h NodeHandle, node *Node) {
		if h == c.Exit {
			reached = true
			return
		}
		if node.Follower == NoNode {
			v.addNodeError(int(h), -1, "node has no follower")
		}
	})
	if !reached {
		v.addError("exit node is not reachable from the entry")
	}
	return true
}

func (v *Validator) validateCode() {
	c := v.program.CFG
	c.Walk(func(h NodeHandle, node *Node) {
		for i, in := range node.Block {
			if err := in.Check(); err != nil {
				v.addNodeError(int(h), i, err.Error())
				continue
			}
			if !in.Dst.IsZero() {
				v.checkDeclared(int(h), i, in.Dst.Sym)
				if k := in.Dst.Sym.Kind(); k == KindConst || k == KindUniform || k == KindTexture || k == KindStream {
					v.addNodeError(int(h), i, fmt.Sprintf("writes read-only %s", in.Dst.Sym.Describe()))
				}
			}
			for _, s := range in.Sources() {
				v.checkDeclared(int(h), i, s.Sym)
			}
		}
		for j, b := range node.Branches {
			if b.Cond.IsZero() {
				v.addNodeError(int(h), -1, fmt.Sprintf("branch %d has no condition", j))
				continue
			}
			if err := b.Cond.check(false); err != nil {
				v.addNodeError(int(h), -1, fmt.Sprintf("branch %d: %v", j, err))
			}
			v.checkDeclared(int(h), -1, b.Cond.Sym)
		}
	})
}

func (v *Validator) checkDeclared(node, instr int, s *Symbol) {
	if !v.declared[s] {
		v.addNodeError(node, instr, fmt.Sprintf("%s is not declared by the program", s.Describe()))
	}
}
