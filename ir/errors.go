package ir

import "fmt"

// ErrorKind categorizes construction errors. All of them abort the operation
// that produced them; no partial graph is returned alongside an error.
type ErrorKind uint8

const (
	// ErrNullOperand indicates a composition of two nil programs.
	ErrNullOperand ErrorKind = iota + 1

	// ErrSizeMismatch indicates operands, channels or record elements
	// whose element counts disagree.
	ErrSizeMismatch

	// ErrArity indicates an operand count that does not fit an opcode or
	// a program interface.
	ErrArity

	// ErrRange indicates an out-of-bounds, unresolvable or duplicated index.
	ErrRange

	// ErrCursorOverrun indicates a fixed manipulator asking for more
	// channels than remain.
	ErrCursorOverrun

	// ErrUnsupportedBinding indicates a program whose bindings cannot be
	// used where it was passed.
	ErrUnsupportedBinding

	// ErrInvalidGraph indicates a malformed graph or builder state.
	ErrInvalidGraph
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrNullOperand:
		return "NullOperand"
	case ErrSizeMismatch:
		return "SizeMismatch"
	case ErrArity:
		return "Arity"
	case ErrRange:
		return "Range"
	case ErrCursorOverrun:
		return "CursorOverrun"
	case ErrUnsupportedBinding:
		return "UnsupportedBinding"
	case ErrInvalidGraph:
		return "InvalidGraph"
	default:
		return "Unknown"
	}
}

// Error lets a kind be used as an errors.Is target:
//
//	if errors.Is(err, ir.ErrSizeMismatch) { ... }
func (k ErrorKind) Error() string {
	return k.String()
}

// Error is a construction error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// Errorf creates a new Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of the first *Error in err's chain, or zero.
func KindOf(err error) ErrorKind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}
