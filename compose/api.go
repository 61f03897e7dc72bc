package compose

import (
	"github.com/gogpu/kernel/ir"
)

// The functions below use the default composer: results are optimized and
// counted on metrics.Default.

// Connect is DefaultComposer().Connect.
func Connect(a, b *Handle) (*Handle, error) { return std.Connect(a, b) }

// Then is Connect(a, b), a >> b.
func Then(a, b *Handle) (*Handle, error) { return std.Connect(a, b) }

// After is Connect(a, b), b << a.
func After(b, a *Handle) (*Handle, error) { return std.Connect(a, b) }

// Combine is DefaultComposer().Combine.
func Combine(a, b *Handle) (*Handle, error) { return std.Combine(a, b) }

// And is Combine(a, b), a & b.
func And(a, b *Handle) (*Handle, error) { return std.Combine(a, b) }

// NamedConnect is DefaultComposer().NamedConnect.
func NamedConnect(a, b *Handle, keepExtra bool) (*Handle, error) {
	return std.NamedConnect(a, b, keepExtra)
}

// NamedCombine is DefaultComposer().NamedCombine.
func NamedCombine(a, b *Handle) (*Handle, error) { return std.NamedCombine(a, b) }

// MergeNames is DefaultComposer().MergeNames.
func MergeNames(h *Handle) (*Handle, error) { return std.MergeNames(h) }

// PermuteInputs is DefaultComposer().PermuteInputs.
func PermuteInputs(h *Handle, idx []int) (*Handle, error) { return std.PermuteInputs(h, idx) }

// PermuteOutputs is DefaultComposer().PermuteOutputs.
func PermuteOutputs(h *Handle, idx []int) (*Handle, error) { return std.PermuteOutputs(h, idx) }

// RenameInput is DefaultComposer().RenameInput.
func RenameInput(h *Handle, old, repl string) (*Handle, error) { return std.RenameInput(h, old, repl) }

// RenameOutput is DefaultComposer().RenameOutput.
func RenameOutput(h *Handle, old, repl string) (*Handle, error) { return std.RenameOutput(h, old, repl) }

// ReplaceVariable is DefaultComposer().ReplaceVariable.
func ReplaceVariable(h *Handle, old, repl *ir.Symbol) (*Handle, error) {
	return std.ReplaceVariable(h, old, repl)
}

// Default returns the composer used by the package-level functions.
func Default() *Composer { return std }
