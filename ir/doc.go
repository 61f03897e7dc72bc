// Package ir defines the intermediate representation for stream kernels.
//
// The IR is designed to be:
//   - Small: a kernel is a control-flow graph of register operations
//   - Composable: graphs are cloned, appended and spliced by the compose package
//   - Backend-agnostic: targets are named by an opaque "<backend>:<stage>" string
//
// # Structure
//
// A Program contains:
//   - CFG: an arena of Nodes addressed by NodeHandle, with one entry and one exit
//   - Inputs, Outputs: ordered interface lists (position is the matching key)
//   - Temps, Constants, Uniforms, Textures: the remaining symbols by role
//   - Target: the "<backend>:<stage>" string
//
// Every Node holds a Block of Instructions, an unconditional Follower and an
// ordered list of conditional Branches. Instructions read and write Views of
// Symbols; a View selects elements (swizzle) and may negate them.
//
// # Sharing
//
// Graph structure is always copied by Clone. Symbols are shared between every
// program that references them and are immutable: renaming or re-kinding a
// symbol allocates a new one which is then substituted where needed.
//
// # Building
//
// Kernels are authored with a Builder:
//
//	b := ir.Begin("glsl:vertex")
//	pos := b.Input(3, "position")
//	out := b.Output(3, "result")
//	if err := b.Assign(ir.Full(out), ir.Full(pos)); err != nil {
//		return err
//	}
//	prog, err := b.End()
package ir
