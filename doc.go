// Package atom implements a packed binary representation for symbolic
// expressions.
//
// An expression tree is stored as one contiguous byte buffer. The design
// goals are:
//   - A few bytes of overhead per leaf node
//   - Argument-list access without materializing node objects
//   - In-place growth and shrinkage of a node's argument list
//   - Canonical-form equality: two normalized expressions are equal
//     iff their byte encodings are identical
//
// # Node Kinds
//
// Every encoded node starts with a tag byte whose low three bits identify
// one of six kinds:
//
//	Num  numeric coefficient (rational, finite-field, rational-polynomial)
//	Var  an interned symbol
//	Fun  a function with a variable number of arguments
//	Mul  a product of subexpressions
//	Add  a sum of subexpressions
//	Pow  base raised to an exponent (always exactly two children)
//
// The remaining bits of the tag byte carry per-kind flags. Flag slots are
// reused across kinds that never need them simultaneously: the
// "not normalized" bit on containers doubles as the "antisymmetric" bit on
// Var nodes, which are always normalized.
//
// # Ownership
//
// Atom owns its buffer; the typed builders (Num, Var, Fun, Mul, Add, Pow)
// are handles over the same buffer. AtomView and the typed views borrow an
// immutable byte slice and must not outlive it or be used across a
// mutation of the underlying Atom.
//
// # Serialization
//
// A single expression is framed as a reserved flags byte, an 8-byte
// little-endian payload length, and the raw encoding. Export additionally
// writes the referenced portion of the symbol table so that another
// session can import the expression, renaming symbol ids through a
// StateMap built by merging the two tables.
//
// This package performs no synchronization. A buffer may be handed between
// goroutines, but exclusive mutable access is the caller's responsibility.
package atom
