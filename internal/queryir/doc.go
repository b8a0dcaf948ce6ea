// Package queryir is the filter and ordering vocabulary callers use to
// narrow task reads and writes.
//
// A caller-supplied filter is a Predicate tree plus a map of bound
// parameters. Literal values live in the tree (Equals, Compare); values the
// caller wants to pass separately are referenced by name (BoundEquals,
// BoundCompare) and resolved from Selection.Args at compile time, the way
// a "where" clause with "?" arguments works.
//
// # Sealed Interfaces
//
// Predicate is sealed with a marker method. Only types in this package
// implement it, so compilers can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case BoundEquals:
//	case Compare:
//	case BoundCompare:
//	case IsNull:
//	case And:
//	case Or:
//	case Not:
//	}
//
// Both value and pointer forms are accepted everywhere.
//
// # Scoped Selections
//
// Item-addressed operations AND an implicit id equality onto whatever the
// caller supplied (see Scope). The caller predicate can only narrow the
// item scope, never widen it.
package queryir
