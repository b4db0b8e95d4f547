package edit

import "textot/pkg/ot"

// Hash fingerprints a document state. Two edits share a parent exactly when
// their parent hashes are equal.
type Hash string

// Applier is the capability the client and server need from a document type.
// Implementations must be pure.
type Applier[S any] interface {
	Initial() S
	StateHash(state S) Hash
	// Apply returns the new state and an operation that undoes op.
	Apply(state S, op ot.Operation) (S, ot.Operation, error)
}
