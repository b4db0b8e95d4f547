package client

import (
	"textot/pkg/edit"
	"textot/pkg/ot"
)

type bufferResult[S any] struct {
	outstanding edit.OutstandingEdit
	buffer      edit.BufferEdit
	// applied is the foreign operation as it was applied to the local state.
	applied ot.Operation
	state   S
	hash    edit.Hash
}

// transformAndApplyBuffers moves a foreign server edit across the bridge of
// unconfirmed local changes. The outstanding edit is transformed against the
// server edit first, then the buffer against the server edit as seen after
// the outstanding one, and the result is applied to state.
//
// The outstanding edit keeps its id and a non-nil operation even when the
// transform empties it; the server still owes an ack for it.
func transformAndApplyBuffers[S any](
	applier edit.Applier[S],
	outstanding edit.OutstandingEdit,
	buffer edit.BufferEdit,
	se edit.ServerEdit,
	state S,
) (bufferResult[S], error) {
	if se.ParentHash != outstanding.ParentHash {
		return bufferResult[S]{}, edit.Unexpected("server edit %q parent %q does not match outstanding parent %q",
			se.ID, se.ParentHash, outstanding.ParentHash)
	}

	outOp, serverOp, err := ot.TransformNullable(outstanding.Operation, se.Operation)
	if err != nil {
		return bufferResult[S]{}, edit.Fatal(err, "transform outstanding edit")
	}
	bufOp, serverOp, err := ot.TransformNullable(buffer.Operation, serverOp)
	if err != nil {
		return bufferResult[S]{}, edit.Fatal(err, "transform buffered edit")
	}

	if serverOp != nil {
		if state, _, err = applier.Apply(state, serverOp); err != nil {
			return bufferResult[S]{}, edit.Fatal(err, "apply foreign edit")
		}
	}
	hash := applier.StateHash(state)

	return bufferResult[S]{
		outstanding: edit.OutstandingEdit{
			ID:         outstanding.ID,
			Operation:  outOp,
			ParentHash: se.ChildHash,
			StartIndex: se.NextIndex,
		},
		buffer:  edit.BufferEdit{Operation: nullable(bufOp), ChildHash: hash},
		applied: nullable(serverOp),
		state:   state,
		hash:    hash,
	}, nil
}
