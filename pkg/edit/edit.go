// Package edit defines the envelopes that carry operations between sites:
// the general Edit shape, its four specialisations, undo/redo stacks and the
// client/server messages.
package edit

import "textot/pkg/ot"

// IdentityID names the zero-length edit returned for an empty history range.
const IdentityID = "identity"

// Edit is the general envelope around an operation. Every field is optional;
// the As* functions narrow it to a specialisation and fail when a required
// field is absent.
type Edit struct {
	ID         *string      `json:"id,omitempty"`
	Operation  ot.Operation `json:"operation"`
	ParentHash *Hash        `json:"parentHash,omitempty"`
	ChildHash  *Hash        `json:"childHash,omitempty"`
	StartIndex *int         `json:"startIndex,omitempty"`
	NextIndex  *int         `json:"nextIndex,omitempty"`
}

// ServerEdit is a committed entry of the server's total order.
type ServerEdit struct {
	ID         string
	Operation  ot.Operation
	ParentHash Hash
	ChildHash  Hash
	StartIndex int
	NextIndex  int
}

// BufferEdit holds local edits not yet sent. Its parent is the child of the
// outstanding edit.
type BufferEdit struct {
	Operation ot.Operation
	ChildHash Hash
}

// OutstandingEdit is the edit in flight to the server. A nil operation means
// nothing is in flight.
type OutstandingEdit struct {
	ID         string
	Operation  ot.Operation
	ParentHash Hash
	StartIndex int
}

// UpdateEdit is the wire form of an OutstandingEdit; its operation is never nil.
type UpdateEdit struct {
	ID         string
	Operation  ot.Operation
	ParentHash Hash
	StartIndex int
}

func AsServerEdit(e Edit) (ServerEdit, error) {
	const kind = "ServerEdit"
	switch {
	case e.ID == nil:
		return ServerEdit{}, &MissingFieldError{Kind: kind, Field: "id"}
	case e.ParentHash == nil:
		return ServerEdit{}, &MissingFieldError{Kind: kind, Field: "parentHash"}
	case e.ChildHash == nil:
		return ServerEdit{}, &MissingFieldError{Kind: kind, Field: "childHash"}
	case e.StartIndex == nil:
		return ServerEdit{}, &MissingFieldError{Kind: kind, Field: "startIndex"}
	case e.NextIndex == nil:
		return ServerEdit{}, &MissingFieldError{Kind: kind, Field: "nextIndex"}
	}
	return ServerEdit{
		ID:         *e.ID,
		Operation:  e.Operation,
		ParentHash: *e.ParentHash,
		ChildHash:  *e.ChildHash,
		StartIndex: *e.StartIndex,
		NextIndex:  *e.NextIndex,
	}, nil
}

func AsBufferEdit(e Edit) (BufferEdit, error) {
	if e.ChildHash == nil {
		return BufferEdit{}, &MissingFieldError{Kind: "BufferEdit", Field: "childHash"}
	}
	return BufferEdit{Operation: e.Operation, ChildHash: *e.ChildHash}, nil
}

func AsOutstandingEdit(e Edit) (OutstandingEdit, error) {
	const kind = "OutstandingEdit"
	switch {
	case e.ID == nil:
		return OutstandingEdit{}, &MissingFieldError{Kind: kind, Field: "id"}
	case e.ParentHash == nil:
		return OutstandingEdit{}, &MissingFieldError{Kind: kind, Field: "parentHash"}
	case e.StartIndex == nil:
		return OutstandingEdit{}, &MissingFieldError{Kind: kind, Field: "startIndex"}
	}
	return OutstandingEdit{
		ID:         *e.ID,
		Operation:  e.Operation,
		ParentHash: *e.ParentHash,
		StartIndex: *e.StartIndex,
	}, nil
}

func AsUpdateEdit(e Edit) (UpdateEdit, error) {
	if e.Operation == nil {
		return UpdateEdit{}, &MissingFieldError{Kind: "UpdateEdit", Field: "operation"}
	}
	o, err := AsOutstandingEdit(e)
	if err != nil {
		if mf, ok := err.(*MissingFieldError); ok {
			mf.Kind = "UpdateEdit"
		}
		return UpdateEdit{}, err
	}
	return UpdateEdit(o), nil
}

func (e ServerEdit) Edit() Edit {
	return Edit{
		ID:         &e.ID,
		Operation:  e.Operation,
		ParentHash: &e.ParentHash,
		ChildHash:  &e.ChildHash,
		StartIndex: &e.StartIndex,
		NextIndex:  &e.NextIndex,
	}
}

func (e BufferEdit) Edit() Edit {
	return Edit{Operation: e.Operation, ChildHash: &e.ChildHash}
}

func (e OutstandingEdit) Edit() Edit {
	return Edit{
		ID:         &e.ID,
		Operation:  e.Operation,
		ParentHash: &e.ParentHash,
		StartIndex: &e.StartIndex,
	}
}

func (e UpdateEdit) Edit() Edit {
	return OutstandingEdit(e).Edit()
}

// Update narrows an outstanding edit to its wire form. It fails when nothing
// is in flight.
func (e OutstandingEdit) Update() (UpdateEdit, error) {
	return AsUpdateEdit(e.Edit())
}

// IsEmpty reports whether no operation is in flight.
func (e OutstandingEdit) IsEmpty() bool { return e.Operation == nil }

// IsEmpty reports whether nothing is buffered.
func (e BufferEdit) IsEmpty() bool { return e.Operation == nil }
