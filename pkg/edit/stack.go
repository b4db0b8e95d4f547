package edit

import "textot/pkg/ot"

// EditsStack is an undo or redo stack. Operations are oldest first; the top
// entry applies to the state fingerprinted by ParentHash and each older entry
// applies to the result of the entry above it. A nil entry is an edit that
// was transformed away and is skipped when popped.
type EditsStack struct {
	Operations []ot.Operation
	ParentHash Hash
}

func NewEditsStack(parent Hash) EditsStack {
	return EditsStack{ParentHash: parent}
}

func (s EditsStack) Len() int { return len(s.Operations) }

// Push adds op on top and re-parents the stack on parent, the state op
// applies to.
func (s *EditsStack) Push(op ot.Operation, parent Hash) {
	s.Operations = append(s.Operations, op)
	s.ParentHash = parent
}

// Pop removes the top entry. ok is false when the stack is empty.
func (s *EditsStack) Pop() (op ot.Operation, ok bool) {
	n := len(s.Operations)
	if n == 0 {
		return nil, false
	}
	op = s.Operations[n-1]
	s.Operations[n-1] = nil
	s.Operations = s.Operations[:n-1]
	return op, true
}

// Clear drops every entry and re-parents the empty stack.
func (s *EditsStack) Clear(parent Hash) {
	s.Operations = nil
	s.ParentHash = parent
}

func (s EditsStack) Clone() EditsStack {
	ops := make([]ot.Operation, len(s.Operations))
	copy(ops, s.Operations)
	return EditsStack{Operations: ops, ParentHash: s.ParentHash}
}
