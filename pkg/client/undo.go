package client

import (
	"textot/pkg/edit"
	"textot/pkg/ot"
)

// PerformUndo reverts the most recent local edit that has not been
// transformed away. It is a no-op on an empty stack.
func (c *Client[S]) PerformUndo() (*edit.ClientEditMessage, error) {
	return c.replay(&c.undos, &c.redos, "undo")
}

// PerformRedo reapplies the most recently undone edit.
func (c *Client[S]) PerformRedo() (*edit.ClientEditMessage, error) {
	return c.replay(&c.redos, &c.undos, "redo")
}

func (c *Client[S]) CanUndo() bool { return hasLive(c.undos) }
func (c *Client[S]) CanRedo() bool { return hasLive(c.redos) }

// replay pops from, applies the entry and pushes its inverse onto to.
func (c *Client[S]) replay(from, to *edit.EditsStack, what string) (*edit.ClientEditMessage, error) {
	hash := c.applier.StateHash(c.state)
	if from.ParentHash != hash {
		return nil, edit.Unexpected("%s stack parent %q does not match state %q", what, from.ParentHash, hash)
	}

	scratch := from.Clone()
	var op ot.Operation
	for op == nil {
		var ok bool
		if op, ok = scratch.Pop(); !ok {
			return nil, nil
		}
	}

	next, inverse, err := c.applier.Apply(c.state, op)
	if err != nil {
		return nil, edit.Fatal(err, what)
	}
	buffered, err := ot.ComposeNullable(c.buffer.Operation, op)
	if err != nil {
		return nil, edit.Fatal(err, "compose "+what+" into buffer")
	}

	hash = c.applier.StateHash(next)
	c.state = next
	c.buffer = edit.BufferEdit{Operation: nullable(buffered), ChildHash: hash}
	*from = scratch
	from.ParentHash = hash
	to.Push(nullable(inverse), hash)
	c.log.Debug("replayed "+what, "undos", c.undos.Len(), "redos", c.redos.Len())

	if err := c.checkInvariants(); err != nil {
		return nil, err
	}
	return c.flush(), nil
}

// transformEditsStack re-parents a stack across an operation applied on top
// of the state the stack is parented on. Entries are transformed newest
// first, each one seeing the applied operation as it looks after the entries
// above it. Entries that transform to nothing become nil.
func transformEditsStack(applied ot.Operation, stack edit.EditsStack, parent edit.Hash) (edit.EditsStack, error) {
	out := stack.Clone()
	out.ParentHash = parent
	if applied == nil {
		return out, nil
	}

	other := applied
	for i := len(out.Operations) - 1; i >= 0; i-- {
		if out.Operations[i] == nil {
			continue
		}
		op, next, err := ot.Transform(out.Operations[i], other)
		if err != nil {
			return edit.EditsStack{}, edit.Fatal(err, "transform stack entry")
		}
		out.Operations[i] = nullable(op)
		other = next
	}
	return out, nil
}

func hasLive(s edit.EditsStack) bool {
	for _, op := range s.Operations {
		if op != nil {
			return true
		}
	}
	return false
}
