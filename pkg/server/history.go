package server

import (
	"textot/pkg/edit"
	"textot/pkg/ot"
)

// GetEditRange composes the log entries [start, stop) into a single edit. An
// empty range yields the identity edit on the state at start.
func (d *Document[S]) GetEditRange(start, stop int) (edit.ServerEdit, error) {
	if start < 0 || stop < start || stop > len(d.edits) {
		return edit.ServerEdit{}, edit.Unexpected("edit range [%d, %d) outside log of %d", start, stop, len(d.edits))
	}
	if start == stop {
		hash := d.hashAt(start)
		return edit.ServerEdit{
			ID:         edit.IdentityID,
			ParentHash: hash,
			ChildHash:  hash,
			StartIndex: start,
			NextIndex:  stop,
		}, nil
	}

	ops := make([]ot.Operation, 0, stop-start)
	for _, e := range d.edits[start:stop] {
		ops = append(ops, e.Operation)
	}
	composed, err := ot.ComposeMany(ops...)
	if err != nil {
		return edit.ServerEdit{}, edit.Fatal(err, "compose history")
	}
	last := d.edits[stop-1]
	return edit.ServerEdit{
		ID:         last.ID,
		Operation:  composed,
		ParentHash: d.edits[start].ParentHash,
		ChildHash:  last.ChildHash,
		StartIndex: start,
		NextIndex:  stop,
	}, nil
}

func (d *Document[S]) HasEdit(id string) bool {
	_, ok := d.index[id]
	return ok
}

// GetEdit returns a committed edit. Check HasEdit first: an unknown id is an
// unexpected-state error.
func (d *Document[S]) GetEdit(id string) (edit.ServerEdit, error) {
	i, ok := d.index[id]
	if !ok {
		return edit.ServerEdit{}, edit.Unexpected("no edit with id %q", id)
	}
	return d.edits[i], nil
}

// IndexOfEdit returns the log index of id, or -1.
func (d *Document[S]) IndexOfEdit(id string) int {
	if i, ok := d.index[id]; ok {
		return i
	}
	return -1
}

// hashAt is the fingerprint of the state before log entry i.
func (d *Document[S]) hashAt(i int) edit.Hash {
	if i < len(d.edits) {
		return d.edits[i].ParentHash
	}
	return d.applier.StateHash(d.state)
}
