// Package server implements the authoritative per-document edit log. Every
// client edit is transformed against the history its author had not seen,
// applied and appended, giving all sites a single total order.
//
// A Document is not safe for concurrent use; callers serialise access per
// document.
package server

import (
	"log/slog"

	"textot/pkg/edit"
	"textot/pkg/ot"
)

type Option func(*options)

type options struct {
	logger *slog.Logger
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

type Document[S any] struct {
	applier edit.Applier[S]
	log     *slog.Logger

	state S
	edits []edit.ServerEdit
	index map[string]int
}

func New[S any](applier edit.Applier[S], opts ...Option) *Document[S] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Document[S]{
		applier: applier,
		log:     o.logger,
		state:   applier.Initial(),
		index:   make(map[string]int),
	}
}

func (d *Document[S]) State() S { return d.state }

// Len is the number of committed edits, which is also the next log index.
func (d *Document[S]) Len() int { return len(d.edits) }

func (d *Document[S]) Hash() edit.Hash { return d.applier.StateHash(d.state) }

func (d *Document[S]) Edits() []edit.ServerEdit {
	out := make([]edit.ServerEdit, len(d.edits))
	copy(out, d.edits)
	return out
}

// HandleClientEdit commits a client edit and returns a broadcast for every
// other site and an ack for the author. A retransmitted edit only gets the
// ack of its committed form.
func (d *Document[S]) HandleClientEdit(msg edit.ClientEditMessage) ([]edit.ServerEditMessage, error) {
	e := msg.Edit
	if i, ok := d.index[e.ID]; ok {
		d.log.Debug("duplicate client edit", "id", e.ID, "index", i, "source", msg.SourceUID)
		return []edit.ServerEditMessage{ack(msg.SourceUID, d.edits[i])}, nil
	}

	next := len(d.edits)
	switch {
	case e.StartIndex > next:
		return nil, &edit.OutOfOrderError{Expected: next, Got: e.StartIndex}
	case e.StartIndex < 0:
		return nil, edit.Unexpected("edit %q has negative start index %d", e.ID, e.StartIndex)
	}

	history, err := d.GetEditRange(e.StartIndex, next)
	if err != nil {
		return nil, err
	}
	if history.ParentHash != e.ParentHash {
		return nil, edit.Unexpected("edit %q parent %q does not match log state %q at %d",
			e.ID, e.ParentHash, history.ParentHash, e.StartIndex)
	}

	op, _, err := ot.TransformNullable(e.Operation, history.Operation)
	if err != nil {
		return nil, edit.Fatal(err, "transform client edit "+e.ID)
	}
	state, _, err := d.applier.Apply(d.state, op)
	if err != nil {
		return nil, edit.Fatal(err, "apply client edit "+e.ID)
	}

	committed := edit.ServerEdit{
		ID:         e.ID,
		Operation:  op,
		ParentHash: history.ChildHash,
		ChildHash:  d.applier.StateHash(state),
		StartIndex: next,
		NextIndex:  next + 1,
	}
	d.state = state
	d.edits = append(d.edits, committed)
	d.index[e.ID] = next
	d.log.Debug("committed client edit", "id", e.ID, "source", msg.SourceUID,
		"start", e.StartIndex, "index", next, "transformed_over", next-e.StartIndex)

	return []edit.ServerEditMessage{
		{SourceUID: msg.SourceUID, Edit: committed, Mode: edit.BroadcastOmittingSource},
		ack(msg.SourceUID, committed),
	}, nil
}

// HandleServerEdits answers a connection request with the messages that
// bring the client up to date. The client's outstanding edit, if any, is
// either acknowledged in place or committed after the history it missed.
func (d *Document[S]) HandleServerEdits(req edit.ClientConnectionRequest) ([]edit.ServerEditMessage, error) {
	size := len(d.edits)
	if req.NextIndex < 0 || req.NextIndex > size {
		return nil, &edit.OutOfOrderError{Expected: size, Got: req.NextIndex}
	}

	if req.Edit == nil {
		history, err := d.GetEditRange(req.NextIndex, size)
		if err != nil {
			return nil, err
		}
		d.log.Debug("resync without outstanding edit", "source", req.SourceUID, "from", req.NextIndex, "to", size)
		return []edit.ServerEditMessage{reply(req.SourceUID, history)}, nil
	}

	if i, ok := d.index[req.Edit.ID]; ok {
		if i < req.NextIndex {
			return nil, edit.Unexpected("outstanding edit %q committed at %d, before requested index %d",
				req.Edit.ID, i, req.NextIndex)
		}
		d.log.Debug("resync with committed edit", "source", req.SourceUID, "id", req.Edit.ID, "index", i)
		return d.splitAround(req, i)
	}

	var out []edit.ServerEditMessage
	if req.NextIndex < size {
		history, err := d.GetEditRange(req.NextIndex, size)
		if err != nil {
			return nil, err
		}
		out = append(out, reply(req.SourceUID, history))
	}
	d.log.Debug("resync with uncommitted edit", "source", req.SourceUID, "id", req.Edit.ID, "missed", size-req.NextIndex)
	committed, err := d.HandleClientEdit(edit.ClientEditMessage{SourceUID: req.SourceUID, Edit: *req.Edit})
	if err != nil {
		return nil, err
	}
	return append(out, committed...), nil
}

// splitAround returns the history before the client's committed edit at i,
// its ack, and the history after it. The ack is never folded into a range.
func (d *Document[S]) splitAround(req edit.ClientConnectionRequest, i int) ([]edit.ServerEditMessage, error) {
	var out []edit.ServerEditMessage
	if i > req.NextIndex {
		before, err := d.GetEditRange(req.NextIndex, i)
		if err != nil {
			return nil, err
		}
		out = append(out, reply(req.SourceUID, before))
	}
	out = append(out, ack(req.SourceUID, d.edits[i]))
	if i+1 < len(d.edits) {
		after, err := d.GetEditRange(i+1, len(d.edits))
		if err != nil {
			return nil, err
		}
		out = append(out, reply(req.SourceUID, after))
	}
	return out, nil
}

func ack(source string, e edit.ServerEdit) edit.ServerEditMessage {
	return edit.ServerEditMessage{SourceUID: source, Edit: e, Ack: true, Mode: edit.ReplyToSource}
}

func reply(source string, e edit.ServerEdit) edit.ServerEditMessage {
	return edit.ServerEditMessage{SourceUID: source, Edit: e, Mode: edit.ReplyToSource}
}
