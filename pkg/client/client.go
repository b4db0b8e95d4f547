// Package client implements the per-site edit state machine: local edits are
// buffered, at most one edit is in flight to the server, and foreign edits are
// transformed against everything the server has not confirmed yet.
//
// A Client is not safe for concurrent use; drive it from the goroutine that
// owns the site's connection.
package client

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"textot/pkg/edit"
	"textot/pkg/ot"
	"textot/pkg/structs"
)

type Option func(*options)

type options struct {
	logger *slog.Logger
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

type Client[S any] struct {
	uid     string
	applier edit.Applier[S]
	log     *slog.Logger
	seq     structs.Sequence[uint64]

	state       S
	buffer      edit.BufferEdit
	outstanding edit.OutstandingEdit
	undos       edit.EditsStack
	redos       edit.EditsStack

	// resyncing suspends flushing until the server answers a connection
	// request with an in-order message.
	resyncing bool
}

// New returns a client holding the applier's initial state. An empty uid is
// replaced with a random one.
func New[S any](uid string, applier edit.Applier[S], opts ...Option) *Client[S] {
	if uid == "" {
		uid = uuid.NewString()
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	state := applier.Initial()
	hash := applier.StateHash(state)
	return &Client[S]{
		uid:         uid,
		applier:     applier,
		log:         o.logger.With("client", uid),
		state:       state,
		buffer:      edit.BufferEdit{ChildHash: hash},
		outstanding: edit.OutstandingEdit{ParentHash: hash, StartIndex: 0},
		undos:       edit.NewEditsStack(hash),
		redos:       edit.NewEditsStack(hash),
	}
}

func (c *Client[S]) UID() string { return c.uid }
func (c *Client[S]) State() S    { return c.state }

// NextIndex is the log index of the next server edit this client expects.
func (c *Client[S]) NextIndex() int { return c.outstanding.StartIndex }

func (c *Client[S]) Outstanding() edit.OutstandingEdit { return c.outstanding }
func (c *Client[S]) Buffer() edit.BufferEdit           { return c.buffer }
func (c *Client[S]) Undos() edit.EditsStack            { return c.undos.Clone() }
func (c *Client[S]) Redos() edit.EditsStack            { return c.redos.Clone() }
func (c *Client[S]) Resyncing() bool                   { return c.resyncing }

// PerformEdit applies a local operation and returns the message to send, if
// the buffer could be flushed.
func (c *Client[S]) PerformEdit(op ot.Operation) (*edit.ClientEditMessage, error) {
	if op == nil {
		return nil, nil
	}
	next, undo, err := c.applier.Apply(c.state, op)
	if err != nil {
		return nil, edit.Fatal(err, "apply local edit")
	}
	op = ot.Simplify(op)
	if len(op) == 0 {
		return nil, nil
	}

	buffered, err := ot.ComposeNullable(c.buffer.Operation, op)
	if err != nil {
		return nil, edit.Fatal(err, "compose local edit into buffer")
	}

	hash := c.applier.StateHash(next)
	c.state = next
	c.buffer = edit.BufferEdit{Operation: nullable(buffered), ChildHash: hash}
	c.undos.Push(nullable(undo), hash)
	c.redos.Clear(hash)

	if err := c.checkInvariants(); err != nil {
		return nil, err
	}
	return c.flush(), nil
}

// Handle processes one server message. Stale messages are ignored; a gap in
// the log returns an out-of-order error and leaves the client untouched.
func (c *Client[S]) Handle(msg edit.ServerEditMessage) (*edit.ClientEditMessage, error) {
	se := msg.Edit
	next := c.NextIndex()
	switch {
	case se.StartIndex < next:
		c.log.Debug("ignoring stale server edit", "id", se.ID, "start", se.StartIndex, "next", next)
		return nil, nil
	case se.StartIndex > next:
		return nil, &edit.OutOfOrderError{Expected: next, Got: se.StartIndex}
	}

	var err error
	if c.isAck(msg) {
		err = c.handleAck(se)
	} else {
		err = c.handleForeign(se)
	}
	if err != nil {
		return nil, err
	}

	if c.resyncing {
		c.resyncing = false
		c.log.Debug("resync complete", "next", c.NextIndex())
	}
	if err := c.checkInvariants(); err != nil {
		return nil, err
	}
	return c.flush(), nil
}

// ConnectionRequest builds the request a client sends when it (re)connects.
// Until the server answers, local edits stay buffered.
func (c *Client[S]) ConnectionRequest() edit.ClientConnectionRequest {
	req := edit.ClientConnectionRequest{SourceUID: c.uid, NextIndex: c.NextIndex()}
	if !c.outstanding.IsEmpty() {
		update := edit.UpdateEdit(c.outstanding)
		req.Edit = &update
	}
	c.resyncing = true
	c.log.Debug("requesting resync", "next", req.NextIndex, "outstanding", req.Edit != nil)
	return req
}

func (c *Client[S]) isAck(msg edit.ServerEditMessage) bool {
	if c.outstanding.IsEmpty() {
		return msg.Ack
	}
	return msg.Ack || msg.Edit.ID == c.outstanding.ID
}

func (c *Client[S]) handleAck(se edit.ServerEdit) error {
	if c.outstanding.IsEmpty() || se.ID != c.outstanding.ID {
		return edit.Unexpected("ack for %q while %q is outstanding", se.ID, c.outstanding.ID)
	}
	if se.ParentHash != c.outstanding.ParentHash {
		return edit.Unexpected("ack %q parent %q does not match outstanding parent %q",
			se.ID, se.ParentHash, c.outstanding.ParentHash)
	}
	c.log.Debug("outstanding edit acknowledged", "id", se.ID, "next", se.NextIndex)
	c.outstanding = edit.OutstandingEdit{ParentHash: se.ChildHash, StartIndex: se.NextIndex}
	return nil
}

func (c *Client[S]) handleForeign(se edit.ServerEdit) error {
	res, err := transformAndApplyBuffers(c.applier, c.outstanding, c.buffer, se, c.state)
	if err != nil {
		return err
	}
	undos, err := transformEditsStack(res.applied, c.undos, res.hash)
	if err != nil {
		return fmt.Errorf("transform undo stack: %w", err)
	}
	redos, err := transformEditsStack(res.applied, c.redos, res.hash)
	if err != nil {
		return fmt.Errorf("transform redo stack: %w", err)
	}

	c.log.Debug("applied foreign edit", "id", se.ID, "start", se.StartIndex, "next", se.NextIndex)
	c.state = res.state
	c.outstanding = res.outstanding
	c.buffer = res.buffer
	c.undos = undos
	c.redos = redos
	return nil
}

// flush promotes the buffer to the outstanding edit when nothing is in
// flight.
func (c *Client[S]) flush() *edit.ClientEditMessage {
	if c.buffer.IsEmpty() || !c.outstanding.IsEmpty() || c.resyncing {
		return nil
	}
	c.outstanding = edit.OutstandingEdit{
		ID:         fmt.Sprintf("%s:%d", c.uid, c.seq.Next()),
		Operation:  c.buffer.Operation,
		ParentHash: c.outstanding.ParentHash,
		StartIndex: c.outstanding.StartIndex,
	}
	c.buffer = edit.BufferEdit{ChildHash: c.buffer.ChildHash}
	c.log.Debug("flushed buffer", "id", c.outstanding.ID, "start", c.outstanding.StartIndex)
	return &edit.ClientEditMessage{SourceUID: c.uid, Edit: edit.UpdateEdit(c.outstanding)}
}

func (c *Client[S]) checkInvariants() error {
	hash := c.applier.StateHash(c.state)
	switch {
	case c.buffer.ChildHash != hash:
		return edit.Unexpected("buffer child %q does not match state %q", c.buffer.ChildHash, hash)
	case c.undos.ParentHash != hash:
		return edit.Unexpected("undo stack parent %q does not match state %q", c.undos.ParentHash, hash)
	case c.redos.ParentHash != hash:
		return edit.Unexpected("redo stack parent %q does not match state %q", c.redos.ParentHash, hash)
	}
	return nil
}

// nullable maps the empty operation to the null one.
func nullable(op ot.Operation) ot.Operation {
	if len(op) == 0 {
		return nil
	}
	return op
}
