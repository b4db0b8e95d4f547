package edit

import (
	"encoding/json"
	"fmt"
)

const (
	KindClientEdit       = "client_edit"
	KindClientConnection = "client_connection"
	KindServerEdit       = "server_edit"
)

type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type clientEditPayload struct {
	SourceUID string `json:"sourceUid"`
	Edit      Edit   `json:"edit"`
}

type connectionPayload struct {
	SourceUID string `json:"sourceUid"`
	NextIndex *int   `json:"nextIndex"`
	Edit      *Edit  `json:"edit,omitempty"`
}

type serverEditPayload struct {
	SourceUID string `json:"sourceUid,omitempty"`
	Edit      Edit   `json:"edit"`
	Ack       bool   `json:"ack"`
	Mode      Mode   `json:"mode"`
}

// Encode wraps a ClientEditMessage, ClientConnectionRequest or
// ServerEditMessage in a kind-tagged JSON envelope.
func Encode(msg any) ([]byte, error) {
	var kind string
	var payload any
	switch m := msg.(type) {
	case ClientEditMessage:
		kind = KindClientEdit
		payload = clientEditPayload{SourceUID: m.SourceUID, Edit: m.Edit.Edit()}
	case ClientConnectionRequest:
		kind = KindClientConnection
		p := connectionPayload{SourceUID: m.SourceUID, NextIndex: &m.NextIndex}
		if m.Edit != nil {
			e := m.Edit.Edit()
			p.Edit = &e
		}
		payload = p
	case ServerEditMessage:
		kind = KindServerEdit
		payload = serverEditPayload{SourceUID: m.SourceUID, Edit: m.Edit.Edit(), Ack: m.Ack, Mode: m.Mode}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: kind, Payload: raw})
}

// Decode parses an envelope produced by Encode. Edits are narrowed to their
// specialisation, so a payload missing a required field fails here.
func Decode(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Kind {
	case KindClientEdit:
		var p clientEditPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		update, err := AsUpdateEdit(p.Edit)
		if err != nil {
			return nil, err
		}
		return ClientEditMessage{SourceUID: p.SourceUID, Edit: update}, nil

	case KindClientConnection:
		var p connectionPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.NextIndex == nil {
			return nil, &MissingFieldError{Kind: "ClientConnectionRequest", Field: "nextIndex"}
		}
		req := ClientConnectionRequest{SourceUID: p.SourceUID, NextIndex: *p.NextIndex}
		if p.Edit != nil {
			update, err := AsUpdateEdit(*p.Edit)
			if err != nil {
				return nil, err
			}
			req.Edit = &update
		}
		return req, nil

	case KindServerEdit:
		var p serverEditPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		se, err := AsServerEdit(p.Edit)
		if err != nil {
			return nil, err
		}
		return ServerEditMessage{SourceUID: p.SourceUID, Edit: se, Ack: p.Ack, Mode: p.Mode}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Kind)
	}
}
