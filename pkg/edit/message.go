package edit

import "fmt"

// Mode tells the transport which sites should receive a ServerEditMessage.
type Mode uint8

const (
	ReplyToSource Mode = iota
	BroadcastToAll
	BroadcastOmittingSource
)

var modeNames = map[Mode]string{
	ReplyToSource:           "REPLY_TO_SOURCE",
	BroadcastToAll:          "BROADCAST_TO_ALL",
	BroadcastOmittingSource: "BROADCAST_OMITTING_SOURCE",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	s, ok := modeNames[m]
	if !ok {
		return nil, fmt.Errorf("invalid mode %d", uint8(m))
	}
	return []byte(s), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	for mode, name := range modeNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("invalid mode %q", text)
}

// ClientEditMessage carries a client's outstanding edit to the server.
type ClientEditMessage struct {
	SourceUID string
	Edit      UpdateEdit
}

// ClientConnectionRequest asks the server for everything after NextIndex,
// optionally together with the edit the client still has in flight.
type ClientConnectionRequest struct {
	SourceUID string
	NextIndex int
	Edit      *UpdateEdit
}

// ServerEditMessage carries a committed edit. Ack is set only on the copy sent
// back to the site that authored it.
type ServerEditMessage struct {
	SourceUID string
	Edit      ServerEdit
	Ack       bool
	Mode      Mode
}
