package ot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes a retain as a non-negative integer, a delete as the
// negated count and an insert as a string.
func (c Component) MarshalJSON() ([]byte, error) {
	n, err := Length(c)
	if err != nil {
		return nil, err
	}
	switch c.kind {
	case KindRetain:
		return json.Marshal(n)
	case KindDelete:
		if n == 0 {
			return nil, fmt.Errorf("%w: zero-length delete has no encoding", ErrMalformed)
		}
		return json.Marshal(-n)
	default:
		return json.Marshal(c.text)
	}
}

func (c *Component) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Insert(s)
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformed, data)
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("%w: %s is not an integer", ErrMalformed, n)
	}
	if v < 0 {
		*c = Delete(int(-v))
	} else {
		*c = Retain(int(v))
	}
	return nil
}
