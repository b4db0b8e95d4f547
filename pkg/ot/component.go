package ot

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Kind identifies which of the three component shapes a Component holds.
type Kind uint8

const (
	KindRetain Kind = iota
	KindInsert
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindRetain:
		return "retain"
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Component is a single step of an Operation: skip, insert or remove text at
// the cursor. Lengths are measured in runes.
type Component struct {
	kind Kind
	n    int
	text string
}

func Retain(n int) Component    { return Component{kind: KindRetain, n: n} }
func Delete(n int) Component    { return Component{kind: KindDelete, n: n} }
func Insert(s string) Component { return Component{kind: KindInsert, text: s} }

func (c Component) Kind() Kind     { return c.kind }
func (c Component) IsRetain() bool { return c.kind == KindRetain }
func (c Component) IsInsert() bool { return c.kind == KindInsert }
func (c Component) IsDelete() bool { return c.kind == KindDelete }
func (c Component) Text() string   { return c.text }
func (c Component) isZero() bool   { return c.n == 0 && c.text == "" }
func (c Component) same(o Component) bool {
	return c.kind == o.kind && c.n == o.n && c.text == o.text
}

// Length returns the number of runes the component skips, inserts or removes.
func Length(c Component) (int, error) {
	switch c.kind {
	case KindRetain, KindDelete:
		if c.n < 0 {
			return 0, fmt.Errorf("%w: %s of %d", ErrMalformed, c.kind, c.n)
		}
		return c.n, nil
	case KindInsert:
		return utf8.RuneCountInString(c.text), nil
	default:
		return 0, fmt.Errorf("%w: unknown component %s", ErrMalformed, c.kind)
	}
}

// Len is Length for components already known to be well formed. A
// malformed component has length 0; use Length to find out.
func (c Component) Len() int {
	n, err := Length(c)
	if err != nil {
		return 0
	}
	return n
}

// Split divides c into a head of length offset and the remaining tail.
func Split(c Component, offset int) (head, tail Component, err error) {
	n, err := Length(c)
	if err != nil {
		return Component{}, Component{}, err
	}
	if offset < 0 || offset > n {
		return Component{}, Component{}, fmt.Errorf("%w: %d not in [0, %d]", ErrOffset, offset, n)
	}
	switch c.kind {
	case KindInsert:
		runes := []rune(c.text)
		return Insert(string(runes[:offset])), Insert(string(runes[offset:])), nil
	default:
		return Component{kind: c.kind, n: offset}, Component{kind: c.kind, n: n - offset}, nil
	}
}

// Join merges two adjacent components of the same kind. ok is false when the
// kinds differ.
func Join(c0, c1 Component) (joined Component, ok bool) {
	if c0.kind != c1.kind {
		return Component{}, false
	}
	if c0.kind == KindInsert {
		return Insert(c0.text + c1.text), true
	}
	return Component{kind: c0.kind, n: c0.n + c1.n}, true
}

func (c Component) String() string {
	switch c.kind {
	case KindRetain:
		return "r" + strconv.Itoa(c.n)
	case KindDelete:
		return "d" + strconv.Itoa(c.n)
	case KindInsert:
		return "i" + strconv.Quote(c.text)
	default:
		return c.kind.String()
	}
}
