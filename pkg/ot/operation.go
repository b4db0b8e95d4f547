// Package ot implements the plain-text operation algebra: operations are
// sequences of retain, insert and delete components that can be applied,
// composed and transformed against each other.
//
// Every function in this package is pure and safe for concurrent use.
package ot

import "strings"

// Operation is an ordered sequence of components walked left to right with a
// cursor into the text. Anything past the last component is retained.
//
// A nil Operation is the null operation ("no change").
type Operation []Component

// Simplify removes zero-length components, merges adjacent components of the
// same kind and drops a trailing retain. The result is never nil.
func Simplify(op Operation) Operation {
	out := make(Operation, 0, len(op))
	for _, c := range op {
		if c.isZero() {
			continue
		}
		if last := len(out) - 1; last >= 0 {
			if joined, ok := Join(out[last], c); ok {
				out[last] = joined
				continue
			}
		}
		out = append(out, c)
	}
	if last := len(out) - 1; last >= 0 && out[last].IsRetain() {
		out = out[:last]
	}
	return out
}

// Validate reports the first malformed component of op.
func (op Operation) Validate() error {
	for _, c := range op {
		if _, err := Length(c); err != nil {
			return err
		}
	}
	return nil
}

// IsNoop reports whether op leaves every text unchanged.
func (op Operation) IsNoop() bool {
	for _, c := range op {
		if !c.IsRetain() && !c.isZero() {
			return false
		}
	}
	return true
}

// BaseLength is the number of runes op consumes from its input.
func (op Operation) BaseLength() (int, error) {
	return op.sum(KindInsert)
}

// TargetLength is the number of runes op writes, ignoring the implicit
// trailing retain.
func (op Operation) TargetLength() (int, error) {
	return op.sum(KindDelete)
}

func (op Operation) sum(skip Kind) (int, error) {
	n := 0
	for _, c := range op {
		if c.Kind() == skip {
			continue
		}
		l, err := Length(c)
		if err != nil {
			return 0, err
		}
		n += l
	}
	return n, nil
}

// Equal reports whether a and b hold identical components. Nil and empty
// operations are not equal.
func Equal(a, b Operation) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].same(b[i]) {
			return false
		}
	}
	return true
}

func (op Operation) String() string {
	if op == nil {
		return "<null>"
	}
	parts := make([]string, len(op))
	for i, c := range op {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// cursor walks an operation one component at a time, handing out the
// unconsumed part of the current component.
type cursor struct {
	op   Operation
	i    int
	head Component
	ok   bool
}

func newCursor(op Operation) *cursor {
	return &cursor{op: op}
}

// peek returns the current component, skipping zero-length ones.
func (c *cursor) peek() (Component, bool, error) {
	for !c.ok {
		if c.i >= len(c.op) {
			return Component{}, false, nil
		}
		next := c.op[c.i]
		c.i++
		n, err := Length(next)
		if err != nil {
			return Component{}, false, err
		}
		if n == 0 {
			continue
		}
		c.head, c.ok = next, true
	}
	return c.head, true, nil
}

// take consumes the whole current component.
func (c *cursor) take() {
	c.ok = false
}

// takeN consumes n runes of the current component and returns them.
func (c *cursor) takeN(n int) (Component, error) {
	head, tail, err := Split(c.head, n)
	if err != nil {
		return Component{}, err
	}
	if tail.Len() == 0 {
		c.ok = false
	} else {
		c.head = tail
	}
	return head, nil
}
