package ot

import "fmt"

// Compose returns a single operation equivalent to applying a and then b.
func Compose(a, b Operation) (Operation, error) {
	ca, cb := newCursor(a), newCursor(b)
	var out Operation
	for {
		x, okA, err := ca.peek()
		if err != nil {
			return nil, err
		}
		y, okB, err := cb.peek()
		if err != nil {
			return nil, err
		}

		// Text deleted by a is never seen by b and text inserted by b was
		// never seen by a. Deletes go first so that an insert at the end of a
		// deleted region lands after it, as it would applied in sequence.
		switch {
		case okA && x.IsDelete():
			out = append(out, x)
			ca.take()
			continue
		case okB && y.IsInsert():
			out = append(out, y)
			cb.take()
			continue
		case !okA && !okB:
			return Simplify(out), nil
		}

		var hx, hy Component
		switch {
		case !okA:
			hx, hy = Retain(y.Len()), y
			cb.take()
		case !okB:
			hx, hy = x, Retain(x.Len())
			ca.take()
		default:
			n := min(x.Len(), y.Len())
			if hx, err = ca.takeN(n); err != nil {
				return nil, err
			}
			if hy, err = cb.takeN(n); err != nil {
				return nil, err
			}
		}

		switch n := hx.Len(); {
		case hx.IsRetain() && hy.IsRetain():
			out = append(out, Retain(n))
		case hx.IsInsert() && hy.IsRetain():
			out = append(out, hx)
		case hx.IsRetain() && hy.IsDelete():
			out = append(out, Delete(n))
		case hx.IsInsert() && hy.IsDelete():
			// the delete cancels the insert
		default:
			return nil, fmt.Errorf("%w: compose %s with %s", ErrUnreachable, hx, hy)
		}
	}
}

// ComposeNullable is Compose with nil treated as the absorbing "no change".
func ComposeNullable(a, b Operation) (Operation, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	return Compose(a, b)
}

// ComposeMany folds Compose over ops from left to right, starting from the
// empty operation. Nil entries are skipped.
func ComposeMany(ops ...Operation) (Operation, error) {
	out := Operation{}
	for i, op := range ops {
		if op == nil {
			continue
		}
		var err error
		if out, err = Compose(out, op); err != nil {
			return nil, fmt.Errorf("compose operation %d: %w", i, err)
		}
	}
	return out, nil
}
