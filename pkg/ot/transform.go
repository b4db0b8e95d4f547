package ot

import "fmt"

// Transform takes two operations parented on the same text and returns
// (a', b') such that applying a then b' gives the same text as applying b
// then a'.
//
// When both sides insert at the same position, a's text ends up before b's.
func Transform(a, b Operation) (Operation, Operation, error) {
	ca, cb := newCursor(a), newCursor(b)
	var ap, bp Operation
	for {
		x, okA, err := ca.peek()
		if err != nil {
			return nil, nil, err
		}
		y, okB, err := cb.peek()
		if err != nil {
			return nil, nil, err
		}

		switch {
		case okA && x.IsInsert():
			ap = append(ap, x)
			bp = append(bp, Retain(x.Len()))
			ca.take()
			continue
		case okB && y.IsInsert():
			ap = append(ap, Retain(y.Len()))
			bp = append(bp, y)
			cb.take()
			continue
		case !okA && !okB:
			return Simplify(ap), Simplify(bp), nil
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
				return nil, nil, err
			}
			if hy, err = cb.takeN(n); err != nil {
				return nil, nil, err
			}
		}

		switch n := hx.Len(); {
		case hx.IsRetain() && hy.IsRetain():
			ap = append(ap, Retain(n))
			bp = append(bp, Retain(n))
		case hx.IsDelete() && hy.IsRetain():
			ap = append(ap, Delete(n))
		case hx.IsRetain() && hy.IsDelete():
			bp = append(bp, Delete(n))
		case hx.IsDelete() && hy.IsDelete():
			// both sides removed the same text
		default:
			return nil, nil, fmt.Errorf("%w: transform %s against %s", ErrUnreachable, hx, hy)
		}
	}
}

// TransformNullable is Transform with nil treated as "no change": a nil side
// stays nil and the other side passes through untouched.
func TransformNullable(a, b Operation) (Operation, Operation, error) {
	if a == nil || b == nil {
		return a, b, nil
	}
	return Transform(a, b)
}
