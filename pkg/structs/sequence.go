package structs

import (
	"sync/atomic"

	"golang.org/x/exp/constraints"
)

// Sequence hands out strictly increasing values starting at 1. It is safe for
// concurrent use.
type Sequence[V constraints.Integer] struct {
	last atomic.Int64
}

func (s *Sequence[V]) Next() V {
	return V(s.last.Add(1))
}

// Last returns the most recent value handed out, or 0.
func (s *Sequence[V]) Last() V {
	return V(s.last.Load())
}
