package edit

import (
	"errors"
	"fmt"
)

// ErrUnexpected marks every internal-consistency failure: hash mismatches,
// broken invariants, malformed operations, unknown edit ids. Callers must not
// retry on it.
var ErrUnexpected = errors.New("unexpected state")

// ErrOutOfOrder is the only retriable condition. A client that sees it should
// send a ClientConnectionRequest and resync.
var ErrOutOfOrder = errors.New("edit out of order")

var ErrMissingField = errors.New("missing required edit field")
var ErrUnknownMessage = errors.New("unknown message kind")

// MissingFieldError is returned when an Edit is narrowed to an envelope that
// requires a field the edit does not carry.
type MissingFieldError struct {
	Kind  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s requires %s", ErrMissingField, e.Kind, e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// OutOfOrderError reports an index gap between what a site expected next and
// what it received.
type OutOfOrderError struct {
	Expected int
	Got      int
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("%s: expected start index %d, got %d", ErrOutOfOrder, e.Expected, e.Got)
}

func (e *OutOfOrderError) Is(target error) bool {
	return target == ErrOutOfOrder
}

func IsOutOfOrder(err error) bool {
	return errors.Is(err, ErrOutOfOrder)
}

// Unexpected builds an ErrUnexpected with context.
func Unexpected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnexpected, fmt.Sprintf(format, args...))
}

// Fatal wraps err as an unexpected-state error, keeping err in the chain.
func Fatal(err error, context string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnexpected) {
		return fmt.Errorf("%s: %w", context, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnexpected, context, err)
}
