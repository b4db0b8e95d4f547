// Package text is the plain-text document type: applying operations to
// strings, projecting selections through them and inferring operations from
// before/after snapshots. Positions count runes.
package text

import (
	"fmt"
	"strings"

	"textot/pkg/edit"
	"textot/pkg/ot"
)

// Applier implements edit.Applier for plain strings. A string is its own
// fingerprint.
type Applier struct{}

var _ edit.Applier[string] = Applier{}

func (Applier) Initial() string { return "" }

func (Applier) StateHash(text string) edit.Hash { return edit.Hash(text) }

func (Applier) Apply(text string, op ot.Operation) (string, ot.Operation, error) {
	return Apply(text, op)
}

// Apply runs op over text and returns the result with the operation that
// undoes it.
func Apply(text string, op ot.Operation) (string, ot.Operation, error) {
	src := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	undo := make(ot.Operation, 0, len(op))

	i := 0
	for _, c := range op {
		n, err := ot.Length(c)
		if err != nil {
			return "", nil, err
		}
		switch c.Kind() {
		case ot.KindRetain:
			if i+n > len(src) {
				return "", nil, fmt.Errorf("%w: retain %d at %d of %d", ot.ErrOvershoot, n, i, len(src))
			}
			b.WriteString(string(src[i : i+n]))
			undo = append(undo, ot.Retain(n))
			i += n
		case ot.KindInsert:
			b.WriteString(c.Text())
			undo = append(undo, ot.Delete(n))
		case ot.KindDelete:
			if i+n > len(src) {
				return "", nil, fmt.Errorf("%w: delete %d at %d of %d", ot.ErrOvershoot, n, i, len(src))
			}
			undo = append(undo, ot.Insert(string(src[i:i+n])))
			i += n
		}
	}
	b.WriteString(string(src[i:]))
	return b.String(), ot.Simplify(undo), nil
}
