package text

import "textot/pkg/ot"

// Infer returns the operation turning before into after as a single
// replacement between their common prefix and suffix, or nil when the texts
// are equal.
func Infer(before, after string) ot.Operation {
	if before == after {
		return nil
	}
	a, b := []rune(before), []rune(after)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	// The suffix only looks at what the prefix left over, so a repeated
	// character is never counted twice.
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	return ot.Simplify(ot.Operation{
		ot.Retain(prefix),
		ot.Delete(len(a) - prefix - suffix),
		ot.Insert(string(b[prefix : len(b)-suffix])),
	})
}
