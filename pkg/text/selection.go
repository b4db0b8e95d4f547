package text

import "textot/pkg/ot"

// Selection is a cursor range in rune offsets. Start == End is a caret.
type Selection struct {
	Start int
	End   int
}

// ApplyWithSelection is Apply that also moves sel through op. Text inserted
// before a position pushes it right; text deleted before it pulls it left. An
// insert exactly at a position leaves the position in front of the new text.
func ApplyWithSelection(text string, op ot.Operation, sel Selection) (string, ot.Operation, Selection, error) {
	out, undo, err := Apply(text, op)
	if err != nil {
		return "", nil, Selection{}, err
	}
	moved, err := Project(op, sel)
	if err != nil {
		return "", nil, Selection{}, err
	}
	return out, undo, moved, nil
}

// Project moves sel through op without touching any text.
func Project(op ot.Operation, sel Selection) (Selection, error) {
	i := 0
	for _, c := range op {
		n, err := ot.Length(c)
		if err != nil {
			return Selection{}, err
		}
		switch c.Kind() {
		case ot.KindRetain:
			i += n
		case ot.KindInsert:
			sel.Start = shiftInsert(sel.Start, i, n)
			sel.End = shiftInsert(sel.End, i, n)
			i += n
		case ot.KindDelete:
			sel.Start = shiftDelete(sel.Start, i, n)
			sel.End = shiftDelete(sel.End, i, n)
		}
	}
	return sel, nil
}

func shiftInsert(pos, at, n int) int {
	if pos > at {
		return pos + n
	}
	return pos
}

func shiftDelete(pos, at, n int) int {
	if pos > at {
		return pos - min(n, pos-at)
	}
	return pos
}
