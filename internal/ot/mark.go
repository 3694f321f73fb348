package ot

import "inkwell/internal/ops"

// mapMarkThroughText maps a mark op's [Offset, Offset+Length) range through
// a concurrent text op on the same block, per §4.2's "mark-range endpoints
// map through concurrent text ops" rule. The text op itself is untouched —
// marks never shift text.
func mapMarkThroughText(mark, text ops.Operation) ops.Operation {
	switch text.Type {
	case ops.InsertText:
		insLen := len([]rune(text.Data))
		switch {
		case text.Offset <= mark.Offset:
			mark.Offset += insLen
		case text.Offset < mark.Offset+mark.Length:
			mark.Length += insLen
		}
	case ops.DeleteText:
		asRange := ops.Operation{Offset: mark.Offset, Length: mark.Length}
		shrunk := transformDeleteAgainstDelete(asRange, text)
		mark.Offset, mark.Length = shrunk.Offset, shrunk.Length
	}
	return mark
}

// transformMarkMark implements §4.2's mark-vs-mark rule: opposite mark ops
// (add vs remove) over the exact same range and mark converge by rewriting
// the loser into a copy of the winner, so both streams apply the same final
// mark op. Any other pairing (different ranges, same op kind) already
// commutes as an idempotent per-character set operation and passes through
// unchanged.
func transformMarkMark(a, b ops.Operation, tieBreak TieBreak) (ops.Operation, ops.Operation, bool) {
	sameRange := a.Offset == b.Offset && a.Length == b.Length
	opposite := a.Type != b.Type
	sameMark := a.Mark.Equal(b.Mark)

	if sameRange && opposite && sameMark {
		if tieBreak == Left {
			b.Type = a.Type
		} else {
			a.Type = b.Type
		}
	}
	return a, b, true
}

// transformLastWriterWins implements §4.2's attrs/type-vs-attrs/type rule:
// neither op is dropped from the wire, but the tieBreak loser is rewritten
// to carry the winner's value, so applying it re-asserts (rather than
// undoes) the winning write regardless of which stream applies it last.
func transformLastWriterWins(a, b ops.Operation, tieBreak TieBreak) (ops.Operation, ops.Operation, bool) {
	if tieBreak == Left {
		b.NodeType = a.NodeType
		b.Attrs = cloneAttrs(a.Attrs)
	} else {
		a.NodeType = b.NodeType
		a.Attrs = cloneAttrs(b.Attrs)
	}
	return a, b, true
}

func cloneAttrs(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
