package ot

import "inkwell/internal/ops"

// transformSameBlock dispatches operation pairs that share a target block:
// text-vs-text, mark-vs-text, mark-vs-mark, and attrs/type-vs-attrs/type.
// Pairs that address disjoint concerns of the same block (e.g. set_node_type
// vs update_attrs) commute and pass through unchanged.
func transformSameBlock(a, b ops.Operation, tieBreak TieBreak) (ops.Operation, ops.Operation, bool) {
	switch {
	case isTextOp(a) && isTextOp(b):
		return transformTextText(a, b, tieBreak)

	case isMarkOp(a) && isTextOp(b):
		return mapMarkThroughText(a, b), b, true
	case isTextOp(a) && isMarkOp(b):
		na, nb := mapMarkThroughText(b, a), a
		return nb, na, true

	case isMarkOp(a) && isMarkOp(b):
		return transformMarkMark(a, b, tieBreak)

	case isAttrsTypeOp(a) && isAttrsTypeOp(b) && a.Type == b.Type:
		return transformLastWriterWins(a, b, tieBreak)

	case isAttrsTypeOp(a) && isAttrsTypeOp(b):
		// set_node_type vs update_attrs: disjoint fields, commute freely.
		return a, b, true

	case (isAttrsTypeOp(a) && (isTextOp(b) || isMarkOp(b))) || (isAttrsTypeOp(b) && (isTextOp(a) || isMarkOp(a))):
		// Attrs/type edits don't interact with text offsets.
		return a, b, true
	}
	return a, b, false
}

// transformTextText implements the text-vs-text rules of §4.2: insert/insert
// shift, insert/delete shift-or-absorb, delete/delete range subtraction.
func transformTextText(a, b ops.Operation, tieBreak TieBreak) (ops.Operation, ops.Operation, bool) {
	switch {
	case a.Type == ops.InsertText && b.Type == ops.InsertText:
		return insertInsertText(a, b, tieBreak)

	case a.Type == ops.InsertText && b.Type == ops.DeleteText:
		na, nb := insertDeleteText(a, b)
		return na, nb, true
	case a.Type == ops.DeleteText && b.Type == ops.InsertText:
		nb, na := insertDeleteText(b, a)
		return na, nb, true

	case a.Type == ops.DeleteText && b.Type == ops.DeleteText:
		na := transformDeleteAgainstDelete(a, b)
		nb := transformDeleteAgainstDelete(b, a)
		return na, nb, true
	}
	return a, b, false
}

// insertInsertText implements "insert@Ao vs insert@Bo" for text offsets:
// whichever offset is lower is unaffected; the higher shifts right by the
// length of the other's inserted text. An exact tie defers to tieBreak.
func insertInsertText(a, b ops.Operation, tieBreak TieBreak) (ops.Operation, ops.Operation, bool) {
	aLen := len([]rune(a.Data))
	bLen := len([]rune(b.Data))
	switch {
	case a.Offset < b.Offset:
		b.Offset += aLen
	case a.Offset > b.Offset:
		a.Offset += bLen
	default:
		if tieBreak == Left {
			b.Offset += aLen
		} else {
			a.Offset += bLen
		}
	}
	return a, b, true
}

// insertDeleteText implements "insert@Ao vs delete [Bo,Bo+Bl)": an insert at
// or before the deleted range pushes the range's start right; an insert
// after the range shifts left by the range's length; an insert landing
// inside the range moves to the range's start and the range grows to cover
// the inserted text. The grown delete consumes the inserted text wherever
// it physically landed, so the insert side is reduced to its no-op sentinel
// — applying a bare insert at the collapse point in the other history would
// let the text it carries survive the concurrent delete, breaking
// convergence.
func insertDeleteText(ins, del ops.Operation) (ops.Operation, ops.Operation) {
	insLen := len([]rune(ins.Data))
	switch {
	case ins.Offset <= del.Offset:
		del.Offset += insLen
	case ins.Offset >= del.Offset+del.Length:
		ins.Offset -= del.Length
	default:
		del.Length += insLen
		ins.Offset = del.Offset
		ins.Data = ""
	}
	return ins, del
}

// transformDeleteAgainstDelete recomputes del so that, applied after other
// has already removed its own range, del removes exactly the text it
// originally targeted and nothing other already removed. A del fully
// contained within other's range becomes a no-op (Length=0).
func transformDeleteAgainstDelete(del, other ops.Operation) ops.Operation {
	delStart, delEnd := del.Offset, del.Offset+del.Length
	otherStart, otherEnd := other.Offset, other.Offset+other.Length

	switch {
	case otherStart >= delEnd:
		return del
	case delStart >= otherEnd:
		del.Offset -= other.Length
		return del
	}

	switch {
	case delStart < otherStart:
		if delEnd <= otherEnd {
			del.Length = otherStart - delStart
		} else {
			del.Length -= other.Length
		}
	default:
		if delEnd <= otherEnd {
			del.Length = 0
		} else {
			del.Offset = otherStart
			del.Length = delEnd - otherEnd
		}
	}
	return del
}
