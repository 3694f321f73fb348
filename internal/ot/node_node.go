package ot

import "inkwell/internal/ops"

// transformNodeNode implements the root-level node-vs-node rules of §4.2:
// insert/insert shift, delete/delete same-target collapse, insert/delete
// shift. Both operations address the document's child list directly by
// Offset (there is no Path below the root for these op kinds).
func transformNodeNode(a, b ops.Operation, tieBreak TieBreak) (ops.Operation, ops.Operation, bool) {
	switch {
	case a.Type == ops.InsertNode && b.Type == ops.InsertNode:
		return insertInsertShift(a, b, tieBreak)

	case a.Type == ops.DeleteNode && b.Type == ops.DeleteNode:
		return deleteDeleteNode(a, b, tieBreak)

	case a.Type == ops.InsertNode && b.Type == ops.DeleteNode:
		na, nb := insertDeleteNodeShift(a, b)
		return na, nb, true
	case a.Type == ops.DeleteNode && b.Type == ops.InsertNode:
		nb, na := insertDeleteNodeShift(b, a)
		return na, nb, true
	}
	return a, b, false
}

// insertInsertShift implements "insert@Ao vs insert@Bo": whichever offset is
// lower is unaffected; the other shifts right by one slot. On an exact tie
// the tieBreak loser shifts.
func insertInsertShift(a, b ops.Operation, tieBreak TieBreak) (ops.Operation, ops.Operation, bool) {
	switch {
	case a.Offset < b.Offset:
		b.Offset++
	case a.Offset > b.Offset:
		a.Offset++
	default:
		if tieBreak == Left {
			b.Offset++
		} else {
			a.Offset++
		}
	}
	return a, b, true
}

// deleteDeleteNode implements "delete@Ao vs delete@Bo": non-colliding
// deletes shift the higher offset left by one; a collision leaves the
// tieBreak winner's delete in place and turns the loser into a no-op
// (Offset=-1).
func deleteDeleteNode(a, b ops.Operation, tieBreak TieBreak) (ops.Operation, ops.Operation, bool) {
	switch {
	case a.Offset < b.Offset:
		b.Offset--
	case a.Offset > b.Offset:
		a.Offset--
	default:
		if tieBreak == Left {
			b.Offset = -1
		} else {
			a.Offset = -1
		}
	}
	return a, b, true
}

// insertDeleteNodeShift implements "insert@Ao vs delete@Bo": an insert at or
// before the deleted slot pushes it one slot further out; an insert after
// the deleted slot shifts left by one to account for the removal.
func insertDeleteNodeShift(ins, del ops.Operation) (ops.Operation, ops.Operation) {
	if ins.Offset <= del.Offset {
		del.Offset++
	} else {
		ins.Offset--
	}
	return ins, del
}
