// Package position implements §4.4's position mapper: translating a caret
// or selection across a sequence of remote operations so a client's cursor
// keeps pointing at the same logical content after a remote edit lands.
package position

import (
	"inkwell/internal/document"
	"inkwell/internal/ops"
)

// Map folds remoteOps left-to-right over pos and returns the mapped
// position. It never errors — an op addressing a block the position isn't
// in, or a kind this mapper doesn't reason about, simply passes pos through
// unchanged for that step.
func Map(pos document.Position, remoteOps []ops.Operation) document.Position {
	for _, op := range remoteOps {
		pos = mapOne(pos, op)
	}
	return pos
}

func mapOne(pos document.Position, op ops.Operation) document.Position {
	switch op.Type {
	case ops.InsertText:
		if op.BlockIndex() == pos.BlockIndex && op.Offset <= pos.Offset {
			pos.Offset += len([]rune(op.Data))
		}
	case ops.DeleteText:
		if op.BlockIndex() == pos.BlockIndex {
			start, end := op.Offset, op.Offset+op.Length
			switch {
			case pos.Offset <= start:
				// unchanged
			case pos.Offset >= end:
				pos.Offset -= op.Length
			default:
				pos.Offset = start
			}
		}
	case ops.InsertNode:
		if op.Offset <= pos.BlockIndex {
			pos.BlockIndex++
		}
	case ops.DeleteNode:
		switch {
		case op.Offset < pos.BlockIndex:
			pos.BlockIndex--
		case op.Offset == pos.BlockIndex:
			pos.BlockIndex = max(0, pos.BlockIndex-1)
			pos.Offset = 0
		}
	}
	return pos
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// MapSelection maps a selection's anchor and focus independently, per §4.4.
func MapSelection(sel document.Selection, remoteOps []ops.Operation) document.Selection {
	return document.Selection{
		Anchor: Map(sel.Anchor, remoteOps),
		Focus:  Map(sel.Focus, remoteOps),
	}
}
