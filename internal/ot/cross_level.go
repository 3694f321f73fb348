package ot

import "inkwell/internal/ops"

// transformNodeVsBlock implements the cross-level rules of §4.2: a root
// node op shifts (or voids) a concurrent block-addressed op's target block
// index. The node op itself never changes in response to a block op, since
// block ops never touch the root child list.
func transformNodeVsBlock(node, block ops.Operation) (ops.Operation, ops.Operation) {
	n := block.BlockIndex()

	switch node.Type {
	case ops.InsertNode:
		if node.Offset <= n {
			block.Path = shiftedPath(block.Path, 1)
		}
	case ops.DeleteNode:
		switch {
		case node.Offset < n:
			block.Path = shiftedPath(block.Path, -1)
		case node.Offset == n:
			block = voidBlockOp(block)
		}
	}
	return node, block
}

func shiftedPath(path []int, delta int) []int {
	out := append([]int{}, path...)
	out[0] += delta
	return out
}

// voidBlockOp reduces a block op whose target block no longer exists to its
// no-op sentinel, where one is defined. set_node_type and update_attrs have
// no sentinel form and pass through unchanged; applying them against a
// vanished block is the caller's concern.
func voidBlockOp(op ops.Operation) ops.Operation {
	switch op.Type {
	case ops.InsertText:
		op.Data = ""
	case ops.DeleteText, ops.AddMark, ops.RemoveMark:
		op.Length = 0
	}
	return op
}
