package ops

import (
	"sort"

	"inkwell/internal/docerrors"
	"inkwell/internal/document"
	"inkwell/internal/idgen"
)

// Apply applies a single operation to doc, returning a new Document value.
// doc is never mutated; on error the input doc is returned unchanged
// alongside the error (ApplyTransaction guarantees atomicity at the
// transaction level).
func Apply(doc document.Document, op Operation, gen idgen.Generator) (document.Document, error) {
	if op.IsNoOp() {
		return doc, nil
	}
	switch op.Type {
	case InsertText:
		return applyInsertText(doc, op, gen)
	case DeleteText:
		return applyDeleteText(doc, op)
	case InsertNode:
		return applyInsertNode(doc, op)
	case DeleteNode:
		return applyDeleteNode(doc, op)
	case SetNodeType:
		return applySetNodeType(doc, op)
	case UpdateAttrs:
		return applyUpdateAttrs(doc, op)
	case AddMark:
		return applyAddMark(doc, op, gen)
	case RemoveMark:
		return applyRemoveMark(doc, op, gen)
	default:
		return doc, nil
	}
}

// ApplyTransaction applies ops in order to a clone of doc. If any op fails,
// the original doc is returned unchanged (atomicity: partial transactions
// are never visible). On success the result's version is doc.Version + 1,
// regardless of how many operations were applied (§4.3 design note mirrors
// this for Delta.resultVersion).
func ApplyTransaction(doc document.Document, operations []Operation, gen idgen.Generator) (document.Document, error) {
	cur := doc.Clone()
	for _, op := range operations {
		next, err := Apply(cur, op, gen)
		if err != nil {
			return doc, err
		}
		cur = next
	}
	cur.Version = doc.Version + 1
	return cur, nil
}

func blockOrErr(doc document.Document, path []int) (int, *document.ElementNode, error) {
	if len(path) == 0 {
		return 0, nil, &docerrors.InvalidPathError{Path: path, Msg: "empty path"}
	}
	idx := path[0]
	el := doc.Block(idx)
	if el == nil {
		return 0, nil, &docerrors.InvalidPathError{Path: path, Msg: "block index out of range"}
	}
	return idx, el, nil
}

func replaceBlock(doc document.Document, idx int, el *document.ElementNode) document.Document {
	children := make([]document.Node, len(doc.Children))
	copy(children, doc.Children)
	children[idx] = el
	doc.Children = children
	return doc
}

// textRuns returns, for each TextNode child of el, its rune slice and its
// [start,end) cumulative offset range within the block's concatenated text.
// Non-text children are skipped, matching ElementNode.Text().
type textRun struct {
	childIndex int
	runes      []rune
	start, end int
}

func textRuns(el *document.ElementNode) []textRun {
	runs := make([]textRun, 0, len(el.Children))
	pos := 0
	for i, c := range el.Children {
		tn, ok := c.(*document.TextNode)
		if !ok {
			continue
		}
		r := []rune(tn.Text)
		runs = append(runs, textRun{childIndex: i, runes: r, start: pos, end: pos + len(r)})
		pos += len(r)
	}
	return runs
}

func applyInsertText(doc document.Document, op Operation, gen idgen.Generator) (document.Document, error) {
	idx, el, err := blockOrErr(doc, op.Path)
	if err != nil {
		return doc, err
	}
	total := len([]rune(el.Text()))
	if op.Offset < 0 || op.Offset > total {
		return doc, &docerrors.InvalidRangeError{Path: op.Path, Offset: op.Offset, Msg: "offset beyond block text length"}
	}

	runs := textRuns(el)
	newEl := el.Clone().(*document.ElementNode)

	for _, run := range runs {
		if op.Offset >= run.start && op.Offset <= run.end {
			local := op.Offset - run.start
			newRunes := make([]rune, 0, len(run.runes)+len([]rune(op.Data)))
			newRunes = append(newRunes, run.runes[:local]...)
			newRunes = append(newRunes, []rune(op.Data)...)
			newRunes = append(newRunes, run.runes[local:]...)
			tn := newEl.Children[run.childIndex].(*document.TextNode)
			newEl.Children[run.childIndex] = &document.TextNode{NodeID: tn.NodeID, Text: string(newRunes), Marks: tn.Marks}
			return replaceBlock(doc, idx, newEl), nil
		}
	}

	// No TextNode spans this offset (empty block, or block holds only
	// element children): materialise a fresh TextNode carrying no marks.
	materialised := &document.TextNode{NodeID: gen.NewID(), Text: op.Data}
	newEl.Children = append([]document.Node{materialised}, newEl.Children...)
	return replaceBlock(doc, idx, newEl), nil
}

func applyDeleteText(doc document.Document, op Operation) (document.Document, error) {
	idx, el, err := blockOrErr(doc, op.Path)
	if err != nil {
		return doc, err
	}
	total := len([]rune(el.Text()))
	if op.Offset < 0 || op.Length < 0 || op.Offset+op.Length > total {
		return doc, &docerrors.InvalidRangeError{Path: op.Path, Offset: op.Offset, Length: op.Length, Msg: "delete range exceeds block text length"}
	}

	runs := textRuns(el)
	newEl := el.Clone().(*document.ElementNode)
	rangeStart, rangeEnd := op.Offset, op.Offset+op.Length

	for _, run := range runs {
		overlapStart := max(rangeStart, run.start)
		overlapEnd := min(rangeEnd, run.end)
		if overlapStart >= overlapEnd {
			continue
		}
		localStart := overlapStart - run.start
		localEnd := overlapEnd - run.start
		newRunes := make([]rune, 0, len(run.runes)-(localEnd-localStart))
		newRunes = append(newRunes, run.runes[:localStart]...)
		newRunes = append(newRunes, run.runes[localEnd:]...)
		tn := newEl.Children[run.childIndex].(*document.TextNode)
		newEl.Children[run.childIndex] = &document.TextNode{NodeID: tn.NodeID, Text: string(newRunes), Marks: tn.Marks}
	}
	return replaceBlock(doc, idx, newEl), nil
}

func applyInsertNode(doc document.Document, op Operation) (document.Document, error) {
	if op.Offset < 0 || op.Offset > len(doc.Children) {
		return doc, &docerrors.InvalidPathError{Path: op.Path, Msg: "insert_node offset out of range"}
	}
	if op.NodeData == nil {
		return doc, &docerrors.InvalidPathError{Path: op.Path, Msg: "insert_node requires node data"}
	}
	children := make([]document.Node, 0, len(doc.Children)+1)
	children = append(children, doc.Children[:op.Offset]...)
	children = append(children, op.NodeData.Clone())
	children = append(children, doc.Children[op.Offset:]...)
	doc.Children = children
	return doc, nil
}

func applyDeleteNode(doc document.Document, op Operation) (document.Document, error) {
	if op.Offset < 0 {
		return doc, nil // no-op per §4.1 table
	}
	if op.Offset >= len(doc.Children) {
		return doc, &docerrors.InvalidPathError{Path: op.Path, Msg: "delete_node offset out of range"}
	}
	children := make([]document.Node, 0, len(doc.Children)-1)
	children = append(children, doc.Children[:op.Offset]...)
	children = append(children, doc.Children[op.Offset+1:]...)
	doc.Children = children
	return doc, nil
}

func applySetNodeType(doc document.Document, op Operation) (document.Document, error) {
	idx, el, err := blockOrErr(doc, op.Path)
	if err != nil {
		return doc, err
	}
	newEl := el.Clone().(*document.ElementNode)
	newEl.Type = op.NodeType
	return replaceBlock(doc, idx, newEl), nil
}

func applyUpdateAttrs(doc document.Document, op Operation) (document.Document, error) {
	idx, el, err := blockOrErr(doc, op.Path)
	if err != nil {
		return doc, err
	}
	newEl := el.Clone().(*document.ElementNode)
	if newEl.Attrs == nil {
		newEl.Attrs = make(map[string]any, len(op.Attrs))
	}
	for k, v := range op.Attrs {
		newEl.Attrs[k] = v
	}
	return replaceBlock(doc, idx, newEl), nil
}

// splitAtOffsets ensures a TextNode boundary exists at each offset in
// offsets, splitting any run that straddles one. New pieces share the
// parent run's marks and get a fresh id from gen.
func splitAtOffsets(el *document.ElementNode, offsets []int, gen idgen.Generator) *document.ElementNode {
	sorted := append([]int{}, offsets...)
	sort.Ints(sorted)

	newEl := el.Clone().(*document.ElementNode)
	for _, cut := range sorted {
		runs := textRuns(newEl)
		for _, run := range runs {
			if cut <= run.start || cut >= run.end {
				continue
			}
			local := cut - run.start
			tn := newEl.Children[run.childIndex].(*document.TextNode)
			left := &document.TextNode{NodeID: tn.NodeID, Text: string(run.runes[:local]), Marks: tn.Marks}
			right := &document.TextNode{NodeID: gen.NewID(), Text: string(run.runes[local:]), Marks: tn.Marks}
			children := make([]document.Node, 0, len(newEl.Children)+1)
			children = append(children, newEl.Children[:run.childIndex]...)
			children = append(children, left, right)
			children = append(children, newEl.Children[run.childIndex+1:]...)
			newEl.Children = children
			break
		}
	}
	return newEl
}

func applyAddMark(doc document.Document, op Operation, gen idgen.Generator) (document.Document, error) {
	idx, el, err := blockOrErr(doc, op.Path)
	if err != nil {
		return doc, err
	}
	total := len([]rune(el.Text()))
	if op.Offset < 0 || op.Length < 0 || op.Offset+op.Length > total {
		return doc, &docerrors.InvalidRangeError{Path: op.Path, Offset: op.Offset, Length: op.Length, Msg: "mark range exceeds block text length"}
	}
	newEl := splitAtOffsets(el, []int{op.Offset, op.Offset + op.Length}, gen)
	rangeStart, rangeEnd := op.Offset, op.Offset+op.Length
	for _, run := range textRuns(newEl) {
		if run.start >= rangeStart && run.end <= rangeEnd && run.start < run.end {
			tn := newEl.Children[run.childIndex].(*document.TextNode)
			if !tn.HasMark(op.Mark) {
				marks := append(append([]document.Mark{}, tn.Marks...), op.Mark)
				newEl.Children[run.childIndex] = &document.TextNode{NodeID: tn.NodeID, Text: tn.Text, Marks: marks}
			}
		}
	}
	return replaceBlock(doc, idx, newEl), nil
}

func applyRemoveMark(doc document.Document, op Operation, gen idgen.Generator) (document.Document, error) {
	idx, el, err := blockOrErr(doc, op.Path)
	if err != nil {
		return doc, err
	}
	total := len([]rune(el.Text()))
	if op.Offset < 0 || op.Length < 0 || op.Offset+op.Length > total {
		return doc, &docerrors.InvalidRangeError{Path: op.Path, Offset: op.Offset, Length: op.Length, Msg: "mark range exceeds block text length"}
	}
	newEl := splitAtOffsets(el, []int{op.Offset, op.Offset + op.Length}, gen)
	rangeStart, rangeEnd := op.Offset, op.Offset+op.Length
	for _, run := range textRuns(newEl) {
		if run.start >= rangeStart && run.end <= rangeEnd && run.start < run.end {
			tn := newEl.Children[run.childIndex].(*document.TextNode)
			kept := make([]document.Mark, 0, len(tn.Marks))
			for _, m := range tn.Marks {
				if !m.Equal(op.Mark) {
					kept = append(kept, m)
				}
			}
			newEl.Children[run.childIndex] = &document.TextNode{NodeID: tn.NodeID, Text: tn.Text, Marks: kept}
		}
	}
	return replaceBlock(doc, idx, newEl), nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
