// Package delta implements §4.3's diff generator: producing a wire-ready
// Delta of operations that transforms one document snapshot into another.
package delta

import (
	"reflect"
	"sort"
	"time"

	"inkwell/internal/document"
	"inkwell/internal/ops"
)

// Delta is a batch of operations alongside the causal metadata needed to
// apply and order it, per §4.3 and the transport contract of §6.
type Delta struct {
	Operations    []ops.Operation
	BaseVersion   int
	ResultVersion int
	ClientID      string
	Timestamp     time.Time
}

// Empty reports whether the delta carries no operations; callers must
// suppress empty deltas rather than send them.
func (d Delta) Empty() bool {
	return len(d.Operations) == 0
}

// Diff computes the delta that takes prev to next, per the five-step
// algorithm of §4.3. It is not a minimum edit script, but it is stable: the
// same (prev, next) pair always yields the same operations.
func Diff(prev, next document.Document, clientID string) Delta {
	var operations []ops.Operation

	prevIndex, prevByID := indexBlocks(prev)
	nextIndex, nextByID := indexBlocks(next)

	var deletedIDs []string
	for id := range prevIndex {
		if _, ok := nextIndex[id]; !ok {
			deletedIDs = append(deletedIDs, id)
		}
	}
	sort.Slice(deletedIDs, func(i, j int) bool { return prevIndex[deletedIDs[i]] > prevIndex[deletedIDs[j]] })
	for _, id := range deletedIDs {
		operations = append(operations, ops.Operation{Type: ops.DeleteNode, Offset: prevIndex[id]})
	}

	var insertedIDs []string
	for id := range nextIndex {
		if _, ok := prevIndex[id]; !ok {
			insertedIDs = append(insertedIDs, id)
		}
	}
	sort.Slice(insertedIDs, func(i, j int) bool { return nextIndex[insertedIDs[i]] < nextIndex[insertedIDs[j]] })
	for _, id := range insertedIDs {
		operations = append(operations, ops.Operation{
			Type:     ops.InsertNode,
			Offset:   nextIndex[id],
			NodeData: nextByID[id].Clone(),
		})
	}

	var commonIDs []string
	for id := range nextIndex {
		if _, ok := prevIndex[id]; ok {
			commonIDs = append(commonIDs, id)
		}
	}
	sort.Slice(commonIDs, func(i, j int) bool { return nextIndex[commonIDs[i]] < nextIndex[commonIDs[j]] })

	for _, id := range commonIDs {
		prevEl, nextEl := prevByID[id], nextByID[id]
		blockIndex := nextIndex[id]
		operations = append(operations, diffBlock(blockIndex, prevEl, nextEl)...)
	}

	return Delta{
		Operations:    operations,
		BaseVersion:   prev.Version,
		ResultVersion: next.Version,
		ClientID:      clientID,
		Timestamp:     time.Now(),
	}
}

func indexBlocks(doc document.Document) (map[string]int, map[string]*document.ElementNode) {
	index := make(map[string]int, len(doc.Children))
	byID := make(map[string]*document.ElementNode, len(doc.Children))
	for i, c := range doc.Children {
		if el, ok := c.(*document.ElementNode); ok {
			index[el.ID()] = i
			byID[el.ID()] = el
		}
	}
	return index, byID
}

func diffBlock(blockIndex int, prevEl, nextEl *document.ElementNode) []ops.Operation {
	var operations []ops.Operation
	path := []int{blockIndex}

	if prevEl.Type != nextEl.Type {
		operations = append(operations, ops.Operation{Type: ops.SetNodeType, Path: path, NodeType: nextEl.Type})
	}
	if !attrsStructurallyEqual(prevEl.Attrs, nextEl.Attrs) {
		operations = append(operations, ops.Operation{Type: ops.UpdateAttrs, Path: path, Attrs: cloneAttrs(nextEl.Attrs)})
	}

	operations = append(operations, diffInline(path, prevEl.Text(), nextEl.Text())...)
	operations = append(operations, diffMarks(path, prevEl, nextEl)...)

	return operations
}

// diffInline implements step 4: a common-prefix/common-suffix diff that
// emits at most one delete_text then at most one insert_text, both anchored
// at the common prefix boundary.
func diffInline(path []int, prevText, nextText string) []ops.Operation {
	prevRunes, nextRunes := []rune(prevText), []rune(nextText)
	prefix := commonPrefixLen(prevRunes, nextRunes)

	prevTail := prevRunes[prefix:]
	nextTail := nextRunes[prefix:]
	suffix := commonSuffixLen(prevTail, nextTail)

	deleteLen := len(prevTail) - suffix
	insertRunes := nextTail[:len(nextTail)-suffix]

	var operations []ops.Operation
	if deleteLen > 0 {
		operations = append(operations, ops.Operation{Type: ops.DeleteText, Path: path, Offset: prefix, Length: deleteLen})
	}
	if len(insertRunes) > 0 {
		operations = append(operations, ops.Operation{Type: ops.InsertText, Path: path, Offset: prefix, Data: string(insertRunes)})
	}
	return operations
}

func commonPrefixLen(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffixLen(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

func attrsStructurallyEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
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
