package delta

import (
	"fmt"
	"sort"

	"inkwell/internal/document"
	"inkwell/internal/ops"
)

// markRange is the (from, to) span over which a given mark key is applied,
// per §4.3 step 5's "keyed ranges (type, from, to)".
type markRange struct {
	mark     document.Mark
	from, to int
}

// diffMarks collects keyed mark ranges from both sides and emits
// remove_mark for keys present only in prev, add_mark for keys present only
// in next.
func diffMarks(path []int, prevEl, nextEl *document.ElementNode) []ops.Operation {
	prevRanges := markRanges(prevEl)
	nextRanges := markRanges(nextEl)

	var operations []ops.Operation
	var removedKeys, addedKeys []string

	for key := range prevRanges {
		if _, ok := nextRanges[key]; !ok {
			removedKeys = append(removedKeys, key)
		}
	}
	for key := range nextRanges {
		if _, ok := prevRanges[key]; !ok {
			addedKeys = append(addedKeys, key)
		}
	}
	sort.Strings(removedKeys)
	sort.Strings(addedKeys)

	for _, key := range removedKeys {
		r := prevRanges[key]
		operations = append(operations, ops.Operation{Type: ops.RemoveMark, Path: path, Offset: r.from, Length: r.to - r.from, Mark: r.mark})
	}
	for _, key := range addedKeys {
		r := nextRanges[key]
		operations = append(operations, ops.Operation{Type: ops.AddMark, Path: path, Offset: r.from, Length: r.to - r.from, Mark: r.mark})
	}
	return operations
}

// markRanges scans el's TextNode children in order and, for every distinct
// mark key observed, returns the span from its first to its last covered
// rune. Marks are assumed contiguous — the source this mirrors treats a
// mark applied with gaps as a modelling error, not a case to diff exactly.
func markRanges(el *document.ElementNode) map[string]markRange {
	out := make(map[string]markRange)
	pos := 0
	for _, c := range el.Children {
		tn, ok := c.(*document.TextNode)
		if !ok {
			continue
		}
		runeLen := len([]rune(tn.Text))
		start, end := pos, pos+runeLen
		for _, m := range tn.Marks {
			key := markKey(m)
			if r, seen := out[key]; seen {
				if start < r.from {
					r.from = start
				}
				if end > r.to {
					r.to = end
				}
				out[key] = r
			} else {
				out[key] = markRange{mark: m, from: start, to: end}
			}
		}
		pos = end
	}
	return out
}

// markKey canonicalizes a mark's type and attrs into a stable string so
// structurally-equal marks on different runs collapse into one range.
func markKey(m document.Mark) string {
	keys := make([]string, 0, len(m.Attrs))
	for k := range m.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := m.Type
	for _, k := range keys {
		key += fmt.Sprintf("|%s=%v", k, m.Attrs[k])
	}
	return key
}
