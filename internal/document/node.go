// Package document implements the immutable-by-convention document tree:
// element and text nodes, marks, positions, selections, and content state.
// Each apply produces a new Document value. A single ops.Apply shares
// unchanged blocks with its input by reference; ops.ApplyTransaction
// deep-copies the document once before applying its operations. Node ids
// stay stable under splitting and merging.
package document

import "reflect"

// Node is the base type for every member of a document tree.
type Node interface {
	ID() string
	Clone() Node
}

// Mark is an inline annotation attached to a TextNode range, e.g. bold,
// italic, or a link. Two marks are equal iff their type and attrs match
// structurally.
type Mark struct {
	Type  string
	Attrs map[string]any
}

// Equal reports whether two marks have the same type and structurally equal attrs.
func (m Mark) Equal(other Mark) bool {
	if m.Type != other.Type {
		return false
	}
	return attrsEqual(m.Attrs, other.Attrs)
}

func (m Mark) clone() Mark {
	return Mark{Type: m.Type, Attrs: cloneAttrs(m.Attrs)}
}

// ElementNode is a block or inline structural node: a paragraph, heading,
// list item, code block, image, etc. Its type is an open string so plugins
// can register arbitrary node types (see internal/plugin).
type ElementNode struct {
	NodeID   string
	Type     string
	Attrs    map[string]any
	Children []Node
}

func (e *ElementNode) ID() string { return e.NodeID }

// Clone returns a deep copy of the element and its subtree.
func (e *ElementNode) Clone() Node {
	children := make([]Node, len(e.Children))
	for i, c := range e.Children {
		children[i] = c.Clone()
	}
	return &ElementNode{
		NodeID:   e.NodeID,
		Type:     e.Type,
		Attrs:    cloneAttrs(e.Attrs),
		Children: children,
	}
}

// Text concatenates the text of all TextNode children, ignoring nested
// ElementNode children (flat-document addressing only concerns text runs
// directly under a block).
func (e *ElementNode) Text() string {
	var out []byte
	for _, c := range e.Children {
		if t, ok := c.(*TextNode); ok {
			out = append(out, t.Text...)
		}
	}
	return string(out)
}

// TextNode is a leaf run of text carrying a set of marks. Text may be empty.
type TextNode struct {
	NodeID string
	Text   string
	Marks  []Mark
}

func (t *TextNode) ID() string { return t.NodeID }

// Clone returns a deep copy of the text node.
func (t *TextNode) Clone() Node {
	marks := make([]Mark, len(t.Marks))
	for i, m := range t.Marks {
		marks[i] = m.clone()
	}
	return &TextNode{NodeID: t.NodeID, Text: t.Text, Marks: marks}
}

// HasMark reports whether the text node carries a mark structurally equal to m.
func (t *TextNode) HasMark(m Mark) bool {
	for _, existing := range t.Marks {
		if existing.Equal(m) {
			return true
		}
	}
	return false
}

func cloneAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func attrsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || !reflect.DeepEqual(v, bv) {
			return false
		}
	}
	return true
}
