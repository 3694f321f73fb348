// Package ops implements the eight-operation algebra of §4.1: values that
// describe a single document mutation, and Apply, which produces a new
// Document from an old one plus an operation.
package ops

import (
	"encoding/json"

	"inkwell/internal/document"
)

// Type identifies which of the eight operation kinds a value represents.
type Type string

const (
	InsertText   Type = "insert_text"
	DeleteText   Type = "delete_text"
	InsertNode   Type = "insert_node"
	DeleteNode   Type = "delete_node"
	SetNodeType  Type = "set_node_type"
	UpdateAttrs  Type = "update_attrs"
	AddMark      Type = "add_mark"
	RemoveMark   Type = "remove_mark"
)

// Operation is a tagged union over the eight op kinds. Only the fields
// relevant to Type are meaningful; the rest are left zero.
type Operation struct {
	Type Type
	Path []int

	Offset int
	Length int

	Data     string        // insert_text
	NodeData document.Node // insert_node

	NodeType string // set_node_type

	Attrs map[string]any // update_attrs

	Mark document.Mark // add_mark / remove_mark
}

// BlockIndex returns the first path component, which is always the target
// block for both block-level and text/mark-range operations.
func (o Operation) BlockIndex() int {
	if len(o.Path) == 0 {
		return -1
	}
	return o.Path[0]
}

// IsNoOp reports whether the operation has been reduced to a sentinel by
// the OT engine: offset=-1 for node ops, length=0 for range ops, or empty
// insert data.
func (o Operation) IsNoOp() bool {
	switch o.Type {
	case InsertNode, DeleteNode:
		return o.Offset < 0
	case DeleteText, AddMark, RemoveMark:
		return o.Length == 0
	case InsertText:
		return o.Data == ""
	default:
		return false
	}
}

// wireOperation is the JSON wire form of an Operation. NodeData is carried
// as a raw encoded Node since document.Node is an interface and cannot be
// unmarshalled directly.
type wireOperation struct {
	Type   Type `json:"type"`
	Path   []int `json:"path,omitempty"`
	Offset int   `json:"offset,omitempty"`
	Length int   `json:"length,omitempty"`

	Data     string          `json:"data,omitempty"`
	NodeData json.RawMessage `json:"node_data,omitempty"`

	NodeType string         `json:"node_type,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
	Mark     *document.Mark `json:"mark,omitempty"`
}

// MarshalJSON encodes the operation, delegating its NodeData field to
// document.MarshalNode.
func (o Operation) MarshalJSON() ([]byte, error) {
	w := wireOperation{
		Type: o.Type, Path: o.Path, Offset: o.Offset, Length: o.Length,
		Data: o.Data, NodeType: o.NodeType, Attrs: o.Attrs,
	}
	if o.Type == AddMark || o.Type == RemoveMark {
		w.Mark = &o.Mark
	}
	if o.NodeData != nil {
		raw, err := document.MarshalNode(o.NodeData)
		if err != nil {
			return nil, err
		}
		w.NodeData = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the operation, delegating NodeData to
// document.UnmarshalNode.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var w wireOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	o.Type, o.Path, o.Offset, o.Length = w.Type, w.Path, w.Offset, w.Length
	o.Data, o.NodeType, o.Attrs = w.Data, w.NodeType, w.Attrs
	if w.Mark != nil {
		o.Mark = *w.Mark
	}
	if len(w.NodeData) > 0 {
		n, err := document.UnmarshalNode(w.NodeData)
		if err != nil {
			return err
		}
		o.NodeData = n
	}
	return nil
}

// Clone returns a deep copy of the operation, used before mutating a copy
// during transform.
func (o Operation) Clone() Operation {
	path := make([]int, len(o.Path))
	copy(path, o.Path)
	var attrs map[string]any
	if o.Attrs != nil {
		attrs = make(map[string]any, len(o.Attrs))
		for k, v := range o.Attrs {
			attrs[k] = v
		}
	}
	clone := o
	clone.Path = path
	clone.Attrs = attrs
	if o.NodeData != nil {
		clone.NodeData = o.NodeData.Clone()
	}
	return clone
}
