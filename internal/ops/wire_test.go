package ops

import (
	"encoding/json"
	"testing"

	"inkwell/internal/document"
)

func TestOperationJSONRoundTripInsertText(t *testing.T) {
	op := Operation{Type: InsertText, Path: []int{2}, Offset: 3, Data: "hi"}
	raw, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Operation
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != op.Type || got.Offset != op.Offset || got.Data != op.Data || got.BlockIndex() != op.BlockIndex() {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, op)
	}
}

func TestOperationJSONRoundTripAddMark(t *testing.T) {
	op := Operation{
		Type: AddMark, Path: []int{0}, Offset: 1, Length: 4,
		Mark: document.Mark{Type: "bold", Attrs: map[string]any{"weight": "700"}},
	}
	raw, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Operation
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Mark.Equal(op.Mark) {
		t.Fatalf("mark mismatch: got %+v, want %+v", got.Mark, op.Mark)
	}
	if got.Type != op.Type || got.Offset != op.Offset || got.Length != op.Length {
		t.Fatalf("fields mismatch: got %+v, want %+v", got, op)
	}
}

func TestOperationJSONRoundTripInsertNode(t *testing.T) {
	op := Operation{
		Type: InsertNode, Path: []int{1}, Offset: 0,
		NodeData: &document.ElementNode{
			NodeID: "b1", Type: "paragraph",
			Children: []document.Node{&document.TextNode{NodeID: "t1", Text: "hello"}},
		},
	}
	raw, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Operation
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	el, ok := got.NodeData.(*document.ElementNode)
	if !ok {
		t.Fatalf("expected *document.ElementNode, got %T", got.NodeData)
	}
	if el.Type != "paragraph" || len(el.Children) != 1 {
		t.Fatalf("unexpected decoded node: %+v", el)
	}
	text, ok := el.Children[0].(*document.TextNode)
	if !ok || text.Text != "hello" {
		t.Fatalf("unexpected decoded child: %+v", el.Children[0])
	}
}

func TestOperationJSONRoundTripDeleteText(t *testing.T) {
	op := Operation{Type: DeleteText, Path: []int{0}, Offset: 2, Length: 3}
	raw, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Operation
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != op.Type || got.Offset != op.Offset || got.Length != op.Length || got.BlockIndex() != op.BlockIndex() {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, op)
	}
}
