package ops

import (
	"testing"

	"inkwell/internal/document"
	"inkwell/internal/idgen"
)

func singleBlockDoc(text string) document.Document {
	return document.Document{
		Children: []document.Node{
			&document.ElementNode{
				NodeID: "b1",
				Type:   "paragraph",
				Children: []document.Node{
					&document.TextNode{NodeID: "t1", Text: text},
				},
			},
		},
		Version: 1,
	}
}

func TestApplyInsertText(t *testing.T) {
	t.Parallel()
	gen := &idgen.Sequential{Prefix: "n"}

	tests := []struct {
		name   string
		text   string
		offset int
		data   string
		want   string
	}{
		{"prepend", "world", 0, "hello ", "hello world"},
		{"append", "hello", 5, " world", "hello world"},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			doc := singleBlockDoc(tc.text)
			out, err := Apply(doc, Operation{Type: InsertText, Path: []int{0}, Offset: tc.offset, Data: tc.data}, gen)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := out.Block(0).Text(); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestApplyInsertTextOutOfRange(t *testing.T) {
	t.Parallel()
	gen := idgen.New()
	doc := singleBlockDoc("abc")
	_, err := Apply(doc, Operation{Type: InsertText, Path: []int{0}, Offset: 99, Data: "x"}, gen)
	if err == nil {
		t.Fatal("expected InvalidRangeError, got nil")
	}
}

func TestApplyDeleteText(t *testing.T) {
	t.Parallel()
	gen := idgen.New()
	doc := singleBlockDoc("hello world")
	out, err := Apply(doc, Operation{Type: DeleteText, Path: []int{0}, Offset: 5, Length: 6}, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Block(0).Text(); got != "hello" {
		t.Fatalf("got %q want %q", got, "hello")
	}
}

func TestApplyInsertDeleteNode(t *testing.T) {
	t.Parallel()
	gen := idgen.New()
	doc := document.Document{Children: []document.Node{
		&document.ElementNode{NodeID: "b1", Type: "paragraph"},
		&document.ElementNode{NodeID: "b2", Type: "paragraph"},
	}}

	out, err := Apply(doc, Operation{
		Type: InsertNode, Offset: 1,
		NodeData: &document.ElementNode{NodeID: "b3", Type: "heading"},
	}, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Children) != 3 || out.Children[1].ID() != "b3" {
		t.Fatalf("insert_node did not splice at offset 1: %+v", out.Children)
	}

	out2, err := Apply(out, Operation{Type: DeleteNode, Offset: 0}, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out2.Children) != 2 || out2.Children[0].ID() != "b3" {
		t.Fatalf("delete_node did not remove offset 0: %+v", out2.Children)
	}
}

func TestApplyDeleteNodeNegativeOffsetIsNoOp(t *testing.T) {
	t.Parallel()
	gen := idgen.New()
	doc := document.Document{Children: []document.Node{
		&document.ElementNode{NodeID: "b1"},
	}}
	out, err := Apply(doc, Operation{Type: DeleteNode, Offset: -1}, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Children) != 1 {
		t.Fatalf("negative-offset delete_node should be a no-op, got %+v", out.Children)
	}
}

func TestApplySetNodeTypeAndUpdateAttrs(t *testing.T) {
	t.Parallel()
	gen := idgen.New()
	doc := singleBlockDoc("x")

	out, err := Apply(doc, Operation{Type: SetNodeType, Path: []int{0}, NodeType: "heading"}, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Block(0).Type != "heading" {
		t.Fatalf("set_node_type did not take effect: %+v", out.Block(0))
	}

	out2, err := Apply(out, Operation{Type: UpdateAttrs, Path: []int{0}, Attrs: map[string]any{"level": 2}}, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out2.Block(0).Attrs["level"] != 2 {
		t.Fatalf("update_attrs did not merge: %+v", out2.Block(0).Attrs)
	}
}

func TestApplyAddRemoveMark(t *testing.T) {
	t.Parallel()
	gen := &idgen.Sequential{Prefix: "n"}
	doc := singleBlockDoc("hello world")
	bold := document.Mark{Type: "bold"}

	out, err := Apply(doc, Operation{Type: AddMark, Path: []int{0}, Offset: 0, Length: 5, Mark: bold}, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	el := out.Block(0)
	if !el.Children[0].(*document.TextNode).HasMark(bold) {
		t.Fatalf("expected first run marked bold: %+v", el.Children)
	}
	if len(el.Children) < 2 || el.Children[1].(*document.TextNode).HasMark(bold) {
		t.Fatalf("expected tail run unmarked: %+v", el.Children)
	}

	out2, err := Apply(out, Operation{Type: RemoveMark, Path: []int{0}, Offset: 0, Length: 5, Mark: bold}, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out2.Block(0).Text() != "hello world" {
		t.Fatalf("remove_mark changed text: %q", out2.Block(0).Text())
	}
	for _, c := range out2.Block(0).Children {
		if c.(*document.TextNode).HasMark(bold) {
			t.Fatalf("expected bold removed entirely: %+v", out2.Block(0).Children)
		}
	}
}

func TestApplyTransactionAtomicity(t *testing.T) {
	t.Parallel()
	gen := idgen.New()
	doc := singleBlockDoc("abc")

	_, err := ApplyTransaction(doc, []Operation{
		{Type: InsertText, Path: []int{0}, Offset: 0, Data: "X"},
		{Type: DeleteText, Path: []int{0}, Offset: 999, Length: 1},
	}, gen)
	if err == nil {
		t.Fatal("expected transaction to fail on second op")
	}

	out, err := ApplyTransaction(doc, []Operation{
		{Type: InsertText, Path: []int{0}, Offset: 0, Data: "X"},
		{Type: InsertText, Path: []int{0}, Offset: 1, Data: "Y"},
	}, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Version != doc.Version+1 {
		t.Fatalf("expected version to advance by exactly 1 regardless of op count, got %d", out.Version)
	}
	if out.Block(0).Text() != "XYabc" {
		t.Fatalf("got %q", out.Block(0).Text())
	}
}
