package ot

import (
	"testing"

	"inkwell/internal/document"
	"inkwell/internal/idgen"
	"inkwell/internal/ops"
)

// converges applies opsA then bPrime, and opsB then aPrime, to doc and
// asserts both orders reach the same final text — the convergence property
// of §8.1.
func converges(t *testing.T, doc document.Document, opsA, opsB []ops.Operation, tieBreak TieBreak) {
	t.Helper()
	gen := idgen.New()

	result := Transform(opsA, opsB, tieBreak)

	left, err := ops.ApplyTransaction(doc, opsA, gen)
	if err != nil {
		t.Fatalf("apply opsA: %v", err)
	}
	left, err = ops.ApplyTransaction(left, result.OpsB, gen)
	if err != nil {
		t.Fatalf("apply opsB': %v", err)
	}

	right, err := ops.ApplyTransaction(doc, opsB, gen)
	if err != nil {
		t.Fatalf("apply opsB: %v", err)
	}
	right, err = ops.ApplyTransaction(right, result.OpsA, gen)
	if err != nil {
		t.Fatalf("apply opsA': %v", err)
	}

	if left.Block(0).Text() != right.Block(0).Text() {
		t.Fatalf("diverged: left=%q right=%q", left.Block(0).Text(), right.Block(0).Text())
	}
}

func docWithText(text string) document.Document {
	return document.Document{Children: []document.Node{
		&document.ElementNode{NodeID: "b1", Type: "paragraph", Children: []document.Node{
			&document.TextNode{NodeID: "t1", Text: text},
		}},
	}}
}

func TestTransformInsertInsertConverges(t *testing.T) {
	t.Parallel()
	doc := docWithText("ac")
	a := []ops.Operation{{Type: ops.InsertText, Path: []int{0}, Offset: 1, Data: "B"}}
	b := []ops.Operation{{Type: ops.InsertText, Path: []int{0}, Offset: 1, Data: "X"}}
	converges(t, doc, a, b, Left)
	converges(t, doc, a, b, Right)
}

func TestTransformInsertDeleteConverges(t *testing.T) {
	t.Parallel()
	doc := docWithText("hello world")
	ins := []ops.Operation{{Type: ops.InsertText, Path: []int{0}, Offset: 6, Data: "big "}}
	del := []ops.Operation{{Type: ops.DeleteText, Path: []int{0}, Offset: 5, Length: 6}}
	converges(t, doc, ins, del, Left)
}

func TestTransformInsertInsideDeletedRange(t *testing.T) {
	t.Parallel()
	doc := docWithText("hello world")
	ins := []ops.Operation{{Type: ops.InsertText, Path: []int{0}, Offset: 7, Data: "XX"}}
	del := []ops.Operation{{Type: ops.DeleteText, Path: []int{0}, Offset: 5, Length: 6}}
	converges(t, doc, ins, del, Left)
}

func TestTransformDeleteDeleteOverlapConverges(t *testing.T) {
	t.Parallel()
	doc := docWithText("hello world")
	a := []ops.Operation{{Type: ops.DeleteText, Path: []int{0}, Offset: 0, Length: 7}}
	b := []ops.Operation{{Type: ops.DeleteText, Path: []int{0}, Offset: 4, Length: 7}}
	converges(t, doc, a, b, Left)
}

func TestTransformDeleteDeleteFullyContained(t *testing.T) {
	t.Parallel()
	a := ops.Operation{Type: ops.DeleteText, Offset: 2, Length: 2} // "ll" inside "hello"
	b := ops.Operation{Type: ops.DeleteText, Offset: 0, Length: 5} // whole word
	got := transformDeleteAgainstDelete(a, b)
	if !got.IsNoOp() {
		t.Fatalf("expected fully-contained delete to become a no-op, got %+v", got)
	}
}

func TestTransformNodeNodeInsertInsertTieBreak(t *testing.T) {
	t.Parallel()
	a := ops.Operation{Type: ops.InsertNode, Offset: 2}
	b := ops.Operation{Type: ops.InsertNode, Offset: 2}

	na, nb, ok := transformNodeNode(a, b, Left)
	if !ok {
		t.Fatal("expected recognised pair")
	}
	if na.Offset != 2 || nb.Offset != 3 {
		t.Fatalf("tie-break left should leave A and shift B: a=%d b=%d", na.Offset, nb.Offset)
	}
}

func TestTransformNodeNodeDeleteDeleteSameTarget(t *testing.T) {
	t.Parallel()
	a := ops.Operation{Type: ops.DeleteNode, Offset: 3}
	b := ops.Operation{Type: ops.DeleteNode, Offset: 3}

	na, nb, ok := transformNodeNode(a, b, Right)
	if !ok {
		t.Fatal("expected recognised pair")
	}
	if na.Offset != -1 || !na.IsNoOp() {
		t.Fatalf("tie-break right should void A, got %+v", na)
	}
	if nb.Offset != 3 {
		t.Fatalf("B should keep its offset, got %+v", nb)
	}
}

func TestTransformCrossLevelInsertNodeShiftsBlockOp(t *testing.T) {
	t.Parallel()
	node := ops.Operation{Type: ops.InsertNode, Offset: 0}
	text := ops.Operation{Type: ops.InsertText, Path: []int{1}, Offset: 0, Data: "x"}

	_, shifted := transformNodeVsBlock(node, text)
	if shifted.Path[0] != 2 {
		t.Fatalf("expected block index shifted from 1 to 2, got %v", shifted.Path)
	}
}

func TestTransformCrossLevelDeleteNodeVoidsBlockOp(t *testing.T) {
	t.Parallel()
	node := ops.Operation{Type: ops.DeleteNode, Offset: 1}
	del := ops.Operation{Type: ops.DeleteText, Path: []int{1}, Offset: 0, Length: 3}

	_, voided := transformNodeVsBlock(node, del)
	if !voided.IsNoOp() {
		t.Fatalf("expected block op on deleted block to become a no-op, got %+v", voided)
	}
}

func TestTransformMarkMarkOppositeSameRangeConverges(t *testing.T) {
	t.Parallel()
	bold := document.Mark{Type: "bold"}
	add := ops.Operation{Type: ops.AddMark, Offset: 0, Length: 5, Mark: bold}
	remove := ops.Operation{Type: ops.RemoveMark, Offset: 0, Length: 5, Mark: bold}

	a2, b2, ok := transformMarkMark(add, remove, Left)
	if !ok {
		t.Fatal("expected recognised pair")
	}
	if a2.Type != ops.AddMark || b2.Type != ops.AddMark {
		t.Fatalf("tie-break left should make both sides add, got a=%v b=%v", a2.Type, b2.Type)
	}
}

func TestTransformAttrsLastWriterWins(t *testing.T) {
	t.Parallel()
	a := ops.Operation{Type: ops.SetNodeType, Path: []int{0}, NodeType: "heading"}
	b := ops.Operation{Type: ops.SetNodeType, Path: []int{0}, NodeType: "quote"}

	a2, b2, ok := transformLastWriterWins(a, b, Right)
	if !ok {
		t.Fatal("expected recognised pair")
	}
	if a2.NodeType != "quote" || b2.NodeType != "quote" {
		t.Fatalf("tie-break right should make both carry quote, got a=%q b=%q", a2.NodeType, b2.NodeType)
	}
}
