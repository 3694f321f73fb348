// Package ot implements the pairwise operational-transformation engine of
// §4.2: given two concurrent operation sequences valid against the same
// document, Transform rewrites each so that applying A then B' yields the
// same document as applying B then A'.
package ot

import (
	"time"

	"inkwell/internal/docerrors"
	"inkwell/internal/ops"
	"inkwell/internal/telemetry"
	"inkwell/internal/telemetry/metrics"
)

// TieBreak selects the winner when two concurrent operations target the
// exact same position. left means A wins exact ties.
type TieBreak string

const (
	Left  TieBreak = "left"
	Right TieBreak = "right"
)

// Result carries the transformed sequences and any diagnostics raised for
// unrecognised operation pairs (never fatal — those pairs pass through
// unchanged, per §4.2).
type Result struct {
	OpsA        []ops.Operation
	OpsB        []ops.Operation
	Diagnostics []error
}

// Transform rewrites opsA and opsB against each other operation-by-operation
// (A cross B), folding each pairwise result back into the running sequences,
// then returns both composed results alongside any TransformFailure
// diagnostics raised for pairs the engine did not recognise.
func Transform(opsA, opsB []ops.Operation, tieBreak TieBreak) Result {
	start := time.Now()
	a := cloneAll(opsA)
	b := cloneAll(opsB)

	var diags []error
	for i := range a {
		for j := range b {
			na, nb, ok := transformPair(a[i], b[j], tieBreak)
			if !ok {
				diag := &docerrors.TransformFailure{AType: string(a[i].Type), BType: string(b[j].Type)}
				diags = append(diags, diag)
				telemetry.S().Debugw("ot: unrecognised transform pair", "a", a[i].Type, "b", b[j].Type)
				continue
			}
			a[i], b[j] = na, nb
		}
	}
	metrics.Get().RecordTransform(string(tieBreak), time.Since(start).Seconds())
	return Result{OpsA: a, OpsB: b, Diagnostics: diags}
}

func cloneAll(in []ops.Operation) []ops.Operation {
	out := make([]ops.Operation, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}

// transformPair computes the transformed pair (a', b') for a single
// operation from each side. ok is false when the pair is not one the
// engine recognises, in which case both inputs pass through unchanged.
func transformPair(a, b ops.Operation, tieBreak TieBreak) (ops.Operation, ops.Operation, bool) {
	switch {
	case isRootNodeOp(a) && isRootNodeOp(b):
		return transformNodeNode(a, b, tieBreak)

	case isRootNodeOp(a) && isBlockOp(b):
		return transformNodeVsBlock(a, b)
	case isBlockOp(a) && isRootNodeOp(b):
		nb, na := transformNodeVsBlock(b, a)
		return na, nb, true

	case isBlockOp(a) && isBlockOp(b) && a.BlockIndex() == b.BlockIndex():
		return transformSameBlock(a, b, tieBreak)

	case isBlockOp(a) && isBlockOp(b):
		// Disjoint blocks: the ops address different, unrelated subtrees and
		// commute freely — not an unrecognised pair.
		return a, b, true
	}
	return a, b, false
}

func isRootNodeOp(o ops.Operation) bool {
	return o.Type == ops.InsertNode || o.Type == ops.DeleteNode
}

func isBlockOp(o ops.Operation) bool {
	switch o.Type {
	case ops.InsertText, ops.DeleteText, ops.SetNodeType, ops.UpdateAttrs, ops.AddMark, ops.RemoveMark:
		return true
	}
	return false
}

func isTextOp(o ops.Operation) bool {
	return o.Type == ops.InsertText || o.Type == ops.DeleteText
}

func isMarkOp(o ops.Operation) bool {
	return o.Type == ops.AddMark || o.Type == ops.RemoveMark
}

func isAttrsTypeOp(o ops.Operation) bool {
	return o.Type == ops.SetNodeType || o.Type == ops.UpdateAttrs
}
