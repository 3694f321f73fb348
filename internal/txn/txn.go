// Package txn defines Transaction, the unit of mutation a host submits to
// the editor facade, per §3 and §6.
package txn

import (
	"time"

	"inkwell/internal/document"
	"inkwell/internal/ops"
)

// Origin identifies what produced a Transaction, used by plugins that care
// (e.g. skipping local-echo diffing for origin "remote").
type Origin string

const (
	OriginInput    Origin = "input"
	OriginCommand  Origin = "command"
	OriginRemote   Origin = "remote"
	OriginHistory  Origin = "history"
	OriginHTMLView Origin = "html-view"
)

// Transaction is a proposed document mutation: either an explicit operation
// list or a full document replacement, plus an optional selection update.
type Transaction struct {
	Operations []ops.Operation
	Doc        *document.Document
	Selection  *document.Selection
	Origin     Origin
	Timestamp  time.Time
}

// Empty reports whether the transaction carries no operations and no
// document replacement — a no-op dispatch.
func (t Transaction) Empty() bool {
	return len(t.Operations) == 0 && t.Doc == nil
}
