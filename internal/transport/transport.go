// Package transport implements §4.6's batched transport: an outbound delta
// coalescer wrapped around any Transport, plus the concrete websocket
// implementation in the wsconn subpackage.
package transport

import (
	"inkwell/internal/delta"
	"inkwell/internal/document"
)

// CursorInfo is the wire form of a remote cursor update, per §6. It has
// exactly the fields of internal/position.CursorInfo, so a value of either
// type converts to the other with a plain Go type conversion.
type CursorInfo struct {
	ClientID  string
	Position  document.Position
	Selection *document.Selection
	Color     string
	Label     string
}

// Transport is the contract every transport implementation (and
// BatchedTransport, which wraps one) exposes to the editor, per §6.
type Transport interface {
	Send(d delta.Delta) error
	OnReceive(cb func(delta.Delta))
	SendCursor(c CursorInfo) error
	OnCursorUpdate(cb func(CursorInfo))
	Connect() error
	Disconnect() error
}
