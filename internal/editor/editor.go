// Package editor implements the facade of §6: Editor ties the document
// model, plugin pipeline, command registry, and keymap into the single
// object a host or plugin interacts with.
package editor

import (
	"sync"

	"inkwell/internal/document"
	"inkwell/internal/idgen"
	"inkwell/internal/keymap"
	"inkwell/internal/ops"
	"inkwell/internal/plugin"
	"inkwell/internal/position"
	"inkwell/internal/txn"
)

// EventName identifies the events an Editor publishes via On.
type EventName string

const (
	EventStateChange EventName = "state:change"
	EventDestroy     EventName = "destroy"
)

// StateChangeEvent is delivered to state:change subscribers.
type StateChangeEvent struct {
	PrevState   document.ContentState
	NextState   document.ContentState
	Transaction txn.Transaction
}

// Handler receives whatever payload an event carries: *StateChangeEvent for
// state:change, nil for destroy.
type Handler func(payload any)

// Unsubscribe removes the handler it was returned for.
type Unsubscribe func()

// EditableElement is an opaque host-provided handle the core never
// interprets, per §6.
type EditableElement any

// Option configures an Editor at construction.
type Option func(*Editor)

// WithIDGenerator overrides the default random idgen.Generator, primarily
// for deterministic tests.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(e *Editor) { e.idgen = gen }
}

// WithPlatform selects Mod resolution for the editor's keymap.
func WithPlatform(p keymap.Platform) Option {
	return func(e *Editor) { e.keymap = keymap.New(p) }
}

// WithEditableElement attaches the host-provided handle returned by
// GetEditableElement.
func WithEditableElement(el EditableElement) Option {
	return func(e *Editor) { e.editableElement = el }
}

// Editor is a single document's live session: its current state, the
// plugin registry governing it, and the command/keymap surface plugins
// populate.
type Editor struct {
	mu    sync.Mutex
	state document.ContentState
	idgen idgen.Generator

	commands *plugin.CommandRegistry
	keymap   *keymap.Keymap
	plugins  *plugin.Registry
	cursors  *position.Registry

	editableElement EditableElement

	listenersMu sync.Mutex
	listeners   map[EventName][]*listenerEntry
	nextHandle  int
}

type listenerEntry struct {
	handle int
	fn     Handler
}

// New returns an Editor over an empty document, wired with its own command
// registry, keymap, and plugin registry.
func New(opts ...Option) *Editor {
	e := &Editor{
		state:     document.ContentState{Doc: document.New()},
		idgen:     idgen.New(),
		commands:  plugin.NewCommandRegistry(),
		keymap:    keymap.New(keymap.PlatformOther),
		cursors:   position.NewRegistry(),
		listeners: make(map[EventName][]*listenerEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.plugins = plugin.NewRegistry(e.commands, e.keymap)
	return e
}

// Use registers a plugin. Must be called before InitPlugins.
func (e *Editor) Use(p *plugin.Plugin) error {
	return e.plugins.Register(p)
}

// InitPlugins runs the plugin kernel's topological init, locking further
// registration.
func (e *Editor) InitPlugins() error {
	return e.plugins.InitAll()
}

// GetState returns the current ContentState.
func (e *Editor) GetState() document.ContentState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// GetDoc returns the current Document.
func (e *Editor) GetDoc() document.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Doc
}

// GetEditableElement returns the host-provided handle, or nil if none was
// supplied.
func (e *Editor) GetEditableElement() EditableElement {
	return e.editableElement
}

// Cursors returns the per-editor remote cursor registry.
func (e *Editor) Cursors() *position.Registry {
	return e.cursors
}

// Dispatch validates and applies tr: runs it through the plugin transaction
// pipeline, applies the resulting operations (or document replacement),
// updates the selection, and publishes state:change. A plugin abort
// (abort=true) leaves state untouched and reports ok=false with no error.
func (e *Editor) Dispatch(tr txn.Transaction) (bool, error) {
	e.mu.Lock()
	prevState := e.state
	e.mu.Unlock()

	rewritten, ok := e.plugins.RunTransactionPipeline(tr, prevState)
	if !ok {
		return false, nil
	}

	nextDoc := prevState.Doc
	var err error
	if rewritten.Doc != nil {
		nextDoc = *rewritten.Doc
	} else if len(rewritten.Operations) > 0 {
		nextDoc, err = ops.ApplyTransaction(prevState.Doc, rewritten.Operations, e.idgen)
		if err != nil {
			return false, err
		}
	}

	nextSelection := prevState.Selection
	if rewritten.Selection != nil {
		nextSelection = rewritten.Selection
	}
	nextState := document.ContentState{Doc: nextDoc, Selection: nextSelection}

	e.mu.Lock()
	e.state = nextState
	e.mu.Unlock()

	e.plugins.NotifyUpdate(prevState, nextState)
	e.publish(EventStateChange, &StateChangeEvent{PrevState: prevState, NextState: nextState, Transaction: rewritten})
	return true, nil
}

// ExecuteCommand runs a registered command by name.
func (e *Editor) ExecuteCommand(name string, args map[string]any) bool {
	ctx := &plugin.Context{Commands: e.commands, Keymap: e.keymap}
	return e.commands.Execute(ctx, name, args)
}

// DispatchKey canonicalises chord, resolves it to a command via the
// keymap, and executes it. It returns true ("preventDefault") when a
// binding existed and its handler consumed the event; the plugin key
// pipeline (via Use-registered OnKeyDown hooks) runs first and can consume
// the chord before the keymap is even consulted.
func (e *Editor) DispatchKey(chord string) bool {
	if e.plugins.RunKeyPipeline(chord) {
		return true
	}
	name, ok := e.keymap.Resolve(chord)
	if !ok {
		return false
	}
	return e.ExecuteCommand(name, nil)
}

// On subscribes fn to event, returning a func that removes it.
func (e *Editor) On(event EventName, fn Handler) Unsubscribe {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.nextHandle++
	handle := e.nextHandle
	e.listeners[event] = append(e.listeners[event], &listenerEntry{handle: handle, fn: fn})
	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()
		entries := e.listeners[event]
		for i, le := range entries {
			if le.handle == handle {
				e.listeners[event] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

func (e *Editor) publish(event EventName, payload any) {
	e.listenersMu.Lock()
	entries := append([]*listenerEntry{}, e.listeners[event]...)
	e.listenersMu.Unlock()
	for _, le := range entries {
		le.fn(payload)
	}
}

// Destroy tears down every plugin in reverse init order and publishes
// destroy to subscribers.
func (e *Editor) Destroy() {
	e.plugins.DestroyAll()
	e.publish(EventDestroy, nil)
}

// Validate checks the current document's invariants, surfacing the first
// violation found.
func (e *Editor) Validate() error {
	doc := e.GetDoc()
	if err := doc.Validate(); err != nil {
		return err
	}
	return nil
}
