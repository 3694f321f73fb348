// Package plugin implements the dependency-ordered plugin kernel of §4.7:
// registration, Kahn topological init/destroy ordering, the transaction and
// key-event hook pipelines, and schema aggregation.
package plugin

import (
	"inkwell/internal/document"
	"inkwell/internal/txn"
)

// ToolbarItem is a schema contribution a plugin exposes for a host-side
// toolbar; Order controls ascending sort in GetAllToolbarItems.
type ToolbarItem struct {
	Name  string
	Order int
}

// CommandHandler executes a named command against the owning editor.
type CommandHandler func(ctx *Context, args map[string]any) bool

// Context is handed to Init, and to every hook, so a plugin can reach the
// registries its sibling plugins populate.
type Context struct {
	Commands *CommandRegistry
	Keymap   KeymapSetter
}

// KeymapSetter is the narrow slice of internal/keymap.Keymap a plugin needs
// during Init — it only ever adds bindings, never looks them up.
type KeymapSetter interface {
	Bind(chord, command string) error
}

// KeymapClearer is implemented by a KeymapSetter that can drop every
// binding. Registry.DestroyAll uses it, where available, to clear the
// keymap alongside the command registry; a KeymapSetter that doesn't
// implement it is left untouched.
type KeymapClearer interface {
	Clear()
}

// Plugin is the contract every editor extension implements, per §4.7.
type Plugin struct {
	Name         string
	Dependencies []string

	NodeTypes    []string
	MarkTypes    []string
	ToolbarItems []ToolbarItem
	Commands     map[string]CommandHandler
	Keymaps      map[string]string // chord -> command name

	Init    func(ctx *Context) (instance any, err error)
	Destroy func(instance any)

	// OnTransaction may return abort=true to drop the transaction (the
	// returned Transaction is then ignored), a replacement Transaction with
	// ok=true to rewrite it, or ok=false to pass it through unchanged.
	OnTransaction func(tr txn.Transaction, state document.ContentState) (rewritten txn.Transaction, abort bool, ok bool)
	OnUpdate      func(prev, next document.ContentState)
	OnKeyDown     func(ctx *Context, chord string) bool
}
