package plugin

import (
	"sync"

	"inkwell/internal/docerrors"
)

// CommandRegistry is the name -> handler map shared by every plugin and
// exposed to the editor facade's ExecuteCommand, per §4.8.
type CommandRegistry struct {
	mu       sync.RWMutex
	handlers map[string]CommandHandler
}

// NewCommandRegistry returns an empty CommandRegistry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{handlers: make(map[string]CommandHandler)}
}

// Register adds a named command handler. Fails with DuplicateCommandError
// if the name is already taken.
func (c *CommandRegistry) Register(name string, handler CommandHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.handlers[name]; exists {
		return &docerrors.DuplicateCommandError{Name: name}
	}
	c.handlers[name] = handler
	return nil
}

// Has reports whether name is registered.
func (c *CommandRegistry) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.handlers[name]
	return ok
}

// Execute runs the named command's handler, returning false if the name is
// unknown.
func (c *CommandRegistry) Execute(ctx *Context, name string, args map[string]any) bool {
	c.mu.RLock()
	handler, ok := c.handlers[name]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	return handler(ctx, args)
}

// Clear removes every registered command, letting a fresh Register/InitAll
// cycle re-declare the same names after a Registry's DestroyAll.
func (c *CommandRegistry) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = make(map[string]CommandHandler)
}
