// Package docerrors defines the typed error kinds that cross the editor's
// transaction boundary. Structural and configuration errors are surfaced to
// the caller; transient data errors reject the whole transaction atomically.
package docerrors

import "fmt"

// InvalidPathError means a path does not address an existing node.
type InvalidPathError struct {
	Path []int
	Msg  string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %v: %s", e.Path, e.Msg)
}

// InvalidRangeError means a text offset/length falls outside the target's bounds.
type InvalidRangeError struct {
	Path   []int
	Offset int
	Length int
	Msg    string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range at %v [offset=%d length=%d]: %s", e.Path, e.Offset, e.Length, e.Msg)
}

// CyclicDependencyError is raised when the plugin dependency graph has a cycle.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic plugin dependency: %v", e.Cycle)
}

// UnknownPluginError is raised when a plugin declares a dependency on a name
// that was never registered.
type UnknownPluginError struct {
	Plugin     string
	Dependency string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("plugin %q depends on unknown plugin %q", e.Plugin, e.Dependency)
}

// AlreadyRegisteredError is raised when a plugin name is registered twice.
type AlreadyRegisteredError struct {
	Plugin string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("plugin %q already registered", e.Plugin)
}

// LockedError is raised when registration is attempted after InitAll has run.
type LockedError struct {
	Op string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("registry locked: cannot %s after initialization", e.Op)
}

// DuplicateCommandError is raised when a command name is registered twice.
type DuplicateCommandError struct {
	Name string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("command %q already registered", e.Name)
}

// TransformFailure is a non-fatal diagnostic: the OT engine saw a pair of
// operations it did not recognise and passed them through unchanged.
type TransformFailure struct {
	AType string
	BType string
}

func (e *TransformFailure) Error() string {
	return fmt.Sprintf("unrecognised transform pair: %s vs %s, passed through unchanged", e.AType, e.BType)
}
