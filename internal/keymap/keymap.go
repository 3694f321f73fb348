// Package keymap implements chord canonicalisation and the command registry
// dispatch of §4.8: `(Mod|Ctrl|Cmd|Meta|Alt|Shift)-…-Key` chords resolved
// against a platform, looked up case-insensitively, and routed to a named
// command.
package keymap

import (
	"sort"
	"strings"
)

// Platform selects what "Mod" canonicalises to.
type Platform int

const (
	// PlatformOther resolves Mod to Ctrl (Windows/Linux convention).
	PlatformOther Platform = iota
	// PlatformMac resolves Mod to Meta (the command key).
	PlatformMac
)

var modifierOrder = map[string]int{"Ctrl": 0, "Alt": 1, "Shift": 2, "Meta": 3}

// Canonicalize normalises a chord string for the given platform: resolves
// "Mod", sorts modifiers into Ctrl/Alt/Shift/Meta order, and uppercases the
// trailing key.
func Canonicalize(chord string, platform Platform) string {
	parts := strings.Split(chord, "-")
	if len(parts) == 0 {
		return chord
	}
	key := strings.ToUpper(parts[len(parts)-1])
	mods := parts[:len(parts)-1]

	seen := make(map[string]bool, len(mods))
	for _, m := range mods {
		resolved := resolveModifier(m, platform)
		seen[resolved] = true
	}

	ordered := make([]string, 0, len(seen))
	for m := range seen {
		ordered = append(ordered, m)
	}
	sort.Slice(ordered, func(i, j int) bool { return modifierOrder[ordered[i]] < modifierOrder[ordered[j]] })

	return strings.Join(append(ordered, key), "-")
}

func resolveModifier(m string, platform Platform) string {
	switch strings.ToLower(m) {
	case "mod":
		if platform == PlatformMac {
			return "Meta"
		}
		return "Ctrl"
	case "cmd":
		return "Meta"
	case "ctrl":
		return "Ctrl"
	case "alt":
		return "Alt"
	case "shift":
		return "Shift"
	case "meta":
		return "Meta"
	default:
		return m
	}
}

// Keymap maps canonical chords to command names. Lookups are
// platform-aware: Bind and Resolve both canonicalise before touching the
// underlying map.
type Keymap struct {
	platform Platform
	bindings map[string]string
}

// New returns an empty Keymap for the given platform.
func New(platform Platform) *Keymap {
	return &Keymap{platform: platform, bindings: make(map[string]string)}
}

// Bind associates chord with a command name, overwriting any prior binding
// for the same canonical chord — plugins are expected to own disjoint
// chords; a collision is a configuration concern upstream of this package.
func (k *Keymap) Bind(chord, command string) error {
	k.bindings[Canonicalize(chord, k.platform)] = command
	return nil
}

// Resolve returns the command bound to chord, if any.
func (k *Keymap) Resolve(chord string) (string, bool) {
	name, ok := k.bindings[Canonicalize(chord, k.platform)]
	return name, ok
}

// Clear removes every binding, letting a fresh Register/InitAll cycle
// re-declare the same chords after a plugin.Registry's DestroyAll.
func (k *Keymap) Clear() {
	k.bindings = make(map[string]string)
}
