// Package presence tracks collaborators beyond the raw cursor math of
// internal/position: online status, typing indicator, permission level,
// and a deterministic per-room color assignment.
package presence

import (
	"sync"
	"time"

	"inkwell/internal/document"
)

// Status is a collaborator's online state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// PermissionLevel gates whether a client's transactions may mutate a
// document, via Manager.CanMutate. Editor.Dispatch does not consult it; a
// host calls Manager.CanMutate before dispatching a "remote" transaction.
type PermissionLevel string

const (
	PermissionViewer PermissionLevel = "viewer"
	PermissionEditor PermissionLevel = "editor"
	PermissionAdmin  PermissionLevel = "admin"
	PermissionOwner  PermissionLevel = "owner"
)

// CanMutate reports whether p is allowed to submit document-changing
// transactions.
func (p PermissionLevel) CanMutate() bool {
	return p == PermissionEditor || p == PermissionAdmin || p == PermissionOwner
}

// Colors cycles collaborators through a fixed, readable palette: the first
// len(Colors) joins to a document get distinct hues, after which
// assignment wraps back to Colors[0].
var Colors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
	"#BB8FCE", "#85C1E9", "#F8B500", "#FF69B4",
}

// UserPresence is one collaborator's live state within a document.
type UserPresence struct {
	ClientID     string
	Label        string
	Color        string
	Position     *document.Position
	Selection    *document.Selection
	IsTyping     bool
	LastActivity time.Time
	Following    string // clientId being followed, empty if none
	Permission   PermissionLevel
	Status       Status
}

// Manager tracks presence per document, assigning colors deterministically
// as clients join.
type Manager struct {
	mu         sync.RWMutex
	docs       map[string]map[string]*UserPresence
	colorIndex map[string]int
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		docs:       make(map[string]map[string]*UserPresence),
		colorIndex: make(map[string]int),
	}
}

// Join adds clientID to docID's presence set, assigning the next color in
// rotation, and returns the new UserPresence.
func (m *Manager) Join(docID, clientID, label string, permission PermissionLevel) *UserPresence {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.docs[docID] == nil {
		m.docs[docID] = make(map[string]*UserPresence)
	}
	idx := m.colorIndex[docID] % len(Colors)
	m.colorIndex[docID]++

	p := &UserPresence{
		ClientID:     clientID,
		Label:        label,
		Color:        Colors[idx],
		LastActivity: time.Now(),
		Permission:   permission,
		Status:       StatusOnline,
	}
	m.docs[docID][clientID] = p
	return p
}

// Leave removes clientID from docID's presence set.
func (m *Manager) Leave(docID, clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[docID] == nil {
		return
	}
	delete(m.docs[docID], clientID)
	if len(m.docs[docID]) == 0 {
		delete(m.docs, docID)
		delete(m.colorIndex, docID)
	}
}

// UpdateCursor records a new cursor position for clientID.
func (m *Manager) UpdateCursor(docID, clientID string, pos document.Position) *UserPresence {
	return m.mutate(docID, clientID, func(p *UserPresence) {
		p.Position = &pos
		p.Status = StatusOnline
	})
}

// UpdateSelection records a new selection for clientID.
func (m *Manager) UpdateSelection(docID, clientID string, sel document.Selection) *UserPresence {
	return m.mutate(docID, clientID, func(p *UserPresence) { p.Selection = &sel })
}

// ClearSelection drops clientID's selection, leaving its cursor intact.
func (m *Manager) ClearSelection(docID, clientID string) *UserPresence {
	return m.mutate(docID, clientID, func(p *UserPresence) { p.Selection = nil })
}

// SetTyping records whether clientID is actively typing.
func (m *Manager) SetTyping(docID, clientID string, typing bool) *UserPresence {
	return m.mutate(docID, clientID, func(p *UserPresence) { p.IsTyping = typing })
}

// SetStatus updates clientID's online status.
func (m *Manager) SetStatus(docID, clientID string, status Status) *UserPresence {
	return m.mutate(docID, clientID, func(p *UserPresence) { p.Status = status })
}

// SetPermission updates clientID's permission level.
func (m *Manager) SetPermission(docID, clientID string, level PermissionLevel) *UserPresence {
	return m.mutate(docID, clientID, func(p *UserPresence) { p.Permission = level })
}

// Follow sets which clientId clientID is now following.
func (m *Manager) Follow(docID, clientID, target string) *UserPresence {
	return m.mutate(docID, clientID, func(p *UserPresence) { p.Following = target })
}

// Unfollow clears clientID's followed target.
func (m *Manager) Unfollow(docID, clientID string) *UserPresence {
	return m.mutate(docID, clientID, func(p *UserPresence) { p.Following = "" })
}

func (m *Manager) mutate(docID, clientID string, fn func(*UserPresence)) *UserPresence {
	m.mu.Lock()
	defer m.mu.Unlock()
	room := m.docs[docID]
	if room == nil || room[clientID] == nil {
		return nil
	}
	p := room[clientID]
	fn(p)
	p.LastActivity = time.Now()
	return p
}

// All returns every collaborator currently present in docID.
func (m *Manager) All(docID string) []*UserPresence {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room := m.docs[docID]
	out := make([]*UserPresence, 0, len(room))
	for _, p := range room {
		out = append(out, p)
	}
	return out
}

// Get returns clientID's presence in docID, if present.
func (m *Manager) Get(docID, clientID string) (*UserPresence, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room := m.docs[docID]
	if room == nil {
		return nil, false
	}
	p, ok := room[clientID]
	return p, ok
}

// CanMutate reports whether clientID currently holds a permission level
// allowed to change docID's content. Absent clients can never mutate.
func (m *Manager) CanMutate(docID, clientID string) bool {
	p, ok := m.Get(docID, clientID)
	return ok && p.Permission.CanMutate()
}

// CleanupInactive evicts every collaborator whose LastActivity exceeds
// timeout, returning the (docID, clientID) pairs removed.
func (m *Manager) CleanupInactive(timeout time.Duration) []Eviction {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var removed []Eviction
	for docID, room := range m.docs {
		for clientID, p := range room {
			if now.Sub(p.LastActivity) > timeout {
				delete(room, clientID)
				removed = append(removed, Eviction{DocID: docID, ClientID: clientID})
			}
		}
		if len(room) == 0 {
			delete(m.docs, docID)
			delete(m.colorIndex, docID)
		}
	}
	return removed
}

// Eviction names a collaborator CleanupInactive removed.
type Eviction struct {
	DocID    string
	ClientID string
}
