package presence

import (
	"testing"
	"time"

	"inkwell/internal/document"
)

func TestJoinAssignsRotatingColors(t *testing.T) {
	m := NewManager()
	a := m.Join("doc1", "alice", "Alice", PermissionEditor)
	b := m.Join("doc1", "bob", "Bob", PermissionViewer)

	if a.Color == b.Color {
		t.Fatalf("expected distinct colors, both got %q", a.Color)
	}
	if a.Color != Colors[0] || b.Color != Colors[1] {
		t.Fatalf("expected colors assigned in rotation order, got %q then %q", a.Color, b.Color)
	}
}

func TestJoinColorsWrapAfterPaletteExhausted(t *testing.T) {
	m := NewManager()
	for i := 0; i < len(Colors); i++ {
		m.Join("doc1", string(rune('a'+i)), "u", PermissionEditor)
	}
	wrapped := m.Join("doc1", "wraps", "Wraps", PermissionEditor)
	if wrapped.Color != Colors[0] {
		t.Fatalf("expected color assignment to wrap to Colors[0], got %q", wrapped.Color)
	}
}

func TestLeaveRemovesFromRoomAndClearsEmptyDoc(t *testing.T) {
	m := NewManager()
	m.Join("doc1", "alice", "Alice", PermissionEditor)
	m.Leave("doc1", "alice")

	if _, ok := m.Get("doc1", "alice"); ok {
		t.Fatal("expected alice to be gone after Leave")
	}
	if len(m.All("doc1")) != 0 {
		t.Fatal("expected empty room after last member leaves")
	}
}

func TestUpdateCursorSetsPositionAndTouchesActivity(t *testing.T) {
	m := NewManager()
	m.Join("doc1", "alice", "Alice", PermissionEditor)

	before, _ := m.Get("doc1", "alice")
	firstSeen := before.LastActivity

	time.Sleep(time.Millisecond)
	p := m.UpdateCursor("doc1", "alice", document.Position{BlockIndex: 2, Offset: 5})
	if p == nil {
		t.Fatal("expected presence to be returned")
	}
	if p.Position == nil || p.Position.BlockIndex != 2 || p.Position.Offset != 5 {
		t.Fatalf("unexpected position: %+v", p.Position)
	}
	if !p.LastActivity.After(firstSeen) {
		t.Fatal("expected LastActivity to advance")
	}
}

func TestUpdateCursorForAbsentClientReturnsNil(t *testing.T) {
	m := NewManager()
	if got := m.UpdateCursor("doc1", "ghost", document.Position{}); got != nil {
		t.Fatalf("expected nil for unknown client, got %+v", got)
	}
}

func TestClearSelectionDropsSelectionKeepsCursor(t *testing.T) {
	m := NewManager()
	m.Join("doc1", "alice", "Alice", PermissionEditor)
	m.UpdateCursor("doc1", "alice", document.Position{BlockIndex: 0, Offset: 1})
	m.UpdateSelection("doc1", "alice", document.Selection{
		Anchor: document.Position{BlockIndex: 0, Offset: 0},
		Focus:  document.Position{BlockIndex: 0, Offset: 3},
	})

	p := m.ClearSelection("doc1", "alice")
	if p.Selection != nil {
		t.Fatal("expected selection cleared")
	}
	if p.Position == nil {
		t.Fatal("expected cursor position to survive selection clear")
	}
}

func TestCanMutateReflectsPermission(t *testing.T) {
	m := NewManager()
	m.Join("doc1", "viewer", "V", PermissionViewer)
	m.Join("doc1", "editor", "E", PermissionEditor)

	if m.CanMutate("doc1", "viewer") {
		t.Fatal("viewer should not be able to mutate")
	}
	if !m.CanMutate("doc1", "editor") {
		t.Fatal("editor should be able to mutate")
	}
	if m.CanMutate("doc1", "ghost") {
		t.Fatal("absent client should never be able to mutate")
	}
}

func TestSetPermissionChangesMutatePrivilege(t *testing.T) {
	m := NewManager()
	m.Join("doc1", "alice", "Alice", PermissionViewer)
	m.SetPermission("doc1", "alice", PermissionAdmin)
	if !m.CanMutate("doc1", "alice") {
		t.Fatal("expected promoted admin to be able to mutate")
	}
}

func TestFollowAndUnfollow(t *testing.T) {
	m := NewManager()
	m.Join("doc1", "alice", "Alice", PermissionEditor)
	m.Join("doc1", "bob", "Bob", PermissionEditor)

	m.Follow("doc1", "alice", "bob")
	p, _ := m.Get("doc1", "alice")
	if p.Following != "bob" {
		t.Fatalf("expected alice following bob, got %q", p.Following)
	}

	m.Unfollow("doc1", "alice")
	p, _ = m.Get("doc1", "alice")
	if p.Following != "" {
		t.Fatalf("expected follow cleared, got %q", p.Following)
	}
}

func TestCleanupInactiveEvictsStaleClientsOnly(t *testing.T) {
	m := NewManager()
	m.Join("doc1", "stale", "Stale", PermissionEditor)
	time.Sleep(5 * time.Millisecond)
	m.Join("doc1", "fresh", "Fresh", PermissionEditor)

	evicted := m.CleanupInactive(3 * time.Millisecond)
	if len(evicted) != 1 || evicted[0].ClientID != "stale" {
		t.Fatalf("expected only stale evicted, got %+v", evicted)
	}
	if _, ok := m.Get("doc1", "fresh"); !ok {
		t.Fatal("expected fresh client to survive cleanup")
	}
	if _, ok := m.Get("doc1", "stale"); ok {
		t.Fatal("expected stale client to be gone")
	}
}

func TestActivityFeedTrimsToMaxItemsAndOrdersNewestFirst(t *testing.T) {
	f := NewActivityFeed("doc1", 3)
	for i := 0; i < 5; i++ {
		f.Add(ActivityItem{ClientID: "alice", Action: "typed", Target: string(rune('0' + i))})
	}

	recent := f.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("expected feed trimmed to 3 items, got %d", len(recent))
	}
	if recent[0].Target != "4" || recent[2].Target != "2" {
		t.Fatalf("expected newest-first order, got %+v", recent)
	}
}

func TestActivityFeedRecentRespectsLimit(t *testing.T) {
	f := NewActivityFeed("doc1", 10)
	for i := 0; i < 4; i++ {
		f.Add(ActivityItem{ClientID: "alice", Action: "joined"})
	}
	if got := f.Recent(2); len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
}
