package cache

import (
	"testing"
	"time"

	"github.com/andywolf/msccrafter/internal/msc"
)

// mapStore is an in-memory Store for tests.
type mapStore struct {
	data map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string]string{}}
}

func (s *mapStore) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *mapStore) Set(key, value string) error {
	s.data[key] = value
	return nil
}

func (s *mapStore) Keys(prefix string) []string {
	var keys []string
	for k := range s.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys
}

func testMSC(number int, state msc.State, updated time.Time) *msc.MSC {
	return &msc.MSC{
		PRNumber:      number,
		Created:       updated.Add(-24 * time.Hour),
		Updated:       updated,
		Title:         "Test proposal",
		URL:           "https://github.com/matrix-org/matrix-spec-proposals/pull/1234",
		State:         state,
		Author:        "alice",
		MentionedMSCs: []int{1, 2},
	}
}

func TestCache_PutAndGet(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(newMapStore(), WithNowFunc(func() time.Time { return now }))

	m := testMSC(1234, msc.StateOpen, now.Add(-10*24*time.Hour))
	if err := c.Put(1234, m, true); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, ok := c.Get(1234, true, true)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if entry.PRNumber != 1234 || entry.State != msc.StateOpen {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.RenderState != RenderFull {
		t.Errorf("expected full render state, got %s", entry.RenderState)
	}
}

func TestCache_Miss(t *testing.T) {
	c := New(newMapStore())
	if _, ok := c.Get(42, false, true); ok {
		t.Error("expected miss for unknown proposal")
	}
}

func TestCache_ExpiryTiers(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		state    msc.State
		updated  time.Time
		expected time.Duration
	}{
		{"dormant regardless of state", msc.StateOpen, now.Add(-400 * 24 * time.Hour), DormantExpiry},
		{"dormant merged", msc.StateMerged, now.Add(-400 * 24 * time.Hour), DormantExpiry},
		{"merged tier", msc.StateMerged, now.Add(-10 * 24 * time.Hour), MergedExpiry},
		{"default tier", msc.StateOpen, now.Add(-10 * 24 * time.Hour), DefaultExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMapStore()
			c := New(store, WithNowFunc(func() time.Time { return now }))

			if err := c.Put(1, testMSC(1, tt.state, tt.updated), false); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			entry, ok := c.Get(1, false, true)
			if !ok {
				t.Fatal("expected cache hit")
			}
			want := now.Add(tt.expected).UnixMilli()
			if entry.ExpiresAt != want {
				t.Errorf("expiresAt = %d, want %d", entry.ExpiresAt, want)
			}
		})
	}
}

func TestCache_PartialNeverSatisfiesFullRender(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(newMapStore(), WithNowFunc(func() time.Time { return now }))

	if err := c.Put(1234, testMSC(1234, msc.StateOpen, now), false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Unexpired and online, but partial: must miss for a full-render request.
	if _, ok := c.Get(1234, true, true); ok {
		t.Error("partial entry must not satisfy a full-render request")
	}
	// Even offline.
	if _, ok := c.Get(1234, true, false); ok {
		t.Error("partial entry must not satisfy a full-render request offline")
	}
	// A partial-render request is fine.
	if _, ok := c.Get(1234, false, true); !ok {
		t.Error("expected hit for partial-render request")
	}
}

func TestCache_ExpiredEntry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now
	c := New(newMapStore(), WithNowFunc(func() time.Time { return current }))

	if err := c.Put(1234, testMSC(1234, msc.StateOpen, now), true); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	current = now.Add(DefaultExpiry + time.Hour)

	// Expired full entry: misses a full-render request while online.
	if _, ok := c.Get(1234, true, true); ok {
		t.Error("expected miss for expired entry")
	}
	// Offline callers take what they have.
	if _, ok := c.Get(1234, true, false); !ok {
		t.Error("expected hit for offline caller")
	}
	// Partial-render requests accept expired entries.
	if _, ok := c.Get(1234, false, true); !ok {
		t.Error("expected hit for partial-render request")
	}
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	store := newMapStore()
	store.data["msccrafter.msc.7"] = "{not json"

	c := New(store)
	if _, ok := c.Get(7, false, true); ok {
		t.Error("expected miss for corrupt entry")
	}
}

func TestCache_RoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 123000000, time.UTC)
	c := New(newMapStore(), WithNowFunc(func() time.Time { return now }))

	body := "# Proposal body"
	m := testMSC(1234, msc.StateMerged, now.Add(-48*time.Hour))
	m.Body = &body
	m.Threads = []msc.Thread{
		{Line: 10, Resolved: true, Comments: []msc.Comment{{Author: "bob", Body: "hm", Created: now}}},
	}

	if err := c.Put(1234, m, true); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, ok := c.Get(1234, true, true)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if entry.PRNumber != m.PRNumber || entry.State != m.State {
		t.Errorf("round trip changed identity: %+v", entry.MSC)
	}
	if !entry.Updated.Equal(m.Updated) || !entry.Created.Equal(m.Created) {
		t.Errorf("round trip changed timestamps: %v / %v", entry.Created, entry.Updated)
	}
	if len(entry.MentionedMSCs) != 2 || entry.MentionedMSCs[0] != 1 {
		t.Errorf("round trip changed mentions: %v", entry.MentionedMSCs)
	}
	if entry.Body == nil || *entry.Body != body {
		t.Error("round trip lost proposal body")
	}
	if !entry.Threads[0].Comments[0].Created.Equal(now) {
		t.Error("round trip changed thread comment timestamp")
	}
}

func TestCache_LastWriteWins(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(newMapStore(), WithNowFunc(func() time.Time { return now }))

	_ = c.Put(1, testMSC(1, msc.StateOpen, now), false)
	_ = c.Put(1, testMSC(1, msc.StateMerged, now), true)

	entry, ok := c.Get(1, true, true)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if entry.State != msc.StateMerged || entry.RenderState != RenderFull {
		t.Errorf("expected second write to win, got %+v", entry)
	}
}

func TestCache_Entries(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMapStore()
	c := New(store, WithNowFunc(func() time.Time { return now }))

	_ = c.Put(1, testMSC(1, msc.StateOpen, now), false)
	_ = c.Put(2, testMSC(2, msc.StateMerged, now), true)
	store.data["unrelated.key"] = "ignored"
	store.data["msccrafter.msc.bad"] = "{corrupt"

	entries := c.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestNumberFromKey(t *testing.T) {
	if n, ok := NumberFromKey("msccrafter.msc", "msccrafter.msc.1234"); !ok || n != 1234 {
		t.Errorf("expected 1234, got %d (%v)", n, ok)
	}
	if _, ok := NumberFromKey("msccrafter.msc", "other.1234"); ok {
		t.Error("expected false for foreign key")
	}
	if _, ok := NumberFromKey("msccrafter.msc", "msccrafter.msc.abc"); ok {
		t.Error("expected false for non-numeric key")
	}
}
