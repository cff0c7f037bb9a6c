package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andywolf/msccrafter/internal/msc"
)

// RenderState records how deep the resolution that produced an entry went.
type RenderState string

const (
	// RenderFull means threads, implementations and checklist data were
	// populated.
	RenderFull RenderState = "full"
	// RenderPartial means only primary-query fields were populated.
	RenderPartial RenderState = "partial"
)

// DefaultNamespace prefixes every cache key.
const DefaultNamespace = "msccrafter.msc"

// Expiry policy: cache lifetime is inversely proportional to expected
// mutation frequency, approximated by recency of update and finality of
// state.
const (
	// StaleAfter is how long a proposal must have gone without updates to
	// count as dormant.
	StaleAfter = 365 * 24 * time.Hour
	// DormantExpiry effectively caches dormant proposals indefinitely.
	DormantExpiry = 1000 * 30 * 24 * time.Hour
	// MergedExpiry covers merged proposals, which change rarely but may
	// still gain implementation links.
	MergedExpiry = 8000 * time.Hour
	// DefaultExpiry covers actively changing proposals.
	DefaultExpiry = 500 * time.Hour
)

// Entry is a cached proposal record together with its expiry deadline and
// render depth.
type Entry struct {
	msc.MSC
	// ExpiresAt is an absolute epoch-millisecond deadline.
	ExpiresAt int64 `json:"expiresAt"`
	// RenderState tracks whether the entry came from a full resolution.
	RenderState RenderState `json:"renderState"`
}

// Cache reads and writes proposal records through a key-value store. Entries
// are keyed "<namespace>.<prNumber>"; at most one entry exists per proposal.
type Cache struct {
	store     Store
	namespace string
	nowFunc   func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithNamespace overrides the key namespace.
func WithNamespace(ns string) Option {
	return func(c *Cache) {
		c.namespace = ns
	}
}

// WithNowFunc sets a custom time function for testing.
func WithNowFunc(fn func() time.Time) Option {
	return func(c *Cache) {
		c.nowFunc = fn
	}
}

// New creates a Cache over the given store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:     store,
		namespace: DefaultNamespace,
		nowFunc:   time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the cached entry for the given proposal if it can satisfy the
// request. An entry is usable when the caller did not ask for a full render,
// or is offline, or the entry has not expired — and, in every case, only when
// the entry's render depth covers the request: a partial entry never
// satisfies a full-render request, regardless of freshness.
//
// Corrupt stored JSON counts as a miss, never an error.
func (c *Cache) Get(number int, fullRender, online bool) (*Entry, bool) {
	raw, ok := c.store.Get(c.key(number))
	if !ok {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false
	}

	usable := !fullRender || !online || entry.ExpiresAt > c.nowFunc().UnixMilli()
	if !usable {
		return nil, false
	}
	if fullRender && entry.RenderState != RenderFull {
		return nil, false
	}
	return &entry, true
}

// Put stores the proposal with an expiry computed from the tiered policy,
// tagging the entry's render depth from the fullRender flag that produced it.
// Put overwrites any previous entry for the proposal; last write wins.
func (c *Cache) Put(number int, m *msc.MSC, fullRender bool) error {
	now := c.nowFunc()

	entry := Entry{
		MSC:         *m,
		ExpiresAt:   now.Add(c.expiryFor(m, now)).UnixMilli(),
		RenderState: RenderPartial,
	}
	if fullRender {
		entry.RenderState = RenderFull
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.store.Set(c.key(number), string(raw)); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Entries returns every readable cached entry under the namespace, in key
// order. Corrupt entries are skipped. This powers the local cache listing.
func (c *Cache) Entries() []Entry {
	var entries []Entry
	for _, key := range c.store.Keys(c.namespace + ".") {
		raw, ok := c.store.Get(key)
		if !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// expiryFor picks the expiry tier, highest priority first: dormant proposals
// outrank merged ones, which outrank the default.
func (c *Cache) expiryFor(m *msc.MSC, now time.Time) time.Duration {
	if now.Sub(m.Updated) > StaleAfter {
		return DormantExpiry
	}
	if m.State == msc.StateMerged {
		return MergedExpiry
	}
	return DefaultExpiry
}

func (c *Cache) key(number int) string {
	return c.namespace + "." + strconv.Itoa(number)
}

// NumberFromKey extracts the proposal number from a cache key, for listings
// that iterate raw keys.
func NumberFromKey(namespace, key string) (int, bool) {
	rest, found := strings.CutPrefix(key, namespace+".")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
