package core

// status.go tracks the export state of each record.
//
// Lifecycle:
//
//	NONE    -> PENDING   batch export starts
//	PENDING -> DONE      per-item success
//	PENDING -> FAILED    per-item failure, batch failure, or transport error
//	FAILED  -> PENDING   re-export
//	DONE    -> PENDING   re-export after an edit
//
// Applying the state a record is already in is a no-op, which makes Apply
// idempotent. Returning to NONE only happens through Clear.

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// RecordKey is the stable status-store key of a record: the domain tag and
// the SKU, or the row number when the SKU is missing.
type RecordKey string

// NewRecordKey builds the key for a record of domain.
func NewRecordKey(domain Domain, sku string, row int) RecordKey {
	if sku = strings.TrimSpace(sku); sku != "" {
		return RecordKey(fmt.Sprintf("%s:%s", domain, sku))
	}
	return RecordKey(fmt.Sprintf("%s:#row-%d", domain, row))
}

// Domain returns the domain prefix of the key.
func (k RecordKey) Domain() Domain {
	d, _, _ := strings.Cut(string(k), ":")
	return Domain(d)
}

// StatusStore persists status entries. Implementations must be safe for
// concurrent use; keys of different domains never collide.
type StatusStore interface {
	Get(ctx context.Context, key RecordKey) (StatusEntry, bool, error)
	Put(ctx context.Context, entry StatusEntry) error
	List(ctx context.Context, domain Domain) ([]StatusEntry, error)
	Clear(ctx context.Context, domain Domain) (int, error)
}

// BatchStatusStore is a StatusStore that can write many entries in one round trip.
type BatchStatusStore interface {
	StatusStore
	PutMany(ctx context.Context, entries []StatusEntry) error
}

var transitions = map[Status][]Status{
	StatusNone:    {StatusPending},
	StatusPending: {StatusDone, StatusFailed},
	StatusFailed:  {StatusPending},
	StatusDone:    {StatusPending},
}

// CanTransition reports whether from -> to is a legal status change.
// Same-state changes are always legal.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StatusUpdate is one requested status change.
type StatusUpdate struct {
	Key     RecordKey
	Status  Status
	Message string // Stored as LastError for FAILED; ignored otherwise
}

// Tracker applies status changes through the state machine.
type Tracker struct {
	store StatusStore
	now   Clock
}

// NewTracker creates a tracker over store. A nil clock uses time.Now.
func NewTracker(store StatusStore, now Clock) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: store, now: now}
}

// Apply moves one record to status. It returns the resulting entry.
func (t *Tracker) Apply(ctx context.Context, key RecordKey, status Status, errMsg string) (StatusEntry, error) {
	cur, _, err := t.store.Get(ctx, key)
	if err != nil {
		return StatusEntry{}, fmt.Errorf("get status %s: %w", key, err)
	}
	next, changed, err := t.next(key, cur, StatusUpdate{Key: key, Status: status, Message: errMsg})
	if err != nil {
		return cur, err
	}
	if !changed {
		return next, nil
	}
	if err := t.store.Put(ctx, next); err != nil {
		return cur, fmt.Errorf("put status %s: %w", key, err)
	}
	return next, nil
}

// ApplyMany validates every update first and writes nothing if any
// transition is illegal. Unchanged entries are not rewritten.
func (t *Tracker) ApplyMany(ctx context.Context, updates []StatusUpdate) error {
	pending := make([]StatusEntry, 0, len(updates))
	for _, u := range updates {
		cur, _, err := t.store.Get(ctx, u.Key)
		if err != nil {
			return fmt.Errorf("get status %s: %w", u.Key, err)
		}
		next, changed, err := t.next(u.Key, cur, u)
		if err != nil {
			return err
		}
		if changed {
			pending = append(pending, next)
		}
	}

	if len(pending) == 0 {
		return nil
	}
	if bs, ok := t.store.(BatchStatusStore); ok {
		if err := bs.PutMany(ctx, pending); err != nil {
			return fmt.Errorf("put %d statuses: %w", len(pending), err)
		}
		return nil
	}
	for _, e := range pending {
		if err := t.store.Put(ctx, e); err != nil {
			return fmt.Errorf("put status %s: %w", e.Key, err)
		}
	}
	return nil
}

// Get returns the entry for key, or a NONE entry if it was never exported.
func (t *Tracker) Get(ctx context.Context, key RecordKey) (StatusEntry, error) {
	e, ok, err := t.store.Get(ctx, key)
	if err != nil {
		return StatusEntry{}, err
	}
	if !ok {
		return StatusEntry{Key: key, Status: StatusNone}, nil
	}
	return e, nil
}

// List returns the entries of a domain sorted by key.
func (t *Tracker) List(ctx context.Context, domain Domain) ([]StatusEntry, error) {
	entries, err := t.store.List(ctx, domain)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Reset returns every record of a domain to NONE.
func (t *Tracker) Reset(ctx context.Context, domain Domain) (int, error) {
	return t.store.Clear(ctx, domain)
}

// next computes the entry after u. changed is false for a no-op.
func (t *Tracker) next(key RecordKey, cur StatusEntry, u StatusUpdate) (StatusEntry, bool, error) {
	if cur.Status == "" {
		cur = StatusEntry{Key: key, Status: StatusNone}
	}
	if !CanTransition(cur.Status, u.Status) {
		return cur, false, fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, cur.Status, u.Status, key)
	}

	next := cur
	next.Key = key
	next.Status = u.Status

	switch u.Status {
	case StatusDone:
		next.LastError = ""
	case StatusFailed:
		next.LastError = u.Message
		if next.LastError == "" {
			next.LastError = "export failed"
		}
	}

	if next.Status == cur.Status && next.LastError == cur.LastError {
		return cur, false, nil
	}

	now := t.now()
	next.UpdatedAt = now
	if u.Status == StatusDone {
		next.LastExportedAt = now
	}
	return next, true, nil
}

// MemoryStatusStore keeps statuses in process memory.
type MemoryStatusStore struct {
	mu      sync.RWMutex
	entries map[RecordKey]StatusEntry
}

// NewMemoryStatusStore creates an empty in-memory store.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{entries: make(map[RecordKey]StatusEntry)}
}

func (m *MemoryStatusStore) Get(_ context.Context, key RecordKey) (StatusEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *MemoryStatusStore) Put(_ context.Context, entry StatusEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = entry
	return nil
}

func (m *MemoryStatusStore) List(_ context.Context, domain Domain) ([]StatusEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []StatusEntry
	for k, e := range m.entries {
		if k.Domain() == domain {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStatusStore) Clear(_ context.Context, domain Domain) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.entries {
		if k.Domain() == domain {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}
