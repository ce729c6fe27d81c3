package invcache

import "context"

// ChangeKind says what happened to a record.
type ChangeKind int

const (
	Created ChangeKind = iota + 1
	Updated
	Deleted
)

func (k ChangeKind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ChangeEvent describes a committed write to a user record.
// For deletes, ID is captured before the row is removed.
type ChangeEvent struct {
	Kind ChangeKind
	ID   uint64
}

// ChangeListener is notified by the system of record after a write commits.
// Implementations must not fail the write: they log and move on.
type ChangeListener interface {
	RecordChanged(ctx context.Context, ev ChangeEvent)
}

// ChangeListenerFunc adapts a function to ChangeListener.
type ChangeListenerFunc func(ctx context.Context, ev ChangeEvent)

func (f ChangeListenerFunc) RecordChanged(ctx context.Context, ev ChangeEvent) { f(ctx, ev) }

// NopListener ignores every event.
type NopListener struct{}

func (NopListener) RecordChanged(context.Context, ChangeEvent) {}

// Invalidator drops the cache entries derived from a record whenever it changes.
// It is handed to repositories explicitly, so every mutation path (HTTP API,
// CLI, direct repository use) ends up here once the write has committed.
type Invalidator struct {
	store  *Store
	tagger *Tagger
	tags   []string
}

var _ ChangeListener = (*Invalidator)(nil)

func NewInvalidator(store *Store) *Invalidator {
	return &Invalidator{store: store}
}

// WithTags makes the invalidator also drop every entry indexed under tags.
func (iv *Invalidator) WithTags(t *Tagger, tags ...string) *Invalidator {
	iv.tagger = t
	iv.tags = append([]string(nil), tags...)
	return iv
}

// KeysFor lists the entries a change makes stale: the collection and the record.
// The same pair is dropped for every kind; for creates the record key cannot
// exist yet, and deleting it is a no-op.
func KeysFor(ev ChangeEvent) []string {
	return []string{ListKey(), UserKey(ev.ID)}
}

// RecordChanged is idempotent: replaying an event only deletes absent keys.
// It runs to completion even if ctx is already cancelled or expired.
func (iv *Invalidator) RecordChanged(ctx context.Context, ev ChangeEvent) {
	ctx = context.WithoutCancel(ctx)
	log := iv.store.log
	for _, k := range KeysFor(ev) {
		if err := iv.store.Delete(ctx, k); err == nil {
			log.Info("cache invalidated", Fields{"key": k})
		}
	}
	if iv.tagger != nil {
		for _, tag := range iv.tags {
			_, _ = iv.tagger.InvalidateByTag(ctx, tag)
		}
	}
	log.Info("user changed, cache invalidated", Fields{"user_id": ev.ID, "action": ev.Kind.String()})
}
