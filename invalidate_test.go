package invcache

import (
	"context"
	"testing"
	"time"

	"github.com/unkn0wn-root/invcache/internal/testkit"
)

func TestKeysFor(t *testing.T) {
	for _, kind := range []ChangeKind{Created, Updated, Deleted} {
		got := KeysFor(ChangeEvent{Kind: kind, ID: 7})
		if len(got) != 2 || got[0] != "user_list" || got[1] != "user_7" {
			t.Fatalf("%s: KeysFor = %v", kind, got)
		}
	}
}

func TestRecordChangedDropsListAndRecord(t *testing.T) {
	ctx := context.Background()
	p := testkit.NewMemProvider()
	s := newTestStore(t, p, nil)
	iv := NewInvalidator(s)

	p.Put(ListKey(), []byte("[]"))
	p.Put(UserKey(5), []byte("{}"))
	p.Put(UserKey(6), []byte("{}"))

	iv.RecordChanged(ctx, ChangeEvent{Kind: Updated, ID: 5})
	if p.Has(ListKey()) || p.Has(UserKey(5)) {
		t.Fatalf("stale entries survived")
	}
	if !p.Has(UserKey(6)) {
		t.Fatalf("unrelated record evicted")
	}

	// Replays are harmless.
	iv.RecordChanged(ctx, ChangeEvent{Kind: Updated, ID: 5})
	iv.RecordChanged(ctx, ChangeEvent{Kind: Deleted, ID: 5})
	if !p.Has(UserKey(6)) {
		t.Fatalf("replay evicted an unrelated record")
	}
}

func TestRecordChangedSurvivesStoreOutage(t *testing.T) {
	p := testkit.NewMemProvider()
	log := &recLogger{}
	hooks := &recHooks{}
	s := newTestStore(t, p, func(o *Options) { o.Logger = log; o.Hooks = hooks })
	p.SetDown(true)

	NewInvalidator(s).RecordChanged(context.Background(), ChangeEvent{Kind: Deleted, ID: 1})
	if len(hooks.invFailed) != 2 {
		t.Fatalf("want both keys reported, got %v", hooks.invFailed)
	}
	if log.count("error") != 2 {
		t.Fatalf("want 2 incidents, got %d", log.count("error"))
	}
}

func TestRecordChangedWithTags(t *testing.T) {
	ctx := context.Background()
	p := testkit.NewMemProvider()
	s := newTestStore(t, p, nil)
	tg := NewTagger(s)
	iv := NewInvalidator(s).WithTags(tg, "users")

	_ = tg.SetWithTags(ctx, "user_9", []byte("{}"), []string{"users"}, 0)
	iv.RecordChanged(ctx, ChangeEvent{Kind: Created, ID: 10})
	if p.Has("user_9") || p.Has(TagKey("users")) {
		t.Fatalf("tagged entries survived")
	}
}

func TestRecordChangedIgnoresCallerCancellation(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()

	for name, ctx := range map[string]context.Context{"cancelled": cancelled, "expired": expired} {
		t.Run(name, func(t *testing.T) {
			p := testkit.NewMemProvider()
			hooks := &recHooks{}
			s := newTestStore(t, p, func(o *Options) { o.Hooks = hooks })
			tg := NewTagger(s)
			iv := NewInvalidator(s).WithTags(tg, "users")

			p.Put(ListKey(), []byte("[]"))
			p.Put(UserKey(5), []byte("{}"))
			if err := tg.SetWithTags(context.Background(), "user_9", []byte("{}"), []string{"users"}, 0); err != nil {
				t.Fatalf("SetWithTags: %v", err)
			}

			iv.RecordChanged(ctx, ChangeEvent{Kind: Updated, ID: 5})
			for _, k := range []string{ListKey(), UserKey(5), "user_9", TagKey("users")} {
				if p.Has(k) {
					t.Fatalf("%s survived invalidation", k)
				}
			}
			if len(hooks.invFailed) != 0 {
				t.Fatalf("unexpected failures: %v", hooks.invFailed)
			}
		})
	}
}

func TestStoreDeleteWithDoneContext(t *testing.T) {
	p := testkit.NewMemProvider()
	s := newTestStore(t, p, nil)
	p.Put("k", []byte("v"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if p.Has("k") {
		t.Fatalf("entry survived delete")
	}
}

func TestChangeListenerFunc(t *testing.T) {
	var got ChangeEvent
	var l ChangeListener = ChangeListenerFunc(func(_ context.Context, ev ChangeEvent) { got = ev })
	l.RecordChanged(context.Background(), ChangeEvent{Kind: Deleted, ID: 3})
	if got.Kind != Deleted || got.ID != 3 || got.Kind.String() != "deleted" {
		t.Fatalf("got %+v", got)
	}
}
