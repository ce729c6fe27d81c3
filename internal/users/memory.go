package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/unkn0wn-root/invcache"
)

// MemoryRepository keeps users in a map. Used by the dev server and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	rows   map[uint64]User
	nextID uint64
	now    func() time.Time

	listener invcache.ChangeListener
	loads    int
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty repository. A nil listener is allowed.
func NewMemoryRepository(listener invcache.ChangeListener) *MemoryRepository {
	if listener == nil {
		listener = invcache.NopListener{}
	}
	return &MemoryRepository{
		rows:     make(map[uint64]User),
		nextID:   1,
		now:      time.Now,
		listener: listener,
	}
}

// Loads counts List and Get calls.
func (r *MemoryRepository) Loads() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loads
}

func (r *MemoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	out := make([]User, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uint64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	u, ok := r.rows[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) Create(ctx context.Context, in Input) (User, error) {
	if err := in.ValidateCreate(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	u := newUser(in, r.now())
	u.ID = r.nextID
	r.nextID++
	r.rows[u.ID] = u
	r.mu.Unlock()

	r.listener.RecordChanged(ctx, invcache.ChangeEvent{Kind: invcache.Created, ID: u.ID})
	return u, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uint64, in Input) (User, error) {
	if err := in.Validate(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	u, ok := r.rows[id]
	if !ok {
		r.mu.Unlock()
		return User{}, ErrNotFound
	}
	in.apply(&u)
	u.UpdatedAt = r.now()
	r.rows[id] = u
	r.mu.Unlock()

	r.listener.RecordChanged(ctx, invcache.ChangeEvent{Kind: invcache.Updated, ID: id})
	return u, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uint64) error {
	r.mu.Lock()
	if _, ok := r.rows[id]; !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.rows, id)
	r.mu.Unlock()

	r.listener.RecordChanged(ctx, invcache.ChangeEvent{Kind: invcache.Deleted, ID: id})
	return nil
}
