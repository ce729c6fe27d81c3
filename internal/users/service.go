package users

import (
	"context"
	"time"

	"github.com/unkn0wn-root/invcache"
	"github.com/unkn0wn-root/invcache/codec"
)

// Timing labels reported for the read paths.
const (
	LabelList     = "user_list_cache"
	LabelRetrieve = "user_detail_cache"
)

type ServiceOptions struct {
	Codec     string        // json (default), msgpack or cbor
	MaxDecode int           // 0 => unlimited
	TTL       time.Duration // 0 => store default
}

// CachedService is the read-through front for a Repository. Reads go through
// the cache; writes go straight to the repository, whose ChangeListener drops
// the affected keys once the write commits. A repository built without an
// Invalidator leaves cached entries to expire by TTL.
type CachedService struct {
	repo  Repository
	store *invcache.Store
	list  *invcache.Entry[[]Payload]
	one   *invcache.Entry[Payload]
}

func NewCachedService(repo Repository, store *invcache.Store, opts ServiceOptions) (*CachedService, error) {
	lc, err := codec.ByName[[]Payload](opts.Codec, opts.MaxDecode)
	if err != nil {
		return nil, err
	}
	oc, err := codec.ByName[Payload](opts.Codec, opts.MaxDecode)
	if err != nil {
		return nil, err
	}
	return &CachedService{
		repo:  repo,
		store: store,
		list:  invcache.NewEntry(store, lc, opts.TTL),
		one:   invcache.NewEntry(store, oc, opts.TTL),
	}, nil
}

func (s *CachedService) List(ctx context.Context) ([]Payload, error) {
	return invcache.TimedValue(s.store.Logger(), s.store.Hooks(), LabelList, func() ([]Payload, error) {
		return s.list.GetOrLoad(ctx, invcache.ListKey(), func(ctx context.Context) ([]Payload, error) {
			us, err := s.repo.List(ctx)
			if err != nil {
				return nil, err
			}
			return SerializeMany(us), nil
		})
	})
}

// Retrieve returns ErrNotFound unchanged; misses for absent ids are not cached.
func (s *CachedService) Retrieve(ctx context.Context, id uint64) (Payload, error) {
	return invcache.TimedValue(s.store.Logger(), s.store.Hooks(), LabelRetrieve, func() (Payload, error) {
		return s.one.GetOrLoad(ctx, invcache.UserKey(id), func(ctx context.Context) (Payload, error) {
			u, err := s.repo.Get(ctx, id)
			if err != nil {
				return Payload{}, err
			}
			return Serialize(u), nil
		})
	})
}

func (s *CachedService) Create(ctx context.Context, in Input) (Payload, error) {
	u, err := s.repo.Create(ctx, in)
	if err != nil {
		return Payload{}, err
	}
	return Serialize(u), nil
}

func (s *CachedService) Update(ctx context.Context, id uint64, in Input) (Payload, error) {
	u, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Payload{}, err
	}
	return Serialize(u), nil
}

func (s *CachedService) Delete(ctx context.Context, id uint64) error {
	return s.repo.Delete(ctx, id)
}
