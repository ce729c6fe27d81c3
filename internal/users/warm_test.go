package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/invcache"
)

func TestWarmPopulatesListAndUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "json")
	f.seed(t, 3)
	f.p.Put("leftover", []byte("x"))

	tagger := invcache.NewTagger(f.store)
	res, err := Warm(ctx, f.repo, f.store, WarmOptions{Clear: true, Tagger: tagger})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Cleared)
	assert.Equal(t, 3, res.Users)
	assert.Equal(t, 4, res.Entries)
	assert.False(t, f.p.Has("leftover"))
	for _, k := range []string{"user_list", "user_1", "user_2", "user_3"} {
		assert.True(t, f.p.Has(k), k)
	}
	assert.Len(t, tagger.Members(ctx, TagUsers), 4)

	// Warmed entries are served without loading.
	loads := f.repo.Loads()
	_, err = f.svc.Retrieve(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, loads, f.repo.Loads())
}

func TestWarmEmpty(t *testing.T) {
	f := newFixture(t, "json")
	res, err := Warm(context.Background(), f.repo, f.store, WarmOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Entries)
	assert.True(t, f.p.Has("user_list"))
}
