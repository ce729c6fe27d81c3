package users

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/invcache/codec"
)

// withLocal runs the test with time.Local set to a non-UTC zone.
func withLocal(t *testing.T) {
	t.Helper()
	prev := time.Local
	time.Local = time.FixedZone("UTC+2", 2*60*60)
	t.Cleanup(func() { time.Local = prev })
}

func TestCodecsKeepPayloadTimesInUTC(t *testing.T) {
	withLocal(t)
	at := time.Date(2026, 10, 16, 1, 1, 0, 660_000_000, time.UTC)
	miss := Serialize(User{ID: 1, Name: "ann", Email: "ann@example.com", Enabled: true, CreatedAt: at, UpdatedAt: at.Local()})
	want, err := json.Marshal(miss)
	require.NoError(t, err)

	for _, name := range []string{codec.NameJSON, codec.NameMsgpack, codec.NameCBOR} {
		t.Run(name, func(t *testing.T) {
			one, err := codec.ByName[Payload](name, 0)
			require.NoError(t, err)
			b, err := one.Encode(miss)
			require.NoError(t, err)
			hit, err := one.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, time.UTC, hit.CreatedAt.Location())
			assert.Equal(t, time.UTC, hit.UpdatedAt.Location())
			got, err := json.Marshal(hit)
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got))

			many, err := codec.ByName[[]Payload](name, 0)
			require.NoError(t, err)
			b, err = many.Encode([]Payload{miss})
			require.NoError(t, err)
			hits, err := many.Decode(b)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, time.UTC, hits[0].CreatedAt.Location())
		})
	}
}

func TestMsgpackHitMatchesMiss(t *testing.T) {
	withLocal(t)
	ctx := context.Background()
	f := newFixture(t, "msgpack")
	f.seed(t, 1)

	miss, err := f.svc.Retrieve(ctx, 1)
	require.NoError(t, err)
	hit, err := f.svc.Retrieve(ctx, 1)
	require.NoError(t, err)

	a, err := json.Marshal(miss)
	require.NoError(t, err)
	b, err := json.Marshal(hit)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
