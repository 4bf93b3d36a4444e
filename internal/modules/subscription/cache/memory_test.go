package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMissBeforeWrite(t *testing.T) {
	store := NewMemoryStore(5 * time.Minute)

	member, err := store.IsMember(context.Background(), 1, -100)
	require.NoError(t, err)
	require.False(t, member)
}

func TestMemoryStoreHitWithinTTL(t *testing.T) {
	store := NewMemoryStore(5 * time.Minute)
	ctx := context.Background()

	require.NoError(t, store.MarkMember(ctx, 1, -100))

	member, err := store.IsMember(ctx, 1, -100)
	require.NoError(t, err)
	require.True(t, member)

	// Other keys stay unknown
	member, err = store.IsMember(ctx, 1, -200)
	require.NoError(t, err)
	require.False(t, member)

	member, err = store.IsMember(ctx, 2, -100)
	require.NoError(t, err)
	require.False(t, member)
}

func TestMemoryStoreExpiresAfterTTL(t *testing.T) {
	store := NewMemoryStore(5 * time.Minute)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	require.NoError(t, store.MarkMember(ctx, 1, -100))

	current = current.Add(5*time.Minute + time.Second)

	member, err := store.IsMember(ctx, 1, -100)
	require.NoError(t, err)
	require.False(t, member)
}
