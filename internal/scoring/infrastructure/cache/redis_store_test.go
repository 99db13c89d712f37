package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `scores:`, escapeGlob("scores:"))
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("PULSE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PULSE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	base, err := NewRedisStoreFromURL(url)
	require.NoError(t, err)
	defer base.Close()
	require.NoError(t, base.Ping(ctx))

	store := NewRedisStore(base.client, "pulse:test:"+uuid.NewString()+":")
	defer store.DeletePrefix(ctx, "")

	now := time.Now().UTC()
	entry := Entry{Value: []byte(`{"a":1}`), StoredAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, store.Set(ctx, "scores:a", entry))
	require.NoError(t, store.Set(ctx, "scores:b", entry))
	require.NoError(t, store.Set(ctx, "baseline:a", entry))

	got, ok, err := store.Get(ctx, "scores:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(got.Value))

	require.NoError(t, store.DeletePrefix(ctx, "scores:"))

	_, ok, err = store.Get(ctx, "scores:b")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get(ctx, "baseline:a")
	require.NoError(t, err)
	assert.True(t, ok)
}
