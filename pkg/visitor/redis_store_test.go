package visitor_test

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymkit/pkg/redis"
	"github.com/dmitrymomot/gymkit/pkg/visitor"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL is not set")
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 1, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := visitor.NewRedisStore(client, "gymkit-test:")
	id := uuid.NewString()
	t.Cleanup(func() { _ = store.Delete(ctx, id) })

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save(ctx, id, []*http.Cookie{{Name: "sid", Value: "s1"}}, time.Minute))
	got, err = store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sid", got[0].Name)
	assert.Equal(t, "s1", got[0].Value)

	require.NoError(t, store.Delete(ctx, id))
	got, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got)
}
