package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUnreadCache_UnreachableIsMiss(t *testing.T) {
	t.Parallel()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewUnreadCache(client, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	c.SetUnreadCount(ctx, userID, 0, 3)
	c.Invalidate(ctx, userID)
	_, gen, ok := c.UnreadCount(ctx, userID)
	require.False(t, ok)
	require.Equal(t, int64(-1), gen)
}

func Test_unreadKey(t *testing.T) {
	t.Parallel()
	id := uuid.MustParse("83575e12-7ce0-48ee-9931-51919ff3c9ee")
	require.Equal(t, "bookbarter:unread:83575e12-7ce0-48ee-9931-51919ff3c9ee", unreadKey(id))
	require.Equal(t, "bookbarter:unread:83575e12-7ce0-48ee-9931-51919ff3c9ee:gen", generationKey(id))
	require.Equal(t, "bookbarter:unread:83575e12-7ce0-48ee-9931-51919ff3c9ee:4", countKey(id, 4))
}
