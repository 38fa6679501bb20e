package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBucketsEvictIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBuckets(RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 1})
	b.now = func() time.Time { return now }

	ok, _ := b.take("a")
	require.True(t, ok)
	ok, wait := b.take("a")
	require.False(t, ok)
	require.InDelta(t, time.Hour.Seconds(), wait.Seconds(), 0.01)

	now = now.Add(idleBucketTTL / 2)
	ok, _ = b.take("b")
	require.True(t, ok)

	// "a" has been idle past the TTL, "b" has not.
	now = now.Add(idleBucketTTL/2 + time.Second)
	_, _ = b.take("b")
	require.NotContains(t, b.byKey, "a")
	require.Contains(t, b.byKey, "b")
}
