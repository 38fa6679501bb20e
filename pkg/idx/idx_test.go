package idx_test

import (
	"slices"
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewIsValid(t *testing.T) {
	id := idx.New()
	require.Len(t, id, 26)
	require.True(t, idx.Valid(id))
	require.False(t, idx.Valid("not-a-ulid"))
	require.False(t, idx.Valid(""))
}

func TestNewAtSortsWithinOneMillisecond(t *testing.T) {
	at := time.Unix(1_760_000_000, 0).UTC()

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = idx.NewAt(at)
	}

	require.True(t, slices.IsSorted(ids))
	require.Len(t, slices.Compact(slices.Clone(ids)), len(ids))
}

func TestTime(t *testing.T) {
	at := time.Unix(1_700_000_000, 0).UTC()
	require.Equal(t, at, idx.Time(idx.NewAt(at)))
	require.True(t, idx.Time("garbage").IsZero())
}
