package runutil

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveThreads(t *testing.T) {
	thr, warns := ResolveThreads(2, 5)
	require.Equal(t, 2, thr)
	require.Empty(t, warns)

	thr, warns = ResolveThreads(8, 3)
	require.Equal(t, 3, thr)
	require.Len(t, warns, 1)

	thr, warns = ResolveThreads(0, 1)
	require.Equal(t, 1, thr)
	require.Empty(t, warns, "auto never warns")

	thr, _ = ResolveThreads(0, 0)
	require.Equal(t, runtime.NumCPU(), thr)
}

func TestCacheRecordsAndMemory(t *testing.T) {
	require.Equal(t, int64(1_000_000), CacheRecords(1000))
	require.Empty(t, CheckMemory(1, 1000, 0), "no limit")
	require.Empty(t, CheckMemory(2, 1000, 2_000_000))
	require.Len(t, CheckMemory(4, 1000, 2_000_000), 1)
}
