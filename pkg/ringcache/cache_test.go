package ringcache

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New_Clamps_Size_To_Bounds(t *testing.T) {
	t.Parallel()

	tooSmall := New(1, nil)
	defer tooSmall.Destroy()
	assert.Equal(t, uint32(MinCacheSize), tooSmall.size)

	tooBig := New(MaxCacheSize+1000, nil)
	defer tooBig.Destroy()
	assert.Equal(t, uint32(MaxCacheSize), tooBig.size)
}

func Test_Init_Resets_Cursors_And_Discards_Entries(t *testing.T) {
	t.Parallel()

	c := New(4096, nil)
	defer c.Destroy()

	c.Set([]byte("k"), []byte("v"), 60)
	motionBeforeReinit := c.motion

	_, _, ok := c.Get([]byte("k"))
	require.True(t, ok)

	ok = c.Init(4096, nil)
	require.True(t, ok)

	_, _, ok = c.Get([]byte("k"))
	assert.False(t, ok, "reinit must discard all prior entries")

	assert.Equal(t, c.hsize, c.writer)
	assert.Equal(t, c.size, c.oldest)
	assert.Equal(t, c.size, c.unused)
	// motion is a lifetime counter and is not reset by reinit, matching
	// original_source/cache.c's init(), which never touches cache_motion.
	assert.Equal(t, motionBeforeReinit, c.motion)
}

func Test_Init_Preserves_Prior_State_When_Allocation_Fails(t *testing.T) {
	t.Parallel()

	c := New(4096, nil)
	defer c.Destroy()

	c.Set([]byte("k"), []byte("v"), 60)

	failingAllocate := func(int) ([]byte, bool) { return nil, false }

	ok := c.Init(8192, &Options{Allocate: failingAllocate})
	require.False(t, ok)

	// Prior buffer/cursors must be untouched.
	v, _, found := c.Get([]byte("k"))
	require.True(t, found)
	assert.Equal(t, []byte("v"), v)
}

func Test_Destroy_Releases_Buffer(t *testing.T) {
	t.Parallel()

	c := New(1024, nil)
	c.Set([]byte("k"), []byte("v"), 60)

	c.Destroy()

	assert.Nil(t, c.buf)
	assert.Equal(t, uint32(0), c.size)
}

func Test_Stats_Reflects_Cache_State(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(time.Unix(1_700_000_000, 0))

	c := New(4096, &Options{Clock: clock})
	defer c.Destroy()

	c.Set([]byte("k"), []byte("v"), 60)

	got := c.Stats()
	want := Stats{
		Size:      c.size,
		HashSize:  c.hsize,
		Writer:    c.writer,
		Oldest:    c.oldest,
		Unused:    c.unused,
		Motion:    uint64(entryHeaderSize + 1 + 1),
		LastRatio: 0,
		TTL:       TTLStats{Count: 1, Total: 60, Min: 60, Max: 60},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func Test_ComputeHashSize_Bounds_Match_Spec(t *testing.T) {
	t.Parallel()

	for size := uint32(MinCacheSize); size <= 1<<20; size *= 2 {
		hsize := computeHashSize(size)

		assert.LessOrEqual(t, hsize, size/16+1, "hsize must not exceed size/16")
		assert.GreaterOrEqual(t, hsize, uint32(minHashIndexSize))
	}
}

func Test_CheckInvariants_Detects_Violations(t *testing.T) {
	t.Parallel()

	c := New(1024, nil)
	defer c.Destroy()

	require.NoError(t, c.checkInvariants())

	c.oldest = c.writer - 1
	assert.Error(t, c.checkInvariants())
}
