package ringcache

import "testing"

func Test_ComputeHashSize_Returns_Largest_Power_Of_Two_Within_Size_Over_32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		size uint32
		want uint32
	}{
		{size: 100, want: 4},
		{size: 1024, want: 32},
		{size: 200, want: 4},
		{size: 4096, want: 128},
		{size: 1_000_000_000, want: 1 << 24},
	}

	for _, tt := range tests {
		got := computeHashSize(tt.size)
		if got != tt.want {
			t.Errorf("computeHashSize(%d) = %d, want %d", tt.size, got, tt.want)
		}

		if got&(got-1) != 0 {
			t.Errorf("computeHashSize(%d) = %d, not a power of two", tt.size, got)
		}
	}
}

func Test_Hash_Is_Deterministic_And_Bounded_By_HashIndexSize(t *testing.T) {
	t.Parallel()

	c := New(4096, nil)
	defer c.Destroy()

	keys := [][]byte{[]byte("a"), []byte("example.com"), []byte(""), []byte("\x00\x01\x02")}

	for _, k := range keys {
		h1 := c.hash(k)
		h2 := c.hash(k)

		if h1 != h2 {
			t.Fatalf("hash(%q) not deterministic: %d != %d", k, h1, h2)
		}

		if h1 >= c.hsize {
			t.Fatalf("hash(%q) = %d out of bounds for hsize %d", k, h1, c.hsize)
		}

		if h1%4 != 0 {
			t.Fatalf("hash(%q) = %d not 4-byte aligned", k, h1)
		}
	}
}

func Test_Get4Set4_RoundTrips(t *testing.T) {
	t.Parallel()

	c := New(1024, nil)
	defer c.Destroy()

	c.set4(100, 0xDEADBEEF)

	if got := c.get4(100); got != 0xDEADBEEF {
		t.Fatalf("get4(100) = %#x, want 0xDEADBEEF", got)
	}
}

func Test_Get8Set8_RoundTrips(t *testing.T) {
	t.Parallel()

	c := New(1024, nil)
	defer c.Destroy()

	const v = uint64(1<<63) + 12345

	c.set8(200, v)

	if got := c.get8(200); got != v {
		t.Fatalf("get8(200) = %d, want %d", got, v)
	}
}

func Test_Get4_Fatal_On_Out_Of_Bounds_Offset(t *testing.T) {
	t.Parallel()

	c := New(100, nil)
	defer c.Destroy()

	withFatalCapture(t, func() {
		c.get4(c.size - 1)
	})
}
