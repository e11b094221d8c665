package wire

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

// TestUint64KeyOrdering checks that byte order matches numeric order
func TestUint64KeyOrdering(t *testing.T) {
	values := []uint64{0, 1, 255, 256, 65535, 1 << 32, math.MaxUint64 - 1, math.MaxUint64}

	for i := 0; i < len(values); i++ {
		for j := 0; j < len(values); j++ {
			a, b := values[i], values[j]
			got := CompareKeys(EncodeUint64Key(a), EncodeUint64Key(b))
			want := 0
			if a < b {
				want = -1
			} else if a > b {
				want = 1
			}
			if got != want {
				t.Errorf("CompareKeys(%d, %d) = %d, want %d", a, b, got, want)
			}
		}
	}
}

// TestKeyOrderingRandom sorts random values by their encoded keys
func TestKeyOrderingRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	values := make([]uint32, 500)
	keys := make([][]byte, len(values))
	for i := range values {
		values[i] = rnd.Uint32()
		keys[i] = EncodeUint32Key(values[i])
	}

	sort.Slice(keys, func(i, j int) bool { return CompareKeys(keys[i], keys[j]) < 0 })
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	for i := range keys {
		v, err := DecodeUint32Key(keys[i])
		if err != nil {
			t.Fatal(err)
		}
		if v != values[i] {
			t.Fatalf("Position %d: key order gives %d, numeric order gives %d", i, v, values[i])
		}
	}
}

// TestInt64KeyOrdering puts negative values before positive ones
func TestInt64KeyOrdering(t *testing.T) {
	values := []int64{math.MinInt64, -1000, -1, 0, 1, 1000, math.MaxInt64}

	for i := 1; i < len(values); i++ {
		prev, cur := EncodeInt64Key(values[i-1]), EncodeInt64Key(values[i])
		if CompareKeys(prev, cur) >= 0 {
			t.Errorf("Expected key(%d) < key(%d)", values[i-1], values[i])
		}
		back, err := DecodeInt64Key(cur)
		if err != nil || back != values[i] {
			t.Errorf("Decode(%d) = %d, %v", values[i], back, err)
		}
	}
}

// TestDecodeKeyWrongWidth rejects keys that are not fixed width
func TestDecodeKeyWrongWidth(t *testing.T) {
	if _, err := DecodeUint64Key([]byte{1, 2, 3}); err == nil {
		t.Error("Expected error for short uint64 key")
	}
	if _, err := DecodeUint32Key([]byte{1, 2, 3, 4, 5}); err == nil {
		t.Error("Expected error for long uint32 key")
	}
}
