// Package bloom adapts bits-and-blooms filters to the block-list pre-check.
package bloom

import (
	"math"
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/callscreen/internal/screen/repos/blocked"
)

// defaultFPRate applies when the caller passes a rate outside (0, 1).
const defaultFPRate = 0.01

// minCapacity keeps small lists from producing degenerate filters that
// saturate after a handful of inserts.
const minCapacity = 64

type factory struct{}

// NewFactory returns a BloomFactory backed by bits-and-blooms.
func NewFactory() blocked.BloomFactory { return factory{} }

func (factory) New(capacity uint64, fpRate float64) blocked.BloomFilter {
	m, k := Size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}

// Size returns the bit count m and hash count k for n entries at false
// positive rate p:
//
//	m = -n*ln(p) / (ln 2)^2
//	k = (m/n) * ln 2
func Size(n uint64, p float64) (uint64, uint8) {
	if n < minCapacity {
		n = minCapacity
	}
	if !(p > 0 && p < 1) {
		p = defaultFPRate
	}
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
	if m == 0 {
		m = 1
	}
	k := math.Round(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	if k > math.MaxUint8 {
		k = math.MaxUint8
	}
	return m, uint8(k)
}

// filter guards the underlying filter; bits-and-blooms is not safe for
// concurrent Add and Test.
type filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) {
	f.mu.Lock()
	f.bf.Add(key)
	f.mu.Unlock()
}

func (f *filter) MightContain(key []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.Test(key)
}

var _ blocked.BloomFilter = (*filter)(nil)
