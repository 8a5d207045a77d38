package engine

import (
	"regexp"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// compiled is a cached compile outcome; re is nil when the pattern is invalid,
// so bad patterns are not recompiled on every call either.
type compiled struct {
	re *regexp.Regexp
}

// PatternStats reports cache counters since construction.
type PatternStats struct {
	Capacity  int
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// patternCache memoizes regexp compilation by pattern text. A capacity of
// zero or less disables caching.
type patternCache struct {
	lru       *lru.Cache[string, compiled]
	capacity  int
	hits      uint64
	misses    uint64
	evictions uint64
}

func newPatternCache(capacity int) (*patternCache, error) {
	pc := &patternCache{capacity: capacity}
	if capacity <= 0 {
		pc.capacity = 0
		return pc, nil
	}
	c, err := lru.NewWithEvict(capacity, func(string, compiled) {
		atomic.AddUint64(&pc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	pc.lru = c
	return pc, nil
}

// compile returns the compiled pattern, or nil when it does not compile.
func (pc *patternCache) compile(pattern string) *regexp.Regexp {
	if pc.lru != nil {
		if c, ok := pc.lru.Get(pattern); ok {
			atomic.AddUint64(&pc.hits, 1)
			return c.re
		}
	}
	atomic.AddUint64(&pc.misses, 1)
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	if pc.lru != nil {
		pc.lru.Add(pattern, compiled{re: re})
	}
	return re
}

func (pc *patternCache) stats() PatternStats {
	st := PatternStats{
		Capacity:  pc.capacity,
		Hits:      atomic.LoadUint64(&pc.hits),
		Misses:    atomic.LoadUint64(&pc.misses),
		Evictions: atomic.LoadUint64(&pc.evictions),
	}
	if pc.lru != nil {
		st.Size = pc.lru.Len()
	}
	return st
}
