package blocked

// BloomFilter is the membership pre-check placed in front of ContainsNumber.
// A false from MightContain is definitive; true still requires an exact check.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds a filter sized for capacity entries at the target
// false-positive rate.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}
