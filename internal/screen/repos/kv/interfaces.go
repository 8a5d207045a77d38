// Package kv defines the persisted key space shared by the rule, block-list
// and preference stores.
package kv

// UpdateFunc receives the current value of a key (ok=false when unset) and
// returns the value to write. Returning a nil slice leaves the key untouched.
type UpdateFunc func(current []byte, ok bool) ([]byte, error)

// Store is a small string-keyed byte store that persists across restarts.
//
// Update runs fn and the write it produces atomically with respect to every
// other Update/Put on the store, so read-modify-write callers cannot lose
// updates. NextSequence returns strictly increasing values per name, also
// persisted.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
	Update(key string, fn UpdateFunc) error
	NextSequence(name string) (uint64, error)
	Close() error
}
