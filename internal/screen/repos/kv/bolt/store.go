// Package bolt implements kv.Store on a single bbolt database file.
package bolt

import (
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/callscreen/internal/screen/repos/kv"
)

var (
	bucketValues    = []byte("values")
	bucketSequences = []byte("sequences")
)

// Options tunes how the database file is opened.
type Options struct {
	// Timeout bounds how long Open waits for the file lock held by another process.
	Timeout time.Duration
}

// boltStore implements kv.Store using bbolt. bbolt serializes read-write
// transactions, which is what makes Update an atomic read-modify-write.
type boltStore struct {
	db *bbolt.DB
}

type bucketCreator interface {
	CreateBucketIfNotExists(name []byte) (*bbolt.Bucket, error)
}

func ensureBuckets(tx bucketCreator) error {
	for _, name := range [][]byte{bucketValues, bucketSequences} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("create bucket %s: %w", name, err)
		}
	}
	return nil
}

// ensureBucketsFn is swapped in tests to exercise bucket creation failures.
var ensureBucketsFn = ensureBuckets

// Open opens (or creates) the database at path and ensures buckets exist.
func Open(path string, opts Options) (kv.Store, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error { return ensureBucketsFn(tx) }); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

func (s *boltStore) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketValues).Get([]byte(key))
		if v != nil {
			// bbolt memory is only valid inside the transaction
			out = append(make([]byte, 0, len(v)), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *boltStore) Put(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketValues).Put([]byte(key), value)
	})
}

// Update must not call back into the store from fn: bbolt allows a single
// writer and a nested Update would block forever.
func (s *boltStore) Update(key string, fn kv.UpdateFunc) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketValues)
		k := []byte(key)
		var cur []byte
		v := b.Get(k)
		if v != nil {
			cur = append(make([]byte, 0, len(v)), v...)
		}
		next, err := fn(cur, v != nil)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return b.Put(k, next)
	})
}

func (s *boltStore) NextSequence(name string) (uint64, error) {
	var n uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketSequences).CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		n, err = b.NextSequence()
		return err
	})
	return n, err
}

var _ kv.Store = (*boltStore)(nil)
