// Package blocked persists the user's block list under the "blocked_numbers" key.
package blocked

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/domain"
	"github.com/haukened/callscreen/internal/screen/repos/kv"
)

const (
	// Key is the persisted key holding the serialized block list.
	Key = "blocked_numbers"
	// sequenceName feeds BlockedNumber.AddedTimestamp.
	sequenceName = "blocked_numbers_added"
	// RevKey holds a counter bumped after every change to the list. A filter
	// built at one revision is not trusted once the counter moves.
	RevKey = "blocked_numbers_rev"
)

// Options configures a Store.
type Options struct {
	KV     kv.Store
	Logger log.Logger
	// Bloom is optional; without it every lookup reads the persisted list.
	Bloom  BloomFactory
	FPRate float64
	// NewID generates entry ids; defaults to random UUIDs.
	NewID func() string
}

// Store manages the block list. Entries are unique by exact number string
// and by id. Reads never fail: missing or corrupt data is an empty list.
type Store struct {
	kv     kv.Store
	logger log.Logger
	newID  func() string

	factory BloomFactory
	fpRate  float64

	mu        sync.RWMutex
	filter    BloomFilter
	filterRev uint64
	loaded    bool
}

// New returns a block-list Store.
func New(opts Options) *Store {
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Store{
		kv:      opts.KV,
		logger:  log.OrNoop(opts.Logger),
		newID:   newID,
		factory: opts.Bloom,
		fpRate:  opts.FPRate,
	}
}

// GetBlockedNumbers returns the list in insertion order.
func (s *Store) GetBlockedNumbers() []domain.BlockedNumber {
	raw, ok, err := s.kv.Get(Key)
	if err != nil {
		s.logger.Warn(map[string]any{"key": Key, "error": err}, "blocked_store_read_failed")
		return []domain.BlockedNumber{}
	}
	return s.decodeOrEmpty(raw, ok)
}

// AddNumber appends number unless an entry with the identical string exists.
// Surrounding whitespace is trimmed and empty input is ignored. It reports
// the entry (new or existing) and whether a new one was created.
func (s *Store) AddNumber(number string) (domain.BlockedNumber, bool, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return domain.BlockedNumber{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The sequence is drawn outside the list update because bolt does not
	// nest write transactions. A duplicate add wastes one value, which only
	// leaves a gap.
	seq, err := s.kv.NextSequence(sequenceName)
	if err != nil {
		return domain.BlockedNumber{}, false, fmt.Errorf("allocate added timestamp: %w", err)
	}

	var (
		entry   domain.BlockedNumber
		created bool
		list    []domain.BlockedNumber
	)
	err = s.kv.Update(Key, func(cur []byte, ok bool) ([]byte, error) {
		list = s.decodeOrEmpty(cur, ok)
		for _, e := range list {
			if e.Number == number {
				entry = e
				return nil, nil
			}
		}
		entry = domain.BlockedNumber{ID: s.uniqueID(list), Number: number, AddedTimestamp: int64(seq)}
		list = append(list, entry)
		created = true
		return encodeList(list)
	})
	if err != nil {
		s.loaded = false
		return domain.BlockedNumber{}, false, fmt.Errorf("add blocked number: %w", err)
	}
	if created {
		s.changedLocked(list)
		s.logger.Debug(map[string]any{"id": entry.ID, "added": entry.AddedTimestamp}, "blocked_number_added")
	}
	return entry, created, nil
}

// RemoveNumber deletes the entry with the given id, reporting whether one existed.
func (s *Store) RemoveNumber(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		removed bool
		list    []domain.BlockedNumber
	)
	err := s.kv.Update(Key, func(cur []byte, ok bool) ([]byte, error) {
		all := s.decodeOrEmpty(cur, ok)
		list = all[:0]
		for _, e := range all {
			if e.ID == id {
				removed = true
				continue
			}
			list = append(list, e)
		}
		if !removed {
			return nil, nil
		}
		return encodeList(list)
	})
	if err != nil {
		s.loaded = false
		return false, fmt.Errorf("remove blocked number: %w", err)
	}
	if removed {
		s.changedLocked(list)
	}
	return removed, nil
}

// ContainsNumber is an exact, unnormalized membership test. It is the
// lookup capability handed to the rule engine and never fails.
func (s *Store) ContainsNumber(number string) bool {
	if f := s.currentFilter(); f != nil && !f.MightContain([]byte(number)) {
		return false
	}
	for _, e := range s.GetBlockedNumbers() {
		if e.Number == number {
			return true
		}
	}
	return false
}

// currentFilter returns the pre-check filter, rebuilding it from the
// persisted list when none is loaded or another writer has moved the
// revision. It returns nil when no factory is configured or storage cannot
// be read; callers then fall back to the full list.
func (s *Store) currentFilter() BloomFilter {
	if s.factory == nil {
		return nil
	}
	rev, err := s.readRev()
	if err != nil {
		s.logger.Warn(map[string]any{"key": RevKey, "error": err}, "blocked_filter_rev_read_failed")
		return nil
	}
	s.mu.RLock()
	f, fresh := s.filter, s.loaded && s.filterRev == rev
	s.mu.RUnlock()
	if fresh {
		return f
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded && s.filterRev == rev {
		return s.filter
	}
	raw, ok, err := s.kv.Get(Key)
	if err != nil {
		// leave the filter unloaded so the next lookup retries
		s.loaded = false
		s.logger.Warn(map[string]any{"key": Key, "error": err}, "blocked_filter_load_failed")
		return nil
	}
	s.rebuildFilterLocked(s.decodeOrEmpty(raw, ok), rev)
	return s.filter
}

// changedLocked records a committed list change: it bumps the persisted
// revision and swaps in a filter for list. Callers hold s.mu for writing.
func (s *Store) changedLocked(list []domain.BlockedNumber) {
	rev, err := s.bumpRev()
	if err != nil {
		// other Stores over the same key space keep their old filter until
		// the next successful bump; this one reloads on its next lookup
		s.loaded = false
		s.logger.Warn(map[string]any{"key": RevKey, "error": err}, "blocked_filter_rev_bump_failed")
		return
	}
	s.rebuildFilterLocked(list, rev)
}

// rebuildFilterLocked swaps in a filter built from list at revision rev.
// Callers hold s.mu for writing, which keeps filter swaps in the same order
// as list writes.
func (s *Store) rebuildFilterLocked(list []domain.BlockedNumber, rev uint64) {
	if s.factory == nil {
		return
	}
	f := s.factory.New(uint64(len(list)), s.fpRate)
	for _, e := range list {
		f.Add([]byte(e.Number))
	}
	s.filter, s.filterRev, s.loaded = f, rev, true
}

// readRev returns the persisted revision; an unset or malformed counter is 0.
func (s *Store) readRev() (uint64, error) {
	raw, ok, err := s.kv.Get(RevKey)
	if err != nil || !ok {
		return 0, err
	}
	rev, perr := strconv.ParseUint(string(raw), 10, 64)
	if perr != nil {
		return 0, nil
	}
	return rev, nil
}

func (s *Store) bumpRev() (uint64, error) {
	var rev uint64
	err := s.kv.Update(RevKey, func(cur []byte, ok bool) ([]byte, error) {
		if ok {
			rev, _ = strconv.ParseUint(string(cur), 10, 64)
		}
		rev++
		return []byte(strconv.FormatUint(rev, 10)), nil
	})
	return rev, err
}

// uniqueID draws ids until one is unused in list. UUID collisions are not
// expected, but a custom generator may repeat.
func (s *Store) uniqueID(list []domain.BlockedNumber) string {
	used := make(map[string]struct{}, len(list))
	for _, e := range list {
		used[e.ID] = struct{}{}
	}
	for {
		id := s.newID()
		if _, dup := used[id]; !dup && id != "" {
			return id
		}
	}
}

func (s *Store) decodeOrEmpty(raw []byte, ok bool) []domain.BlockedNumber {
	if !ok {
		return []domain.BlockedNumber{}
	}
	list, err := decodeList(raw)
	if err != nil {
		s.logger.Warn(map[string]any{"key": Key, "error": err}, "blocked_store_corrupt_using_empty")
		return []domain.BlockedNumber{}
	}
	return list
}

func decodeList(raw []byte) ([]domain.BlockedNumber, error) {
	var list []domain.BlockedNumber
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	if list == nil {
		return nil, errors.New("block list is null")
	}
	return list, nil
}

func encodeList(list []domain.BlockedNumber) ([]byte, error) {
	b, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode block list: %w", err)
	}
	return b, nil
}
