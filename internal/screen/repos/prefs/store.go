// Package prefs persists the boolean user preferences and one-way latches.
package prefs

import (
	"fmt"
	"strconv"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/repos/kv"
)

// Persisted preference keys.
const (
	KeyNotificationsEnabled = "notifications_enabled"
	KeyOnboardingCompleted  = "onboarding_completed"
	KeyServiceEverInvoked   = "service_ever_invoked"
)

// Store reads and writes preference flags. Every flag defaults to false;
// an unreadable value is also false.
type Store struct {
	kv     kv.Store
	logger log.Logger
}

// Snapshot is a point-in-time view of every flag.
type Snapshot struct {
	NotificationsEnabled bool
	OnboardingCompleted  bool
	ServiceEverInvoked   bool
}

// New returns a preferences Store over the given key space.
func New(store kv.Store, logger log.Logger) *Store {
	return &Store{kv: store, logger: log.OrNoop(logger)}
}

// NotificationsEnabled reports whether a blocked call posts a notification.
func (s *Store) NotificationsEnabled() bool { return s.getBool(KeyNotificationsEnabled) }

// SetNotificationsEnabled toggles the block notification freely.
func (s *Store) SetNotificationsEnabled(enabled bool) error {
	return s.putBool(KeyNotificationsEnabled, enabled)
}

// OnboardingCompleted reports the onboarding latch.
func (s *Store) OnboardingCompleted() bool { return s.getBool(KeyOnboardingCompleted) }

// CompleteOnboarding latches the onboarding flag. It is never cleared.
func (s *Store) CompleteOnboarding() error { return s.latch(KeyOnboardingCompleted) }

// ServiceEverInvoked reports whether screening has ever run.
func (s *Store) ServiceEverInvoked() bool { return s.getBool(KeyServiceEverInvoked) }

// MarkServiceInvoked latches the "screening entry point has fired" flag.
// Repeated calls after the first do not write.
func (s *Store) MarkServiceInvoked() error { return s.latch(KeyServiceEverInvoked) }

// Snapshot reads all flags.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		NotificationsEnabled: s.NotificationsEnabled(),
		OnboardingCompleted:  s.OnboardingCompleted(),
		ServiceEverInvoked:   s.ServiceEverInvoked(),
	}
}

func (s *Store) getBool(key string) bool {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		s.logger.Warn(map[string]any{"key": key, "error": err}, "pref_read_failed")
		return false
	}
	if !ok {
		return false
	}
	v, err := strconv.ParseBool(string(raw))
	if err != nil {
		s.logger.Debug(map[string]any{"key": key}, "pref_unreadable_using_false")
		return false
	}
	return v
}

func (s *Store) putBool(key string, v bool) error {
	if err := s.kv.Put(key, []byte(strconv.FormatBool(v))); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) latch(key string) error {
	err := s.kv.Update(key, func(cur []byte, ok bool) ([]byte, error) {
		if ok {
			if v, err := strconv.ParseBool(string(cur)); err == nil && v {
				return nil, nil
			}
		}
		return []byte(strconv.FormatBool(true)), nil
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
