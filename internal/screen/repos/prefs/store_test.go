package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/repos/kv"
)

// countingKV counts writes that reach the backing store.
type countingKV struct {
	kv.Store
	writes int
}

func (c *countingKV) Put(key string, v []byte) error {
	c.writes++
	return c.Store.Put(key, v)
}

func (c *countingKV) Update(key string, fn kv.UpdateFunc) error {
	return c.Store.Update(key, func(cur []byte, ok bool) ([]byte, error) {
		next, err := fn(cur, ok)
		if next != nil {
			c.writes++
		}
		return next, err
	})
}

func TestDefaultsAreFalse(t *testing.T) {
	s := New(kv.NewMemory(), log.NewNoopLogger())
	assert.Equal(t, Snapshot{}, s.Snapshot())
}

func TestNotificationsToggle(t *testing.T) {
	s := New(kv.NewMemory(), nil)
	require.NoError(t, s.SetNotificationsEnabled(true))
	assert.True(t, s.NotificationsEnabled())
	require.NoError(t, s.SetNotificationsEnabled(false))
	assert.False(t, s.NotificationsEnabled())
}

func TestLatches(t *testing.T) {
	backing := &countingKV{Store: kv.NewMemory()}
	s := New(backing, log.NewNoopLogger())

	require.NoError(t, s.MarkServiceInvoked())
	require.NoError(t, s.MarkServiceInvoked())
	require.NoError(t, s.MarkServiceInvoked())
	assert.True(t, s.ServiceEverInvoked())
	assert.Equal(t, 1, backing.writes, "latch writes once")

	require.NoError(t, s.CompleteOnboarding())
	assert.True(t, s.OnboardingCompleted())
	assert.Equal(t, Snapshot{OnboardingCompleted: true, ServiceEverInvoked: true}, s.Snapshot())
}

func TestUnreadableValuesAreFalse(t *testing.T) {
	backing := kv.NewMemory()
	require.NoError(t, backing.Put(KeyNotificationsEnabled, []byte("yes please")))
	require.NoError(t, backing.Put(KeyServiceEverInvoked, []byte{0xff}))
	s := New(backing, log.NewNoopLogger())

	assert.False(t, s.NotificationsEnabled())
	assert.False(t, s.ServiceEverInvoked())

	// latching over garbage repairs the value
	require.NoError(t, s.MarkServiceInvoked())
	assert.True(t, s.ServiceEverInvoked())
}
