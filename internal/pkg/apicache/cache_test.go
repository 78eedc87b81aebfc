package apicache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "folder_by_name:p1:docs", Key("folder_by_name", "p1", "docs"))
}

func TestGetReturnsStoredValue(t *testing.T) {
	c := New()
	c.Set("k", 42)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Get("absent")
	assert.False(t, ok)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(WithClock(fc))
	c.Set("k", "v")

	fc.Advance(DefaultTTL - time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry just under the TTL is still valid")

	fc.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestExpiredEntryEvictedOnGet(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(WithClock(fc))
	c.Set("k", "v")

	fc.Advance(DefaultTTL)
	assert.Equal(t, 1, c.Len(), "eviction is lazy, not scheduled")

	c.Get("k")
	assert.Zero(t, c.Len())
}

func TestSetRefreshesTimestamp(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(WithClock(fc))
	c.Set("k", 1)

	fc.Advance(DefaultTTL - time.Minute)
	c.Set("k", 2)

	fc.Advance(2 * time.Minute)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCustomTTL(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(WithClock(fc), WithTTL(time.Minute))
	c.Set("k", "v")

	fc.Advance(time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	c.Set("a", 1)
	c.Set("b", 2)

	c.Remove("a")
	c.Remove("a") // absent key is a no-op
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
}
