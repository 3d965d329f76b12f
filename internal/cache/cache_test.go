package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_ExpiresEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache[string, int](func() time.Time { return now })

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)

	_, ok = c.Get("a")
	assert.False(t, ok, "entry should expire exactly at ttl")

	v, ok = c.Get("b")
	assert.True(t, ok, "zero ttl never expires")
	assert.Equal(t, 2, v)
}

func TestTTLCache_DeleteAndPurge(t *testing.T) {
	c := NewTTLCache[string, string]()
	c.Set("x", "1", time.Hour)
	c.Set("y", "2", time.Hour)

	c.Delete("x")
	_, ok := c.Get("x")
	assert.False(t, ok)

	c.Purge()
	_, ok = c.Get("y")
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "pack|2026", Key(" Pack ", "", "2026"))
	assert.Equal(t, "", Key("", "  "))
}
