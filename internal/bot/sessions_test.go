package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionPutTake(t *testing.T) {
	s := newSessionStore()
	s.Put(1, 42, "sell_price")

	edit, ok := s.Take(1)
	assert.True(t, ok)
	assert.Equal(t, int64(42), edit.itemID)
	assert.Equal(t, "sell_price", edit.field)

	_, ok = s.Take(1)
	assert.False(t, ok, "a pending edit is consumed by the first Take")
}

func TestSessionReplacesPrevious(t *testing.T) {
	s := newSessionStore()
	s.Put(1, 42, "sell_price")
	s.Put(1, 43, "category")

	edit, ok := s.Take(1)
	assert.True(t, ok)
	assert.Equal(t, int64(43), edit.itemID)
	assert.Equal(t, "category", edit.field)
}

func TestSessionExpires(t *testing.T) {
	s := newSessionStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	s.Put(1, 42, "sell_price")

	s.now = func() time.Time { return now.Add(sessionTTL + time.Second) }
	_, ok := s.Take(1)
	assert.False(t, ok)
}

func TestSessionPerUserIsolation(t *testing.T) {
	s := newSessionStore()
	s.Put(1, 42, "sell_price")

	_, ok := s.Take(2)
	assert.False(t, ok)

	_, ok = s.Take(1)
	assert.True(t, ok)
}
