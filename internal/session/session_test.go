package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get(1)
	assert.False(t, ok)

	s.Put(1, Video{Path: "videos/a.mp4", Duration: 20 * time.Second})
	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "videos/a.mp4", got.Path)
	assert.Equal(t, 20*time.Second, got.Duration)

	// a new download overwrites
	s.Put(1, Video{Path: "videos/b.mp4", Duration: time.Minute})
	got, _ = s.Get(1)
	assert.Equal(t, "videos/b.mp4", got.Path)

	old, ok := s.Delete(1)
	require.True(t, ok)
	assert.Equal(t, "videos/b.mp4", old.Path)

	_, ok = s.Get(1)
	assert.False(t, ok)
	_, ok = s.Delete(1)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreIsolatesChats(t *testing.T) {
	s := NewMemoryStore()
	s.Put(1, Video{Path: "one.mp4"})
	s.Put(2, Video{Path: "two.mp4"})

	s.Delete(1)

	got, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, "two.mp4", got.Path)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup

	for chat := int64(0); chat < 50; chat++ {
		wg.Add(1)
		go func(chat int64) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Put(chat, Video{Path: fmt.Sprintf("%d-%d.mp4", chat, i)})
				if v, ok := s.Get(chat); !ok || v.Path != fmt.Sprintf("%d-%d.mp4", chat, i) {
					t.Errorf("chat %d saw %q", chat, v.Path)
					return
				}
			}
		}(chat)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
