// Package session keeps the active video of every chat in memory.
package session

import (
	"sync"
	"time"
)

// Video is the downloaded file a chat is currently clipping from.
type Video struct {
	Path     string
	Duration time.Duration
}

// Store maps chat identifiers to their active video.
// Implementations must be safe for concurrent use across distinct chats.
type Store interface {
	Get(chatID int64) (Video, bool)
	Put(chatID int64, video Video)
	Delete(chatID int64) (Video, bool)
}

type slot struct {
	mu    sync.Mutex
	video *Video
}

// MemoryStore is a process-lifetime Store. Each chat owns a slot with its
// own mutex, so unrelated chats never contend on a shared lock.
type MemoryStore struct {
	slots sync.Map // map[int64]*slot
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) slot(chatID int64) *slot {
	if v, ok := s.slots.Load(chatID); ok {
		return v.(*slot)
	}
	v, _ := s.slots.LoadOrStore(chatID, &slot{})
	return v.(*slot)
}

// Get returns the chat's video, if any
func (s *MemoryStore) Get(chatID int64) (Video, bool) {
	v, ok := s.slots.Load(chatID)
	if !ok {
		return Video{}, false
	}
	sl := v.(*slot)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.video == nil {
		return Video{}, false
	}
	return *sl.video, true
}

// Put creates or overwrites the chat's video
func (s *MemoryStore) Put(chatID int64, video Video) {
	sl := s.slot(chatID)
	sl.mu.Lock()
	sl.video = &video
	sl.mu.Unlock()
}

// Delete removes the chat's video and returns what was stored.
func (s *MemoryStore) Delete(chatID int64) (Video, bool) {
	v, ok := s.slots.Load(chatID)
	if !ok {
		return Video{}, false
	}
	sl := v.(*slot)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.video == nil {
		return Video{}, false
	}
	old := *sl.video
	sl.video = nil
	return old, true
}

// Len counts chats that currently hold a video.
func (s *MemoryStore) Len() int {
	n := 0
	s.slots.Range(func(_, v any) bool {
		sl := v.(*slot)
		sl.mu.Lock()
		if sl.video != nil {
			n++
		}
		sl.mu.Unlock()
		return true
	})
	return n
}
