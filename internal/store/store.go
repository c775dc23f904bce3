package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/frenemies/battle-relay/internal/domain"
)

// ErrRoomNotFound is returned by RoomStats for rooms that have never been
// created.
var ErrRoomNotFound = errors.New("room not found")

type room struct {
	members  map[string]struct{}
	history  []domain.Message
	appended int
}

// RoomStore owns room existence, membership sets, and bounded message
// history. Rooms are created implicitly on first join or first message and
// persist for the process lifetime, even when empty, so history stays
// queryable. A single RWMutex serializes membership mutations and history
// appends; member snapshots are taken under the same lock so broadcasts
// always see a set that existed at one consistent instant.
type RoomStore struct {
	mu           sync.RWMutex
	rooms        map[string]*room
	historyLimit int
}

// New creates a RoomStore capping each room's history at historyLimit
// messages (oldest trimmed first). Non-positive limits fall back to 1000.
func New(historyLimit int) *RoomStore {
	if historyLimit <= 0 {
		historyLimit = 1000
	}
	return &RoomStore{
		rooms:        make(map[string]*room),
		historyLimit: historyLimit,
	}
}

func (s *RoomStore) ensureRoomLocked(roomID string) *room {
	rm, ok := s.rooms[roomID]
	if !ok {
		rm = &room{members: make(map[string]struct{})}
		s.rooms[roomID] = rm
	}
	return rm
}

// EnsureRoom creates an empty room if absent. Idempotent.
func (s *RoomStore) EnsureRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRoomLocked(roomID)
}

// Join adds connID to the room's member set, creating the room if needed.
// Joining twice has no additional effect.
func (s *RoomStore) Join(roomID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm := s.ensureRoomLocked(roomID)
	rm.members[connID] = struct{}{}
}

// Leave removes connID from the member set. No-op if the room or the
// member is absent. The room itself is never deleted.
func (s *RoomStore) Leave(roomID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rm, ok := s.rooms[roomID]; ok {
		delete(rm.members, connID)
	}
}

// Append adds msg to the room's history, creating the room if needed, and
// returns the message as stored. When msg.ID is empty the store assigns
// one from the append position and a nanosecond timestamp; positions never
// repeat within a room because appends are serialized by the store lock.
// History beyond the cap is trimmed oldest-first.
func (s *RoomStore) Append(roomID string, msg domain.Message) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm := s.ensureRoomLocked(roomID)
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("%d_%d", rm.appended, time.Now().UnixNano())
	}
	rm.appended++
	rm.history = append(rm.history, msg)
	if len(rm.history) > s.historyLimit {
		rm.history = rm.history[len(rm.history)-s.historyLimit:]
	}
	return msg
}

// RecentMessages returns the last limit messages in chronological order,
// or all of them if fewer exist. Empty for unknown rooms.
func (s *RoomStore) RecentMessages(roomID string, limit int) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return []domain.Message{}
	}
	start := 0
	if limit > 0 && len(rm.history) > limit {
		start = len(rm.history) - limit
	}
	out := make([]domain.Message, len(rm.history)-start)
	copy(out, rm.history[start:])
	return out
}

// Members returns a snapshot of the room's member set. Empty for unknown
// rooms.
func (s *RoomStore) Members(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(rm.members))
	for id := range rm.members {
		out = append(out, id)
	}
	return out
}

// ListRooms returns every room id created so far, sorted for stable output.
func (s *RoomStore) ListRooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RoomStats returns the retained message count, or ErrRoomNotFound if the
// room has never been created.
func (s *RoomStore) RoomStats(roomID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return 0, ErrRoomNotFound
	}
	return len(rm.history), nil
}

// RoomCount returns how many rooms exist.
func (s *RoomStore) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// TotalMessages sums the retained history across all rooms.
func (s *RoomStore) TotalMessages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, rm := range s.rooms {
		total += len(rm.history)
	}
	return total
}
