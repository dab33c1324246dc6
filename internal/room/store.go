// internal/room/store.go
package room

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/teamdraw/teamdraw-service/internal/models"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength   = 6
)

// Store owns every live room, keyed by room id, plus the id of the most
// recently created ("active") room. It hands out short uppercase room ids.
type Store struct {
	mu           sync.Mutex
	rooms        map[string]*Room
	activeRoomID string
	rng          *rand.Rand
}

// NewStore initializes an empty store. rng seeds room-id generation.
func NewStore(rng *rand.Rand) *Store {
	return &Store{
		rooms: make(map[string]*Room),
		rng:   rng,
	}
}

// NewRoomID allocates an unused 6-character uppercase token.
func (s *Store) NewRoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		buf := make([]byte, idLength)
		for i := range buf {
			buf[i] = idAlphabet[s.rng.Intn(len(idAlphabet))]
		}
		id := string(buf)
		if _, taken := s.rooms[id]; !taken {
			return id
		}
	}
}

// Add registers a room and marks it as the active (most recent) one.
func (s *Store) Add(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
	s.activeRoomID = r.ID
}

// Get looks up a room by id.
func (s *Store) Get(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete removes a room by id. Deleting the active room leaves the marker
// dangling on purpose: the directory simply shows no active room until the
// next create.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// All returns the current rooms. The slice is a copy; the rooms are shared.
func (s *Store) All() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// ActiveRoomID returns the id of the most recently created room, if it still
// exists.
func (s *Store) ActiveRoomID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[s.activeRoomID]; !ok {
		return "", false
	}
	return s.activeRoomID, true
}

// Directory derives the discovery listing: one entry per live room, newest
// first.
func (s *Store) Directory() []models.RoomInfo {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	active := s.activeRoomID
	s.mu.Unlock()

	out := make([]models.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.Mu.Lock()
		out = append(out, models.RoomInfo{
			RoomID:           r.ID,
			RoomName:         r.Name,
			HostName:         r.HostName,
			ParticipantCount: len(r.Members),
			CreatedAt:        r.CreatedAt.UnixMilli(),
			IsActive:         r.ID == active,
		})
		r.Mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}
