// internal/room/store_test.go
package room

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdraw/teamdraw-service/internal/models"
)

func newTestStore() *Store {
	return NewStore(rand.New(rand.NewSource(1)))
}

func TestNewRoomIDShape(t *testing.T) {
	s := newTestStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := s.NewRoomID()
		require.Len(t, id, idLength)
		for _, c := range id {
			assert.Contains(t, idAlphabet, string(c))
		}
		assert.False(t, seen[id] && func() bool { _, ok := s.Get(id); return ok }(), "allocated id collided with a stored room")
		seen[id] = true
	}
}

func TestStoreActiveRoomTracking(t *testing.T) {
	s := newTestStore()

	r1 := New(s.NewRoomID(), "first", uuid.New(), "alice")
	s.Add(r1)
	r2 := New(s.NewRoomID(), "second", uuid.New(), "bob")
	s.Add(r2)

	active, ok := s.ActiveRoomID()
	require.True(t, ok)
	assert.Equal(t, r2.ID, active)

	s.Delete(r2.ID)
	_, ok = s.ActiveRoomID()
	assert.False(t, ok, "deleted active room must not be reported")

	got, ok := s.Get(r1.ID)
	require.True(t, ok)
	assert.Same(t, r1, got)
}

func TestDirectorySortedNewestFirst(t *testing.T) {
	s := newTestStore()

	r1 := New(s.NewRoomID(), "older", uuid.New(), "alice")
	r1.CreatedAt = time.Now().Add(-time.Minute)
	s.Add(r1)
	r2 := New(s.NewRoomID(), "newer", uuid.New(), "bob")
	s.Add(r2)

	dir := s.Directory()
	require.Len(t, dir, 2)
	assert.Equal(t, "newer", dir[0].RoomName)
	assert.True(t, dir[0].IsActive)
	assert.Equal(t, "older", dir[1].RoomName)
	assert.False(t, dir[1].IsActive)
	assert.Equal(t, 1, dir[0].ParticipantCount)
	assert.Equal(t, "bob", dir[0].HostName)
}

func TestRoomMemberHelpers(t *testing.T) {
	host := uuid.New()
	r := New("ABC123", "test", host, "alice")

	bob := uuid.New()
	r.Mu.Lock()
	defer r.Mu.Unlock()

	r.Members = append(r.Members, models.Member{ConnID: bob, Name: "bob"})

	assert.Equal(t, 1, r.MemberByNameUnsafe("bob", uuid.Nil))
	assert.Equal(t, -1, r.MemberByNameUnsafe("bob", bob), "exclusion must skip the caller's own connection")

	removed, ok := r.RemoveMemberUnsafe(host)
	require.True(t, ok)
	assert.True(t, removed.IsHost)
	require.Len(t, r.Members, 1)

	promoted := r.PromoteHostUnsafe(0)
	assert.Equal(t, "bob", promoted.Name)
	assert.Equal(t, bob, r.HostConnID)
	assert.Equal(t, "bob", r.HostName)
}

func TestIdleUnsafe(t *testing.T) {
	r := New("ABC123", "test", uuid.New(), "alice")
	r.Mu.Lock()
	defer r.Mu.Unlock()

	assert.False(t, r.IdleUnsafe(), "room with a member is not idle")

	r.Members = nil
	assert.True(t, r.IdleUnsafe())

	r.Players = []string{"x"}
	assert.False(t, r.IdleUnsafe(), "player data keeps the room alive")
}
