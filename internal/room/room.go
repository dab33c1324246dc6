// internal/room/room.go
package room

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teamdraw/teamdraw-service/internal/models"
)

// Room is the mutable record for one drawing session. All fields are guarded
// by Mu; callers take the lock, mutate, build any payloads they need, then
// release before broadcasting. Methods with an Unsafe suffix assume the lock
// is held.
type Room struct {
	Mu sync.Mutex

	ID         string
	Name       string
	HostConnID uuid.UUID
	HostName   string

	// Members are live connections in join order. At most one has IsHost set.
	Members []models.Member

	Players           []string
	TeamConfig        []models.TeamSlot
	Restrictions      []models.Restriction
	RestrictionGroups []models.RestrictionGroup
	Result            *models.AssignmentResult

	CreatedAt time.Time
	// EmptyAt is set when the last member disconnects and cleared on the next
	// join. Nil while anyone is connected.
	EmptyAt *time.Time
}

// New creates a room with its host as the sole member.
func New(id, name string, hostConnID uuid.UUID, hostName string) *Room {
	return &Room{
		ID:         id,
		Name:       name,
		HostConnID: hostConnID,
		HostName:   hostName,
		Members: []models.Member{
			{ConnID: hostConnID, Name: hostName, IsHost: true},
		},
		CreatedAt: time.Now(),
	}
}

// MemberByNameUnsafe returns the index of the member with the given display
// name, excluding the given connection id, or -1.
func (r *Room) MemberByNameUnsafe(name string, excludeConn uuid.UUID) int {
	for i, m := range r.Members {
		if m.Name == name && m.ConnID != excludeConn {
			return i
		}
	}
	return -1
}

// RemoveMemberUnsafe drops the member with the given connection id,
// preserving join order. Returns the removed member and whether it existed.
func (r *Room) RemoveMemberUnsafe(connID uuid.UUID) (models.Member, bool) {
	for i, m := range r.Members {
		if m.ConnID == connID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return m, true
		}
	}
	return models.Member{}, false
}

// PromoteHostUnsafe makes the member at index i the host and updates the
// room's host fields.
func (r *Room) PromoteHostUnsafe(i int) models.Member {
	r.Members[i].IsHost = true
	r.HostConnID = r.Members[i].ConnID
	r.HostName = r.Members[i].Name
	return r.Members[i]
}

// MembersSnapshotUnsafe copies the member list for a payload.
func (r *Room) MembersSnapshotUnsafe() []models.Member {
	out := make([]models.Member, len(r.Members))
	copy(out, r.Members)
	return out
}

// MemberConnIDsUnsafe lists the connection ids of all current members, for
// room-scoped broadcast fan-out after the lock is released.
func (r *Room) MemberConnIDsUnsafe() []uuid.UUID {
	out := make([]uuid.UUID, len(r.Members))
	for i, m := range r.Members {
		out[i] = m.ConnID
	}
	return out
}

// SessionSnapshotUnsafe bundles the constraint model and last result the way
// clients receive it on create/join.
func (r *Room) SessionSnapshotUnsafe() map[string]interface{} {
	players := make([]string, len(r.Players))
	copy(players, r.Players)
	teams := make([]models.TeamSlot, len(r.TeamConfig))
	copy(teams, r.TeamConfig)
	restrictions := make([]models.Restriction, len(r.Restrictions))
	copy(restrictions, r.Restrictions)
	groups := make([]models.RestrictionGroup, len(r.RestrictionGroups))
	copy(groups, r.RestrictionGroups)

	return map[string]interface{}{
		"players":           players,
		"teamConfig":        teams,
		"restrictions":      restrictions,
		"restrictionGroups": groups,
		"result":            r.Result,
	}
}

// IdleUnsafe reports whether the room has no members, no players, and never
// produced a result; such rooms are deleted immediately rather than waiting
// out the empty-room grace period.
func (r *Room) IdleUnsafe() bool {
	return len(r.Members) == 0 && len(r.Players) == 0 && r.Result == nil
}
