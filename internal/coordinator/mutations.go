// internal/coordinator/mutations.go
package coordinator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teamdraw/teamdraw-service/internal/history"
	"github.com/teamdraw/teamdraw-service/internal/models"
	"github.com/teamdraw/teamdraw-service/internal/room"
	"github.com/teamdraw/teamdraw-service/internal/solver"
)

// hostLocked looks up the room and acquires its mutex with the caller verified
// as host. The caller must unlock rm.Mu when err is nil.
func (co *Coordinator) hostLocked(c *Client, roomID string) (*room.Room, error) {
	rm, ok := co.store.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	rm.Mu.Lock()
	if rm.HostConnID != c.ID {
		rm.Mu.Unlock()
		return nil, ErrNotAuthorized
	}
	return rm, nil
}

// UpdatePlayers replaces the room's player roster.
func (co *Coordinator) UpdatePlayers(c *Client, roomID string, players []string) error {
	rm, err := co.hostLocked(c, roomID)
	if err != nil {
		return err
	}
	rm.Players = append([]string(nil), players...)
	payload := map[string]interface{}{
		"type":    "players_updated",
		"players": rm.Players,
	}
	ids := rm.MemberConnIDsUnsafe()
	rm.Mu.Unlock()

	co.broadcastTo(ids, payload)
	return nil
}

// UpdateTeamConfig replaces the team layout. Capacities must be non-negative
// and names non-empty; full feasibility is checked at assignment time.
func (co *Coordinator) UpdateTeamConfig(c *Client, roomID string, teams []models.TeamSlot) error {
	for _, t := range teams {
		if t.Name == "" || t.Capacity < 0 {
			return ErrInvalidTeamConfig
		}
	}
	rm, err := co.hostLocked(c, roomID)
	if err != nil {
		return err
	}
	rm.TeamConfig = append([]models.TeamSlot(nil), teams...)
	payload := map[string]interface{}{
		"type":  "team_config_updated",
		"teams": rm.TeamConfig,
	}
	ids := rm.MemberConnIDsUnsafe()
	rm.Mu.Unlock()

	co.broadcastTo(ids, payload)
	return nil
}

// UpdateRestrictions replaces both the flat separation pairs and the group
// definitions. Pairs are normalized and deduplicated on the way in.
func (co *Coordinator) UpdateRestrictions(c *Client, roomID string, pairs []models.Restriction, groups []models.RestrictionGroup) error {
	var normalized []models.Restriction
	for _, p := range pairs {
		normalized = models.AddRestrictionPair(normalized, p[0], p[1])
	}
	rm, err := co.hostLocked(c, roomID)
	if err != nil {
		return err
	}
	rm.Restrictions = normalized
	rm.RestrictionGroups = append([]models.RestrictionGroup(nil), groups...)
	payload := map[string]interface{}{
		"type":              "restrictions_updated",
		"restrictions":      rm.Restrictions,
		"restrictionGroups": rm.RestrictionGroups,
	}
	ids := rm.MemberConnIDsUnsafe()
	rm.Mu.Unlock()

	co.broadcastTo(ids, payload)
	return nil
}

// AssignTeams runs the randomized assignment over the room's current state
// and broadcasts the outcome, success or not, to every member. The result is
// stored either way so late joiners see what happened.
func (co *Coordinator) AssignTeams(c *Client, roomID string) error {
	rm, err := co.hostLocked(c, roomID)
	if err != nil {
		return err
	}

	co.rngMu.Lock()
	res := solver.Assign(rm.Players, rm.TeamConfig, rm.Restrictions, co.rng)
	co.rngMu.Unlock()
	rm.Result = &res

	record := history.AssignmentRecord{
		RoomID:       rm.ID,
		RoomName:     rm.Name,
		HostName:     rm.HostName,
		Players:      append([]string(nil), rm.Players...),
		TeamConfig:   append([]models.TeamSlot(nil), rm.TeamConfig...),
		Restrictions: append([]models.Restriction(nil), rm.Restrictions...),
		Success:      res.Success,
		Teams:        res.Teams,
		Message:      res.Message,
		AssignedAt:   time.Now().UnixMilli(),
	}
	payload := map[string]interface{}{
		"type":   "teams_assigned",
		"result": res,
	}
	ids := rm.MemberConnIDsUnsafe()
	rm.Mu.Unlock()

	co.broadcastTo(ids, payload)
	if co.publisher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := co.publisher.Publish(ctx, record); err != nil {
				co.log.Warnf("failed to publish assignment record for room %s: %v", record.RoomID, err)
			}
		}()
	}
	co.log.Infof("room %s assignment: success=%v", roomID, res.Success)
	return nil
}

// ResetResult clears the stored assignment so the host can redraw.
func (co *Coordinator) ResetResult(c *Client, roomID string) error {
	rm, err := co.hostLocked(c, roomID)
	if err != nil {
		return err
	}
	rm.Result = nil
	ids := rm.MemberConnIDsUnsafe()
	rm.Mu.Unlock()

	co.broadcastTo(ids, map[string]interface{}{"type": "result_reset"})
	return nil
}

// EstimateCombinations counts the valid assignments for either the supplied
// proposal or, when players and teams are both absent, the room's current
// state. Any member of the room may ask; the answer goes to the requester
// only.
func (co *Coordinator) EstimateCombinations(c *Client, roomID string, players []string, teams []models.TeamSlot, restrictions []models.Restriction) error {
	rm, ok := co.store.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	rm.Mu.Lock()
	if memberIndex(rm.Members, c.ID) < 0 {
		rm.Mu.Unlock()
		return ErrNotInRoom
	}
	if players == nil && teams == nil {
		players = append([]string(nil), rm.Players...)
		teams = append([]models.TeamSlot(nil), rm.TeamConfig...)
		restrictions = append([]models.Restriction(nil), rm.Restrictions...)
	}
	rm.Mu.Unlock()

	count := solver.EstimateCombinations(players, teams, restrictions)
	c.Write(map[string]interface{}{
		"type":  "combinations_estimated",
		"count": count,
	})
	return nil
}

// DeleteRoom tears the room down on the host's request.
func (co *Coordinator) DeleteRoom(c *Client, roomID string) error {
	rm, err := co.hostLocked(c, roomID)
	if err != nil {
		return err
	}
	name := rm.Name
	ids := rm.MemberConnIDsUnsafe()
	rm.Mu.Unlock()

	co.removeRoom(roomID, name, ids, "deleted by the host")
	return nil
}

// removeRoom deletes the room from the store, notifies its members, clears
// their room bindings, and refreshes the directory.
func (co *Coordinator) removeRoom(roomID, roomName string, memberIDs []uuid.UUID, reason string) {
	co.store.Delete(roomID)

	co.mu.Lock()
	for _, id := range memberIDs {
		if cl, ok := co.clients[id]; ok && cl.RoomID == roomID {
			cl.RoomID = ""
		}
	}
	co.mu.Unlock()

	if len(memberIDs) > 0 {
		co.broadcastTo(memberIDs, map[string]interface{}{
			"type":     "room_deleted",
			"roomId":   roomID,
			"roomName": roomName,
			"message":  "This room has been closed.",
		})
	}
	co.broadcastDirectory()
	co.log.Infof("room %s (%q) removed: %s", roomID, roomName, reason)
}

// Sweep reaps rooms that are idle, past the empty-room grace period, or past
// the maximum lifetime. now is injected for tests.
func (co *Coordinator) Sweep(now time.Time) {
	for _, rm := range co.store.All() {
		rm.Mu.Lock()
		var reason string
		switch {
		case rm.IdleUnsafe():
			reason = "idle with no state"
		case rm.EmptyAt != nil && now.Sub(*rm.EmptyAt) > EmptyRoomGrace:
			reason = "empty past grace period"
		case now.Sub(rm.CreatedAt) > MaxRoomLifetime:
			reason = "exceeded maximum lifetime"
		}
		if reason == "" {
			rm.Mu.Unlock()
			continue
		}
		name := rm.Name
		ids := rm.MemberConnIDsUnsafe()
		rm.Mu.Unlock()

		co.removeRoom(rm.ID, name, ids, reason)
	}
}

// RunReaper sweeps on a fixed interval until ctx is cancelled.
func (co *Coordinator) RunReaper(ctx context.Context) {
	ticker := time.NewTicker(ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			co.Sweep(time.Now())
		}
	}
}
