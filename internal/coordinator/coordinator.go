// internal/coordinator/coordinator.go
//
// The coordinator is the single authority over rooms: it authorizes inbound
// requests, mutates the store, and fans results out to room members. Requests
// for the same room serialize on the room mutex; different rooms proceed
// independently.
package coordinator

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/teamdraw/teamdraw-service/internal/history"
	"github.com/teamdraw/teamdraw-service/internal/models"
	"github.com/teamdraw/teamdraw-service/internal/room"
)

const (
	MaxNicknameLen = 20
	MaxRoomNameLen = 30

	// EmptyRoomGrace is how long a memberless room with player data survives.
	EmptyRoomGrace = 30 * time.Minute
	// MaxRoomLifetime bounds any room's age regardless of activity.
	MaxRoomLifetime = time.Hour
	// ReapInterval is the sweep cadence.
	ReapInterval = 5 * time.Minute
)

// Coordinator owns the client registry and the room store.
type Coordinator struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*Client

	store *room.Store

	rngMu sync.Mutex
	rng   *rand.Rand

	log       *logrus.Logger
	publisher *history.Publisher // nil when history is disabled
}

// New builds a coordinator around the given store. publisher may be nil.
func New(store *room.Store, rng *rand.Rand, logger *logrus.Logger, publisher *history.Publisher) *Coordinator {
	return &Coordinator{
		clients:   make(map[uuid.UUID]*Client),
		store:     store,
		rng:       rng,
		log:       logger,
		publisher: publisher,
	}
}

// Register records a live connection. If the same client id is already
// registered (a reconnect racing its predecessor), the old connection is
// cancelled and superseded; any room membership under that id carries over to
// the new connection untouched.
func (co *Coordinator) Register(id uuid.UUID, cancel context.CancelFunc) *Client {
	c := &Client{
		ID:      id,
		OutChan: make(chan map[string]interface{}, 16),
		Cancel:  cancel,
		log:     co.log,
	}

	co.mu.Lock()
	old := co.clients[id]
	co.clients[id] = c
	if old != nil {
		c.Name = old.Name
		c.RoomID = old.RoomID
	}
	co.mu.Unlock()

	if old != nil {
		co.log.Infof("client %s superseded by a new connection", id)
		if old.Cancel != nil {
			old.Cancel()
		}
	}
	return c
}

// Disconnect removes the connection and runs the departure lifecycle for its
// room, if any. A superseded connection (see Register) is dropped without
// touching room state.
func (co *Coordinator) Disconnect(c *Client) {
	co.mu.Lock()
	current := co.clients[c.ID] == c
	if current {
		delete(co.clients, c.ID)
	}
	co.mu.Unlock()

	if !current {
		return
	}
	co.log.Infof("client %s (%s) disconnected", c.ID, c.Name)
	co.detach(c)
}

// CreateRoom validates the host's nickname and room name, allocates a room
// with the caller as host, and announces the updated directory to everyone.
func (co *Coordinator) CreateRoom(c *Client, userName, roomName string) error {
	hostName, err := validNickname(userName)
	if err != nil {
		return err
	}
	roomName = strings.TrimSpace(roomName)
	if roomName == "" || utf8.RuneCountInString(roomName) > MaxRoomNameLen {
		return ErrInvalidRoomName
	}
	if co.nameActiveElsewhere(hostName, c.ID) {
		return ErrNameAlreadyActive
	}

	// A connection that was already sitting in a room leaves it first.
	co.detach(c)

	rm := room.New(co.store.NewRoomID(), roomName, c.ID, hostName)
	co.store.Add(rm)

	co.mu.Lock()
	c.Name = hostName
	c.RoomID = rm.ID
	co.mu.Unlock()

	rm.Mu.Lock()
	payload := map[string]interface{}{
		"type":     "room_created",
		"roomId":   rm.ID,
		"roomName": rm.Name,
		"userName": hostName,
		"hostName": rm.HostName,
		"members":  rm.MembersSnapshotUnsafe(),
		"session":  rm.SessionSnapshotUnsafe(),
	}
	rm.Mu.Unlock()

	c.Write(payload)
	co.broadcastDirectory()
	co.log.Infof("room %s (%q) created by host %s", rm.ID, rm.Name, hostName)
	return nil
}

// JoinRoom connects the caller to an existing room. A display name matching a
// previously-registered member whose connection is gone inherits that
// member's entry (including host status); a name colliding with a connected
// member is rejected.
func (co *Coordinator) JoinRoom(c *Client, roomID, userName string) error {
	name, err := validNickname(userName)
	if err != nil {
		return err
	}
	rm, ok := co.store.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	// Reject a live name collision before detaching, so a failed join leaves
	// the caller's current membership untouched.
	live := co.liveConnIDs()
	rm.Mu.Lock()
	if i := rm.MemberByNameUnsafe(name, c.ID); i >= 0 && live[rm.Members[i].ConnID] {
		rm.Mu.Unlock()
		return ErrNameAlreadyActive
	}
	rm.Mu.Unlock()

	if prior := co.RoomOf(c); prior != "" && prior != roomID {
		co.detach(c)
	}

	// Refresh the registry snapshot: the detach above may have changed it.
	// Liveness of prior member entries is judged against the registry, not
	// the member list: an entry whose connection id is no longer registered
	// belongs to a dropped connection and may be reclaimed by name.
	live = co.liveConnIDs()

	hostRestored := false

	rm.Mu.Lock()
	if i := rm.MemberByNameUnsafe(name, c.ID); i >= 0 {
		prior := rm.Members[i]
		if live[prior.ConnID] {
			rm.Mu.Unlock()
			return ErrNameAlreadyActive
		}
		// Reclaim the dropped member's seat under the new connection id.
		rm.Members[i].ConnID = c.ID
		if prior.IsHost {
			rm.HostConnID = c.ID
			rm.HostName = name
			hostRestored = true
		}
	} else if i := memberIndex(rm.Members, c.ID); i >= 0 {
		// Same connection id rejoining (stable client identity), possibly
		// under a new display name.
		rm.Members[i].Name = name
		if rm.Members[i].IsHost {
			rm.HostName = name
			hostRestored = true
		}
	} else if rm.HostName == name && memberIndex(rm.Members, rm.HostConnID) < 0 {
		// The departed host returns by nickname before anyone was promoted.
		rm.Members = append(rm.Members, models.Member{ConnID: c.ID, Name: name, IsHost: true})
		rm.HostConnID = c.ID
		hostRestored = true
	} else {
		rm.Members = append(rm.Members, models.Member{ConnID: c.ID, Name: name})
	}

	if rm.EmptyAt != nil {
		rm.EmptyAt = nil
		co.log.Infof("room %s idle timer reset by %s", rm.ID, name)
	}

	isHost := rm.HostConnID == c.ID
	joined := map[string]interface{}{
		"type":     "room_joined",
		"roomId":   rm.ID,
		"isHost":   isHost,
		"userName": name,
		"roomName": rm.Name,
		"hostName": rm.HostName,
		"members":  rm.MembersSnapshotUnsafe(),
		"session":  rm.SessionSnapshotUnsafe(),
	}
	membersUpdated := map[string]interface{}{
		"type":    "members_updated",
		"members": rm.MembersSnapshotUnsafe(),
	}
	var restored map[string]interface{}
	if hostRestored {
		restored = map[string]interface{}{
			"type":        "host_changed",
			"newHostId":   c.ID.String(),
			"newHostName": name,
			"message":     name + " reclaimed the host role.",
		}
	}
	ids := rm.MemberConnIDsUnsafe()
	rm.Mu.Unlock()

	co.mu.Lock()
	c.Name = name
	c.RoomID = roomID
	co.mu.Unlock()

	c.Write(joined)
	co.broadcastTo(ids, membersUpdated)
	if restored != nil {
		co.broadcastTo(ids, restored)
	}
	co.broadcastDirectory()
	co.log.Infof("%s joined room %s (host=%v)", name, roomID, isHost)
	return nil
}

// AutoJoin joins the most recently created room, for clients that landed
// without picking one.
func (co *Coordinator) AutoJoin(c *Client, userName string) error {
	id, ok := co.store.ActiveRoomID()
	if !ok {
		// Fall back to the newest surviving room.
		newest := ""
		var newestAt time.Time
		for _, rm := range co.store.All() {
			rm.Mu.Lock()
			if newest == "" || rm.CreatedAt.After(newestAt) {
				newest, newestAt = rm.ID, rm.CreatedAt
			}
			rm.Mu.Unlock()
		}
		if newest == "" {
			return ErrNoActiveRoom
		}
		id = newest
	}
	return co.JoinRoom(c, id, userName)
}

// ListRooms sends the current directory to the requester.
func (co *Coordinator) ListRooms(c *Client) {
	c.Write(map[string]interface{}{
		"type":  "room_list",
		"rooms": co.store.Directory(),
	})
}

// detach removes the client from its current room, running host failover and
// empty-room handling. Safe to call when the client is not in a room.
func (co *Coordinator) detach(c *Client) {
	co.mu.Lock()
	roomID := c.RoomID
	c.RoomID = ""
	co.mu.Unlock()
	if roomID == "" {
		return
	}
	rm, ok := co.store.Get(roomID)
	if !ok {
		return
	}

	rm.Mu.Lock()
	removed, had := rm.RemoveMemberUnsafe(c.ID)
	if !had {
		rm.Mu.Unlock()
		return
	}

	if len(rm.Members) == 0 {
		if rm.IdleUnsafe() {
			name := rm.Name
			rm.Mu.Unlock()
			co.removeRoom(rm.ID, name, nil, "last member left with nothing to keep")
			return
		}
		now := time.Now()
		rm.EmptyAt = &now
		rm.Mu.Unlock()
		co.broadcastDirectory()
		co.log.Infof("room %s is empty; grace timer started", roomID)
		return
	}

	var transferred, changed map[string]interface{}
	var newHostID uuid.UUID
	if removed.IsHost {
		promoted := rm.PromoteHostUnsafe(0)
		newHostID = promoted.ConnID
		transferred = map[string]interface{}{
			"type":     "host_transferred",
			"message":  "You are now the host of this room.",
			"roomName": rm.Name,
		}
		changed = map[string]interface{}{
			"type":        "host_changed",
			"newHostId":   promoted.ConnID.String(),
			"newHostName": promoted.Name,
			"message":     removed.Name + " left; " + promoted.Name + " is now the host.",
		}
		co.log.Infof("room %s host failover: %s -> %s", roomID, removed.Name, promoted.Name)
	}
	membersUpdated := map[string]interface{}{
		"type":    "members_updated",
		"members": rm.MembersSnapshotUnsafe(),
	}
	ids := rm.MemberConnIDsUnsafe()
	rm.Mu.Unlock()

	co.broadcastTo(ids, membersUpdated)
	if transferred != nil {
		co.sendTo(newHostID, transferred)
		co.broadcastTo(ids, changed)
	}
	co.broadcastDirectory()
}

// RoomOf reads the client's current room binding under the registry lock.
// The field is written by other goroutines (the reaper, a host's delete), so
// plain reads outside the coordinator are not safe.
func (co *Coordinator) RoomOf(c *Client) string {
	co.mu.Lock()
	defer co.mu.Unlock()
	return c.RoomID
}

// liveConnIDs snapshots the set of currently registered connection ids.
func (co *Coordinator) liveConnIDs() map[uuid.UUID]bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	live := make(map[uuid.UUID]bool, len(co.clients))
	for id := range co.clients {
		live[id] = true
	}
	return live
}

// nameActiveElsewhere reports whether a connected client outside this
// connection already uses the display name inside some room.
func (co *Coordinator) nameActiveElsewhere(name string, exclude uuid.UUID) bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	for id, cl := range co.clients {
		if id != exclude && cl.Name == name && cl.RoomID != "" {
			return true
		}
	}
	return false
}

func (co *Coordinator) broadcastAll(msg map[string]interface{}) {
	co.mu.Lock()
	targets := make([]*Client, 0, len(co.clients))
	for _, cl := range co.clients {
		targets = append(targets, cl)
	}
	co.mu.Unlock()
	for _, cl := range targets {
		cl.Write(msg)
	}
}

func (co *Coordinator) broadcastTo(ids []uuid.UUID, msg map[string]interface{}) {
	co.mu.Lock()
	targets := make([]*Client, 0, len(ids))
	for _, id := range ids {
		if cl, ok := co.clients[id]; ok {
			targets = append(targets, cl)
		}
	}
	co.mu.Unlock()
	for _, cl := range targets {
		cl.Write(msg)
	}
}

func (co *Coordinator) sendTo(id uuid.UUID, msg map[string]interface{}) {
	co.mu.Lock()
	cl, ok := co.clients[id]
	co.mu.Unlock()
	if ok {
		cl.Write(msg)
	}
}

func (co *Coordinator) broadcastDirectory() {
	co.broadcastAll(map[string]interface{}{
		"type":  "room_list_updated",
		"rooms": co.store.Directory(),
	})
}

func validNickname(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > MaxNicknameLen {
		return "", ErrInvalidNickname
	}
	return name, nil
}

func memberIndex(members []models.Member, id uuid.UUID) int {
	for i, m := range members {
		if m.ConnID == id {
			return i
		}
	}
	return -1
}
