// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/teamdraw/teamdraw-service/internal/coordinator"
	"github.com/teamdraw/teamdraw-service/internal/middleware"
	"github.com/teamdraw/teamdraw-service/internal/models"
)

// wsRequest is the inbound envelope. Fields are populated per request type;
// absent fields decode to their zero values, which each operation treats as
// "not provided".
type wsRequest struct {
	Type              string                    `json:"type"`
	UserName          string                    `json:"userName"`
	RoomName          string                    `json:"roomName"`
	RoomID            string                    `json:"roomId"`
	Players           []string                  `json:"players"`
	Teams             []models.TeamSlot         `json:"teams"`
	Restrictions      []models.Restriction      `json:"restrictions"`
	RestrictionGroups []models.RestrictionGroup `json:"restrictionGroups"`
}

// RoomWSHandler upgrades the connection, resolves the client's identity, and
// runs the read/write pumps against the coordinator.
func RoomWSHandler(logger *logrus.Logger, co *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		// The identity cookie must be settled before the upgrade; headers
		// cannot be written afterwards.
		clientID, err := EnsureClientToken(w, r)
		if err != nil {
			logger.Warnf("client token error from %s: %v", remoteAddr, err)
			http.Error(w, "failed to establish client identity", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"teamdraw"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "teamdraw" {
			c.Close(BadSubprotocolError, "client must speak the teamdraw subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		client := co.Register(clientID, cancel)
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		go writePump(ctx, c, client, logger)
		readPump(ctx, c, co, client, logger)

		co.Disconnect(client)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, nil)
	}
}

// readPump decodes inbound envelopes and dispatches them until the connection
// closes.
func readPump(ctx context.Context, c *websocket.Conn, co *coordinator.Coordinator, client *coordinator.Client, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("websocket closed normally for client %s", client.ID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("read error for client %s: %v", client.ID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("ignoring non-text message type %d from client %s", typ, client.ID)
			continue
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			logger.Warnf("invalid json from client %s: %v", client.ID, err)
			client.WriteError("invalid JSON format")
			continue
		}

		dispatch(co, client, req)
	}
}

// dispatch routes one request to the coordinator. Operation failures are
// reported back to the requester only; the connection stays up.
func dispatch(co *coordinator.Coordinator, client *coordinator.Client, req wsRequest) {
	// Room-scoped requests may omit roomId and mean "my current room". The
	// binding is read under the registry lock; the reaper rewrites it from
	// its own goroutine.
	roomID := req.RoomID
	if roomID == "" {
		roomID = co.RoomOf(client)
	}

	var err error
	switch req.Type {
	case "create_room":
		err = co.CreateRoom(client, req.UserName, req.RoomName)
	case "join_room":
		err = co.JoinRoom(client, roomID, req.UserName)
	case "auto_join":
		err = co.AutoJoin(client, req.UserName)
	case "get_room_list":
		co.ListRooms(client)
	case "update_players":
		err = co.UpdatePlayers(client, roomID, req.Players)
	case "update_team_config":
		err = co.UpdateTeamConfig(client, roomID, req.Teams)
	case "update_restrictions":
		err = co.UpdateRestrictions(client, roomID, req.Restrictions, req.RestrictionGroups)
	case "assign_teams":
		err = co.AssignTeams(client, roomID)
	case "estimate_combinations":
		err = co.EstimateCombinations(client, roomID, req.Players, req.Teams, req.Restrictions)
	case "reset_result":
		err = co.ResetResult(client, roomID)
	case "delete_room":
		err = co.DeleteRoom(client, roomID)
	default:
		client.WriteError("unknown request type: " + req.Type)
		return
	}
	if err != nil {
		client.WriteError(err.Error())
	}
}

// writePump serializes outbound payloads and keeps the connection alive with
// periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, client *coordinator.Client, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer c.Close(websocket.StatusGoingAway, "write pump stopping")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("failed to marshal outgoing msg for client %s: %v", client.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for client %s: %v", client.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("failed to ping client %s: %v. Assuming disconnect.", client.ID, err)
				return
			}
		}
	}
}
