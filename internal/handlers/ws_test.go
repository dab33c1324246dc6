// internal/handlers/ws_test.go
package handlers

import (
	"encoding/json"
	"io"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdraw/teamdraw-service/internal/coordinator"
	"github.com/teamdraw/teamdraw-service/internal/room"
)

func newTestSetup() (*coordinator.Coordinator, *coordinator.Client) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	co := coordinator.New(room.NewStore(rand.New(rand.NewSource(7))), rand.New(rand.NewSource(8)), logger, nil)
	return co, co.Register(uuid.New(), nil)
}

func send(t *testing.T, co *coordinator.Coordinator, c *coordinator.Client, raw string) {
	t.Helper()
	var req wsRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	dispatch(co, c, req)
}

func recvType(t *testing.T, c *coordinator.Client, want string) map[string]interface{} {
	t.Helper()
	for {
		select {
		case msg := <-c.OutChan:
			if msg["type"] == want {
				return msg
			}
		default:
			t.Fatalf("no %q message in outbox", want)
			return nil
		}
	}
}

func TestDispatchCreateAndUpdateFlow(t *testing.T) {
	co, c := newTestSetup()

	send(t, co, c, `{"type":"create_room","userName":"alice","roomName":"friday"}`)
	created := recvType(t, c, "room_created")
	roomID := created["roomId"].(string)
	assert.Len(t, roomID, 6)

	// roomId omitted: the client's current room is implied.
	send(t, co, c, `{"type":"update_players","players":["a","b","c","d"]}`)
	updated := recvType(t, c, "players_updated")
	assert.Equal(t, []string{"a", "b", "c", "d"}, updated["players"])

	send(t, co, c, `{"type":"update_team_config","teams":[{"name":"red","size":2},{"name":"blue","size":2}]}`)
	recvType(t, c, "team_config_updated")

	send(t, co, c, `{"type":"estimate_combinations"}`)
	est := recvType(t, c, "combinations_estimated")
	assert.Equal(t, int64(6), est["count"])

	send(t, co, c, `{"type":"assign_teams"}`)
	recvType(t, c, "teams_assigned")
}

func TestDispatchErrorsGoBackToRequester(t *testing.T) {
	co, c := newTestSetup()

	send(t, co, c, `{"type":"join_room","roomId":"ZZZZZZ","userName":"bob"}`)
	errMsg := recvType(t, c, "error")
	assert.Equal(t, coordinator.ErrRoomNotFound.Error(), errMsg["message"])

	send(t, co, c, `{"type":"launch_missiles"}`)
	errMsg = recvType(t, c, "error")
	assert.Contains(t, errMsg["message"], "unknown request type")
}

func TestDispatchRestrictionsRoundTrip(t *testing.T) {
	co, c := newTestSetup()
	send(t, co, c, `{"type":"create_room","userName":"alice","roomName":"friday"}`)
	recvType(t, c, "room_created")

	// Duplicate and reversed pairs collapse to one normalized restriction.
	send(t, co, c, `{"type":"update_restrictions","restrictions":[["b","a"],["a","b"]]}`)
	msg := recvType(t, c, "restrictions_updated")
	data, err := json.Marshal(msg["restrictions"])
	require.NoError(t, err)
	assert.JSONEq(t, `[["a","b"]]`, string(data))
}
