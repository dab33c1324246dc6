// internal/handlers/rooms_test.go
package handlers

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdraw/teamdraw-service/internal/room"
)

func TestListRoomsHandler(t *testing.T) {
	store := room.NewStore(rand.New(rand.NewSource(3)))
	store.Add(room.New(store.NewRoomID(), "friday draw", uuid.New(), "alice"))

	h := ListRoomsHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Rooms []struct {
			RoomName         string `json:"roomName"`
			HostName         string `json:"hostName"`
			ParticipantCount int    `json:"participantCount"`
			IsActive         bool   `json:"isActive"`
		} `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, "friday draw", body.Rooms[0].RoomName)
	assert.Equal(t, "alice", body.Rooms[0].HostName)
	assert.Equal(t, 1, body.Rooms[0].ParticipantCount)
	assert.True(t, body.Rooms[0].IsActive)

	// Only GET is served.
	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/rooms", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rec := httptest.NewRecorder()
	HealthHandler(logger)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
