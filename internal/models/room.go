// internal/models/room.go
package models

import "github.com/google/uuid"

// Member is one live connection inside a room. Members are kept in join
// order; at most one member has IsHost set.
type Member struct {
	ConnID uuid.UUID `json:"id"`
	Name   string    `json:"userName"`
	IsHost bool      `json:"isHost"`
}

// TeamSlot describes one team in the room's configuration: its display name,
// how many players it must hold, and any players pinned into it before the
// random fill.
type TeamSlot struct {
	Name            string   `json:"name"`
	Capacity        int      `json:"size"`
	RequiredPlayers []string `json:"requiredPlayers,omitempty"`
}

// Team is one filled team inside an AssignmentResult.
type Team struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// AssignmentResult is the outcome of a solve request. A failed solve is still
// a well-formed result: Success is false and Message explains why.
type AssignmentResult struct {
	Success bool   `json:"success"`
	Teams   []Team `json:"teams"`
	Message string `json:"message"`
}

// RoomInfo is the directory entry for one live room.
type RoomInfo struct {
	RoomID           string `json:"roomId"`
	RoomName         string `json:"roomName"`
	HostName         string `json:"hostName"`
	ParticipantCount int    `json:"participantCount"`
	CreatedAt        int64  `json:"createdAt"`
	IsActive         bool   `json:"isActive"`
}
