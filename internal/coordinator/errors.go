// internal/coordinator/errors.go
package coordinator

import "errors"

// Request-scoped failures. Each is reported to the requester only; room state
// is never touched by a failed request.
var (
	ErrInvalidNickname   = errors.New("please enter a nickname of 1-20 characters")
	ErrInvalidRoomName   = errors.New("please enter a room name of 1-30 characters")
	ErrNameAlreadyActive = errors.New("that nickname is already in use by a connected player")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotAuthorized     = errors.New("only the host can do that")
	ErrNoActiveRoom      = errors.New("no active room; ask a host to create one first")
	ErrInvalidTeamConfig = errors.New("team configuration is malformed")
	ErrNotInRoom         = errors.New("you are not in that room")
)
