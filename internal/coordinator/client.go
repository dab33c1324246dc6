// internal/coordinator/client.go
package coordinator

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client is the coordinator-owned record for one live connection. Connection
// state (display name, current room) lives here, keyed by connection id —
// never on the transport object.
type Client struct {
	ID     uuid.UUID
	Name   string
	RoomID string

	// OutChan carries outbound payloads to the connection's write pump.
	OutChan chan map[string]interface{}
	// Cancel tears down the connection's pumps.
	Cancel context.CancelFunc

	log *logrus.Logger
}

// Write pushes a payload onto the client's outbox without blocking. A full or
// closed outbox drops the message; the next snapshot broadcast resolves any
// gap.
func (c *Client) Write(msg map[string]interface{}) {
	select {
	case c.OutChan <- msg:
	default:
		if c.log != nil {
			msgType, _ := msg["type"].(string)
			c.log.Warnf("client %s outbox full or closed, dropped %q", c.ID, msgType)
		}
	}
}

// WriteError sends a request-scoped error payload to this client only.
func (c *Client) WriteError(msg string) {
	c.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}
