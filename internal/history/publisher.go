// internal/history/publisher.go
//
// Assignment outcomes are queued to Redis for the historian process, which
// drains them into Postgres. Publishing is best-effort: a failed push is
// logged by the caller and never blocks room traffic.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teamdraw/teamdraw-service/internal/models"
)

// DefaultQueueName is the Redis list (queue) name for assignment records.
const DefaultQueueName = "teamdraw_assignments"

// AssignmentRecord holds the minimal info needed by the historian process.
type AssignmentRecord struct {
	RoomID       string               `json:"room_id"`
	RoomName     string               `json:"room_name"`
	HostName     string               `json:"host_name"`
	Players      []string             `json:"players"`
	TeamConfig   []models.TeamSlot    `json:"team_config"`
	Restrictions []models.Restriction `json:"restrictions"`
	Success      bool                 `json:"success"`
	Teams        []models.Team        `json:"teams"`
	Message      string               `json:"message"`
	AssignedAt   int64                `json:"assigned_at"`
}

// Publisher pushes assignment records onto the historian queue.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

// NewPublisher connects to Redis and verifies the connection with a ping.
func NewPublisher(addr string, db int, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Publisher{rdb: rdb, queue: queue}, nil
}

// Publish serializes the record to JSON and pushes it onto the queue.
func (p *Publisher) Publish(ctx context.Context, record AssignmentRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal AssignmentRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
