package core

import (
	"context"
	"errors"

	"github.com/dkeye/Connectify/internal/domain"
)

// Provider failures the assistant branches on. Anything else is permanent.
var (
	ErrRateLimited   = errors.New("ai provider rate limited")
	ErrOverloaded    = errors.New("ai provider overloaded")
	ErrNotConfigured = errors.New("ai provider not configured")
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// IsTransient reports whether a provider error is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrOverloaded)
}

// MeetingDeactivator marks the persisted meeting behind a room as ended.
// Implementations return domain.ErrMeetingNotFound for unknown codes.
type MeetingDeactivator interface {
	Deactivate(ctx context.Context, code string) error
}

// EventPublisher ships lifecycle events to whoever listens outside the process.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// RoomInfo is a read-only view for APIs (no transport fields).
type RoomInfo struct {
	Name        domain.RoomID `json:"name"`
	MemberCount int           `json:"client_count"`
}

// RoomEvent is published when a room opens or closes.
type RoomEvent struct {
	EventType  string        `json:"event_type"`
	Room       domain.RoomID `json:"room"`
	Connection string        `json:"connection_id,omitempty"`
	OccurredAt string        `json:"occurred_at"`
}
