package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// AssistantConnectionID marks chat entries authored by the meeting assistant.
	AssistantConnectionID ConnectionID = "ai-assistant"
	// SystemConnectionID marks service notices such as assistant failures.
	SystemConnectionID ConnectionID = "system"
)

// AssistantWarningName labels notices about an unavailable assistant.
const AssistantWarningName = "⚠ Connectify AI (unavailable)"

// ConnectionID identifies one live transport session.
type ConnectionID string

// ChatEntry is one buffered chat message of a room.
type ChatEntry struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	Message   string       `json:"message"`
	SenderID  ConnectionID `json:"senderId"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewChatEntry(sender ConnectionID, username, message string) ChatEntry {
	return ChatEntry{
		ID:        ulid.Make().String(),
		Username:  username,
		Message:   message,
		SenderID:  sender,
		Timestamp: time.Now().UTC(),
	}
}

// FromAssistant reports whether the entry was produced by the assistant.
func (e ChatEntry) FromAssistant() bool { return e.SenderID == AssistantConnectionID }
