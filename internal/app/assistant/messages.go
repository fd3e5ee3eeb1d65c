package assistant

import (
	"errors"

	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/domain"
)

const (
	// SenderName labels assistant answers.
	SenderName = "Connectify AI"
	// WarningSenderName labels assistant failure notices in the chat.
	WarningSenderName = domain.AssistantWarningName
)

const (
	msgRateLimited   = "The AI assistant is receiving too many requests right now. Please wait a minute and ask again."
	msgOverloaded    = "The AI service is overloaded at the moment. Please try again in a few seconds."
	msgNotConfigured = "The AI assistant is not configured on this server. Set ai.api_key (CONNECTIFY_AI_API_KEY) and restart to enable it."
	msgFailed        = "The AI assistant could not answer this time. Please try again later."
	msgQueueFull     = "The AI assistant is still busy with earlier questions in this room. Please ask again shortly."
	msgThrottled     = "You are calling the AI assistant too often. Please wait a little before asking again."
	msgNoTranscript  = "Nothing has been transcribed in this meeting yet, so there is nothing to summarize."
	msgNoRoom        = "Join a meeting before asking for a summary."
)

// UserMessage turns a provider error into text that is safe to show in a room.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, core.ErrOverloaded):
		return msgOverloaded
	case errors.Is(err, core.ErrNotConfigured):
		return msgNotConfigured
	default:
		return msgFailed
	}
}
