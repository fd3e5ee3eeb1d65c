// Package protocol defines the JSON events exchanged over the signaling socket.
// Every frame is an envelope {"type": ..., "data": {...}}.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/dkeye/Connectify/internal/domain"
)

const (
	TypeJoinRoom          = "join-room-request"
	TypeUserJoined        = "user-joined"
	TypeUserLeft          = "user-left"
	TypeSignal            = "signal"
	TypeChatMessage       = "chat-message"
	TypeChatHistory       = "chat-history"
	TypeDrawLine          = "draw-line"
	TypeClearCanvas       = "clear-canvas"
	TypeToggleWhiteboard  = "toggle-whiteboard"
	TypeSendTranscription = "send-transcription"
	TypeLiveTranscription = "live-transcription"
	TypeAIResponse        = "ai-response"
	TypeGetMeetingSummary = "get-meeting-summary"
	TypePing              = "ping"
	TypePong              = "pong"
	TypeError             = "error"
)

// Envelope is the outer shape of every frame.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound is the closed set of events a client may send.
type Inbound interface {
	EventType() string
	inbound()
}

type JoinRoom struct {
	RoomID string `json:"roomId"`
}

// Signal carries an SDP or ICE payload the relay never looks into.
type Signal struct {
	To      domain.ConnectionID `json:"to"`
	Payload json.RawMessage     `json:"payload"`
}

type ChatMessage struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

type DrawLine struct {
	RoomID string  `json:"roomId"`
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

type ClearCanvas struct {
	RoomID string `json:"roomId"`
}

type ToggleWhiteboard struct {
	RoomID string `json:"roomId"`
	Open   bool   `json:"open"`
}

type SendTranscription struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type GetMeetingSummary struct {
	RoomID string `json:"roomId"`
}

type Ping struct{}

func (JoinRoom) EventType() string          { return TypeJoinRoom }
func (Signal) EventType() string            { return TypeSignal }
func (ChatMessage) EventType() string       { return TypeChatMessage }
func (DrawLine) EventType() string          { return TypeDrawLine }
func (ClearCanvas) EventType() string       { return TypeClearCanvas }
func (ToggleWhiteboard) EventType() string  { return TypeToggleWhiteboard }
func (SendTranscription) EventType() string { return TypeSendTranscription }
func (GetMeetingSummary) EventType() string { return TypeGetMeetingSummary }
func (Ping) EventType() string              { return TypePing }

func (JoinRoom) inbound()          {}
func (Signal) inbound()            {}
func (ChatMessage) inbound()       {}
func (DrawLine) inbound()          {}
func (ClearCanvas) inbound()       {}
func (ToggleWhiteboard) inbound()  {}
func (SendTranscription) inbound() {}
func (GetMeetingSummary) inbound() {}
func (Ping) inbound()              {}

// Outbound payloads.

type UserJoined struct {
	ID      domain.ConnectionID   `json:"id"`
	Members []domain.ConnectionID `json:"members"`
}

type UserLeft struct {
	ID domain.ConnectionID `json:"id"`
}

type SignalFrom struct {
	From    domain.ConnectionID `json:"from"`
	Payload json.RawMessage     `json:"payload"`
}

type ChatHistory struct {
	Messages []domain.ChatEntry `json:"messages"`
}

type LiveTranscription struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type AIResponse struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	IsError   bool      `json:"isError"`
	Timestamp time.Time `json:"timestamp"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Pong struct{}
