package orch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/observability"
	"github.com/dkeye/Connectify/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	deactivateTimeout = 10 * time.Second

	routingRoomOpened = "rooms.opened"
	routingRoomClosed = "rooms.closed"
)

// Connect admits a new transport endpoint.
func (o *Orchestrator) Connect(conn core.SignalConnection, cancel context.CancelFunc) domain.ConnectionID {
	id := o.Registry.Admit(conn, cancel)
	observability.IncWSActive()
	return id
}

// Join puts a connection into a room, announces it and replays the chat buffer
// to the newcomer. A connection may only be in one room; joining the same room
// again is harmless.
func (o *Orchestrator) Join(sid domain.ConnectionID, room domain.RoomID) error {
	if current, ok := o.Registry.RoomOf(sid); ok && current != room {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(current)).Str("requested", string(room)).Msg("join rejected")
		return ErrAlreadyInRoom
	}
	if !o.Registry.SetRoom(sid, room) {
		return ErrUnknownConnection
	}
	members, first := o.Rooms.Join(room, sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Int("members", len(members)).Msg("added to room")

	o.BroadcastToRoom(room, protocol.TypeUserJoined, protocol.UserJoined{ID: sid, Members: members}, "")
	history := o.Rooms.ChatHistory(room)
	if history == nil {
		history = []domain.ChatEntry{}
	}
	o.SendTo(sid, protocol.TypeChatHistory, protocol.ChatHistory{Messages: history})

	if first {
		observability.IncRoomsActive()
		o.publish(routingRoomOpened, room, sid)
	}
	return nil
}

// Chat buffers a message and sends it to the whole room, sender included.
func (o *Orchestrator) Chat(sid domain.ConnectionID, msg protocol.ChatMessage) {
	room, ok := o.Registry.RoomOf(sid)
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("chat: not in a room")
		return
	}
	if strings.TrimSpace(msg.Message) == "" {
		return
	}
	entry := domain.NewChatEntry(sid, domain.DisplayName(msg.Username), msg.Message)
	o.Rooms.AppendChat(room, entry)
	o.BroadcastToRoom(room, protocol.TypeChatMessage, entry, "")
}

// Whiteboard fans a drawing event out to everyone in the room but the sender.
func (o *Orchestrator) Whiteboard(sid domain.ConnectionID, room domain.RoomID, event string, payload any) {
	if room == "" {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("whiteboard: missing room")
		return
	}
	o.BroadcastToRoom(room, event, payload, sid)
}

// Transcribe hands a speech fragment to the assistant.
func (o *Orchestrator) Transcribe(sid domain.ConnectionID, room domain.RoomID, speaker, text string) {
	if o.Assistant == nil {
		return
	}
	o.Assistant.OnFragment(sid, room, domain.DisplayName(speaker), text)
}

// Summarize asks the assistant for a summary that only sid receives.
func (o *Orchestrator) Summarize(sid domain.ConnectionID, room domain.RoomID) {
	if o.Assistant == nil {
		o.SendTo(sid, protocol.TypeAIResponse, protocol.AIResponse{
			Sender:    domain.AssistantWarningName,
			Text:      "The meeting assistant is not enabled on this server.",
			IsError:   true,
			Timestamp: time.Now().UTC(),
		})
		return
	}
	o.Assistant.Summary(sid, room)
}

// OnDisconnect unwinds everything a connection left behind. It is safe for
// connections that never joined a room.
func (o *Orchestrator) OnDisconnect(sid domain.ConnectionID) {
	if room, ok := o.Registry.RoomOf(sid); ok {
		remaining, empty := o.Rooms.Leave(room, sid)
		o.BroadcastToRoom(room, protocol.TypeUserLeft, protocol.UserLeft{ID: sid}, sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Int("remaining", len(remaining)).Msg("left room")
		if empty && o.Rooms.Discard(room) {
			o.closeRoom(room, sid)
		}
	}
	if o.Assistant != nil {
		o.Assistant.Forget(sid)
	}
	if _, ok := o.Registry.Conn(sid); ok {
		o.Registry.Remove(sid)
		observability.DecWSActive()
	}
}

// EvictRoom disconnects every member of a room.
func (o *Orchestrator) EvictRoom(room domain.RoomID) int {
	members := o.Rooms.Members(room)
	for _, sid := range members {
		o.Registry.Cancel(sid)
	}
	return len(members)
}

// MembersOf lists the members of a room with their connect time.
func (o *Orchestrator) MembersOf(room domain.RoomID) []domain.Member {
	ids := o.Rooms.Members(room)
	out := make([]domain.Member, 0, len(ids))
	for _, id := range ids {
		at, _ := o.Registry.ConnectedAt(id)
		out = append(out, domain.Member{ID: id, ConnectedAt: at})
	}
	return out
}

func (o *Orchestrator) closeRoom(room domain.RoomID, last domain.ConnectionID) {
	observability.DecRoomsActive()
	o.publish(routingRoomClosed, room, last)
	if o.Meetings == nil {
		return
	}
	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deactivateTimeout)
		defer cancel()
		code := room.MeetingCode()
		if err := o.Meetings.Deactivate(ctx, code); err != nil {
			if errors.Is(err, domain.ErrMeetingNotFound) {
				log.Warn().Str("module", "orch").Str("code", code).Msg("deactivate: meeting not found")
				return
			}
			log.Error().Err(err).Str("module", "orch").Str("code", code).Msg("deactivate meeting")
			return
		}
		log.Info().Str("module", "orch").Str("code", code).Msg("meeting deactivated")
	}()
}

func (o *Orchestrator) publish(routingKey string, room domain.RoomID, sid domain.ConnectionID) {
	if o.Events == nil {
		return
	}
	ev := core.RoomEvent{
		EventType:  routingKey,
		Room:       room,
		Connection: string(sid),
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.Events.Publish(ctx, routingKey, ev); err != nil {
			observability.IncAMQPPublishError()
			log.Error().Err(err).Str("module", "orch").Str("routing_key", routingKey).Msg("publish room event")
		}
	}()
}
