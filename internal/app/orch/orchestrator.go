package orch

import (
	"errors"
	"sync"

	"github.com/dkeye/Connectify/internal/app"
	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/observability"
	"github.com/dkeye/Connectify/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyInRoom     = errors.New("connection already in another room")
	ErrUnknownConnection = errors.New("unknown connection")
)

// Assistant receives speech fragments and summary requests of a room.
type Assistant interface {
	OnFragment(from domain.ConnectionID, room domain.RoomID, speaker, text string)
	Summary(from domain.ConnectionID, room domain.RoomID)
	Forget(id domain.ConnectionID)
}

// Orchestrator coordinates the registry and the room directory and performs
// every delivery to connections.
//
// All events of one connection, its disconnect included, are handled on that
// connection's read goroutine, so per-connection operations never race each other.
type Orchestrator struct {
	Registry  *app.Registry
	Rooms     *app.Directory
	Policy    app.Policy
	Assistant Assistant
	Meetings  core.MeetingDeactivator
	Events    core.EventPublisher

	bg sync.WaitGroup
}

// BroadcastToRoom delivers an event to every live member of room except exclude.
// It returns the number of members the frame was handed to.
func (o *Orchestrator) BroadcastToRoom(room domain.RoomID, event string, payload any, exclude domain.ConnectionID) int {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("broadcast encode")
		return 0
	}
	sent := 0
	for _, id := range o.Rooms.Members(room) {
		if id == exclude {
			continue
		}
		if o.deliver(room, id, frame) {
			sent++
		}
	}
	observability.IncWSEvent(event, "out")
	log.Debug().Str("module", "orch").Str("room", string(room)).Str("event", event).Int("sent_to", sent).Msg("broadcast result")
	return sent
}

// SendTo delivers an event to a single connection.
func (o *Orchestrator) SendTo(id domain.ConnectionID, event string, payload any) bool {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("send encode")
		return false
	}
	room, _ := o.Registry.RoomOf(id)
	ok := o.deliver(room, id, frame)
	if ok {
		observability.IncWSEvent(event, "out")
	}
	return ok
}

func (o *Orchestrator) deliver(room domain.RoomID, id domain.ConnectionID, frame core.Frame) bool {
	conn, ok := o.Registry.Conn(id)
	if !ok {
		return false
	}
	err := conn.TrySend(frame)
	if err == nil {
		return true
	}
	log.Debug().Err(err).Str("module", "orch").Str("sid", string(id)).Msg("deliver failed")
	if errors.Is(err, core.ErrBackpressure) && o.Policy != nil {
		switch o.Policy.OnBackPressure(room, id) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(id)).Str("room", string(room)).Msg("kicking slow member")
			o.Registry.Cancel(id)
		case app.DropFrame, app.NoAction:
		}
	}
	return false
}

// Wait blocks until fire-and-forget work started by the orchestrator is done.
func (o *Orchestrator) Wait() {
	o.bg.Wait()
}
