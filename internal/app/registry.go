package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Room        domain.RoomID
	ConnectedAt time.Time
	Conn        core.SignalConnection
	Cancel      context.CancelFunc
}

// Registry tracks live connections and the room each one has joined.
// It is the reverse index from connection to room.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnectionID]*connEntry)}
}

// Admit allocates a fresh connection id for a transport endpoint.
func (r *Registry) Admit(conn core.SignalConnection, cancel context.CancelFunc) domain.ConnectionID {
	id := domain.ConnectionID(uuid.NewString())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{
		ConnectedAt: time.Now(),
		Conn:        conn,
		Cancel:      cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("admitted connection")
	return id
}

// SetRoom records the room a connection has joined, replacing any previous value.
func (r *Registry) SetRoom(id domain.ConnectionID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		return false
	}
	entry.Room = room
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("room", string(room)).Msg("updated room")
	return true
}

func (r *Registry) RoomOf(id domain.ConnectionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[id]
	if !ok || entry.Room == "" {
		return "", false
	}
	return entry.Room, true
}

// Conn returns the transport of a live connection.
func (r *Registry) Conn(id domain.ConnectionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return entry.Conn, true
}

func (r *Registry) ConnectedAt(id domain.ConnectionID) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[id]
	if !ok {
		return time.Time{}, false
	}
	return entry.ConnectedAt, true
}

// Remove forgets a connection. Unknown ids are ignored.
func (r *Registry) Remove(id domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("removed connection")
}

// Cancel stops the transport pumps of a connection; its read loop then
// runs the disconnect path.
func (r *Registry) Cancel(id domain.ConnectionID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("canceled connection")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
