package app

import (
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomState struct {
	members    []domain.ConnectionID
	chat       []domain.ChatEntry
	transcript strings.Builder
}

// Directory owns the in-memory state of every live room.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomID]*roomState)}
}

// Join adds id to the room, creating the room if needed. Re-joining is a no-op.
// It returns the member list after the join and whether this join created the room.
//
// A room that emptied but was not discarded yet is refilled with fresh chat and
// transcript. It is not reported as created: its discard then fails, so the
// room's open/close bookkeeping stays with the original cycle.
func (d *Directory) Join(room domain.RoomID, id domain.ConnectionID) ([]domain.ConnectionID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[room]
	created := !ok
	switch {
	case created:
		rs = &roomState{}
		d.rooms[room] = rs
		log.Info().Str("module", "app.directory").Str("room", string(room)).Msg("room created")
	case len(rs.members) == 0:
		rs.chat = nil
		rs.transcript.Reset()
		log.Info().Str("module", "app.directory").Str("room", string(room)).Msg("room refilled before discard")
	}
	if !slices.Contains(rs.members, id) {
		rs.members = append(rs.members, id)
	}
	return slices.Clone(rs.members), created
}

// Leave removes id from the room and reports whether the room is now empty.
func (d *Directory) Leave(room domain.RoomID, id domain.ConnectionID) ([]domain.ConnectionID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[room]
	if !ok {
		return nil, false
	}
	if i := slices.Index(rs.members, id); i >= 0 {
		rs.members = slices.Delete(rs.members, i, i+1)
	}
	return slices.Clone(rs.members), len(rs.members) == 0
}

// Members returns a snapshot of the room's members in join order.
func (d *Directory) Members(room domain.RoomID) []domain.ConnectionID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rs, ok := d.rooms[room]
	if !ok {
		return nil
	}
	return slices.Clone(rs.members)
}

func (d *Directory) AppendChat(room domain.RoomID, entry domain.ChatEntry) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[room]
	if !ok {
		return false
	}
	rs.chat = append(rs.chat, entry)
	return true
}

func (d *Directory) ChatHistory(room domain.RoomID) []domain.ChatEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rs, ok := d.rooms[room]
	if !ok {
		return nil
	}
	return slices.Clone(rs.chat)
}

func (d *Directory) AppendTranscript(room domain.RoomID, text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[room]
	if !ok {
		return false
	}
	rs.transcript.WriteString(text)
	return true
}

// TranscriptTail returns the last maxChars characters of the room transcript.
func (d *Directory) TranscriptTail(room domain.RoomID, maxChars int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rs, ok := d.rooms[room]
	if !ok {
		return ""
	}
	return tail(rs.transcript.String(), maxChars)
}

func (d *Directory) Transcript(room domain.RoomID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rs, ok := d.rooms[room]
	if !ok {
		return ""
	}
	return rs.transcript.String()
}

// Discard drops the room and all its buffered state. A room that gained a
// member again since it emptied is kept.
func (d *Directory) Discard(room domain.RoomID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs, ok := d.rooms[room]
	if !ok || len(rs.members) > 0 {
		return false
	}
	delete(d.rooms, room)
	log.Info().Str("module", "app.directory").Str("room", string(room)).Msg("room discarded")
	return true
}

func (d *Directory) Exists(room domain.RoomID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[room]
	return ok
}

func (d *Directory) List() []core.RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(d.rooms))
	for name, rs := range d.rooms {
		out = append(out, core.RoomInfo{Name: name, MemberCount: len(rs.members)})
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return strings.Compare(string(a.Name), string(b.Name)) })
	return out
}

func tail(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	i := len(s)
	for n := 0; n < maxChars && i > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}
