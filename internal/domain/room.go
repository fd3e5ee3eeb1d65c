package domain

import (
	"errors"
	"strings"
)

const MaxRoomIDLen = 64

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

// RoomID is the canonical identifier of a live room. It equals the code of the
// meeting record the room belongs to.
type RoomID string

// MeetingCode returns the persisted meeting code for this room.
func (r RoomID) MeetingCode() string { return string(r) }

// Canonicalize turns whatever the client sent as a room reference (a bare code,
// a path, or a full meeting URL) into a RoomID. It is idempotent.
func Canonicalize(raw string) (RoomID, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", ErrRoomIDEmpty
	}
	if len(s) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(s), nil
}
