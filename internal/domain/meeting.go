// Package domain holds the entities and identifiers shared by every layer
package domain

import (
	"errors"
	"time"
)

var ErrMeetingNotFound = errors.New("meeting not found")

// Meeting is the persisted record behind a room.
type Meeting struct {
	ID        string     `gorm:"primarykey;size:36" json:"id"`
	Code      string     `gorm:"uniqueIndex;size:16;not null" json:"code"`
	Title     string     `gorm:"size:200" json:"title"`
	HostName  string     `gorm:"size:100" json:"host_name"`
	Active    bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func (Meeting) TableName() string {
	return "meetings"
}
