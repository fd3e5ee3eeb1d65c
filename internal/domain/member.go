package domain

import "time"

// Member is a read-only view of a room participant.
// No transport or lifecycle logic here.
type Member struct {
	ID          ConnectionID `json:"id"`
	ConnectedAt time.Time    `json:"connected_at"`
}
