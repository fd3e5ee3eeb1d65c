package orch

import (
	"encoding/json"

	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Relay forwards an opaque signaling payload from one connection to another.
// Nothing is validated: not the payload, not whether both share a room.
// A target that is gone is silently skipped.
func (o *Orchestrator) Relay(from, to domain.ConnectionID, payload json.RawMessage) bool {
	if to == "" || to == from {
		return false
	}
	ok := o.SendTo(to, protocol.TypeSignal, protocol.SignalFrom{From: from, Payload: payload})
	if !ok {
		log.Debug().Str("module", "orch").Str("from", string(from)).Str("to", string(to)).Msg("signal dropped")
	}
	return ok
}
