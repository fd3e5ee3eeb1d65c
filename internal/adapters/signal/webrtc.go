package signal

import (
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/protocol"
)

// handleRelay passes an offer, answer or ICE candidate to its target as is.
func (ctl *SignalWSController) handleRelay(sid domain.ConnectionID, m protocol.Signal) {
	ctl.Orch.Relay(sid, m.To, m.Payload)
}
