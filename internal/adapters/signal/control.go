package signal

import (
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/protocol"
)

const (
	codeBadFrame       = "bad-frame"
	codeUnknownType    = "unknown-type"
	codeBadRoom        = "bad-room"
	codeAlreadyInRoom  = "already-in-room"
	codeUnknownSession = "unknown-connection"
)

func (ctl *SignalWSController) handlePing(sid domain.ConnectionID) {
	ctl.Orch.SendTo(sid, protocol.TypePong, protocol.Pong{})
}

func (ctl *SignalWSController) sendError(sid domain.ConnectionID, code, msg string) {
	ctl.Orch.SendTo(sid, protocol.TypeError, protocol.Error{Code: code, Message: msg})
}
