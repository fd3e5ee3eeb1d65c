package signal

import (
	"errors"

	"github.com/dkeye/Connectify/internal/app/orch"
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(sid domain.ConnectionID, m protocol.JoinRoom) {
	room, err := domain.Canonicalize(m.RoomID)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room_id", m.RoomID).Msg("bad room id")
		ctl.sendError(sid, codeBadRoom, err.Error())
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(room)).Msg("join")
	switch err := ctl.Orch.Join(sid, room); {
	case err == nil:
	case errors.Is(err, orch.ErrAlreadyInRoom):
		ctl.sendError(sid, codeAlreadyInRoom, "leave the current meeting before joining another one")
	case errors.Is(err, orch.ErrUnknownConnection):
		ctl.sendError(sid, codeUnknownSession, err.Error())
	default:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join")
	}
}

// handleWhiteboard forwards drawing events inside the sender's room. The
// roomId carried by the payload is informational; the joined room wins.
func (ctl *SignalWSController) handleWhiteboard(sid domain.ConnectionID, ev protocol.Inbound) {
	room, _ := ctl.Orch.Registry.RoomOf(sid)
	ctl.Orch.Whiteboard(sid, room, ev.EventType(), ev)
}
