package signal

import (
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/protocol"
)

func (ctl *SignalWSController) handleTranscription(sid domain.ConnectionID, m protocol.SendTranscription) {
	room, _ := ctl.Orch.Registry.RoomOf(sid)
	ctl.Orch.Transcribe(sid, room, m.Username, m.Text)
}

func (ctl *SignalWSController) handleSummary(sid domain.ConnectionID, _ protocol.GetMeetingSummary) {
	room, _ := ctl.Orch.Registry.RoomOf(sid)
	ctl.Orch.Summarize(sid, room)
}
