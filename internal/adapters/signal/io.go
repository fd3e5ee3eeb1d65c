package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/observability"
	"github.com/dkeye/Connectify/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid domain.ConnectionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		// unblocks the read pump when the connection is canceled from outside
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(ctl.opts.WriteWait))
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping")
				return
			}
		}
	}
}

// readPump owns every inbound event of the connection, including its
// disconnect, so a connection's operations run strictly in order.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.ConnectionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Orch.OnDisconnect(sid)
		ctl.conns.Done()
	}()

	readWait := 2 * ctl.opts.PingPeriod
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
		ctl.handleSignal(sid, data)
	}
}

func (ctl *SignalWSController) handleSignal(sid domain.ConnectionID, data []byte) {
	ev, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad frame")
		code := codeBadFrame
		if errors.Is(err, protocol.ErrUnknownType) {
			code = codeUnknownType
		}
		ctl.sendError(sid, code, err.Error())
		return
	}
	observability.IncWSEvent(ev.EventType(), "in")

	switch m := ev.(type) {
	case protocol.JoinRoom:
		ctl.handleJoin(sid, m)
	case protocol.Signal:
		ctl.handleRelay(sid, m)
	case protocol.ChatMessage:
		ctl.Orch.Chat(sid, m)
	case protocol.DrawLine, protocol.ClearCanvas, protocol.ToggleWhiteboard:
		ctl.handleWhiteboard(sid, m)
	case protocol.SendTranscription:
		ctl.handleTranscription(sid, m)
	case protocol.GetMeetingSummary:
		ctl.handleSummary(sid, m)
	case protocol.Ping:
		ctl.handlePing(sid)
	default:
		log.Warn().Str("module", "signal").Str("type", ev.EventType()).Msg("unhandled event")
	}
}
