// Package assistant accumulates room transcripts and answers wake-word
// requests and summary requests with an AI text generator.
package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Connectify/internal/app"
	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/observability"
	"github.com/dkeye/Connectify/internal/protocol"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	defaultContextChars = 2000
	defaultQueueSize    = 4
)

// Broadcaster delivers events to rooms and single connections.
type Broadcaster interface {
	BroadcastToRoom(room domain.RoomID, event string, payload any, exclude domain.ConnectionID) int
	SendTo(id domain.ConnectionID, event string, payload any) bool
}

type Config struct {
	WakePhrases  []string
	ContextChars int
	// QueueSize bounds the triggers waiting behind the one in flight.
	QueueSize int
	// TriggerLimit per TriggerWindow per connection; zero disables throttling.
	TriggerLimit  int
	TriggerWindow time.Duration
}

// State of a room's assistant pipeline.
type State int

const (
	StateIdle State = iota
	StatePending
)

func (s State) String() string {
	if s == StatePending {
		return "AI_PENDING"
	}
	return "IDLE"
}

type trigger struct {
	from    domain.ConnectionID
	speaker string
	text    string
	context string
}

type roomQueue struct {
	pending []trigger
}

// Assistant runs at most one generator call per room at a time. Triggers that
// arrive while a call is in flight wait in a bounded per-room queue.
type Assistant struct {
	rooms    *app.Directory
	out      Broadcaster
	gen      core.Generator
	detector *Detector
	limiter  *TriggerLimiter
	cfg      Config

	mu     sync.Mutex
	queues map[domain.RoomID]*roomQueue

	summaries singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(rooms *app.Directory, out Broadcaster, gen core.Generator, cfg Config) *Assistant {
	if cfg.ContextChars <= 0 {
		cfg.ContextChars = defaultContextChars
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if gen == nil {
		gen = &Invoker{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &Assistant{
		rooms:    rooms,
		out:      out,
		gen:      gen,
		detector: NewDetector(cfg.WakePhrases),
		cfg:      cfg,
		queues:   make(map[domain.RoomID]*roomQueue),
		ctx:      ctx,
		cancel:   cancel,
	}
	if cfg.TriggerLimit > 0 && cfg.TriggerWindow > 0 {
		a.limiter = NewTriggerLimiter(cfg.TriggerLimit, cfg.TriggerWindow)
	}
	return a
}

// OnFragment records a transcribed utterance, captions it for the other
// members and starts an assistant request when it contains a wake phrase.
func (a *Assistant) OnFragment(from domain.ConnectionID, room domain.RoomID, speaker, text string) {
	text = strings.TrimSpace(text)
	if text == "" || room == "" {
		return
	}
	if !a.rooms.AppendTranscript(room, speaker+": "+text+"\n") {
		log.Warn().Str("module", "assistant").Str("sid", string(from)).Str("room", string(room)).Msg("transcript for unknown room")
		return
	}
	a.out.BroadcastToRoom(room, protocol.TypeLiveTranscription, protocol.LiveTranscription{
		Username:  speaker,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}, from)

	if !a.detector.Detect(text) {
		return
	}
	if a.limiter != nil && !a.limiter.Allow(from) {
		log.Warn().Str("module", "assistant").Str("sid", string(from)).Str("room", string(room)).Msg("trigger throttled")
		observability.IncAssistantRequest("trigger", "throttled")
		a.reject(from, msgThrottled)
		return
	}
	log.Info().Str("module", "assistant").Str("sid", string(from)).Str("room", string(room)).Msg("wake phrase detected")
	a.enqueue(room, trigger{
		from:    from,
		speaker: speaker,
		text:    text,
		context: a.rooms.TranscriptTail(room, a.cfg.ContextChars),
	})
}

// Summary answers the requester with a bulleted summary of the whole transcript.
func (a *Assistant) Summary(from domain.ConnectionID, room domain.RoomID) {
	if room == "" {
		a.reject(from, msgNoRoom)
		return
	}
	transcript := a.rooms.Transcript(room)
	if strings.TrimSpace(transcript) == "" {
		a.out.SendTo(from, protocol.TypeAIResponse, protocol.AIResponse{
			Sender:    SenderName,
			Text:      msgNoTranscript,
			Timestamp: time.Now().UTC(),
		})
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		v, err, shared := a.summaries.Do(string(room), func() (any, error) {
			return a.gen.Generate(a.ctx, BuildSummaryPrompt(transcript))
		})
		if err != nil {
			log.Error().Err(err).Str("module", "assistant").Str("room", string(room)).Msg("summary failed")
			observability.IncAssistantRequest("summary", "error")
			a.reject(from, UserMessage(err))
			return
		}
		log.Info().Str("module", "assistant").Str("sid", string(from)).Str("room", string(room)).Bool("shared", shared).Msg("summary ready")
		observability.IncAssistantRequest("summary", "ok")
		a.out.SendTo(from, protocol.TypeAIResponse, protocol.AIResponse{
			Sender:    SenderName,
			Text:      strings.TrimSpace(v.(string)),
			Timestamp: time.Now().UTC(),
		})
	}()
}

// Forget releases per-connection state.
func (a *Assistant) Forget(id domain.ConnectionID) {
	if a.limiter != nil {
		a.limiter.Forget(id)
	}
}

func (a *Assistant) State(room domain.RoomID) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.queues[room]; ok {
		return StatePending
	}
	return StateIdle
}

// Wait blocks until every in-flight and queued request has been answered.
func (a *Assistant) Wait() {
	a.wg.Wait()
}

// Close aborts outstanding generator calls and waits for the workers to exit.
func (a *Assistant) Close() {
	a.cancel()
	a.wg.Wait()
}

func (a *Assistant) enqueue(room domain.RoomID, t trigger) {
	a.mu.Lock()
	q, busy := a.queues[room]
	if busy && len(q.pending) >= a.cfg.QueueSize {
		a.mu.Unlock()
		log.Warn().Str("module", "assistant").Str("sid", string(t.from)).Str("room", string(room)).Msg("trigger dropped, queue full")
		observability.IncAssistantRequest("trigger", "dropped")
		a.reject(t.from, msgQueueFull)
		return
	}
	if !busy {
		q = &roomQueue{}
		a.queues[room] = q
	}
	q.pending = append(q.pending, t)
	if !busy {
		a.wg.Add(1)
		go a.drain(room)
	}
	a.mu.Unlock()
}

func (a *Assistant) drain(room domain.RoomID) {
	defer a.wg.Done()
	for {
		a.mu.Lock()
		q := a.queues[room]
		if len(q.pending) == 0 {
			delete(a.queues, room)
			a.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending = q.pending[1:]
		a.mu.Unlock()

		a.answer(room, t)
	}
}

func (a *Assistant) answer(room domain.RoomID, t trigger) {
	// per-call timeouts live in the provider client
	reply, err := a.gen.Generate(a.ctx, BuildPrompt(t.context, t.speaker, t.text))
	if err != nil {
		log.Error().Err(err).Str("module", "assistant").Str("room", string(room)).Str("sid", string(t.from)).Msg("assistant request failed")
		observability.IncAssistantRequest("trigger", "error")
		msg := UserMessage(err)
		notice := domain.NewChatEntry(domain.SystemConnectionID, WarningSenderName, msg)
		a.out.BroadcastToRoom(room, protocol.TypeChatMessage, notice, "")
		a.out.BroadcastToRoom(room, protocol.TypeAIResponse, protocol.AIResponse{
			Sender:    WarningSenderName,
			Text:      msg,
			IsError:   true,
			Timestamp: notice.Timestamp,
		}, "")
		return
	}

	entry := domain.NewChatEntry(domain.AssistantConnectionID, SenderName, strings.TrimSpace(reply))
	a.rooms.AppendChat(room, entry)
	observability.IncAssistantRequest("trigger", "ok")
	a.out.BroadcastToRoom(room, protocol.TypeAIResponse, protocol.AIResponse{
		Sender:    SenderName,
		Text:      entry.Message,
		Timestamp: entry.Timestamp,
	}, "")
	a.out.BroadcastToRoom(room, protocol.TypeChatMessage, entry, "")
}

func (a *Assistant) reject(to domain.ConnectionID, msg string) {
	a.out.SendTo(to, protocol.TypeAIResponse, protocol.AIResponse{
		Sender:    WarningSenderName,
		Text:      msg,
		IsError:   true,
		Timestamp: time.Now().UTC(),
	})
}
