package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Connectify/internal/app"
	"github.com/dkeye/Connectify/internal/app/orch"
	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/dkeye/Connectify/internal/mocks"
	"github.com/dkeye/Connectify/internal/protocol"
)

const room domain.RoomID = "ABCD12"

type fixture struct {
	asst         *Assistant
	orch         *orch.Orchestrator
	a, b         domain.ConnectionID
	connA, connB *mocks.RecordingConn
}

func newFixture(t *testing.T, gen core.Generator, cfg Config) *fixture {
	t.Helper()
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewDirectory(),
		Policy:   app.TolerantPolicy{},
	}
	f := &fixture{orch: o, connA: &mocks.RecordingConn{}, connB: &mocks.RecordingConn{}}
	f.a = o.Connect(f.connA, func() {})
	f.b = o.Connect(f.connB, func() {})
	require.NoError(t, o.Join(f.a, room))
	require.NoError(t, o.Join(f.b, room))
	f.connA.Reset()
	f.connB.Reset()

	f.asst = New(o.Rooms, o, gen, cfg)
	o.Assistant = f.asst
	t.Cleanup(f.asst.Close)
	return f
}

func aiResponses(t *testing.T, conn *mocks.RecordingConn) []protocol.AIResponse {
	t.Helper()
	var out []protocol.AIResponse
	for _, fr := range conn.OfType(protocol.TypeAIResponse) {
		var r protocol.AIResponse
		require.NoError(t, json.Unmarshal(fr.Data, &r))
		out = append(out, r)
	}
	return out
}

// blockingGenerator holds every call until release is closed.
type blockingGenerator struct {
	started chan string
	release chan struct{}

	mu      sync.Mutex
	prompts []string
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{started: make(chan string, 64), release: make(chan struct{})}
}

func (g *blockingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	n := len(g.prompts)
	g.mu.Unlock()
	g.started <- prompt
	select {
	case <-g.release:
		return fmt.Sprintf("answer %d", n), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *blockingGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func TestWakeWordAnswerReachesRoom(t *testing.T) {
	gen := new(mocks.GeneratorMock)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Hey Connectify, summarize this meeting")
	})).Return("Nothing to summarize yet.", nil).Once()
	f := newFixture(t, gen, Config{})

	f.asst.OnFragment(f.a, room, "Alice", "Hey Connectify, summarize this meeting")
	f.asst.Wait()

	for _, conn := range []*mocks.RecordingConn{f.connA, f.connB} {
		resp := aiResponses(t, conn)
		require.Len(t, resp, 1)
		assert.Equal(t, "Nothing to summarize yet.", resp[0].Text)
		assert.False(t, resp[0].IsError)
		assert.Len(t, conn.OfType(protocol.TypeChatMessage), 1)
	}

	history := f.orch.Rooms.ChatHistory(room)
	require.Len(t, history, 1)
	assert.Equal(t, domain.AssistantConnectionID, history[0].SenderID)
	assert.True(t, history[0].FromAssistant())
	gen.AssertExpectations(t)
}

func TestFragmentIsCaptionedForOthersAndRecorded(t *testing.T) {
	gen := new(mocks.GeneratorMock)
	f := newFixture(t, gen, Config{})

	f.asst.OnFragment(f.a, room, "Alice", "  just talking  ")
	f.asst.OnFragment(f.a, room, "Alice", "   ")
	f.asst.Wait()

	assert.Empty(t, f.connA.OfType(protocol.TypeLiveTranscription))
	captions := f.connB.OfType(protocol.TypeLiveTranscription)
	require.Len(t, captions, 1)
	var lt protocol.LiveTranscription
	require.NoError(t, json.Unmarshal(captions[0].Data, &lt))
	assert.Equal(t, "Alice", lt.Username)
	assert.Equal(t, "just talking", lt.Text)

	assert.Equal(t, "Alice: just talking\n", f.orch.Rooms.Transcript(room))
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestOverloadedProviderSurfacesWarning(t *testing.T) {
	primary := new(mocks.GeneratorMock)
	fallback := new(mocks.GeneratorMock)
	primary.On("Generate", mock.Anything, mock.Anything).Return("", core.ErrOverloaded)
	fallback.On("Generate", mock.Anything, mock.Anything).Return("", core.ErrOverloaded)
	f := newFixture(t, &Invoker{Primary: primary, Fallback: fallback, PrimaryAttempts: 2}, Config{})

	f.asst.OnFragment(f.a, room, "Alice", "hey connectify what did we decide")
	f.asst.Wait()

	primary.AssertNumberOfCalls(t, "Generate", 2)
	fallback.AssertNumberOfCalls(t, "Generate", 1)

	for _, conn := range []*mocks.RecordingConn{f.connA, f.connB} {
		resp := aiResponses(t, conn)
		require.Len(t, resp, 1)
		assert.True(t, resp[0].IsError)
		assert.Contains(t, resp[0].Text, "overloaded")

		chat := conn.OfType(protocol.TypeChatMessage)
		require.Len(t, chat, 1)
		var entry domain.ChatEntry
		require.NoError(t, json.Unmarshal(chat[0].Data, &entry))
		assert.Equal(t, WarningSenderName, entry.Username)
	}
	assert.Empty(t, f.orch.Rooms.ChatHistory(room))
}

func TestSlowPrimaryFallsBackWithinOneRequest(t *testing.T) {
	primary := new(mocks.GeneratorMock)
	fallback := new(mocks.GeneratorMock)
	primary.On("Generate", mock.Anything, mock.Anything).Return("", core.ErrOverloaded).After(60 * time.Millisecond)
	fallback.On("Generate", mock.Anything, mock.Anything).Return("fallback answer", nil).Once()
	gen := &Invoker{Primary: primary, Fallback: fallback, PrimaryAttempts: 2, BackoffBase: 20 * time.Millisecond}
	f := newFixture(t, gen, Config{})

	f.asst.OnFragment(f.a, room, "Alice", "hey connectify are we on track")
	f.asst.Wait()

	primary.AssertNumberOfCalls(t, "Generate", 2)
	fallback.AssertExpectations(t)
	resp := aiResponses(t, f.connB)
	require.Len(t, resp, 1)
	assert.False(t, resp[0].IsError)
	assert.Equal(t, "fallback answer", resp[0].Text)
}

func TestMissingConfigurationGivesHint(t *testing.T) {
	f := newFixture(t, nil, Config{})

	f.asst.OnFragment(f.a, room, "Alice", "Connectify are you there")
	f.asst.Wait()

	resp := aiResponses(t, f.connB)
	require.Len(t, resp, 1)
	assert.True(t, resp[0].IsError)
	assert.Contains(t, resp[0].Text, "api_key")
}

func TestTriggersAreQueuedPerRoom(t *testing.T) {
	gen := newBlockingGenerator()
	f := newFixture(t, gen, Config{QueueSize: 2})

	f.asst.OnFragment(f.a, room, "Alice", "connectify one")
	<-gen.started
	assert.Equal(t, StatePending, f.asst.State(room))

	f.asst.OnFragment(f.a, room, "Alice", "connectify two")
	f.asst.OnFragment(f.b, room, "Bob", "connectify three")
	f.asst.OnFragment(f.b, room, "Bob", "connectify four")

	dropped := aiResponses(t, f.connB)
	require.Len(t, dropped, 1, "only the overflowing trigger is rejected, and only to its sender")
	assert.True(t, dropped[0].IsError)
	assert.Equal(t, msgQueueFull, dropped[0].Text)
	assert.Equal(t, 1, gen.calls(), "one call in flight per room")

	close(gen.release)
	f.asst.Wait()

	assert.Equal(t, 3, gen.calls())
	assert.Contains(t, gen.prompts[0], "connectify one")
	assert.Contains(t, gen.prompts[1], "connectify two")
	assert.Contains(t, gen.prompts[2], "connectify three")
	assert.Equal(t, StateIdle, f.asst.State(room))
	assert.Len(t, f.orch.Rooms.ChatHistory(room), 3)
}

func TestTriggerThrottle(t *testing.T) {
	gen := new(mocks.GeneratorMock)
	gen.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)
	f := newFixture(t, gen, Config{TriggerLimit: 2, TriggerWindow: time.Minute})

	for range 3 {
		f.asst.OnFragment(f.a, room, "Alice", "hey connectify")
		f.asst.Wait()
	}

	gen.AssertNumberOfCalls(t, "Generate", 2)
	var throttled int
	for _, r := range aiResponses(t, f.connA) {
		if r.IsError && r.Text == msgThrottled {
			throttled++
		}
	}
	assert.Equal(t, 1, throttled)
}

func TestSummaryGoesOnlyToRequester(t *testing.T) {
	gen := new(mocks.GeneratorMock)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Alice: we ship friday")
	})).Return("- ship on Friday", nil).Once()
	f := newFixture(t, gen, Config{})

	f.asst.OnFragment(f.a, room, "Alice", "we ship friday")
	f.asst.Summary(f.b, room)
	f.asst.Wait()

	resp := aiResponses(t, f.connB)
	require.Len(t, resp, 1)
	assert.Equal(t, "- ship on Friday", resp[0].Text)
	assert.Empty(t, aiResponses(t, f.connA))
	gen.AssertExpectations(t)
}

func TestSummaryOfEmptyTranscriptSkipsProvider(t *testing.T) {
	gen := new(mocks.GeneratorMock)
	f := newFixture(t, gen, Config{})

	f.asst.Summary(f.a, room)
	f.asst.Wait()

	resp := aiResponses(t, f.connA)
	require.Len(t, resp, 1)
	assert.Equal(t, msgNoTranscript, resp[0].Text)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestConcurrentSummariesShareOneCall(t *testing.T) {
	gen := newBlockingGenerator()
	f := newFixture(t, gen, Config{})
	f.orch.Rooms.AppendTranscript(room, "Alice: status update\n")

	f.asst.Summary(f.a, room)
	<-gen.started
	f.asst.Summary(f.b, room)
	time.Sleep(50 * time.Millisecond)
	close(gen.release)
	f.asst.Wait()

	assert.Equal(t, 1, gen.calls())
	assert.Len(t, aiResponses(t, f.connA), 1)
	assert.Len(t, aiResponses(t, f.connB), 1)
}

func TestBuildPromptCarriesContext(t *testing.T) {
	p := BuildPrompt("Bob: budget is 10k\n", "Alice", "hey connectify what is the budget")
	assert.Contains(t, p, "Connectify AI")
	assert.Contains(t, p, "Bob: budget is 10k")
	assert.Contains(t, p, `Alice just said: "hey connectify what is the budget"`)

	assert.Contains(t, BuildPrompt("", "Alice", "x"), "(empty)")
}
