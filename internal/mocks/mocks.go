package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/domain"
)

type GeneratorMock struct {
	mock.Mock
}

func (m *GeneratorMock) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MeetingDeactivatorMock struct {
	mock.Mock
}

func (m *MeetingDeactivatorMock) Deactivate(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MeetingStoreMock struct {
	mock.Mock
}

func (m *MeetingStoreMock) Create(ctx context.Context, title, host string) (*domain.Meeting, error) {
	args := m.Called(ctx, title, host)
	var meeting *domain.Meeting
	if val := args.Get(0); val != nil {
		meeting = val.(*domain.Meeting)
	}
	return meeting, args.Error(1)
}

func (m *MeetingStoreMock) FindByCode(ctx context.Context, code string) (*domain.Meeting, error) {
	args := m.Called(ctx, code)
	var meeting *domain.Meeting
	if val := args.Get(0); val != nil {
		meeting = val.(*domain.Meeting)
	}
	return meeting, args.Error(1)
}

// Frame is a decoded outbound envelope captured by RecordingConn.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// RecordingConn is a core.SignalConnection that keeps every frame it is sent.
// With Full set it reports backpressure instead.
type RecordingConn struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
	Full   bool
}

func (c *RecordingConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	if c.Full {
		return core.ErrBackpressure
	}
	var fr Frame
	if err := json.Unmarshal(f, &fr); err != nil {
		return err
	}
	c.frames = append(c.frames, fr)
	return nil
}

func (c *RecordingConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Frames returns a copy of the captured frames.
func (c *RecordingConn) Frames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.frames...)
}

// OfType returns the captured frames of one event type.
func (c *RecordingConn) OfType(eventType string) []Frame {
	var out []Frame
	for _, f := range c.Frames() {
		if f.Type == eventType {
			out = append(out, f)
		}
	}
	return out
}

func (c *RecordingConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}
