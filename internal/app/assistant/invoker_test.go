package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/mocks"
)

func TestInvokerRetryBound(t *testing.T) {
	primary := new(mocks.GeneratorMock)
	fallback := new(mocks.GeneratorMock)
	overloaded := fmt.Errorf("%w: model busy", core.ErrOverloaded)
	primary.On("Generate", mock.Anything, "p").Return("", overloaded)
	fallback.On("Generate", mock.Anything, "p").Return("", overloaded)

	iv := &Invoker{Primary: primary, Fallback: fallback, PrimaryAttempts: 2}
	_, err := iv.Generate(context.Background(), "p")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrOverloaded)
	primary.AssertNumberOfCalls(t, "Generate", 2)
	fallback.AssertNumberOfCalls(t, "Generate", 1)
}

func TestInvokerRecoversOnRetry(t *testing.T) {
	primary := new(mocks.GeneratorMock)
	fallback := new(mocks.GeneratorMock)
	primary.On("Generate", mock.Anything, "p").Return("", core.ErrRateLimited).Once()
	primary.On("Generate", mock.Anything, "p").Return("answer", nil).Once()

	iv := &Invoker{Primary: primary, Fallback: fallback, PrimaryAttempts: 2, BackoffBase: time.Millisecond}
	text, err := iv.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	primary.AssertExpectations(t)
	fallback.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestInvokerUsesFallbackAfterTransientFailures(t *testing.T) {
	primary := new(mocks.GeneratorMock)
	fallback := new(mocks.GeneratorMock)
	primary.On("Generate", mock.Anything, "p").Return("", core.ErrRateLimited)
	fallback.On("Generate", mock.Anything, "p").Return("from fallback", nil).Once()

	iv := &Invoker{Primary: primary, Fallback: fallback, PrimaryAttempts: 3}
	text, err := iv.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "from fallback", text)
	primary.AssertNumberOfCalls(t, "Generate", 3)
	fallback.AssertExpectations(t)
}

func TestInvokerSlowFailuresStillReachFallback(t *testing.T) {
	primary := new(mocks.GeneratorMock)
	fallback := new(mocks.GeneratorMock)
	primary.On("Generate", mock.Anything, "p").Return("", core.ErrOverloaded).After(40 * time.Millisecond)
	fallback.On("Generate", mock.Anything, "p").Return("from fallback", nil).Once()

	iv := &Invoker{Primary: primary, Fallback: fallback, PrimaryAttempts: 2, BackoffBase: 10 * time.Millisecond}
	text, err := iv.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "from fallback", text)
	primary.AssertNumberOfCalls(t, "Generate", 2)
	fallback.AssertExpectations(t)
}

func TestInvokerDoesNotRetryPermanentErrors(t *testing.T) {
	primary := new(mocks.GeneratorMock)
	fallback := new(mocks.GeneratorMock)
	badRequest := errors.New("gemini error 400: bad request")
	primary.On("Generate", mock.Anything, "p").Return("", badRequest).Once()

	iv := &Invoker{Primary: primary, Fallback: fallback, PrimaryAttempts: 2}
	_, err := iv.Generate(context.Background(), "p")

	assert.ErrorIs(t, err, badRequest)
	primary.AssertExpectations(t)
	fallback.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestInvokerWithoutPrimaryIsNotConfigured(t *testing.T) {
	_, err := (&Invoker{}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, core.ErrNotConfigured)
}

func TestInvokerStopsWaitingOnCancel(t *testing.T) {
	primary := new(mocks.GeneratorMock)
	primary.On("Generate", mock.Anything, "p").Return("", core.ErrOverloaded).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	iv := &Invoker{Primary: primary, PrimaryAttempts: 2, BackoffBase: time.Hour}
	_, err := iv.Generate(ctx, "p")

	assert.ErrorIs(t, err, context.Canceled)
	primary.AssertExpectations(t)
}

func TestBackoffDoubles(t *testing.T) {
	iv := &Invoker{BackoffBase: 100 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, iv.backoff(1))
	assert.Equal(t, 200*time.Millisecond, iv.backoff(2))
	assert.Equal(t, 400*time.Millisecond, iv.backoff(3))
	assert.Equal(t, maxBackoff, iv.backoff(20))
	assert.Equal(t, time.Duration(0), (&Invoker{}).backoff(1))
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(fmt.Errorf("x: %w", core.ErrOverloaded)), "overloaded")
	assert.Contains(t, UserMessage(core.ErrRateLimited), "too many requests")
	assert.Contains(t, UserMessage(core.ErrNotConfigured), "CONNECTIFY_AI_API_KEY")
	assert.Equal(t, msgFailed, UserMessage(errors.New("boom")))
}
