package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/observability"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPrimaryAttempts = 2
	maxBackoff             = 8 * time.Second
)

// Invoker calls the primary generator with retries on transient failures and
// then makes one attempt against the fallback. Permanent errors end the call
// immediately. Backoff doubles from BackoffBase between primary attempts;
// zero disables waiting.
type Invoker struct {
	Primary         core.Generator
	Fallback        core.Generator
	PrimaryAttempts int
	BackoffBase     time.Duration
}

func (iv *Invoker) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("connectify/assistant").Start(ctx, "assistant.generate")
	defer span.End()

	if iv.Primary == nil {
		span.SetStatus(codes.Error, core.ErrNotConfigured.Error())
		return "", core.ErrNotConfigured
	}

	attempts := iv.PrimaryAttempts
	if attempts <= 0 {
		attempts = defaultPrimaryAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := iv.call(ctx, iv.Primary, prompt, "primary", attempt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !core.IsTransient(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "permanent provider error")
			return "", err
		}
		if attempt < attempts {
			if err := sleep(ctx, iv.backoff(attempt)); err != nil {
				return "", err
			}
		}
	}

	if iv.Fallback == nil {
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, "primary exhausted")
		return "", lastErr
	}

	log.Warn().Err(lastErr).Str("module", "assistant").Int("attempts", attempts).Msg("primary exhausted, trying fallback")
	text, err := iv.call(ctx, iv.Fallback, prompt, "fallback", 1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback failed")
		return "", fmt.Errorf("fallback: %w", err)
	}
	return text, nil
}

func (iv *Invoker) call(ctx context.Context, g core.Generator, prompt, target string, attempt int) (string, error) {
	ctx, span := otel.Tracer("connectify/assistant").Start(ctx, "assistant.attempt",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("ai.target", target), attribute.Int("ai.attempt", attempt)),
	)
	defer span.End()

	observability.IncAssistantAttempt(target)
	text, err := g.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Str("module", "assistant").Str("target", target).Int("attempt", attempt).Msg("generate failed")
		return "", err
	}
	return text, nil
}

func (iv *Invoker) backoff(attempt int) time.Duration {
	if iv.BackoffBase <= 0 {
		return 0
	}
	d := iv.BackoffBase * time.Duration(1<<uint(attempt-1))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
