package retry

import (
	"context"
	"time"

	"go.uber.org/zap"

	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
)

// Inferencer retries a wrapped Inferencer with exponential backoff.
// The last error is returned unchanged so stage fallbacks still apply.
type Inferencer struct {
	Next     domai.Inferencer
	Attempts int
	Base     time.Duration
	Timeout  time.Duration // per attempt, 0 = none
	Log      *zap.Logger
}

func New(next domai.Inferencer, attempts int, base, timeout time.Duration, log *zap.Logger) domai.Inferencer {
	if attempts <= 1 && timeout <= 0 {
		return next
	}
	if attempts < 1 {
		attempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Inferencer{Next: next, Attempts: attempts, Base: base, Timeout: timeout, Log: log}
}

func (r *Inferencer) Infer(ctx context.Context, req domai.Request) (string, error) {
	var lastErr error
	delay := r.Base
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		out, err := r.once(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == r.Attempts {
			break
		}
		r.Log.Debug("retrying inference",
			zap.String("op", req.Op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", domai.Wrap(req.Op, ctx.Err())
		case <-t.C:
		}
		delay *= 2
	}
	return "", lastErr
}

func (r *Inferencer) once(ctx context.Context, req domai.Request) (string, error) {
	if r.Timeout <= 0 {
		return r.Next.Infer(ctx, req)
	}
	actx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	out, err := r.Next.Infer(actx, req)
	if err != nil && actx.Err() != nil && ctx.Err() == nil {
		return "", domai.Wrap(req.Op, actx.Err())
	}
	return out, err
}
