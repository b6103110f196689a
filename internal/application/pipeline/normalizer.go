package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
	"github.com/bryanwahyu/field-report/internal/infra/ai/prompt"
)

const defaultConcurrency = 4

// Normalizer cleans raw field notes through the inference capability.
// Normalization never fails: on any error the raw note is kept as-is.
type Normalizer struct {
	AI          domai.Inferencer
	Concurrency int
	Log         *zap.Logger
}

func NewNormalizer(ai domai.Inferencer, concurrency int, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{AI: ai, Concurrency: concurrency, Log: log}
}

func (n *Normalizer) Normalize(ctx context.Context, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	out, err := n.AI.Infer(ctx, domai.Request{
		Op:          "normalize",
		System:      prompt.NormalizeSystem(),
		User:        raw,
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		n.Log.Warn("normalize failed, keeping raw note", zap.Error(err))
		return raw
	}
	cleaned := strings.TrimSpace(out)
	if cleaned == "" {
		return raw
	}
	return cleaned
}

// NormalizeAll cleans every note concurrently; result[i] always derives from notes[i].
func (n *Normalizer) NormalizeAll(ctx context.Context, notes []string) []string {
	out := make([]string, len(notes))
	forEachIndex(ctx, len(notes), n.Concurrency, func(ctx context.Context, i int) {
		if ctx.Err() != nil {
			out[i] = notes[i]
			return
		}
		out[i] = n.Normalize(ctx, notes[i])
	})
	return out
}

// forEachIndex runs fn for 0..count-1 with at most limit in flight.
// fn owns slot i of whatever it writes to, so no locking is needed.
func forEachIndex(ctx context.Context, count, limit int, fn func(ctx context.Context, i int)) {
	if limit <= 0 {
		limit = defaultConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}
