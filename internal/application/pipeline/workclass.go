package pipeline

import (
	"context"

	"go.uber.org/zap"

	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
	"github.com/bryanwahyu/field-report/internal/domain/report"
	"github.com/bryanwahyu/field-report/internal/infra/ai/prompt"
)

// WorkClassifier partitions the whole corpus into completed / in-progress / required work.
type WorkClassifier struct {
	AI  domai.Inferencer
	Log *zap.Logger
}

func NewWorkClassifier(ai domai.Inferencer, log *zap.Logger) *WorkClassifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkClassifier{AI: ai, Log: log}
}

// Classify never errors; a failed or unparsable call yields three empty buckets.
func (w *WorkClassifier) Classify(ctx context.Context, corpus string) report.WorkClassification {
	out, err := w.AI.Infer(ctx, domai.Request{
		Op:          "classify_work",
		System:      prompt.WorkSystem(),
		User:        prompt.FieldNotes(corpus),
		Temperature: 0.1,
		MaxTokens:   1000,
		JSON:        true,
	})
	if err != nil {
		w.Log.Warn("work classification failed", zap.Error(err))
		return report.EmptyWorkClassification()
	}
	wc, err := decodeWork(out)
	if err != nil {
		w.Log.Warn("work classification unparsable", zap.Error(err))
		return report.EmptyWorkClassification()
	}
	return wc
}
