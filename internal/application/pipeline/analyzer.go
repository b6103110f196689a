package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/bryanwahyu/field-report/internal/application"
	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
	"github.com/bryanwahyu/field-report/internal/domain/report"
	"github.com/bryanwahyu/field-report/internal/infra/ai/prompt"
)

// AnalysisResult pairs per-note records with their aggregate.
type AnalysisResult struct {
	Notes   []report.CategorizedNote `json:"notes"`
	Summary report.AnalysisSummary   `json:"summary"`
}

// Analyzer classifies each cleaned note with type, severity, entities and tags.
type Analyzer struct {
	AI          domai.Inferencer
	Concurrency int
	Clock       application.Clock
	Log         *zap.Logger
}

func NewAnalyzer(ai domai.Inferencer, concurrency int, clock application.Clock, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Analyzer{AI: ai, Concurrency: concurrency, Clock: clock, Log: log}
}

// Analyze treats each cleaned note as its own original text.
func (a *Analyzer) Analyze(ctx context.Context, cleaned []string) AnalysisResult {
	return a.AnalyzeWithOriginals(ctx, cleaned, cleaned)
}

// AnalyzeWithOriginals returns exactly len(cleaned) records in index order,
// however many individual analyses fail.
func (a *Analyzer) AnalyzeWithOriginals(ctx context.Context, originals, cleaned []string) AnalysisResult {
	notes := make([]report.CategorizedNote, len(cleaned))
	forEachIndex(ctx, len(cleaned), a.Concurrency, func(ctx context.Context, i int) {
		original := cleaned[i]
		if i < len(originals) {
			original = originals[i]
		}
		notes[i] = a.categorize(ctx, i, original, cleaned[i])
	})
	return AnalysisResult{Notes: notes, Summary: report.Summarize(notes)}
}

func (a *Analyzer) categorize(ctx context.Context, i int, original, cleaned string) report.CategorizedNote {
	now := a.Clock.Now()
	fallback := report.FallbackNote(i, cleaned, now)
	fallback.OriginalText = original
	if ctx.Err() != nil {
		return fallback
	}

	out, err := a.AI.Infer(ctx, domai.Request{
		Op:          "analyze",
		System:      prompt.AnalyzeSystem(),
		User:        prompt.AnalyzeUser(cleaned),
		Temperature: 0.2,
		MaxTokens:   1000,
		JSON:        true,
	})
	if err != nil {
		a.Log.Warn("note analysis failed, using fallback", zap.Int("note_index", i), zap.Error(err))
		return fallback
	}
	f, err := decodeNote(out)
	if err != nil {
		a.Log.Warn("note analysis unparsable, using fallback", zap.Int("note_index", i), zap.Error(err))
		return fallback
	}
	return report.CategorizedNote{
		ID:           report.NoteID(i),
		OriginalText: original,
		CleanedText:  cleaned,
		Type:         f.Type,
		Severity:     f.Severity,
		Entities:     f.Entities,
		Tags:         f.Tags,
		Confidence:   f.Confidence,
		Timestamp:    now,
	}
}
