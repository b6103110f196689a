package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/field-report/internal/application"
	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
	"github.com/bryanwahyu/field-report/internal/domain/report"
)

// Result is everything a report run produced.
type Result struct {
	Data     report.ReportData
	Analysis AnalysisResult
	Work     report.WorkClassification
}

// Pipeline runs normalize, analyze, classify work, synthesize and assemble.
type Pipeline struct {
	Normalizer  *Normalizer
	Analyzer    *Analyzer
	Work        *WorkClassifier
	Synthesizer *Synthesizer
	Clock       application.Clock
	Log         *zap.Logger
}

// New wires every stage onto the same inference capability.
func New(ai domai.Inferencer, concurrency int, clock application.Clock, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Pipeline{
		Normalizer:  NewNormalizer(ai, concurrency, log.Named("normalize")),
		Analyzer:    NewAnalyzer(ai, concurrency, clock, log.Named("analyze")),
		Work:        NewWorkClassifier(ai, log.Named("work")),
		Synthesizer: NewSynthesizer(ai, log.Named("synthesize")),
		Clock:       clock,
		Log:         log,
	}
}

// Run never mutates s. It returns ErrPipelineAbort before any external call
// when there are no notes, and ctx.Err() when cancelled mid-run.
func (p *Pipeline) Run(ctx context.Context, s *report.Session, username string) (Result, error) {
	if s == nil || len(s.Notes) == 0 {
		return Result{}, fmt.Errorf("%w: no notes recorded", report.ErrPipelineAbort)
	}
	snap := s.Clone()
	started := time.Now()

	cleaned := p.Normalizer.NormalizeAll(ctx, snap.Notes)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	corpus := strings.Join(cleaned, "\n")

	var (
		res      Result
		summary  report.IntelligentSummary
		analysis = newFuture[AnalysisResult]()
		work     = newFuture[report.WorkClassification]()
		syn      = p.Synthesizer
		g, gctx  = errgroup.WithContext(ctx)
	)

	g.Go(func() error {
		analysis.set(p.Analyzer.AnalyzeWithOriginals(gctx, snap.Notes, cleaned))
		return nil
	})
	g.Go(func() error {
		work.set(p.Work.Classify(gctx, corpus))
		return nil
	})

	// Sections that only need the corpus start right away.
	syn.startIndependent(gctx, g, &summary, corpus, snap.Metadata.ScopeType)

	g.Go(func() error {
		a, err := analysis.wait(gctx)
		if err != nil {
			return err
		}
		var sg errgroup.Group
		syn.startAnalysisBound(gctx, &sg, &summary, corpus, a)
		return sg.Wait()
	})
	// finalResults depends on the work classification specifically.
	g.Go(func() error {
		a, err := analysis.wait(gctx)
		if err != nil {
			return err
		}
		w, err := work.wait(gctx)
		if err != nil {
			return err
		}
		summary.FinalResults = syn.FinalResults(gctx, corpus, a.Summary.CriticalCount, a.Summary.WarningCount, w)
		return nil
	})

	photos := report.CategorizePhotos(snap.Photos)

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// g.Wait returned nil, so both futures are set.
	res.Analysis = analysis.val
	res.Work = work.val
	applyWork(&summary, res.Work)

	snap.Photos = photos
	res.Data = Assemble(snap, username, cleaned, res.Analysis, summary, p.Clock.Now())

	p.Log.Info("report pipeline finished",
		zap.String("user_id", snap.UserID),
		zap.Int("notes", len(snap.Notes)),
		zap.Int("photos", len(photos)),
		zap.Int("critical", res.Analysis.Summary.CriticalCount),
		zap.Duration("took", time.Since(started)),
	)
	return res, nil
}

// future is a write-once value shared between stage goroutines.
type future[T any] struct {
	done chan struct{}
	val  T
}

func newFuture[T any]() *future[T] {
	return &future[T]{done: make(chan struct{})}
}

func (f *future[T]) set(v T) {
	f.val = v
	close(f.done)
}

func (f *future[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
