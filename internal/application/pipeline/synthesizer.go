package pipeline

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
	"github.com/bryanwahyu/field-report/internal/domain/report"
	"github.com/bryanwahyu/field-report/internal/infra/ai/prompt"
)

const (
	FallbackExecutiveSummary = "Inspection completed. See detailed findings below."
	FallbackSiteConditions   = "No specific site conditions documented."
	FallbackFinalResults     = "Inspection and repair work completed. Equipment status documented for maintenance planning."
	FallbackNextSteps        = "Schedule routine follow-up inspection."
	EmergencyNextSteps       = "Immediate action required on critical findings. Schedule emergency service within 24-48 hours."

	maxVerificationItems   = 8
	maxRecommendationItems = 5
)

// StandingRecommendations are merged after the model's items on every report.
var StandingRecommendations = []string{
	"Review parts inventory for critical spares",
	"Schedule preventive maintenance based on manufacturer guidance",
}

// Synthesizer produces the narrative report sections. Every method degrades
// to a deterministic fallback, none of them return errors.
type Synthesizer struct {
	AI  domai.Inferencer
	Log *zap.Logger
}

func NewSynthesizer(ai domai.Inferencer, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{AI: ai, Log: log}
}

// section runs one free-text call and returns the trimmed output, or "" on failure.
func (s *Synthesizer) section(ctx context.Context, op, system, text string, temp float64, maxTokens int) string {
	out, err := s.AI.Infer(ctx, domai.Request{
		Op:          op,
		System:      system,
		User:        prompt.FieldNotes(text),
		Temperature: temp,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		s.Log.Warn("section synthesis failed, using fallback", zap.String("stage", op), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(out)
}

func (s *Synthesizer) ExecutiveSummary(ctx context.Context, text string, critical, warning int) string {
	if out := s.section(ctx, "executive_summary", prompt.ExecutiveSummary(critical, warning), text, 0.3, 200); out != "" {
		return out
	}
	return FallbackExecutiveSummary
}

// Scope prefers the explicitly chosen scope over keyword detection.
func (s *Synthesizer) Scope(ctx context.Context, text string, scope report.ScopeType) string {
	label := report.ResolveScopeLabel(scope, text)
	if out := s.section(ctx, "scope", prompt.Scope(label), text, 0.3, 150); out != "" {
		return out
	}
	return "This report documents findings from a " + strings.ToLower(label) + "."
}

func (s *Synthesizer) SiteConditions(ctx context.Context, text string) string {
	if out := s.section(ctx, "site_conditions", prompt.SiteConditions(), text, 0.3, 200); out != "" {
		return out
	}
	return FallbackSiteConditions
}

func (s *Synthesizer) VerificationMethods(ctx context.Context, text string) []string {
	out := s.section(ctx, "verification_methods", prompt.VerificationMethods(), text, 0.2, 300)
	items := parseLines(out, maxVerificationItems)
	if len(items) == 0 {
		return []string{prompt.NoVerificationDocumented}
	}
	return items
}

func (s *Synthesizer) FinalResults(ctx context.Context, text string, critical, warning int, work report.WorkClassification) string {
	system := prompt.FinalResults(len(work.Completed), len(work.InProgress), len(work.Required), critical, warning)
	out := s.section(ctx, "final_results", system, text, 0.3, 300)
	if out == "" {
		out = FallbackFinalResults
	}
	return LinePerSentence(out)
}

func (s *Synthesizer) Recommendations(ctx context.Context, text string, criticalTexts, warningTexts []string) []string {
	out := s.section(ctx, "recommendations", prompt.Recommendations(criticalTexts, warningTexts), text, 0.3, 300)
	return MergeRecommendations(parseLines(out, 0))
}

// NextSteps never calls out when there is at least one critical finding.
func (s *Synthesizer) NextSteps(ctx context.Context, text string, critical int) string {
	if critical > 0 {
		return EmergencyNextSteps
	}
	if out := s.section(ctx, "next_steps", prompt.NextSteps(), text, 0.3, 100); out != "" {
		return out
	}
	return FallbackNextSteps
}

// Synthesize builds every section concurrently from a finished analysis and work classification.
func (s *Synthesizer) Synthesize(ctx context.Context, corpus string, analysis AnalysisResult, work report.WorkClassification, scope report.ScopeType) report.IntelligentSummary {
	var sum report.IntelligentSummary
	var g errgroup.Group
	s.startIndependent(ctx, &g, &sum, corpus, scope)
	s.startAnalysisBound(ctx, &g, &sum, corpus, analysis)
	g.Go(func() error {
		sum.FinalResults = s.FinalResults(ctx, corpus, analysis.Summary.CriticalCount, analysis.Summary.WarningCount, work)
		return nil
	})
	_ = g.Wait()
	applyWork(&sum, work)
	return sum
}

// Each goroutine below writes a distinct field of sum.

func (s *Synthesizer) startIndependent(ctx context.Context, g *errgroup.Group, sum *report.IntelligentSummary, corpus string, scope report.ScopeType) {
	g.Go(func() error {
		sum.ScopeDescription = s.Scope(ctx, corpus, scope)
		return nil
	})
	g.Go(func() error {
		sum.SiteConditions = s.SiteConditions(ctx, corpus)
		return nil
	})
	g.Go(func() error {
		sum.VerificationMethods = s.VerificationMethods(ctx, corpus)
		return nil
	})
}

func (s *Synthesizer) startAnalysisBound(ctx context.Context, g *errgroup.Group, sum *report.IntelligentSummary, corpus string, analysis AnalysisResult) {
	critical, warning := analysis.Summary.CriticalCount, analysis.Summary.WarningCount
	g.Go(func() error {
		sum.ExecutiveSummary = s.ExecutiveSummary(ctx, corpus, critical, warning)
		return nil
	})
	g.Go(func() error {
		sum.IntelligentRecommendations = s.Recommendations(ctx, corpus,
			report.TextsWithSeverity(analysis.Notes, report.SeverityCritical),
			report.TextsWithSeverity(analysis.Notes, report.SeverityWarning))
		return nil
	})
	g.Go(func() error {
		sum.NextSteps = s.NextSteps(ctx, corpus, critical)
		return nil
	})
}

func applyWork(sum *report.IntelligentSummary, work report.WorkClassification) {
	sum.WorkPerformedStructured = work.Completed
	sum.WorkInProgress = work.InProgress
	sum.RequiredCorrectiveActions = work.Required
}

// MergeRecommendations appends the standing items, dedups case-insensitively
// keeping the first occurrence, then truncates.
func MergeRecommendations(model []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range append(append([]string{}, model...), StandingRecommendations...) {
		r = strings.TrimSpace(r)
		key := strings.ToLower(r)
		if r == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	if len(out) > maxRecommendationItems {
		out = out[:maxRecommendationItems]
	}
	return out
}

var sentenceBreak = regexp.MustCompile(`\.\s+`)

// LinePerSentence puts each sentence on its own line, each ending in a single period.
func LinePerSentence(text string) string {
	parts := []string{}
	for _, p := range sentenceBreak.Split(strings.TrimSpace(text), -1) {
		p = strings.TrimSuffix(strings.TrimSpace(p), ".")
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	joined := strings.Join(parts, ".\n")
	if strings.HasSuffix(joined, "!") || strings.HasSuffix(joined, "?") {
		return joined
	}
	return joined + "."
}
