package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/field-report/internal/application"
	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
	"github.com/bryanwahyu/field-report/internal/domain/report"
)

func TestNormalizeFallbackKeepsInputByteForByte(t *testing.T) {
	ai := newScriptedAI().on("normalize", func(domai.Request) (string, error) {
		return "", domai.Wrap("normalize", errBoom)
	})
	n := NewNormalizer(ai, 2, nil)

	raw := "  P-1 leakin ~2 drops/min @ shaft seal\t"
	assert.Equal(t, raw, n.Normalize(context.Background(), raw))
}

func TestNormalizeEmptyOutputKeepsInput(t *testing.T) {
	ai := newScriptedAI().reply("normalize", "   ")
	n := NewNormalizer(ai, 2, nil)
	assert.Equal(t, "chk oil lvl", n.Normalize(context.Background(), "chk oil lvl"))
}

func TestNormalizeSkipsBlankNotes(t *testing.T) {
	ai := newScriptedAI().reply("normalize", "cleaned")
	n := NewNormalizer(ai, 2, nil)
	assert.Equal(t, "   ", n.Normalize(context.Background(), "   "))
	assert.Zero(t, ai.total())
}

func TestNormalizeAllPreservesOrder(t *testing.T) {
	ai := newScriptedAI().on("normalize", func(req domai.Request) (string, error) {
		if strings.HasSuffix(req.User, "3") {
			return "", errBoom
		}
		return strings.ToUpper(req.User), nil
	})
	n := NewNormalizer(ai, 3, nil)

	notes := []string{"note 0", "note 1", "note 2", "note 3", "note 4"}
	got := n.NormalizeAll(context.Background(), notes)
	assert.Equal(t, []string{"NOTE 0", "NOTE 1", "NOTE 2", "note 3", "NOTE 4"}, got)
}

func TestAnalyzeReturnsOneRecordPerNoteInOrder(t *testing.T) {
	ai := newScriptedAI().on("analyze", func(req domai.Request) (string, error) {
		switch {
		case strings.Contains(req.User, "leak"):
			return `{"type":"issue","severity":"critical","tags":["leak"]}`, nil
		case strings.Contains(req.User, "garbage"):
			return "this is not json", nil
		case strings.Contains(req.User, "noisy"):
			return `{"type":"observation","severity":"warning","confidence":0.8}`, nil
		}
		return "", errBoom
	})
	a := NewAnalyzer(ai, 2, application.FixedClock{T: testNow}, nil)

	notes := []string{"seal leak", "bearing noisy", "garbage reply", "network down"}
	res := a.Analyze(context.Background(), notes)

	require.Len(t, res.Notes, len(notes))
	for i, n := range res.Notes {
		assert.Equal(t, fmt.Sprintf("note-%d", i+1), n.ID)
		assert.Equal(t, notes[i], n.CleanedText)
		assert.Equal(t, testNow, n.Timestamp)
	}
	assert.Equal(t, report.SeverityCritical, res.Notes[0].Severity)
	assert.Equal(t, report.SeverityWarning, res.Notes[1].Severity)

	for _, i := range []int{2, 3} {
		fb := res.Notes[i]
		assert.Equal(t, report.NoteObservation, fb.Type)
		assert.Equal(t, report.SeverityNormal, fb.Severity)
		assert.Equal(t, []string{report.FallbackTag}, fb.Tags)
		assert.InDelta(t, report.FallbackConfidence, fb.Confidence, 1e-9)
	}

	assert.Equal(t, 4, res.Summary.TotalNotes)
	assert.Equal(t, 1, res.Summary.CriticalCount)
	assert.Equal(t, 1, res.Summary.WarningCount)
	assert.Equal(t, 2, res.Summary.NormalCount)
	assert.Equal(t, []string{"seal leak"}, res.Summary.MainIssues)
}

func TestAnalyzeKeepsOriginals(t *testing.T) {
	ai := newScriptedAI().reply("analyze", `{"type":"measurement"}`)
	a := NewAnalyzer(ai, 1, application.FixedClock{T: testNow}, nil)

	res := a.AnalyzeWithOriginals(context.Background(), []string{"prs 150"}, []string{"Pressure 150 psi"})
	require.Len(t, res.Notes, 1)
	assert.Equal(t, "prs 150", res.Notes[0].OriginalText)
	assert.Equal(t, "Pressure 150 psi", res.Notes[0].CleanedText)
}

func TestWorkClassifierFailureYieldsEmptyBuckets(t *testing.T) {
	for name, ai := range map[string]*scriptedAI{
		"error":       newScriptedAI(),
		"unparsable":  newScriptedAI().reply("classify_work", "completed: everything"),
		"wrong types": newScriptedAI().reply("classify_work", `{"completed":"all of it"}`),
	} {
		t.Run(name, func(t *testing.T) {
			wc := NewWorkClassifier(ai, nil).Classify(context.Background(), "notes")
			assert.NotNil(t, wc.Completed)
			assert.NotNil(t, wc.InProgress)
			assert.NotNil(t, wc.Required)
			assert.Zero(t, wc.Total())
		})
	}
}

func TestWorkClassifierUsesJSONMode(t *testing.T) {
	var seen domai.Request
	ai := newScriptedAI().on("classify_work", func(req domai.Request) (string, error) {
		seen = req
		return `{"completed":[],"inProgress":[],"required":["Order gasket"]}`, nil
	})
	wc := NewWorkClassifier(ai, nil).Classify(context.Background(), "need gasket")
	assert.True(t, seen.JSON)
	assert.Contains(t, seen.User, "need gasket")
	assert.Equal(t, []string{"Order gasket"}, wc.Required)
}

func TestNextStepsShortCircuitsOnCritical(t *testing.T) {
	ai := newScriptedAI().reply("next_steps", "Do something else.")
	s := NewSynthesizer(ai, nil)

	assert.Equal(t, EmergencyNextSteps, s.NextSteps(context.Background(), "all routine, nothing to see", 1))
	assert.Equal(t, EmergencyNextSteps, s.NextSteps(context.Background(), "", 7))
	assert.Zero(t, ai.count("next_steps"))

	assert.Equal(t, "Do something else.", s.NextSteps(context.Background(), "text", 0))
	assert.Equal(t, 1, ai.count("next_steps"))
}

func TestSectionFallbacks(t *testing.T) {
	s := NewSynthesizer(newScriptedAI(), nil)
	ctx := context.Background()

	assert.Equal(t, FallbackExecutiveSummary, s.ExecutiveSummary(ctx, "x", 0, 0))
	assert.Equal(t, FallbackSiteConditions, s.SiteConditions(ctx, "x"))
	assert.Equal(t, FallbackNextSteps, s.NextSteps(ctx, "x", 0))
	assert.Equal(t, []string{"No verification testing documented"}, s.VerificationMethods(ctx, "x"))
	assert.Equal(t,
		"Inspection and repair work completed.\nEquipment status documented for maintenance planning.",
		s.FinalResults(ctx, "x", 0, 0, report.EmptyWorkClassification()))
	assert.Equal(t,
		"This report documents findings from a warranty inspection and validation report.",
		s.Scope(ctx, "x", report.ScopeWarranty))
	assert.Equal(t, StandingRecommendations, s.Recommendations(ctx, "x", nil, nil))
}

func TestScopeDetectsFromTextWhenUnset(t *testing.T) {
	var label string
	ai := newScriptedAI().on("scope", func(req domai.Request) (string, error) {
		label = req.System
		return "Scope text.", nil
	})
	s := NewSynthesizer(ai, nil)
	assert.Equal(t, "Scope text.", s.Scope(context.Background(), "replaced the broken seal", ""))
	assert.Contains(t, label, report.ScopeRepair.Label())
}

func TestVerificationMethodsCapped(t *testing.T) {
	var lines []string
	for i := 1; i <= 12; i++ {
		lines = append(lines, fmt.Sprintf("%d. Test %d", i, i))
	}
	s := NewSynthesizer(newScriptedAI().reply("verification_methods", strings.Join(lines, "\n")), nil)
	got := s.VerificationMethods(context.Background(), "x")
	require.Len(t, got, 8)
	assert.Equal(t, "Test 1", got[0])
}

func TestFinalResultsOneSentencePerLine(t *testing.T) {
	out := "Seal replaced and tested at 150 psi. No leaks observed.  Pump returned to service. Monitor weekly."
	s := NewSynthesizer(newScriptedAI().reply("final_results", out), nil)
	got := s.FinalResults(context.Background(), "x", 0, 0, report.EmptyWorkClassification())
	assert.Equal(t,
		"Seal replaced and tested at 150 psi.\nNo leaks observed.\nPump returned to service.\nMonitor weekly.",
		got)
	assert.NotContains(t, got, "..")
}

func TestLinePerSentence(t *testing.T) {
	assert.Equal(t, "One.\nTwo?", LinePerSentence("One. Two?"))
	assert.Equal(t, "", LinePerSentence("   "))
	assert.Equal(t, "Single.", LinePerSentence("Single"))
}

func TestMergeRecommendations(t *testing.T) {
	tests := []struct {
		name  string
		model []string
		want  []string
	}{
		{
			name:  "standing items appended",
			model: []string{"Replace pump seal within 30 days"},
			want: []string{
				"Replace pump seal within 30 days",
				"Review parts inventory for critical spares",
				"Schedule preventive maintenance based on manufacturer guidance",
			},
		},
		{
			name:  "case-insensitive dedup",
			model: []string{"review PARTS inventory for critical spares", "Recheck alignment", "recheck alignment"},
			want: []string{
				"review PARTS inventory for critical spares",
				"Recheck alignment",
				"Schedule preventive maintenance based on manufacturer guidance",
			},
		},
		{
			name:  "five model items crowd out standing items",
			model: []string{"a", "b", "c", "d", "e", "f"},
			want:  []string{"a", "b", "c", "d", "e"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeRecommendations(tt.model)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 5)
		})
	}
}

func TestRecommendationsStripBullets(t *testing.T) {
	s := NewSynthesizer(newScriptedAI().reply("recommendations", "1. Replace seal\n- Flush reservoir\n"), nil)
	got := s.Recommendations(context.Background(), "x", []string{"seal leak"}, nil)
	assert.Equal(t, []string{
		"Replace seal",
		"Flush reservoir",
		StandingRecommendations[0],
		StandingRecommendations[1],
	}, got)
}
