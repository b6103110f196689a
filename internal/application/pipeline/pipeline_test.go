package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/field-report/internal/application"
	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
	"github.com/bryanwahyu/field-report/internal/domain/report"
)

func pumpSession() *report.Session {
	s := report.NewSession("u-1", testNow)
	s.Notes = []string{
		"Pump P-1 leaking oil at shaft seal, ~2 drops/min",
		"Replaced shaft seal, tested at 150 psi, no leaks observed",
	}
	s.Photos = []report.Photo{{ID: "ph-1", Ref: "assets/u-1/ph-1.jpg", Caption: "after repair"}}
	return s
}

func pumpAI() *scriptedAI {
	return newScriptedAI().
		on("normalize", func(req domai.Request) (string, error) {
			return strings.ReplaceAll(req.User, "~", "approximately "), nil
		}).
		on("analyze", func(req domai.Request) (string, error) {
			if strings.Contains(req.User, "leaking") {
				return `{"type":"issue","severity":"warning","entities":{"equipment":["Pump P-1"],"measurements":[{"value":2,"unit":"drops/min","parameter":"leak rate"}]},"tags":["leak"],"confidence":0.9}`, nil
			}
			return `{"type":"measurement","severity":"normal","entities":{"equipment":["Pump P-1","shaft seal"],"measurements":[{"value":150,"unit":"psi","parameter":"test pressure"}]},"tags":["repair"]}`, nil
		}).
		reply("classify_work", `{"completed":["Replaced shaft seal on Pump P-1, verified by 150 psi pressure test with no leaks"],"inProgress":[],"required":[]}`).
		reply("executive_summary", "Pump P-1 inspected. 1 warning found. Pump operational.").
		reply("scope", "Repair of Pump P-1 shaft seal.").
		reply("site_conditions", "Site conditions not documented in field notes").
		reply("verification_methods", "- Pressure test at 150 psi, no leaks").
		reply("final_results", "Seal replaced. Tested at 150 psi. Pump operational").
		reply("recommendations", "Monitor seal for 30 days").
		reply("next_steps", "Schedule routine follow-up inspection per maintenance schedule.")
}

func TestRunPumpSealScenario(t *testing.T) {
	ai := pumpAI()
	p := New(ai, 2, application.FixedClock{T: testNow}, nil)
	s := pumpSession()

	res, err := p.Run(context.Background(), s, "tech_bob")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Analysis.Summary.TotalNotes)
	assert.Zero(t, res.Analysis.Summary.CriticalCount)
	require.NotEmpty(t, res.Work.Completed)
	assert.Contains(t, res.Work.Completed[0], "shaft seal")
	assert.Contains(t, res.Work.Completed[0], "150 psi")

	d := res.Data
	require.NotNil(t, d.CoverPhoto)
	assert.Equal(t, report.CategoryAfter, d.CoverPhoto.Category)
	assert.Equal(t, []report.Photo{*d.CoverPhoto}, d.PhotosByCategory[report.CategoryAfter])
	assert.Empty(t, d.DocumentationPhotos)

	assert.Equal(t, "Schedule routine follow-up inspection per maintenance schedule.", d.Summary.NextSteps)
	assert.Equal(t, "Seal replaced.\nTested at 150 psi.\nPump operational.", d.Summary.FinalResults)
	assert.Equal(t, res.Work.Completed, d.Summary.WorkPerformedStructured)
	assert.Equal(t, []string{"Pump P-1", "shaft seal"}, d.Equipment)
	assert.Len(t, d.Measurements, 2)
	assert.Equal(t, "Monitor seal for 30 days", d.Summary.IntelligentRecommendations[0])
	assert.Len(t, d.Summary.IntelligentRecommendations, 3)

	assert.Equal(t, "tech_bob", d.Metadata.Technician)
	assert.Equal(t, "3/14/2026", d.Date)
	assert.Equal(t, "3:04:05 PM", d.Time)
	assert.Equal(t, s.Notes, d.RawNotes)
	assert.Equal(t, "Pump P-1 leaking oil at shaft seal, approximately 2 drops/min", d.CleanedNotes[0])

	// the caller's session is untouched
	assert.Empty(t, s.Photos[0].Category)
}

func TestRunEmptySessionAbortsBeforeAnyCall(t *testing.T) {
	ai := pumpAI()
	p := New(ai, 2, application.FixedClock{T: testNow}, nil)

	_, err := p.Run(context.Background(), report.NewSession("u-2", testNow), "")
	require.ErrorIs(t, err, report.ErrPipelineAbort)
	assert.Zero(t, ai.total())

	_, err = p.Run(context.Background(), nil, "")
	assert.ErrorIs(t, err, report.ErrPipelineAbort)
}

func TestRunWithFailingInferenceStillProducesReport(t *testing.T) {
	ai := newScriptedAI()
	p := New(ai, 2, application.FixedClock{T: testNow}, nil)
	s := pumpSession()
	s.Photos = nil

	res, err := p.Run(context.Background(), s, "")
	require.NoError(t, err)

	d := res.Data
	assert.Equal(t, s.Notes, d.CleanedNotes)
	assert.Len(t, d.Notes, 2)
	assert.Equal(t, UnknownTechnician, d.Metadata.Technician)
	assert.Nil(t, d.CoverPhoto)
	assert.Equal(t, FallbackExecutiveSummary, d.Summary.ExecutiveSummary)
	assert.Equal(t, StandingRecommendations, d.Summary.IntelligentRecommendations)
	assert.Zero(t, res.Work.Total())
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	ai := pumpAI().on("analyze", func(domai.Request) (string, error) {
		once.Do(cancel)
		return "", context.Canceled
	})
	p := New(ai, 1, application.FixedClock{T: testNow}, nil)

	_, err := p.Run(ctx, pumpSession(), "")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunUsesExplicitScope(t *testing.T) {
	var scopePrompt string
	ai := pumpAI().on("scope", func(req domai.Request) (string, error) {
		scopePrompt = req.System
		return "Scope.", nil
	})
	s := pumpSession()
	s.Metadata.ScopeType = report.ScopeEmergency
	s.Metadata.StartTime = "09:15 AM"

	res, err := New(ai, 2, application.FixedClock{T: testNow}, nil).Run(context.Background(), s, "")
	require.NoError(t, err)
	assert.Contains(t, scopePrompt, report.ScopeEmergency.Label())
	assert.Equal(t, "09:15 AM", res.Data.Time)
}
