package report

import (
	"fmt"
	"strings"
	"time"
)

// NoteType enum
type NoteType string

const (
	NoteObservation    NoteType = "observation"
	NoteMeasurement    NoteType = "measurement"
	NoteIssue          NoteType = "issue"
	NoteRecommendation NoteType = "recommendation"
	NoteSafety         NoteType = "safety"
)

// Severity enum
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParseNoteType maps free text to a NoteType, defaulting to observation.
func ParseNoteType(s string) NoteType {
	switch t := NoteType(strings.ToLower(strings.TrimSpace(s))); t {
	case NoteObservation, NoteMeasurement, NoteIssue, NoteRecommendation, NoteSafety:
		return t
	}
	return NoteObservation
}

// ParseSeverity maps free text to a Severity, defaulting to normal.
func ParseSeverity(s string) Severity {
	switch v := Severity(strings.ToLower(strings.TrimSpace(s))); v {
	case SeverityNormal, SeverityWarning, SeverityCritical:
		return v
	}
	return SeverityNormal
}

// Measurement value object
type Measurement struct {
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Parameter string  `json:"parameter"`
}

// Entities extracted from a single note
type Entities struct {
	Equipment    []string      `json:"equipment"`
	Measurements []Measurement `json:"measurements"`
	Locations    []string      `json:"locations"`
	Personnel    []string      `json:"personnel"`
}

// EmptyEntities returns entities with non-nil empty sequences.
func EmptyEntities() Entities {
	return Entities{
		Equipment:    []string{},
		Measurements: []Measurement{},
		Locations:    []string{},
		Personnel:    []string{},
	}
}

// CategorizedNote is in 1:1 index correspondence with a raw note.
type CategorizedNote struct {
	ID           string    `json:"id"`
	OriginalText string    `json:"original_text"`
	CleanedText  string    `json:"cleaned_text"`
	Type         NoteType  `json:"type"`
	Severity     Severity  `json:"severity"`
	Entities     Entities  `json:"entities"`
	Tags         []string  `json:"tags"`
	Confidence   float64   `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
}

// NoteID derives the stable id for the note at index.
func NoteID(index int) string {
	return fmt.Sprintf("note-%d", index+1)
}

const (
	// DefaultConfidence is used when the classifier omits a usable confidence
	DefaultConfidence  = 0.7
	FallbackConfidence = 0.5
	FallbackTag        = "unanalyzed"
)

// FallbackNote is substituted when analysis of a single note fails.
func FallbackNote(index int, text string, now time.Time) CategorizedNote {
	return CategorizedNote{
		ID:           NoteID(index),
		OriginalText: text,
		CleanedText:  text,
		Type:         NoteObservation,
		Severity:     SeverityNormal,
		Entities:     EmptyEntities(),
		Tags:         []string{FallbackTag},
		Confidence:   FallbackConfidence,
		Timestamp:    now,
	}
}

// AnalysisSummary is a pure reduction over categorized notes
type AnalysisSummary struct {
	TotalNotes      int      `json:"total_notes"`
	CriticalCount   int      `json:"critical_count"`
	WarningCount    int      `json:"warning_count"`
	NormalCount     int      `json:"normal_count"`
	MainIssues      []string `json:"main_issues"`
	Recommendations []string `json:"recommendations"`
}

const summaryExamples = 3

// Summarize counts severities and picks the first issue and recommendation texts.
func Summarize(notes []CategorizedNote) AnalysisSummary {
	s := AnalysisSummary{
		TotalNotes:      len(notes),
		MainIssues:      []string{},
		Recommendations: []string{},
	}
	for _, n := range notes {
		switch n.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityWarning:
			s.WarningCount++
		default:
			s.NormalCount++
		}
		switch n.Type {
		case NoteIssue:
			if len(s.MainIssues) < summaryExamples {
				s.MainIssues = append(s.MainIssues, n.CleanedText)
			}
		case NoteRecommendation:
			if len(s.Recommendations) < summaryExamples {
				s.Recommendations = append(s.Recommendations, n.CleanedText)
			}
		}
	}
	return s
}

// TextsWithSeverity returns cleaned texts of notes at the given severity, in order.
func TextsWithSeverity(notes []CategorizedNote, sev Severity) []string {
	out := []string{}
	for _, n := range notes {
		if n.Severity == sev {
			out = append(out, n.CleanedText)
		}
	}
	return out
}

// AllEquipment dedups equipment across notes, first-seen order.
func AllEquipment(notes []CategorizedNote) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, n := range notes {
		for _, e := range n.Entities.Equipment {
			if seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// AllMeasurements concatenates measurements in note order.
func AllMeasurements(notes []CategorizedNote) []Measurement {
	out := []Measurement{}
	for _, n := range notes {
		out = append(out, n.Entities.Measurements...)
	}
	return out
}
