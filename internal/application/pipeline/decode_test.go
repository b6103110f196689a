package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/field-report/internal/domain/report"
)

func TestDecodeNote(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantType  report.NoteType
		wantSev   report.Severity
		wantConf  float64
		wantTags  []string
		wantEquip []string
		wantMeas  int
	}{
		{
			name:      "full payload",
			raw:       `{"type":"issue","severity":"critical","confidence":0.9,"tags":["leak","seal"],"entities":{"equipment":["Pump P-1"],"measurements":[{"value":2,"unit":"drops/min","parameter":"leak rate"}]}}`,
			wantType:  report.NoteIssue,
			wantSev:   report.SeverityCritical,
			wantConf:  0.9,
			wantTags:  []string{"leak", "seal"},
			wantEquip: []string{"Pump P-1"},
			wantMeas:  1,
		},
		{
			name:      "unknown enums and missing fields",
			raw:       `{"type":"gossip","severity":"meh"}`,
			wantType:  report.NoteObservation,
			wantSev:   report.SeverityNormal,
			wantConf:  report.DefaultConfidence,
			wantTags:  []string{},
			wantEquip: []string{},
		},
		{
			name:      "wrong shapes",
			raw:       `{"type":"measurement","confidence":"high","tags":"leak","entities":{"equipment":"pump","measurements":[{"unit":"psi"},{"value":"150","unit":"psi"}]}}`,
			wantType:  report.NoteMeasurement,
			wantSev:   report.SeverityNormal,
			wantConf:  report.DefaultConfidence,
			wantTags:  []string{},
			wantEquip: []string{},
			wantMeas:  1,
		},
		{
			name:      "null confidence and null measurement value",
			raw:       `{"confidence":null,"entities":{"measurements":[{"value":null,"unit":"psi","parameter":"pressure"}]}}`,
			wantType:  report.NoteObservation,
			wantSev:   report.SeverityNormal,
			wantConf:  report.DefaultConfidence,
			wantTags:  []string{},
			wantEquip: []string{},
		},
		{
			name:      "duplicate equipment collapsed in first-seen order",
			raw:       `{"entities":{"equipment":["P-1","Valve V-2","P-1"]}}`,
			wantType:  report.NoteObservation,
			wantSev:   report.SeverityNormal,
			wantConf:  report.DefaultConfidence,
			wantTags:  []string{},
			wantEquip: []string{"P-1", "Valve V-2"},
		},
		{
			name:      "non-string tags dropped and confidence clamped",
			raw:       "```json\n{\"tags\":[\"ok\",3,null,\"  \"],\"confidence\":7}\n```",
			wantType:  report.NoteObservation,
			wantSev:   report.SeverityNormal,
			wantConf:  1,
			wantTags:  []string{"ok"},
			wantEquip: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeNote(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantSev, got.Severity)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantTags, got.Tags)
			assert.Equal(t, tt.wantEquip, got.Entities.Equipment)
			assert.Len(t, got.Entities.Measurements, tt.wantMeas)
			assert.NotNil(t, got.Entities.Locations)
		})
	}
}

func TestDecodeNoteRejectsNonObject(t *testing.T) {
	for _, raw := range []string{"", "null", "[1,2]", "not json", `"text"`} {
		_, err := decodeNote(raw)
		assert.ErrorIs(t, err, report.ErrValidation, raw)
	}
}

func TestDecodeWorkAcceptsSnakeCase(t *testing.T) {
	wc, err := decodeWork(`{"completed":["Replaced seal"],"in_progress":["Flushing lines"],"required":["", "Order gasket"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Replaced seal"}, wc.Completed)
	assert.Equal(t, []string{"Flushing lines"}, wc.InProgress)
	assert.Equal(t, []string{"Order gasket"}, wc.Required)
}

func TestParseLines(t *testing.T) {
	text := "- Pressure test at 150 psi\n\n2. Leak check\n• Cycled cylinder 10 times\n3) Visual inspection"
	assert.Equal(t, []string{
		"Pressure test at 150 psi",
		"Leak check",
		"Cycled cylinder 10 times",
		"Visual inspection",
	}, parseLines(text, 0))
	assert.Len(t, parseLines(text, 2), 2)
}

func TestParseLinesKeepsLeadingNumbers(t *testing.T) {
	text := "2.5 hour run test at rated load
1. -5 C ambient start
10) Leak check"
	assert.Equal(t, []string{
		"2.5 hour run test at rated load",
		"-5 C ambient start",
		"Leak check",
	}, parseLines(text, 0))
}

func TestDecodeEntitiesDeduplicated(t *testing.T) {
	f, err := decodeNote(`{"entities":{"locations":["bay 3","bay 3"],"personnel":["Dana","Lee","Dana"]}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"bay 3"}, f.Entities.Locations)
	assert.Equal(t, []string{"Dana", "Lee"}, f.Entities.Personnel)
}
