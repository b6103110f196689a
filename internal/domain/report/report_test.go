package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		caption string
		want    PhotoCategory
	}{
		{"Site overview from gate", CategoryCover},
		{"before final check", CategoryBefore},
		{"Installing new bearing", CategoryDuring},
		{"cleaned up afterward", CategoryAfter},
		{"Final inspection sign-off", CategoryFinal},
		{"pump nameplate", CategoryUncategorized},
		{"   ", CategoryUncategorized},
		{"No caption provided", CategoryUncategorized},
	}
	for _, tc := range cases {
		t.Run(tc.caption, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(tc.caption))
		})
	}
}

func TestGroupPhotosKeepsEveryBucket(t *testing.T) {
	photos := CategorizePhotos([]Photo{
		{ID: "a", Caption: "after repair"},
		{ID: "b", Caption: "nameplate"},
		{ID: "c", Caption: "completed work"},
	})
	groups := GroupPhotos(photos)

	require.Len(t, groups, len(AllCategories))
	assert.Empty(t, groups[CategoryCover])
	assert.NotNil(t, groups[CategoryCover])
	assert.Equal(t, []string{"a", "c"}, ids(groups[CategoryAfter]))
	assert.Equal(t, []string{"b"}, ids(groups[CategoryUncategorized]))
}

func ids(ps []Photo) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestDetectScope(t *testing.T) {
	assert.Equal(t, ScopeRepair, DetectScope("Replaced the shaft seal"))
	assert.Equal(t, ScopePreventive, DetectScope("Routine quarterly check"))
	assert.Equal(t, ScopeEmergency, DetectScope("URGENT call out"))
	// earlier scopes win
	assert.Equal(t, ScopeInitial, DetectScope("initial visit, repair needed"))
	assert.Equal(t, ScopeInitial, DetectScope(""))
}

func TestResolveScopeLabel(t *testing.T) {
	assert.Equal(t, "Warranty Inspection and Validation Report", ResolveScopeLabel(ScopeWarranty, "repair"))
	assert.Equal(t, "Equipment Repair and Service Report", ResolveScopeLabel("", "fix the pump"))
	assert.Equal(t, "custom", ResolveScopeLabel("custom", ""))
}

func TestParseScopeChoice(t *testing.T) {
	s, ok := ParseScopeChoice("6")
	assert.True(t, ok)
	assert.Equal(t, ScopeEmergency, s)

	s, ok = ParseScopeChoice(" Warranty ")
	assert.True(t, ok)
	assert.Equal(t, ScopeWarranty, s)

	for _, bad := range []string{"0", "7", "12", "later"} {
		_, ok := ParseScopeChoice(bad)
		assert.False(t, ok, bad)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	notes := []CategorizedNote{
		{CleanedText: "Seal leaking", Type: NoteIssue, Severity: SeverityCritical},
		{CleanedText: "Vibration high", Type: NoteIssue, Severity: SeverityWarning},
		{CleanedText: "Replace filter", Type: NoteRecommendation, Severity: SeverityNormal},
		FallbackNote(3, "raw text", now),
	}
	s := Summarize(notes)

	assert.Equal(t, 4, s.TotalNotes)
	assert.Equal(t, 1, s.CriticalCount)
	assert.Equal(t, 1, s.WarningCount)
	assert.Equal(t, 2, s.NormalCount)
	assert.Equal(t, []string{"Seal leaking", "Vibration high"}, s.MainIssues)
	assert.Equal(t, []string{"Replace filter"}, s.Recommendations)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.TotalNotes)
	assert.NotNil(t, empty.MainIssues)
}

func TestFallbackNote(t *testing.T) {
	n := FallbackNote(0, "pmp leak", time.Time{})
	assert.Equal(t, "note-1", n.ID)
	assert.Equal(t, "pmp leak", n.OriginalText)
	assert.Equal(t, "pmp leak", n.CleanedText)
	assert.Equal(t, NoteObservation, n.Type)
	assert.Equal(t, SeverityNormal, n.Severity)
	assert.Equal(t, []string{FallbackTag}, n.Tags)
	assert.InDelta(t, FallbackConfidence, n.Confidence, 1e-9)
}

func TestAllEquipmentDedupsInOrder(t *testing.T) {
	notes := []CategorizedNote{
		{Entities: Entities{Equipment: []string{"Pump P-1", "Valve V-2"}}},
		{Entities: Entities{Equipment: []string{"Pump P-1", "Motor M-3"}}},
	}
	assert.Equal(t, []string{"Pump P-1", "Valve V-2", "Motor M-3"}, AllEquipment(notes))
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession("u1", time.Time{})
	s.Notes = append(s.Notes, "one")
	s.Photos = append(s.Photos, Photo{ID: "p1"})

	c := s.Clone()
	c.Notes[0] = "changed"
	c.Photos[0].ID = "p2"

	assert.Equal(t, "one", s.Notes[0])
	assert.Equal(t, "p1", s.Photos[0].ID)
	assert.NotNil(t, NewSession("u2", time.Time{}).Clone().Notes)
}
