package report

import "time"

// WorkClassification partitions described work by completion status
type WorkClassification struct {
	Completed  []string `json:"completed"`
	InProgress []string `json:"in_progress"`
	Required   []string `json:"required"`
}

// EmptyWorkClassification is the degraded result on classifier failure.
func EmptyWorkClassification() WorkClassification {
	return WorkClassification{
		Completed:  []string{},
		InProgress: []string{},
		Required:   []string{},
	}
}

// Total counts items across all buckets.
func (w WorkClassification) Total() int {
	return len(w.Completed) + len(w.InProgress) + len(w.Required)
}

// IntelligentSummary is the synthesized section bundle
type IntelligentSummary struct {
	ExecutiveSummary           string   `json:"executive_summary"`
	ScopeDescription           string   `json:"scope_description"`
	SiteConditions             string   `json:"site_conditions"`
	WorkPerformedStructured    []string `json:"work_performed_structured"`
	WorkInProgress             []string `json:"work_in_progress"`
	RequiredCorrectiveActions  []string `json:"required_corrective_actions"`
	VerificationMethods        []string `json:"verification_methods"`
	FinalResults               string   `json:"final_results"`
	IntelligentRecommendations []string `json:"intelligent_recommendations"`
	NextSteps                  string   `json:"next_steps"`
}

// ReportData is the contract handed to the renderer
type ReportData struct {
	Metadata            Metadata                  `json:"metadata"`
	Date                string                    `json:"date"`
	Time                string                    `json:"time"`
	RawNotes            []string                  `json:"raw_notes"`
	CleanedNotes        []string                  `json:"cleaned_notes"`
	Notes               []CategorizedNote         `json:"notes"`
	Analysis            AnalysisSummary           `json:"analysis"`
	Equipment           []string                  `json:"equipment"`
	Measurements        []Measurement             `json:"measurements"`
	Photos              []Photo                   `json:"photos"`
	CoverPhoto          *Photo                    `json:"cover_photo,omitempty"`
	DocumentationPhotos []Photo                   `json:"documentation_photos"`
	PhotosByCategory    map[PhotoCategory][]Photo `json:"photos_by_category"`
	Summary             IntelligentSummary        `json:"summary"`
	GeneratedAt         time.Time                 `json:"generated_at"`
}
