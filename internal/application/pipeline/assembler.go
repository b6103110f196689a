package pipeline

import (
	"strings"
	"time"

	"github.com/bryanwahyu/field-report/internal/domain/report"
)

const (
	DateLayout        = "1/2/2006"
	TimeLayout        = "3:04:05 PM"
	UnknownTechnician = "Unknown"
)

// Assemble builds the renderer contract. Pure; photos must already carry categories.
func Assemble(s *report.Session, username string, cleaned []string, analysis AnalysisResult, summary report.IntelligentSummary, now time.Time) report.ReportData {
	meta := s.Metadata
	if strings.TrimSpace(meta.Technician) == "" {
		meta.Technician = username
	}
	if strings.TrimSpace(meta.Technician) == "" {
		meta.Technician = UnknownTechnician
	}

	start := meta.StartTime
	if strings.TrimSpace(start) == "" {
		start = now.Format(TimeLayout)
	}

	photos := append([]report.Photo{}, s.Photos...)
	data := report.ReportData{
		Metadata:            meta,
		Date:                now.Format(DateLayout),
		Time:                start,
		RawNotes:            append([]string{}, s.Notes...),
		CleanedNotes:        cleaned,
		Notes:               analysis.Notes,
		Analysis:            analysis.Summary,
		Equipment:           report.AllEquipment(analysis.Notes),
		Measurements:        report.AllMeasurements(analysis.Notes),
		Photos:              photos,
		DocumentationPhotos: []report.Photo{},
		PhotosByCategory:    report.GroupPhotos(photos),
		Summary:             summary,
		GeneratedAt:         now,
	}
	if len(photos) > 0 {
		cover := photos[0]
		data.CoverPhoto = &cover
		data.DocumentationPhotos = append(data.DocumentationPhotos, photos[1:]...)
	}
	return data
}
