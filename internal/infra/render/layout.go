package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanwahyu/field-report/internal/domain/report"
)

var categoryTitles = map[report.PhotoCategory]string{
	report.CategoryCover:         "Site Overview",
	report.CategoryBefore:        "Before Work",
	report.CategoryDuring:        "Work In Progress",
	report.CategoryAfter:         "After Work",
	report.CategoryFinal:         "Final Inspection",
	report.CategoryUncategorized: "Additional Photos",
}

// sink receives the report block by block. Markdown and Word documents
// share one layout through it.
type sink interface {
	title(text string)
	subtitle(text string)
	infoTable(rows [][2]string)
	heading(level int, text string)
	paragraph(text string)
	bullets(items []string)
	numbered(items []string)
	table(header []string, rows [][]string)
	notes(notes []report.CategorizedNote)
	photo(ctx context.Context, p report.Photo)
	footer(text string)
}

// layout writes the sections in report order.
func layout(ctx context.Context, d report.ReportData, out sink) {
	s := d.Summary

	out.title("Field Inspection Report")
	out.subtitle(report.ResolveScopeLabel(d.Metadata.ScopeType, strings.Join(d.CleanedNotes, "\n")))
	out.infoTable([][2]string{
		{"Client", orDash(d.Metadata.Client)},
		{"Site", orDash(d.Metadata.Site)},
		{"Technician", orDash(d.Metadata.Technician)},
		{"Date", orDash(d.Date)},
		{"Start Time", orDash(d.Time)},
		{"Units", orDash(d.Metadata.Units)},
	})

	if d.CoverPhoto != nil {
		out.photo(ctx, *d.CoverPhoto)
	}

	text(out, "Executive Summary", s.ExecutiveSummary)
	text(out, "Scope", s.ScopeDescription)
	text(out, "Site Conditions", s.SiteConditions)
	items(out, "Work Performed", s.WorkPerformedStructured, "No completed work documented.")
	items(out, "Work In Progress", s.WorkInProgress, "")
	items(out, "Required Corrective Actions", s.RequiredCorrectiveActions, "No corrective actions required.")
	items(out, "Verification Methods", s.VerificationMethods, "")
	text(out, "Final Results", s.FinalResults)
	if len(s.IntelligentRecommendations) > 0 {
		out.heading(1, "Recommendations")
		out.numbered(s.IntelligentRecommendations)
	}
	text(out, "Next Steps", s.NextSteps)

	a := d.Analysis
	out.heading(1, "Analysis Summary")
	out.bullets([]string{
		fmt.Sprintf("Total notes: %d", a.TotalNotes),
		fmt.Sprintf("Critical: %d", a.CriticalCount),
		fmt.Sprintf("Warnings: %d", a.WarningCount),
		fmt.Sprintf("Normal: %d", a.NormalCount),
	})

	items(out, "Equipment", d.Equipment, "")
	if len(d.Measurements) > 0 {
		rows := make([][]string, len(d.Measurements))
		for i, m := range d.Measurements {
			rows[i] = []string{m.Parameter, fmt.Sprintf("%g", m.Value), m.Unit}
		}
		out.heading(1, "Measurements")
		out.table([]string{"Parameter", "Value", "Unit"}, rows)
	}

	if len(d.Notes) > 0 {
		out.heading(1, "Field Notes")
		out.notes(d.Notes)
	}

	if len(d.DocumentationPhotos) > 0 {
		out.heading(1, "Photo Documentation")
		for _, cat := range report.AllCategories {
			var photos []report.Photo
			for _, p := range d.PhotosByCategory[cat] {
				if d.CoverPhoto != nil && p.ID == d.CoverPhoto.ID {
					continue
				}
				photos = append(photos, p)
			}
			if len(photos) == 0 {
				continue
			}
			out.heading(2, categoryTitles[cat])
			for _, p := range photos {
				out.photo(ctx, p)
			}
		}
	}

	out.footer("Generated " + d.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
}

func text(out sink, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	out.heading(1, title)
	out.paragraph(body)
}

// items renders a bullet section; an empty list shows the empty line, or nothing when empty is "".
func items(out sink, title string, list []string, empty string) {
	if len(list) == 0 && empty == "" {
		return
	}
	out.heading(1, title)
	if len(list) == 0 {
		out.paragraph(empty)
		return
	}
	out.bullets(list)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
