package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanwahyu/field-report/internal/domain/report"
)

// imageSource resolves a photo to an image src. ok=false renders the caption only.
type imageSource func(ctx context.Context, p report.Photo) (src string, ok bool)

// Markdown renders the report as a Markdown document. Photos link to their
// asset ref when Assets can read them.
type Markdown struct {
	Assets report.AssetStore
}

func NewMarkdown(assets report.AssetStore) *Markdown { return &Markdown{Assets: assets} }

func (m *Markdown) Extension() string   { return "md" }
func (m *Markdown) ContentType() string { return "text/markdown; charset=utf-8" }

func (m *Markdown) Render(ctx context.Context, data report.ReportData) ([]byte, error) {
	return []byte(buildDocument(ctx, data, m.source)), nil
}

func (m *Markdown) source(ctx context.Context, p report.Photo) (string, bool) {
	if m.Assets == nil || p.Ref == "" {
		return "", false
	}
	if _, err := m.Assets.Get(ctx, p.Ref); err != nil {
		return "", false
	}
	return p.Ref, true
}

func buildDocument(ctx context.Context, d report.ReportData, img imageSource) string {
	md := &markdownSink{img: img}
	layout(ctx, d, md)
	return md.b.String()
}

type markdownSink struct {
	b   strings.Builder
	img imageSource
}

func (m *markdownSink) title(t string)    { fmt.Fprintf(&m.b, "# %s\n\n", t) }
func (m *markdownSink) subtitle(t string) { fmt.Fprintf(&m.b, "**%s**\n\n", t) }

func (m *markdownSink) infoTable(rows [][2]string) {
	m.b.WriteString("| | |\n|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&m.b, "| **%s** | %s |\n", r[0], cell(r[1]))
	}
	m.b.WriteString("\n")
}

func (m *markdownSink) heading(level int, t string) {
	fmt.Fprintf(&m.b, "%s %s\n\n", strings.Repeat("#", level+1), t)
}

func (m *markdownSink) paragraph(t string) { fmt.Fprintf(&m.b, "%s\n\n", t) }

func (m *markdownSink) bullets(items []string) {
	for _, it := range items {
		fmt.Fprintf(&m.b, "- %s\n", it)
	}
	m.b.WriteString("\n")
}

func (m *markdownSink) numbered(items []string) {
	for i, it := range items {
		fmt.Fprintf(&m.b, "%d. %s\n", i+1, it)
	}
	m.b.WriteString("\n")
}

func (m *markdownSink) table(header []string, rows [][]string) {
	fmt.Fprintf(&m.b, "| %s |\n", strings.Join(header, " | "))
	m.b.WriteString(strings.Repeat("|---", len(header)) + "|\n")
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = cell(c)
		}
		fmt.Fprintf(&m.b, "| %s |\n", strings.Join(cells, " | "))
	}
	m.b.WriteString("\n")
}

func (m *markdownSink) notes(notes []report.CategorizedNote) {
	for i, n := range notes {
		fmt.Fprintf(&m.b, "%d. %s", i+1, n.CleanedText)
		if n.Severity != report.SeverityNormal {
			fmt.Fprintf(&m.b, " _(%s)_", n.Severity)
		}
		m.b.WriteString("\n")
	}
	m.b.WriteString("\n")
}

func (m *markdownSink) photo(ctx context.Context, p report.Photo) {
	caption := strings.TrimSpace(p.Caption)
	if src, ok := m.img(ctx, p); ok {
		fmt.Fprintf(&m.b, "![%s](%s)\n\n", strings.ReplaceAll(caption, "]", `\]`), src)
	}
	fmt.Fprintf(&m.b, "_%s_\n\n", caption)
}

func (m *markdownSink) footer(t string) { fmt.Fprintf(&m.b, "---\n\n_%s_\n", t) }

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
