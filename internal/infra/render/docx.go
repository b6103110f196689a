package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/common/units"
	"github.com/gomutex/godocx/docx"

	"github.com/bryanwahyu/field-report/internal/domain/report"
)

const (
	photoWidth = 6.0 // inch, A4 minus margins
	maxPhotoH  = 7.5
)

var pictureExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Docx renders the report as a Word document, the format /exportword sends
// by default. Unreadable photos fall back to caption only.
type Docx struct {
	Assets report.AssetStore
}

func NewDocx(assets report.AssetStore) *Docx { return &Docx{Assets: assets} }

func (d *Docx) Extension() string { return "docx" }
func (d *Docx) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (d *Docx) Render(ctx context.Context, data report.ReportData) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("new docx: %w", err)
	}
	// godocx only embeds pictures from files
	dir, err := os.MkdirTemp("", "field-report-docx-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	out := &docxSink{doc: doc, assets: d.Assets, dir: dir}
	layout(ctx, data, out)
	if out.err != nil {
		return nil, out.err
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

type docxSink struct {
	doc    *docx.RootDoc
	assets report.AssetStore
	dir    string
	n      int
	err    error
}

func (s *docxSink) title(t string) {
	if _, err := s.doc.AddHeading(t, 0); err != nil && s.err == nil {
		s.err = err
	}
}

func (s *docxSink) subtitle(t string) {
	s.doc.AddEmptyParagraph().AddText(t).Bold(true).Size(14)
}

func (s *docxSink) infoTable(rows [][2]string) {
	tbl := s.doc.AddTable()
	tbl.Style("TableGrid")
	for _, r := range rows {
		row := tbl.AddRow()
		row.AddCell().AddEmptyPara().AddText(r[0]).Bold(true)
		row.AddCell().AddParagraph(r[1])
	}
}

func (s *docxSink) heading(level int, t string) {
	if _, err := s.doc.AddHeading(t, uint(level)); err != nil && s.err == nil {
		s.err = err
	}
}

// one Word paragraph per line; FinalResults is one sentence per line
func (s *docxSink) paragraph(t string) {
	for _, line := range strings.Split(t, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			s.doc.AddParagraph(line)
		}
	}
}

func (s *docxSink) bullets(items []string) {
	for _, it := range items {
		s.doc.AddParagraph(it).Style("ListBullet")
	}
}

func (s *docxSink) numbered(items []string) {
	for _, it := range items {
		s.doc.AddParagraph(it).Style("ListNumber")
	}
}

func (s *docxSink) table(header []string, rows [][]string) {
	tbl := s.doc.AddTable()
	tbl.Style("LightList-Accent1")
	hdr := tbl.AddRow()
	for _, h := range header {
		hdr.AddCell().AddEmptyPara().AddText(h).Bold(true)
	}
	for _, r := range rows {
		row := tbl.AddRow()
		for _, c := range r {
			row.AddCell().AddParagraph(c)
		}
	}
}

func (s *docxSink) notes(notes []report.CategorizedNote) {
	for _, n := range notes {
		p := s.doc.AddParagraph(n.CleanedText)
		p.Style("ListNumber")
		if n.Severity != report.SeverityNormal {
			p.AddText(fmt.Sprintf(" (%s)", n.Severity)).Italic(true)
		}
	}
}

func (s *docxSink) photo(ctx context.Context, p report.Photo) {
	if path, w, h, ok := s.stage(ctx, p); ok {
		if _, err := s.doc.AddPicture(path, units.Inch(w), units.Inch(h)); err != nil && s.err == nil {
			s.err = fmt.Errorf("embed photo %s: %w", p.ID, err)
		}
	}
	s.doc.AddEmptyParagraph().AddText(strings.TrimSpace(p.Caption)).Italic(true)
}

// stage writes a readable image to the temp dir and sizes it to the page width.
func (s *docxSink) stage(ctx context.Context, p report.Photo) (string, float64, float64, bool) {
	if s.assets == nil || p.Ref == "" {
		return "", 0, 0, false
	}
	raw, err := s.assets.Get(ctx, p.Ref)
	if err != nil || len(raw) == 0 {
		return "", 0, 0, false
	}
	ext, ok := pictureExt[http.DetectContentType(raw)]
	if !ok {
		return "", 0, 0, false
	}
	s.n++
	path := filepath.Join(s.dir, fmt.Sprintf("photo%d%s", s.n, ext))
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", 0, 0, false
	}

	w, h := photoWidth, photoWidth*3/4
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(raw)); err == nil && cfg.Width > 0 {
		h = photoWidth * float64(cfg.Height) / float64(cfg.Width)
		if h > maxPhotoH {
			w, h = w*maxPhotoH/h, maxPhotoH
		}
	}
	return path, w, h, true
}

func (s *docxSink) footer(t string) {
	s.doc.AddEmptyParagraph().AddText(t).Italic(true).Size(9)
}
