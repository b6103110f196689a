package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/bryanwahyu/field-report/internal/domain/report"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Table,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:Arial,Helvetica,sans-serif;max-width:900px;margin:2rem auto;color:#222;line-height:1.5}
h1{color:#1f3a5f}h2{border-bottom:2px solid #1f3a5f;padding-bottom:.2rem;color:#1f3a5f}
table{border-collapse:collapse;width:100%}td,th{border:1px solid #ccc;padding:.4rem .6rem;text-align:left}
img{max-width:100%;border:1px solid #ddd;margin:.5rem 0}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders the Markdown document to a standalone page with photos
// embedded as data URIs. Unreadable photos fall back to caption only.
type HTML struct {
	Assets report.AssetStore
}

func NewHTML(assets report.AssetStore) *HTML { return &HTML{Assets: assets} }

func (h *HTML) Extension() string   { return "html" }
func (h *HTML) ContentType() string { return "text/html; charset=utf-8" }

func (h *HTML) Render(ctx context.Context, data report.ReportData) ([]byte, error) {
	md := buildDocument(ctx, data, h.dataURI)

	var body bytes.Buffer
	if err := markdownEngine.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: "Field Inspection Report " + data.Date,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (h *HTML) dataURI(ctx context.Context, p report.Photo) (string, bool) {
	if h.Assets == nil || p.Ref == "" {
		return "", false
	}
	raw, err := h.Assets.Get(ctx, p.Ref)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	ct := http.DetectContentType(raw)
	if !strings.HasPrefix(ct, "image/") {
		return "", false
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(raw), true
}
