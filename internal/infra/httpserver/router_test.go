package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/field-report/internal/application"
	"github.com/bryanwahyu/field-report/internal/application/pipeline"
	appsession "github.com/bryanwahyu/field-report/internal/application/session"
	"github.com/bryanwahyu/field-report/internal/domain/report"
	"github.com/bryanwahyu/field-report/internal/infra/fetch"
	"github.com/bryanwahyu/field-report/internal/infra/render"
	memstore "github.com/bryanwahyu/field-report/internal/infra/session"
	"github.com/bryanwahyu/field-report/internal/infra/storage"
	"github.com/bryanwahyu/field-report/internal/middleware"
)

var testNow = time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC)

// echoGenerator builds report data straight from the session without inference.
type echoGenerator struct{}

func (echoGenerator) Run(_ context.Context, s *report.Session, _ string) (pipeline.Result, error) {
	notes := make([]report.CategorizedNote, len(s.Notes))
	for i, n := range s.Notes {
		notes[i] = report.FallbackNote(i, n, testNow)
	}
	photos := report.CategorizePhotos(s.Photos)
	analysis := pipeline.AnalysisResult{Notes: notes, Summary: report.Summarize(notes)}
	return pipeline.Result{
		Analysis: analysis,
		Data: report.ReportData{
			CleanedNotes:     s.Notes,
			Notes:            notes,
			Analysis:         analysis.Summary,
			Photos:           photos,
			PhotosByCategory: report.GroupPhotos(photos),
			GeneratedAt:      testNow,
		},
	}, nil
}

type harness struct {
	handler http.Handler
	store   *memstore.Memory
}

func newHarness(t *testing.T, keys []string) *harness {
	t.Helper()
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/files/ok.jpg" {
			_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(files.Close)

	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	store := memstore.NewMemory(0, application.FixedClock{T: testNow})
	svc := appsession.NewService(
		store,
		echoGenerator{},
		render.NewMarkdown(local),
		local,
		local,
		fetch.NewHTTPFetcher(files.URL+"/files", 0, time.Second),
		nil,
		application.FixedClock{T: testNow},
		nil,
	)
	return &harness{
		handler: NewRouter(svc, Options{APIKeys: keys, RateLimiter: middleware.NewRateLimiter(100, 100)}),
		store:   store,
	}
}

func (h *harness) send(t *testing.T, user string, body map[string]string) (int, messageResponse) {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/"+user+"/messages", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var resp messageResponse
	if rec.Code < 300 || rec.Code == http.StatusConflict {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec.Code, resp
}

func TestChatFlowProducesReport(t *testing.T) {
	h := newHarness(t, nil)

	code, resp := h.send(t, "42", map[string]string{"text": "/start"})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, resp.Reply, "Current session: 0 note(s), 0 photo(s)")

	_, resp = h.send(t, "42", map[string]string{"text": "pump p-1 leaking at seal"})
	assert.Contains(t, resp.Reply, "Note 1 saved!")

	_, resp = h.send(t, "42", map[string]string{"photo_ref": "ok.jpg", "caption": "before repair"})
	assert.Contains(t, resp.Reply, "Photo 1 saved!")

	_, resp = h.send(t, "42", map[string]string{"text": "2"})
	assert.Equal(t, "Report scope set to: Repair Report", resp.Reply)

	code, resp = h.send(t, "42", map[string]string{"text": "/exportword", "username": "dana"})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Document)
	assert.Equal(t, "field-report-42-1773500645000.md", resp.Document.FileName)
	assert.Contains(t, resp.Reply, "Total Notes: 1")

	doc, err := base64.StdEncoding.DecodeString(resp.Document.ContentBase64)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "pump p-1 leaking at seal")
}

func TestCommandsNeedSession(t *testing.T) {
	h := newHarness(t, nil)

	for _, text := range []string{"/settime", "/setscope", "3"} {
		_, resp := h.send(t, "7", map[string]string{"text": text})
		assert.Equal(t, replyStartFirst, resp.Reply, text)
	}
	_, resp := h.send(t, "7", map[string]string{"photo_ref": "ok.jpg"})
	assert.Equal(t, replyStartFirst, resp.Reply)
	assert.Equal(t, 0, h.store.Count())
}

func TestExportWithoutNotesGivesGuidance(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, "7", map[string]string{"text": "/start"})

	code, resp := h.send(t, "7", map[string]string{"text": "/export"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, replyNoNotes, resp.Reply)
	assert.Nil(t, resp.Document)
}

func TestPhotoFetchFailureReply(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, "7", map[string]string{"text": "/start"})

	_, resp := h.send(t, "7", map[string]string{"photo_ref": "missing.jpg"})
	assert.Equal(t, replyPhotoFailed, resp.Reply)
}

func TestClearAndSessionSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, "7", map[string]string{"text": "note one"})

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/chat/7/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var sess report.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, []string{"note one"}, sess.Notes)

	_, resp := h.send(t, "7", map[string]string{"text": "/clear"})
	assert.True(t, strings.HasPrefix(resp.Reply, "Session cleared!"))

	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/chat/7/session", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t, nil)

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/7/messages", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/bad%20id/messages", strings.NewReader(`{"text":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	code, _ := h.send(t, "7", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAPIKeyRequiredExceptProbes(t *testing.T) {
	h := newHarness(t, []string{"secret"})

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/chat/7/reports", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/7/reports", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestCleanupEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/cleanup?hours=6", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":0,"max_age_h":6}`, rec.Body.String())
}

func TestSplitCommand(t *testing.T) {
	cmd, arg := splitCommand("/SetScope@field_bot  2 ")
	assert.Equal(t, "/setscope", cmd)
	assert.Equal(t, "2", arg)
}

func TestMetadataCommands(t *testing.T) {
	h := newHarness(t, nil)

	_, resp := h.send(t, "9", map[string]string{"text": "/setclient Acme"})
	assert.Equal(t, replyStartFirst, resp.Reply)

	h.send(t, "9", map[string]string{"text": "/start"})
	_, resp = h.send(t, "9", map[string]string{"text": "/settech"})
	assert.Equal(t, "Usage: /settech <value>", resp.Reply)

	_, resp = h.send(t, "9", map[string]string{"text": "/settech Dana K"})
	assert.Equal(t, "Technician set to: Dana K", resp.Reply)
	h.send(t, "9", map[string]string{"text": "/setsite North Plant"})

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/chat/9/session", nil))
	var sess report.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "Dana K", sess.Metadata.Technician)
	assert.Equal(t, "North Plant", sess.Metadata.Site)
}
