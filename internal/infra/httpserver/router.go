package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appsession "github.com/bryanwahyu/field-report/internal/application/session"
	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
	"github.com/bryanwahyu/field-report/internal/domain/report"
	"github.com/bryanwahyu/field-report/internal/middleware"
)

const (
	replyStartFirst  = "Please use /start first to create a new session."
	replyPhotoFailed = "Failed to save photo. Please try again."
	replyNoNotes     = "No notes found! Send some text messages first, then try /exportword again."
	replyBusy        = "A report is already being generated. Please wait for it to finish."
	replyRetry       = "Error generating report. Please try /clear and start fresh."
)

var scopeReply = regexp.MustCompile(`^[1-6]$`)

type Options struct {
	Log         *zap.Logger
	Metrics     *middleware.Metrics
	APIKeys     []string
	RateLimiter *middleware.RateLimiter // nil disables limiting
	Checkers    map[string]middleware.HealthChecker
	MaxAssetAge time.Duration
}

type Router struct {
	svc     *appsession.Service
	log     *zap.Logger
	metrics *middleware.Metrics
	maxAge  time.Duration
}

func NewRouter(svc *appsession.Service, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewMetrics()
	}
	r := &Router{svc: svc, log: opts.Log, metrics: opts.Metrics, maxAge: opts.MaxAssetAge}

	mux := chi.NewRouter()
	mux.Use(middleware.Logging(opts.Log))
	mux.Use(opts.Metrics.Middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler(opts.Checkers))
	mux.Get("/metrics", opts.Metrics.Handler)

	mux.Route("/v1/chat/{user}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidUser)
		if opts.RateLimiter != nil {
			rt.Use(middleware.RateLimit(opts.RateLimiter))
		}
		rt.Post("/messages", r.wrap(r.handleMessage))
		rt.Get("/session", r.wrap(r.handleSession))
		rt.Get("/reports", r.wrap(r.handleReports))
	})
	mux.Post("/v1/admin/cleanup", r.wrap(r.handleCleanup))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, report.ErrSessionNotFound):
				http.Error(w, "session not found", http.StatusNotFound)
			case errors.Is(err, report.ErrValidation):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}
	}
}

type messageRequest struct {
	Text     string `json:"text"`
	PhotoRef string `json:"photo_ref"`
	Caption  string `json:"caption"`
	Username string `json:"username"`
}

type document struct {
	FileName      string `json:"file_name"`
	Caption       string `json:"caption"`
	URL           string `json:"url,omitempty"`
	ContentType   string `json:"content_type"`
	ContentBase64 string `json:"content_base64"`
}

type messageResponse struct {
	Reply    string    `json:"reply"`
	Document *document `json:"document,omitempty"`
}

// POST /v1/chat/{user}/messages
func (r *Router) handleMessage(w http.ResponseWriter, req *http.Request) error {
	user := chi.URLParam(req, "user")
	var body messageRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode body: %v", report.ErrValidation, err)
	}

	if strings.TrimSpace(body.PhotoRef) != "" {
		return r.reply(w, http.StatusOK, r.photo(req, user, body))
	}

	text := middleware.SanitizeString(body.Text)
	if text == "" {
		return fmt.Errorf("%w: text or photo_ref is required", report.ErrValidation)
	}
	if scopeReply.MatchString(text) {
		return r.reply(w, http.StatusOK, r.scopeChoice(req, user, text))
	}
	if !strings.HasPrefix(text, "/") {
		return r.note(w, req, user, text)
	}

	cmd, arg := splitCommand(text)
	switch cmd {
	case "/start":
		sess, err := r.svc.Start(req.Context(), user)
		if err != nil {
			return err
		}
		return r.reply(w, http.StatusOK, messageResponse{Reply: welcome(sess)})
	case "/help":
		return r.reply(w, http.StatusOK, messageResponse{Reply: r.svc.Help()})
	case "/settime":
		if !r.hasSession(req, user) {
			return r.reply(w, http.StatusOK, messageResponse{Reply: replyStartFirst})
		}
		at, err := r.svc.SetTime(req.Context(), user)
		if err != nil {
			return err
		}
		return r.reply(w, http.StatusOK, messageResponse{Reply: "Inspection start time set to: " + at})
	case "/setscope":
		if !r.hasSession(req, user) {
			return r.reply(w, http.StatusOK, messageResponse{Reply: replyStartFirst})
		}
		if arg != "" {
			return r.reply(w, http.StatusOK, r.scopeChoice(req, user, arg))
		}
		return r.reply(w, http.StatusOK, messageResponse{Reply: r.svc.ScopeMenu()})
	case "/setclient", "/setsite", "/settech", "/setunits":
		return r.reply(w, http.StatusOK, r.metadata(req, user, cmd, arg))
	case "/exportword", "/export":
		return r.export(w, req, user, body.Username)
	case "/clear":
		if err := r.svc.Clear(req.Context(), user); err != nil {
			return err
		}
		return r.reply(w, http.StatusOK, messageResponse{Reply: "Session cleared!\n\nStart fresh by sending new notes and photos."})
	}
	return r.reply(w, http.StatusOK, messageResponse{Reply: "Unknown command. Use /help to see available commands."})
}

func (r *Router) note(w http.ResponseWriter, req *http.Request, user, text string) error {
	sess, err := r.svc.AddNote(req.Context(), user, text)
	if err != nil {
		return err
	}
	r.metrics.NoteAdded()
	return r.reply(w, http.StatusOK, messageResponse{Reply: fmt.Sprintf(
		"Note %d saved!\n\nCurrent session:\n- %d note(s)\n- %d photo(s)\n\nType /exportword when ready to generate the report.",
		len(sess.Notes), len(sess.Notes), len(sess.Photos))})
}

func (r *Router) photo(req *http.Request, user string, body messageRequest) messageResponse {
	sess, p, err := r.svc.AddPhoto(req.Context(), appsession.AddPhotoCommand{
		UserID:  user,
		Ref:     body.PhotoRef,
		Caption: middleware.SanitizeString(body.Caption),
	})
	switch {
	case errors.Is(err, report.ErrSessionNotFound):
		return messageResponse{Reply: replyStartFirst}
	case err != nil:
		if !errors.Is(err, report.ErrAssetFetch) {
			r.log.Error("add photo failed", zap.String("user_id", user), zap.Error(err))
		}
		return messageResponse{Reply: replyPhotoFailed}
	}
	r.metrics.PhotoAdded()
	return messageResponse{Reply: fmt.Sprintf(
		"Photo %d saved!\nCaption: %q\n\nCurrent session:\n- %d note(s)\n- %d photo(s)\n\n"+
			"Tip: Add keywords like \"before\", \"during\", \"after\" in captions for better organization!",
		len(sess.Photos), p.Caption, len(sess.Notes), len(sess.Photos))}
}

var metadataFields = map[string]string{
	"/setclient": "client",
	"/setsite":   "site",
	"/settech":   "technician",
	"/setunits":  "units",
}

func (r *Router) metadata(req *http.Request, user, cmd, value string) messageResponse {
	if !r.hasSession(req, user) {
		return messageResponse{Reply: replyStartFirst}
	}
	if value == "" {
		return messageResponse{Reply: "Usage: " + cmd + " <value>"}
	}
	field := metadataFields[cmd]
	if err := r.svc.SetMetadata(req.Context(), user, field, value); err != nil {
		r.log.Error("set metadata failed", zap.String("user_id", user), zap.Error(err))
		return messageResponse{Reply: replyRetry}
	}
	return messageResponse{Reply: fmt.Sprintf("%s set to: %s", strings.ToUpper(field[:1])+field[1:], value)}
}

func (r *Router) scopeChoice(req *http.Request, user, choice string) messageResponse {
	if !r.hasSession(req, user) {
		return messageResponse{Reply: replyStartFirst}
	}
	scope, err := r.svc.SetScope(req.Context(), user, choice)
	if err != nil {
		if !errors.Is(err, report.ErrValidation) {
			r.log.Error("set scope failed", zap.String("user_id", user), zap.Error(err))
		}
		return messageResponse{Reply: "Unknown report type. " + r.svc.ScopeMenu()}
	}
	return messageResponse{Reply: "Report scope set to: " + scope.MenuName()}
}

func (r *Router) export(w http.ResponseWriter, req *http.Request, user, username string) error {
	finish := r.metrics.ReportStarted()
	d, err := r.svc.Export(req.Context(), appsession.ExportCommand{UserID: user, Username: username})
	switch {
	case errors.Is(err, report.ErrPipelineAbort):
		finish(false)
		return r.reply(w, http.StatusOK, messageResponse{Reply: replyNoNotes})
	case errors.Is(err, report.ErrExportInProgress):
		finish(false)
		return r.reply(w, http.StatusConflict, messageResponse{Reply: replyBusy})
	case err != nil:
		finish(false)
		r.log.Error("report generation failed", zap.String("user_id", user), zap.Error(err))
		return r.reply(w, http.StatusOK, messageResponse{Reply: replyRetry})
	}
	finish(true)
	return r.reply(w, http.StatusOK, messageResponse{
		Reply: d.Summary,
		Document: &document{
			FileName:      d.FileName,
			Caption:       d.Caption,
			URL:           d.URL,
			ContentType:   d.ContentType,
			ContentBase64: base64.StdEncoding.EncodeToString(d.Content),
		},
	})
}

// GET /v1/chat/{user}/session
func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.svc.Session(req.Context(), chi.URLParam(req, "user"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// GET /v1/chat/{user}/reports
func (r *Router) handleReports(w http.ResponseWriter, req *http.Request) error {
	list, err := r.svc.Reports(req.Context(), chi.URLParam(req, "user"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/admin/cleanup?hours=24
func (r *Router) handleCleanup(w http.ResponseWriter, req *http.Request) error {
	def := int(r.maxAge / time.Hour)
	if def <= 0 {
		def = 24
	}
	hours, _ := strconv.Atoi(req.URL.Query().Get("hours"))
	hours = middleware.ValidateHours(hours, def)

	n, err := r.svc.Purge(req.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"deleted":   n,
		"max_age_h": hours,
	})
}

func (r *Router) hasSession(req *http.Request, user string) bool {
	_, err := r.svc.Session(req.Context(), user)
	return err == nil
}

func (r *Router) reply(w http.ResponseWriter, status int, resp messageResponse) error {
	return writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// splitCommand turns "/SetScope@bot 2" into ("/setscope", "2").
func splitCommand(text string) (string, string) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

func welcome(s *report.Session) string {
	return "Welcome to Field Report Bot!\n\n" +
		"Send me:\n" +
		"- Text notes about your field work\n" +
		"- Photos to document your inspection\n\n" +
		"Commands:\n" +
		"/settime - Set inspection start time\n" +
		"/setscope - Set report type\n" +
		"/exportword - Generate report document\n" +
		"/clear - Clear current session\n" +
		"/help - Show all commands\n\n" +
		fmt.Sprintf("Current session: %d note(s), %d photo(s)", len(s.Notes), len(s.Photos))
}
