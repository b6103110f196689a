package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/field-report/internal/application"
	"github.com/bryanwahyu/field-report/internal/application/pipeline"
	"github.com/bryanwahyu/field-report/internal/domain/report"
)

// Generator turns a session into report data.
type Generator interface {
	Run(ctx context.Context, s *report.Session, username string) (pipeline.Result, error)
}

// Service implements the chat use-cases. Safe for concurrent use.
type Service struct {
	Sessions  report.SessionStore
	Generator Generator
	Renderer  report.Renderer
	Artifacts report.ArtifactStore
	Assets    report.AssetStore
	Fetcher   report.BinaryFetcher
	Records   report.ReportRepository // optional
	Clock     application.Clock
	Log       *zap.Logger

	mu      sync.Mutex
	exports map[string]*inflight
	updates userLocks
}

type inflight struct {
	cancel context.CancelFunc
}

func NewService(
	sessions report.SessionStore,
	gen Generator,
	renderer report.Renderer,
	artifacts report.ArtifactStore,
	assets report.AssetStore,
	fetcher report.BinaryFetcher,
	records report.ReportRepository,
	clock application.Clock,
	log *zap.Logger,
) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Sessions:  sessions,
		Generator: gen,
		Renderer:  renderer,
		Artifacts: artifacts,
		Assets:    assets,
		Fetcher:   fetcher,
		Records:   records,
		Clock:     clock,
		Log:       log,
		exports:   map[string]*inflight{},
	}
}

const (
	DefaultCaption   = "No caption provided"
	StartTimeLayout  = "03:04 PM"
	DeliveryCaption  = "Professional Field Inspection Report"
	reportListLimit  = 10
	summaryEquipment = 3
)

//
// ==== USE CASES ====
//

// Start returns the user's session, creating an empty one if needed.
func (s *Service) Start(ctx context.Context, userID string) (*report.Session, error) {
	return s.Sessions.Create(ctx, userID)
}

func (s *Service) Help() string {
	return "Available Commands:\n\n" +
		"/start - Start bot & show current session\n" +
		"/settime - Set inspection start time\n" +
		"/setscope - Set report type\n" +
		"/setclient, /setsite, /settech, /setunits <value> - Set report details\n" +
		"/exportword - Generate report document\n" +
		"/clear - Clear session data\n" +
		"/help - Show this message\n\n" +
		"Tip: Send multiple notes and photos before generating reports!\n" +
		"Add keywords like \"before\", \"during\", \"after\" in photo captions for better organization."
}

// ScopeMenu is the numbered report type menu shown by /setscope.
func (s *Service) ScopeMenu() string {
	var b strings.Builder
	b.WriteString("Select report type:\n\n")
	for i, sc := range report.ScopeMenu() {
		fmt.Fprintf(&b, "%d - %s\n", i+1, sc.MenuName())
	}
	b.WriteString("\nReply with the number (1-6).")
	return b.String()
}

// AddNote appends a free-text note, creating the session if absent.
// Command text is not a note.
func (s *Service) AddNote(ctx context.Context, userID, text string) (*report.Session, error) {
	if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "/") {
		return nil, fmt.Errorf("%w: not a note", report.ErrValidation)
	}
	defer s.updates.lock(userID)()
	sess, err := s.Sessions.Create(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.Notes = append(sess.Notes, text)
	sess.UpdatedAt = s.Clock.Now()
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

type AddPhotoCommand struct {
	UserID  string
	Ref     string // chat transport file reference
	Caption string
}

// AddPhoto requires an existing session. A failed fetch leaves the session unchanged.
// The download runs outside the per-user lock; only the append is serialized.
func (s *Service) AddPhoto(ctx context.Context, cmd AddPhotoCommand) (*report.Session, report.Photo, error) {
	if _, err := s.Sessions.Get(ctx, cmd.UserID); err != nil {
		return nil, report.Photo{}, err
	}

	data, err := s.Fetcher.Fetch(ctx, cmd.Ref)
	if err != nil {
		s.Log.Warn("photo fetch failed", zap.String("user_id", cmd.UserID), zap.Error(err))
		return nil, report.Photo{}, fmt.Errorf("%w: %v", report.ErrAssetFetch, err)
	}

	id := "photo-" + uuid.NewString()
	key := fmt.Sprintf("photos/%s/%s.jpg", cmd.UserID, id)
	ref, err := s.Assets.Put(ctx, key, data, http.DetectContentType(data))
	if err != nil {
		return nil, report.Photo{}, fmt.Errorf("%w: store: %v", report.ErrAssetFetch, err)
	}

	caption := strings.TrimSpace(cmd.Caption)
	if caption == "" {
		caption = DefaultCaption
	}
	photo := report.Photo{ID: id, Ref: ref, Caption: caption}

	unlock := s.updates.lock(cmd.UserID)
	defer unlock()
	sess, err := s.Sessions.Get(ctx, cmd.UserID)
	if err != nil {
		// cleared while downloading
		_ = s.Assets.Delete(ctx, []string{ref})
		return nil, report.Photo{}, err
	}
	sess.Photos = append(sess.Photos, photo)
	sess.UpdatedAt = s.Clock.Now()
	if err := s.Sessions.Save(ctx, sess); err != nil {
		_ = s.Assets.Delete(ctx, []string{ref})
		return nil, report.Photo{}, err
	}
	s.Log.Info("photo saved",
		zap.String("user_id", cmd.UserID),
		zap.String("photo_id", id),
		zap.Int("bytes", len(data)),
	)
	return sess, photo, nil
}

// SetTime stamps the inspection start time from the clock.
func (s *Service) SetTime(ctx context.Context, userID string) (string, error) {
	defer s.updates.lock(userID)()
	sess, err := s.Sessions.Create(ctx, userID)
	if err != nil {
		return "", err
	}
	now := s.Clock.Now()
	sess.Metadata.StartTime = now.Format(StartTimeLayout)
	sess.UpdatedAt = now
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return "", err
	}
	return sess.Metadata.StartTime, nil
}

// SetScope accepts a menu number or a scope name.
func (s *Service) SetScope(ctx context.Context, userID, choice string) (report.ScopeType, error) {
	scope, ok := report.ParseScopeChoice(choice)
	if !ok {
		return "", fmt.Errorf("%w: unknown report type %q", report.ErrValidation, choice)
	}
	defer s.updates.lock(userID)()
	sess, err := s.Sessions.Create(ctx, userID)
	if err != nil {
		return "", err
	}
	sess.Metadata.ScopeType = scope
	sess.UpdatedAt = s.Clock.Now()
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return "", err
	}
	return scope, nil
}

// SetMetadata sets one of client, site, technician or units.
func (s *Service) SetMetadata(ctx context.Context, userID, field, value string) error {
	value = strings.TrimSpace(value)
	defer s.updates.lock(userID)()
	sess, err := s.Sessions.Create(ctx, userID)
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "client":
		sess.Metadata.Client = value
	case "site":
		sess.Metadata.Site = value
	case "technician":
		sess.Metadata.Technician = value
	case "units":
		sess.Metadata.Units = value
	default:
		return fmt.Errorf("%w: unknown metadata field %q", report.ErrValidation, field)
	}
	sess.UpdatedAt = s.Clock.Now()
	return s.Sessions.Save(ctx, sess)
}

// Session returns a snapshot, or ErrSessionNotFound.
func (s *Service) Session(ctx context.Context, userID string) (*report.Session, error) {
	sess, err := s.Sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// Clear cancels any running export for the user, drops their photo assets and the session.
func (s *Service) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	if run, ok := s.exports[userID]; ok {
		run.cancel()
		delete(s.exports, userID)
	}
	s.mu.Unlock()

	defer s.updates.lock(userID)()
	sess, err := s.Sessions.Get(ctx, userID)
	if err != nil && !errors.Is(err, report.ErrSessionNotFound) {
		return err
	}
	if sess != nil && len(sess.Photos) > 0 {
		if err := s.Assets.Delete(ctx, sess.PhotoRefs()); err != nil {
			s.Log.Warn("photo cleanup on clear failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if err := s.Sessions.Delete(ctx, userID); err != nil {
		return err
	}
	s.Log.Info("session cleared", zap.String("user_id", userID))
	return nil
}

type ExportCommand struct {
	UserID   string
	Username string
}

// Delivery is the finished artifact handed back to the chat transport.
type Delivery struct {
	FileName    string               `json:"file_name"`
	Caption     string               `json:"caption"`
	URL         string               `json:"url,omitempty"`
	ContentType string               `json:"content_type"`
	Content     []byte               `json:"-"`
	Summary     string               `json:"summary"`
	Record      *report.ReportRecord `json:"record,omitempty"`
}

// Export runs the pipeline on a snapshot, renders and delivers the report.
// The stored session is never written here; a failed export leaves it as it was.
func (s *Service) Export(ctx context.Context, cmd ExportCommand) (Delivery, error) {
	sess, err := s.Sessions.Get(ctx, cmd.UserID)
	if err != nil && !errors.Is(err, report.ErrSessionNotFound) {
		return Delivery{}, err
	}
	if sess == nil || len(sess.Notes) == 0 {
		return Delivery{}, fmt.Errorf("%w: no notes found", report.ErrPipelineAbort)
	}

	ectx, done, err := s.beginExport(ctx, cmd.UserID)
	if err != nil {
		return Delivery{}, err
	}
	defer done()

	started := s.Clock.Now()
	res, err := s.Generator.Run(ectx, sess.Clone(), cmd.Username)
	if err != nil {
		return Delivery{}, err
	}

	doc, err := s.Renderer.Render(ectx, res.Data)
	if err != nil {
		return Delivery{}, fmt.Errorf("render report: %w", err)
	}
	if err := ectx.Err(); err != nil {
		return Delivery{}, err
	}

	fileName := fmt.Sprintf("field-report-%s-%d.%s", cmd.UserID, started.UnixMilli(), s.Renderer.Extension())
	url, err := s.Artifacts.Upload(ectx, fmt.Sprintf("reports/%s/%s", cmd.UserID, fileName), doc, s.Renderer.ContentType())
	if err != nil {
		return Delivery{}, fmt.Errorf("upload report: %w", err)
	}

	rec := &report.ReportRecord{
		ID:            uuid.NewString(),
		UserID:        cmd.UserID,
		FileName:      fileName,
		ArtifactURL:   url,
		Format:        s.Renderer.Extension(),
		ScopeType:     sess.Metadata.ScopeType,
		TotalNotes:    res.Analysis.Summary.TotalNotes,
		CriticalCount: res.Analysis.Summary.CriticalCount,
		WarningCount:  res.Analysis.Summary.WarningCount,
		PhotoCount:    len(sess.Photos),
		CreatedAt:     s.Clock.Now(),
	}
	if s.Records != nil {
		if err := s.Records.Save(ctx, rec); err != nil {
			s.Log.Error("save report record failed", zap.String("user_id", cmd.UserID), zap.Error(err))
		}
	}

	// photos are no longer needed once the report is out
	if refs := sess.PhotoRefs(); len(refs) > 0 {
		if err := s.Assets.Delete(ctx, refs); err != nil {
			s.Log.Warn("photo cleanup after export failed", zap.String("user_id", cmd.UserID), zap.Error(err))
		}
	}

	s.Log.Info("report delivered",
		zap.String("user_id", cmd.UserID),
		zap.String("file", fileName),
		zap.Int("bytes", len(doc)),
		zap.Duration("took", s.Clock.Now().Sub(started)),
	)
	return Delivery{
		FileName:    fileName,
		Caption:     DeliveryCaption,
		URL:         url,
		ContentType: s.Renderer.ContentType(),
		Content:     doc,
		Summary:     deliverySummary(res),
		Record:      rec,
	}, nil
}

// Reports lists the latest delivered reports for a user.
func (s *Service) Reports(ctx context.Context, userID string) ([]*report.ReportRecord, error) {
	if s.Records == nil {
		return []*report.ReportRecord{}, nil
	}
	return s.Records.Latest(ctx, userID, reportListLimit)
}

// Purge removes stored assets older than maxAge.
func (s *Service) Purge(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := s.Assets.PurgeOlderThan(ctx, maxAge)
	if err != nil {
		return n, err
	}
	s.Log.Info("asset purge finished", zap.Int("deleted", n), zap.Duration("max_age", maxAge))
	return n, nil
}

// Shutdown cancels every running export.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for user, run := range s.exports {
		run.cancel()
		delete(s.exports, user)
	}
}

// beginExport registers an in-flight export. The returned done must be called.
func (s *Service) beginExport(ctx context.Context, userID string) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.exports[userID]; busy {
		return nil, nil, report.ErrExportInProgress
	}
	ectx, cancel := context.WithCancel(ctx)
	run := &inflight{cancel: cancel}
	s.exports[userID] = run
	var once sync.Once
	done := func() {
		once.Do(func() {
			s.mu.Lock()
			// Clear may already have dropped this run and a new one may have started
			if s.exports[userID] == run {
				delete(s.exports, userID)
			}
			s.mu.Unlock()
			cancel()
		})
	}
	return ectx, done, nil
}

func deliverySummary(res pipeline.Result) string {
	a := res.Analysis.Summary
	equipment := report.AllEquipment(res.Analysis.Notes)
	equipText := "None detected"
	if len(equipment) > 0 {
		if len(equipment) > summaryEquipment {
			equipment = equipment[:summaryEquipment]
		}
		equipText = strings.Join(equipment, ", ")
	}

	var parts []string
	for _, c := range report.AllCategories {
		if c == report.CategoryUncategorized {
			continue
		}
		if n := len(res.Data.PhotosByCategory[c]); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, c))
		}
	}
	photoText := "No photos categorized"
	if len(parts) > 0 {
		photoText = strings.Join(parts, ", ")
	}

	return fmt.Sprintf("Report Generated!\n\n"+
		"Analysis:\n"+
		"- Total Notes: %d\n"+
		"- Critical Issues: %d\n"+
		"- Warnings: %d\n"+
		"- Equipment: %s\n\n"+
		"Photos Organized:\n"+
		"- %s\n\n"+
		"Use /clear to start a new report.",
		a.TotalNotes, a.CriticalCount, a.WarningCount, equipText, photoText)
}
