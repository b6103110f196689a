package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bryanwahyu/field-report/internal/application"
	"github.com/bryanwahyu/field-report/internal/application/pipeline"
	appsession "github.com/bryanwahyu/field-report/internal/application/session"
	"github.com/bryanwahyu/field-report/internal/config"
	domai "github.com/bryanwahyu/field-report/internal/domain/ai"
	"github.com/bryanwahyu/field-report/internal/domain/report"
	"github.com/bryanwahyu/field-report/internal/infra/ai/anthropic"
	"github.com/bryanwahyu/field-report/internal/infra/ai/openai"
	"github.com/bryanwahyu/field-report/internal/infra/ai/retry"
	mysqlp "github.com/bryanwahyu/field-report/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/field-report/internal/infra/db/postgres"
	"github.com/bryanwahyu/field-report/internal/infra/fetch"
	"github.com/bryanwahyu/field-report/internal/infra/httpserver"
	"github.com/bryanwahyu/field-report/internal/infra/render"
	infrasession "github.com/bryanwahyu/field-report/internal/infra/session"
	"github.com/bryanwahyu/field-report/internal/infra/storage"
	"github.com/bryanwahyu/field-report/internal/logger"
	"github.com/bryanwahyu/field-report/internal/middleware"
)

type assetBackend interface {
	report.AssetStore
	report.ArtifactStore
}

func main() {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	clock := application.SystemClock{}
	checkers := map[string]middleware.HealthChecker{}

	inferencer, err := newInferencer(cfg, log.Named("ai"))
	if err != nil {
		return fmt.Errorf("ai init: %w", err)
	}

	sessions, err := newSessionStore(ctx, cfg, clock, checkers)
	if err != nil {
		return fmt.Errorf("session store init: %w", err)
	}

	assets, err := newAssetBackend(ctx, cfg, checkers)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}

	records, db, err := newReportRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = middleware.CheckFunc(db.PingContext)
	}

	var renderer report.Renderer
	switch cfg.Render.Format {
	case "markdown":
		renderer = render.NewMarkdown(assets)
	case "html":
		renderer = render.NewHTML(assets)
	default:
		renderer = render.NewDocx(assets)
	}

	svc := appsession.NewService(
		sessions,
		pipeline.New(inferencer, cfg.Pipeline.Concurrency, clock, log.Named("pipeline")),
		renderer,
		assets,
		assets,
		fetch.NewHTTPFetcher(cfg.Storage.FileBaseURL, cfg.Storage.MaxFetchSize, 0),
		records,
		clock,
		log.Named("session"),
	)

	go janitor(ctx, svc, cfg.CleanupInterval(), cfg.MaxAssetAge(), log.Named("janitor"))

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, httpserver.Options{
		Log:         log.Named("http"),
		Metrics:     middleware.NewMetrics(),
		APIKeys:     cfg.Auth.APIKeys,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerMin),
		Checkers:    checkers,
		MaxAssetAge: cfg.MaxAssetAge(),
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // exports run the whole pipeline inside the request
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server...")

	svc.Shutdown()
	ctx2, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	if err := sessions.Clear(ctx2); err != nil {
		log.Warn("session wipe failed", zap.Error(err))
	}
	return nil
}

func newInferencer(cfg *config.Config, log *zap.Logger) (domai.Inferencer, error) {
	var base domai.Inferencer
	switch cfg.AI.Provider {
	case "anthropic":
		c, err := anthropic.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Endpoint)
		if err != nil {
			return nil, err
		}
		base = c
	default:
		base = openai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Endpoint)
	}
	log.Info("inference provider ready", zap.String("provider", cfg.AI.Provider), zap.String("model", cfg.AI.Model))
	return retry.New(base, cfg.AI.Retries+1, cfg.RetryBase(), cfg.AITimeout(), log), nil
}

func newSessionStore(ctx context.Context, cfg *config.Config, clock application.Clock, checkers map[string]middleware.HealthChecker) (report.SessionStore, error) {
	if cfg.Session.Driver == "redis" {
		r, err := infrasession.Connect(ctx, cfg.Session.RedisURL, cfg.SessionTTL(), clock)
		if err != nil {
			return nil, err
		}
		checkers["sessions"] = middleware.CheckFunc(r.Ping)
		return r, nil
	}
	return infrasession.NewMemory(cfg.SessionTTL(), clock), nil
}

func newAssetBackend(ctx context.Context, cfg *config.Config, checkers map[string]middleware.HealthChecker) (assetBackend, error) {
	if cfg.Storage.Driver == "minio" {
		s, err := storage.New(ctx, storage.Options{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			Bucket:     cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
			PresignTTL: time.Duration(cfg.Minio.PresignHours) * time.Hour,
		})
		if err != nil {
			return nil, err
		}
		checkers["storage"] = middleware.CheckFunc(s.Ping)
		return s, nil
	}
	return storage.NewLocal(cfg.Storage.TempDir)
}

func newReportRepository(ctx context.Context, cfg *config.Config) (report.ReportRepository, *sql.DB, error) {
	if !cfg.DatabaseEnabled() {
		return nil, nil, nil
	}
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		repo := postgresp.NewReportRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, db, nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		repo := mysqlp.NewReportRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, db, nil
	}
}

// janitor purges old assets at startup and then every interval.
func janitor(ctx context.Context, svc *appsession.Service, every, maxAge time.Duration, log *zap.Logger) {
	purge := func() {
		if _, err := svc.Purge(ctx, maxAge); err != nil && ctx.Err() == nil {
			log.Error("scheduled cleanup failed", zap.Error(err))
		}
	}
	purge()
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			purge()
		}
	}
}
