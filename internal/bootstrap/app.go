package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chethana369/Auto-resume-checker/internal/analyses"
	"github.com/chethana369/Auto-resume-checker/internal/report"
	"github.com/chethana369/Auto-resume-checker/internal/services/health"
	"github.com/chethana369/Auto-resume-checker/internal/sessions"
	"github.com/chethana369/Auto-resume-checker/internal/shared/config"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server/middleware"
	"github.com/chethana369/Auto-resume-checker/internal/shared/storage/db"
	"github.com/chethana369/Auto-resume-checker/internal/shared/storage/object"
	localstore "github.com/chethana369/Auto-resume-checker/internal/shared/storage/object/local"
	s3store "github.com/chethana369/Auto-resume-checker/internal/shared/storage/object/s3"
	"github.com/chethana369/Auto-resume-checker/internal/shared/telemetry"
	"github.com/chethana369/Auto-resume-checker/internal/web"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	ArchiveStore    object.ObjectStore
	SessionsRepo    sessions.Repo
	AnalysesRepo    analyses.Repo
	SessionsService *sessions.Service
	AnalysesService *analyses.Service
	SessionsHandler *sessions.Handler
	AnalysisHandler *analyses.Handler
	WebHandler      *web.Handler
	Health          *health.Service
}

// Build wires repositories, services and handlers from cfg.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildArchiveStore(ctx, cfg)
	if err != nil {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}

	app := &App{
		Config:       cfg,
		DB:           sqlDB,
		ArchiveStore: store,
		Health:       health.NewService(sqlDB),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Guard:           middleware.NewSessionGuard(),
		Health:          app.Health,
		SessionHandler:  app.SessionsHandler,
		AnalysisHandler: app.AnalysisHandler,
		WebHandler:      app.WebHandler,
	})

	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Info("bootstrap.storage", map[string]any{"storage": "memory"})
		return nil, nil
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_connect_failed", map[string]any{
				"error":    err,
				"fallback": "memory",
			})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	telemetry.Info("bootstrap.storage", map[string]any{"storage": "postgres"})
	return sqlDB, nil
}

func buildArchiveStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ExportArchive {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("EXPORT_ARCHIVE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.S3KMSKeyID)
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

func buildServices(app *App) {
	cfg := app.Config

	if app.DB != nil {
		app.SessionsRepo = &sessions.PGRepo{DB: app.DB, TTL: cfg.SessionTTL}
		app.AnalysesRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		app.SessionsRepo = sessions.NewMemoryRepo(cfg.SessionTTL, nil)
		app.AnalysesRepo = analyses.NewMemoryRepo()
	}

	app.SessionsService = &sessions.Service{Repo: app.SessionsRepo}
	app.AnalysesService = &analyses.Service{
		Repo:       app.AnalysesRepo,
		Sessions:   app.SessionsService,
		MaxResumes: cfg.MaxResumes,
		RunTTL:     cfg.SessionTTL,
	}

	var archive *report.Archive
	if app.ArchiveStore != nil {
		archive = &report.Archive{Store: app.ArchiveStore}
	}

	app.SessionsHandler = sessions.NewHandler(app.SessionsService, cfg.MaxUploadBytes)
	app.AnalysisHandler = analyses.NewHandler(app.AnalysesService, archive, cfg.MaxUploadBytes)
	app.WebHandler = web.NewHandler(app.SessionsService, app.AnalysesService, cfg.MaxUploadBytes)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
