package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "stress-backend/internal/auth"
	"stress-backend/internal/events"
	"stress-backend/internal/predictions"
	"stress-backend/internal/scoring"
	"stress-backend/internal/services/health"
	"stress-backend/internal/shared/auth"
	"stress-backend/internal/shared/config"
	"stress-backend/internal/shared/server"
	"stress-backend/internal/shared/storage/db"
	"stress-backend/internal/shared/storage/object"
	localstore "stress-backend/internal/shared/storage/object/local"
	s3store "stress-backend/internal/shared/storage/object/s3"
	"stress-backend/internal/shared/telemetry"
	"stress-backend/internal/stress"
	"stress-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	ModelStore         object.Store
	ScoreProvider      stress.Provider
	Engine             *stress.Engine
	Events             events.Publisher
	Signer             *auth.Signer
	UsersRepo          users.Repo
	PredictionsRepo    predictions.Repo
	UsersService       *users.Service
	PredictionsService *predictions.Service
	UsersHandler       *users.Handler
	PredictionsHandler *predictions.Handler
	Health             *health.Service
	GoogleAuth         *googleauth.GoogleService
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := BuildModelStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider := buildProvider(ctx, cfg, store)

	engine, err := BuildEngine(cfg, provider)
	if err != nil {
		return nil, err
	}

	publisher, err := buildEvents(ctx, cfg)
	if err != nil {
		return nil, err
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL, cfg.Env)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:        cfg,
		DB:            sqlDB,
		ModelStore:    store,
		ScoreProvider: provider,
		Engine:        engine,
		Events:        publisher,
		Signer:        signer,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		Verifier:          app.Signer,
		Health:            app.Health,
		UserHandler:       app.UsersHandler,
		PredictionHandler: app.PredictionsHandler,
		GoogleAuth:        app.GoogleAuth,
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
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_memory", map[string]any{"err": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// BuildModelStore returns the object store holding model artifacts.
func BuildModelStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ModelStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("MODEL_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.ModelDir), nil
	}
}

// buildProvider never fails startup: a missing model leaves /predict answering 503
// while history and auth keep working.
func buildProvider(ctx context.Context, cfg config.Config, store object.Store) stress.Provider {
	provider, err := scoring.New(ctx, scoring.Options{
		Kind:          cfg.ScoreProvider,
		Store:         store,
		ModelKey:      cfg.ModelKey,
		RemoteURL:     cfg.ScoreServiceURL,
		RemoteTimeout: cfg.ScoreServiceTimeout,
	})
	if err != nil {
		telemetry.Error("bootstrap.score_provider_unavailable", map[string]any{
			"provider": cfg.ScoreProvider,
			"err":      err,
		})
		return scoring.Unconfigured{}
	}
	telemetry.Info("bootstrap.score_provider", map[string]any{"provider": scoring.Describe(provider)})
	return provider
}

// BuildEngine loads the configured catalog and wraps provider in an Engine.
func BuildEngine(cfg config.Config, provider stress.Provider) (*stress.Engine, error) {
	catalog, err := stress.LoadCatalog(cfg.RecommendationLocale)
	if err != nil {
		return nil, fmt.Errorf("load recommendation catalog: %w", err)
	}
	return stress.NewEngine(provider, stress.Options{
		Catalog:         catalog,
		Format:          stress.ParseFormat(cfg.RecommendationFormat),
		CopingAllowList: cfg.CopingAllowList,
	})
}

func buildEvents(ctx context.Context, cfg config.Config) (events.Publisher, error) {
	if strings.TrimSpace(cfg.EventsQueueURL) == "" {
		return events.Noop{}, nil
	}
	return events.NewSQSPublisher(ctx, cfg.AWSRegion, cfg.EventsQueueURL)
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.PredictionsRepo = &predictions.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.PredictionsRepo = predictions.NewMemoryRepo()
	}

	hasher, err := auth.NewHasher(app.Config.BcryptCost)
	if err != nil {
		return err
	}

	app.UsersService = users.NewService(app.UsersRepo, hasher, app.Signer)
	app.PredictionsService = &predictions.Service{
		Engine: app.Engine,
		Repo:   app.PredictionsRepo,
		Events: app.Events,
	}
	app.UsersHandler = users.NewHandler(app.UsersService)
	app.PredictionsHandler = predictions.NewHandler(app.PredictionsService)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		app.UsersService,
	)

	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}
	app.Health = health.NewService(pinger, scoring.Describe(app.ScoreProvider))
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
