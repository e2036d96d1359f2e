package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	googleauth "pulsescore-backend/internal/auth"
	"pulsescore-backend/internal/certificates"
	"pulsescore-backend/internal/insights"
	"pulsescore-backend/internal/llm"
	"pulsescore-backend/internal/llm/gemini"
	"pulsescore-backend/internal/llm/openai"
	"pulsescore-backend/internal/queue"
	"pulsescore-backend/internal/results"
	"pulsescore-backend/internal/scoring"
	"pulsescore-backend/internal/services/health"
	"pulsescore-backend/internal/shared/config"
	"pulsescore-backend/internal/shared/server"
	"pulsescore-backend/internal/shared/storage/db"
	"pulsescore-backend/internal/shared/storage/object"
	localstore "pulsescore-backend/internal/shared/storage/object/local"
	s3store "pulsescore-backend/internal/shared/storage/object/s3"
	"pulsescore-backend/internal/shared/telemetry"
	"pulsescore-backend/internal/surveys"
	"pulsescore-backend/internal/users"
)

const insightsTimeout = 20 * time.Second

// App holds shared dependencies for the API, worker and Lambda entry points.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Redis        *redis.Client
	Store        object.Store
	Queue        queue.Client
	LLM          llm.TextClient
	Engine       *scoring.Engine
	Health       *health.Service
	Users        *users.Service
	Surveys      *surveys.Service
	Results      *results.Service
	Insights     *insights.Service
	Certificates *certificates.Service
}

// Build prepares shared dependencies and the router for the HTTP entry points.
func Build(cfg config.Config) (*App, error) {
	return build(cfg, db.ProfileAPI)
}

// BuildWorker is Build with a database pool sized for WORKER_CONCURRENCY
// certificate jobs.
func BuildWorker(cfg config.Config) (*App, error) {
	return build(cfg, db.ProfileWorker)
}

func build(cfg config.Config, profile db.Profile) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	telemetry.SetLevel(cfg.LogLevel)
	ctx := context.Background()

	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg, profile)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	textClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mailer, err := buildMailer(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
		LLM:    textClient,
		Engine: engine,
		Health: health.NewService(),
	}

	cache, err := buildCache(app)
	if err != nil {
		return nil, err
	}

	buildServices(app, cache, mailer)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       cfg,
		Health:       app.Health,
		GoogleAuth:   googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL, app.Users),
		Users:        users.NewHandler(app.Users),
		Surveys:      surveys.NewHandler(app.Surveys),
		Results:      results.NewHandler(app.Results),
		Insights:     insights.NewHandler(app.Insights),
		Certificates: certificates.NewHandler(app.Certificates),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":            cfg.Env,
		"config_version": engine.Config().Version,
		"postgres":       sqlDB != nil,
		"redis":          app.Redis != nil,
		"object_store":   cfg.ObjectStoreType,
		"queue":          queueClient != nil,
		"llm_provider":   textClient.Provider(),
		"mail_provider":  cfg.MailProvider,
	})
	return app, nil
}

// Close releases pooled connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildEngine(cfg config.Config) (*scoring.Engine, error) {
	scoringCfg := scoring.DefaultConfig()
	if path := strings.TrimSpace(cfg.ScoringConfigPath); path != "" {
		loaded, err := scoring.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("scoring config: %w", err)
		}
		scoringCfg = loaded
	}
	return scoring.NewEngine(scoringCfg, scoring.WithLogger(telemetry.L()))
}

func buildDB(ctx context.Context, cfg config.Config, profile db.Profile) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_missing", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	lambda := db.IsLambdaRuntime()
	opts := db.PoolOptions(profile, cfg.WorkerConcurrency, lambda).WithEnv(os.LookupEnv)
	var (
		sqlDB *sql.DB
		err   error
	)
	if lambda {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, opts)
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_unavailable", map[string]any{"fallback": "memory", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.CertificateQueue) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.CertificateQueue, cfg.AWSRegion)
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.TextClient, error) {
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	case "gemini":
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	default:
		return llm.Disabled{}, nil
	}
}

func buildMailer(cfg config.Config) (certificates.Mailer, error) {
	if cfg.MailProvider == "http" {
		return certificates.NewHTTPMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)
	}
	return certificates.LogMailer{}, nil
}

func buildCache(app *App) (results.Cache, error) {
	if strings.TrimSpace(app.Config.RedisURL) == "" {
		return results.NoopCache{}, nil
	}
	cache, client, err := results.NewRedisCacheFromURL(app.Config.RedisURL, app.Config.ResultCacheTTL)
	if err != nil {
		return nil, err
	}
	app.Redis = client
	app.Health.Register("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return cache, nil
}

func buildServices(app *App, cache results.Cache, mailer certificates.Mailer) {
	var (
		userRepo   users.Repo
		surveyRepo surveys.Repo
		resultRepo results.Repo
		certRepo   certificates.Repo
	)
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		surveyRepo = &surveys.PGRepo{DB: app.DB}
		resultRepo = &results.PGRepo{DB: app.DB}
		certRepo = &certificates.PGRepo{DB: app.DB}
		app.Health.Register("postgres", app.DB.PingContext)
	} else {
		userRepo = users.NewMemoryRepo()
		surveyRepo = surveys.NewMemoryRepo()
		resultRepo = results.NewMemoryRepo()
		certRepo = certificates.NewMemoryRepo()
	}

	scoringCfg := app.Engine.Config()
	app.Users = users.NewService(userRepo)
	app.Surveys = surveys.NewService(surveyRepo, scoringCfg)
	app.Results = results.NewService(resultRepo, cache, app.Engine, app.Surveys)

	insightSvc := &insights.Service{
		Results: app.Results,
		Canned:  insights.NewCanned(scoringCfg),
		Timeout: insightsTimeout,
	}
	if _, disabled := app.LLM.(llm.Disabled); !disabled {
		insightSvc.Generative = &insights.Generative{Client: app.LLM}
	}
	app.Insights = insightSvc

	app.Certificates = &certificates.Service{
		Repo:    certRepo,
		Results: app.Results,
		Surveys: app.Surveys,
		Store:   app.Store,
		Mailer:  mailer,
		Queue:   app.Queue,
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
