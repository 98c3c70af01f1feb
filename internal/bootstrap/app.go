package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "documind-backend/internal/auth"
	"documind-backend/internal/documents"
	"documind-backend/internal/extraction"
	"documind-backend/internal/llm"
	"documind-backend/internal/llm/bedrock"
	"documind-backend/internal/llm/openai"
	"documind-backend/internal/ocr"
	localocr "documind-backend/internal/ocr/local"
	"documind-backend/internal/ocr/textract"
	"documind-backend/internal/queries"
	"documind-backend/internal/shared/config"
	"documind-backend/internal/shared/server"
	"documind-backend/internal/shared/storage/db"
	"documind-backend/internal/shared/storage/object"
	localstore "documind-backend/internal/shared/storage/object/local"
	s3store "documind-backend/internal/shared/storage/object/s3"
	"documind-backend/internal/summaries"
	"documind-backend/internal/uploads"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	DocumentsRepo     documents.DocumentsRepo
	DocumentsService  *documents.Service
	ExtractionService *extraction.Service
	SummariesService  *summaries.Service
	QueriesService    *queries.Service

	DocumentsHandler  *documents.Handler
	UploadsHandler    *uploads.Handler
	ExtractionHandler *extraction.Handler
	SummariesHandler  *summaries.Handler
	QueriesHandler    *queries.Handler
	GoogleAuth        *googleauth.GoogleService
}

// Build prepares the full dependency graph and router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Env:             cfg.Env,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		Handlers: []server.RouteRegistrar{
			app.GoogleAuth,
			app.UploadsHandler,
			app.DocumentsHandler,
			app.ExtractionHandler,
			app.SummariesHandler,
			app.QueriesHandler,
		},
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildOCR(ctx context.Context, cfg config.Config, store object.ObjectStore) (ocr.Engine, error) {
	switch cfg.OCRProvider {
	case "textract":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OCR_PROVIDER=textract requires S3_BUCKET")
		}
		return textract.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localocr.New(store), nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "bedrock":
		return bedrock.New(ctx, cfg.AWSRegion, cfg.LLMModel)
	case "openai":
		return openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel, cfg.LLMTimeout)
	default:
		if !isDevLike(cfg.Env) {
			return nil, fmt.Errorf("LLM_PROVIDER must be bedrock or openai, got %q", cfg.LLMProvider)
		}
		log.Printf("bootstrap: no LLM provider configured; summarize/query will fail")
		return llm.PlaceholderClient{}, nil
	}
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var docRepo documents.DocumentsRepo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
	}

	docSvc := &documents.Service{
		Repo:           docRepo,
		Store:          app.Store,
		PresignExpiry:  cfg.PresignExpiry,
		StorageTimeout: cfg.StorageTimeout,
	}

	engine, err := buildOCR(ctx, cfg, app.Store)
	if err != nil {
		return err
	}

	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return err
	}

	app.DocumentsRepo = docRepo
	app.DocumentsService = docSvc
	app.ExtractionService = &extraction.Service{
		Repo:           docRepo,
		Engine:         engine,
		Timeout:        cfg.OCRTimeout,
		MinConfidence:  cfg.OCRMinConfidence,
		MaxStoredChars: cfg.MaxStoredChars,
	}
	app.SummariesService = &summaries.Service{
		Repo:     docRepo,
		LLM:      llmClient,
		MaxChars: cfg.LLMMaxChars,
		Timeout:  cfg.LLMTimeout,
	}
	app.QueriesService = &queries.Service{
		Repo:     docRepo,
		LLM:      llmClient,
		MaxChars: cfg.LLMMaxChars,
		Timeout:  cfg.LLMTimeout,
	}

	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.UploadsHandler = uploads.NewHandler(docSvc, app.Store, cfg.MaxUploadBytes, cfg.PresignExpiry)
	app.ExtractionHandler = extraction.NewHandler(app.ExtractionService)
	app.SummariesHandler = summaries.NewHandler(app.SummariesService)
	app.QueriesHandler = queries.NewHandler(app.QueriesService)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
	)

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
