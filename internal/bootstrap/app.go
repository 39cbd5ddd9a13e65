package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/datasets"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/files"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/ingest"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/jobs"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/llm"
	openai "github.com/shalwin04/ai-insights-copilot-sub000/internal/llm/openai"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline/stages"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/queue"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/runs"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/config"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/server"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/storage/db"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/storage/object"
	localstore "github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/storage/object/local"
	s3store "github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/storage/object/s3"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/workflows"
)

// App holds shared dependencies for the API and worker deployments.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	FilesRepo      files.Repo
	JobsRepo       jobs.Repo
	DatasetsRepo   datasets.Repo
	WorkflowsRepo  workflows.WorkflowRepo
	ExecutionsRepo workflows.ExecutionRepo

	FilesService    *files.Service
	DatasetsService *datasets.Service
	Orchestrator    *pipeline.Orchestrator
	Tracker         *jobs.Tracker
	JobProcessor    JobProcessor
	Scheduler       *workflows.Scheduler

	FileHandler     *files.Handler
	JobHandler      *jobs.Handler
	DatasetHandler  *datasets.Handler
	RunHandler      *runs.Handler
	WorkflowHandler *workflows.Handler
}

// JobProcessor allows callers to override job processing for tests.
type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

// Build prepares shared dependencies and wires the router.
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

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		FileHandler:     app.FileHandler,
		JobHandler:      app.JobHandler,
		DatasetHandler:  app.DatasetHandler,
		RunHandler:      app.RunHandler,
		WorkflowHandler: app.WorkflowHandler,
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

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
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
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func buildLLMClient(cfg config.Config, apiKey string) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		return llm.PlaceholderClient{}, nil
	}
	if strings.TrimSpace(apiKey) == "" && isDevLike(cfg.Env) {
		log.Printf("bootstrap: OPENAI_API_KEY empty; using placeholder LLM client")
		return llm.PlaceholderClient{}, nil
	}
	return openai.NewClient(apiKey, cfg.LLMModel)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var fileRepo files.Repo
	var jobRepo jobs.Repo
	var datasetRepo datasets.Repo
	var workflowRepo workflows.WorkflowRepo
	var executionRepo workflows.ExecutionRepo

	if app.DB != nil {
		fileRepo = &files.PGRepo{DB: app.DB}
		jobRepo = &jobs.PGRepo{DB: app.DB}
		datasetRepo = &datasets.PGRepo{DB: app.DB}
		workflowRepo = &workflows.PGWorkflowRepo{DB: app.DB}
		executionRepo = &workflows.PGExecutionRepo{DB: app.DB}
	} else {
		fileRepo = files.NewMemoryRepo()
		jobRepo = jobs.NewMemoryRepo()
		datasetRepo = datasets.NewMemoryRepo()
		workflowRepo = workflows.NewMemoryWorkflowRepo()
		executionRepo = workflows.NewMemoryExecutionRepo()
	}

	fileSvc := &files.Service{Store: app.Store, Repo: fileRepo}
	datasetSvc := &datasets.Service{Repo: datasetRepo}

	llmClient, err := buildLLMClient(app.Config, os.Getenv("OPENAI_API_KEY"))
	if err != nil {
		return err
	}

	orchestrator, err := pipeline.New(pipeline.DefaultPolicy(), stages.All(stages.Collaborators{
		Classifier: llm.Classifier{Client: llmClient},
		Retriever:  datasetSvc,
		Searcher:   llm.Searcher{Client: llmClient},
		Analyzer:   llm.Analyzer{Client: llmClient},
		Visualizer: llm.Visualizer{Client: llmClient},
		Summarizer: llm.Summarizer{Client: llmClient},
		Responder:  llm.Responder{Client: llmClient},
	})...)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	tracker := &jobs.Tracker{
		Repo: jobRepo,
		Processor: &ingest.Processor{
			Files:    fileSvc,
			Parser:   ingest.DelimitedParser{},
			Datasets: datasetSvc,
		},
		Queue: app.Queue,
	}

	scheduler := workflows.NewScheduler(workflowRepo, executionRepo, orchestrator, defaultActions(app.Queue))

	app.FilesRepo = fileRepo
	app.JobsRepo = jobRepo
	app.DatasetsRepo = datasetRepo
	app.WorkflowsRepo = workflowRepo
	app.ExecutionsRepo = executionRepo
	app.FilesService = fileSvc
	app.DatasetsService = datasetSvc
	app.Orchestrator = orchestrator
	app.Tracker = tracker
	app.JobProcessor = tracker
	app.Scheduler = scheduler
	app.FileHandler = files.NewHandler(fileSvc)
	app.JobHandler = jobs.NewHandler(tracker, fileRepo)
	app.DatasetHandler = datasets.NewHandler(datasetSvc)
	app.RunHandler = runs.NewHandler(orchestrator)
	app.WorkflowHandler = workflows.NewHandler(workflowRepo, executionRepo, scheduler)

	return nil
}

func defaultActions(queueClient queue.Client) *workflows.ActionSet {
	set := workflows.NewActionSet()
	set.Register("log_summary", workflows.LogSummaryAction())
	if queueClient != nil {
		set.Register("publish_insights", workflows.PublishInsightsAction(queueClient))
	}
	return set
}
