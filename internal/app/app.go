// Package app provides the application initialization and lifecycle management
package app

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/sentryfix/internal/analyzer"
	"github.com/tildaslashalef/sentryfix/internal/autofix"
	"github.com/tildaslashalef/sentryfix/internal/codebase"
	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/extractor"
	"github.com/tildaslashalef/sentryfix/internal/git"
	"github.com/tildaslashalef/sentryfix/internal/github"
	"github.com/tildaslashalef/sentryfix/internal/llm"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
	"github.com/tildaslashalef/sentryfix/internal/report"
	"github.com/tildaslashalef/sentryfix/internal/sentry"
)

// App represents the application instance with its dependencies
type App struct {
	Config   *config.Config
	Sentry   *sentry.Client
	Analyzer *analyzer.Analyzer
	Gatherer *codebase.Gatherer
	Reporter *report.Writer
	Git      *git.Service
	GitHub   *github.Service
	Autofix  *autofix.Service
}

// New initializes a new application instance with all its dependencies
func New() (*App, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("Application initializing",
		"version", os.Getenv("VERSION"),
		"log_level", cfg.Logging.Level,
	)

	app, err := initServices(cfg)
	if err != nil {
		return nil, err
	}

	loggy.Info("Application initialized successfully")
	return app, nil
}

// initConfig loads and sets up the application configuration
func initConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv("", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	config.Set(cfg)
	return cfg, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initServices initializes all application services
func initServices(cfg *config.Config) (*App, error) {
	logger := loggy.GetGlobalLogger()

	sentryClient := sentry.NewClient(cfg.Sentry, logger)
	analyzerService := analyzer.New(cfg.Sentry.MaxOccurrences, logger)
	gatherer := codebase.NewGatherer(cfg.Codebase, logger)
	proposalExtractor := extractor.NewProposalExtractor(logger)
	reporter := report.NewWriter(cfg.Output.Dir, logger)
	gitService := git.NewService(logger)
	githubService := github.NewService(cfg, logger)

	llmClient, err := initLLMClient(cfg, logger)
	if err != nil {
		// Non-fatal: the client is validated again before a run starts
		loggy.Warn("Failed to initialize LLM client, analysis runs will be unavailable", "error", err)
	}

	// The PR path is optional; without it proposals stay local files
	var publisher autofix.ChangePublisher
	if cfg.Output.CreatePullRequests {
		publisher = github.NewFixPublisher(cfg, gitService, githubService, logger)
	}

	autofixService := autofix.NewService(
		cfg,
		sentryClient,
		analyzerService,
		gatherer,
		llmClient,
		proposalExtractor,
		reporter,
		publisher,
		logger,
	)

	return &App{
		Config:   cfg,
		Sentry:   sentryClient,
		Analyzer: analyzerService,
		Gatherer: gatherer,
		Reporter: reporter,
		Git:      gitService,
		GitHub:   githubService,
		Autofix:  autofixService,
	}, nil
}

// initLLMClient initializes the LLM client
func initLLMClient(cfg *config.Config, logger *loggy.Logger) (llm.Client, error) {
	llmFactory := llm.NewFactory(cfg, logger)
	client, clientType, err := llmFactory.GetDefaultClient()
	if err != nil {
		return nil, err
	}
	loggy.Info("Initialized LLM client", "type", clientType)
	return client, nil
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown() error {
	loggy.Info("Shutting down application")
	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
