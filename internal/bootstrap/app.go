// Package bootstrap wires configuration, storage, and the pipeline
// components into a runnable application. Both binaries build from here.
package bootstrap

import (
	"fmt"
	"time"

	"github.com/signalwatch/propagraph/internal/analysis"
	"github.com/signalwatch/propagraph/internal/api"
	"github.com/signalwatch/propagraph/internal/config"
	"github.com/signalwatch/propagraph/internal/graph"
	"github.com/signalwatch/propagraph/internal/ingest"
	"github.com/signalwatch/propagraph/internal/linker"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/nlp"
	"github.com/signalwatch/propagraph/internal/scheduler"
	"github.com/signalwatch/propagraph/internal/store"
	"github.com/signalwatch/propagraph/internal/telemetry"
)

// App holds the wired application components.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Store     store.Store
	Telemetry *telemetry.Provider
	Gate      *ingest.Gate
	Pipeline  *nlp.Pipeline
	Linker    *linker.Linker
	Scheduler *scheduler.Scheduler
	Poller    *scheduler.Poller
	Runner    *analysis.Runner

	pg *store.Postgres
}

// New loads configuration from path and wires every component against
// PostgreSQL.
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	pg, err := store.NewPostgres(store.PostgresConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	app, err := build(cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	app.pg = pg
	return app, nil
}

// NewWithStore wires the application against an injected store. Used by
// tests and tooling that run on the in-memory store.
func NewWithStore(cfg *config.Config, st store.Store, logger logging.Logger) (*App, error) {
	cfg.SetDefaults()
	return build(cfg, st, logger)
}

func build(cfg *config.Config, st store.Store, logger logging.Logger) (*App, error) {
	tp := telemetry.NewProvider()

	corpus, err := nlp.LoadCorpus(cfg.NLP.MarkerCorpusPath)
	if err != nil {
		return nil, fmt.Errorf("load marker corpus: %w", err)
	}

	models := nlp.NewModelCache(corpus, cfg.NLP.ModelBuildTimeout, tp, logger)
	pipeline := nlp.NewPipeline(models, nil, nlp.Config{
		KeywordTopN:          cfg.NLP.KeywordTopN,
		SentimentNeutralBand: cfg.NLP.SentimentNeutralBand,
		Version:              cfg.Pipeline.Version,
	}, logger)

	lk := linker.New(st, linker.Config{
		MinSimilarity:     cfg.Network.MinSimilarity,
		MutationThreshold: cfg.Network.MutationThreshold,
		Lookback:          time.Duration(cfg.Network.LookbackDays) * 24 * time.Hour,
	}, tp, logger)

	batch := scheduler.NewBatchProcessor(pipeline, cfg.Pipeline.WorkerCount, tp, logger)
	sched := scheduler.New(st, batch, lk, pipeline, tp, logger)
	poller := scheduler.NewPoller(sched, cfg.Pipeline.PollInterval, cfg.Pipeline.BatchSize, cfg.Pipeline.PollRatePerSec, logger)

	runner := analysis.NewRunner(st, sched, lk, analysis.NetworkConfig{
		LookbackDays: cfg.Network.LookbackDays,
		Coordination: graph.CoordinationConfig{
			MinSimilarity: cfg.Network.CoordinationMinSimilarity,
			Window:        cfg.Network.CoordinationWindow,
			MinSources:    cfg.Network.CoordinationMinSources,
		},
		ExportDir: cfg.Network.ExportDir,
	}, tp, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Telemetry: tp,
		Gate:      ingest.NewGate(st, logger),
		Pipeline:  pipeline,
		Linker:    lk,
		Scheduler: sched,
		Poller:    poller,
		Runner:    runner,
	}, nil
}

// Handler builds the HTTP API handler.
func (a *App) Handler() *api.Handler {
	return api.NewHandler(a.Gate, a.Store, a.Runner, a.Linker, a.Telemetry, a.Config.Pipeline.BatchSize, a.Logger)
}

// Close releases held resources.
func (a *App) Close() {
	if a.pg != nil {
		_ = a.pg.Close()
	}
	_ = a.Logger.Sync()
}
