// Package config defines service configuration loaded from YAML with
// environment variable overrides.
package config

import (
	"time"

	"github.com/signalwatch/propagraph/internal/logging"
)

// Default values applied when the config file leaves fields unset.
const (
	defaultBatchSize                 = 500
	defaultWorkerCount               = 8
	defaultPollInterval              = 30 * time.Second
	defaultPollRatePerSec            = 2.0
	defaultLookbackDays              = 30
	defaultMinSimilarity             = 0.5
	defaultCoordinationMinSimilarity = 0.8
	defaultCoordinationWindow        = 300 * time.Second
	defaultCoordinationMinSources    = 2
	defaultModelBuildTimeout         = 30 * time.Second
	defaultKeywordTopN               = 10
	defaultSentimentNeutralBand      = 0.1
	defaultMutationThreshold         = 0.95
	defaultExportDir                 = "exports"
	defaultHTTPPort                  = 8080
	defaultMarkerCorpusPath          = "config/markers.yml"
	defaultPipelineVersion           = "1.0.0"
)

// Config is the root configuration for the service.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	NLP      NLPConfig      `yaml:"nlp"`
	Network  NetworkConfig  `yaml:"network"`
	Server   ServerConfig   `yaml:"server"`
	Logging  logging.Config `yaml:"logging"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     string `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
}

// PipelineConfig controls the analysis scheduler.
type PipelineConfig struct {
	// Version marks Analysis rows; bumping it makes existing rows stale.
	Version      string        `yaml:"version" env:"PIPELINE_VERSION"`
	BatchSize    int           `yaml:"batch_size" env:"PIPELINE_BATCH_SIZE"`
	WorkerCount  int           `yaml:"worker_count" env:"PIPELINE_WORKERS"`
	PollInterval time.Duration `yaml:"poll_interval" env:"PIPELINE_POLL_INTERVAL"`
	// PollRatePerSec caps store polling when running as a daemon.
	PollRatePerSec float64 `yaml:"poll_rate_per_sec" env:"PIPELINE_POLL_RATE"`
}

// NLPConfig controls the enrichment sub-pipeline.
type NLPConfig struct {
	MarkerCorpusPath string `yaml:"marker_corpus_path" env:"NLP_MARKER_CORPUS"`
	KeywordTopN      int    `yaml:"keyword_top_n"`
	// SentimentNeutralBand: sentiment scores inside (-band, band) are
	// labeled neutral.
	SentimentNeutralBand float64       `yaml:"sentiment_neutral_band"`
	ModelBuildTimeout    time.Duration `yaml:"model_build_timeout"`
}

// NetworkConfig controls linking, graph analysis, and export.
type NetworkConfig struct {
	LookbackDays int `yaml:"lookback_days" env:"NETWORK_LOOKBACK_DAYS"`
	// MinSimilarity is the threshold for creating "similar" edges.
	MinSimilarity float64 `yaml:"min_similarity" env:"NETWORK_MIN_SIMILARITY"`
	// MutationThreshold: similar edges below it are flagged as mutated copies.
	MutationThreshold float64 `yaml:"mutation_threshold"`
	// Coordination detector settings.
	CoordinationMinSimilarity float64       `yaml:"coordination_min_similarity"`
	CoordinationWindow        time.Duration `yaml:"coordination_window"`
	CoordinationMinSources    int           `yaml:"coordination_min_sources"`
	ExportDir                 string        `yaml:"export_dir" env:"NETWORK_EXPORT_DIR"`
}

// ServerConfig holds the operational HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port" env:"HTTP_PORT"`
}

// SetDefaults applies defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Pipeline.Version == "" {
		c.Pipeline.Version = defaultPipelineVersion
	}
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = defaultBatchSize
	}
	if c.Pipeline.WorkerCount <= 0 {
		c.Pipeline.WorkerCount = defaultWorkerCount
	}
	if c.Pipeline.PollInterval <= 0 {
		c.Pipeline.PollInterval = defaultPollInterval
	}
	if c.Pipeline.PollRatePerSec <= 0 {
		c.Pipeline.PollRatePerSec = defaultPollRatePerSec
	}
	if c.NLP.MarkerCorpusPath == "" {
		c.NLP.MarkerCorpusPath = defaultMarkerCorpusPath
	}
	if c.NLP.KeywordTopN <= 0 {
		c.NLP.KeywordTopN = defaultKeywordTopN
	}
	if c.NLP.SentimentNeutralBand <= 0 {
		c.NLP.SentimentNeutralBand = defaultSentimentNeutralBand
	}
	if c.NLP.ModelBuildTimeout <= 0 {
		c.NLP.ModelBuildTimeout = defaultModelBuildTimeout
	}
	if c.Network.LookbackDays <= 0 {
		c.Network.LookbackDays = defaultLookbackDays
	}
	if c.Network.MinSimilarity <= 0 {
		c.Network.MinSimilarity = defaultMinSimilarity
	}
	if c.Network.MutationThreshold <= 0 {
		c.Network.MutationThreshold = defaultMutationThreshold
	}
	if c.Network.CoordinationMinSimilarity <= 0 {
		c.Network.CoordinationMinSimilarity = defaultCoordinationMinSimilarity
	}
	if c.Network.CoordinationWindow <= 0 {
		c.Network.CoordinationWindow = defaultCoordinationWindow
	}
	if c.Network.CoordinationMinSources <= 0 {
		c.Network.CoordinationMinSources = defaultCoordinationMinSources
	}
	if c.Network.ExportDir == "" {
		c.Network.ExportDir = defaultExportDir
	}
	if c.Server.Port <= 0 {
		c.Server.Port = defaultHTTPPort
	}
	c.Logging.SetDefaults()
}
