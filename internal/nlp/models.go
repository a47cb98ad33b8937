package nlp

import (
	"context"
	"sync"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/telemetry"
)

// LanguageModel bundles the per-language resources the pipeline needs:
// today the compiled marker automaton; the type is the seam where heavier
// models would load.
type LanguageModel struct {
	Language string
	Markers  *MarkerEngine
}

// ModelCache lazily builds one LanguageModel per language key and shares it
// process-wide. Construction is mutually exclusive with a double-checked
// lock; lookups after construction are lock-free via sync.Map. Construction
// carries a timeout, after which the language is reported unavailable
// instead of blocking a batch.
type ModelCache struct {
	corpus       *Corpus
	buildTimeout time.Duration
	telemetry    *telemetry.Provider
	logger       logging.Logger

	models sync.Map // language -> *LanguageModel
	mu     sync.Mutex
}

// NewModelCache creates a cache over the given marker corpus.
func NewModelCache(corpus *Corpus, buildTimeout time.Duration, tp *telemetry.Provider, logger logging.Logger) *ModelCache {
	return &ModelCache{
		corpus:       corpus,
		buildTimeout: buildTimeout,
		telemetry:    tp,
		logger:       logger,
	}
}

// Get returns the model for a language, building it on first use.
func (c *ModelCache) Get(ctx context.Context, lang string) (*LanguageModel, error) {
	// Fast path: lock-free lookup
	if v, ok := c.models.Load(lang); ok {
		return v.(*LanguageModel), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check under the lock: another goroutine may have built it
	if v, ok := c.models.Load(lang); ok {
		return v.(*LanguageModel), nil
	}

	model, err := c.build(ctx, lang)
	if err != nil {
		return nil, err
	}

	c.models.Store(lang, model)
	return model, nil
}

func (c *ModelCache) build(ctx context.Context, lang string) (*LanguageModel, error) {
	buildCtx, cancel := context.WithTimeout(ctx, c.buildTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan *LanguageModel, 1)

	go func() {
		done <- &LanguageModel{
			Language: lang,
			Markers:  NewMarkerEngine(c.corpus, lang),
		}
	}()

	select {
	case model := <-done:
		if c.telemetry != nil {
			c.telemetry.RecordModelBuild(lang, "success", time.Since(start))
		}
		c.logger.Info("Language model built",
			logging.String("language", lang),
			logging.Int("marker_keywords", model.Markers.KeywordCount()),
			logging.Duration("build_time", time.Since(start)),
		)
		return model, nil
	case <-buildCtx.Done():
		if c.telemetry != nil {
			c.telemetry.RecordModelBuild(lang, "timeout", time.Since(start))
		}
		return nil, &domain.ModelUnavailableError{Language: lang, Err: buildCtx.Err()}
	}
}
