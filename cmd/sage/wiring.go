package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/ai"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/rawdata"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/srd"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/storage"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/cli"
	"github.com/custodia-labs/sages-oracle/internal/chunker"
	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
	"github.com/custodia-labs/sages-oracle/internal/core/services"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

var _ cli.Wiring = (*wiring)(nil)

// wiring is the composition root. Each adapter is created on first use
// and shared by every service that needs it.
type wiring struct {
	configDir string
	settings  *services.SettingsService

	store driven.SnapshotStore
	raw   *rawdata.Store
	ai    *ai.InitResult

	corpus  *services.CorpusService
	indexer *services.IndexService
	engine  *services.Engine
	fetcher *services.FetchService
}

func newWiring() *wiring {
	return &wiring{}
}

// Init opens the configuration directory and the settings service.
func (w *wiring) Init(opts cli.Options) error {
	dir := opts.ConfigDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return fmt.Errorf("config directory: %w", err)
		}
		dir = d
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	w.configDir = dir
	w.settings = services.NewSettingsService(configStore, ai.NewConfigValidator())
	logger.Debug("config directory: %s", dir)
	return nil
}

func (w *wiring) Settings() (driving.SettingsService, error) {
	if w.settings == nil {
		return nil, errors.New("settings not initialised")
	}
	return w.settings, nil
}

func (w *wiring) appSettings() (*domain.AppSettings, error) {
	svc, err := w.Settings()
	if err != nil {
		return nil, err
	}
	return svc.Get()
}

func (w *wiring) snapshotStore() (driven.SnapshotStore, error) {
	if w.store != nil {
		return w.store, nil
	}
	settings, err := w.appSettings()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSnapshotStore(settings.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", settings.Storage.Backend, err)
	}
	logger.Debug("snapshot store: %s in %s", settings.Storage.Backend, settings.Storage.DataDir)
	w.store = store
	return store, nil
}

func (w *wiring) rawStore() (*rawdata.Store, error) {
	if w.raw != nil {
		return w.raw, nil
	}
	settings, err := w.appSettings()
	if err != nil {
		return nil, err
	}
	w.raw = rawdata.NewStore(settings.Storage.RawDir)
	return w.raw, nil
}

// aiServices creates the embedding and LLM services. LLM problems are
// reported as warnings; a missing embedding service is an error.
func (w *wiring) aiServices() (*ai.InitResult, error) {
	if w.ai != nil {
		return w.ai, nil
	}
	settings, err := w.appSettings()
	if err != nil {
		return nil, err
	}
	result, err := ai.Init(settings)
	if err != nil {
		return nil, err
	}
	for _, warning := range result.Warnings {
		logger.Warn("%s", warning)
	}
	w.ai = result
	return result, nil
}

func (w *wiring) CorpusBuilder() (driving.CorpusBuilder, error) {
	if w.corpus != nil {
		return w.corpus, nil
	}
	settings, err := w.appSettings()
	if err != nil {
		return nil, err
	}

	tokenizer, err := tiktoken.New(settings.Chunking.Encoding)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	ch, err := chunker.New(tokenizer,
		chunker.WithMaxTokens(settings.Chunking.MaxTokens),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	if err != nil {
		return nil, err
	}

	raw, err := w.rawStore()
	if err != nil {
		return nil, err
	}
	store, err := w.snapshotStore()
	if err != nil {
		return nil, err
	}

	w.corpus = services.NewCorpusService(raw, ch, store)
	return w.corpus, nil
}

func (w *wiring) Indexer() (driving.Indexer, error) {
	if w.indexer != nil {
		return w.indexer, nil
	}
	settings, err := w.appSettings()
	if err != nil {
		return nil, err
	}
	store, err := w.snapshotStore()
	if err != nil {
		return nil, err
	}
	result, err := w.aiServices()
	if err != nil {
		return nil, err
	}

	w.indexer = services.NewIndexService(store, result.EmbeddingService, settings.Embedding.BatchSize)
	return w.indexer, nil
}

func (w *wiring) Engine() (driving.AskService, error) {
	if w.engine != nil {
		return w.engine, nil
	}
	settings, err := w.appSettings()
	if err != nil {
		return nil, err
	}
	store, err := w.snapshotStore()
	if err != nil {
		return nil, err
	}
	result, err := w.aiServices()
	if err != nil {
		return nil, err
	}
	prompts, err := file.NewPromptStore(filepath.Join(w.configDir, "prompts"))
	if err != nil {
		return nil, err
	}

	w.engine = services.NewEngine(store, result.EmbeddingService, result.LLMService,
		services.WithPromptStore(prompts),
		services.WithMaxTokens(settings.LLM.MaxTokens),
		services.WithTimeout(settings.LLM.Timeout),
	).WithChunkID(chunker.ChunkID)
	return w.engine, nil
}

func (w *wiring) Fetcher() (driving.FetchService, error) {
	if w.fetcher != nil {
		return w.fetcher, nil
	}
	raw, err := w.rawStore()
	if err != nil {
		return nil, err
	}
	w.fetcher = services.NewFetchService(srd.NewFetcher(srd.Config{}), raw)
	return w.fetcher, nil
}

func (w *wiring) WatchPaths() ([]string, error) {
	raw, err := w.rawStore()
	if err != nil {
		return nil, err
	}
	return raw.Paths(), nil
}

// Close releases the AI services and the snapshot store.
func (w *wiring) Close() error {
	if w.ai != nil {
		w.ai.Close()
		w.ai = nil
	}
	if w.store != nil {
		err := w.store.Close()
		w.store = nil
		return err
	}
	return nil
}
