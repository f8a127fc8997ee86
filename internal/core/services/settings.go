package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedBatchSize = "embedding.batch_size"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMMaxTokens   = "llm.max_tokens"
	keyLLMTimeout     = "llm.timeout_seconds"
	keyChunkMax       = "chunking.max_tokens"
	keyChunkOverlap   = "chunking.overlap"
	keyChunkEncoding  = "chunking.encoding"
	keyStorageBackend = "storage.backend"
	keyStorageDataDir = "storage.data_dir"
	keyRawDir         = "raw.dir"
	keyServerHost     = "server.host"
	keyServerPort     = "server.port"
	keyTopK           = "retrieval.top_k"
	keyTemperature    = "retrieval.temperature"
)

// EnvPrefix prefixes environment variables that override config keys.
// SAGE_LLM_MODEL overrides llm.model.
const EnvPrefix = "SAGE_"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

// settingKey describes one configurable key and how to render its effective value.
type settingKey struct {
	key    string
	kind   valueKind
	secret bool
	render func(s *domain.AppSettings) string
}

var settingKeys = []settingKey{
	{keyEmbedProvider, kindString, false, func(s *domain.AppSettings) string { return s.Embedding.Provider.String() }},
	{keyEmbedModel, kindString, false, func(s *domain.AppSettings) string { return s.Embedding.Model }},
	{keyEmbedBaseURL, kindString, false, func(s *domain.AppSettings) string { return s.Embedding.BaseURL }},
	{keyEmbedAPIKey, kindString, true, func(s *domain.AppSettings) string { return s.Embedding.APIKey }},
	{keyEmbedBatchSize, kindInt, false, func(s *domain.AppSettings) string { return strconv.Itoa(s.Embedding.BatchSize) }},
	{keyLLMProvider, kindString, false, func(s *domain.AppSettings) string { return s.LLM.Provider.String() }},
	{keyLLMModel, kindString, false, func(s *domain.AppSettings) string { return s.LLM.Model }},
	{keyLLMBaseURL, kindString, false, func(s *domain.AppSettings) string { return s.LLM.BaseURL }},
	{keyLLMAPIKey, kindString, true, func(s *domain.AppSettings) string { return s.LLM.APIKey }},
	{keyLLMMaxTokens, kindInt, false, func(s *domain.AppSettings) string { return strconv.Itoa(s.LLM.MaxTokens) }},
	{keyLLMTimeout, kindInt, false, func(s *domain.AppSettings) string { return strconv.Itoa(int(s.LLM.Timeout / time.Second)) }},
	{keyChunkMax, kindInt, false, func(s *domain.AppSettings) string { return strconv.Itoa(s.Chunking.MaxTokens) }},
	{keyChunkOverlap, kindInt, false, func(s *domain.AppSettings) string { return strconv.Itoa(s.Chunking.Overlap) }},
	{keyChunkEncoding, kindString, false, func(s *domain.AppSettings) string { return s.Chunking.Encoding }},
	{keyStorageBackend, kindString, false, func(s *domain.AppSettings) string { return s.Storage.Backend.String() }},
	{keyStorageDataDir, kindString, false, func(s *domain.AppSettings) string { return s.Storage.DataDir }},
	{keyRawDir, kindString, false, func(s *domain.AppSettings) string { return s.Storage.RawDir }},
	{keyServerHost, kindString, false, func(s *domain.AppSettings) string { return s.Server.Host }},
	{keyServerPort, kindInt, false, func(s *domain.AppSettings) string { return strconv.Itoa(s.Server.Port) }},
	{keyTopK, kindInt, false, func(s *domain.AppSettings) string { return strconv.Itoa(s.Retrieval.TopK) }},
	{keyTemperature, kindFloat, false, func(s *domain.AppSettings) string {
		return strconv.FormatFloat(s.Retrieval.Temperature, 'f', -1, 64)
	}},
}

// SettingsService manages application settings.
// Values resolve in order: environment variable, config file, default.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup. Used in tests.
func (s *SettingsService) SetEnvLookup(fn func(string) (string, bool)) {
	s.lookupEnv = fn
}

// EnvVar returns the environment variable that overrides a config key.
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:  s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:     s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:   s.getString(keyEmbedBaseURL, ""),
			APIKey:    s.getString(keyEmbedAPIKey, ""),
			BatchSize: s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
		},
		LLM: domain.LLMSettings{
			Provider:  s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:     s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:   s.getString(keyLLMBaseURL, ""),
			APIKey:    s.getString(keyLLMAPIKey, ""),
			MaxTokens: s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			Timeout:   time.Duration(s.getInt(keyLLMTimeout, int(defaults.LLM.Timeout/time.Second))) * time.Second,
		},
		Chunking: domain.ChunkingSettings{
			MaxTokens: s.getInt(keyChunkMax, defaults.Chunking.MaxTokens),
			Overlap:   s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
			Encoding:  s.getString(keyChunkEncoding, defaults.Chunking.Encoding),
		},
		Storage: domain.StorageSettings{
			Backend: s.getBackend(defaults.Storage.Backend),
			DataDir: s.getString(keyStorageDataDir, defaults.Storage.DataDir),
		},
		Server: domain.ServerSettings{
			Host: s.getString(keyServerHost, defaults.Server.Host),
			Port: s.getInt(keyServerPort, defaults.Server.Port),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:        s.getInt(keyTopK, defaults.Retrieval.TopK),
			Temperature: s.getFloat(keyTemperature, defaults.Retrieval.Temperature),
		},
	}
	settings.Storage.RawDir = s.getString(keyRawDir, filepath.Join(settings.Storage.DataDir, "raw"))

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	type kv struct {
		key   string
		value any
	}
	values := []kv{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTimeout, int(settings.LLM.Timeout / time.Second)},
		{keyChunkMax, settings.Chunking.MaxTokens},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyChunkEncoding, settings.Chunking.Encoding},
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyServerHost, settings.Server.Host},
		{keyServerPort, settings.Server.Port},
		{keyTopK, settings.Retrieval.TopK},
		{keyTemperature, settings.Retrieval.Temperature},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, kv{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, kv{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

// Set stores a single key, converting the value to the key's type, and persists it.
func (s *SettingsService) Set(key, value string) error {
	sk, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any = value
	switch sk.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		typed = f
	}

	switch key {
	case keyEmbedProvider, keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: provider %q", domain.ErrUnsupportedType, value)
		}
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, value)
		}
	case keyTemperature:
		if f := typed.(float64); f < 0 || f > 1 {
			return fmt.Errorf("%w: temperature must be between 0 and 1", domain.ErrInvalidInput)
		}
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Entries returns every known key with its effective value, sorted by key.
func (s *SettingsService) Entries() ([]domain.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SettingEntry, 0, len(settingKeys))
	for _, sk := range settingKeys {
		entries = append(entries, domain.SettingEntry{
			Key:    sk.key,
			Value:  sk.render(settings),
			Source: s.sourceOf(sk.key),
			Secret: sk.secret,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with environment overrides and defaults.

func (s *SettingsService) env(key string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(EnvVar(key))
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *SettingsService) sourceOf(key string) string {
	if _, ok := s.env(key); ok {
		return "env"
	}
	if _, ok := s.configStore.Get(key); ok {
		return "config"
	}
	return "default"
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v, ok := s.env(key); ok {
		return v
	}
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if v, ok := s.env(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		logger.Warn("ignoring %s=%q: not an integer", EnvVar(key), v)
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if v, ok := s.env(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
		logger.Warn("ignoring %s=%q: not a number", EnvVar(key), v)
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.getString(key, ""))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.getString(keyStorageBackend, ""))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func lookupKey(key string) (settingKey, bool) {
	for _, sk := range settingKeys {
		if sk.key == key {
			return sk, true
		}
	}
	return settingKey{}, false
}
