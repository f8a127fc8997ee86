// Package srd downloads the D&D 5e System Reference Document catalog from
// the public dnd5eapi.co REST API.
//
// Each category has an index endpoint listing {index, name, url} entries.
// Every entry's detail document is fetched and kept verbatim as one raw
// record. Failed items are logged and skipped.
package srd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.CatalogFetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://www.dnd5eapi.co"
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "SagesOracle/1.0"
)

// endpoints maps categories to their index path.
var endpoints = map[domain.Category]string{
	domain.CategorySpells:   "/api/spells",
	domain.CategoryMonsters: "/api/monsters",
	domain.CategoryRules:    "/api/rule-sections",
}

// errRateLimited marks a 429 response.
var errRateLimited = errors.New("rate limited")

// Config holds configuration for the catalog fetcher.
type Config struct {
	// BaseURL is the API host (default: https://www.dnd5eapi.co).
	BaseURL string

	// Timeout bounds each request (default: 10s).
	Timeout time.Duration

	// UserAgent is sent with every request (default: SagesOracle/1.0).
	UserAgent string

	// RateLimit throttles requests (default: 2 req/s, burst 1).
	RateLimit *RateLimitConfig
}

// Fetcher downloads catalog categories.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *RateLimiter
}

// indexResponse is the category index format.
type indexResponse struct {
	Count   int `json:"count"`
	Results []struct {
		Index string `json:"index"`
		Name  string `json:"name"`
		URL   string `json:"url"`
	} `json:"results"`
}

// NewFetcher creates a catalog fetcher.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	limit := DefaultRateLimit
	if cfg.RateLimit != nil {
		limit = *cfg.RateLimit
	}

	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		limiter:   NewRateLimiter(limit),
	}
}

// Fetch downloads every item of a category. A failed index request is an
// error; failed items are skipped.
func (f *Fetcher) Fetch(ctx context.Context, category domain.Category) ([]domain.RawRecord, error) {
	path, ok := endpoints[category]
	if !ok {
		return nil, fmt.Errorf("%w: category %q", domain.ErrUnsupportedType, category)
	}

	var index indexResponse
	if err := f.getJSON(ctx, f.baseURL+path, &index); err != nil {
		return nil, fmt.Errorf("fetch %s index: %w", category, err)
	}
	logger.Info("%s: %d items listed", category, len(index.Results))

	records := make([]domain.RawRecord, 0, len(index.Results))
	for i, item := range index.Results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var record domain.RawRecord
		err := f.getJSON(ctx, f.baseURL+item.URL, &record)
		if errors.Is(err, errRateLimited) {
			// One retry after the limiter's backoff.
			err = f.getJSON(ctx, f.baseURL+item.URL, &record)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("skipping %s %q: %v", category, item.Name, err)
			continue
		}
		records = append(records, record)
		logger.Debug("[%d/%d] %s", i+1, len(index.Results), item.Name)
	}
	return records, nil
}

// getJSON waits for the limiter, sends a GET and decodes the body with
// numbers kept as json.Number.
func (f *Fetcher) getJSON(ctx context.Context, url string, v any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(-1)
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			retryAfter = time.Duration(secs) * time.Second
		}
		f.limiter.RecordRateLimitError(retryAfter)
		return fmt.Errorf("%w: %s", errRateLimited, url)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("srd error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
