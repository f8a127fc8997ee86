// Package rawdata reads and writes the raw category files that feed the
// corpus build. Each category lives in <dir>/<category>.json, or .yaml/.yml
// when no JSON file exists. Rules may additionally come from rules.pdf,
// one record per non-empty page.
package rawdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// Ensure Store implements the interfaces.
var (
	_ driven.RecordSource = (*Store)(nil)
	_ driven.RecordSink   = (*Store)(nil)
)

// RulesPDF is the optional PDF appended to the rules category.
const RulesPDF = "rules.pdf"

var extensions = []string{".json", ".yaml", ".yml"}

// Store reads and writes raw category files in one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the raw directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load returns every record of a category. Returns domain.ErrNotFound when
// neither a category file nor, for rules, the PDF exists.
func (s *Store) Load(ctx context.Context, category domain.Category) ([]domain.RawRecord, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: category %q", domain.ErrUnsupportedType, category)
	}

	records, err := s.loadStructured(category)
	found := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if category == domain.CategoryRules {
		pages, err := s.loadPDF(ctx)
		switch {
		case err == nil:
			records = append(records, pages...)
			found = true
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: no raw file for %s in %s", domain.ErrNotFound, category, s.dir)
	}
	return records, nil
}

// Paths returns every file that Load may read, whether or not it exists yet.
func (s *Store) Paths() []string {
	var paths []string
	for _, category := range domain.Categories() {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(s.dir, string(category)+ext))
		}
	}
	return append(paths, filepath.Join(s.dir, RulesPDF))
}

// Save replaces <dir>/<category>.json.
func (s *Store) Save(_ context.Context, category domain.Category, records []domain.RawRecord) error {
	if !category.IsValid() {
		return fmt.Errorf("%w: category %q", domain.ErrUnsupportedType, category)
	}
	if records == nil {
		records = []domain.RawRecord{}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode %s: %w", category, err)
	}

	path := filepath.Join(s.dir, string(category)+".json")
	tmp, err := os.CreateTemp(s.dir, "."+string(category)+"-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func (s *Store) loadStructured(category domain.Category) ([]domain.RawRecord, error) {
	for _, ext := range extensions {
		path := filepath.Join(s.dir, string(category)+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var records []domain.RawRecord
		if ext == ".json" {
			records, err = decodeJSON(data)
		} else {
			records, err = decodeYAML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
		}
		logger.Debug("Loaded %d %s records from %s", len(records), category, path)
		return records, nil
	}
	return nil, domain.ErrNotFound
}

// decodeJSON keeps numbers as json.Number so integers render without a
// decimal point.
func decodeJSON(data []byte) ([]domain.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []domain.RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeYAML(data []byte) ([]domain.RawRecord, error) {
	var records []domain.RawRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) loadPDF(ctx context.Context) ([]domain.RawRecord, error) {
	path := filepath.Join(s.dir, RulesPDF)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, path, err)
	}
	defer f.Close()

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var records []domain.RawRecord
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("%s page %d: %v", path, i, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		records = append(records, domain.RawRecord{
			"name": fmt.Sprintf("%s p.%d", stem, i),
			"desc": text,
		})
	}
	logger.Debug("Loaded %d rule pages from %s", len(records), path)
	return records, nil
}
