package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
)

// FileName is the database file created inside the data directory.
const FileName = "index.db"

// snapshot_meta keys.
const (
	metaCorpusSavedAt = "corpus_saved_at"
	metaIndexSavedAt  = "index_saved_at"
	metaDimensions    = "dimensions"
)

// Store is a SQLite-backed snapshot store.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.SnapshotStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sage/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sage", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, FileName)

	// WAL lets `sage serve` read while `sage build` writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := newStoreWithDB(db)
	s.path = dbPath

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// newStoreWithDB wraps an already-open, already-migrated database.
func newStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_snapshot.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveCorpus replaces the stored chunk collection.
func (s *Store) SaveCorpus(ctx context.Context, chunks []domain.Chunk) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO chunks (position, id, text, metadata, token_count) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("preparing chunk insert: %w", err)
		}
		defer stmt.Close()

		for i, c := range chunks {
			metadataJSON, err := marshalMetadata(c.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling metadata of chunk %d: %w", i, err)
			}
			if _, err := stmt.ExecContext(ctx, i, c.ID, c.Text, metadataJSON, c.TokenCount); err != nil {
				return fmt.Errorf("inserting chunk %d: %w", i, err)
			}
		}

		return setMeta(ctx, tx, metaCorpusSavedAt, time.Now().UTC().Format(time.RFC3339))
	})
}

// LoadCorpus returns the stored chunk collection in build order.
func (s *Store) LoadCorpus(ctx context.Context) ([]domain.Chunk, error) {
	if _, err := s.getMeta(ctx, metaCorpusSavedAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT position, id, text, metadata, token_count FROM chunks ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		var (
			position     int
			metadataJSON string
			c            domain.Chunk
		)
		if err := rows.Scan(&position, &c.ID, &c.Text, &metadataJSON, &c.TokenCount); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if position != len(chunks) {
			return nil, fmt.Errorf("%w: chunk rows are not contiguous at position %d", domain.ErrIndexMismatch, position)
		}
		if c.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, fmt.Errorf("decoding metadata of chunk %d: %w", position, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}

	return chunks, nil
}

// SaveIndex replaces the stored embedding matrix and metadata sequence.
// The corpus is not rewritten; it must already have been saved.
func (s *Store) SaveIndex(ctx context.Context, index *domain.EmbeddingIndex) error {
	if err := index.Validate(); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings"); err != nil {
			return fmt.Errorf("clearing embeddings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM index_entries"); err != nil {
			return fmt.Errorf("clearing index entries: %w", err)
		}

		for i, vec := range index.Vectors {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO embeddings (position, vector) VALUES (?, ?)", i, float32SliceToBytes(vec)); err != nil {
				return fmt.Errorf("inserting embedding %d: %w", i, err)
			}
		}

		for _, e := range index.Entries {
			metadataJSON, err := marshalMetadata(e.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling metadata of entry %d: %w", e.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO index_entries (id, chunk_id, metadata, token_count) VALUES (?, ?, ?, ?)",
				e.ID, e.ChunkID, metadataJSON, e.TokenCount); err != nil {
				return fmt.Errorf("inserting index entry %d: %w", e.ID, err)
			}
		}

		if err := setMeta(ctx, tx, metaDimensions, strconv.Itoa(index.Dimensions())); err != nil {
			return err
		}
		return setMeta(ctx, tx, metaIndexSavedAt, time.Now().UTC().Format(time.RFC3339))
	})
}

// LoadIndex returns the corpus aligned with its embedding matrix.
func (s *Store) LoadIndex(ctx context.Context) (*domain.EmbeddingIndex, error) {
	if _, err := s.getMeta(ctx, metaIndexSavedAt); err != nil {
		return nil, err
	}

	chunks, err := s.LoadCorpus(ctx)
	if err != nil {
		return nil, err
	}

	vectors, err := s.loadVectors(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.loadEntries(ctx)
	if err != nil {
		return nil, err
	}

	index := &domain.EmbeddingIndex{
		Chunks:  chunks,
		Vectors: vectors,
		Entries: entries,
	}

	if raw, err := s.getMeta(ctx, metaDimensions); err == nil {
		dims, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return nil, fmt.Errorf("%w: invalid stored dimensions %q", domain.ErrIndexMismatch, raw)
		}
		if len(vectors) > 0 && dims != index.Dimensions() {
			return nil, fmt.Errorf("%w: stored dimensions %d, vectors have %d",
				domain.ErrIndexMismatch, dims, index.Dimensions())
		}
	}

	if err := index.Validate(); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *Store) loadVectors(ctx context.Context) ([][]float32, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT position, vector FROM embeddings ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	vectors := [][]float32{}
	for rows.Next() {
		var (
			position int
			blob     []byte
		)
		if err := rows.Scan(&position, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		if position != len(vectors) {
			return nil, fmt.Errorf("%w: embedding rows are not contiguous at position %d", domain.ErrIndexMismatch, position)
		}
		if len(blob)%4 != 0 {
			return nil, fmt.Errorf("%w: embedding %d has %d bytes", domain.ErrIndexMismatch, position, len(blob))
		}
		vectors = append(vectors, bytesToFloat32Slice(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading embeddings: %w", err)
	}
	return vectors, nil
}

func (s *Store) loadEntries(ctx context.Context) ([]domain.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, chunk_id, metadata, token_count FROM index_entries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying index entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.IndexEntry{}
	for rows.Next() {
		var (
			e            domain.IndexEntry
			metadataJSON string
		)
		if err := rows.Scan(&e.ID, &e.ChunkID, &metadataJSON, &e.TokenCount); err != nil {
			return nil, fmt.Errorf("scanning index entry: %w", err)
		}
		if e.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, fmt.Errorf("decoding metadata of entry %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading index entries: %w", err)
	}
	return entries, nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// getMeta returns domain.ErrNotFound when the key has never been written.
func (s *Store) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM snapshot_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func marshalMetadata(m domain.Metadata) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalMetadata keeps numbers as json.Number so integers survive the round trip.
func unmarshalMetadata(data string) (domain.Metadata, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var m domain.Metadata
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		m = domain.Metadata{}
	}
	return m, nil
}

// float32SliceToBytes converts []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return []float32{}
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
