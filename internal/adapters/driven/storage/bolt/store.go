// Package bolt provides a bbolt-backed snapshot store.
//
// The database lives at <data_dir>/index.bolt. Chunks, vectors and index
// entries each have their own bucket keyed by big-endian corpus position,
// so cursor order is corpus order.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
)

// FileName is the database file created inside the data directory.
const FileName = "index.bolt"

var (
	bucketChunks  = []byte("chunks")
	bucketVectors = []byte("vectors")
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")

	keyCorpusSaved = []byte("corpus_saved_at")
	keyIndexSaved  = []byte("index_saved_at")
	keyDimensions  = []byte("dimensions")
)

// Store is a bbolt-backed snapshot store.
type Store struct {
	db   *bbolt.DB
	path string
}

var _ driven.SnapshotStore = (*Store)(nil)

// NewStore opens (or creates) the database in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, FileName)
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketVectors, bucketEntries, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCorpus replaces the chunks bucket.
func (s *Store) SaveCorpus(_ context.Context, chunks []domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := resetBucket(tx, bucketChunks)
		if err != nil {
			return err
		}
		for i, c := range chunks {
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("marshalling chunk %d: %w", i, err)
			}
			if err := b.Put(positionKey(i), data); err != nil {
				return fmt.Errorf("storing chunk %d: %w", i, err)
			}
		}
		return tx.Bucket(bucketMeta).Put(keyCorpusSaved, timestamp())
	})
}

// LoadCorpus returns the chunks bucket in position order.
func (s *Store) LoadCorpus(_ context.Context) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		chunks, err = loadChunks(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// SaveIndex replaces the vectors and entries buckets.
func (s *Store) SaveIndex(_ context.Context, index *domain.EmbeddingIndex) error {
	if err := index.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		vectors, err := resetBucket(tx, bucketVectors)
		if err != nil {
			return err
		}
		entries, err := resetBucket(tx, bucketEntries)
		if err != nil {
			return err
		}

		for i, v := range index.Vectors {
			if err := vectors.Put(positionKey(i), encodeVector(v)); err != nil {
				return fmt.Errorf("storing vector %d: %w", i, err)
			}
		}
		for _, e := range index.Entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshalling entry %d: %w", e.ID, err)
			}
			if err := entries.Put(positionKey(e.ID), data); err != nil {
				return fmt.Errorf("storing entry %d: %w", e.ID, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyDimensions, []byte(strconv.Itoa(index.Dimensions()))); err != nil {
			return err
		}
		return meta.Put(keyIndexSaved, timestamp())
	})
}

// LoadIndex reads all buckets in one read transaction and checks they agree.
func (s *Store) LoadIndex(_ context.Context) (*domain.EmbeddingIndex, error) {
	index := &domain.EmbeddingIndex{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta.Get(keyIndexSaved) == nil {
			return domain.ErrNotFound
		}

		var err error
		if index.Chunks, err = loadChunks(tx); err != nil {
			return err
		}

		index.Vectors = [][]float32{}
		err = forEachPosition(tx, bucketVectors, func(pos int, v []byte) error {
			if len(v)%4 != 0 {
				return fmt.Errorf("%w: vector %d has %d bytes", domain.ErrIndexMismatch, pos, len(v))
			}
			index.Vectors = append(index.Vectors, decodeVector(v))
			return nil
		})
		if err != nil {
			return err
		}

		index.Entries = []domain.IndexEntry{}
		err = forEachPosition(tx, bucketEntries, func(pos int, v []byte) error {
			var e domain.IndexEntry
			if err := decodeJSON(v, &e); err != nil {
				return fmt.Errorf("decoding entry %d: %w", pos, err)
			}
			index.Entries = append(index.Entries, e)
			return nil
		})
		if err != nil {
			return err
		}

		if raw := meta.Get(keyDimensions); raw != nil && len(index.Vectors) > 0 {
			dims, err := strconv.Atoi(string(raw))
			if err != nil || dims != index.Dimensions() {
				return fmt.Errorf("%w: stored dimensions %q, vectors have %d",
					domain.ErrIndexMismatch, raw, index.Dimensions())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := index.Validate(); err != nil {
		return nil, err
	}
	return index, nil
}

func loadChunks(tx *bbolt.Tx) ([]domain.Chunk, error) {
	if tx.Bucket(bucketMeta).Get(keyCorpusSaved) == nil {
		return nil, domain.ErrNotFound
	}

	chunks := []domain.Chunk{}
	err := forEachPosition(tx, bucketChunks, func(pos int, v []byte) error {
		var c domain.Chunk
		if err := decodeJSON(v, &c); err != nil {
			return fmt.Errorf("decoding chunk %d: %w", pos, err)
		}
		chunks = append(chunks, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// forEachPosition walks a bucket in key order and requires keys 0..n-1.
func forEachPosition(tx *bbolt.Tx, name []byte, fn func(pos int, v []byte) error) error {
	want := 0
	c := tx.Bucket(name).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if len(k) != 8 || int(binary.BigEndian.Uint64(k)) != want {
			return fmt.Errorf("%w: bucket %s is not contiguous at position %d",
				domain.ErrIndexMismatch, name, want)
		}
		if err := fn(want, v); err != nil {
			return err
		}
		want++
	}
	return nil
}

func resetBucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil, fmt.Errorf("clearing bucket %s: %w", name, err)
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return nil, fmt.Errorf("creating bucket %s: %w", name, err)
	}
	return b, nil
}

func positionKey(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector copies out of the mmapped page; bbolt values are only
// valid inside the transaction.
func decodeVector(data []byte) []float32 {
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func timestamp() []byte {
	return []byte(time.Now().UTC().Format(time.RFC3339))
}
