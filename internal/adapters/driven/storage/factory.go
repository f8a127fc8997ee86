// Package storage selects a snapshot store for the configured backend.
package storage

import (
	"fmt"

	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driven"
)

// NewSnapshotStore opens the snapshot store named by settings.Backend.
// An empty backend selects the file store.
func NewSnapshotStore(settings domain.StorageSettings) (driven.SnapshotStore, error) {
	switch settings.Backend {
	case domain.StorageFile, "":
		return file.NewStore(settings.DataDir)
	case domain.StorageSQLite:
		return sqlite.NewStore(settings.DataDir)
	case domain.StorageBolt:
		return bolt.NewStore(settings.DataDir)
	default:
		return nil, fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}
