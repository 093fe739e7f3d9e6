package ports

import "go.trai.ch/xbuild/internal/core/domain"

// ArtifactStore records which artifacts have been fetched into the cache.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ArtifactStore interface {
	// Get retrieves the record for an output path.
	// Returns nil, nil if not found.
	Get(output string) (*domain.ArtifactRecord, error)

	// Put stores the record.
	Put(record domain.ArtifactRecord) error

	// Prune removes the records whose payload no longer exists and returns them.
	Prune() ([]domain.ArtifactRecord, error)
}
