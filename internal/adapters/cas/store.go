// Package cas records the artifacts fetched into the cache.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/xbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

const recordExt = ".json"

// Store implements ports.ArtifactStore using a file-per-output strategy.
type Store struct {
	dir string
}

// NewStore creates a new Store backed by the directory at dir.
// The directory is created on the first Put.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Get retrieves the record for an output path.
func (s *Store) Get(output string) (*domain.ArtifactRecord, error) {
	record, err := s.read(s.filename(output))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return record, err
}

// Put stores the record, replacing any previous record for the same output.
func (s *Store) Put(record domain.ArtifactRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Join(domain.ErrStoreMarshalFailed, err)
	}

	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.With(errors.Join(domain.ErrStoreCreateFailed, err), "path", s.dir)
	}

	filename := s.filename(record.Output)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	if err := os.WriteFile(filename, data, domain.FilePerm); err != nil {
		return zerr.With(errors.Join(domain.ErrStoreWriteFailed, err), "path", filename)
	}

	return nil
}

// Prune removes the records whose payload no longer exists and returns them.
func (s *Store) Prune() ([]domain.ArtifactRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrStoreReadFailed, err), "path", s.dir)
	}

	var pruned []domain.ArtifactRecord
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != recordExt {
			continue
		}
		filename := filepath.Join(s.dir, entry.Name())
		record, err := s.read(filename)
		if err != nil {
			return pruned, err
		}

		payload := record.Payload
		if payload == "" {
			payload = record.Output
		}
		if _, err := os.Lstat(payload); err == nil {
			continue
		}

		if err := os.Remove(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return pruned, zerr.With(errors.Join(domain.ErrStoreWriteFailed, err), "path", filename)
		}
		pruned = append(pruned, *record)
	}
	return pruned, nil
}

func (s *Store) read(filename string) (*domain.ArtifactRecord, error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrStoreReadFailed, err), "path", filename)
	}

	var record domain.ArtifactRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrStoreUnmarshalFailed, err), "path", filename)
	}
	return &record, nil
}

func (s *Store) filename(output string) string {
	key := strconv.FormatUint(xxhash.Sum64String(filepath.Clean(output)), 16)
	return filepath.Join(s.dir, key+recordExt)
}
