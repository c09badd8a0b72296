// Package store persists the most recent successful feed document as one
// JSON file in the feed's native shape.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/quake-watch-service/internal/domain"
)

// FileStore reads and writes the cached feed snapshot. Writes are atomic
// at file granularity: a concurrent reader or a crash mid-save sees
// either the previous complete document or the new one, never a partial
// write.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the persisted snapshot. A missing file is classified
// KindEmptyDataset and unparseable content KindCorruptData; both are
// recoverable by treating the dataset as empty.
func (s *FileStore) Load() (domain.Feed, []byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Feed{}, nil, domain.NewFeedError(domain.KindEmptyDataset, err)
		}
		return domain.Feed{}, nil, domain.NewFeedError(domain.KindUnknown, err)
	}

	feed, err := domain.ParseFeed(raw)
	if err != nil {
		return domain.Feed{}, nil, domain.NewFeedError(domain.KindCorruptData, err)
	}
	return feed, raw, nil
}

// Save writes the full feed document, indented for readability, via a
// temp file in the target directory followed by a rename.
func (s *FileStore) Save(raw []byte) error {
	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		return fmt.Errorf("indent feed: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".earthquakes-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		// No-ops after a successful rename.
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
	}()

	if _, err := tmp.Write(indented.Bytes()); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.logger.Debug("snapshot persisted", "path", s.path, "bytes", indented.Len())
	return nil
}
