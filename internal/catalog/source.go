package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"songdrop/internal/domain"
)

// Source provides the catalog for one matching call.
type Source interface {
	Load(ctx context.Context) ([]domain.CatalogItem, error)
}

// FileSource reads a manifest from disk and re-parses it only when the file
// modification time or size changes.
type FileSource struct {
	path   string
	format Format

	mu      sync.Mutex
	modTime time.Time
	size    int64
	items   []domain.CatalogItem
}

// NewFileSource creates a source for the manifest at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, format: FormatFromPath(path)}
}

// Path returns the manifest location.
func (s *FileSource) Path() string {
	return s.path
}

// Load returns the current catalog.
func (s *FileSource) Load(ctx context.Context) ([]domain.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog manifest: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.items, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog manifest: %w", err)
	}
	items, err := Parse(data, s.format)
	if err != nil {
		return nil, err
	}
	s.items = items
	s.modTime = info.ModTime()
	s.size = info.Size()
	return items, nil
}

// StaticSource serves a fixed catalog.
type StaticSource []domain.CatalogItem

// Load returns the fixed items.
func (s StaticSource) Load(context.Context) ([]domain.CatalogItem, error) {
	return s, nil
}
