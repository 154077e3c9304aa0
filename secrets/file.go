package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/relev-ai/relevai-go/observability"
)

// FileSource serves secrets from files under a base directory, one secret
// per file, with surrounding whitespace trimmed. This matches how mounted
// Kubernetes secrets and docker secrets appear on disk.
type FileSource struct {
	basePath string
	logger   observability.Logger
}

// NewFileSource creates a file source rooted at dir.
func NewFileSource(dir string, logger observability.Logger) (*FileSource, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: base directory is required", ErrSourceNotConfigured)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: base directory %s: %v", ErrSourceNotConfigured, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceNotConfigured, dir)
	}

	return &FileSource{basePath: dir, logger: logger}, nil
}

// Name returns the source type.
func (s *FileSource) Name() string {
	return string(SourceTypeFile)
}

// Get reads a secret file relative to the base directory.
func (s *FileSource) Get(_ context.Context, key string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("reading secret file %s: %w", key, err)
	}

	return strings.TrimSpace(string(content)), nil
}

// resolve validates the key and joins it onto the base directory. Keys
// that escape the base directory are rejected.
func (s *FileSource) resolve(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	clean := filepath.Clean(key)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}

	return filepath.Join(s.basePath, clean), nil
}

// Close cleans up source resources.
func (s *FileSource) Close() error {
	return nil
}

// Ensure FileSource implements Source.
var _ Source = (*FileSource)(nil)
