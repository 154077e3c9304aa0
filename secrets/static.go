package secrets

import (
	"context"
	"fmt"
	"maps"
)

// StaticSource serves secrets from an in-memory map. Intended for tests
// and for configurations where the secret is supplied inline.
type StaticSource struct {
	values map[string]string
}

// NewStaticSource creates a static source from values. The map is copied.
func NewStaticSource(values map[string]string) *StaticSource {
	return &StaticSource{values: maps.Clone(values)}
}

// Name returns the source type.
func (s *StaticSource) Name() string {
	return string(SourceTypeStatic)
}

// Get resolves a secret from the map.
func (s *StaticSource) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	value, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

// Close cleans up source resources.
func (s *StaticSource) Close() error {
	return nil
}

// Ensure StaticSource implements Source.
var _ Source = (*StaticSource)(nil)
