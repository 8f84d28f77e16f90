package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryFormStorage backs local development and tests. Same path and error
// semantics as the GCS implementation.
type memoryFormStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	pathPrefix string
	now        func() time.Time
}

func NewMemoryFormStorage(pathPrefix string) FormStorage {
	if pathPrefix == "" {
		pathPrefix = "tax_forms/1098t"
	}
	return &memoryFormStorage{
		objects:    make(map[string][]byte),
		pathPrefix: pathPrefix,
		now:        time.Now,
	}
}

func (s *memoryFormStorage) Save(ctx context.Context, pdf []byte, studentID uuid.UUID, taxYear int) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := ArtifactPath(s.pathPrefix, studentID, taxYear, s.now())
	buf := make([]byte, len(pdf))
	copy(buf, pdf)
	s.objects[path] = buf
	return path, int64(len(pdf)), nil
}

func (s *memoryFormStorage) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *memoryFormStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, path)
	return nil
}

func (s *memoryFormStorage) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.objects[path]
	return ok, nil
}
