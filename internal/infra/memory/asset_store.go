package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// AssetStore keeps uploaded binaries in memory and serves them under BaseURL.
type AssetStore struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]Object
}

// Object is a stored upload.
type Object struct {
	Data        []byte
	ContentType string
}

func NewAssetStore(baseURL string) *AssetStore {
	return &AssetStore{BaseURL: baseURL, objects: make(map[string]Object)}
}

func (s *AssetStore) Name() string { return "memory" }

func (s *AssetStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = Object{Data: buf.Bytes(), ContentType: contentType}
	s.mu.Unlock()
	return s.BaseURL + "/" + key, nil
}

// Get returns a stored object.
func (s *AssetStore) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len reports how many objects are stored.
func (s *AssetStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
