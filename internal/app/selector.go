package app

import (
	"context"
	"io"

	"promo-quiz-service/internal/domain"
)

// RecordBackend persists raw record values. Load returns domain.ErrRecordNotFound
// when the backend holds nothing for the record.
type RecordBackend interface {
	Name() string
	Load(ctx context.Context, record domain.RecordName) ([]byte, error)
	Save(ctx context.Context, record domain.RecordName, data []byte) error
	Clear(ctx context.Context, record domain.RecordName) error
}

// OptionalBackend is a RecordBackend that only takes part when its service is set up.
type OptionalBackend interface {
	RecordBackend
	Available() bool
}

// AssetStore keeps uploaded binaries and returns a publicly resolvable URL.
type AssetStore interface {
	Name() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// OptionalAssetStore is an AssetStore that only takes part when configured.
type OptionalAssetStore interface {
	AssetStore
	Available() bool
}

// BackendChain yields the ordered backends a record operation walks through.
type BackendChain interface {
	Backends() []RecordBackend
}

// AssetSource yields the asset store uploads should go to.
type AssetSource interface {
	AssetStore() AssetStore
}

// SelectorConfig wires the candidate backends. KeyValue, Blob and BlobAssets may be nil.
type SelectorConfig struct {
	KeyValue    OptionalBackend
	Blob        OptionalBackend
	File        RecordBackend
	BlobAssets  OptionalAssetStore
	LocalAssets AssetStore
	// Ephemeral, when set, replaces the whole chain.
	Ephemeral RecordBackend
}

// Selector decides which backends are authoritative. Every call re-evaluates the
// availability of its backends, nothing is cached.
type Selector struct {
	cfg SelectorConfig
}

func NewSelector(cfg SelectorConfig) *Selector {
	return &Selector{cfg: cfg}
}

// KeyValueAvailable reports whether a key-value service is configured.
func (s *Selector) KeyValueAvailable() bool {
	return s.cfg.KeyValue != nil && s.cfg.KeyValue.Available()
}

// BlobConfigured reports whether object-store credentials are present.
func (s *Selector) BlobConfigured() bool {
	return s.cfg.Blob != nil && s.cfg.Blob.Available()
}

// Backends returns key-value, then blob, then the filesystem. The filesystem is
// always last so it doubles as the backup written on every save.
func (s *Selector) Backends() []RecordBackend {
	if s.cfg.Ephemeral != nil {
		return []RecordBackend{s.cfg.Ephemeral}
	}
	chain := make([]RecordBackend, 0, 3)
	if s.KeyValueAvailable() {
		chain = append(chain, s.cfg.KeyValue)
	}
	if s.BlobConfigured() {
		chain = append(chain, s.cfg.Blob)
	}
	if s.cfg.File != nil {
		chain = append(chain, s.cfg.File)
	}
	return chain
}

// AssetStore prefers the object store and falls back to the local public directory.
func (s *Selector) AssetStore() AssetStore {
	if s.cfg.BlobAssets != nil && s.cfg.BlobAssets.Available() {
		return s.cfg.BlobAssets
	}
	return s.cfg.LocalAssets
}

// StaticChain is a fixed chain, handy for tools and tests.
type StaticChain []RecordBackend

func (c StaticChain) Backends() []RecordBackend {
	return c
}
