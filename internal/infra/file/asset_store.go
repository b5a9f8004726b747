package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// AssetStore writes uploads under a public directory that the HTTP server serves
// at BaseURL.
type AssetStore struct {
	root    string
	baseURL string
}

// NewAssetStore stores files under root. baseURL is prefixed to returned URLs and
// may be empty for site-relative links.
func NewAssetStore(root, baseURL string) *AssetStore {
	return &AssetStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *AssetStore) Name() string { return "local" }

// Root is the public directory.
func (s *AssetStore) Root() string { return s.root }

func (s *AssetStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	rel := filepath.FromSlash(strings.TrimLeft(key, "/"))
	if rel == "" || strings.HasPrefix(filepath.Clean(rel), "..") {
		return "", fmt.Errorf("invalid asset key %q", key)
	}
	dst := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create asset: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write asset: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close asset: %w", err)
	}
	return s.baseURL + "/" + filepath.ToSlash(rel), nil
}
