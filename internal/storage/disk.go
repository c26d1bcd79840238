package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStorage writes files below a directory that the HTTP server exposes
// under PublicPath.
type DiskStorage struct {
	root       string
	publicPath string
}

func NewDiskStorage(root string, publicPath string) (*DiskStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	publicPath = "/" + strings.Trim(strings.TrimSpace(publicPath), "/")
	return &DiskStorage{root: root, publicPath: publicPath}, nil
}

func (storage *DiskStorage) Root() string {
	return storage.root
}

func (storage *DiskStorage) PublicPath() string {
	return storage.publicPath
}

func (storage *DiskStorage) Put(ctx context.Context, key string, _ string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := storage.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create upload folder: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return storage.publicPath + "/" + strings.TrimPrefix(filepath.ToSlash(key), "/"), nil
}

func (storage *DiskStorage) Delete(_ context.Context, key string) error {
	path, err := storage.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (storage *DiskStorage) KeyFromURL(url string) (string, bool) {
	prefix := storage.publicPath + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (storage *DiskStorage) pathFor(key string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(key))
	if cleaned == string(filepath.Separator) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(storage.root, cleaned), nil
}
