package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FilePersister writes one JSON file per key under dir.
type FilePersister struct {
	dir string
}

func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FilePersister{dir: dir}, nil
}

func (f *FilePersister) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FilePersister) Load(_ context.Context, key string) ([]byte, error) {
	blob, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return blob, nil
}

// Save writes through a temp file and rename so a crash never leaves a
// half-written snapshot.
func (f *FilePersister) Save(_ context.Context, key string, blob []byte) error {
	target := f.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

func (f *FilePersister) Ping(context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", f.dir)
	}
	return nil
}

func (f *FilePersister) Close() error { return nil }
