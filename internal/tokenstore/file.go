package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend stores all keys in one JSON document. Writes go to a temp file
// in the same directory and are renamed into place.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// DefaultFilePath is <user config dir>/garansi-console/<namespace>.json.
func DefaultFilePath(namespace string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	if namespace == "" {
		namespace = "default"
	}
	return filepath.Join(dir, "garansi-console", namespace+".json"), nil
}

func NewFile(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileBackend{path: path}, nil
}

func (f *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

func (f *FileBackend) SetAll(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		// A corrupt document is replaced rather than patched.
		doc = map[string]string{}
	}
	for k, v := range values {
		doc[k] = v
	}
	return f.save(doc)
}

func (f *FileBackend) DeleteAll(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		doc = map[string]string{}
	}
	for _, k := range keys {
		delete(doc, k)
	}
	if len(doc) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return f.save(doc)
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	doc := map[string]string{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileBackend) save(doc map[string]string) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, f.path)
}
