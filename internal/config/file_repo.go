package config

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

// FileRepository keeps settings as a JSON object of key to value in one file.
// Writes go to a temp file first and are renamed into place.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

var _ SettingsRepository = (*FileRepository)(nil)

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) GetSetting(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.readLocked()
	if err != nil {
		return "", err
	}
	v, ok := all[key]
	if !ok {
		return "", ErrSettingNotFound
	}
	return v, nil
}

func (r *FileRepository) SaveSetting(_ context.Context, key string, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.readLocked()
	if err != nil {
		return err
	}
	all[key] = value

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod settings file: %w", err)
	}
	return os.Rename(tmp.Name(), r.path)
}

func (r *FileRepository) readLocked() (map[string]string, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	all := map[string]string{}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", r.path, err)
	}
	return all, nil
}
