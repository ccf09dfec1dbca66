package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalURLPrefix is where the admin API serves the uploads directory.
const LocalURLPrefix = "/uploads/"

// LocalStorage keeps objects as files below basePath.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// BasePath is the directory served under LocalURLPrefix.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

func (s *LocalStorage) file(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}

func (s *LocalStorage) Put(_ context.Context, key string, data []byte) (string, error) {
	fullPath, err := s.file(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	// Write next to the target and rename so readers never see a partial logo.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return s.URL(key), nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	fullPath, err := s.file(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	s.removeEmptyDirs(filepath.Dir(fullPath))
	return nil
}

func (s *LocalStorage) DeletePrefix(_ context.Context, prefix string) (int, error) {
	dir, err := s.file(prefix)
	if err != nil {
		return 0, err
	}

	var count int
	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", prefix, err)
	}
	s.removeEmptyDirs(filepath.Dir(dir))
	return count, nil
}

func (s *LocalStorage) URL(key string) string {
	return LocalURLPrefix + key
}

// removeEmptyDirs removes empty parent directories up to basePath.
func (s *LocalStorage) removeEmptyDirs(dir string) {
	rel, err := filepath.Rel(s.basePath, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	if err := os.Remove(dir); err == nil {
		s.removeEmptyDirs(filepath.Dir(dir))
	}
}
