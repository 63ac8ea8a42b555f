package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"stayfinder/models"
	"stayfinder/utils"
)

// FileFavoriteStore keeps one JSON file per favorites key in a directory.
type FileFavoriteStore struct {
	dir    string
	logger *utils.Logger
}

// NewFileFavoriteStore creates dir if needed.
func NewFileFavoriteStore(dir string, logger *utils.Logger) (*FileFavoriteStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("favorites: create dir %q: %w", dir, err)
	}
	return &FileFavoriteStore{dir: dir, logger: logger}, nil
}

func (s *FileFavoriteStore) path(owner string) string {
	name := strings.ReplaceAll(models.FavoritesKey(owner), ":", "_")
	return filepath.Join(s.dir, name+".json")
}

// Load returns an empty set when the file is missing or unreadable.
func (s *FileFavoriteStore) Load(_ context.Context, owner string) (models.FavoriteSet, error) {
	data, err := os.ReadFile(s.path(owner))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("[favorites] Reading %s failed, using empty set: %v", s.path(owner), err)
		}
		return models.NewFavoriteSet(), nil
	}
	return models.ParseFavoriteSet(data), nil
}

// Save writes through a temp file and rename so readers never see a
// partial file.
func (s *FileFavoriteStore) Save(_ context.Context, owner string, set models.FavoriteSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("favorites: encode: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".favorites-*")
	if err != nil {
		return fmt.Errorf("favorites: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("favorites: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("favorites: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(owner)); err != nil {
		return fmt.Errorf("favorites: rename: %w", err)
	}
	return nil
}

// Clear removes the owner's file.
func (s *FileFavoriteStore) Clear(_ context.Context, owner string) error {
	err := os.Remove(s.path(owner))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("favorites: clear: %w", err)
	}
	return nil
}
