package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"adopt-dashboard/internal/errors"
	"adopt-dashboard/internal/models"
)

const cacheVersion = "v1"

type cachedDataset struct {
	Version  string
	Records  []models.Record
	Dropped  int
	CachedAt time.Time
}

// LoadCached loads path through a gob cache kept in cacheDir. The cache is
// used only when it is newer than the source file. An empty cacheDir
// disables caching.
func LoadCached(ctx context.Context, path, cacheDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheDir == "" {
		return LoadFile(ctx, path, logger)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &errors.DataLoadError{Source: path, Reason: "stat source", Err: err}
	}

	cacheFile := cacheFilename(cacheDir, path)
	if cached, err := readCache(cacheFile); err == nil && info.ModTime().Before(cached.CachedAt) {
		logger.Info("dataset loaded from cache", "records", len(cached.Records), "cache", cacheFile)
		return &Store{
			records:  cached.Records,
			source:   path,
			loadedAt: time.Now(),
			dropped:  cached.Dropped,
		}, nil
	}

	s, err := LoadFile(ctx, path, logger)
	if err != nil {
		return nil, err
	}

	if err := writeCache(cacheFile, s); err != nil {
		logger.Warn("failed to save dataset cache", "error", err, "cache", cacheFile)
	}
	return s, nil
}

func cacheFilename(cacheDir, csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func writeCache(filename string, s *Store) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	tmp := filename + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	payload := cachedDataset{
		Version:  cacheVersion,
		Records:  s.records,
		Dropped:  s.dropped,
		CachedAt: time.Now(),
	}
	if err := gob.NewEncoder(file).Encode(payload); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filename)
}

func readCache(filename string) (*cachedDataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data cachedDataset
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	if data.Version != cacheVersion {
		return nil, fmt.Errorf("cache version %q, want %q", data.Version, cacheVersion)
	}
	return &data, nil
}
