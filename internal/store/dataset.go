package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"adopt-dashboard/internal/errors"
)

// loadTimeout bounds a shared reload independently of the callers waiting
// on it.
const loadTimeout = 2 * time.Minute

// Snapshot pairs a store with the generation number it was installed under.
// Sessions compare generations to notice that the dataset changed.
type Snapshot struct {
	Store      *Store
	Generation uint64
}

// Dataset holds the active store and swaps it atomically on reload.
type Dataset struct {
	path     string
	cacheDir string
	logger   *slog.Logger

	current atomic.Pointer[Snapshot]
	gen     atomic.Uint64
	group   singleflight.Group
}

func NewDataset(path, cacheDir string, logger *slog.Logger) *Dataset {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dataset{
		path:     path,
		cacheDir: cacheDir,
		logger:   logger,
	}
}

// NewStaticDataset wraps an already built store. Reload keeps returning it.
func NewStaticDataset(s *Store) *Dataset {
	d := &Dataset{logger: slog.Default()}
	d.install(s)
	return d
}

// Current returns the active snapshot, or nil before the first load.
func (d *Dataset) Current() *Snapshot {
	return d.current.Load()
}

// Load performs the initial load. Errors are *errors.DataLoadError.
func (d *Dataset) Load(ctx context.Context) (*Snapshot, error) {
	return d.Reload(ctx)
}

// Reload reads the source again and installs the result. Concurrent callers
// share one load, which runs detached from any single caller: a caller whose
// ctx ends stops waiting but the load carries on. On failure the previous
// snapshot stays active.
func (d *Dataset) Reload(ctx context.Context) (*Snapshot, error) {
	if d.path == "" {
		if snap := d.Current(); snap != nil {
			return snap, nil
		}
	}

	ch := d.group.DoChan("reload", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		start := time.Now()
		s, err := LoadCached(loadCtx, d.path, d.cacheDir, d.logger)
		if err != nil {
			return nil, err
		}
		snap := d.install(s)
		d.logger.Info("dataset installed",
			"generation", snap.Generation,
			"records", s.Len(),
			"dropped", s.Dropped(),
			"duration", time.Since(start),
		)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, &errors.DataLoadError{Source: d.path, Reason: "stopped waiting for reload", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			d.logger.Debug("reload shared with concurrent caller")
		}
		return res.Val.(*Snapshot), nil
	}
}

func (d *Dataset) install(s *Store) *Snapshot {
	snap := &Snapshot{Store: s, Generation: d.gen.Add(1)}
	d.current.Store(snap)
	return snap
}
