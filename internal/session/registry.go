package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"adopt-dashboard/internal/engine"
	"adopt-dashboard/internal/models"
	"adopt-dashboard/internal/observability"
	"adopt-dashboard/internal/store"
)

type Options struct {
	MaxSessions int
	IdleTTL     time.Duration
}

// sharedAggregates caches selector-independent tables per dataset
// generation. Values are never mutated after they are computed.
type sharedAggregates struct {
	mu         sync.Mutex
	generation uint64
	regions    []models.RegionCount
}

func (a *sharedAggregates) regionCounts(snap *store.Snapshot) []models.RegionCount {
	if snap == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.regions != nil && a.generation == snap.Generation {
		observability.AggregateCacheHits.WithLabelValues("region_counts").Inc()
		return a.regions
	}

	start := time.Now()
	a.regions = engine.RegionCounts(snap.Store)
	a.generation = snap.Generation
	observability.AggregationDuration.WithLabelValues("region_counts").Observe(time.Since(start).Seconds())
	return a.regions
}

// Registry maps session ids to sessions. Idle sessions expire and the
// least recently used session is evicted when the registry is full.
type Registry struct {
	dataset  *store.Dataset
	logger   *slog.Logger
	shared   *sharedAggregates
	mu       sync.Mutex
	sessions *expirable.LRU[string, *Session]
}

func NewRegistry(dataset *store.Dataset, opts Options, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 10000
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}

	r := &Registry{
		dataset: dataset,
		logger:  logger,
		shared:  &sharedAggregates{},
	}
	r.sessions = expirable.NewLRU[string, *Session](opts.MaxSessions, func(id string, _ *Session) {
		observability.ActiveSessions.Dec()
		logger.Debug("session evicted", "session_id", id)
	}, opts.IdleTTL)
	return r
}

// Get returns a live session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions.Get(id)
	if ok {
		r.sessions.Add(id, s)
	}
	return s, ok
}

// GetOrCreate returns the session for id, creating a new one under a fresh
// id when id is unknown or expired. Client-supplied ids are never adopted.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := r.Get(id); ok {
		return s, false
	}
	return r.Create(), true
}

func (r *Registry) Create() *Session {
	s := newSession(uuid.NewString(), r.dataset, r.shared, r.logger)

	r.mu.Lock()
	r.sessions.Add(s.ID(), s)
	r.mu.Unlock()

	observability.ActiveSessions.Inc()
	r.logger.Debug("session created", "session_id", s.ID())
	return s
}

// Purge drops every session and returns how many were held.
func (r *Registry) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.sessions.Len()
	r.sessions.Purge()
	return n
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}

// Dataset returns the dataset every session reads from.
func (r *Registry) Dataset() *store.Dataset {
	return r.dataset
}

// RegionCounts is the shared, selector-independent region table for the
// active dataset.
func (r *Registry) RegionCounts() []models.RegionCount {
	return r.shared.regionCounts(r.dataset.Current())
}
