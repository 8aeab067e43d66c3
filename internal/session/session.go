package session

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"adopt-dashboard/internal/engine"
	"adopt-dashboard/internal/errors"
	"adopt-dashboard/internal/models"
	"adopt-dashboard/internal/observability"
	"adopt-dashboard/internal/store"
)

// Stage is the position of a session in the region -> breed -> traits
// cascade.
type Stage int

const (
	StageNoRegion Stage = iota
	StageRegionSelected
	StageRegionAndBreedSelected
	StageFullySelected
)

func (s Stage) String() string {
	switch s {
	case StageRegionSelected:
		return "region_selected"
	case StageRegionAndBreedSelected:
		return "region_and_breed_selected"
	case StageFullySelected:
		return "fully_selected"
	default:
		return "no_region"
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reader exposes a session's current filter state and aggregate tables.
type Reader interface {
	FilterState() models.Selection
	Stage() Stage
	RegionCounts() []models.RegionCount
	BreedRanking() models.BreedRanking
	DemographicCrosstab() (models.Crosstab, error)
	CompatibilityTally() (models.CompatibilityTally, error)
}

type result[T any] struct {
	value T
	err   error
}

type aggregates struct {
	ranking  *models.BreedRanking
	crosstab *result[models.Crosstab]
	compat   *result[models.CompatibilityTally]
}

func (a *aggregates) invalidate(scope Scope) {
	if scope.Has(ScopeRanking) {
		a.ranking = nil
	}
	if scope.Has(ScopeCrosstab) {
		a.crosstab = nil
	}
	if scope.Has(ScopeCompat) {
		a.compat = nil
	}
}

// Session owns one user's filter state and the aggregates derived from it.
// Interactions are serialized; a session never shares mutable state with
// another session.
type Session struct {
	id     string
	logger *slog.Logger

	mu          sync.Mutex
	dataset     *store.Dataset
	shared      *sharedAggregates
	snap        *store.Snapshot
	sel         models.Selection
	traitChosen bool
	cache       aggregates
}

func newSession(id string, dataset *store.Dataset, shared *sharedAggregates, logger *slog.Logger) *Session {
	return &Session{
		id:      id,
		logger:  logger.With("session_id", id),
		dataset: dataset,
		shared:  shared,
		snap:    dataset.Current(),
		sel:     models.DefaultSelection(),
	}
}

// New creates a standalone session over dataset, outside any registry.
func New(id string, dataset *store.Dataset, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return newSession(id, dataset, &sharedAggregates{}, logger)
}

func (s *Session) ID() string {
	return s.id
}

// Apply handles one inbound event and returns the aggregates it changed.
func (s *Session) Apply(ev Event) (Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ev)
}

// Interact applies ev and then calls render with a reader over the updated
// state, holding the session for the whole cycle so no other interaction
// can interleave.
func (s *Session) Interact(ev Event, render func(r Reader, changed Scope) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.apply(ev)
	if err != nil {
		return err
	}
	if render == nil {
		return nil
	}
	return render(locked{s}, changed)
}

// View calls fn with a reader over the current state without changing it.
func (s *Session) View(fn func(r Reader) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return fn(locked{s})
}

func (s *Session) apply(ev Event) (Scope, error) {
	s.touch()

	var (
		changed Scope
		err     error
	)
	switch e := ev.(type) {
	case RegionClicked:
		changed = s.setRegion(e.Region)
	case BreedChosen:
		changed, err = s.setBreed(e.Breed)
	case TraitChosen:
		changed, err = s.setTrait(e.Kind, e.Value)
	case SessionReset:
		changed = s.reset()
	default:
		err = errors.InvalidSelection("event", fmt.Sprintf("%T", ev), "unsupported event type")
	}

	name := "unknown"
	if ev != nil {
		name = ev.Name()
	}
	outcome := "ok"
	if err != nil {
		outcome = "invalid"
		s.logger.Error("rejected interaction", "event", name, "error", err)
	} else {
		s.logger.Debug("interaction applied",
			"event", name,
			"changed", changed.Names(),
			"region", s.sel.Region,
			"breed", s.sel.Breed,
		)
	}
	observability.InteractionsTotal.WithLabelValues(name, outcome).Inc()
	return changed, err
}

// SetRegion replaces the selected region. A previously selected breed that
// is not in the new region's ranking is replaced by the new rank-1 breed,
// or cleared when the ranking is empty.
func (s *Session) SetRegion(region string) Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.setRegion(region)
}

// SetBreed selects a breed from the current ranking. A breed outside the
// ranking is an *errors.InvalidSelectionError.
func (s *Session) SetBreed(breed string) (Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.setBreed(breed)
}

// SetTrait replaces one trait selector. The value must be in the trait's
// domain.
func (s *Session) SetTrait(kind models.TraitKind, value string) (Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.setTrait(kind, value)
}

// Reset clears region and breed and restores trait defaults.
func (s *Session) Reset() Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.reset()
}

func (s *Session) FilterState() models.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return locked{s}.FilterState()
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return locked{s}.Stage()
}

func (s *Session) RegionCounts() []models.RegionCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return locked{s}.RegionCounts()
}

func (s *Session) BreedRanking() models.BreedRanking {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return locked{s}.BreedRanking()
}

func (s *Session) DemographicCrosstab() (models.Crosstab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return locked{s}.DemographicCrosstab()
}

func (s *Session) CompatibilityTally() (models.CompatibilityTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return locked{s}.CompatibilityTally()
}

func (s *Session) touch() {
	s.syncDataset()
}

// syncDataset resets the session when the dataset was reloaded since the
// session last looked at it.
func (s *Session) syncDataset() {
	current := s.dataset.Current()
	if current == nil || (s.snap != nil && s.snap.Generation == current.Generation) {
		return
	}
	if s.snap != nil {
		s.logger.Info("dataset changed, resetting filters",
			"from_generation", s.snap.Generation,
			"to_generation", current.Generation,
		)
	}
	s.snap = current
	s.reset()
}

func (s *Session) current() *store.Store {
	if s.snap == nil {
		return store.New(nil)
	}
	return s.snap.Store
}

func (s *Session) setRegion(region string) Scope {
	region = models.NormalizeRegion(region)
	if region == s.sel.Region {
		return ScopeNone
	}

	s.sel.Region = region
	s.cache.invalidate(ScopeRanking | ScopeCrosstab | ScopeCompat)

	if s.sel.Breed != "" {
		ranking := s.breedRanking()
		if !ranking.Contains(s.sel.Breed) {
			fallback := ranking.First()
			s.logger.Debug("breed not ranked in new region, falling back",
				"region", region,
				"breed", s.sel.Breed,
				"fallback", fallback,
			)
			s.sel.Breed = fallback
		}
	}
	return ScopeRegions | ScopeRanking | ScopeCrosstab | ScopeCompat
}

func (s *Session) setBreed(breed string) (Scope, error) {
	breed = strings.TrimSpace(breed)
	if breed != "" && breed == s.sel.Breed {
		return ScopeNone, nil
	}

	ranking := s.breedRanking()
	if breed == "" || !ranking.Contains(breed) {
		return ScopeNone, errors.InvalidSelection("breed", breed, "not in the current breed ranking")
	}

	s.sel.Breed = breed
	s.cache.invalidate(ScopeCrosstab | ScopeCompat)
	return ScopeRanking | ScopeCrosstab | ScopeCompat, nil
}

func (s *Session) setTrait(kind models.TraitKind, value string) (Scope, error) {
	next := s.sel
	switch kind {
	case models.TraitAge:
		age, ok := models.ParseAge(value)
		if !ok {
			return ScopeNone, errors.InvalidSelection("age", value, "not one of Baby, Young, Adult, Senior")
		}
		next.Age = age
	case models.TraitSex:
		sex, ok := models.ParseSex(value)
		if !ok {
			return ScopeNone, errors.InvalidSelection("sex", value, "not one of Female, Male")
		}
		next.Sex = sex
	case models.TraitSize:
		size, ok := models.ParseSize(value)
		if !ok {
			return ScopeNone, errors.InvalidSelection("size", value, "not one of Small, Medium, Large, Extra Large")
		}
		next.Size = size
	default:
		return ScopeNone, errors.InvalidSelection("trait kind", string(kind), "must be age, sex or size")
	}

	s.traitChosen = true
	if next == s.sel {
		return ScopeNone, nil
	}
	s.sel = next
	s.cache.invalidate(ScopeCompat)
	return ScopeCompat, nil
}

func (s *Session) reset() Scope {
	s.sel = models.DefaultSelection()
	s.traitChosen = false
	s.cache.invalidate(ScopeAll)
	return ScopeAll
}

func (s *Session) breedRanking() models.BreedRanking {
	if s.cache.ranking != nil {
		observability.AggregateCacheHits.WithLabelValues("breed_ranking").Inc()
		return *s.cache.ranking
	}
	timer := prometheus.NewTimer(observability.AggregationDuration.WithLabelValues("breed_ranking"))
	ranking := engine.BreedRanking(s.current(), s.sel.Region)
	timer.ObserveDuration()
	s.cache.ranking = &ranking
	return ranking
}

// locked reads a session whose mutex is already held.
type locked struct {
	s *Session
}

func (l locked) FilterState() models.Selection {
	return l.s.sel
}

func (l locked) Stage() Stage {
	sel := l.s.sel
	switch {
	case sel.Region == "":
		return StageNoRegion
	case sel.Breed == "":
		return StageRegionSelected
	case !l.s.traitChosen:
		return StageRegionAndBreedSelected
	default:
		return StageFullySelected
	}
}

func (l locked) RegionCounts() []models.RegionCount {
	return l.s.shared.regionCounts(l.s.snap)
}

func (l locked) BreedRanking() models.BreedRanking {
	return l.s.breedRanking()
}

func (l locked) DemographicCrosstab() (models.Crosstab, error) {
	s := l.s
	if s.cache.crosstab != nil {
		observability.AggregateCacheHits.WithLabelValues("demographic_crosstab").Inc()
		return s.cache.crosstab.value, s.cache.crosstab.err
	}

	timer := prometheus.NewTimer(observability.AggregationDuration.WithLabelValues("demographic_crosstab"))
	table, err := engine.DemographicCrosstab(s.current(), s.sel)
	timer.ObserveDuration()
	if err != nil && !stderrors.Is(err, errors.ErrEmptyResult) {
		return table, err
	}
	if err != nil {
		observability.EmptyResults.WithLabelValues("demographic_crosstab").Inc()
	}
	s.cache.crosstab = &result[models.Crosstab]{value: table, err: err}
	return table, err
}

func (l locked) CompatibilityTally() (models.CompatibilityTally, error) {
	s := l.s
	if s.cache.compat != nil {
		observability.AggregateCacheHits.WithLabelValues("compatibility_tally").Inc()
		return s.cache.compat.value, s.cache.compat.err
	}

	timer := prometheus.NewTimer(observability.AggregationDuration.WithLabelValues("compatibility_tally"))
	tally, err := engine.CompatibilityTally(s.current(), s.sel)
	timer.ObserveDuration()
	if err != nil && !stderrors.Is(err, errors.ErrEmptyResult) {
		return tally, err
	}
	if err != nil {
		observability.EmptyResults.WithLabelValues("compatibility_tally").Inc()
	}
	s.cache.compat = &result[models.CompatibilityTally]{value: tally, err: err}
	return tally, err
}
