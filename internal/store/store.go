package store

import (
	"iter"
	"time"

	"adopt-dashboard/internal/models"
)

// Store is the immutable in-memory dataset. It is safe to share across
// sessions once built.
type Store struct {
	records  []models.Record
	source   string
	loadedAt time.Time
	dropped  int
}

// New builds a store over records. The slice is copied so later changes by
// the caller are not observed.
func New(records []models.Record) *Store {
	return &Store{
		records:  append([]models.Record(nil), records...),
		loadedAt: time.Now(),
	}
}

// Predicate selects records for a view.
type Predicate func(models.Record) bool

// FilterBy returns a lazy view of the records matching pred. The sequence
// can be ranged over any number of times.
func (s *Store) FilterBy(pred Predicate) iter.Seq[models.Record] {
	return func(yield func(models.Record) bool) {
		for _, r := range s.records {
			if pred != nil && !pred(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// All is FilterBy with no predicate.
func (s *Store) All() iter.Seq[models.Record] {
	return s.FilterBy(nil)
}

func (s *Store) Len() int {
	return len(s.records)
}

func (s *Store) Source() string {
	return s.source
}

func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}

// Dropped is the number of source rows rejected at load time.
func (s *Store) Dropped() int {
	return s.dropped
}

// InRegion matches records whose region equals region. An empty region is
// national scope: every record that has a region.
func InRegion(region string) Predicate {
	return func(r models.Record) bool {
		if region == "" {
			return r.Region != ""
		}
		return r.Region == region
	}
}

// And combines predicates; every one must hold.
func And(preds ...Predicate) Predicate {
	return func(r models.Record) bool {
		for _, p := range preds {
			if p != nil && !p(r) {
				return false
			}
		}
		return true
	}
}
