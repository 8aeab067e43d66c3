package session

import "adopt-dashboard/internal/models"

// Event is an inbound interaction from the rendering layer.
type Event interface {
	Name() string
}

// RegionClicked selects a region. An empty Region clears the selection and
// returns to national scope.
type RegionClicked struct {
	Region string
}

type BreedChosen struct {
	Breed string
}

type TraitChosen struct {
	Kind  models.TraitKind
	Value string
}

type SessionReset struct{}

func (RegionClicked) Name() string { return "region_clicked" }
func (BreedChosen) Name() string   { return "breed_chosen" }
func (TraitChosen) Name() string   { return "trait_chosen" }
func (SessionReset) Name() string  { return "session_reset" }

// Scope is the set of aggregates an interaction changed.
type Scope uint8

const (
	ScopeRegions Scope = 1 << iota
	ScopeRanking
	ScopeCrosstab
	ScopeCompat

	ScopeNone Scope = 0
	ScopeAll        = ScopeRegions | ScopeRanking | ScopeCrosstab | ScopeCompat
)

func (s Scope) Has(other Scope) bool {
	return s&other != 0
}

// Names lists the aggregates in s, in render order.
func (s Scope) Names() []string {
	var names []string
	for _, p := range []struct {
		scope Scope
		name  string
	}{
		{ScopeRegions, "region_counts"},
		{ScopeRanking, "breed_ranking"},
		{ScopeCrosstab, "demographic_crosstab"},
		{ScopeCompat, "compatibility_tally"},
	} {
		if s.Has(p.scope) {
			names = append(names, p.name)
		}
	}
	return names
}
