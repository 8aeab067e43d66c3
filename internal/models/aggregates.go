package models

type TraitKind string

const (
	TraitAge  TraitKind = "age"
	TraitSex  TraitKind = "sex"
	TraitSize TraitKind = "size"
)

// Selection is a snapshot of a session's filter state. An empty Region or
// Breed means unset.
type Selection struct {
	Region string `json:"region"`
	Breed  string `json:"breed"`
	Age    Age    `json:"age"`
	Sex    Sex    `json:"sex"`
	Size   Size   `json:"size"`
}

// DefaultSelection has no region or breed and every trait at the first value
// of its domain.
func DefaultSelection() Selection {
	return Selection{
		Age:  AgeOrder[0],
		Sex:  SexOrder[0],
		Size: SizeOrder[0],
	}
}

type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

type BreedCount struct {
	Breed string `json:"breed"`
	Count int    `json:"count"`
}

// BreedRanking holds at most TopBreeds entries, count descending then breed
// ascending.
type BreedRanking struct {
	Region  string       `json:"region"`
	Entries []BreedCount `json:"entries"`
}

const TopBreeds = 10

func (r BreedRanking) Contains(breed string) bool {
	for _, e := range r.Entries {
		if e.Breed == breed {
			return true
		}
	}
	return false
}

// First returns the rank-1 breed, or "" when the ranking is empty.
func (r BreedRanking) First() string {
	if len(r.Entries) == 0 {
		return ""
	}
	return r.Entries[0].Breed
}

type CrosstabCell struct {
	Sex   Sex  `json:"sex"`
	Size  Size `json:"size"`
	Age   Age  `json:"age"`
	Count int  `json:"count"`
}

// Crosstab always holds len(SexOrder)*len(SizeOrder)*len(AgeOrder) cells,
// ordered sex, then size, then age.
type Crosstab struct {
	Region string         `json:"region"`
	Breed  string         `json:"breed"`
	Cells  []CrosstabCell `json:"cells"`
	Total  int            `json:"total"`
}

type CompatRow struct {
	Trait    string `json:"trait"`
	Response Compat `json:"response"`
	Count    int    `json:"count"`
}

// CompatibilityTally is the long-form table of Yes/No/Unknown counts for
// each compatibility trait.
type CompatibilityTally struct {
	Region  string      `json:"region"`
	Breed   string      `json:"breed"`
	Age     Age         `json:"age"`
	Sex     Sex         `json:"sex"`
	Size    Size        `json:"size"`
	Rows    []CompatRow `json:"rows"`
	Matched int         `json:"matched"`
}

// CompatTraits names the three compatibility columns in tally order.
var CompatTraits = []string{"Children", "Dogs", "Cats"}

func (r Record) CompatFor(trait string) Compat {
	switch trait {
	case "Children":
		return r.Children
	case "Dogs":
		return r.Dogs
	case "Cats":
		return r.Cats
	default:
		return CompatUnknown
	}
}
