// Package engine computes the dashboard's aggregate tables. Every function is
// pure: it reads the store and a selection snapshot and returns a fresh table.
// Records missing a field an aggregate depends on are skipped for that
// aggregate only.
package engine

import (
	"cmp"
	"slices"

	"adopt-dashboard/internal/errors"
	"adopt-dashboard/internal/models"
	"adopt-dashboard/internal/store"
)

// RegionCounts counts records per region over the whole store, ordered by
// region code. Records with no region are not counted.
func RegionCounts(s *store.Store) []models.RegionCount {
	counts := make(map[string]int)
	for r := range s.FilterBy(hasRegion) {
		counts[r.Region]++
	}

	result := make([]models.RegionCount, 0, len(counts))
	for region, n := range counts {
		result = append(result, models.RegionCount{Region: region, Count: n})
	}
	slices.SortFunc(result, func(a, b models.RegionCount) int {
		return cmp.Compare(a.Region, b.Region)
	})
	return result
}

// BreedRanking ranks breeds within region (national when region is empty)
// and keeps the top models.TopBreeds.
func BreedRanking(s *store.Store, region string) models.BreedRanking {
	all := rankBreeds(s, region)
	if len(all) > models.TopBreeds {
		all = all[:models.TopBreeds]
	}
	return models.BreedRanking{Region: region, Entries: all}
}

// rankBreeds returns every breed in region, count descending with ties
// broken by breed ascending.
func rankBreeds(s *store.Store, region string) []models.BreedCount {
	counts := make(map[string]int)
	for r := range s.FilterBy(store.And(hasBreed, store.InRegion(region))) {
		counts[r.Breed]++
	}

	result := make([]models.BreedCount, 0, len(counts))
	for breed, n := range counts {
		result = append(result, models.BreedCount{Breed: breed, Count: n})
	}
	slices.SortFunc(result, func(a, b models.BreedCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Breed, b.Breed)
	})
	return result
}

// ResolveBreed returns the breed a breed-scoped view should use: the
// selected breed, or the current rank-1 breed when none is selected. It
// returns errors.ErrEmptyResult when the region has no ranked breeds, and
// an *errors.InvalidSelectionError when the selected breed is not ranked.
func ResolveBreed(s *store.Store, sel models.Selection) (string, error) {
	ranking := BreedRanking(s, sel.Region)
	if len(ranking.Entries) == 0 {
		return "", errors.ErrEmptyResult
	}
	if sel.Breed == "" {
		return ranking.First(), nil
	}
	if !ranking.Contains(sel.Breed) {
		return "", errors.InvalidSelection("breed", sel.Breed, "not in the top breeds for "+regionLabel(sel.Region))
	}
	return sel.Breed, nil
}

// DemographicCrosstab counts (sex, size, age) combinations for the resolved
// breed. Every combination of the ordered domains is present, with zero
// counts where nothing matches.
func DemographicCrosstab(s *store.Store, sel models.Selection) (models.Crosstab, error) {
	breed, err := ResolveBreed(s, sel)
	if err != nil {
		return models.Crosstab{}, err
	}
	return crosstabFor(s, sel.Region, breed), nil
}

func crosstabFor(s *store.Store, region, breed string) models.Crosstab {
	type key struct {
		sex  models.Sex
		size models.Size
		age  models.Age
	}

	counts := make(map[key]int)
	pred := store.And(store.InRegion(region), isBreed(breed), hasDemographics)
	for r := range s.FilterBy(pred) {
		counts[key{r.Sex, r.Size, r.Age}]++
	}

	table := models.Crosstab{
		Region: region,
		Breed:  breed,
		Cells:  make([]models.CrosstabCell, 0, len(models.SexOrder)*len(models.SizeOrder)*len(models.AgeOrder)),
	}
	for _, sex := range models.SexOrder {
		for _, size := range models.SizeOrder {
			for _, age := range models.AgeOrder {
				n := counts[key{sex, size, age}]
				table.Cells = append(table.Cells, models.CrosstabCell{Sex: sex, Size: size, Age: age, Count: n})
				table.Total += n
			}
		}
	}
	return table
}

// CompatibilityTally counts Yes/No/Unknown answers for each compatibility
// trait over the records matching every selector. It returns
// errors.ErrEmptyResult when no breed can be resolved or no record matches.
func CompatibilityTally(s *store.Store, sel models.Selection) (models.CompatibilityTally, error) {
	breed, err := ResolveBreed(s, sel)
	if err != nil {
		return models.CompatibilityTally{}, err
	}

	type key struct {
		trait    string
		response models.Compat
	}

	counts := make(map[key]int)
	matched := 0
	pred := store.And(store.InRegion(sel.Region), isBreed(breed), hasTraits(sel.Age, sel.Sex, sel.Size))
	for r := range s.FilterBy(pred) {
		matched++
		for _, trait := range models.CompatTraits {
			counts[key{trait, r.CompatFor(trait)}]++
		}
	}
	if matched == 0 {
		return models.CompatibilityTally{}, errors.ErrEmptyResult
	}

	tally := models.CompatibilityTally{
		Region:  sel.Region,
		Breed:   breed,
		Age:     sel.Age,
		Sex:     sel.Sex,
		Size:    sel.Size,
		Matched: matched,
		Rows:    make([]models.CompatRow, 0, len(models.CompatTraits)*len(models.CompatOrder)),
	}
	for _, trait := range models.CompatTraits {
		for _, resp := range models.CompatOrder {
			tally.Rows = append(tally.Rows, models.CompatRow{
				Trait:    trait,
				Response: resp,
				Count:    counts[key{trait, resp}],
			})
		}
	}
	return tally, nil
}

func regionLabel(region string) string {
	if region == "" {
		return "the national ranking"
	}
	return "region " + region
}
