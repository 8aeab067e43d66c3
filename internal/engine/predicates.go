package engine

import (
	"adopt-dashboard/internal/models"
	"adopt-dashboard/internal/store"
)

func hasRegion(r models.Record) bool {
	return r.Region != ""
}

func hasBreed(r models.Record) bool {
	return r.Breed != ""
}

func hasDemographics(r models.Record) bool {
	return r.Sex != "" && r.Size != "" && r.Age != ""
}

func isBreed(breed string) store.Predicate {
	return func(r models.Record) bool {
		return r.Breed == breed
	}
}

func hasTraits(age models.Age, sex models.Sex, size models.Size) store.Predicate {
	return func(r models.Record) bool {
		return r.Age == age && r.Sex == sex && r.Size == size
	}
}
