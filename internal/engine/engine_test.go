package engine

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"adopt-dashboard/internal/errors"
	"adopt-dashboard/internal/models"
	"adopt-dashboard/internal/store"
)

func dog(id, region, breed string) models.Record {
	return models.Record{
		ID:     id,
		Region: region,
		Breed:  breed,
		Age:    models.AgeAdult,
		Sex:    models.SexMale,
		Size:   models.SizeLarge,
	}
}

func newTestStore() *store.Store {
	return store.New([]models.Record{
		dog("1", "CA", "Labrador"),
		dog("2", "CA", "Labrador"),
		dog("3", "CA", "Labrador"),
		dog("4", "CA", "Poodle"),
		dog("5", "CA", "Poodle"),
		dog("6", "NY", "Beagle"),
		dog("7", "NY", "Poodle"),
		dog("8", "", "Boxer"),
		dog("9", "TX", ""),
	})
}

func TestRegionCounts(t *testing.T) {
	got := RegionCounts(newTestStore())
	want := []models.RegionCount{
		{Region: "CA", Count: 5},
		{Region: "NY", Count: 2},
		{Region: "TX", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RegionCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestBreedRanking(t *testing.T) {
	s := newTestStore()

	tests := []struct {
		name   string
		region string
		want   []models.BreedCount
	}{
		{
			name:   "region with records",
			region: "CA",
			want:   []models.BreedCount{{Breed: "Labrador", Count: 3}, {Breed: "Poodle", Count: 2}},
		},
		{
			name:   "ties broken by breed",
			region: "NY",
			want:   []models.BreedCount{{Breed: "Beagle", Count: 1}, {Breed: "Poodle", Count: 1}},
		},
		{
			name:   "national skips records without region",
			region: "",
			want: []models.BreedCount{
				{Breed: "Labrador", Count: 3},
				{Breed: "Poodle", Count: 3},
				{Breed: "Beagle", Count: 1},
			},
		},
		{
			name:   "region with no breed data",
			region: "TX",
			want:   []models.BreedCount{},
		},
		{
			name:   "unknown region",
			region: "WY",
			want:   []models.BreedCount{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BreedRanking(s, tt.region)
			if got.Region != tt.region {
				t.Errorf("Region = %q, want %q", got.Region, tt.region)
			}
			if diff := cmp.Diff(tt.want, got.Entries); diff != "" {
				t.Errorf("Entries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBreedRanking_TopTen(t *testing.T) {
	var records []models.Record
	id := 0
	for b := range 12 {
		// Breed b gets 12-b records so the ranking is strictly descending.
		for range 12 - b {
			id++
			records = append(records, dog(fmt.Sprint(id), "CA", fmt.Sprintf("Breed %02d", b)))
		}
	}

	got := BreedRanking(store.New(records), "CA")
	if len(got.Entries) != models.TopBreeds {
		t.Fatalf("len(Entries) = %d, want %d", len(got.Entries), models.TopBreeds)
	}
	for i := 1; i < len(got.Entries); i++ {
		if got.Entries[i].Count > got.Entries[i-1].Count {
			t.Errorf("entry %d count %d exceeds previous %d", i, got.Entries[i].Count, got.Entries[i-1].Count)
		}
	}
	if got.First() != "Breed 00" || got.Contains("Breed 10") || got.Contains("Breed 11") {
		t.Errorf("unexpected top ten: %+v", got.Entries)
	}
}

func TestBreedRanking_Deterministic(t *testing.T) {
	s := newTestStore()
	first := BreedRanking(s, "")
	for range 20 {
		if diff := cmp.Diff(first, BreedRanking(s, "")); diff != "" {
			t.Fatalf("ranking changed between calls:\n%s", diff)
		}
	}
}

func TestResolveBreed(t *testing.T) {
	s := newTestStore()

	tests := []struct {
		name    string
		sel     models.Selection
		want    string
		wantErr error
		invalid bool
	}{
		{name: "falls back to rank one", sel: models.Selection{Region: "CA"}, want: "Labrador"},
		{name: "keeps ranked breed", sel: models.Selection{Region: "CA", Breed: "Poodle"}, want: "Poodle"},
		{name: "empty ranking", sel: models.Selection{Region: "WY"}, wantErr: errors.ErrEmptyResult},
		{name: "breed outside ranking", sel: models.Selection{Region: "CA", Breed: "Beagle"}, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBreed(s, tt.sel)
			switch {
			case tt.invalid:
				var selErr *errors.InvalidSelectionError
				if !stderrors.As(err, &selErr) {
					t.Fatalf("expected InvalidSelectionError, got %v", err)
				}
			case tt.wantErr != nil:
				if !stderrors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("ResolveBreed = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestDemographicCrosstab(t *testing.T) {
	records := []models.Record{
		{ID: "1", Region: "CA", Breed: "Labrador", Sex: models.SexFemale, Size: models.SizeSmall, Age: models.AgeBaby},
		{ID: "2", Region: "CA", Breed: "Labrador", Sex: models.SexFemale, Size: models.SizeSmall, Age: models.AgeBaby},
		{ID: "3", Region: "CA", Breed: "Labrador", Sex: models.SexMale, Size: models.SizeExtraLarge, Age: models.AgeSenior},
		{ID: "4", Region: "CA", Breed: "Labrador", Sex: models.SexMale, Age: models.AgeSenior},
		{ID: "5", Region: "NY", Breed: "Labrador", Sex: models.SexMale, Size: models.SizeSmall, Age: models.AgeBaby},
		{ID: "6", Region: "CA", Breed: "Poodle", Sex: models.SexMale, Size: models.SizeSmall, Age: models.AgeBaby},
	}
	s := store.New(records)

	table, err := DemographicCrosstab(s, models.Selection{Region: "CA"})
	if err != nil {
		t.Fatalf("DemographicCrosstab() error = %v", err)
	}
	if table.Breed != "Labrador" {
		t.Errorf("Breed = %q, want fallback Labrador", table.Breed)
	}

	wantCells := len(models.SexOrder) * len(models.SizeOrder) * len(models.AgeOrder)
	if len(table.Cells) != wantCells {
		t.Fatalf("len(Cells) = %d, want %d", len(table.Cells), wantCells)
	}

	sum := 0
	for _, c := range table.Cells {
		sum += c.Count
	}
	// Record 4 has no size and is excluded.
	if sum != 3 || table.Total != 3 {
		t.Errorf("sum = %d, Total = %d, want 3", sum, table.Total)
	}

	if got := table.Cells[0]; got != (models.CrosstabCell{Sex: models.SexFemale, Size: models.SizeSmall, Age: models.AgeBaby, Count: 2}) {
		t.Errorf("first cell = %+v", got)
	}
	if got := table.Cells[wantCells-1]; got != (models.CrosstabCell{Sex: models.SexMale, Size: models.SizeExtraLarge, Age: models.AgeSenior, Count: 1}) {
		t.Errorf("last cell = %+v", got)
	}
	// Order is sex, then size, then age.
	if table.Cells[1].Age != models.AgeYoung || table.Cells[4].Size != models.SizeMedium || table.Cells[16].Sex != models.SexMale {
		t.Error("cells are not in sex/size/age order")
	}
}

func TestDemographicCrosstab_Empty(t *testing.T) {
	_, err := DemographicCrosstab(newTestStore(), models.Selection{Region: "WY"})
	if !stderrors.Is(err, errors.ErrEmptyResult) {
		t.Errorf("error = %v, want ErrEmptyResult", err)
	}
}

func TestCompatibilityTally(t *testing.T) {
	base := models.Record{Region: "CA", Breed: "Labrador", Age: models.AgeBaby, Sex: models.SexFemale, Size: models.SizeSmall}
	with := func(id string, children, dogs, cats models.Compat) models.Record {
		r := base
		r.ID = id
		r.Children, r.Dogs, r.Cats = children, dogs, cats
		return r
	}
	other := base
	other.ID = "x"
	other.Size = models.SizeLarge
	other.Children = models.CompatYes

	s := store.New([]models.Record{
		with("1", models.CompatYes, models.CompatYes, models.CompatNo),
		with("2", models.CompatYes, models.CompatNo, models.CompatUnknown),
		with("3", models.CompatNo, models.CompatUnknown, models.CompatUnknown),
		other,
	})

	tally, err := CompatibilityTally(s, models.DefaultSelection())
	if err != nil {
		t.Fatalf("CompatibilityTally() error = %v", err)
	}

	want := []models.CompatRow{
		{Trait: "Children", Response: models.CompatYes, Count: 2},
		{Trait: "Children", Response: models.CompatNo, Count: 1},
		{Trait: "Children", Response: models.CompatUnknown, Count: 0},
		{Trait: "Dogs", Response: models.CompatYes, Count: 1},
		{Trait: "Dogs", Response: models.CompatNo, Count: 1},
		{Trait: "Dogs", Response: models.CompatUnknown, Count: 1},
		{Trait: "Cats", Response: models.CompatYes, Count: 0},
		{Trait: "Cats", Response: models.CompatNo, Count: 1},
		{Trait: "Cats", Response: models.CompatUnknown, Count: 2},
	}
	if diff := cmp.Diff(want, tally.Rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}
	if tally.Matched != 3 || tally.Breed != "Labrador" {
		t.Errorf("Matched = %d, Breed = %q", tally.Matched, tally.Breed)
	}

	// Each trait's responses sum to the number of matching records.
	for _, trait := range models.CompatTraits {
		sum := 0
		for _, row := range tally.Rows {
			if row.Trait == trait {
				sum += row.Count
			}
		}
		if sum != tally.Matched {
			t.Errorf("%s responses sum to %d, want %d", trait, sum, tally.Matched)
		}
	}
}

func TestCompatibilityTally_NoMatches(t *testing.T) {
	sel := models.Selection{Region: "CA", Age: models.AgeSenior, Sex: models.SexFemale, Size: models.SizeSmall}
	_, err := CompatibilityTally(newTestStore(), sel)
	if !stderrors.Is(err, errors.ErrEmptyResult) {
		t.Errorf("error = %v, want ErrEmptyResult", err)
	}
}

func TestScenarios(t *testing.T) {
	t.Run("ranking within a region", func(t *testing.T) {
		got := BreedRanking(newTestStore(), "CA")
		want := []models.BreedCount{{Breed: "Labrador", Count: 3}, {Breed: "Poodle", Count: 2}}
		if diff := cmp.Diff(want, got.Entries); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("region without records", func(t *testing.T) {
		s := newTestStore()
		if got := BreedRanking(s, "WY"); len(got.Entries) != 0 {
			t.Errorf("expected empty ranking, got %+v", got.Entries)
		}
		sel := models.DefaultSelection()
		sel.Region = "WY"
		if _, err := CompatibilityTally(s, sel); !stderrors.Is(err, errors.ErrEmptyResult) {
			t.Errorf("error = %v, want ErrEmptyResult", err)
		}
	})

	t.Run("missing cats answer is unknown", func(t *testing.T) {
		r := dog("1", "CA", "Labrador")
		r.Children, r.Dogs = models.CompatYes, models.CompatYes
		sel := models.Selection{Region: "CA", Age: r.Age, Sex: r.Sex, Size: r.Size}

		tally, err := CompatibilityTally(store.New([]models.Record{r}), sel)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, row := range tally.Rows {
			if row.Trait == "Cats" && row.Response == models.CompatUnknown && row.Count != 1 {
				t.Errorf("Cats/Unknown = %d, want 1", row.Count)
			}
		}
	})
}

func TestNationalScope_SkipsRecordsWithoutRegion(t *testing.T) {
	s := store.New([]models.Record{
		dog("1", "CA", "Poodle"),
		dog("2", "", "Boxer"),
		dog("3", "", "Boxer"),
	})

	ranking := BreedRanking(s, "")
	if diff := cmp.Diff([]models.BreedCount{{Breed: "Poodle", Count: 1}}, ranking.Entries); diff != "" {
		t.Errorf("national ranking mismatch (-want +got):\n%s", diff)
	}

	sel := models.Selection{Age: models.AgeAdult, Sex: models.SexMale, Size: models.SizeLarge}
	table, err := DemographicCrosstab(s, sel)
	if err != nil {
		t.Fatalf("DemographicCrosstab: %v", err)
	}
	if table.Breed != "Poodle" || table.Total != 1 {
		t.Errorf("crosstab breed %q total %d, want Poodle 1", table.Breed, table.Total)
	}

	tally, err := CompatibilityTally(s, sel)
	if err != nil {
		t.Fatalf("CompatibilityTally: %v", err)
	}
	if tally.Breed != "Poodle" || tally.Matched != 1 {
		t.Errorf("tally breed %q matched %d, want Poodle 1", tally.Breed, tally.Matched)
	}

	sum := 0
	for _, c := range RegionCounts(s) {
		sum += c.Count
	}
	if sum != ranking.Entries[0].Count {
		t.Errorf("region counts sum %d, national ranking total %d", sum, ranking.Entries[0].Count)
	}

	if ranking.Contains("Boxer") {
		t.Error("breed held only by records without a region should not be ranked")
	}
}
