// Package view translates aggregate tables into chart-ready structures and
// inbound UI payloads into session events.
package view

import (
	"fmt"

	"adopt-dashboard/internal/models"
)

const (
	NoBreedDataMessage   = "No breed data found for the selected state. Please choose a different state."
	NoCompatDataMessage  = "No dogs found for the selected combination. Try adjusting age, size, or sex."
	PickRegionMessage    = "Click a state on the map to explore its top dog breeds."
	selectedOpacity      = 1.0
	unselectedOpacity    = 0.2
	nationalRegionLabel  = "None (National)"
	nationalCompatLabel  = "the US"
	nationalRankingLabel = "Nationally"
)

type MapRegion struct {
	ID       int     `json:"id"`
	Region   string  `json:"region"`
	Count    int     `json:"count"`
	Selected bool    `json:"selected"`
	Opacity  float64 `json:"opacity"`
}

// RegionMap feeds the choropleth. Regions without a FIPS id are listed with
// ID 0 so they still appear in tooltips and tables.
type RegionMap struct {
	Title    string      `json:"title"`
	Selected string      `json:"selected"`
	Regions  []MapRegion `json:"regions"`
}

type Bar struct {
	Label    string `json:"label"`
	Value    int    `json:"value"`
	Selected bool   `json:"selected"`
}

type BarChart struct {
	Title  string `json:"title"`
	XTitle string `json:"x_title"`
	YTitle string `json:"y_title"`
	Bars   []Bar  `json:"bars"`
	Empty  bool   `json:"empty"`
	Note   string `json:"note,omitempty"`
}

type HeatCell struct {
	Age   models.Age  `json:"age"`
	Size  models.Size `json:"size"`
	Count int         `json:"count"`
}

// HeatFacet is one sex column of the faceted heatmap. Colour scales are
// independent per facet, so each carries its own maximum.
type HeatFacet struct {
	Sex   models.Sex `json:"sex"`
	Max   int        `json:"max"`
	Cells []HeatCell `json:"cells"`
}

type Heatmap struct {
	Title     string        `json:"title"`
	AgeOrder  []models.Age  `json:"age_order"`
	SizeOrder []models.Size `json:"size_order"`
	Facets    []HeatFacet   `json:"facets"`
	Total     int           `json:"total"`
	Empty     bool          `json:"empty"`
	Note      string        `json:"note,omitempty"`
}

type GroupedValue struct {
	Group  string `json:"group"`
	Series string `json:"series"`
	Count  int    `json:"count"`
}

type GroupedBars struct {
	Title   string         `json:"title"`
	Groups  []string       `json:"groups"`
	Series  []string       `json:"series"`
	Values  []GroupedValue `json:"values"`
	Matched int            `json:"matched"`
	Empty   bool           `json:"empty"`
	Note    string         `json:"note,omitempty"`
}

// RegionLabel is the filter caption shown above the breed picker.
func RegionLabel(sel models.Selection) string {
	if sel.Region == "" {
		return nationalRegionLabel
	}
	return sel.Region
}

func RegionMapChart(counts []models.RegionCount, sel models.Selection) RegionMap {
	m := RegionMap{
		Title:    "Number of Imported Dogs by State",
		Selected: sel.Region,
		Regions:  make([]MapRegion, 0, len(counts)),
	}
	for _, c := range counts {
		selected := sel.Region == "" || c.Region == sel.Region
		opacity := unselectedOpacity
		if selected {
			opacity = selectedOpacity
		}
		m.Regions = append(m.Regions, MapRegion{
			ID:       FIPS(c.Region),
			Region:   c.Region,
			Count:    c.Count,
			Selected: sel.Region != "" && c.Region == sel.Region,
			Opacity:  opacity,
		})
	}
	return m
}

func BreedChart(r models.BreedRanking, sel models.Selection) BarChart {
	where := nationalRankingLabel
	if r.Region != "" {
		where = "in " + r.Region
	}
	chart := BarChart{
		Title:  fmt.Sprintf("Top %d Dog Breeds %s", models.TopBreeds, where),
		XTitle: "Number of Dogs",
		YTitle: "Breed",
		Bars:   make([]Bar, 0, len(r.Entries)),
	}
	for _, e := range r.Entries {
		chart.Bars = append(chart.Bars, Bar{
			Label:    e.Breed,
			Value:    e.Count,
			Selected: e.Breed == sel.Breed,
		})
	}
	if len(chart.Bars) == 0 {
		chart.Empty = true
		chart.Note = NoBreedDataMessage
	}
	return chart
}

func CrosstabChart(t models.Crosstab) Heatmap {
	h := Heatmap{
		Title:     fmt.Sprintf("Age and Size of %s Dogs in %s", t.Breed, regionOrNational(t.Region)),
		AgeOrder:  models.AgeOrder,
		SizeOrder: models.SizeOrder,
		Facets:    make([]HeatFacet, 0, len(models.SexOrder)),
		Total:     t.Total,
	}

	bySex := make(map[models.Sex]*HeatFacet, len(models.SexOrder))
	for _, sex := range models.SexOrder {
		h.Facets = append(h.Facets, HeatFacet{Sex: sex})
	}
	for i := range h.Facets {
		bySex[h.Facets[i].Sex] = &h.Facets[i]
	}

	for _, c := range t.Cells {
		f := bySex[c.Sex]
		if f == nil {
			continue
		}
		f.Cells = append(f.Cells, HeatCell{Age: c.Age, Size: c.Size, Count: c.Count})
		if c.Count > f.Max {
			f.Max = c.Count
		}
	}
	return h
}

// EmptyHeatmap is rendered when no breed can be resolved for the region.
func EmptyHeatmap(sel models.Selection) Heatmap {
	return Heatmap{
		Title:     "Age and Size in " + regionOrNational(sel.Region),
		AgeOrder:  models.AgeOrder,
		SizeOrder: models.SizeOrder,
		Empty:     true,
		Note:      NoBreedDataMessage,
	}
}

func CompatibilityChart(t models.CompatibilityTally) GroupedBars {
	where := t.Region
	if where == "" {
		where = nationalCompatLabel
	}

	g := GroupedBars{
		Title: fmt.Sprintf("Compatibility for %s in %s (%s, %s, %s)",
			t.Breed, where, t.Age, t.Sex, t.Size),
		Groups:  models.CompatTraits,
		Series:  make([]string, 0, len(models.CompatOrder)),
		Values:  make([]GroupedValue, 0, len(t.Rows)),
		Matched: t.Matched,
		Note:    "Each compatibility trait is recorded separately.",
	}
	for _, c := range models.CompatOrder {
		g.Series = append(g.Series, c.String())
	}
	for _, row := range t.Rows {
		g.Values = append(g.Values, GroupedValue{
			Group:  row.Trait,
			Series: row.Response.String(),
			Count:  row.Count,
		})
	}
	return g
}

// EmptyCompatibility is rendered when the selectors match no records.
func EmptyCompatibility(sel models.Selection, noBreeds bool) GroupedBars {
	note := NoCompatDataMessage
	if noBreeds {
		note = NoBreedDataMessage
	}
	return GroupedBars{
		Title:  "Compatibility in " + regionOrNational(sel.Region),
		Groups: models.CompatTraits,
		Empty:  true,
		Note:   note,
	}
}

func regionOrNational(region string) string {
	if region == "" {
		return nationalCompatLabel
	}
	return region
}
