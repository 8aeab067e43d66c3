package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"adopt-dashboard/internal/models"
	"adopt-dashboard/internal/view"
)

// Element ids patched by the SSE handlers.
const (
	RegionPanelID   = "region-panel"
	BreedPanelID    = "breed-panel"
	CrosstabPanelID = "crosstab-panel"
	CompatPanelID   = "compat-panel"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// Dashboard is the page shell. Panels start empty and are filled by the
// refresh-all stream once the page loads.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>Find your dream dog to adopt</title>`)
		fmt.Fprintf(&b, `<script type="module" src="%s"></script>`, datastarScript)
		b.WriteString(`</head><body>`)
		b.WriteString(`<main data-signals="{type: '', region: '', fips: 0, breed: '', kind: '', value: ''}" data-init="@get('/sse/refresh-all')">`)
		b.WriteString(`<h1>Find your dream dog to adopt today</h1>`)

		b.WriteString(`<section><h2>Where do you live?</h2>`)
		b.WriteString(`<h3>Click your state to see its top 10 dog breeds in the chart below the map</h3>`)
		fmt.Fprintf(&b, `<div id="%s"></div>`, RegionPanelID)
		fmt.Fprintf(&b, `<div id="%s"></div></section>`, BreedPanelID)

		b.WriteString(`<section><h2>What type of dog are you looking for?</h2>`)
		fmt.Fprintf(&b, `<div id="%s"></div></section>`, CrosstabPanelID)

		b.WriteString(`<section><h2>Will this breed get along with your household?</h2>`)
		b.WriteString(`<h3>Choose age, size, and sex to see how compatible these dogs are with children, cats, and dogs.</h3>`)
		fmt.Fprintf(&b, `<div id="%s"></div></section>`, CompatPanelID)

		b.WriteString(`<button data-on:click="@post('/sse/reset')">Start over</button>`)
		b.WriteString(`</main></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// RegionPanel lists every region with its count. Clicking a region posts a
// region_clicked event; the selected region is highlighted.
func RegionPanel(m view.RegionMap) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div id="%s"><h4>%s</h4>`, RegionPanelID, templ.EscapeString(m.Title))
		if len(m.Regions) == 0 {
			b.WriteString(`<p class="empty">Dataset has no regions.</p></div>`)
			_, err := io.WriteString(w, b.String())
			return err
		}

		b.WriteString(`<ul class="regions">`)
		for _, r := range m.Regions {
			class := "region"
			if r.Selected {
				class += " selected"
			}
			fmt.Fprintf(&b,
				`<li class="%s" style="opacity:%.1f"><button data-on:click="$type = 'region_clicked'; $fips = 0; $region = '%s'; @post('/sse/region')">%s <span>%d</span></button></li>`,
				class, r.Opacity, jsString(r.Region), templ.EscapeString(r.Region), r.Count)
		}
		b.WriteString(`</ul>`)
		if m.Selected != "" {
			b.WriteString(`<button data-on:click="$type = 'region_clicked'; $fips = 0; $region = ''; @post('/sse/region')">Show national</button>`)
		}
		b.WriteString(`</div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// BreedPanel shows the top breed chart and the breed picker bound to it.
func BreedPanel(chart view.BarChart, sel models.Selection) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div id="%s">`, BreedPanelID)
		fmt.Fprintf(&b, `<p>Filtering by state: <strong>%s</strong></p>`, templ.EscapeString(view.RegionLabel(sel)))

		if chart.Empty {
			fmt.Fprintf(&b, `<p class="warning">%s</p></div>`, templ.EscapeString(chart.Note))
			_, err := io.WriteString(w, b.String())
			return err
		}
		if sel.Region == "" {
			fmt.Fprintf(&b, `<p class="info">%s</p>`, templ.EscapeString(view.PickRegionMessage))
		}

		fmt.Fprintf(&b, `<h4>%s</h4><ol class="bars">`, templ.EscapeString(chart.Title))
		for _, bar := range chart.Bars {
			class := "bar"
			if bar.Selected {
				class += " selected"
			}
			fmt.Fprintf(&b, `<li class="%s"><span>%s</span> <strong>%d</strong></li>`,
				class, templ.EscapeString(bar.Label), bar.Value)
		}
		b.WriteString(`</ol>`)

		b.WriteString(`<label>Choose the breed you are interested in `)
		b.WriteString(`<select data-bind:breed data-on:change="$type = 'breed_chosen'; @post('/sse/breed')">`)
		for _, bar := range chart.Bars {
			selected := ""
			if bar.Label == sel.Breed || (sel.Breed == "" && bar.Label == chart.Bars[0].Label) {
				selected = " selected"
			}
			fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`,
				templ.EscapeString(bar.Label), selected, templ.EscapeString(bar.Label))
		}
		b.WriteString(`</select></label></div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// CompatibilityPanel renders the trait selectors and the Yes/No/Unknown
// table for the current breed.
func CompatibilityPanel(chart view.GroupedBars, sel models.Selection) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div id="%s">`, CompatPanelID)
		writeTraitRadios(&b, models.TraitAge, toStrings(models.AgeOrder), string(sel.Age))
		writeTraitRadios(&b, models.TraitSex, toStrings(models.SexOrder), string(sel.Sex))
		writeTraitRadios(&b, models.TraitSize, toStrings(models.SizeOrder), string(sel.Size))

		if chart.Empty {
			fmt.Fprintf(&b, `<p class="info">%s</p></div>`, templ.EscapeString(chart.Note))
			_, err := io.WriteString(w, b.String())
			return err
		}

		fmt.Fprintf(&b, `<h4>%s</h4>`, templ.EscapeString(chart.Title))
		b.WriteString(`<table class="compat"><thead><tr><th>Trait</th>`)
		for _, s := range chart.Series {
			fmt.Fprintf(&b, `<th>%s</th>`, templ.EscapeString(s))
		}
		b.WriteString(`</tr></thead><tbody>`)
		for _, group := range chart.Groups {
			fmt.Fprintf(&b, `<tr><td>%s</td>`, templ.EscapeString(group))
			for _, s := range chart.Series {
				fmt.Fprintf(&b, `<td>%d</td>`, countFor(chart.Values, group, s))
			}
			b.WriteString(`</tr>`)
		}
		b.WriteString(`</tbody></table>`)
		fmt.Fprintf(&b, `<p><em>Note: %s</em></p></div>`, templ.EscapeString(chart.Note))

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeTraitRadios(b *strings.Builder, kind models.TraitKind, values []string, current string) {
	fmt.Fprintf(b, `<fieldset class="trait"><legend>%s</legend>`, templ.EscapeString(strings.ToUpper(string(kind[:1]))+string(kind[1:])))
	for _, v := range values {
		checked := ""
		if v == current {
			checked = " checked"
		}
		fmt.Fprintf(b,
			`<label><input type="radio" name="%s" value="%s"%s data-on:change="$type = 'trait_chosen'; $kind = '%s'; $value = '%s'; @post('/sse/trait')"> %s</label>`,
			kind, templ.EscapeString(v), checked, kind, jsString(v), templ.EscapeString(v))
	}
	b.WriteString(`</fieldset>`)
}

func countFor(values []view.GroupedValue, group, series string) int {
	for _, v := range values {
		if v.Group == group && v.Series == series {
			return v.Count
		}
	}
	return 0
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// jsString escapes a value for a single-quoted expression inside an HTML
// attribute.
func jsString(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`).Replace(s)
	return templ.EscapeString(s)
}
