package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"adopt-dashboard/internal/errors"
	"adopt-dashboard/internal/models"
	"adopt-dashboard/internal/observability"
	"adopt-dashboard/internal/session"
	"adopt-dashboard/internal/ui/templates"
	"adopt-dashboard/internal/view"
)

var crosstabTemplate = template.Must(template.New("crosstab").Parse(`
<div id="crosstab-panel">
{{if .Empty}}<p class="warning">{{.Note}}</p>{{else}}
<h4>{{.Title}}</h4>
<div class="facets">
{{range .Facets}}<table class="heatmap" data-max="{{.Max}}">
<caption>{{.Sex}}</caption>
<thead><tr><th>Size / Age</th>{{range $.AgeOrder}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr><th>{{.Size}}</th>{{range .Counts}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{end}}</div>
<p>{{.Total}} dogs</p>{{end}}
</div>`))

type heatmapRow struct {
	Size   models.Size
	Counts []int
}

type heatmapFacet struct {
	Sex  models.Sex
	Max  int
	Rows []heatmapRow
}

type heatmapData struct {
	Title    string
	Empty    bool
	Note     string
	Total    int
	AgeOrder []models.Age
	Facets   []heatmapFacet
}

type SSEHandlers struct {
	registry *session.Registry
	logger   *slog.Logger
}

func NewSSEHandlers(registry *session.Registry, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		registry: registry,
		logger:   logger,
	}
}

// renderCrosstab lays the heatmap out as size rows by age columns per sex.
func (h *SSEHandlers) renderCrosstab(hm view.Heatmap) (string, error) {
	data := heatmapData{
		Title:    hm.Title,
		Empty:    hm.Empty,
		Note:     hm.Note,
		Total:    hm.Total,
		AgeOrder: hm.AgeOrder,
	}
	for _, f := range hm.Facets {
		facet := heatmapFacet{Sex: f.Sex, Max: f.Max}
		for _, size := range hm.SizeOrder {
			row := heatmapRow{Size: size, Counts: make([]int, len(hm.AgeOrder))}
			for _, c := range f.Cells {
				if c.Size != size {
					continue
				}
				for i, age := range hm.AgeOrder {
					if c.Age == age {
						row.Counts[i] = c.Count
					}
				}
			}
			facet.Rows = append(facet.Rows, row)
		}
		data.Facets = append(data.Facets, facet)
	}

	var buf strings.Builder
	err := crosstabTemplate.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		errors.WriteError(w, h.logger, errors.Internal("No session bound to request"), observability.GetRequestID(r.Context()))
		return
	}

	err := s.View(func(rd session.Reader) error {
		sse := datastar.NewSSE(w, r)
		return h.render(r.Context(), sse, rd, session.ScopeAll)
	})
	if err != nil {
		observability.RequestLogger(r.Context(), h.logger).Error("refresh all", "error", err)
	}
}

func (h *SSEHandlers) HandleRegion(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, view.EventRegionClicked)
}

func (h *SSEHandlers) HandleBreed(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, view.EventBreedChosen)
}

func (h *SSEHandlers) HandleTrait(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, view.EventTraitChosen)
}

func (h *SSEHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, view.EventSessionReset)
}

// handleEvent reads the interaction signals, applies the event to the
// session, and patches only the panels whose aggregates changed.
func (h *SSEHandlers) handleEvent(w http.ResponseWriter, r *http.Request, eventType string) {
	requestID := observability.GetRequestID(r.Context())
	s, ok := session.FromContext(r.Context())
	if !ok {
		errors.WriteError(w, h.logger, errors.Internal("No session bound to request"), requestID)
		return
	}

	var sig view.Signals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid signals"), requestID)
		return
	}
	sig.Type = eventType

	ev, err := sig.Event()
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	err = s.Interact(ev, func(rd session.Reader, changed session.Scope) error {
		sse := datastar.NewSSE(w, r)
		return h.render(r.Context(), sse, rd, changed)
	})
	if err == nil {
		return
	}

	var selErr *errors.InvalidSelectionError
	if stderrors.As(err, &selErr) {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	observability.RequestLogger(r.Context(), h.logger).Error("render interaction", "event", eventType, "error", err)
}

func (h *SSEHandlers) render(ctx context.Context, sse *datastar.ServerSentEventGenerator, rd session.Reader, changed session.Scope) error {
	ctx, span := observability.StartSpan(ctx, "render")
	defer span.End(observability.RequestLogger(ctx, h.logger))
	span.SetTag("changed", strings.Join(changed.Names(), ","))

	sel := rd.FilterState()
	signals := map[string]any{
		"filterState": filterState(rd, changed),
		"breed":       sel.Breed,
		"region":      sel.Region,
	}

	if changed.Has(session.ScopeRegions) {
		m := view.RegionMapChart(rd.RegionCounts(), sel)
		if err := h.patchComponent(ctx, sse, templates.RegionPanel(m)); err != nil {
			span.SetError(err)
			return err
		}
		signals["regionMap"] = m
	}

	ranking := rd.BreedRanking()
	if changed.Has(session.ScopeRanking) {
		chart := view.BreedChart(ranking, sel)
		if err := h.patchComponent(ctx, sse, templates.BreedPanel(chart, sel)); err != nil {
			span.SetError(err)
			return err
		}
		signals["breedChart"] = chart
	}

	if changed.Has(session.ScopeCrosstab) {
		var hm view.Heatmap
		table, err := rd.DemographicCrosstab()
		switch {
		case err == nil:
			hm = view.CrosstabChart(table)
		case stderrors.Is(err, errors.ErrEmptyResult):
			hm = view.EmptyHeatmap(sel)
		default:
			span.SetError(err)
			return err
		}

		html, err := h.renderCrosstab(hm)
		if err != nil {
			span.SetError(err)
			return err
		}
		if err := sse.PatchElements(html); err != nil {
			return err
		}
		signals["heatmap"] = hm
	}

	if changed.Has(session.ScopeCompat) {
		var chart view.GroupedBars
		tally, err := rd.CompatibilityTally()
		switch {
		case err == nil:
			chart = view.CompatibilityChart(tally)
		case stderrors.Is(err, errors.ErrEmptyResult):
			chart = view.EmptyCompatibility(sel, len(ranking.Entries) == 0)
		default:
			span.SetError(err)
			return err
		}

		if err := h.patchComponent(ctx, sse, templates.CompatibilityPanel(chart, sel)); err != nil {
			span.SetError(err)
			return err
		}
		signals["compatChart"] = chart
	}

	jsonData, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return err
	}
	return sse.PatchSignals(jsonData)
}

func (h *SSEHandlers) patchComponent(ctx context.Context, sse *datastar.ServerSentEventGenerator, c templ.Component) error {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		return err
	}
	return sse.PatchElements(buf.String())
}
