package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"adopt-dashboard/internal/errors"
	"adopt-dashboard/internal/models"
	"adopt-dashboard/internal/observability"
	"adopt-dashboard/internal/session"
	"adopt-dashboard/internal/view"
)

const (
	maxEventBody  = 1 << 20
	reloadTimeout = 2 * time.Minute
)

var noStore = map[string]string{"Cache-Control": "no-store"}

// EmptyResult is the success payload for a query that matched no eligible
// records. It is distinct from a table of zero counts.
type EmptyResult struct {
	Empty  bool   `json:"empty"`
	Reason string `json:"reason"`
}

type FilterStateResponse struct {
	Selection   models.Selection `json:"selection"`
	Stage       session.Stage    `json:"stage"`
	RegionLabel string           `json:"region_label"`
	Changed     []string         `json:"changed,omitempty"`
}

type APIHandlers struct {
	registry *session.Registry
	logger   *slog.Logger
}

func NewAPIHandlers(registry *session.Registry, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		registry: registry,
		logger:   logger,
	}
}

func (h *APIHandlers) HandleRegionCounts(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, s.RegionCounts())
}

func (h *APIHandlers) HandleBreedRanking(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, s.BreedRanking())
}

func (h *APIHandlers) HandleCrosstab(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	table, err := s.DemographicCrosstab()
	h.writeResult(w, r, table, err, view.NoBreedDataMessage)
}

func (h *APIHandlers) HandleCompatibility(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		tally  models.CompatibilityTally
		err    error
		reason = view.NoCompatDataMessage
	)
	_ = s.View(func(rd session.Reader) error {
		tally, err = rd.CompatibilityTally()
		if len(rd.BreedRanking().Entries) == 0 {
			reason = view.NoBreedDataMessage
		}
		return nil
	})
	h.writeResult(w, r, tally, err, reason)
}

func (h *APIHandlers) HandleFilterState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var resp FilterStateResponse
	_ = s.View(func(rd session.Reader) error {
		resp = filterState(rd, session.ScopeNone)
		return nil
	})
	errors.WriteSuccess(w, resp)
}

// HandleEvent applies one interaction posted as JSON and returns the new
// filter state with the list of aggregates it changed.
func (h *APIHandlers) HandleEvent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var sig view.Signals
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody)).Decode(&sig); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid event payload"), observability.GetRequestID(r.Context()))
		return
	}

	ev, err := sig.Event()
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	var resp FilterStateResponse
	err = s.Interact(ev, func(rd session.Reader, changed session.Scope) error {
		resp = filterState(rd, changed)
		return nil
	})
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccess(w, resp)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.registry.Dataset().Current() == nil {
		status = "loading"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.stats(), noStore)
}

// HandleReload reloads the dataset from its source. Sessions reset their
// filters on their next interaction. A failed reload keeps the previous
// dataset.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reloadTimeout)
	defer cancel()

	logger := observability.RequestLogger(r.Context(), h.logger)
	snap, err := h.registry.Dataset().Reload(ctx)
	if err != nil {
		logger.Error("dataset reload failed", "error", err)
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	observability.RecordDataset(snap.Store.Len(), snap.Store.Dropped(), snap.Generation)
	logger.Info("dataset reloaded", "generation", snap.Generation, "records", snap.Store.Len())
	errors.WriteSuccessWithHeaders(w, h.stats(), noStore)
}

func (h *APIHandlers) stats() map[string]any {
	stats := map[string]any{
		"sessions": h.registry.Len(),
	}
	if snap := h.registry.Dataset().Current(); snap != nil {
		stats["record_count"] = snap.Store.Len()
		stats["dropped_rows"] = snap.Store.Dropped()
		stats["generation"] = snap.Generation
		stats["last_loaded"] = snap.Store.LoadedAt()
		stats["source"] = snap.Store.Source()
		stats["regions"] = len(h.registry.RegionCounts())
	}
	return stats
}

func (h *APIHandlers) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	requestID := observability.GetRequestID(r.Context())
	if h.registry.Dataset().Current() == nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("Dataset is not loaded yet"), requestID)
		return nil, false
	}
	s, ok := session.FromContext(r.Context())
	if !ok {
		errors.WriteError(w, h.logger, errors.Internal("No session bound to request"), requestID)
		return nil, false
	}
	return s, true
}

func (h *APIHandlers) writeResult(w http.ResponseWriter, r *http.Request, data any, err error, emptyReason string) {
	switch {
	case err == nil:
		errors.WriteSuccess(w, data)
	case stderrors.Is(err, errors.ErrEmptyResult):
		observability.RequestLogger(r.Context(), h.logger).Debug("no data for selection", "path", r.URL.Path)
		errors.WriteSuccess(w, EmptyResult{Empty: true, Reason: emptyReason})
	default:
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
	}
}

func filterState(rd session.Reader, changed session.Scope) FilterStateResponse {
	sel := rd.FilterState()
	return FilterStateResponse{
		Selection:   sel,
		Stage:       rd.Stage(),
		RegionLabel: view.RegionLabel(sel),
		Changed:     changed.Names(),
	}
}
