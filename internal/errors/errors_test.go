package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   ErrorCode
		status int
	}{
		{"invalid selection", InvalidSelection("breed", "Poodle", "not ranked"), CodeInvalidSelect, http.StatusBadRequest},
		{"wrapped invalid selection", fmt.Errorf("apply: %w", InvalidSelection("age", "Old", "bad")), CodeInvalidSelect, http.StatusBadRequest},
		{"data load", &DataLoadError{Source: "dogs.csv", Reason: "missing required columns"}, CodeDataLoad, http.StatusServiceUnavailable},
		{"app error passes through", RateLimit("slow down"), CodeRateLimit, http.StatusTooManyRequests},
		{"unknown", io.ErrUnexpectedEOF, CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDomain(tt.err)
			if got.Code != tt.code || got.StatusCode != tt.status {
				t.Errorf("FromDomain() = %s/%d, want %s/%d", got.Code, got.StatusCode, tt.code, tt.status)
			}
		})
	}
}

func TestDataLoadError_Unwrap(t *testing.T) {
	err := &DataLoadError{Source: "dogs.csv", Reason: "open source", Err: io.EOF}
	if !stderrors.Is(err, io.EOF) {
		t.Error("DataLoadError should unwrap to its cause")
	}
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := httptest.NewRecorder()

	WriteError(w, logger, InvalidSelection("breed", "Poodle", "not ranked"), "req-1")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      ErrorCode `json:"code"`
			Details   string    `json:"details"`
			RequestID string    `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if resp.Success || resp.Error.Code != CodeInvalidSelect || resp.Error.RequestID != "req-1" || resp.Error.Details == "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, map[string]int{"n": 1}, map[string]string{"Cache-Control": "no-store"})

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}
