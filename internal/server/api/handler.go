package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/server/pagination"
	"compwatch/monitor/internal/storage"
)

const defaultLimit = 100
const maxLimit = 1000
const iso8601Format = time.RFC3339

// ChangesResponse is the payload for the detected-changes endpoint.
type ChangesResponse struct {
	Items      []models.Snapshot `json:"items"`
	NextCursor *string           `json:"next_cursor,omitempty"`
}

// SignalsResponse is the payload for the signals endpoint.
type SignalsResponse struct {
	Items      []models.Signal `json:"items"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// ChangesHandler serves the paginated list of detected snapshot changes.
type ChangesHandler struct {
	repo storage.SnapshotRepository
}

// NewChangesHandler creates a new handler instance.
func NewChangesHandler(repo storage.SnapshotRepository) *ChangesHandler {
	return &ChangesHandler{repo: repo}
}

// GetChanges handles requests to fetch detected changes.
func (h *ChangesHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Processing changes request")

	params, ok := parseListParams(w, r)
	if !ok {
		return
	}

	items, err := h.repo.RecentChanges(r.Context(), params.limit+1, params.since, params.cursorTimestamp, params.cursorID)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching changes from repository")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var nextCursor *string
	if len(items) > params.limit {
		items = items[:params.limit]
		last := items[len(items)-1]
		cursor := pagination.EncodeCursor(last.CapturedAt.UTC(), last.ID)
		nextCursor = &cursor
	}
	if items == nil {
		items = []models.Snapshot{}
	}

	writeJSON(w, r, ChangesResponse{Items: items, NextCursor: nextCursor})
}

// SignalsHandler serves the paginated list of ingested signals.
type SignalsHandler struct {
	repo storage.SignalRepository
}

// NewSignalsHandler creates a new handler instance.
func NewSignalsHandler(repo storage.SignalRepository) *SignalsHandler {
	return &SignalsHandler{repo: repo}
}

// GetSignals handles requests to fetch signals.
func (h *SignalsHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Processing signals request")

	params, ok := parseListParams(w, r)
	if !ok {
		return
	}

	items, err := h.repo.Recent(r.Context(), params.limit+1, params.since, params.cursorTimestamp, params.cursorID)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching signals from repository")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var nextCursor *string
	if len(items) > params.limit {
		items = items[:params.limit]
		last := items[len(items)-1]
		cursor := pagination.EncodeCursor(last.CapturedAt.UTC(), last.ID)
		nextCursor = &cursor
	}
	if items == nil {
		items = []models.Signal{}
	}

	writeJSON(w, r, SignalsResponse{Items: items, NextCursor: nextCursor})
}

type listParams struct {
	limit           int
	since           *time.Time
	cursorTimestamp *time.Time
	cursorID        *string
}

// parseListParams validates the shared limit/since/cursor query parameters.
// On failure it writes the error response and returns ok=false.
func parseListParams(w http.ResponseWriter, r *http.Request) (listParams, bool) {
	log := hlog.FromRequest(r)

	query := r.URL.Query()
	limitStr := query.Get("limit")
	sinceStr := query.Get("since")
	cursorStr := query.Get("cursor")

	params := listParams{limit: defaultLimit}
	if limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 || parsedLimit > maxLimit {
			log.Warn().Err(err).Str("limit", limitStr).Msg("Invalid 'limit' parameter value")
			http.Error(w, fmt.Sprintf("Invalid 'limit' parameter: must be between 1 and %d", maxLimit), http.StatusBadRequest)
			return params, false
		}
		params.limit = parsedLimit
	}

	if cursorStr != "" {
		ts, id, err := pagination.DecodeCursor(cursorStr)
		if err != nil {
			log.Warn().Err(err).Str("cursor", cursorStr).Msg("Invalid 'cursor' parameter")
			http.Error(w, "Invalid 'cursor' parameter", http.StatusBadRequest)
			return params, false
		}
		params.cursorTimestamp = &ts
		params.cursorID = &id
	} else if sinceStr != "" {
		parsedSince, err := time.Parse(iso8601Format, sinceStr)
		if err != nil {
			log.Warn().Err(err).Str("since", sinceStr).Msg("Invalid 'since' parameter format")
			http.Error(w, "Invalid 'since' parameter: use RFC3339 format (e.g., 2025-03-28T15:00:00Z)", http.StatusBadRequest)
			return params, false
		}
		utcSince := parsedSince.UTC()
		params.since = &utcSince
	} else {
		log.Warn().Msg("Missing required parameter: 'since' or 'cursor'")
		http.Error(w, "Missing required parameter: 'since' or 'cursor'", http.StatusBadRequest)
		return params, false
	}

	return params, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	log := hlog.FromRequest(r)

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(jsonBytes); err != nil {
		log.Error().Err(err).Msg("Error writing JSON response body to client")
	}
	log.Debug().Int("bytes_written", len(jsonBytes)).Msg("Response completed")
}
