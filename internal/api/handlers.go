// Package api provides the HTTP handlers for caseflow endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/sesamtech/caseflow/internal/caseapi"
	"github.com/sesamtech/caseflow/internal/flow"
	"github.com/sesamtech/caseflow/internal/models"
)

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseGUID validates the {guid} path value as a UUID. It writes the 400
// response itself and reports whether the caller should continue.
func parseGUID(w http.ResponseWriter, r *http.Request) (string, bool) {
	guid := r.PathValue("guid")
	if _, err := uuid.Parse(guid); err != nil {
		slog.Warn("Server.parseGUID: invalid GUID", "guid", guid, "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Message("Invalid GUID format."))
		return "", false
	}
	return guid, true
}

// writeCaseError maps upstream case fetch failures onto the proxy statuses:
// not-found and validation are surfaced precisely, everything else stays
// generic so upstream internals do not leak.
func writeCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, caseapi.ErrCaseNotFound):
		writeJSONResponse(w, http.StatusNotFound, models.Message("Case not found"))
	case errors.Is(err, caseapi.ErrRateLimited):
		writeJSONResponse(w, http.StatusTooManyRequests, models.Message("Too many requests. Please try again later."))
	case errors.Is(err, caseapi.ErrUpstream):
		writeJSONResponse(w, http.StatusBadGateway, models.Message("External API returned a server error."))
	default:
		slog.Error("Server.writeCaseError: unclassified failure", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Message("Internal Server Error"))
	}
}

// caseHandler proxies GET /api/case/{guid} to the upstream case-management
// API, returning the case envelope unchanged on success.
func (s *Server) caseHandler(w http.ResponseWriter, r *http.Request) {
	guid, ok := parseGUID(w, r)
	if !ok {
		return
	}
	slog.Debug("Server.caseHandler: fetching case", "guid", guid)

	envelope, err := s.cases.FetchCase(r.Context(), guid)
	if err != nil {
		writeCaseError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, envelope)
}

// stockHandler serves POST /api/stock/check. Handled paths always answer 200
// with {isAvailable, colors}; stock lookup failures have already degraded to
// the unavailable result inside the adapter. Only a malformed payload (400)
// or a missing adapter (500) produce other statuses, both with the degraded
// body shape plus an error message.
func (s *Server) stockHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}

	var query models.StockQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		slog.Warn("Server.stockHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.StockError("Invalid JSON format"))
		return
	}
	if err := query.Validate(); err != nil {
		slog.Warn("Server.stockHandler: invalid stock query", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.StockError(err.Error()))
		return
	}

	if s.stock == nil {
		slog.Error("Server.stockHandler: stock lookup not configured")
		writeJSONResponse(w, http.StatusInternalServerError, models.StockError("Failed to check stock."))
		return
	}

	result := s.stock.CheckStock(r.Context(), query.Model, query.Brand)
	writeJSONResponse(w, http.StatusOK, models.StockOK(result))
}

// flowBootstrapHandler serves POST /api/flow/{guid}/bootstrap: it runs the
// bootstrap sequencer and returns the case record plus the initial flow
// state. A bootstrap superseded by a newer one answers 409 and changes
// nothing.
func (s *Server) flowBootstrapHandler(w http.ResponseWriter, r *http.Request) {
	guid, ok := parseGUID(w, r)
	if !ok {
		return
	}

	envelope, state, err := s.flows.Bootstrap(r.Context(), guid)
	if err != nil {
		if errors.Is(err, flow.ErrSuperseded) {
			writeJSONResponse(w, http.StatusConflict, models.Message("Bootstrap superseded by a newer request."))
			return
		}
		writeCaseError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, models.BootstrapResponse{Case: envelope, State: state})
}

// flowStateHandler serves GET /api/flow/{guid}: the active session's state.
func (s *Server) flowStateHandler(w http.ResponseWriter, r *http.Request) {
	guid, ok := parseGUID(w, r)
	if !ok {
		return
	}

	envelope, state, err := s.flows.Current(guid)
	if err != nil {
		writeJSONResponse(w, http.StatusNotFound, models.Message("No active flow for this case."))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.BootstrapResponse{Case: envelope, State: state})
}

// flowActionHandler serves POST /api/flow/{guid}/action: dispatches one
// state machine action. Rejected transitions answer 409 with the reason;
// the redirect URL is included once the flow reaches complete.
func (s *Server) flowActionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	guid, ok := parseGUID(w, r)
	if !ok {
		return
	}

	var action models.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		slog.Warn("Server.flowActionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Message("Invalid JSON format"))
		return
	}
	if err := action.Validate(); err != nil {
		slog.Warn("Server.flowActionHandler: invalid action", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Message(err.Error()))
		return
	}

	state, redirectURL, err := s.flows.Dispatch(r.Context(), guid, action)
	if err != nil {
		switch {
		case errors.Is(err, flow.ErrNoSession):
			writeJSONResponse(w, http.StatusNotFound, models.Message("No active flow for this case."))
		case errors.Is(err, flow.ErrInvalidTransition):
			writeJSONResponse(w, http.StatusConflict, models.Message(err.Error()))
		default:
			writeJSONResponse(w, http.StatusBadRequest, models.Message(err.Error()))
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, models.ActionResponse{State: state, RedirectURL: redirectURL})
}

// flowStockHandler serves GET /api/flow/{guid}/stock: swap availability for
// the active session's device, memoized per session. Like the raw stock
// endpoint it never fails hard; unknown stock reads as unavailable.
func (s *Server) flowStockHandler(w http.ResponseWriter, r *http.Request) {
	guid, ok := parseGUID(w, r)
	if !ok {
		return
	}

	result, err := s.flows.CheckStock(r.Context(), guid)
	if err != nil {
		writeJSONResponse(w, http.StatusNotFound, models.Message("No active flow for this case."))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.StockOK(result))
}
