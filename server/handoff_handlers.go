package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-handoff-server/handoff"
	"github.com/rs/zerolog/hlog"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"

	// maxCompleteBodyBytes bounds the complete request body.
	maxCompleteBodyBytes = 4 << 10

	msgMissingCodeOrState = "Missing code or state parameter"
	msgMissingHandoff     = "Missing handoff"
	msgAuthorizationError = "Authorization was not granted"
	msgInternalError      = "Internal error"
)

// CompleteRequest is the body the app posts once it has the handoff id.
type CompleteRequest struct {
	Handoff string `json:"handoff"`
}

// StartHandler begins a handoff and redirects the browser to the provider.
func (s *Server) StartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := s.handoffs.Start(r.Context(), clientBinding(r))
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("failed to start handoff")
			http.Error(w, msgInternalError, http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, start.RedirectURL, http.StatusFound)
	}
}

// CallbackHandler receives the provider redirect and returns the bounce page.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		// The user declined, or the provider rejected the request.
		if providerError := strings.TrimSpace(query.Get("error")); providerError != "" {
			hlog.FromRequest(r).Warn().Str("providerError", providerError).Msg("provider returned an error")
			http.Error(w, msgAuthorizationError, http.StatusBadRequest)
			return
		}

		code := strings.TrimSpace(query.Get("code"))
		state := strings.TrimSpace(query.Get("state"))
		if code == "" || state == "" {
			http.Error(w, msgMissingCodeOrState, http.StatusBadRequest)
			return
		}

		result, err := s.handoffs.Callback(r.Context(), code, state)
		if err != nil {
			status, message := s.errorResponse(r, err)
			http.Error(w, message, status)
			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, result.HTML)
	}
}

// CompleteHandler hands the tokens to the app, exactly once.
func (s *Server) CompleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompleteRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxCompleteBodyBytes)).Decode(&req); err != nil {
			writeJSONError(w, msgMissingHandoff, http.StatusBadRequest)
			return
		}
		handoffID := strings.TrimSpace(req.Handoff)
		if handoffID == "" {
			writeJSONError(w, msgMissingHandoff, http.StatusBadRequest)
			return
		}

		payload, err := s.handoffs.Complete(r.Context(), handoffID, clientBinding(r))
		if err != nil {
			status, message := s.errorResponse(r, err)
			writeJSONError(w, message, status)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	}
}

// PreflightHandler answers CORS preflight requests; the headers are set by
// CorsMiddleware.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// errorResponse maps a service error to a status and a client safe message.
// Protocol errors are the caller's problem, anything else is ours.
func (s *Server) errorResponse(r *http.Request, err error) (int, string) {
	var protocolErr *handoff.Error
	if errors.As(err, &protocolErr) {
		hlog.FromRequest(r).Info().Str("kind", protocolErr.Kind.String()).Msg("handoff rejected")
		return http.StatusBadRequest, protocolErr.Kind.Message()
	}
	hlog.FromRequest(r).Error().Err(err).Msg("handoff failed")
	return http.StatusInternalServerError, msgInternalError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
