package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"newsdesk/internal/model"
	"newsdesk/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: http.StatusText(status)})
}

// statusOf maps workflow errors to HTTP so callers can tell "you may not"
// apart from "this already happened".
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusForbidden, "authorization_error"
	case errors.Is(err, model.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zapRequest(r, err)...)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}
