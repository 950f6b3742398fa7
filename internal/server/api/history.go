package api

import (
	"net/http"

	"github.com/ayusman/pinchtree/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// HistoryHandler serves the persisted sessions and mode transitions.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type listTransitionsResponse struct {
	Transitions []*store.Transition `json:"transitions"`
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

// Transitions handles GET /api/transitions. ?session= narrows to one
// session; ?limit= caps the newest-first list.
func (h *HistoryHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, defaultHistoryLimit, maxHistoryLimit)
	if !ok {
		WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	var (
		transitions []*store.Transition
		err         error
	)
	if session := r.URL.Query().Get("session"); session != "" {
		transitions, err = h.store.Transitions().ListBySession(session)
	} else {
		transitions, err = h.store.Transitions().List(limit)
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list transitions")
		return
	}
	if transitions == nil {
		transitions = []*store.Transition{}
	}
	WriteJSON(w, http.StatusOK, listTransitionsResponse{Transitions: transitions})
}

// Sessions handles GET /api/sessions.
func (h *HistoryHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, defaultHistoryLimit, maxHistoryLimit)
	if !ok {
		WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	WriteJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}
