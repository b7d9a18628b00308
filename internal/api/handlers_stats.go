package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"popchat/internal/session"
)

func (s *Server) handleBackendStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.EventCounts()
	if err != nil {
		s.log.Error("event counts", "error", err)
		jsonError(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backend": s.stats.Snapshot(),
		"cache":   map[string]any{"entries": s.cache.Len()},
		"events":  counts,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)

	var req struct {
		SessionID string `json:"session_id"`
		Kind      string `json:"kind"`
		Query     string `json:"query,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Kind = strings.TrimSpace(req.Kind)
	if req.Kind == "" {
		jsonError(w, "kind is required", http.StatusBadRequest)
		return
	}

	if err := s.store.RecordEvent(&session.Event{
		SessionID: req.SessionID,
		Kind:      req.Kind,
		Query:     req.Query,
	}); err != nil {
		s.log.Error("record event", "error", err)
		jsonError(w, "failed to record event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleListAnalytics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	evs, err := s.store.ListEvents(id, limit, offset)
	if err != nil {
		s.log.Error("list events", "session_id", id, "error", err)
		jsonError(w, "failed to list events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evs})
}
