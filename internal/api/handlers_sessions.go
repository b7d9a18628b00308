package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"popchat/internal/session"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New chat"
	}

	sess, err := s.store.EnsureSession("", title)
	if err != nil {
		s.log.Error("create session", "error", err)
		jsonError(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	sessions, err := s.store.ListSessions(limit, offset)
	if err != nil {
		s.log.Error("list sessions", "error", err)
		jsonError(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.store.GetSession(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			jsonError(w, "session not found", http.StatusNotFound)
			return
		}
		s.log.Error("get session", "session_id", id, "error", err)
		jsonError(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := s.store.GetSession(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			jsonError(w, "session not found", http.StatusNotFound)
			return
		}
		s.log.Error("get session", "session_id", id, "error", err)
		jsonError(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)
	msgs, err := s.store.ListMessages(id, limit, offset)
	if err != nil {
		s.log.Error("list messages", "session_id", id, "error", err)
		jsonError(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.store.DeleteSession(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			jsonError(w, "session not found", http.StatusNotFound)
			return
		}
		s.log.Error("delete session", "session_id", id, "error", err)
		jsonError(w, "failed to delete session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}
