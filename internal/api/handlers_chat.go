package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"popchat/internal/answer"
	"popchat/internal/cache"
	"popchat/internal/session"
)

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Query     string `json:"query"`
}

type chatResponse struct {
	SessionID string        `json:"session_id"`
	MessageID string        `json:"message_id"`
	Answer    *cache.Result `json:"answer"`
	Cached    bool          `json:"cached"`
	LatencyMs int64         `json:"latency_ms"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	sess, err := s.store.EnsureSession(req.SessionID, sessionTitle(req.Query))
	if err != nil {
		s.log.Error("ensure session", "error", err)
		jsonError(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	if _, err := s.store.AddMessage(sess.ID, "user", req.Query, ""); err != nil {
		s.log.Error("store user message", "error", err)
		jsonError(w, "failed to store message", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	ans, err := s.backend.Query(r.Context(), sess.ID, req.Query)
	latency := time.Since(start)
	s.stats.Record(latency, err != nil)
	if err != nil {
		s.log.Error("backend query", "session_id", sess.ID, "error", err)
		jsonError(w, "answer backend unavailable", http.StatusBadGateway)
		return
	}

	key := cache.Key([]byte(ans.Text))
	result, hit := s.cache.Get(key)
	if !hit {
		result = s.process(ans.Text)
		result.Sources = ans.Sources
		s.cache.Put(key, result)
	}

	meta, _ := json.Marshal(map[string]any{
		"charts":     len(result.Charts),
		"quality":    result.Quality.Score,
		"latency_ms": latency.Milliseconds(),
	})
	msg, err := s.store.AddMessage(sess.ID, "assistant", result.Text, string(meta))
	if err != nil {
		s.log.Error("store assistant message", "error", err)
		jsonError(w, "failed to store message", http.StatusInternalServerError)
		return
	}

	if err := s.store.RecordEvent(&session.Event{
		SessionID: sess.ID,
		Kind:      "chat",
		Query:     req.Query,
		Charts:    len(result.Charts),
		Quality:   result.Quality.Score,
		LatencyMs: latency.Milliseconds(),
	}); err != nil {
		s.log.Warn("record chat event", "error", err)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: sess.ID,
		MessageID: msg.ID,
		Answer:    result,
		Cached:    hit,
		LatencyMs: latency.Milliseconds(),
	})
}

// process runs the full answer pipeline: chart extraction, structuring
// and analysis of the stripped narrative.
func (s *Server) process(text string) *cache.Result {
	cleaned, charts := s.extractor.Extract(text)
	structured := answer.Structure(cleaned)
	return &cache.Result{
		Text:        cleaned,
		HTML:        answer.RenderHTML(cleaned),
		Charts:      charts,
		Structured:  structured,
		Insights:    answer.ExtractInsights(cleaned),
		Comparisons: answer.DetectComparisons(cleaned),
		Statistics:  answer.ExtractStatistics(cleaned),
		Quality:     answer.AssessQuality(cleaned),
	}
}

// sessionTitle derives a session title from the first query.
func sessionTitle(query string) string {
	const maxTitle = 60
	title := strings.Join(strings.Fields(query), " ")
	if len(title) > maxTitle {
		title = strings.TrimSpace(title[:maxTitle]) + "..."
	}
	return title
}
