package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/persistence"
)

const (
	defaultArticleLimit = 20
	maxArticleLimit     = 100
)

// HealthResponse is the /health body
type HealthResponse struct {
	Status  string             `json:"status"`
	Checks  map[string]string  `json:"checks"`
	LastRun *core.HealthRecord `json:"last_run,omitempty"`
}

// StatusResponse is the /api/status body
type StatusResponse struct {
	Uptime   string             `json:"uptime"`
	Articles int                `json:"articles"`
	LastRun  *core.HealthRecord `json:"last_run,omitempty"`
	Schedule map[string]string  `json:"schedule,omitempty"`
}

// ArticlesResponse is the /api/articles body
type ArticlesResponse struct {
	Data  []core.Article `json:"data"`
	Count int            `json:"count"`
}

// handleHealth reports database reachability and the last run outcome.
// A failed last run is reported but does not make the service unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := s.db.Ping(r.Context()); err != nil {
		checks["database"] = "error"
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	last, err := s.db.Health().Latest(r.Context())
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		checks["last_run"] = "none"
	case err != nil:
		logger.Error("Failed to read health record", err)
		checks["last_run"] = "error"
	default:
		checks["last_run"] = last.Status
	}

	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Checks:  checks,
		LastRun: last,
	})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.db.Articles().Count(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to count articles", err)
		return
	}

	resp := StatusResponse{
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Articles: count,
	}
	if last, err := s.db.Health().Latest(r.Context()); err == nil {
		resp.LastRun = last
	}

	if s.schedule != nil {
		resp.Schedule = make(map[string]string)
		jobs := s.schedule.Jobs()
		sort.Strings(jobs)
		for _, name := range jobs {
			if next, ok := s.schedule.Next(name); ok {
				resp.Schedule[name] = next.UTC().Format(time.RFC3339)
			}
		}
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// handleListArticles handles GET /api/articles?limit=N
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	limit := defaultArticleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxArticleLimit)
	}

	articles, err := s.db.Articles().ListRecent(r.Context(), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list articles", err)
		return
	}
	if articles == nil {
		articles = []core.Article{}
	}

	s.respondJSON(w, http.StatusOK, ArticlesResponse{Data: articles, Count: len(articles)})
}

// handleGetArticle handles GET /api/articles/{id}
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	article, err := s.db.Articles().Get(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "article not found", nil)
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load article", err)
		return
	}

	s.respondJSON(w, http.StatusOK, article)
}

func (s *Server) handleArticleAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	article, err := s.db.Articles().Get(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "article not found", nil)
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load article", err)
		return
	}

	audio, err := s.audio.Article(r.Context(), article)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "failed to generate audio", err)
		return
	}

	// Audio for a published article never changes.
	w.Header().Del("Pragma")
	w.Header().Del("Expires")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		logger.Error("Failed to write audio response", err, "article_id", id)
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", err)
	}
}

// respondError writes a JSON error body, logging err when present
func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logger.Error(message, err, "status", status)
	}
	s.respondJSON(w, status, map[string]string{"error": message})
}
