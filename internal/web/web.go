// Package web exposes the planner over a JSON API plus a server-rendered
// /week view used as the snapshot target.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"weekplan/internal/config"
	"weekplan/internal/ics"
	applog "weekplan/internal/log"
	"weekplan/internal/model"
)

// Server routes HTTP traffic onto a Planner.
type Server struct {
	cfg     *config.Config
	planner *Planner
	mux     *http.ServeMux

	// Per-week TTL cache so UI polling does not re-run fetch+expand+plan
	// on every request. The refresh loop invalidates it.
	planMu    sync.RWMutex
	planCache map[string]cachedPlan
}

type cachedPlan struct {
	week      WeekPlan
	updatedAt time.Time
}

const planCacheTTL = 30 * time.Second

// NewServer constructs a Server over cfg and planner.
func NewServer(cfg *config.Config, planner *Planner) *Server {
	s := &Server{
		cfg:       cfg,
		planner:   planner,
		mux:       http.NewServeMux(),
		planCache: make(map[string]cachedPlan),
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's http.Handler, wrapped in basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		applog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Start serves until the listener fails. Graceful shutdown is wired by the
// caller wrapping this in an http.Server.
func Start(_ context.Context, cfg *config.Config, planner *Planner) error {
	s := NewServer(cfg, planner)
	applog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	return http.ListenAndServe(cfg.Listen, s.Handler())
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware protects everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekplan", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/plan", s.handlePlan)
	s.mux.HandleFunc("POST /api/plan/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /api/goals", s.handleGoalsList)
	s.mux.HandleFunc("POST /api/goals", s.handleGoalsUpsert)
	s.mux.HandleFunc("GET /api/bookings", s.handleBookingsList)
	s.mux.HandleFunc("POST /api/bookings", s.handleBookingsUpsert)
	s.mux.HandleFunc("GET /api/layout", s.handleLayout)
	s.mux.HandleFunc("GET /api/export", s.handleExport)
	s.mux.HandleFunc("GET /week", s.handleWeekView)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// weekParam resolves the ?week= query value (yyyy-MM-dd, any day of the
// week) to that week's Monday; missing or bad values mean the current week.
func (s *Server) weekParam(r *http.Request) time.Time {
	loc := s.cfg.Location()
	if raw := r.URL.Query().Get("week"); raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
			return model.WeekStart(t, loc)
		}
	}
	return model.WeekStart(time.Now().In(loc), loc)
}

func (s *Server) cachedWeek(ctx context.Context, monday time.Time) (WeekPlan, error) {
	key := model.DateKey(monday)

	s.planMu.RLock()
	entry, ok := s.planCache[key]
	s.planMu.RUnlock()
	if ok && time.Since(entry.updatedAt) < planCacheTTL {
		return entry.week, nil
	}

	week, err := s.planner.PlanWeek(ctx, monday)
	if err != nil {
		return WeekPlan{}, err
	}

	s.planMu.Lock()
	s.planCache[key] = cachedPlan{week: week, updatedAt: time.Now()}
	s.planMu.Unlock()
	return week, nil
}

// InvalidatePlans drops the plan cache; the refresh loop calls this after
// persisting a new plan.
func (s *Server) InvalidatePlans() {
	s.planMu.Lock()
	s.planCache = make(map[string]cachedPlan)
	s.planMu.Unlock()
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	week, err := s.cachedWeek(r.Context(), s.weekParam(r))
	if err != nil {
		applog.Error("api plan failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute plan")
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	week, err := s.planner.RefreshWeek(r.Context(), s.weekParam(r))
	if err != nil {
		applog.Error("api refresh failed", err)
		writeError(w, http.StatusInternalServerError, "failed to refresh plan")
		return
	}
	s.InvalidatePlans()
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handleGoalsList(w http.ResponseWriter, _ *http.Request) {
	goals, err := s.planner.Goals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load goals")
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleGoalsUpsert(w http.ResponseWriter, r *http.Request) {
	var g model.Goal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal payload")
		return
	}
	saved, err := s.planner.UpsertGoal(g)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.InvalidatePlans()
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleBookingsList(w http.ResponseWriter, _ *http.Request) {
	templates, err := s.planner.Templates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// handleBookingsUpsert creates or updates a booking template. The layout
// engine's concurrency check gates the write: a booking that would push
// any instant past the configured limit is rejected.
func (s *Server) handleBookingsUpsert(w http.ResponseWriter, r *http.Request) {
	var tpl model.Template
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking payload")
		return
	}
	saved, err := s.planner.UpsertTemplate(r.Context(), tpl)
	if err != nil {
		if err == ErrTooManyConcurrent {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.InvalidatePlans()
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	week, err := s.cachedWeek(r.Context(), s.weekParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute layout")
		return
	}
	writeJSON(w, http.StatusOK, s.planner.LayoutWeek(week))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	week, err := s.cachedWeek(r.Context(), s.weekParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export week")
		return
	}
	goals, err := s.planner.Goals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load goals")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.ExportWeek(week.Events, week.Blocks, goals)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// joinErrors flattens a per-source error slice into one log line.
func joinErrors(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}
