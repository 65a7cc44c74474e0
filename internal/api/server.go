// Package api provides the HTTP API for the empire simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/voidtrader/internal/empire"
	"github.com/talgya/voidtrader/internal/engine"
	"github.com/talgya/voidtrader/internal/store"
	"github.com/talgya/voidtrader/internal/warp"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Router   *warp.Router
	DB       *store.DB
	Hub      *Hub
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only; anyone can observe the sector).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/empires", s.handleEmpires)
	mux.HandleFunc("/api/v1/empire/", s.handleEmpireRoutes)
	mux.HandleFunc("/api/v1/upgrades", s.handleUpgrades)
	mux.HandleFunc("/api/v1/upgrade/", s.handleUpgradeDetail)
	mux.HandleFunc("/api/v1/actors", s.adminOnly(s.handleActors))
	mux.HandleFunc("/api/v1/actor/", s.handleActorRoutes)
	mux.HandleFunc("/api/v1/notices", s.handleNotices)
	mux.HandleFunc("/api/v1/trace/", s.handleTrace)

	// Websocket event feed.
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Mixed endpoints: GET public, POST admin.
	mux.HandleFunc("/api/v1/planets", s.adminOnly(s.handlePlanets))
	mux.HandleFunc("/api/v1/planet/", s.adminOnly(s.handlePlanetRoutes))
	mux.HandleFunc("/api/v1/projects", s.adminOnly(s.handleProjects))
	mux.HandleFunc("/api/v1/project/", s.adminOnly(s.handleProjectRoutes))
	mux.HandleFunc("/api/v1/events", s.adminOnly(s.handleEvents))
	mux.HandleFunc("/api/v1/event/", s.adminOnly(s.handleEventRoutes))
	mux.HandleFunc("/api/v1/routes", s.adminOnly(s.handleRoutes))
	mux.HandleFunc("/api/v1/route/", s.handleRouteDetail)
	mux.HandleFunc("/api/v1/messages", s.adminOnly(s.handleMessages))
	mux.HandleFunc("/api/v1/message/", s.adminOnly(s.handleMessageRoutes))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/tick", s.adminOnly(s.handleTick))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no VOIDTRADER_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c := s.Sim.Counts()
	writeJSON(w, map[string]any{
		"name":     "Void Trader",
		"ticks":    c.Ticks,
		"empires":  c.Empires,
		"planets":  c.Planets,
		"projects": c.Projects,
		"events":   c.Events,
		"actors":   c.Actors,
		"routes":   c.Routes,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	if err := s.DB.SaveState(s.Sim, s.Router); err != nil {
		slog.Error("snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved": true, "ticks": s.Sim.Ticks()})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		EmpireID uint64 `json:"empire_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Sim.AdvanceTimeCycle(req.EmpireID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"empire_id": req.EmpireID, "ticks": s.Sim.Ticks()})
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	writeJSON(w, s.Sim.Notices(limit))
}

// pathID extracts the numeric id at segment position idx of the URL path.
// For /api/v1/planet/:id, the id sits at index 4.
func pathID(r *http.Request, idx int) (uint64, string, error) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) <= idx {
		return 0, "", fmt.Errorf("missing id")
	}
	id, err := strconv.ParseUint(parts[idx], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid id %q", parts[idx])
	}
	sub := ""
	if len(parts) > idx+1 {
		sub = parts[idx+1]
	}
	return id, sub, nil
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, empire.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, empire.ErrInvalidRange),
		errors.Is(err, empire.ErrInvalidAction),
		errors.Is(err, empire.ErrIncompatibleType):
		status = http.StatusBadRequest
	case errors.Is(err, empire.ErrInsufficientResources),
		errors.Is(err, empire.ErrAlreadyResolved):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
