// Simulation endpoints: empires, planets, upgrades, projects, events, routes.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/talgya/voidtrader/internal/empire"
)

func (s *Server) handleEmpires(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.AllEmpires())
}

// handleEmpireRoutes dispatches /api/v1/empire/:id and its sub-resources.
func (s *Server) handleEmpireRoutes(w http.ResponseWriter, r *http.Request) {
	id, sub, err := pathID(r, 4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if sub == "influence" && r.Method == http.MethodPost {
		if s.AdminKey == "" || !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Influence int `json:"influence"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		e, err := s.Sim.UpdateEmpireInfluence(id, req.Influence)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, e)
		return
	}

	switch sub {
	case "":
		e, err := s.Sim.EmpireByID(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, e)
	case "resources":
		res, err := s.Sim.EmpireResources(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, res)
	case "planets":
		if _, err := s.Sim.EmpireByID(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, s.Sim.PlanetsByEmpire(id))
	case "rebellious":
		if _, err := s.Sim.EmpireByID(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, s.Sim.RebelliousPlanets(id))
	case "routes":
		if _, err := s.Sim.EmpireByID(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, s.Sim.RoutesByEmpire(id))
	default:
		http.Error(w, "unknown resource", http.StatusNotFound)
	}
}

// handlePlanets serves GET list and POST create.
func (s *Server) handlePlanets(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			EmpireID  uint64  `json:"empire_id"`
			Name      string  `json:"name"`
			Type      string  `json:"planet_type"`
			Loyalty   float64 `json:"loyalty"`
			Wealth    float64 `json:"wealth"`
			Industry  float64 `json:"industry"`
			Resources float64 `json:"resources"`
		}
		req.Loyalty = -1 // absent → default
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		p, err := s.Sim.CreatePlanet(req.EmpireID, req.Name, empire.PlanetType(req.Type), req.Loyalty,
			empire.Amounts{Wealth: req.Wealth, Industry: req.Industry, Resources: req.Resources})
		if err != nil {
			writeError(w, err)
			return
		}
		created, err := s.Sim.PlanetByID(p.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, created)
		return
	}

	if e := r.URL.Query().Get("empire"); e != "" {
		id, err := strconv.ParseUint(e, 10, 64)
		if err != nil {
			http.Error(w, "invalid empire id", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.Sim.PlanetsByEmpire(id))
		return
	}
	writeJSON(w, s.Sim.AllPlanets())
}

// handlePlanetRoutes dispatches /api/v1/planet/:id and its sub-resources.
func (s *Server) handlePlanetRoutes(w http.ResponseWriter, r *http.Request) {
	id, sub, err := pathID(r, 4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodPost {
		switch sub {
		case "loyalty":
			var req struct {
				Loyalty float64 `json:"loyalty"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			p, err := s.Sim.UpdatePlanetLoyalty(id, req.Loyalty)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, p)
		case "pacify":
			p, err := s.Sim.ClearRebellion(id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, p)
		default:
			http.Error(w, "unknown action", http.StatusNotFound)
		}
		return
	}

	switch sub {
	case "":
		p, err := s.Sim.PlanetByID(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, p)
	case "projects":
		if _, err := s.Sim.PlanetByID(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, s.Sim.ProjectsByPlanet(id))
	case "events":
		if _, err := s.Sim.PlanetByID(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, s.Sim.EventsByPlanet(id))
	case "active-events":
		if _, err := s.Sim.PlanetByID(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, s.Sim.ActiveEvents(id))
	case "installed":
		ups, err := s.Sim.InstalledUpgrades(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, ups)
	case "can-install":
		u := r.URL.Query().Get("upgrade")
		upgradeID, err := strconv.ParseUint(u, 10, 64)
		if err != nil {
			http.Error(w, "invalid upgrade id", http.StatusBadRequest)
			return
		}
		ok, err := s.Sim.CanInstallUpgrade(id, upgradeID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]bool{"can_install": ok})
	default:
		http.Error(w, "unknown resource", http.StatusNotFound)
	}
}

func (s *Server) handleUpgrades(w http.ResponseWriter, r *http.Request) {
	if t := r.URL.Query().Get("type"); t != "" {
		pt := empire.PlanetType(t)
		if !pt.Valid() {
			http.Error(w, "unknown planet type", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.Sim.UpgradesByType(pt))
		return
	}
	writeJSON(w, s.Sim.AllUpgrades())
}

func (s *Server) handleUpgradeDetail(w http.ResponseWriter, r *http.Request) {
	id, _, err := pathID(r, 4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	u, err := s.Sim.UpgradeByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, u)
}

// handleProjects serves POST create.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		PlanetID  uint64 `json:"planet_id"`
		UpgradeID uint64 `json:"upgrade_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	pr, err := s.Sim.CreateProject(req.PlanetID, req.UpgradeID)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.Sim.ProjectByID(pr.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, created)
}

// handleProjectRoutes dispatches /api/v1/project/:id and /status.
func (s *Server) handleProjectRoutes(w http.ResponseWriter, r *http.Request) {
	id, sub, err := pathID(r, 4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if sub == "status" && r.Method == http.MethodPost {
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		pr, err := s.Sim.UpdateProjectStatus(id, empire.ProjectStatus(req.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, pr)
		return
	}

	pr, err := s.Sim.ProjectByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, pr)
}

// handleEvents serves POST create.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		PlanetID    uint64 `json:"planet_id"`
		Type        string `json:"event_type"`
		Severity    int    `json:"severity"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	ev, err := s.Sim.CreateEvent(req.PlanetID, empire.EventType(req.Type), req.Severity, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.Sim.EventByID(ev.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, created)
}

// handleEventRoutes dispatches /api/v1/event/:id and /resolve.
func (s *Server) handleEventRoutes(w http.ResponseWriter, r *http.Request) {
	id, sub, err := pathID(r, 4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if sub == "resolve" && r.Method == http.MethodPost {
		var req struct {
			Action   string  `json:"action"`
			Wealth   float64 `json:"wealth"`
			Industry float64 `json:"industry"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.Sim.ResolveCrisis(id, req.Action, req.Wealth, req.Industry); err != nil {
			writeError(w, err)
			return
		}
		ev, err := s.Sim.EventByID(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, ev)
		return
	}

	ev, err := s.Sim.EventByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, ev)
}

// handleRoutes serves GET list and POST create for warp lanes.
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			FromPlanetID uint64 `json:"from_planet_id"`
			ToPlanetID   uint64 `json:"to_planet_id"`
			NavigatorID  uint64 `json:"navigator_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		route, err := s.Sim.CreateRoute(req.FromPlanetID, req.ToPlanetID, req.NavigatorID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, route)
		return
	}

	if n := r.URL.Query().Get("navigator"); n != "" {
		id, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			http.Error(w, "invalid navigator id", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.Sim.RoutesByNavigator(id))
		return
	}
	http.Error(w, "navigator query parameter required", http.StatusBadRequest)
}

// handleRouteDetail dispatches /api/v1/route/:id and /stability.
func (s *Server) handleRouteDetail(w http.ResponseWriter, r *http.Request) {
	id, sub, err := pathID(r, 4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if sub == "stability" {
		stable, err := s.Sim.RouteStability(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]bool{"stable": stable})
		return
	}

	route, err := s.Sim.RouteByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, route)
}
