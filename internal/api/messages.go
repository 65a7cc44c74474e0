// Actor and warp message endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/talgya/voidtrader/internal/empire"
	"github.com/talgya/voidtrader/internal/warp"
)

// handleActors serves GET list and POST create.
func (s *Server) handleActors(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Name string `json:"name"`
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		role := empire.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
		switch role {
		case empire.RoleTrader, empire.RoleGovernor, empire.RoleNavigator, empire.RoleAstropath:
		default:
			http.Error(w, "unknown role", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.Sim.AddActor(req.Name, role))
		return
	}
	writeJSON(w, s.Sim.AllActors())
}

// handleActorRoutes dispatches /api/v1/actor/:id and its message partitions.
func (s *Server) handleActorRoutes(w http.ResponseWriter, r *http.Request) {
	id, sub, err := pathID(r, 4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.Sim.ActorByID(id); err != nil {
		writeError(w, err)
		return
	}

	switch sub {
	case "":
		a, _ := s.Sim.ActorByID(id)
		writeJSON(w, a)
	case "messages":
		writeJSON(w, s.Router.ForActor(id))
	case "commands":
		writeJSON(w, s.Router.CommandsFor(id))
	case "notes":
		writeJSON(w, s.Router.NotesFor(id))
	case "pending":
		writeJSON(w, s.Router.PendingFrom(id))
	case "delivered":
		writeJSON(w, s.Router.DeliveredFrom(id))
	case "pending-commands":
		writeJSON(w, s.Router.PendingCommandsFrom(id))
	case "completed-commands":
		writeJSON(w, s.Router.CompletedCommandsFrom(id))
	case "routes":
		writeJSON(w, s.Sim.RoutesByNavigator(id))
	default:
		http.Error(w, "unknown resource", http.StatusNotFound)
	}
}

// handleMessages serves POST send.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SenderID         uint64          `json:"sender_id"`
		ReceiverID       uint64          `json:"receiver_id"`
		Content          string          `json:"content"`
		Type             *string         `json:"message_type"`
		CommandID        *uint64         `json:"command_id"`
		Payload          *empire.Amounts `json:"payload"`
		DistortionChance *float64        `json:"distortion_chance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	opts := warp.SendOptions{
		CommandID:        req.CommandID,
		Payload:          req.Payload,
		DistortionChance: req.DistortionChance,
	}
	if req.Type != nil {
		t := empire.MessageType(*req.Type)
		opts.Type = &t
	}

	m, err := s.Router.Send(req.SenderID, req.ReceiverID, req.Content, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, m)
}

// handleMessageRoutes dispatches /api/v1/message/:id and its transitions.
func (s *Server) handleMessageRoutes(w http.ResponseWriter, r *http.Request) {
	id, sub, err := pathID(r, 4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodPost {
		switch sub {
		case "deliver":
			m, err := s.Router.Deliver(id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, m)
		case "complete":
			m, err := s.Router.MarkCompleted(id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, m)
		case "forward":
			var req struct {
				RelayID    uint64 `json:"relay_id"`
				ReceiverID uint64 `json:"receiver_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			m, err := s.Router.Forward(req.RelayID, id, req.ReceiverID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, m)
		default:
			http.Error(w, "unknown action", http.StatusNotFound)
		}
		return
	}

	m, err := s.Router.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, m)
}

// handleTrace returns every hop of a command's trace.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing trace id", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Router.Trace(parts[4]))
}
