// Full simulation save and load. Saves serialize a value snapshot taken
// under the simulation's own lock and are full-replace in one transaction;
// a crash mid-save leaves the previous snapshot intact.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/voidtrader/internal/empire"
	"github.com/talgya/voidtrader/internal/engine"
	"github.com/talgya/voidtrader/internal/warp"
)

const timeLayout = time.RFC3339Nano

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveState persists the complete simulation and message log (full replace).
// It works from ExportState's copy, never the live maps, so saves are safe
// against concurrent ticks and handlers.
func (db *DB) SaveState(sim *engine.Simulation, router *warp.Router) error {
	snap := sim.ExportState()
	var msgs []empire.Message
	if router != nil {
		msgs = router.All()
	}

	slog.Info("saving state",
		"empires", len(snap.Empires), "planets", len(snap.Planets),
		"projects", len(snap.Projects), "events", len(snap.Events))

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"empires", "actors", "planets", "upgrades", "projects", "events", "routes", "messages"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := saveEmpires(tx, snap.Empires); err != nil {
		return err
	}
	if err := saveActors(tx, snap.Actors); err != nil {
		return err
	}
	if err := savePlanets(tx, snap.Planets); err != nil {
		return err
	}
	if err := saveUpgrades(tx, snap.Upgrades); err != nil {
		return err
	}
	if err := saveProjects(tx, snap.Projects); err != nil {
		return err
	}
	if err := saveEvents(tx, snap.Events); err != nil {
		return err
	}
	if err := saveRoutes(tx, snap.Routes); err != nil {
		return err
	}
	if err := saveMessages(tx, msgs); err != nil {
		return err
	}

	_, err = tx.Exec("INSERT OR REPLACE INTO sim_meta (key, value) VALUES ('ticks', ?)",
		strconv.FormatUint(snap.Ticks, 10))
	if err != nil {
		return fmt.Errorf("save ticks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("state saved")
	return nil
}

func saveEmpires(tx *sqlx.Tx, empires []empire.Empire) error {
	for _, e := range empires {
		_, err := tx.Exec(`INSERT INTO empires
			(id, dynasty_name, warrant_number, total_wealth, total_industry, influence)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.DynastyName, e.WarrantNumber, e.TotalWealth, e.TotalIndustry, e.Influence)
		if err != nil {
			return fmt.Errorf("insert empire %d: %w", e.ID, err)
		}
	}
	return nil
}

func saveActors(tx *sqlx.Tx, actors []empire.Actor) error {
	for _, a := range actors {
		_, err := tx.Exec("INSERT INTO actors (id, name, role) VALUES (?, ?, ?)",
			a.ID, a.Name, string(a.Role))
		if err != nil {
			return fmt.Errorf("insert actor %d: %w", a.ID, err)
		}
	}
	return nil
}

func savePlanets(tx *sqlx.Tx, planets []empire.Planet) error {
	for _, p := range planets {
		_, err := tx.Exec(`INSERT INTO planets
			(id, name, empire_id, planet_type, loyalty, wealth, industry, resources, rebellious)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.EmpireID, string(p.Type),
			p.Loyalty, p.Wealth, p.Industry, p.Resources, boolToInt(p.Rebellious))
		if err != nil {
			return fmt.Errorf("insert planet %d: %w", p.ID, err)
		}
	}
	return nil
}

func saveUpgrades(tx *sqlx.Tx, upgrades []empire.Upgrade) error {
	for _, u := range upgrades {
		_, err := tx.Exec(`INSERT INTO upgrades
			(id, name, description, cost_wealth, cost_industry, cost_resources, suitable_type)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Name, u.Description, u.CostWealth, u.CostIndustry, u.CostResources, string(u.SuitableType))
		if err != nil {
			return fmt.Errorf("insert upgrade %d: %w", u.ID, err)
		}
	}
	return nil
}

func saveProjects(tx *sqlx.Tx, projects []empire.Project) error {
	for _, p := range projects {
		_, err := tx.Exec(`INSERT INTO projects
			(id, planet_id, upgrade_id, status, start_date, completion_date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.PlanetID, p.UpgradeID, string(p.Status),
			fmtTime(p.StartDate), fmtTimePtr(p.CompletionDate))
		if err != nil {
			return fmt.Errorf("insert project %d: %w", p.ID, err)
		}
	}
	return nil
}

func saveEvents(tx *sqlx.Tx, events []empire.Event) error {
	for _, e := range events {
		_, err := tx.Exec(`INSERT INTO events
			(id, planet_id, event_type, severity, description, resolved, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.PlanetID, string(e.Type), e.Severity, e.Description,
			boolToInt(e.Resolved), fmtTime(e.OccurredAt))
		if err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
	}
	return nil
}

func saveRoutes(tx *sqlx.Tx, routes []empire.Route) error {
	for _, r := range routes {
		_, err := tx.Exec(`INSERT INTO routes
			(id, from_planet_id, to_planet_id, navigator_id, stable)
			VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.FromPlanet, r.ToPlanet, r.NavigatorID, boolToInt(r.Stable))
		if err != nil {
			return fmt.Errorf("insert route %d: %w", r.ID, err)
		}
	}
	return nil
}

func saveMessages(tx *sqlx.Tx, msgs []empire.Message) error {
	stmt, err := tx.Preparex(`INSERT INTO messages
		(id, trace_id, sender_id, receiver_id, content, message_type, command_id,
		 payload_json, sent_at, delivered, distorted, completed, completion_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range msgs {
		var msgType *string
		if m.Type != nil {
			s := string(*m.Type)
			msgType = &s
		}
		var payloadJSON *string
		if m.Payload != nil {
			b, _ := json.Marshal(m.Payload)
			s := string(b)
			payloadJSON = &s
		}

		_, err := stmt.Exec(
			m.ID, m.TraceID, m.SenderID, m.ReceiverID, m.Content,
			msgType, m.CommandID, payloadJSON, fmtTime(m.SentAt),
			boolToInt(m.Delivered), boolToInt(m.Distorted), boolToInt(m.Completed),
			fmtTimePtr(m.CompletionDate),
		)
		if err != nil {
			return fmt.Errorf("insert message %d: %w", m.ID, err)
		}
	}
	return nil
}

// LoadState rebuilds the simulation and router contents from the last save.
// Rows are collected into a Snapshot first and applied in one ImportState
// call under the simulation's write lock.
func (db *DB) LoadState(sim *engine.Simulation, router *warp.Router) error {
	var snap engine.Snapshot
	var err error

	if snap.Empires, err = db.loadEmpires(); err != nil {
		return fmt.Errorf("load empires: %w", err)
	}
	if snap.Actors, err = db.loadActors(); err != nil {
		return fmt.Errorf("load actors: %w", err)
	}
	if snap.Planets, err = db.loadPlanets(); err != nil {
		return fmt.Errorf("load planets: %w", err)
	}
	if snap.Upgrades, err = db.loadUpgrades(); err != nil {
		return fmt.Errorf("load upgrades: %w", err)
	}
	if snap.Projects, err = db.loadProjects(); err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	if snap.Events, err = db.loadEvents(); err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	if snap.Routes, err = db.loadRoutes(); err != nil {
		return fmt.Errorf("load routes: %w", err)
	}

	ticks, err := db.GetMeta("ticks")
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("load ticks: %w", err)
	}
	if ticks != "" {
		n, err := strconv.ParseUint(ticks, 10, 64)
		if err != nil {
			return fmt.Errorf("parse ticks %q: %w", ticks, err)
		}
		snap.Ticks = n
	}

	sim.ImportState(snap)

	if router != nil {
		msgs, err := db.loadMessages()
		if err != nil {
			return fmt.Errorf("load messages: %w", err)
		}
		router.Restore(msgs)
	}

	slog.Info("state loaded",
		"empires", len(snap.Empires), "planets", len(snap.Planets), "ticks", snap.Ticks)
	return nil
}

func (db *DB) loadEmpires() ([]empire.Empire, error) {
	var rows []empire.Empire
	err := db.conn.Select(&rows, "SELECT * FROM empires")
	return rows, err
}

func (db *DB) loadActors() ([]empire.Actor, error) {
	var rows []empire.Actor
	err := db.conn.Select(&rows, "SELECT * FROM actors")
	return rows, err
}

func (db *DB) loadPlanets() ([]empire.Planet, error) {
	var rows []empire.Planet
	err := db.conn.Select(&rows, "SELECT * FROM planets")
	return rows, err
}

func (db *DB) loadUpgrades() ([]empire.Upgrade, error) {
	var rows []empire.Upgrade
	err := db.conn.Select(&rows, "SELECT * FROM upgrades")
	return rows, err
}

type projectRow struct {
	ID             uint64  `db:"id"`
	PlanetID       uint64  `db:"planet_id"`
	UpgradeID      uint64  `db:"upgrade_id"`
	Status         string  `db:"status"`
	StartDate      string  `db:"start_date"`
	CompletionDate *string `db:"completion_date"`
}

func (db *DB) loadProjects() ([]empire.Project, error) {
	var rows []projectRow
	if err := db.conn.Select(&rows, "SELECT * FROM projects"); err != nil {
		return nil, err
	}
	out := make([]empire.Project, 0, len(rows))
	for _, r := range rows {
		start, err := parseTime(r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("project %d start date: %w", r.ID, err)
		}
		done, err := parseTimePtr(r.CompletionDate)
		if err != nil {
			return nil, fmt.Errorf("project %d completion date: %w", r.ID, err)
		}
		out = append(out, empire.Project{
			ID:             r.ID,
			PlanetID:       r.PlanetID,
			UpgradeID:      r.UpgradeID,
			Status:         empire.ProjectStatus(r.Status),
			StartDate:      start,
			CompletionDate: done,
		})
	}
	return out, nil
}

type eventRow struct {
	ID          uint64 `db:"id"`
	PlanetID    uint64 `db:"planet_id"`
	EventType   string `db:"event_type"`
	Severity    int    `db:"severity"`
	Description string `db:"description"`
	Resolved    int    `db:"resolved"`
	OccurredAt  string `db:"occurred_at"`
}

func (db *DB) loadEvents() ([]empire.Event, error) {
	var rows []eventRow
	if err := db.conn.Select(&rows, "SELECT * FROM events"); err != nil {
		return nil, err
	}
	out := make([]empire.Event, 0, len(rows))
	for _, r := range rows {
		at, err := parseTime(r.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("event %d occurred at: %w", r.ID, err)
		}
		out = append(out, empire.Event{
			ID:          r.ID,
			PlanetID:    r.PlanetID,
			Type:        empire.EventType(r.EventType),
			Severity:    r.Severity,
			Description: r.Description,
			Resolved:    r.Resolved != 0,
			OccurredAt:  at,
		})
	}
	return out, nil
}

func (db *DB) loadRoutes() ([]empire.Route, error) {
	var rows []empire.Route
	err := db.conn.Select(&rows, "SELECT * FROM routes")
	return rows, err
}

type messageRow struct {
	ID             uint64  `db:"id"`
	TraceID        string  `db:"trace_id"`
	SenderID       uint64  `db:"sender_id"`
	ReceiverID     uint64  `db:"receiver_id"`
	Content        string  `db:"content"`
	MessageType    *string `db:"message_type"`
	CommandID      *uint64 `db:"command_id"`
	PayloadJSON    *string `db:"payload_json"`
	SentAt         string  `db:"sent_at"`
	Delivered      int     `db:"delivered"`
	Distorted      int     `db:"distorted"`
	Completed      int     `db:"completed"`
	CompletionDate *string `db:"completion_date"`
}

func (db *DB) loadMessages() ([]empire.Message, error) {
	var rows []messageRow
	if err := db.conn.Select(&rows, "SELECT * FROM messages ORDER BY id"); err != nil {
		return nil, err
	}

	msgs := make([]empire.Message, 0, len(rows))
	for _, r := range rows {
		sent, err := parseTime(r.SentAt)
		if err != nil {
			return nil, fmt.Errorf("message %d sent at: %w", r.ID, err)
		}
		done, err := parseTimePtr(r.CompletionDate)
		if err != nil {
			return nil, fmt.Errorf("message %d completion date: %w", r.ID, err)
		}
		var msgType *empire.MessageType
		if r.MessageType != nil {
			t := empire.MessageType(*r.MessageType)
			msgType = &t
		}
		var payload *empire.Amounts
		if r.PayloadJSON != nil {
			payload = &empire.Amounts{}
			if err := json.Unmarshal([]byte(*r.PayloadJSON), payload); err != nil {
				return nil, fmt.Errorf("message %d payload: %w", r.ID, err)
			}
		}

		msgs = append(msgs, empire.Message{
			ID:             r.ID,
			TraceID:        r.TraceID,
			SenderID:       r.SenderID,
			ReceiverID:     r.ReceiverID,
			Content:        r.Content,
			Type:           msgType,
			CommandID:      r.CommandID,
			Payload:        payload,
			SentAt:         sent,
			Delivered:      r.Delivered != 0,
			Distorted:      r.Distorted != 0,
			Completed:      r.Completed != 0,
			CompletionDate: done,
		})
	}
	return msgs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
