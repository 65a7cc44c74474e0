// Time cycle: the per-empire simulation tick. Five sub-steps run in a
// fixed order; later steps observe the state produced by earlier ones. The
// tick commits atomically: any failure restores the empire to its pre-tick
// state, so no planet is ever left taxed while another is not.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/voidtrader/internal/empire"
)

const (
	// TaxRate is the share of a loyal planet's wealth collected per tick.
	TaxRate = 0.10
	// EventChanceScale caps the per-planet event probability: a planet at
	// zero loyalty rolls at 0.3 per tick.
	EventChanceScale = 0.3
	// RebellionThreshold is the loyalty floor below which a planet rises up.
	RebellionThreshold = 30.0
	// RebellionSeverity is the severity of the insurrection recorded when a
	// planet turns rebellious.
	RebellionSeverity = 8
)

// AdvanceTimeCycle runs one tick for the empire: tax collection, project
// advancement, event generation, loyalty drift, and the rebellion check, in
// that order. The whole mutation phase runs under the state lock, so
// observers never see a half-taxed empire.
func (s *Simulation) AdvanceTimeCycle(empireID uint64) error {
	lock := s.lockEmpire(empireID)
	lock.Lock()
	defer lock.Unlock()

	now := s.Clock()

	s.mu.Lock()
	emp, ok := s.Empires[empireID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("empire %d: %w", empireID, empire.ErrNotFound)
	}
	planets := s.planetsByEmpireLocked(empireID)
	projects := s.projectsForPlanetsLocked(planets)
	planetByID := make(map[uint64]*empire.Planet, len(planets))
	for _, p := range planets {
		planetByID[p.ID] = p
	}

	snap := snapshotEmpire(emp, planets, projects)

	if err := validatePreTick(emp, planets); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("tick empire %d: %w", empireID, err)
	}

	var pending []empire.Event
	var notices []Notice
	tick := s.ticks + 1

	run := func() error {
		// 1. Tax collection. Rebellious planets contribute nothing and are
		// not debited.
		for _, p := range planets {
			if p.Rebellious {
				continue
			}
			tax := p.Wealth * TaxRate
			if tax == 0 {
				continue
			}
			if err := s.Ledger.Transfer(p, emp, empire.Amounts{Wealth: tax}); err != nil {
				return fmt.Errorf("tax %s: %w", p.Name, err)
			}
			notices = append(notices, Notice{
				Tick: tick, Kind: "tax", At: now,
				Description: fmt.Sprintf("%s tithes %.1f to the %s dynasty", p.Name, tax, emp.DynastyName),
			})
		}

		// 2. Project advancement.
		for _, pr := range projects {
			advanced := s.advanceProject(pr, now)
			if advanced {
				planet := planetByID[pr.PlanetID]
				notices = append(notices, Notice{
					Tick: tick, Kind: "project", At: now,
					Description: fmt.Sprintf("project %d on %s is now %s", pr.ID, planet.Name, pr.Status),
				})
			}
		}

		// 3. Event generation. Low loyalty breeds trouble.
		for _, p := range planets {
			chance := (100 - p.Loyalty) / 100 * EventChanceScale
			if s.Rand.Float64() >= chance {
				continue
			}
			ev := s.rollEvent(p, now)
			pending = append(pending, ev)
			notices = append(notices, Notice{
				Tick: tick, Kind: "event", At: now, Description: ev.Description,
			})
		}

		// 4. Loyalty drift: uniform integer in [−2, +2], clamped to [0, 100].
		for _, p := range planets {
			delta := float64(s.Rand.IntN(5) - 2)
			p.Loyalty = clampLoyalty(p.Loyalty + delta)
		}

		// 5. Rebellion check. The insurrection event is unconditional and
		// independent of step 3's roll. Rebellion never self-clears.
		for _, p := range planets {
			if p.Rebellious || p.Loyalty >= RebellionThreshold {
				continue
			}
			p.Rebellious = true
			ev := empire.Event{
				PlanetID:    p.ID,
				Type:        empire.EventInsurrection,
				Severity:    RebellionSeverity,
				Description: eventDescription(empire.EventInsurrection, p.Name),
				OccurredAt:  now,
			}
			pending = append(pending, ev)
			notices = append(notices, Notice{
				Tick: tick, Kind: "rebellion", At: now,
				Description: fmt.Sprintf("%s has risen in open rebellion", p.Name),
			})
		}
		return nil
	}

	if err := run(); err != nil {
		s.restoreEmpireLocked(snap)
		s.mu.Unlock()
		return fmt.Errorf("tick empire %d rolled back: %w", empireID, err)
	}

	// Commit: assign event ids and publish.
	for i := range pending {
		s.nextEventID++
		pending[i].ID = s.nextEventID
		ev := pending[i]
		s.Events[ev.ID] = &ev
	}
	s.ticks++
	treasury := emp.TotalWealth
	s.mu.Unlock()

	for _, n := range notices {
		s.emit(n)
	}

	slog.Info("time cycle complete",
		"empire", empireID,
		"tick", tick,
		"planets", len(planets),
		"projects", len(projects),
		"new_events", len(pending),
		"treasury", fmt.Sprintf("%.1f", treasury),
	)
	return nil
}

// rollEvent draws a uniformly random event for the planet: type over the
// four kinds, severity over [1, 10].
func (s *Simulation) rollEvent(p *empire.Planet, now time.Time) empire.Event {
	t := empire.EventTypes[s.Rand.IntN(len(empire.EventTypes))]
	return empire.Event{
		PlanetID:    p.ID,
		Type:        t,
		Severity:    s.Rand.IntN(10) + 1,
		Description: eventDescription(t, p.Name),
		OccurredAt:  now,
	}
}

// projectsForPlanetsLocked gathers the advanceable projects on the given
// planets, in id order. Caller holds mu.
func (s *Simulation) projectsForPlanetsLocked(planets []*empire.Planet) []*empire.Project {
	ids := make(map[uint64]bool, len(planets))
	for _, p := range planets {
		ids[p.ID] = true
	}
	var out []*empire.Project
	for _, pr := range s.Projects {
		if ids[pr.PlanetID] && pr.Status != empire.ProjectCompleted {
			out = append(out, pr)
		}
	}
	sortByID(out, func(pr *empire.Project) uint64 { return pr.ID })
	return out
}

// validatePreTick rejects a tick against corrupted state rather than
// propagating it: loyalty and influence must sit in [0, 100] and no pool may
// be negative.
func validatePreTick(emp *empire.Empire, planets []*empire.Planet) error {
	if emp.Influence < 0 || emp.Influence > 100 {
		return fmt.Errorf("empire influence %d: %w", emp.Influence, empire.ErrInvalidRange)
	}
	if emp.Balance().Negative() {
		return fmt.Errorf("empire treasury negative: %w", empire.ErrInvalidRange)
	}
	for _, p := range planets {
		if p.Loyalty < 0 || p.Loyalty > 100 {
			return fmt.Errorf("planet %s loyalty %.1f: %w", p.Name, p.Loyalty, empire.ErrInvalidRange)
		}
		if p.Balance().Negative() {
			return fmt.Errorf("planet %s pools negative: %w", p.Name, empire.ErrInvalidRange)
		}
	}
	return nil
}

func clampLoyalty(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// eventDescription renders the type-specific crisis template.
func eventDescription(t empire.EventType, planetName string) string {
	switch t {
	case empire.EventInsurrection:
		return fmt.Sprintf("Insurrection on %s! The population demands change.", planetName)
	case empire.EventNaturalDisaster:
		return fmt.Sprintf("Natural disaster on %s! Aid is required.", planetName)
	case empire.EventEconomicCrisis:
		return fmt.Sprintf("Economic crisis on %s! Trade has ground to a halt.", planetName)
	case empire.EventExternalThreat:
		return fmt.Sprintf("External threat to %s! Defenses are needed.", planetName)
	}
	return fmt.Sprintf("Unrest on %s.", planetName)
}

// ── Tick snapshot / rollback ─────────────────────────────────────────

type empireSnapshot struct {
	empire   empire.Empire
	planets  map[uint64]empire.Planet
	projects map[uint64]empire.Project
}

func snapshotEmpire(emp *empire.Empire, planets []*empire.Planet, projects []*empire.Project) empireSnapshot {
	snap := empireSnapshot{
		empire:   *emp,
		planets:  make(map[uint64]empire.Planet, len(planets)),
		projects: make(map[uint64]empire.Project, len(projects)),
	}
	for _, p := range planets {
		snap.planets[p.ID] = *p
	}
	for _, pr := range projects {
		snap.projects[pr.ID] = *pr
	}
	return snap
}

// restoreEmpireLocked writes snapshot values back through the live pointers,
// so every existing reference observes the rolled-back state. Caller holds mu.
func (s *Simulation) restoreEmpireLocked(snap empireSnapshot) {
	if live, ok := s.Empires[snap.empire.ID]; ok {
		*live = snap.empire
	}
	for id, val := range snap.planets {
		if live, ok := s.Planets[id]; ok {
			*live = val
		}
	}
	for id, val := range snap.projects {
		if live, ok := s.Projects[id]; ok {
			*live = val
		}
	}
}
