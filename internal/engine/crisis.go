// Crisis resolution: one-shot HELP/IGNORE handling of planetary events.
// HELP spends dynasty resources to shore up loyalty; IGNORE lets the planet
// absorb the damage. Either way the event resolves exactly once.
package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/talgya/voidtrader/internal/empire"
)

const (
	// ActionHelp commits dynasty wealth/industry to the stricken planet.
	ActionHelp = "HELP"
	// ActionIgnore abandons the planet to the crisis.
	ActionIgnore = "IGNORE"

	// helpGainDivisor scales committed resources into loyalty: one point of
	// loyalty per 10×severity units committed, so severe crises absorb more
	// for the same gain.
	helpGainDivisor = 10.0
	// helpGainCap bounds the loyalty a single resolution can buy.
	helpGainCap = 25.0
	// ignoreLoyaltyPenalty is the loyalty lost per severity point.
	ignoreLoyaltyPenalty = 2.0
	// ignorePoolPenalty is the fraction of planet wealth/industry lost per
	// severity point.
	ignorePoolPenalty = 0.02
)

// CreateEvent records a crisis on a planet (explicit authoring; the time
// cycle generates its own). Severity 0 defaults to 5; an empty description
// gets the type template.
func (s *Simulation) CreateEvent(planetID uint64, t empire.EventType, severity int, description string) (*empire.Event, error) {
	p, err := s.PlanetByID(planetID)
	if err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("event type %q: %w", t, empire.ErrInvalidRange)
	}
	if severity == 0 {
		severity = 5
	}
	if severity < 1 || severity > 10 {
		return nil, fmt.Errorf("severity %d: %w", severity, empire.ErrInvalidRange)
	}
	if description == "" {
		description = eventDescription(t, p.Name)
	}

	s.mu.Lock()
	s.nextEventID++
	ev := &empire.Event{
		ID:          s.nextEventID,
		PlanetID:    p.ID,
		Type:        t,
		Severity:    severity,
		Description: description,
		OccurredAt:  s.Clock(),
	}
	s.Events[ev.ID] = ev
	s.mu.Unlock()

	slog.Info("event recorded", "event", ev.ID, "planet", p.Name, "type", t, "severity", severity)
	return ev, nil
}

// ResolveCrisis applies a HELP or IGNORE policy to an unresolved event and
// marks it resolved, irreversibly.
//
// HELP debits the committed wealth and industry from the owning empire's
// dynasty pools and raises the planet's loyalty by an amount monotonic in
// the commitment and diluted by severity. IGNORE ignores the supplied
// amounts entirely: the planet takes a severity-proportional loyalty penalty
// and loses a fraction of its own wealth and industry.
func (s *Simulation) ResolveCrisis(eventID uint64, action string, wealth, industry float64) error {
	action = strings.ToUpper(strings.TrimSpace(action))
	if action != ActionHelp && action != ActionIgnore {
		return fmt.Errorf("resolve event %d, action %q: %w", eventID, action, empire.ErrInvalidAction)
	}
	if wealth < 0 || industry < 0 {
		return fmt.Errorf("resolve event %d: negative commitment: %w", eventID, empire.ErrInvalidRange)
	}

	s.mu.RLock()
	ev, ok := s.Events[eventID]
	if !ok {
		s.mu.RUnlock()
		return fmt.Errorf("event %d: %w", eventID, empire.ErrNotFound)
	}
	p, ok := s.Planets[ev.PlanetID]
	if !ok {
		s.mu.RUnlock()
		return fmt.Errorf("planet %d: %w", ev.PlanetID, empire.ErrNotFound)
	}
	empireID := p.EmpireID
	emp, ok := s.Empires[empireID]
	if !ok {
		s.mu.RUnlock()
		return fmt.Errorf("empire %d: %w", empireID, empire.ErrNotFound)
	}
	s.mu.RUnlock()

	lock := s.lockEmpire(empireID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	if ev.Resolved {
		s.mu.Unlock()
		return fmt.Errorf("event %d: %w", eventID, empire.ErrAlreadyResolved)
	}

	switch action {
	case ActionHelp:
		committed := empire.Amounts{Wealth: wealth, Industry: industry}
		if !committed.IsZero() {
			if err := s.Ledger.TryDebit(emp, committed); err != nil {
				s.mu.Unlock()
				return fmt.Errorf("resolve event %d: %w", eventID, err)
			}
		}
		gain := (wealth + industry) / (helpGainDivisor * float64(ev.Severity))
		if gain > helpGainCap {
			gain = helpGainCap
		}
		p.Loyalty = clampLoyalty(p.Loyalty + gain)

	case ActionIgnore:
		p.Loyalty = clampLoyalty(p.Loyalty - ignoreLoyaltyPenalty*float64(ev.Severity))
		frac := ignorePoolPenalty * float64(ev.Severity)
		loss := empire.Amounts{Wealth: p.Wealth * frac, Industry: p.Industry * frac}
		if err := s.Ledger.TryDebit(p, loss); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("resolve event %d: %w", eventID, err)
		}
	}

	ev.Resolved = true
	tick := s.ticks
	severity := ev.Severity
	desc := ev.Description
	loyalty := p.Loyalty
	s.mu.Unlock()

	s.emit(Notice{
		Tick: tick, Kind: "crisis", At: s.Clock(),
		Description: fmt.Sprintf("crisis on %s resolved (%s): %s", p.Name, action, desc),
	})
	slog.Info("crisis resolved",
		"event", eventID,
		"planet", p.Name,
		"action", action,
		"severity", severity,
		"loyalty", fmt.Sprintf("%.1f", loyalty),
	)
	return nil
}
