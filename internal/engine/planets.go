// Planet and empire management: creation, loyalty/influence adjustment,
// and dynasty-wide resource summaries.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/voidtrader/internal/empire"
)

// EmpireResources aggregates an empire's holdings: dynasty pools plus the
// sums across its planets.
type EmpireResources struct {
	TotalWealth    float64 `json:"total_wealth"`
	TotalIndustry  float64 `json:"total_industry"`
	TotalResources float64 `json:"total_resources"`
	PlanetCount    int     `json:"planet_count"`
}

// CreatePlanet founds a planet for an empire. Loyalty defaults to 50 when
// negative is passed; pools default to zero. The planet belongs to this
// empire for its lifetime.
func (s *Simulation) CreatePlanet(empireID uint64, name string, t empire.PlanetType, loyalty float64, pools empire.Amounts) (*empire.Planet, error) {
	if _, err := s.EmpireByID(empireID); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("planet type %q: %w", t, empire.ErrInvalidRange)
	}
	if loyalty < 0 {
		loyalty = 50
	}
	if loyalty > 100 {
		return nil, fmt.Errorf("loyalty %.1f: %w", loyalty, empire.ErrInvalidRange)
	}
	if pools.Negative() {
		return nil, fmt.Errorf("starting pools negative: %w", empire.ErrInvalidRange)
	}

	s.mu.Lock()
	s.nextPlanetID++
	p := &empire.Planet{
		ID:        s.nextPlanetID,
		Name:      name,
		EmpireID:  empireID,
		Type:      t,
		Loyalty:   loyalty,
		Wealth:    pools.Wealth,
		Industry:  pools.Industry,
		Resources: pools.Resources,
	}
	s.Planets[p.ID] = p
	s.mu.Unlock()

	slog.Info("planet founded", "planet", p.ID, "name", name, "type", t, "empire", empireID)
	return p, nil
}

// UpdatePlanetLoyalty sets a planet's loyalty directly (operator action).
// Returns the updated record.
func (s *Simulation) UpdatePlanetLoyalty(planetID uint64, loyalty float64) (empire.Planet, error) {
	if loyalty < 0 || loyalty > 100 {
		return empire.Planet{}, fmt.Errorf("loyalty %.1f: %w", loyalty, empire.ErrInvalidRange)
	}
	s.mu.RLock()
	p, ok := s.Planets[planetID]
	if !ok {
		s.mu.RUnlock()
		return empire.Planet{}, fmt.Errorf("planet %d: %w", planetID, empire.ErrNotFound)
	}
	empireID := p.EmpireID
	s.mu.RUnlock()

	lock := s.lockEmpire(empireID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	p.Loyalty = loyalty
	out := *p
	s.mu.Unlock()
	return out, nil
}

// ClearRebellion lifts a planet's rebellious flag. The simulation itself
// never does this; it is strictly an external operator action.
func (s *Simulation) ClearRebellion(planetID uint64) (empire.Planet, error) {
	s.mu.RLock()
	p, ok := s.Planets[planetID]
	if !ok {
		s.mu.RUnlock()
		return empire.Planet{}, fmt.Errorf("planet %d: %w", planetID, empire.ErrNotFound)
	}
	empireID := p.EmpireID
	s.mu.RUnlock()

	lock := s.lockEmpire(empireID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	was := p.Rebellious
	p.Rebellious = false
	out := *p
	s.mu.Unlock()

	if was {
		slog.Info("rebellion pacified", "planet", out.Name)
	}
	return out, nil
}

// UpdateEmpireInfluence sets an empire's influence, bounded to [0, 100].
// Returns the updated record.
func (s *Simulation) UpdateEmpireInfluence(empireID uint64, influence int) (empire.Empire, error) {
	if influence < 0 || influence > 100 {
		return empire.Empire{}, fmt.Errorf("influence %d: %w", influence, empire.ErrInvalidRange)
	}
	s.mu.RLock()
	e, ok := s.Empires[empireID]
	if !ok {
		s.mu.RUnlock()
		return empire.Empire{}, fmt.Errorf("empire %d: %w", empireID, empire.ErrNotFound)
	}
	s.mu.RUnlock()

	lock := s.lockEmpire(empireID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	e.Influence = influence
	out := *e
	s.mu.Unlock()
	return out, nil
}

// EmpireResources totals the empire's dynasty pools and planetary holdings
// in one consistent read.
func (s *Simulation) EmpireResources(empireID uint64) (EmpireResources, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.Empires[empireID]
	if !ok {
		return EmpireResources{}, fmt.Errorf("empire %d: %w", empireID, empire.ErrNotFound)
	}

	res := EmpireResources{
		TotalWealth:   e.TotalWealth,
		TotalIndustry: e.TotalIndustry,
	}
	for _, p := range s.planetsByEmpireLocked(empireID) {
		res.TotalWealth += p.Wealth
		res.TotalIndustry += p.Industry
		res.TotalResources += p.Resources
		res.PlanetCount++
	}
	return res, nil
}
