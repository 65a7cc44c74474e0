// Project lifecycle: upgrade construction on planets. Creation gates on
// planet/upgrade compatibility and a single atomic debit of the full cost;
// advancement is a per-tick Bernoulli trial with no guaranteed progress.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/voidtrader/internal/empire"
)

const (
	// StartChance is the per-tick probability a PLANNED project breaks ground.
	StartChance = 0.5
	// CompletionChance is the per-tick probability an IN_PROGRESS project
	// finishes.
	CompletionChance = 0.3
)

// CreateProject plans a new upgrade construction on a planet. The upgrade's
// full wealth/industry/resources cost is debited from the planet in one
// atomic step; on any failure the planet's pools are untouched. The debit
// happens once, here. Completion costs nothing further.
func (s *Simulation) CreateProject(planetID, upgradeID uint64) (*empire.Project, error) {
	s.mu.RLock()
	p, ok := s.Planets[planetID]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("planet %d: %w", planetID, empire.ErrNotFound)
	}
	u, ok := s.Upgrades[upgradeID]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("upgrade %d: %w", upgradeID, empire.ErrNotFound)
	}
	empireID := p.EmpireID
	s.mu.RUnlock()

	lock := s.lockEmpire(empireID)
	lock.Lock()
	defer lock.Unlock()

	if p.Type != u.SuitableType {
		return nil, fmt.Errorf("planet %s is %s, upgrade %q needs %s: %w",
			p.Name, p.Type, u.Name, u.SuitableType, empire.ErrIncompatibleType)
	}

	s.mu.Lock()
	if err := s.Ledger.TryDebit(p, u.Cost()); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("create project on %s: %w", p.Name, err)
	}

	s.nextProjectID++
	pr := &empire.Project{
		ID:        s.nextProjectID,
		PlanetID:  p.ID,
		UpgradeID: u.ID,
		Status:    empire.ProjectPlanned,
		StartDate: s.Clock(),
	}
	s.Projects[pr.ID] = pr
	s.mu.Unlock()

	slog.Info("project planned",
		"project", pr.ID,
		"planet", p.Name,
		"upgrade", u.Name,
		"cost_wealth", u.CostWealth,
		"cost_industry", u.CostIndustry,
		"cost_resources", u.CostResources,
	)
	return pr, nil
}

// advanceProject runs one Bernoulli trial for a project during a tick.
// Reports whether the status changed. Caller holds mu.
func (s *Simulation) advanceProject(pr *empire.Project, now time.Time) bool {
	switch pr.Status {
	case empire.ProjectPlanned:
		if s.Rand.Float64() < StartChance {
			pr.Status = empire.ProjectInProgress
			return true
		}
	case empire.ProjectInProgress:
		if s.Rand.Float64() < CompletionChance {
			pr.Status = empire.ProjectCompleted
			t := now
			pr.CompletionDate = &t
			return true
		}
	}
	return false
}

// UpdateProjectStatus sets a project's status directly (operator
// correction). Setting COMPLETED stamps the completion date if unset.
// Returns the updated record.
func (s *Simulation) UpdateProjectStatus(projectID uint64, status empire.ProjectStatus) (empire.Project, error) {
	if !status.Valid() {
		return empire.Project{}, fmt.Errorf("status %q: %w", status, empire.ErrInvalidRange)
	}

	s.mu.RLock()
	pr, ok := s.Projects[projectID]
	if !ok {
		s.mu.RUnlock()
		return empire.Project{}, fmt.Errorf("project %d: %w", projectID, empire.ErrNotFound)
	}
	p, ok := s.Planets[pr.PlanetID]
	if !ok {
		s.mu.RUnlock()
		return empire.Project{}, fmt.Errorf("planet %d: %w", pr.PlanetID, empire.ErrNotFound)
	}
	empireID := p.EmpireID
	s.mu.RUnlock()

	lock := s.lockEmpire(empireID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	pr.Status = status
	if status == empire.ProjectCompleted && pr.CompletionDate == nil {
		t := s.Clock()
		pr.CompletionDate = &t
	}
	out := *pr
	s.mu.Unlock()

	slog.Info("project status overridden", "project", out.ID, "status", status)
	return out, nil
}

// InstalledUpgrades returns the upgrades whose construction projects have
// completed on the planet.
func (s *Simulation) InstalledUpgrades(planetID uint64) ([]empire.Upgrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.Planets[planetID]; !ok {
		return nil, fmt.Errorf("planet %d: %w", planetID, empire.ErrNotFound)
	}
	var out []empire.Upgrade
	for _, pr := range s.Projects {
		if pr.PlanetID != planetID || pr.Status != empire.ProjectCompleted {
			continue
		}
		if u, ok := s.Upgrades[pr.UpgradeID]; ok {
			out = append(out, *u)
		}
	}
	sortByID(out, func(u empire.Upgrade) uint64 { return u.ID })
	return out, nil
}

// CanInstallUpgrade reports whether the planet could start the upgrade right
// now: type-compatible and affordable. It never debits.
func (s *Simulation) CanInstallUpgrade(planetID, upgradeID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.Planets[planetID]
	if !ok {
		return false, fmt.Errorf("planet %d: %w", planetID, empire.ErrNotFound)
	}
	u, ok := s.Upgrades[upgradeID]
	if !ok {
		return false, fmt.Errorf("upgrade %d: %w", upgradeID, empire.ErrNotFound)
	}
	return p.Type == u.SuitableType && p.Balance().Covers(u.Cost()), nil
}

// AllUpgrades returns the full upgrade catalogue, in id order.
func (s *Simulation) AllUpgrades() []empire.Upgrade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]empire.Upgrade, 0, len(s.Upgrades))
	for _, u := range s.Upgrades {
		out = append(out, *u)
	}
	sortByID(out, func(u empire.Upgrade) uint64 { return u.ID })
	return out
}

// UpgradesByType returns the catalogue entries suitable for a planet type.
func (s *Simulation) UpgradesByType(t empire.PlanetType) []empire.Upgrade {
	var out []empire.Upgrade
	for _, u := range s.AllUpgrades() {
		if u.SuitableType == t {
			out = append(out, u)
		}
	}
	return out
}
