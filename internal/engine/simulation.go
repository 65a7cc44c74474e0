// Simulation ties the empire entities together and hosts the engines that
// mutate them: the time cycle, project lifecycle, and crisis resolution.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/talgya/voidtrader/internal/empire"
	"github.com/talgya/voidtrader/internal/entropy"
	"github.com/talgya/voidtrader/internal/ledger"
)

// Notice is a notable simulation occurrence, fed to observers (log, websocket).
type Notice struct {
	Tick        uint64    `json:"tick"`
	Kind        string    `json:"kind"` // "tax", "project", "event", "rebellion", "crisis"
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// Simulation holds the complete game state and wires the engines together.
//
// Locking: mu guards every entity map and every entity field. Mutators hold
// mu for writing; exported queries copy values out under a read lock, so no
// caller ever shares entity memory with a running tick. On top of that,
// empireMu serializes whole operations per empire, keeping multi-step
// sequences (check funds, debit, record) from interleaving on the same
// empire. Lock order is always empireMu, then mu, then ledger locks.
type Simulation struct {
	mu sync.RWMutex

	Empires  map[uint64]*empire.Empire
	Planets  map[uint64]*empire.Planet
	Upgrades map[uint64]*empire.Upgrade
	Projects map[uint64]*empire.Project
	Events   map[uint64]*empire.Event
	Actors   map[uint64]*empire.Actor
	Routes   map[uint64]*empire.Route

	Ledger *ledger.Ledger
	Rand   entropy.Source
	Clock  func() time.Time

	// OnNotice, when set, receives every emitted notice. Called outside the
	// state lock.
	OnNotice func(Notice)

	notices []Notice
	ticks   uint64

	empireMu map[uint64]*sync.Mutex

	nextEmpireID  uint64
	nextPlanetID  uint64
	nextProjectID uint64
	nextEventID   uint64
	nextActorID   uint64
	nextRouteID   uint64
	nextUpgradeID uint64
}

// NewSimulation creates an empty simulation with the given randomness source.
func NewSimulation(src entropy.Source) *Simulation {
	return &Simulation{
		Empires:  make(map[uint64]*empire.Empire),
		Planets:  make(map[uint64]*empire.Planet),
		Upgrades: make(map[uint64]*empire.Upgrade),
		Projects: make(map[uint64]*empire.Project),
		Events:   make(map[uint64]*empire.Event),
		Actors:   make(map[uint64]*empire.Actor),
		Routes:   make(map[uint64]*empire.Route),
		Ledger:   ledger.New(),
		Rand:     src,
		Clock:    time.Now,
		empireMu: make(map[uint64]*sync.Mutex),
	}
}

// Ticks returns the number of completed time cycles across all empires.
func (s *Simulation) Ticks() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

// Counts is a point-in-time census of the simulation.
type Counts struct {
	Ticks    uint64 `json:"ticks"`
	Empires  int    `json:"empires"`
	Planets  int    `json:"planets"`
	Projects int    `json:"projects"`
	Events   int    `json:"events"`
	Actors   int    `json:"actors"`
	Routes   int    `json:"routes"`
}

// Counts reports entity totals under a single state lock.
func (s *Simulation) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Ticks:    s.ticks,
		Empires:  len(s.Empires),
		Planets:  len(s.Planets),
		Projects: len(s.Projects),
		Events:   len(s.Events),
		Actors:   len(s.Actors),
		Routes:   len(s.Routes),
	}
}

// Notices returns up to limit recent notices, oldest first.
func (s *Simulation) Notices(limit int) []Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.notices) > limit {
		start = len(s.notices) - limit
	}
	out := make([]Notice, len(s.notices)-start)
	copy(out, s.notices[start:])
	return out
}

func (s *Simulation) emit(n Notice) {
	s.mu.Lock()
	s.notices = append(s.notices, n)
	// Trim old notices to prevent unbounded growth (keep last 1000).
	if len(s.notices) > 1000 {
		s.notices = s.notices[len(s.notices)-1000:]
	}
	cb := s.OnNotice
	s.mu.Unlock()

	if cb != nil {
		cb(n)
	}
}

// lockEmpire returns the per-empire write lock, creating it on first use.
func (s *Simulation) lockEmpire(id uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.empireMu[id]
	if !ok {
		m = &sync.Mutex{}
		s.empireMu[id] = m
	}
	return m
}

// ── Lookups ──────────────────────────────────────────────────────────
//
// Every lookup returns a value copy made under the read lock; callers never
// receive a pointer into live state.

// EmpireByID returns a copy of the empire or ErrNotFound.
func (s *Simulation) EmpireByID(id uint64) (empire.Empire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.Empires[id]
	if !ok {
		return empire.Empire{}, fmt.Errorf("empire %d: %w", id, empire.ErrNotFound)
	}
	return *e, nil
}

// PlanetByID returns a copy of the planet or ErrNotFound.
func (s *Simulation) PlanetByID(id uint64) (empire.Planet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.Planets[id]
	if !ok {
		return empire.Planet{}, fmt.Errorf("planet %d: %w", id, empire.ErrNotFound)
	}
	return *p, nil
}

// UpgradeByID returns a copy of the upgrade or ErrNotFound.
func (s *Simulation) UpgradeByID(id uint64) (empire.Upgrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.Upgrades[id]
	if !ok {
		return empire.Upgrade{}, fmt.Errorf("upgrade %d: %w", id, empire.ErrNotFound)
	}
	return *u, nil
}

// ProjectByID returns a copy of the project or ErrNotFound.
func (s *Simulation) ProjectByID(id uint64) (empire.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.Projects[id]
	if !ok {
		return empire.Project{}, fmt.Errorf("project %d: %w", id, empire.ErrNotFound)
	}
	return *p, nil
}

// EventByID returns a copy of the event or ErrNotFound.
func (s *Simulation) EventByID(id uint64) (empire.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.Events[id]
	if !ok {
		return empire.Event{}, fmt.Errorf("event %d: %w", id, empire.ErrNotFound)
	}
	return *e, nil
}

// ActorByID returns a copy of the actor or ErrNotFound.
func (s *Simulation) ActorByID(id uint64) (empire.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.Actors[id]
	if !ok {
		return empire.Actor{}, fmt.Errorf("actor %d: %w", id, empire.ErrNotFound)
	}
	return *a, nil
}

// RouteByID returns a copy of the route or ErrNotFound.
func (s *Simulation) RouteByID(id uint64) (empire.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.Routes[id]
	if !ok {
		return empire.Route{}, fmt.Errorf("route %d: %w", id, empire.ErrNotFound)
	}
	return *r, nil
}

// ActorExists reports whether an actor with the given id is registered.
// Satisfies the warp router's directory interface.
func (s *Simulation) ActorExists(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.Actors[id]
	return ok
}

// ── Filtered lists ───────────────────────────────────────────────────

// PlanetsByEmpire returns copies of every planet owned by the empire, in id
// order.
func (s *Simulation) PlanetsByEmpire(empireID uint64) []empire.Planet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []empire.Planet
	for _, p := range s.planetsByEmpireLocked(empireID) {
		out = append(out, *p)
	}
	return out
}

// planetsByEmpireLocked returns the live planet records for an empire, in id
// order. Caller holds mu.
func (s *Simulation) planetsByEmpireLocked(empireID uint64) []*empire.Planet {
	var out []*empire.Planet
	for _, p := range s.Planets {
		if p.EmpireID == empireID {
			out = append(out, p)
		}
	}
	sortByID(out, func(p *empire.Planet) uint64 { return p.ID })
	return out
}

// RebelliousPlanets returns the empire's planets currently in rebellion.
func (s *Simulation) RebelliousPlanets(empireID uint64) []empire.Planet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []empire.Planet
	for _, p := range s.planetsByEmpireLocked(empireID) {
		if p.Rebellious {
			out = append(out, *p)
		}
	}
	return out
}

// ProjectsByPlanet returns copies of every project on the planet, in id order.
func (s *Simulation) ProjectsByPlanet(planetID uint64) []empire.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []empire.Project
	for _, p := range s.Projects {
		if p.PlanetID == planetID {
			out = append(out, *p)
		}
	}
	sortByID(out, func(p empire.Project) uint64 { return p.ID })
	return out
}

// EventsByPlanet returns copies of every event recorded for the planet, in id
// order.
func (s *Simulation) EventsByPlanet(planetID uint64) []empire.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []empire.Event
	for _, e := range s.Events {
		if e.PlanetID == planetID {
			out = append(out, *e)
		}
	}
	sortByID(out, func(e empire.Event) uint64 { return e.ID })
	return out
}

// ActiveEvents returns the planet's unresolved events, in id order.
func (s *Simulation) ActiveEvents(planetID uint64) []empire.Event {
	var out []empire.Event
	for _, e := range s.EventsByPlanet(planetID) {
		if !e.Resolved {
			out = append(out, e)
		}
	}
	return out
}

// RoutesByNavigator returns every route charted by the navigator.
func (s *Simulation) RoutesByNavigator(navigatorID uint64) []empire.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []empire.Route
	for _, r := range s.Routes {
		if r.NavigatorID == navigatorID {
			out = append(out, *r)
		}
	}
	sortByID(out, func(r empire.Route) uint64 { return r.ID })
	return out
}

// AllEmpires returns copies of every empire, in id order.
func (s *Simulation) AllEmpires() []empire.Empire {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]empire.Empire, 0, len(s.Empires))
	for _, e := range s.Empires {
		out = append(out, *e)
	}
	sortByID(out, func(e empire.Empire) uint64 { return e.ID })
	return out
}

// AllPlanets returns copies of every planet, in id order.
func (s *Simulation) AllPlanets() []empire.Planet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]empire.Planet, 0, len(s.Planets))
	for _, p := range s.Planets {
		out = append(out, *p)
	}
	sortByID(out, func(p empire.Planet) uint64 { return p.ID })
	return out
}

// AllActors returns copies of every actor, in id order.
func (s *Simulation) AllActors() []empire.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]empire.Actor, 0, len(s.Actors))
	for _, a := range s.Actors {
		out = append(out, *a)
	}
	sortByID(out, func(a empire.Actor) uint64 { return a.ID })
	return out
}

// sortByID orders a slice by numeric id; slices here are small and usually
// already nearly ordered, so insertion sort is plenty.
func sortByID[T any](items []T, id func(T) uint64) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && id(items[j]) < id(items[j-1]); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// ── Registration ─────────────────────────────────────────────────────

// AddEmpire registers a new empire and returns the live record (the caller's
// handle for seeding and tests).
func (s *Simulation) AddEmpire(dynasty, warrant string, wealth, industry float64, influence int) (*empire.Empire, error) {
	if influence < 0 || influence > 100 {
		return nil, fmt.Errorf("influence %d: %w", influence, empire.ErrInvalidRange)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEmpireID++
	e := &empire.Empire{
		ID:            s.nextEmpireID,
		DynastyName:   dynasty,
		WarrantNumber: warrant,
		TotalWealth:   wealth,
		TotalIndustry: industry,
		Influence:     influence,
	}
	s.Empires[e.ID] = e
	return e, nil
}

// AddActor registers a role actor and returns it.
func (s *Simulation) AddActor(name string, role empire.Role) *empire.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextActorID++
	a := &empire.Actor{ID: s.nextActorID, Name: name, Role: role}
	s.Actors[a.ID] = a
	return a
}

// AddUpgrade registers an upgrade definition in the catalogue. A zero ID is
// allocated; an explicit ID (catalogue seeding) is kept.
func (s *Simulation) AddUpgrade(u empire.Upgrade) *empire.Upgrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextUpgradeID++
		u.ID = s.nextUpgradeID
	} else if u.ID > s.nextUpgradeID {
		s.nextUpgradeID = u.ID
	}
	stored := u
	s.Upgrades[stored.ID] = &stored
	return &stored
}

// ── State export / import ────────────────────────────────────────────

// Snapshot is a value copy of the complete simulation state. ExportState and
// ImportState are the persistence seam: the store never reads or writes the
// live maps.
type Snapshot struct {
	Empires  []empire.Empire
	Planets  []empire.Planet
	Upgrades []empire.Upgrade
	Projects []empire.Project
	Events   []empire.Event
	Actors   []empire.Actor
	Routes   []empire.Route
	Ticks    uint64
}

// ExportState copies every entity under one read lock, in id order.
func (s *Simulation) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Ticks: s.ticks}
	for _, e := range s.Empires {
		snap.Empires = append(snap.Empires, *e)
	}
	for _, p := range s.Planets {
		snap.Planets = append(snap.Planets, *p)
	}
	for _, u := range s.Upgrades {
		snap.Upgrades = append(snap.Upgrades, *u)
	}
	for _, p := range s.Projects {
		snap.Projects = append(snap.Projects, *p)
	}
	for _, e := range s.Events {
		snap.Events = append(snap.Events, *e)
	}
	for _, a := range s.Actors {
		snap.Actors = append(snap.Actors, *a)
	}
	for _, r := range s.Routes {
		snap.Routes = append(snap.Routes, *r)
	}
	sortByID(snap.Empires, func(e empire.Empire) uint64 { return e.ID })
	sortByID(snap.Planets, func(p empire.Planet) uint64 { return p.ID })
	sortByID(snap.Upgrades, func(u empire.Upgrade) uint64 { return u.ID })
	sortByID(snap.Projects, func(p empire.Project) uint64 { return p.ID })
	sortByID(snap.Events, func(e empire.Event) uint64 { return e.ID })
	sortByID(snap.Actors, func(a empire.Actor) uint64 { return a.ID })
	sortByID(snap.Routes, func(r empire.Route) uint64 { return r.ID })
	return snap
}

// ImportState replaces the simulation contents with a snapshot under the
// write lock, priming the id allocators above everything restored.
func (s *Simulation) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Empires = make(map[uint64]*empire.Empire, len(snap.Empires))
	s.nextEmpireID = 0
	for i := range snap.Empires {
		e := snap.Empires[i]
		s.Empires[e.ID] = &e
		if e.ID > s.nextEmpireID {
			s.nextEmpireID = e.ID
		}
	}

	s.Planets = make(map[uint64]*empire.Planet, len(snap.Planets))
	s.nextPlanetID = 0
	for i := range snap.Planets {
		p := snap.Planets[i]
		s.Planets[p.ID] = &p
		if p.ID > s.nextPlanetID {
			s.nextPlanetID = p.ID
		}
	}

	s.Upgrades = make(map[uint64]*empire.Upgrade, len(snap.Upgrades))
	s.nextUpgradeID = 0
	for i := range snap.Upgrades {
		u := snap.Upgrades[i]
		s.Upgrades[u.ID] = &u
		if u.ID > s.nextUpgradeID {
			s.nextUpgradeID = u.ID
		}
	}

	s.Projects = make(map[uint64]*empire.Project, len(snap.Projects))
	s.nextProjectID = 0
	for i := range snap.Projects {
		p := snap.Projects[i]
		s.Projects[p.ID] = &p
		if p.ID > s.nextProjectID {
			s.nextProjectID = p.ID
		}
	}

	s.Events = make(map[uint64]*empire.Event, len(snap.Events))
	s.nextEventID = 0
	for i := range snap.Events {
		e := snap.Events[i]
		s.Events[e.ID] = &e
		if e.ID > s.nextEventID {
			s.nextEventID = e.ID
		}
	}

	s.Actors = make(map[uint64]*empire.Actor, len(snap.Actors))
	s.nextActorID = 0
	for i := range snap.Actors {
		a := snap.Actors[i]
		s.Actors[a.ID] = &a
		if a.ID > s.nextActorID {
			s.nextActorID = a.ID
		}
	}

	s.Routes = make(map[uint64]*empire.Route, len(snap.Routes))
	s.nextRouteID = 0
	for i := range snap.Routes {
		r := snap.Routes[i]
		s.Routes[r.ID] = &r
		if r.ID > s.nextRouteID {
			s.nextRouteID = r.ID
		}
	}

	s.ticks = snap.Ticks
}
