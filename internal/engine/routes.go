// Warp routes: navigator-charted lanes between planets.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/voidtrader/internal/empire"
)

// CreateRoute charts a lane between two planets. A route already linking the
// pair, in either direction, blocks creation. Fresh routes start stable.
func (s *Simulation) CreateRoute(fromPlanetID, toPlanetID, navigatorID uint64) (*empire.Route, error) {
	from, err := s.PlanetByID(fromPlanetID)
	if err != nil {
		return nil, err
	}
	to, err := s.PlanetByID(toPlanetID)
	if err != nil {
		return nil, err
	}
	nav, err := s.ActorByID(navigatorID)
	if err != nil {
		return nil, err
	}
	if nav.Role != empire.RoleNavigator {
		return nil, fmt.Errorf("actor %s is %s, not a navigator: %w", nav.Name, nav.Role, empire.ErrInvalidAction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.Routes {
		if (r.FromPlanet == fromPlanetID && r.ToPlanet == toPlanetID) ||
			(r.FromPlanet == toPlanetID && r.ToPlanet == fromPlanetID) {
			return nil, fmt.Errorf("route between %s and %s already charted: %w", from.Name, to.Name, empire.ErrInvalidAction)
		}
	}

	s.nextRouteID++
	route := &empire.Route{
		ID:          s.nextRouteID,
		FromPlanet:  fromPlanetID,
		ToPlanet:    toPlanetID,
		NavigatorID: navigatorID,
		Stable:      true,
	}
	s.Routes[route.ID] = route

	slog.Info("route charted", "route", route.ID, "from", from.Name, "to", to.Name, "navigator", nav.Name)
	return route, nil
}

// RouteStability reports whether a route is currently stable.
func (s *Simulation) RouteStability(routeID uint64) (bool, error) {
	r, err := s.RouteByID(routeID)
	if err != nil {
		return false, err
	}
	return r.Stable, nil
}

// RoutesByEmpire returns routes touching any of the empire's planets.
func (s *Simulation) RoutesByEmpire(empireID uint64) []empire.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := make(map[uint64]bool)
	for _, p := range s.planetsByEmpireLocked(empireID) {
		owned[p.ID] = true
	}
	var out []empire.Route
	for _, r := range s.Routes {
		if owned[r.FromPlanet] || owned[r.ToPlanet] {
			out = append(out, *r)
		}
	}
	sortByID(out, func(r empire.Route) uint64 { return r.ID })
	return out
}
