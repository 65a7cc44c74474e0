package engine

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/talgya/voidtrader/internal/empire"
	"github.com/talgya/voidtrader/internal/entropy"
)

// scriptSource replays a fixed tape of samples so tests can pin every
// stochastic branch. Exhausted tapes fall back to values that fire nothing:
// Float64 0.999 (no event, no project advance) and IntN 2 (zero drift).
type scriptSource struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

func (s *scriptSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0.999
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		return 2 % n
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

var testEpoch = time.Date(2230, 4, 12, 0, 0, 0, 0, time.UTC)

func newTestSim(t *testing.T, src entropy.Source) (*Simulation, *empire.Empire) {
	t.Helper()
	s := NewSimulation(src)
	s.Clock = func() time.Time { return testEpoch }
	e, err := s.AddEmpire("House Mercator", "WT-0001", 10000, 5000, 50)
	if err != nil {
		t.Fatalf("AddEmpire: %v", err)
	}
	return s, e
}

func mustPlanet(t *testing.T, s *Simulation, empireID uint64, name string, pt empire.PlanetType, loyalty float64, pools empire.Amounts) *empire.Planet {
	t.Helper()
	p, err := s.CreatePlanet(empireID, name, pt, loyalty, pools)
	if err != nil {
		t.Fatalf("CreatePlanet(%s): %v", name, err)
	}
	return p
}

func TestAdvanceTimeCycleTax(t *testing.T) {
	t.Parallel()
	src := &scriptSource{}
	s, e := newTestSim(t, src)
	loyal := mustPlanet(t, s, e.ID, "Veldanis", empire.AgriWorld, 100, empire.Amounts{Wealth: 1000})
	rebel := mustPlanet(t, s, e.ID, "Morgard", empire.HiveWorld, 100, empire.Amounts{Wealth: 500})
	rebel.Rebellious = true

	if err := s.AdvanceTimeCycle(e.ID); err != nil {
		t.Fatalf("AdvanceTimeCycle: %v", err)
	}

	if loyal.Wealth != 900 {
		t.Errorf("loyal planet wealth = %.1f, want 900", loyal.Wealth)
	}
	if rebel.Wealth != 500 {
		t.Errorf("rebellious planet wealth = %.1f, want untaxed 500", rebel.Wealth)
	}
	if e.TotalWealth != 10100 {
		t.Errorf("dynasty wealth = %.1f, want 10100", e.TotalWealth)
	}
	if s.Ticks() != 1 {
		t.Errorf("ticks = %d, want 1", s.Ticks())
	}

	var sawTax bool
	for _, n := range s.Notices(0) {
		if n.Kind == "tax" {
			sawTax = true
		}
	}
	if !sawTax {
		t.Error("no tax notice emitted")
	}
}

func TestAdvanceTimeCycleEventGeneration(t *testing.T) {
	t.Parallel()
	// Event roll 0.1 < 0.15 (loyalty 50), type index 1, severity draw 4 → 5,
	// drift draw 4 → +2 loyalty.
	src := &scriptSource{floats: []float64{0.1}, ints: []int{1, 4, 4}}
	s, e := newTestSim(t, src)
	p := mustPlanet(t, s, e.ID, "Drax", empire.DeathWorld, 50, empire.Amounts{})

	if err := s.AdvanceTimeCycle(e.ID); err != nil {
		t.Fatalf("AdvanceTimeCycle: %v", err)
	}

	events := s.EventsByPlanet(p.ID)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Type != empire.EventNaturalDisaster {
		t.Errorf("type = %s, want NATURAL_DISASTER", ev.Type)
	}
	if ev.Severity != 5 {
		t.Errorf("severity = %d, want 5", ev.Severity)
	}
	if !strings.Contains(ev.Description, "Drax") {
		t.Errorf("description %q does not name the planet", ev.Description)
	}
	if ev.Resolved {
		t.Error("fresh event marked resolved")
	}
	if p.Loyalty != 52 {
		t.Errorf("loyalty = %.1f, want 52 after +2 drift", p.Loyalty)
	}
}

func TestAdvanceTimeCycleRebellion(t *testing.T) {
	t.Parallel()
	src := &scriptSource{}
	s, e := newTestSim(t, src)
	p := mustPlanet(t, s, e.ID, "Kariona", empire.MiningWorld, 25, empire.Amounts{Wealth: 1000})

	if err := s.AdvanceTimeCycle(e.ID); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	if !p.Rebellious {
		t.Fatal("planet below threshold did not rebel")
	}
	events := s.EventsByPlanet(p.ID)
	if len(events) != 1 {
		t.Fatalf("events = %d, want exactly one insurrection", len(events))
	}
	if events[0].Type != empire.EventInsurrection || events[0].Severity != RebellionSeverity {
		t.Errorf("event = %s severity %d, want INSURRECTION severity %d",
			events[0].Type, events[0].Severity, RebellionSeverity)
	}
	// Taxed on the first tick: rebellion lands after collection.
	if p.Wealth != 900 {
		t.Errorf("wealth = %.1f, want 900", p.Wealth)
	}

	// Second tick: no repeat insurrection, no further tax.
	if err := s.AdvanceTimeCycle(e.ID); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if got := len(s.EventsByPlanet(p.ID)); got != 1 {
		t.Errorf("events after second tick = %d, want still 1", got)
	}
	if p.Wealth != 900 {
		t.Errorf("wealth after second tick = %.1f, want untaxed 900", p.Wealth)
	}
	if !p.Rebellious {
		t.Error("rebellion cleared itself")
	}
}

func TestAdvanceTimeCycleRejectsCorruptState(t *testing.T) {
	t.Parallel()
	src := &scriptSource{}
	s, e := newTestSim(t, src)
	p := mustPlanet(t, s, e.ID, "Ostheim", empire.ForgeWorld, 50, empire.Amounts{Wealth: 1000})
	p.Loyalty = 150

	err := s.AdvanceTimeCycle(e.ID)
	if !errors.Is(err, empire.ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
	if p.Wealth != 1000 || e.TotalWealth != 10000 {
		t.Errorf("state changed on rejected tick: planet %.1f dynasty %.1f", p.Wealth, e.TotalWealth)
	}
	if s.Ticks() != 0 {
		t.Errorf("ticks = %d, want 0", s.Ticks())
	}
}

func TestAdvanceTimeCycleUnknownEmpire(t *testing.T) {
	t.Parallel()
	s, _ := newTestSim(t, &scriptSource{})
	if err := s.AdvanceTimeCycle(999); !errors.Is(err, empire.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestObserversDuringTicks(t *testing.T) {
	t.Parallel()
	s, e := newTestSim(t, entropy.NewSeeded(7))
	mustPlanet(t, s, e.ID, "Veldanis", empire.AgriWorld, 60, empire.Amounts{Wealth: 500})
	mustPlanet(t, s, e.ID, "Morgard", empire.HiveWorld, 45, empire.Amounts{Wealth: 300})

	const ticks = 40
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < ticks; i++ {
			if err := s.AdvanceTimeCycle(e.ID); err != nil {
				t.Errorf("tick %d: %v", i, err)
				return
			}
		}
	}()

	// Hammer the read surface while the ticks run. Every observation is a
	// copy taken under the state lock, so values are always consistent.
	for {
		for _, p := range s.AllPlanets() {
			if p.Loyalty < 0 || p.Loyalty > 100 {
				t.Errorf("observed %s loyalty %.1f out of range", p.Name, p.Loyalty)
			}
			if p.Wealth < 0 {
				t.Errorf("observed %s wealth %.1f negative", p.Name, p.Wealth)
			}
		}
		if _, err := s.EmpireByID(e.ID); err != nil {
			t.Errorf("EmpireByID: %v", err)
		}
		if _, err := s.EmpireResources(e.ID); err != nil {
			t.Errorf("EmpireResources: %v", err)
		}
		s.Counts()
		s.Notices(10)
		s.EventsByPlanet(1)

		select {
		case <-done:
			if got := s.Ticks(); got != ticks {
				t.Errorf("ticks = %d, want %d", got, ticks)
			}
			return
		default:
		}
	}
}

func TestLoyaltyStaysInRange(t *testing.T) {
	t.Parallel()
	s, e := newTestSim(t, entropy.NewSeeded(99))
	planets := []*empire.Planet{
		mustPlanet(t, s, e.ID, "Low", empire.AgriWorld, 0, empire.Amounts{Wealth: 100}),
		mustPlanet(t, s, e.ID, "Mid", empire.HiveWorld, 50, empire.Amounts{Wealth: 100}),
		mustPlanet(t, s, e.ID, "High", empire.ForgeWorld, 100, empire.Amounts{Wealth: 100}),
	}

	for i := 0; i < 50; i++ {
		if err := s.AdvanceTimeCycle(e.ID); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		for _, p := range planets {
			if p.Loyalty < 0 || p.Loyalty > 100 {
				t.Fatalf("tick %d: %s loyalty %.1f out of range", i, p.Name, p.Loyalty)
			}
			if p.Wealth < 0 {
				t.Fatalf("tick %d: %s wealth %.1f negative", i, p.Name, p.Wealth)
			}
		}
	}
	if s.Ticks() != 50 {
		t.Errorf("ticks = %d, want 50", s.Ticks())
	}
}
