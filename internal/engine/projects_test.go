package engine

import (
	"errors"
	"testing"

	"github.com/talgya/voidtrader/internal/empire"
)

func testUpgrade(s *Simulation, name string, pt empire.PlanetType, cost empire.Amounts) *empire.Upgrade {
	return s.AddUpgrade(empire.Upgrade{
		Name:          name,
		Description:   name,
		CostWealth:    cost.Wealth,
		CostIndustry:  cost.Industry,
		CostResources: cost.Resources,
		SuitableType:  pt,
	})
}

func TestCreateProject(t *testing.T) {
	t.Parallel()

	t.Run("debits full cost once", func(t *testing.T) {
		t.Parallel()
		s, e := newTestSim(t, &scriptSource{})
		p := mustPlanet(t, s, e.ID, "Veldanis", empire.AgriWorld, 50,
			empire.Amounts{Wealth: 1000, Industry: 500, Resources: 200})
		u := testUpgrade(s, "Hydroponic Terraces", empire.AgriWorld,
			empire.Amounts{Wealth: 300, Industry: 100, Resources: 50})

		pr, err := s.CreateProject(p.ID, u.ID)
		if err != nil {
			t.Fatalf("CreateProject: %v", err)
		}
		if pr.Status != empire.ProjectPlanned {
			t.Errorf("status = %s, want PLANNED", pr.Status)
		}
		if pr.StartDate.IsZero() {
			t.Error("start date not stamped")
		}
		if pr.CompletionDate != nil {
			t.Error("completion date set on a planned project")
		}
		if got := p.Balance(); got != (empire.Amounts{Wealth: 700, Industry: 400, Resources: 150}) {
			t.Errorf("pools = %+v, want cost debited exactly once", got)
		}
	})

	t.Run("incompatible planet type", func(t *testing.T) {
		t.Parallel()
		s, e := newTestSim(t, &scriptSource{})
		p := mustPlanet(t, s, e.ID, "Veldanis", empire.AgriWorld, 50,
			empire.Amounts{Wealth: 1000, Industry: 500, Resources: 200})
		u := testUpgrade(s, "Plasma Foundry", empire.ForgeWorld, empire.Amounts{Wealth: 100})

		_, err := s.CreateProject(p.ID, u.ID)
		if !errors.Is(err, empire.ErrIncompatibleType) {
			t.Fatalf("err = %v, want ErrIncompatibleType", err)
		}
		if got := p.Balance(); got != (empire.Amounts{Wealth: 1000, Industry: 500, Resources: 200}) {
			t.Errorf("pools = %+v, want untouched", got)
		}
	})

	t.Run("insufficient resources", func(t *testing.T) {
		t.Parallel()
		s, e := newTestSim(t, &scriptSource{})
		p := mustPlanet(t, s, e.ID, "Veldanis", empire.AgriWorld, 50,
			empire.Amounts{Wealth: 100, Industry: 500, Resources: 200})
		u := testUpgrade(s, "Grain Silo Complex", empire.AgriWorld,
			empire.Amounts{Wealth: 300, Industry: 100})

		_, err := s.CreateProject(p.ID, u.ID)
		if !errors.Is(err, empire.ErrInsufficientResources) {
			t.Fatalf("err = %v, want ErrInsufficientResources", err)
		}
		if got := p.Balance(); got != (empire.Amounts{Wealth: 100, Industry: 500, Resources: 200}) {
			t.Errorf("pools = %+v, want untouched", got)
		}
		if got := len(s.ProjectsByPlanet(p.ID)); got != 0 {
			t.Errorf("projects = %d, want none recorded", got)
		}
	})

	t.Run("unknown planet", func(t *testing.T) {
		t.Parallel()
		s, _ := newTestSim(t, &scriptSource{})
		if _, err := s.CreateProject(999, 1); !errors.Is(err, empire.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestProjectAdvancesDuringTick(t *testing.T) {
	t.Parallel()
	// Tick 1: project roll 0.4 < 0.5 → IN_PROGRESS.
	// Tick 2: project roll 0.2 < 0.3 → COMPLETED.
	// Event rolls come from the 0.999 tape fallback and never fire.
	src := &scriptSource{floats: []float64{0.4, 0.999, 0.2, 0.999}}
	s, e := newTestSim(t, src)
	p := mustPlanet(t, s, e.ID, "Veldanis", empire.AgriWorld, 100, empire.Amounts{Wealth: 1000})
	u := testUpgrade(s, "Hydroponic Terraces", empire.AgriWorld, empire.Amounts{Wealth: 100})

	pr, err := s.CreateProject(p.ID, u.ID)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	if err := s.AdvanceTimeCycle(e.ID); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if pr.Status != empire.ProjectInProgress {
		t.Fatalf("after tick 1 status = %s, want IN_PROGRESS", pr.Status)
	}
	if pr.CompletionDate != nil {
		t.Error("completion date stamped before completion")
	}

	if err := s.AdvanceTimeCycle(e.ID); err != nil {
		t.Fatalf("tick 2: %v", err)
	}
	if pr.Status != empire.ProjectCompleted {
		t.Fatalf("after tick 2 status = %s, want COMPLETED", pr.Status)
	}
	if pr.CompletionDate == nil || !pr.CompletionDate.Equal(testEpoch) {
		t.Errorf("completion date = %v, want %v", pr.CompletionDate, testEpoch)
	}

	installed, err := s.InstalledUpgrades(p.ID)
	if err != nil {
		t.Fatalf("InstalledUpgrades: %v", err)
	}
	if len(installed) != 1 || installed[0].ID != u.ID {
		t.Errorf("installed = %v, want the completed upgrade", installed)
	}
}

func TestProjectNoGuaranteedProgress(t *testing.T) {
	t.Parallel()
	// Rolls at or above the thresholds leave the project where it was.
	src := &scriptSource{floats: []float64{0.5, 0.999}}
	s, e := newTestSim(t, src)
	p := mustPlanet(t, s, e.ID, "Veldanis", empire.AgriWorld, 100, empire.Amounts{Wealth: 1000})
	u := testUpgrade(s, "Hydroponic Terraces", empire.AgriWorld, empire.Amounts{Wealth: 100})

	pr, err := s.CreateProject(p.ID, u.ID)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := s.AdvanceTimeCycle(e.ID); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if pr.Status != empire.ProjectPlanned {
		t.Errorf("status = %s, want still PLANNED", pr.Status)
	}
}

func TestUpdateProjectStatus(t *testing.T) {
	t.Parallel()
	s, e := newTestSim(t, &scriptSource{})
	p := mustPlanet(t, s, e.ID, "Veldanis", empire.AgriWorld, 50, empire.Amounts{Wealth: 1000})
	u := testUpgrade(s, "Hydroponic Terraces", empire.AgriWorld, empire.Amounts{Wealth: 100})
	pr, err := s.CreateProject(p.ID, u.ID)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := s.UpdateProjectStatus(pr.ID, "DEMOLISHED")
		if !errors.Is(err, empire.ErrInvalidRange) {
			t.Fatalf("err = %v, want ErrInvalidRange", err)
		}
	})

	t.Run("completion stamps date once", func(t *testing.T) {
		got, err := s.UpdateProjectStatus(pr.ID, empire.ProjectCompleted)
		if err != nil {
			t.Fatalf("UpdateProjectStatus: %v", err)
		}
		if got.CompletionDate == nil {
			t.Fatal("completion date not stamped")
		}
		first := *got.CompletionDate

		again, err := s.UpdateProjectStatus(pr.ID, empire.ProjectCompleted)
		if err != nil {
			t.Fatalf("second update: %v", err)
		}
		if again.CompletionDate == nil || !again.CompletionDate.Equal(first) {
			t.Error("completion date overwritten on repeat")
		}
	})
}

func TestCanInstallUpgrade(t *testing.T) {
	t.Parallel()
	s, e := newTestSim(t, &scriptSource{})
	p := mustPlanet(t, s, e.ID, "Veldanis", empire.AgriWorld, 50, empire.Amounts{Wealth: 200})
	affordable := testUpgrade(s, "Grain Silo Complex", empire.AgriWorld, empire.Amounts{Wealth: 150})
	tooDear := testUpgrade(s, "Hydroponic Terraces", empire.AgriWorld, empire.Amounts{Wealth: 500})
	wrongType := testUpgrade(s, "Plasma Foundry", empire.ForgeWorld, empire.Amounts{Wealth: 10})

	cases := []struct {
		name    string
		upgrade uint64
		want    bool
	}{
		{"affordable and compatible", affordable.ID, true},
		{"unaffordable", tooDear.ID, false},
		{"wrong planet type", wrongType.ID, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := s.CanInstallUpgrade(p.ID, tc.upgrade)
			if err != nil {
				t.Fatalf("CanInstallUpgrade: %v", err)
			}
			if ok != tc.want {
				t.Errorf("got %v, want %v", ok, tc.want)
			}
		})
	}

	// The check never debits.
	if p.Wealth != 200 {
		t.Errorf("wealth = %.1f, want untouched", p.Wealth)
	}
}

func TestUpgradesByType(t *testing.T) {
	t.Parallel()
	s, _ := newTestSim(t, &scriptSource{})
	testUpgrade(s, "Hydroponic Terraces", empire.AgriWorld, empire.Amounts{Wealth: 1})
	testUpgrade(s, "Grain Silo Complex", empire.AgriWorld, empire.Amounts{Wealth: 1})
	testUpgrade(s, "Plasma Foundry", empire.ForgeWorld, empire.Amounts{Wealth: 1})

	if got := len(s.UpgradesByType(empire.AgriWorld)); got != 2 {
		t.Errorf("agri upgrades = %d, want 2", got)
	}
	if got := len(s.UpgradesByType(empire.DeathWorld)); got != 0 {
		t.Errorf("death world upgrades = %d, want 0", got)
	}
	if got := len(s.AllUpgrades()); got != 3 {
		t.Errorf("catalogue = %d, want 3", got)
	}
}
