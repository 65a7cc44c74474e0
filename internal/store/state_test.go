package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/voidtrader/internal/empire"
	"github.com/talgya/voidtrader/internal/engine"
	"github.com/talgya/voidtrader/internal/entropy"
	"github.com/talgya/voidtrader/internal/warp"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedState builds a small populated simulation and message log.
func seedState(t *testing.T) (*engine.Simulation, *warp.Router) {
	t.Helper()
	sim := engine.NewSimulation(entropy.NewSeeded(1))
	sim.Clock = func() time.Time {
		return time.Date(2230, 4, 12, 0, 0, 0, 0, time.UTC)
	}

	e, err := sim.AddEmpire("House Mercator", "WT-0001", 10000, 5000, 50)
	if err != nil {
		t.Fatalf("AddEmpire: %v", err)
	}
	p1, err := sim.CreatePlanet(e.ID, "Veldanis", empire.AgriWorld, 70,
		empire.Amounts{Wealth: 1000, Industry: 400, Resources: 200})
	if err != nil {
		t.Fatalf("CreatePlanet: %v", err)
	}
	p2, err := sim.CreatePlanet(e.ID, "Morgard", empire.HiveWorld, 20,
		empire.Amounts{Wealth: 300, Industry: 600, Resources: 100})
	if err != nil {
		t.Fatalf("CreatePlanet: %v", err)
	}
	p2.Rebellious = true

	trader := sim.AddActor("Magdalena Mercator", empire.RoleTrader)
	nav := sim.AddActor("Navigator Esh", empire.RoleNavigator)

	u := sim.AddUpgrade(empire.Upgrade{
		Name: "Hydroponic Terraces", Description: "Tiered growing racks",
		CostWealth: 300, CostIndustry: 100, SuitableType: empire.AgriWorld,
	})
	pr, err := sim.CreateProject(p1.ID, u.ID)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := sim.UpdateProjectStatus(pr.ID, empire.ProjectCompleted); err != nil {
		t.Fatalf("UpdateProjectStatus: %v", err)
	}

	if _, err := sim.CreateEvent(p2.ID, empire.EventInsurrection, 8, ""); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if _, err := sim.CreateRoute(p1.ID, p2.ID, nav.ID); err != nil {
		t.Fatalf("CreateRoute: %v", err)
	}

	router := warp.NewRouter(sim, entropy.NewSeeded(2))
	router.SetClock(sim.Clock)
	mt := empire.MsgNavigationRequest
	m, err := router.Send(trader.ID, nav.ID, "Chart a route to Morgard", warp.SendOptions{
		Type:    &mt,
		Payload: &empire.Amounts{Wealth: 50},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := router.MarkCompleted(m.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if _, err := router.Send(nav.ID, trader.ID, "Route charted", warp.SendOptions{}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Stamp a nonzero tick count through the persistence seam.
	snap := sim.ExportState()
	snap.Ticks = 12
	sim.ImportState(snap)
	return sim, router
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	sim, router := seedState(t)

	if db.HasState() {
		t.Fatal("fresh database reports saved state")
	}
	if err := db.SaveState(sim, router); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if !db.HasState() {
		t.Fatal("saved database reports no state")
	}

	got := engine.NewSimulation(entropy.NewSeeded(1))
	gotRouter := warp.NewRouter(got, entropy.NewSeeded(2))
	if err := db.LoadState(got, gotRouter); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	if got.Ticks() != 12 {
		t.Errorf("ticks = %d, want 12", got.Ticks())
	}
	if len(got.Empires) != 1 || len(got.Planets) != 2 || len(got.Actors) != 2 ||
		len(got.Upgrades) != 1 || len(got.Projects) != 1 || len(got.Events) != 1 ||
		len(got.Routes) != 1 {
		t.Fatalf("loaded census = %d/%d/%d/%d/%d/%d/%d empires/planets/actors/upgrades/projects/events/routes",
			len(got.Empires), len(got.Planets), len(got.Actors),
			len(got.Upgrades), len(got.Projects), len(got.Events), len(got.Routes))
	}

	for id, want := range sim.Empires {
		e := got.Empires[id]
		if e == nil || *e != *want {
			t.Errorf("empire %d = %+v, want %+v", id, e, want)
		}
	}
	for id, want := range sim.Planets {
		p := got.Planets[id]
		if p == nil || *p != *want {
			t.Errorf("planet %d = %+v, want %+v", id, p, want)
		}
	}
	for id, want := range sim.Actors {
		a := got.Actors[id]
		if a == nil || *a != *want {
			t.Errorf("actor %d = %+v, want %+v", id, a, want)
		}
	}
	for id, want := range sim.Routes {
		r := got.Routes[id]
		if r == nil || *r != *want {
			t.Errorf("route %d = %+v, want %+v", id, r, want)
		}
	}

	wantProject := sim.Projects[1]
	gotProject := got.Projects[1]
	if gotProject == nil {
		t.Fatal("project 1 not loaded")
	}
	if gotProject.Status != empire.ProjectCompleted ||
		!gotProject.StartDate.Equal(wantProject.StartDate) ||
		gotProject.CompletionDate == nil ||
		!gotProject.CompletionDate.Equal(*wantProject.CompletionDate) {
		t.Errorf("project = %+v, want %+v", gotProject, wantProject)
	}

	wantEvent := sim.Events[1]
	gotEvent := got.Events[1]
	if gotEvent == nil {
		t.Fatal("event 1 not loaded")
	}
	if gotEvent.Type != wantEvent.Type || gotEvent.Severity != wantEvent.Severity ||
		gotEvent.Description != wantEvent.Description || gotEvent.Resolved != wantEvent.Resolved ||
		!gotEvent.OccurredAt.Equal(wantEvent.OccurredAt) {
		t.Errorf("event = %+v, want %+v", gotEvent, wantEvent)
	}

	wantMsgs := router.All()
	gotMsgs := gotRouter.All()
	if len(gotMsgs) != len(wantMsgs) {
		t.Fatalf("messages = %d, want %d", len(gotMsgs), len(wantMsgs))
	}
	for i, want := range wantMsgs {
		m := gotMsgs[i]
		if m.ID != want.ID || m.TraceID != want.TraceID ||
			m.SenderID != want.SenderID || m.ReceiverID != want.ReceiverID ||
			m.Content != want.Content ||
			m.Delivered != want.Delivered || m.Distorted != want.Distorted ||
			m.Completed != want.Completed || !m.SentAt.Equal(want.SentAt) {
			t.Errorf("message %d = %+v, want %+v", want.ID, m, want)
		}
		if (m.Type == nil) != (want.Type == nil) || (m.Type != nil && *m.Type != *want.Type) {
			t.Errorf("message %d type = %v, want %v", want.ID, m.Type, want.Type)
		}
		if (m.Payload == nil) != (want.Payload == nil) || (m.Payload != nil && *m.Payload != *want.Payload) {
			t.Errorf("message %d payload = %v, want %v", want.ID, m.Payload, want.Payload)
		}
		if (m.CompletionDate == nil) != (want.CompletionDate == nil) ||
			(m.CompletionDate != nil && !m.CompletionDate.Equal(*want.CompletionDate)) {
			t.Errorf("message %d completion date = %v, want %v", want.ID, m.CompletionDate, want.CompletionDate)
		}
	}

	// The id allocators must sit past the loaded entities.
	p3, err := got.CreatePlanet(1, "Ostheim", empire.ForgeWorld, 50, empire.Amounts{})
	if err != nil {
		t.Fatalf("CreatePlanet after load: %v", err)
	}
	if p3.ID != 3 {
		t.Errorf("next planet id = %d, want 3", p3.ID)
	}
}

func TestSaveStateIsFullReplace(t *testing.T) {
	db := openTestDB(t)
	sim, router := seedState(t)
	if err := db.SaveState(sim, router); err != nil {
		t.Fatalf("first SaveState: %v", err)
	}

	// Shrink the state and save again: the old rows must not survive.
	delete(sim.Planets, 2)
	if err := db.SaveState(sim, router); err != nil {
		t.Fatalf("second SaveState: %v", err)
	}

	got := engine.NewSimulation(entropy.NewSeeded(1))
	if err := db.LoadState(got, nil); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(got.Planets) != 1 {
		t.Errorf("planets = %d, want 1 after shrinking save", len(got.Planets))
	}
}

func TestSaveStateDuringMutation(t *testing.T) {
	db := openTestDB(t)
	sim, router := seedState(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if _, err := sim.CreateEvent(1, empire.EventNaturalDisaster, 3, ""); err != nil {
				t.Errorf("CreateEvent %d: %v", i, err)
				return
			}
		}
	}()

	for i := 0; i < 25; i++ {
		if err := db.SaveState(sim, router); err != nil {
			t.Fatalf("SaveState %d during mutation: %v", i, err)
		}
	}
	<-done

	if err := db.SaveState(sim, router); err != nil {
		t.Fatalf("final SaveState: %v", err)
	}
	got := engine.NewSimulation(entropy.NewSeeded(1))
	if err := db.LoadState(got, nil); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(got.Events) != 201 {
		t.Errorf("events = %d, want 201", len(got.Events))
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveMeta("seed", "42"); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	if v, err := db.GetMeta("seed"); err != nil || v != "42" {
		t.Errorf("GetMeta = %q, %v, want 42", v, err)
	}

	if err := db.SaveMeta("seed", "99"); err != nil {
		t.Fatalf("SaveMeta overwrite: %v", err)
	}
	if v, _ := db.GetMeta("seed"); v != "99" {
		t.Errorf("GetMeta after overwrite = %q, want 99", v)
	}

	if _, err := db.GetMeta("missing"); err == nil {
		t.Error("GetMeta on a missing key returned no error")
	}
}
