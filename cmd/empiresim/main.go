// Command empiresim runs the Void Trader empire simulation server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/voidtrader/internal/api"
	"github.com/talgya/voidtrader/internal/config"
	"github.com/talgya/voidtrader/internal/empire"
	"github.com/talgya/voidtrader/internal/engine"
	"github.com/talgya/voidtrader/internal/entropy"
	"github.com/talgya/voidtrader/internal/galaxy"
	"github.com/talgya/voidtrader/internal/store"
	"github.com/talgya/voidtrader/internal/warp"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Void Trader: Empire Simulation")

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// ── Randomness ───────────────────────────────────────────────────
	var src entropy.Source
	if cfg.Seed != 0 {
		src = entropy.NewSeeded(cfg.Seed)
		slog.Info("deterministic entropy", "seed", cfg.Seed)
	} else {
		src = entropy.Crypto{}
	}

	// ── Database ─────────────────────────────────────────────────────
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Generate State ───────────────────────────────────────
	sim := engine.NewSimulation(src)
	router := warp.NewRouter(sim, src)

	if db.HasState() {
		slog.Info("found saved state, loading...")
		if err := db.LoadState(sim, router); err != nil {
			slog.Error("failed to load state", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("no saved state found, founding a new dynasty...")
		seedFreshState(sim, cfg)
		if err := db.SaveState(sim, router); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── Event feed ───────────────────────────────────────────────────
	hub := api.NewHub()
	go hub.Run()
	sim.OnNotice = hub.BroadcastNotice

	// ── HTTP API ─────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("VOIDTRADER_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Router:   router,
		DB:       db,
		Hub:      hub,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Optional tick timer ──────────────────────────────────────────
	ticker := engine.NewTicker(sim, cfg.TickInterval)
	go ticker.Run()

	// ── Periodic save ────────────────────────────────────────────────
	saveStop := make(chan struct{})
	if cfg.SaveInterval > 0 {
		go func() {
			t := time.NewTicker(cfg.SaveInterval)
			defer t.Stop()
			for {
				select {
				case <-saveStop:
					return
				case <-t.C:
					if err := db.SaveState(sim, router); err != nil {
						slog.Error("periodic save failed", "error", err)
					}
				}
			}
		}()
	}

	c := sim.Counts()
	fmt.Printf("\nThe dynasty holds %d planets across %d empires.\n", c.Planets, c.Empires)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	if c.Ticks > 0 {
		fmt.Printf("Resuming from cycle %d\n", c.Ticks)
	}
	fmt.Println("Server running... (Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	ticker.Stop()
	close(saveStop)

	slog.Info("final save...")
	if err := db.SaveState(sim, router); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Server stopped. State saved.")
}

// seedFreshState founds the starting empire: a generated sector of planets,
// the four role actors, and the upgrade catalogue.
func seedFreshState(sim *engine.Simulation, cfg config.Config) {
	gen := galaxy.DefaultGenConfig()
	gen.Seed = cfg.Seed
	gen.Planets = cfg.Planets

	emp, err := sim.AddEmpire("House Mercator", "WT-0001", 1_000_000, 250_000, 50)
	if err != nil {
		slog.Error("failed to found empire", "error", err)
		os.Exit(1)
	}

	for _, bp := range galaxy.Generate(gen) {
		if _, err := sim.CreatePlanet(emp.ID, bp.Name, bp.Type, bp.Loyalty, bp.Pools); err != nil {
			slog.Error("failed to found planet", "name", bp.Name, "error", err)
		}
	}

	sim.AddActor("Magdalena Mercator", empire.RoleTrader)
	sim.AddActor("Governor Aldric Vey", empire.RoleGovernor)
	sim.AddActor("Navigator Esh of House Tal", empire.RoleNavigator)
	sim.AddActor("Astropath Corvin", empire.RoleAstropath)

	seedCatalogue(sim)

	slog.Info("dynasty founded",
		"empire", emp.DynastyName,
		"planets", len(sim.PlanetsByEmpire(emp.ID)),
		"upgrades", len(sim.AllUpgrades()))
}

func seedCatalogue(sim *engine.Simulation) {
	catalogue := []empire.Upgrade{
		{Name: "Hydroponic Terraces", Description: "Stacked growing platforms doubling arable output.",
			CostWealth: 5000, CostIndustry: 2000, CostResources: 1000, SuitableType: empire.AgriWorld},
		{Name: "Grain Silo Complex", Description: "Season-spanning food storage against blight years.",
			CostWealth: 3000, CostIndustry: 1500, CostResources: 800, SuitableType: empire.AgriWorld},
		{Name: "Manufactorum Annex", Description: "Expanded production lines for the forge tithe.",
			CostWealth: 8000, CostIndustry: 6000, CostResources: 3000, SuitableType: empire.ForgeWorld},
		{Name: "Plasma Foundry", Description: "High-temperature smelting for exotic alloys.",
			CostWealth: 12000, CostIndustry: 9000, CostResources: 5000, SuitableType: empire.ForgeWorld},
		{Name: "Arcology Spire", Description: "Vertical habitation for a billion more souls.",
			CostWealth: 10000, CostIndustry: 7000, CostResources: 4000, SuitableType: empire.HiveWorld},
		{Name: "Recycling Stacks", Description: "Closed-loop reclamation feeding the under-hive.",
			CostWealth: 4000, CostIndustry: 3000, CostResources: 1500, SuitableType: empire.HiveWorld},
		{Name: "Deep Core Bore", Description: "Mantle-depth extraction shafts.",
			CostWealth: 9000, CostIndustry: 5000, CostResources: 2000, SuitableType: empire.MiningWorld},
		{Name: "Ore Processing Plant", Description: "On-site refinement cutting freight mass in half.",
			CostWealth: 6000, CostIndustry: 4500, CostResources: 1800, SuitableType: empire.MiningWorld},
		{Name: "Fortified Bastion", Description: "Hardened garrison against the wildlife and worse.",
			CostWealth: 7000, CostIndustry: 5500, CostResources: 2500, SuitableType: empire.DeathWorld},
	}
	for _, u := range catalogue {
		sim.AddUpgrade(u)
	}
}
