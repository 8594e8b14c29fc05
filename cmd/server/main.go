package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/runevale/server/internal/config"
	"github.com/runevale/server/internal/core/ecs"
	"github.com/runevale/server/internal/core/event"
	coresys "github.com/runevale/server/internal/core/system"
	"github.com/runevale/server/internal/data"
	"github.com/runevale/server/internal/entity"
	"github.com/runevale/server/internal/persist"
	"github.com/runevale/server/internal/scripting"
	"github.com/runevale/server/internal/system"
	"github.com/runevale/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Runevale  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        mob simulation server              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	cfgPath := flag.String("config", "config.toml", "path to server config")
	flag.Parse()
	if p := os.Getenv("RUNEVALE_CONFIG"); p != "" {
		*cfgPath = p
	}

	// 1. Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	mobRepo := persist.NewMobRepo(db)

	// 4. Load static data tables
	printSection("data load")

	mobTable, err := data.LoadMobTable("data/yaml/mob_list.yaml")
	if err != nil {
		return fmt.Errorf("load mob table: %w", err)
	}
	printStat("mob archetypes", mobTable.Count())

	spawnAreas, err := data.LoadSpawnAreas("data/yaml/spawn_list.yaml")
	if err != nil {
		return fmt.Errorf("load spawn areas: %w", err)
	}
	printStat("spawn areas", len(spawnAreas))

	lootTable, err := data.LoadLootTable("data/yaml/loot_list.yaml")
	if err != nil {
		return fmt.Errorf("load loot table: %w", err)
	}
	printStat("loot tables", lootTable.Count())

	// 5. Initialize Lua scripting engine
	luaEngine, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua combat formulas loaded")
	fmt.Println()

	// 6. Build the simulation core
	ecsWorld := ecs.NewWorld()
	bus := event.NewBus()
	worldState := world.NewState()

	entities := entity.NewManager(ecsWorld, log)
	entities.Attach(bus)

	mobSvc := system.NewMobService(worldState, mobTable, bus, cfg.Game, log)

	combatSys := system.NewCombatSystem(mobSvc, luaEngine, log)
	aiSys := system.NewMobAISystem(mobSvc, combatSys, cfg.Game, log)
	lootSys := system.NewLootSystem(mobSvc, entities, lootTable, cfg.Rates.DropRate, log)

	// 7. Register systems. Within a phase, registration order is execution
	// order: AI emits intents, combat resolves them, loot spawns drops.
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(aiSys)
	runner.Register(combatSys)
	runner.Register(lootSys)
	runner.Register(system.NewMobRespawnSystem(mobSvc))
	runner.Register(system.NewRegenSystem(mobSvc, cfg.Game.RegenInterval))
	runner.Register(system.NewNetSyncSystem(entities, nil, log))
	persistSys := system.NewPersistenceSystem(mobSvc, mobRepo, cfg.Game.PersistInterval, log)
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(ecsWorld))

	// 8. Populate the world from spawn areas
	printSection("world")
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	points := data.GenerateSpawnPoints(spawnAreas, rng)
	spawned := mobSvc.PopulateSpawnPoints(points)
	printStat("mobs spawned", spawned)
	fmt.Println()

	// 9. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Game.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Game.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			persistSys.Flush()
			log.Info("server stopped", zap.Int("mobs", mobSvc.DespawnAllMobs()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
