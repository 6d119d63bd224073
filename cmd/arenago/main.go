package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arenago/server/internal/config"
	"github.com/arenago/server/internal/core/event"
	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/data"
	"github.com/arenago/server/internal/grid"
	"github.com/arenago/server/internal/persist"
	"github.com/arenago/server/internal/scripting"
	"github.com/arenago/server/internal/system"
	"github.com/arenago/server/internal/telemetry"
	"github.com/arenago/server/internal/world"
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
	fmt.Println("\033[36;1m  │\033[0m             ArenaGo  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       競技場模擬 · Go 遊戲伺服器          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
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
	// 1. Load config
	cfgPath := "config.toml"
	if p := os.Getenv("ARENAGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
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

	// 3. Optional PostgreSQL battle log: connect, migrate, open the match row
	var (
		db         *persist.DB
		battleRepo *persist.BattleLogRepo
		matchRepo  *persist.MatchRepo
		matchID    int64
	)
	if cfg.Database.Enabled {
		printSection("資料庫")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err = persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("資料庫遷移完成")

		battleRepo = persist.NewBattleLogRepo(db)
		matchRepo = persist.NewMatchRepo(db)
		matchID, err = matchRepo.Create(ctx, cfg.Server.Name)
		cancel()
		if err != nil {
			return fmt.Errorf("open match: %w", err)
		}
		printOK(fmt.Sprintf("戰局紀錄已開啟 (編號: %d)", matchID))
		fmt.Println()
	}

	// 4. Load data tables
	printSection("資料載入")

	archetypes, err := data.LoadArchetypeTable(filepath.Join(cfg.Data.Dir, "archetypes.yaml"))
	if err != nil {
		return fmt.Errorf("load archetypes: %w", err)
	}
	printStat("原型模板", archetypes.Count())

	spawns, err := data.LoadSpawnTable(filepath.Join(cfg.Data.Dir, "spawns.yaml"))
	if err != nil {
		return fmt.Errorf("load spawns: %w", err)
	}
	printStat("出生設定", len(spawns))

	// 5. Initialize Lua scripting engine
	luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua 腳本載入完成")

	// 6. Build the spatial index and world state
	ix, err := grid.NewIndex(grid.Config{
		CellSize:         cfg.Grid.CellSize,
		WorldWidth:       cfg.Grid.WorldWidth,
		WorldHeight:      cfg.Grid.WorldHeight,
		ClampToBounds:    cfg.Grid.ClampToBounds,
		FlushInterval:    cfg.Grid.FlushInterval,
		CellCapacityWarn: cfg.Grid.CellCapacityWarn,
	}, log)
	if err != nil {
		return fmt.Errorf("grid index: %w", err)
	}
	worldState := world.NewState(ix, log)
	bus := event.NewBus()

	// 7. Boot spawns
	spawned := spawnActors(worldState, archetypes, spawns, bus, log)
	printStat("角色生成", spawned)
	fmt.Println()

	// 8. Create systems and register with runner
	runner := coresys.NewRunner()
	combatSys := system.NewCombatSystem(worldState, luaEngine, bus, log)
	projSys := system.NewProjectileSystem(worldState, combatSys, bus)
	runner.Register(system.NewAISystem(worldState, luaEngine, combatSys, projSys))
	runner.Register(system.NewGridFlushSystem(worldState))
	runner.Register(combatSys)
	runner.Register(projSys)
	runner.Register(system.NewRespawnSystem(worldState, archetypes, bus, log))
	runner.Register(system.NewRegenSystem(worldState))
	runner.Register(system.NewSweepSystem(worldState, bus, log, cfg.Simulation.SweepEvery))

	var persistSys *system.PersistenceSystem
	if db != nil {
		persistSys = system.NewPersistenceSystem(worldState, battleRepo, matchRepo, bus, log, matchID, cfg.Simulation.AutosaveEvery)
		runner.Register(persistSys)
	}

	// 9. Telemetry hub and websocket listener
	printSection("伺服器就緒")

	var (
		hubCancel context.CancelFunc
		telemSrv  *telemetry.Server
	)
	if cfg.Telemetry.Enabled {
		hub := telemetry.NewHub(log)
		var hubCtx context.Context
		hubCtx, hubCancel = context.WithCancel(context.Background())
		go hub.Run(hubCtx)

		telemSrv = telemetry.NewServer(cfg.Telemetry.BindAddress, cfg.Telemetry.SendQueueSize, hub, log)
		telemSrv.Start()
		runner.Register(system.NewTelemetrySystem(worldState, projSys, hub, bus, cfg.Telemetry.SnapshotEvery, log))
		printReady(fmt.Sprintf("遙測端點 ws://%s/ws", cfg.Telemetry.BindAddress))
	}

	// 10. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printReady(fmt.Sprintf("模擬迴圈啟動 (tick: %s)", cfg.Simulation.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			worldState.AdvanceTick()
			// Deliver last tick's events before systems run this tick.
			bus.SwapBuffers()
			bus.DispatchAll()
			runner.Tick(cfg.Simulation.TickRate)

		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			// Late events (deaths on the final tick) are still in the
			// back buffer; dispatch once more so the battle log gets them.
			bus.SwapBuffers()
			bus.DispatchAll()
			if persistSys != nil {
				persistSys.SaveAll()
			}
			if telemSrv != nil {
				shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				telemSrv.Shutdown(shutCtx)
				cancel()
			}
			if hubCancel != nil {
				hubCancel()
			}
			log.Info("伺服器已停止")
			return nil
		}
	}
}

// spawnActors places every configured spawn entry in-world. Entries with
// count > 1 get numbered names so each actor stays addressable.
func spawnActors(ws *world.State, archetypes *data.ArchetypeTable, spawns []data.SpawnEntry, bus *event.Bus, log *zap.Logger) int {
	total := 0
	for _, entry := range spawns {
		tpl := archetypes.Get(entry.Archetype)
		if tpl == nil {
			log.Warn("生成: 未知的原型 ID", zap.Int32("archetype", entry.Archetype))
			continue
		}
		base := entry.Name
		if base == "" {
			base = tpl.Name
		}
		for i := 0; i < entry.Count; i++ {
			x := entry.X
			y := entry.Y
			if entry.Spread > 0 {
				x += (rand.Float64()*2 - 1) * entry.Spread
				y += (rand.Float64()*2 - 1) * entry.Spread
			}
			name := base
			if entry.Count > 1 {
				name = fmt.Sprintf("%s-%d", base, i+1)
			}
			a, err := ws.SpawnFromTemplate(tpl, name, x, y)
			if err != nil {
				log.Warn("生成失敗", zap.String("name", name), zap.Error(err))
				continue
			}
			event.Emit(bus, event.ActorSpawned{
				ID:      a.ID,
				Name:    a.Name,
				Faction: a.Faction,
				Kind:    a.Kind,
				X:       a.X,
				Y:       a.Y,
			})
			total++
		}
	}
	return total
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
