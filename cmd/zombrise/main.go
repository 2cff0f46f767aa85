package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/zombrise/server/internal/config"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/data"
	"github.com/zombrise/server/internal/handler"
	gonet "github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/physics"
	"github.com/zombrise/server/internal/replication"
	"github.com/zombrise/server/internal/scripting"
	"github.com/zombrise/server/internal/system"
	"github.com/zombrise/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             Zombrise  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       殭屍生存 · Go 權威遊戲伺服器        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s\n\n", serverName)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := max(46-displayWidth(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-displayWidth(label)-len(numStr), 3)
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
	configFlag := flag.String("config", "", "path to server.toml (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(config.ResolvePath(*configFlag))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Arena layout and physics
	printSection("資料載入")
	arena, err := data.LoadArena(cfg.Arena.File)
	if err != nil {
		return fmt.Errorf("load arena: %w", err)
	}
	printStat("樹木", len(arena.Trees))

	engine := physics.NewResolvEngine(physics.Params{
		GroundTop:      arena.Ground.Top(),
		GroundHalfSize: arena.Ground.HalfExtent,
	})

	seed := cfg.Server.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ws := world.NewState(engine, seed, log)
	ws.SpawnArena(arena)

	// 4. Gameplay rules, optionally overridden by Lua
	var rules system.Rules = system.DefaultRules{}
	if cfg.Scripting.Enabled {
		scripts, err := scripting.NewEngine(cfg.Scripting.Dir, system.DefaultRules{}, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer scripts.Close()
		rules = scripts
		printOK(fmt.Sprintf("Lua 腳本已載入 (%s)", cfg.Scripting.Dir))
	}
	fmt.Println()

	// 5. Replication and packet handlers
	encoder := replication.NewEncoder(ws, log)

	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, &handler.Deps{
		Config:  cfg,
		Log:     log,
		World:   ws,
		Encoder: encoder,
	})

	// 6. Transports
	codec, err := gonet.NewCodec(cfg.Network.CompressThreshold)
	if err != nil {
		return fmt.Errorf("frame codec: %w", err)
	}
	defer codec.Close()

	pktPerSec := 0
	if cfg.RateLimit.Enabled {
		pktPerSec = cfg.RateLimit.PacketsPerSecond
	}
	hub := gonet.NewHub(cfg.Network.MaxClients, gonet.SessionOptions{
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		PktPerSec:    pktPerSec,
		ReadTimeout:  cfg.Network.ReadTimeout,
		WriteTimeout: cfg.Network.WriteTimeout,
	}, codec, log)

	tcpServer, err := gonet.NewServer(cfg.Network.BindAddress, hub, log)
	if err != nil {
		return fmt.Errorf("tcp server: %w", err)
	}
	var wsServer *gonet.WSServer
	if cfg.Network.WSAddress != "" {
		wsServer, err = gonet.NewWSServer(cfg.Network.WSAddress, cfg.Network.WSPath, hub, log)
		if err != nil {
			tcpServer.Shutdown()
			return fmt.Errorf("websocket server: %w", err)
		}
	}

	// 7. Systems
	store := gonet.NewSessionStore()
	runner := coresys.NewRunner()
	system.Register(runner, system.Deps{
		Config:  cfg,
		World:   ws,
		Source:  hub,
		Packets: pktReg,
		Store:   store,
		Encoder: encoder,
		Rules:   rules,
		Started: time.Unix(cfg.Server.StartTime, 0),
		Log:     log,
	})

	// 8. Run
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	grp, ctx := errgroup.WithContext(ctx)

	tick := cfg.Network.TickInterval()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("TCP 監聽位址 %s", tcpServer.Addr()))
	if wsServer != nil {
		printReady(fmt.Sprintf("WebSocket 監聽位址 %s%s", wsServer.Addr(), cfg.Network.WSPath))
	}
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", tick))
	fmt.Println()

	grp.Go(func() error {
		tcpServer.AcceptLoop()
		return nil
	})
	if wsServer != nil {
		grp.Go(wsServer.Serve)
	}
	grp.Go(func() error {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runner.Tick(tick)
			case <-ctx.Done():
				// Sessions belong to the game loop; close them here.
				store.ForEach(func(s *gonet.Session) { s.Close() })
				return nil
			}
		}
	})
	grp.Go(func() error {
		<-ctx.Done()
		log.Info("收到關閉信號，停止伺服器")
		tcpServer.Shutdown()
		if wsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := wsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("websocket shutdown: %w", err)
			}
		}
		return nil
	})

	if err := grp.Wait(); err != nil {
		return err
	}
	log.Info("伺服器已停止", zap.Uint64("ticks", runner.Ticks()))
	return nil
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
