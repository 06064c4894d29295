package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dogwalk-server/internal/agent"
	"dogwalk-server/internal/engine"
	"dogwalk-server/internal/infrastructure/storage"
	"dogwalk-server/internal/loader"
	"dogwalk-server/internal/server"
	"dogwalk-server/internal/version"
	"dogwalk-server/pkg/logger"
)

const listenAddr = "0.0.0.0:8080"

func init() {
	logger.Init()
}

// args - разобранная командная строка сервера.
type args struct {
	configFile     string
	wwwRoot        string
	tickPeriodMs   int
	randomizeSpawn bool
	seed           int64
	bots           int
	botPeriodMs    int
}

func parseArgs() args {
	var a args
	flag.StringVar(&a.configFile, "config-file", "", "set game config file path")
	flag.StringVar(&a.configFile, "c", "", "set game config file path (shorthand)")
	flag.StringVar(&a.wwwRoot, "www-root", "", "set static files root")
	flag.StringVar(&a.wwwRoot, "w", "", "set static files root (shorthand)")
	flag.IntVar(&a.tickPeriodMs, "tick-period", 0, "set tick period in milliseconds")
	flag.IntVar(&a.tickPeriodMs, "t", 0, "set tick period in milliseconds (shorthand)")
	flag.BoolVar(&a.randomizeSpawn, "randomize-spawn-points", false, "spawn dogs at random positions")
	flag.Int64Var(&a.seed, "seed", 0, "master seed (0 for random)")
	flag.IntVar(&a.bots, "bots", 0, "number of headless bots to start")
	flag.IntVar(&a.botPeriodMs, "bot-period", 500, "bot steering period in milliseconds")
	flag.Parse()
	return a
}

func main() {
	// 1. Парсинг конфигурации
	a := parseArgs()

	logger.Log.Info("Starting dog walk server...")
	logger.Log.Info(version.String())

	if a.configFile == "" {
		logger.Log.Fatal("--config-file (or -c) is required")
	}
	if a.wwwRoot == "" {
		logger.Log.Fatal("--www-root (or -w) is required")
	}
	// Явно переданный нулевой или отрицательный период - ошибка,
	// а не молчаливый переход в ручной режим.
	tickFlagSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "tick-period" || f.Name == "t" {
			tickFlagSet = true
		}
	})
	if tickFlagSet && a.tickPeriodMs <= 0 {
		logger.Log.Fatal("--tick-period must be positive")
	}

	settings, err := loader.Load(a.configFile)
	if err != nil {
		logger.Log.Fatal("Failed to load game config:", err)
	}

	dbURL := os.Getenv("GAME_DB_URL")
	if dbURL == "" {
		logger.Log.Fatal("GAME_DB_URL environment variable is not set")
	}

	// 2. Хранилище рекордов
	store, err := storage.NewRecordStore(dbURL)
	if err != nil {
		logger.Log.Fatal("Failed to open record store:", err)
	}
	defer store.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 10*time.Second)
	err = store.EnsureSchema(schemaCtx)
	cancelSchema()
	if err != nil {
		logger.Log.Fatal("Failed to prepare records schema:", err)
	}

	// 3. Игровое ядро
	cfg := engine.NewConfig()
	if a.seed != 0 {
		cfg.Seed = a.seed
		logger.Log.Infof("🎲 Using explicit master seed: %d", cfg.Seed)
	} else {
		logger.Log.Infof("🎲 Using random master seed: %d", cfg.Seed)
	}
	cfg.RandomizeSpawnPoints = a.randomizeSpawn
	cfg.Tuning = engine.Tuning{
		RetireAfter:     settings.RetireAfter,
		LootInterval:    settings.LootInterval,
		LootProbability: settings.LootProbability,
	}

	game := engine.NewGame(cfg, settings.Maps, store)
	game.Start()

	// Горячая перезагрузка тюнинга при правке конфига. Геометрия карт
	// при этом не трогается, см. loader.Watch.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if err := loader.Watch(watchCtx, a.configFile, func(s *loader.Settings) {
		err := game.UpdateTuning(engine.Tuning{
			RetireAfter:     s.RetireAfter,
			LootInterval:    s.LootInterval,
			LootProbability: s.LootProbability,
		})
		if err != nil {
			logger.Log.WithError(err).Warn("failed to apply reloaded tuning")
		}
	}); err != nil {
		logger.Log.WithError(err).Warn("config watcher is not running")
	}

	autoTick := a.tickPeriodMs > 0
	var ticker *engine.Ticker
	if autoTick {
		ticker = engine.NewTicker(game, time.Duration(a.tickPeriodMs)*time.Millisecond)
		ticker.Start()
	} else {
		logger.Log.Info("Manual tick mode: time advances via /api/v1/game/tick")
	}

	// 4. Боты
	botCtx, stopBots := context.WithCancel(context.Background())
	for i := 0; i < a.bots; i++ {
		bot := agent.New(game, "bot-"+strconv.Itoa(i), time.Duration(a.botPeriodMs)*time.Millisecond)
		go func() {
			if err := bot.Run(botCtx); err != nil {
				logger.Log.WithError(err).Warn("bot exited with error")
			}
		}()
	}

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 5. Запуск сервера
	srv, err := server.New(game, store, server.Options{
		Addr:     listenAddr,
		WWWRoot:  a.wwwRoot,
		AutoTick: autoTick,
	})
	if err != nil {
		logger.Log.Fatal("Server init error:", err)
	}

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error:", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")

	// Порядок важен: сначала глушим источники команд (тикер, боты,
	// HTTP), затем ядро - чтобы последние рекорды успели записаться
	// до закрытия хранилища.
	if ticker != nil {
		ticker.Stop()
	}
	stopBots()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("HTTP shutdown was not clean")
	}

	stopWatch()
	game.Stop()

	logger.Log.Info("Done.")
}
