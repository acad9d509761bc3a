package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/worldstream/internal/api"
	"github.com/annel0/worldstream/internal/app"
	"github.com/annel0/worldstream/internal/config"
	"github.com/annel0/worldstream/internal/logging"
	"github.com/annel0/worldstream/internal/metrics"
	"github.com/annel0/worldstream/internal/observability"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: $WORLDSTREAM_CONFIG)")
		steps      = flag.Int("steps", 0, "Number of ticks to run (0 = until interrupted)")
		speed      = flag.Float64("speed", 0, "Observer speed per tick (overrides sim.speed)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *speed != 0 {
		cfg.Sim.Speed = *speed
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	logging.Configure(logging.Options{Dir: cfg.Logging.Dir, ConsoleLevel: level, FileLevel: logging.DEBUG})

	os.Exit(run(cfg, *steps))
}

// run запускает мир и возвращает код выхода; все defer отрабатывают до os.Exit
func run(cfg *config.Config, steps int) int {
	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("worldstream"); err != nil {
		log.Printf("❌ Ошибка инициализации логирования: %v", err)
		return 1
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🌲 Запуск worldstream...")
	if cfg.RandomSeed {
		logging.Info("🎲 Выбран случайный сид мира: %d", cfg.World.Seed)
	}

	// Канал для получения сигналов ОС
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.Options{
			ServiceName: cfg.Telemetry.Service,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
		})
		if err != nil {
			logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Error("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === МИР ===
	world, err := app.New(cfg)
	if err != nil {
		logging.Error("❌ Ошибка создания мира: %v", err)
		return 1
	}

	// === МЕТРИКИ ===
	if cfg.Metrics.Enabled {
		addr := fmt.Sprintf(":%d", cfg.Metrics.GetMetricsPort())
		srv := metrics.StartHTTP(addr, world.Registry())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.Shutdown(shutdownCtx, srv); err != nil {
				logging.Error("Ошибка остановки HTTP метрик: %v", err)
			}
		}()
	}

	// === HTTP API ===
	if cfg.API.Enabled {
		apiServer := api.NewServer(api.Config{
			Addr:     cfg.API.Addr,
			World:    world,
			Registry: world.Registry(),
		})
		apiServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiServer.Shutdown(shutdownCtx); err != nil {
				logging.Error("Ошибка остановки HTTP API: %v", err)
			}
		}()
	}

	logging.Info("✅ Мир запущен, ожидание сигналов завершения...")

	runErr := world.Run(ctx, steps)
	if ctx.Err() != nil {
		logging.Info("📡 Получен сигнал завершения, остановка...")
	}

	// === GRACEFUL SHUTDOWN ===
	if err := world.Close(); err != nil {
		logging.Error("❌ Ошибка остановки мира: %v", err)
	}
	if runErr != nil {
		logging.Error("❌ Ошибка цикла мира: %v", runErr)
		return 1
	}

	logging.Info("👋 worldstream успешно остановлен")
	return 0
}
