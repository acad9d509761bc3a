package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/worldstream/internal/eventbus"
	"github.com/annel0/worldstream/internal/world"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "15:04:05.000"
)

func main() {
	var (
		natsURL  = flag.String("nats", defaultNatsURL, "NATS server URL")
		stream   = flag.String("stream", "WORLDSTREAM", "JetStream stream name")
		command  = flag.String("cmd", "tail", "Command: tail, stats, preview")
		types    = flag.String("types", "", "Event types filter (comma-separated)")
		sources  = flag.String("sources", "", "Sources filter (comma-separated: terrain, flora)")
		limit    = flag.Int("limit", 100, "Maximum number of events")
		follow   = flag.Bool("follow", false, "Follow new events (like tail -f)")
		duration = flag.Duration("for", 10*time.Second, "Collection window for stats")
		seed     = flag.Int("seed", 100, "World seed for preview")
		from     = flag.Int("from", -720, "Left world x for preview")
		to       = flag.Int("to", 720, "Right world x for preview")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filter := eventbus.Filter{Types: parseStringList(*types), Sources: parseStringList(*sources)}

	// Выполняем команду
	switch *command {
	case "tail":
		bus := connect(*natsURL, *stream)
		defer bus.Close()
		if err := tailEvents(ctx, bus, filter, *limit, *follow); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "stats":
		bus := connect(*natsURL, *stream)
		defer bus.Close()
		if err := showStats(ctx, bus, filter, *duration); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}

	case "preview":
		params := world.DefaultParams()
		params.Seed = int32(*seed)
		preview(params, *from, *to)

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, preview")
		os.Exit(1)
	}
}

func connect(url, stream string) *eventbus.JetStreamBus {
	bus, err := eventbus.NewJetStreamBus(url, stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	return bus
}

// tailEvents выводит события чанков в реальном времени
func tailEvents(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, limit int, follow bool) error {
	fmt.Printf("🎬 Tailing chunk events (limit: %d, follow: %v)\n", limit, follow)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		count int
	)
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()

		printEvent(ev)
		count++

		// Если не follow режим и достигли лимита, выходим
		if !follow && count >= limit {
			cancel()
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()

	mu.Lock()
	fmt.Printf("\n📊 Total events: %d\n", count)
	mu.Unlock()
	return nil
}

// showStats собирает события за окно и выводит их количество по типам и источникам
func showStats(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, window time.Duration) error {
	fmt.Printf("📊 Collecting chunk events for %s\n", window)

	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	var mu sync.Mutex
	counts := make(map[string]int)
	entities := make(map[string]int)

	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		key := ev.Source + "/" + ev.EventType
		p, err := eventbus.DecodeChunkPayload(ev)

		mu.Lock()
		defer mu.Unlock()
		counts[key]++
		if err == nil {
			entities[key] += p.Entities
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("\nBy source/event type:")
	for _, k := range keys {
		fmt.Printf("  %s: %d events, %d entities\n", k, counts[k], entities[k])
	}
	return nil
}

// preview печатает профиль рельефа и деревья без подключения к NATS
func preview(params world.Params, from, to int) {
	terrain := world.NewTerrain(params)
	flora := world.NewFlora(params, terrain.GroundHeightAt)

	fmt.Printf("🌍 seed=%d noise=%s ground(x=0)=%d\n", params.Seed, terrain.NoiseKind(), terrain.GroundHeightAtX0())
	for _, tree := range flora.GenerateTrees(from, to) {
		fmt.Printf("  🌳 x=%-6.0f ground=%-4.0f trunk=%d leaves=%d fruits=%d\n",
			tree.Position.X, tree.Position.Y, tree.TrunkBlocks, len(tree.Leaves()), len(tree.Fruits()))
	}

	columns := terrain.GenerateColumns(from, to)
	fmt.Printf("  ⛰  %d ground blocks in [%d, %d]\n", len(columns), from, to)
}

// printEvent выводит событие в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s [%s] chunk=%s entities=%s %s\n",
		ev.Timestamp.Format(timeFormat),
		ev.Source,
		ev.EventType,
		ev.Metadata["index"],
		ev.Metadata["entities"],
		ev.ID)
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
