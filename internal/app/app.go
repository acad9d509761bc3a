package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/worldstream/internal/config"
	"github.com/annel0/worldstream/internal/eventbus"
	"github.com/annel0/worldstream/internal/logging"
	"github.com/annel0/worldstream/internal/metrics"
	"github.com/annel0/worldstream/internal/observability"
	"github.com/annel0/worldstream/internal/world"
)

// SourceReport — изменения одного источника за тик
type SourceReport struct {
	Name     string
	Loaded   []int
	Evicted  []int
	Resident int
}

// TickReport описывает результат одного тика
type TickReport struct {
	Tick        uint64
	ObserverX   float64
	Sources     []SourceReport
	LiveObjects int
}

// Changed сообщает, загружался или выгружался ли хоть один чанк
func (r TickReport) Changed() bool {
	for _, s := range r.Sources {
		if len(s.Loaded) > 0 || len(s.Evicted) > 0 {
			return true
		}
	}
	return false
}

// App связывает живой мир, источники содержимого и наблюдателя,
// которого headless-хост двигает по миру.
type App struct {
	cfg    *config.Config
	params world.Params

	live    *world.LiveWorld
	terrain *world.Terrain
	flora   *world.Flora
	sources []world.Streamer

	registry    *prometheus.Registry
	stream      *metrics.StreamMetrics
	process     *metrics.ProcessStats
	bus         eventbus.EventBus
	busExporter *eventbus.MetricsExporter
	store       SessionBackend

	tracer trace.Tracer
	log    *logging.Logger

	mu        sync.RWMutex
	observerX float64
	direction float64
	tick      uint64
	closed    bool
}

// New собирает приложение по конфигурации и подгружает мир вокруг стартовой точки.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		params:    cfg.World,
		live:      world.NewLiveWorld(),
		registry:  prometheus.NewRegistry(),
		tracer:    observability.Tracer(),
		log:       logging.GetComponentLogger("app"),
		observerX: cfg.Sim.StartX,
		direction: 1,
	}

	if err := a.openStore(); err != nil {
		return nil, err
	}

	if err := a.openBus(); err != nil {
		a.closeStore()
		return nil, err
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.stream = metrics.NewStreamMetrics(a.registry)
	a.busExporter = eventbus.NewMetricsExporter(a.bus, a.registry)
	a.busExporter.Start()

	if ps, err := metrics.NewProcessStats(); err != nil {
		a.log.Warn("метрики процесса недоступны: %v", err)
	} else {
		a.process = ps
	}

	observers := world.ChunkObservers{a.stream, eventbus.NewChunkEventPublisher(a.bus)}

	// Земля регистрируется первой: её чанки размещаются раньше деревьев
	a.terrain = world.NewTerrain(a.params)
	a.flora = world.NewFlora(a.params, a.terrain.GroundHeightAt)
	streamLog := world.WithLogger(logging.GetStreamLogger())
	a.sources = []world.Streamer{
		world.NewTerrainSource(a.terrain, a.params, world.WithObserver(observers), streamLog),
		world.NewFloraSource(a.flora, a.params, world.WithObserver(observers), streamLog),
	}

	a.log.Info("🌍 Мир: seed=%d, noise=%s, chunk=%d, земля на y=%d", a.params.Seed, a.terrain.NoiseKind(), a.params.ChunkSize(), a.terrain.GroundHeightAtX0())

	report := a.UpdateAt(context.Background(), a.observerX)
	a.log.Info("Начальная подгрузка в x=%.0f: %d объектов", a.observerX, report.LiveObjects)
	return a, nil
}

// openStore открывает хранилище сессии и при необходимости восстанавливает её
func (a *App) openStore() error {
	sc := a.cfg.State
	if !sc.Enabled() {
		return nil
	}

	var (
		store SessionBackend
		err   error
	)
	if sc.Backend == config.StateRedis {
		store, err = OpenRedisSessionStore(context.Background(), RedisOptions{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
			TTL:      time.Duration(sc.Redis.TTLMinutes) * time.Minute,
		})
	} else {
		store, err = OpenSessionStore(sc.Dir)
	}
	if err != nil {
		return err
	}
	a.store = store

	if !a.cfg.State.Resume {
		return nil
	}

	state, ok, err := store.Load()
	if err != nil {
		a.closeStore()
		return err
	}
	if !ok {
		a.log.Info("Сохранённой сессии нет, начинаем с x=%.0f", a.observerX)
		return nil
	}

	a.params.Seed = state.Seed
	a.observerX = state.ObserverX
	a.tick = state.Tick
	if state.Direction != 0 {
		a.direction = state.Direction
	}
	a.log.Info("♻️ Сессия восстановлена: seed=%d, x=%.0f, tick=%d", state.Seed, state.ObserverX, state.Tick)
	return nil
}

// openBus создаёт шину событий: JetStream, если задан URL, иначе in-memory
func (a *App) openBus() error {
	bc := a.cfg.EventBus
	if bc.URL != "" {
		bus, err := eventbus.NewJetStreamBus(bc.URL, bc.Stream, bc.GetRetention())
		if err != nil {
			return fmt.Errorf("event bus: %w", err)
		}
		a.bus = bus
		a.log.Info("📨 События чанков публикуются в NATS JetStream %s (stream=%s)", bc.URL, bc.Stream)
	} else {
		a.bus = eventbus.NewMemoryBus(bc.Capacity)
	}

	if _, err := eventbus.StartLoggingListener(a.bus); err != nil {
		a.bus.Close()
		return fmt.Errorf("event bus listener: %w", err)
	}
	return nil
}

// Registry возвращает реестр метрик приложения
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// World возвращает живой мир
func (a *App) World() *world.LiveWorld {
	return a.live
}

// Terrain возвращает генератор рельефа
func (a *App) Terrain() *world.Terrain {
	return a.terrain
}

// Flora возвращает генератор растительности
func (a *App) Flora() *world.Flora {
	return a.flora
}

// Process возвращает метрики процесса; nil, если gopsutil недоступен
func (a *App) Process() *metrics.ProcessStats {
	return a.process
}

// Sources возвращает источники содержимого в порядке обновления
func (a *App) Sources() []world.Streamer {
	return a.sources
}

// Bus возвращает шину событий чанков
func (a *App) Bus() eventbus.EventBus {
	return a.bus
}

// Seed возвращает сид мира
func (a *App) Seed() int32 {
	return a.params.Seed
}

// ObserverX возвращает текущую позицию наблюдателя
func (a *App) ObserverX() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.observerX
}

// ChunkStatus — загруженный чанк источника и его границы
type ChunkStatus struct {
	Index int `json:"index"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

// SourceStatus — состояние одного источника
type SourceStatus struct {
	Name      string        `json:"name"`
	ChunkSize int           `json:"chunk_size"`
	Before    int           `json:"before"`
	After     int           `json:"after"`
	Chunks    []ChunkStatus `json:"chunks"`
}

// Status — согласованный срез состояния мира для внешних наблюдателей
type Status struct {
	Seed        int32          `json:"seed"`
	Noise       string         `json:"noise"`
	Tick        uint64         `json:"tick"`
	ObserverX   float64        `json:"observer_x"`
	Direction   float64        `json:"direction"`
	LiveObjects int            `json:"live_objects"`
	Placed      uint64         `json:"placed"`
	Removed     uint64         `json:"removed"`
	Sources     []SourceStatus `json:"sources"`
}

// Status возвращает срез состояния. Безопасен для вызова параллельно с Run.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	placed, removed := a.live.Counters()
	st := Status{
		Seed:        a.params.Seed,
		Noise:       string(a.terrain.NoiseKind()),
		Tick:        a.tick,
		ObserverX:   a.observerX,
		Direction:   a.direction,
		LiveObjects: a.live.Total(),
		Placed:      placed,
		Removed:     removed,
		Sources:     make([]SourceStatus, 0, len(a.sources)),
	}

	for _, src := range a.sources {
		w := src.Window()
		ss := SourceStatus{Name: src.Name(), ChunkSize: w.ChunkSize, Before: w.Before, After: w.After}
		for _, idx := range src.ResidentChunks() {
			left, right := w.Bounds(idx)
			ss.Chunks = append(ss.Chunks, ChunkStatus{Index: idx, Left: left, Right: right})
		}
		st.Sources = append(st.Sources, ss)
	}
	return st
}

// Tick сдвигает наблюдателя и обновляет все источники вокруг новой позиции.
// После Close ничего не делает.
func (a *App) Tick(ctx context.Context) TickReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return TickReport{Tick: a.tick, ObserverX: a.observerX}
	}

	a.tick++
	a.observerX += a.cfg.Sim.Speed * a.direction
	if p := a.cfg.Sim.PatrolTicks; p > 0 && a.tick%uint64(p) == 0 {
		a.direction = -a.direction
	}
	return a.updateAt(ctx, a.observerX)
}

// UpdateAt обновляет все источники вокруг observerX, не двигая наблюдателя по сценарию.
func (a *App) UpdateAt(ctx context.Context, observerX float64) TickReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return TickReport{Tick: a.tick, ObserverX: a.observerX}
	}
	return a.updateAt(ctx, observerX)
}

func (a *App) updateAt(ctx context.Context, observerX float64) TickReport {
	_, span := a.tracer.Start(ctx, "worldstream.tick")
	defer span.End()

	a.observerX = observerX
	report := TickReport{
		Tick:      a.tick,
		ObserverX: observerX,
		Sources:   make([]SourceReport, 0, len(a.sources)),
	}

	for _, src := range a.sources {
		res := src.UpdateAroundObserver(observerX, a.live)
		report.Sources = append(report.Sources, SourceReport{
			Name:     src.Name(),
			Loaded:   res.Loaded,
			Evicted:  res.Evicted,
			Resident: len(src.ResidentChunks()),
		})
		span.SetAttributes(
			attribute.Int(src.Name()+".loaded", len(res.Loaded)),
			attribute.Int(src.Name()+".evicted", len(res.Evicted)),
		)
	}
	report.LiveObjects = a.live.Total()

	span.SetAttributes(
		attribute.Int64("tick", int64(a.tick)),
		attribute.Float64("observer.x", observerX),
		attribute.Int("live.objects", report.LiveObjects),
	)
	return report
}

// Run выполняет steps тиков (0 — пока не отменён ctx) с частотой sim.tick_rate.
// Отмена ctx — штатное завершение.
func (a *App) Run(ctx context.Context, steps int) error {
	var ticker *time.Ticker
	if a.cfg.Sim.TickRate > 0 {
		ticker = time.NewTicker(a.cfg.Sim.TickRate)
		defer ticker.Stop()
	}

	a.log.Info("▶️ Наблюдатель стартует из x=%.0f, скорость %.1f за тик", a.ObserverX(), a.cfg.Sim.Speed)

	for done := 0; steps <= 0 || done < steps; done++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		report := a.Tick(ctx)
		if every := a.cfg.Sim.ReportEvery; every > 0 && report.Tick%uint64(every) == 0 {
			a.logReport(report)
		}
	}
	return nil
}

func (a *App) logReport(r TickReport) {
	msg := fmt.Sprintf("tick=%d x=%.0f objects=%d", r.Tick, r.ObserverX, r.LiveObjects)
	for _, s := range r.Sources {
		msg += fmt.Sprintf(" %s=%d", s.Name, s.Resident)
	}
	if a.process != nil {
		snap := a.process.Snapshot()
		msg += fmt.Sprintf(" rss=%.1fMB heap=%.1fMB cpu=%.1f%% uptime=%s", snap.RSSMB, snap.HeapMB, snap.CPUPercent, snap.Uptime)
	}
	a.log.Info("📊 %s", msg)
}

// Close сохраняет сессию, выгружает все чанки и освобождает ресурсы.
// После Close живой мир пуст.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error

	if a.store != nil {
		err := a.store.Save(SessionState{
			Seed:      a.params.Seed,
			ObserverX: a.observerX,
			Direction: a.direction,
			Tick:      a.tick,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	for _, src := range a.sources {
		evicted := src.Clear(a.live)
		a.log.Debug("%s: выгружено %d чанков", src.Name(), len(evicted))
	}

	if err := a.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	a.busExporter.Stop()

	if err := a.closeStore(); err != nil {
		errs = append(errs, err)
	}

	placed, removed := a.live.Counters()
	a.log.Info("👋 Мир выгружен: размещено %d, удалено %d объектов", placed, removed)
	return errors.Join(errs...)
}

func (a *App) closeStore() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
