package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldstream/internal/world"
)

// collector собирает полученные события
type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) snapshot() []*Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Envelope(nil), c.events...)
}

func (c *collector) len() int {
	return len(c.snapshot())
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	all, flora := &collector{}, &collector{}
	_, err := bus.Subscribe(context.Background(), Filter{}, all.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Sources: []string{world.SourceFlora}}, flora.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventChunkLoaded, world.SourceTerrain, nil)))
	require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventChunkLoaded, world.SourceFlora, nil)))

	assert.Eventually(t, func() bool { return all.len() == 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return flora.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, world.SourceFlora, flora.snapshot()[0].Source)
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	c := &collector{}
	sub, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventChunkLoaded, world.SourceTerrain, nil)))
	require.NoError(t, bus.Close())
	assert.Zero(t, c.len())
}

func TestMemoryBusCloseDeliversAccepted(t *testing.T) {
	bus := NewMemoryBus(64)
	c := &collector{}
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventChunkEvicted, world.SourceTerrain, nil)))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, 50, c.len(), "Close дожидается доставки принятых событий")
	assert.ErrorIs(t, bus.Publish(context.Background(), NewEnvelope(EventChunkLoaded, "", nil)), ErrBusClosed)
	_, err = bus.Subscribe(context.Background(), Filter{}, c.handle)
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.NoError(t, bus.Close(), "повторный Close безопасен")

	stats := bus.Metrics()
	assert.Equal(t, uint64(50), stats.Published)
	assert.Equal(t, uint64(50), stats.Consumed)
}

func TestChunkEventPublisher(t *testing.T) {
	bus := NewMemoryBus(256)
	c := &collector{}
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	params := world.DefaultParams()
	pub := NewChunkEventPublisher(bus)
	src := world.NewTerrainSource(world.NewTerrain(params), params, world.WithObserver(pub))
	host := world.NewLiveWorld()

	src.UpdateAroundObserver(0, host)
	src.UpdateAroundObserver(240, host)
	require.NoError(t, bus.Close())

	events := c.snapshot()
	require.Len(t, events, 13+2, "одно событие на каждую загрузку и выгрузку")

	loaded, evicted := 0, 0
	for _, ev := range events {
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, world.SourceTerrain, ev.Source)
		switch ev.EventType {
		case EventChunkLoaded:
			loaded++
		case EventChunkEvicted:
			evicted++
		}
	}
	assert.Equal(t, 14, loaded)
	assert.Equal(t, 1, evicted)

	// События идут в порядке переходов: выгрузка -6 перед загрузкой 7
	last, prev := events[len(events)-1], events[len(events)-2]
	assert.Equal(t, EventChunkEvicted, prev.EventType)
	assert.Equal(t, "-6", prev.Metadata["index"])
	assert.Equal(t, EventChunkLoaded, last.EventType)

	payload, err := DecodeChunkPayload(last)
	require.NoError(t, err)
	assert.Equal(t, ChunkPayload{Source: world.SourceTerrain, Index: 7, Left: 1680, Right: 1919, Entities: 160}, payload)
	assert.Equal(t, "160", last.Metadata["entities"])
}

func TestLoggingListener(t *testing.T) {
	bus := NewMemoryBus(4)
	sub, err := StartLoggingListener(bus)
	require.NoError(t, err)
	require.NotNil(t, sub)

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventChunkLoaded, world.SourceFlora, nil)))
	require.NoError(t, bus.Close())
	assert.Equal(t, uint64(1), bus.Metrics().Consumed)
}

func TestMetricsExporter(t *testing.T) {
	reg := prometheus.NewRegistry()
	bus := NewMemoryBus(8)
	exp := NewMetricsExporter(bus, reg)
	exp.Start()

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventChunkLoaded, world.SourceTerrain, nil)))
	}
	require.NoError(t, bus.Close())
	exp.Stop()

	assert.Equal(t, 3.0, testutil.ToFloat64(exp.published))
	assert.Zero(t, testutil.ToFloat64(exp.dropped))
}

func TestSubjects(t *testing.T) {
	ev := NewEnvelope(EventChunkLoaded, world.SourceFlora, nil)
	assert.Equal(t, "worldstream.flora.ChunkLoaded", Subject(ev))
	assert.Equal(t, "worldstream.*.*", subjectFor(Filter{}))
	assert.Equal(t, "worldstream.terrain.*", subjectFor(Filter{Sources: []string{world.SourceTerrain}}))
	assert.Equal(t, "worldstream.*.ChunkEvicted", subjectFor(Filter{Types: []string{EventChunkEvicted}}))
	assert.Equal(t, "worldstream.*.*", subjectFor(Filter{Types: []string{EventChunkEvicted, EventChunkLoaded}}))
}
