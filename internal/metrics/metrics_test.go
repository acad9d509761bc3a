package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldstream/internal/world"
)

func TestStreamMetricsCountsTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStreamMetrics(reg)

	for i := 0; i < 3; i++ {
		m.ChunkLoaded(world.ChunkEvent{Source: world.SourceTerrain, Index: i, Entities: 160})
	}
	m.ChunkLoaded(world.ChunkEvent{Source: world.SourceFlora, Index: 0, Entities: 2})
	m.ChunkEvicted(world.ChunkEvent{Source: world.SourceTerrain, Index: 0, Entities: 160})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.loaded.WithLabelValues(world.SourceTerrain)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evicted.WithLabelValues(world.SourceTerrain)))
	assert.Equal(t, 480.0, testutil.ToFloat64(m.placed.WithLabelValues(world.SourceTerrain)))
	assert.Equal(t, 160.0, testutil.ToFloat64(m.removed.WithLabelValues(world.SourceTerrain)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.resident.WithLabelValues(world.SourceTerrain)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resident.WithLabelValues(world.SourceFlora)))
}

func TestStreamMetricsWithChunkManager(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStreamMetrics(reg)

	params := world.DefaultParams()
	src := world.NewTerrainSource(world.NewTerrain(params), params, world.WithObserver(m))
	host := world.NewLiveWorld()

	src.UpdateAroundObserver(0, host)
	src.UpdateAroundObserver(240, host)

	assert.Equal(t, 14.0, testutil.ToFloat64(m.loaded.WithLabelValues(world.SourceTerrain)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evicted.WithLabelValues(world.SourceTerrain)))
	assert.Equal(t, float64(len(src.ResidentChunks())), testutil.ToFloat64(m.resident.WithLabelValues(world.SourceTerrain)))

	expected := `
# HELP worldstream_chunks_evicted_total Общее число выгруженных чанков.
# TYPE worldstream_chunks_evicted_total counter
worldstream_chunks_evicted_total{source="terrain"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "worldstream_chunks_evicted_total"))
}

func TestProcessStats(t *testing.T) {
	ps, err := NewProcessStats()
	require.NoError(t, err)

	snap := ps.Snapshot()
	assert.NotEmpty(t, snap.Uptime)
	assert.Positive(t, snap.Goroutines)
	assert.GreaterOrEqual(t, snap.CPUPercent, 0.0)
	assert.Positive(t, snap.HeapMB)

	rss, err := ps.GetRSS()
	if err == nil {
		assert.Positive(t, rss)
	}
}

func TestProcessStatsUptimeFormat(t *testing.T) {
	ps := &ProcessStats{StartTime: time.Now().Add(-(26*time.Hour + 3*time.Minute + 4*time.Second))}
	assert.Equal(t, "1д 2ч 3м 4с", ps.GetUptime())

	ps.StartTime = time.Now().Add(-5 * time.Second)
	assert.Equal(t, "5с", ps.GetUptime())
}
