package world

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldstream/internal/vec"
)

// hostCall — один вызов Place или Remove
type hostCall struct {
	place bool
	obj   *Object
	layer Layer
}

// recordingHost запоминает порядок вызовов и передаёт их в LiveWorld
type recordingHost struct {
	*LiveWorld
	calls []hostCall
}

func newRecordingHost() *recordingHost {
	return &recordingHost{LiveWorld: NewLiveWorld()}
}

func (h *recordingHost) Place(obj *Object, layer Layer) {
	h.calls = append(h.calls, hostCall{place: true, obj: obj, layer: layer})
	h.LiveWorld.Place(obj, layer)
}

func (h *recordingHost) Remove(obj *Object, layer Layer) {
	h.calls = append(h.calls, hostCall{place: false, obj: obj, layer: layer})
	h.LiveWorld.Remove(obj, layer)
}

func (h *recordingHost) reset() {
	h.calls = nil
}

// marker — простейшее содержимое чанка для проверки менеджера
type marker struct {
	obj *Object
}

func (m *marker) AddTo(host Host)      { host.Place(m.obj, LayerDefault) }
func (m *marker) RemoveFrom(host Host) { host.Remove(m.obj, LayerDefault) }

func markerGenerator(bounds *[][2]int) Generator[*marker] {
	return func(left, right int) []*marker {
		*bounds = append(*bounds, [2]int{left, right})
		pos := vec.Vec2Float{X: float64(left)}
		return []*marker{{obj: NewObject("marker", pos, vec.Square(1), BaseGroundColor)}}
	}
}

func testParams() Params {
	p := DefaultParams()
	p.Seed = 100
	return p
}

func TestChunkManagerInitialLoad(t *testing.T) {
	var bounds [][2]int
	obs := &countingObserver{}
	m := NewChunkManager("test", NewWindow(240, Range{Before: 6, After: 6}), markerGenerator(&bounds), WithObserver(obs))
	host := newRecordingHost()

	res := m.Update(0, host)

	assert.Equal(t, -6, res.Min)
	assert.Equal(t, 6, res.Max)
	assert.Empty(t, res.Evicted)
	assert.Equal(t, []int{-6, -5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6}, res.Loaded)
	assert.Equal(t, res.Loaded, m.Resident())
	assert.Equal(t, 13, obs.loaded)
	assert.Equal(t, 13, host.Total())

	// Генератор получает точные границы чанков по возрастанию индекса
	require.Len(t, bounds, 13)
	assert.Equal(t, [2]int{-1440, -1201}, bounds[0])
	assert.Equal(t, [2]int{0, 239}, bounds[6])
	assert.Equal(t, [2]int{1440, 1679}, bounds[12])
}

func TestChunkManagerIdempotentUpdate(t *testing.T) {
	var bounds [][2]int
	m := NewChunkManager("test", NewWindow(240, Range{Before: 6, After: 6}), markerGenerator(&bounds))
	host := newRecordingHost()

	m.Update(0, host)
	host.reset()
	generated := len(bounds)

	// Любая точка внутри того же центрального чанка ничего не меняет
	for _, x := range []float64{0, 50, -100, 119.9} {
		res := m.Update(x, host)
		assert.False(t, res.Changed(), "x=%v", x)
	}
	assert.Empty(t, host.calls, "повторный Update не должен трогать хост")
	assert.Equal(t, generated, len(bounds), "повторный Update не должен вызывать генератор")
}

func TestChunkManagerShiftByOneChunk(t *testing.T) {
	params := testParams()
	terrain := NewTerrain(params)
	src := NewTerrainSource(terrain, params)
	m := src.Manager()
	host := newRecordingHost()

	src.UpdateAroundObserver(0, host)
	before := make(map[int][]*Block)
	for _, idx := range m.Resident() {
		rec, ok := m.Record(idx)
		require.True(t, ok)
		before[idx] = rec
	}
	host.reset()

	res := src.UpdateAroundObserver(240, host)

	assert.Equal(t, []int{-6}, res.Evicted)
	assert.Equal(t, []int{7}, res.Loaded)
	assert.Equal(t, []int{-5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6, 7}, m.Resident())

	// Остальные чанки не пересоздавались
	for idx := -5; idx <= 6; idx++ {
		rec, ok := m.Record(idx)
		require.True(t, ok)
		require.Len(t, rec, len(before[idx]))
		for i := range rec {
			assert.Same(t, before[idx][i], rec[i], "чанк %d пересоздан", idx)
		}
	}

	// Сначала все удаления, затем все добавления
	require.Len(t, host.calls, 2*160)
	for i, c := range host.calls {
		if i < 160 {
			assert.False(t, c.place, "вызов %d должен быть Remove", i)
		} else {
			assert.True(t, c.place, "вызов %d должен быть Place", i)
		}
	}

	// Удалены ровно блоки чанка -6 в порядке их создания
	for i, b := range before[-6] {
		assert.Same(t, &b.Object, host.calls[i].obj)
		assert.Equal(t, LayerStaticObjects, host.calls[i].layer)
	}
}

func TestChunkManagerRandomWalkInvariant(t *testing.T) {
	params := testParams()
	terrain := NewTerrain(params)
	src := NewTerrainSource(terrain, params)
	m := src.Manager()
	host := NewLiveWorld()

	rng := rand.New(rand.NewSource(1))
	x := 0.0
	for step := 0; step < 200; step++ {
		x += float64(rng.Intn(2001) - 1000)
		src.UpdateAroundObserver(x, host)

		lo, hi := m.Window().Required(x)
		resident := m.Resident()
		require.Len(t, resident, hi-lo+1, "шаг %d", step)
		for i, idx := range resident {
			require.Equal(t, lo+i, idx, "шаг %d", step)
		}

		// Живой мир содержит ровно содержимое загруженных чанков
		require.Equal(t, m.Len()*160, host.Total(), "шаг %d", step)
	}
}

func TestChunkManagerRegenerationDeterminism(t *testing.T) {
	params := testParams()
	terrain := NewTerrain(params)
	flora := NewFlora(params, terrain.GroundHeightAt)
	trees := NewFloraSource(flora, params)
	ground := NewTerrainSource(terrain, params)
	host := NewLiveWorld()

	trees.UpdateAroundObserver(0, host)
	ground.UpdateAroundObserver(0, host)

	snapshots := func() map[int][]TreeSnapshot {
		out := make(map[int][]TreeSnapshot)
		for _, idx := range trees.ResidentChunks() {
			rec, _ := trees.Manager().Record(idx)
			for _, tr := range rec {
				out[idx] = append(out[idx], tr.Snapshot())
			}
		}
		return out
	}
	blocks := func() map[int][]Object {
		out := make(map[int][]Object)
		for _, idx := range ground.ResidentChunks() {
			rec, _ := ground.Manager().Record(idx)
			for _, b := range rec {
				obj := b.Object
				obj.ID = uuid.Nil
				out[idx] = append(out[idx], obj)
			}
		}
		return out
	}

	firstTrees := snapshots()
	firstBlocks := blocks()
	rec0, _ := trees.Manager().Record(0)
	oldTrees := append([]*Tree(nil), rec0...)

	// Уходим далеко и возвращаемся
	trees.UpdateAroundObserver(100000, host)
	ground.UpdateAroundObserver(100000, host)
	trees.UpdateAroundObserver(0, host)
	ground.UpdateAroundObserver(0, host)

	assert.Equal(t, firstTrees, snapshots())
	assert.Equal(t, firstBlocks, blocks())

	// Объекты созданы заново, а не взяты из старой записи
	rec0, _ = trees.Manager().Record(0)
	require.Len(t, rec0, len(oldTrees))
	for i := range rec0 {
		assert.NotSame(t, oldTrees[i], rec0[i])
		assert.NotEqual(t, oldTrees[i].Trunk().ID, rec0[i].Trunk().ID)
	}
}

func TestChunkManagerClear(t *testing.T) {
	params := testParams()
	terrain := NewTerrain(params)
	flora := NewFlora(params, terrain.GroundHeightAt)
	sources := []Streamer{NewTerrainSource(terrain, params), NewFloraSource(flora, params)}
	host := NewLiveWorld()

	for _, s := range sources {
		s.UpdateAroundObserver(-500, host)
	}
	require.Positive(t, host.Total())

	for _, s := range sources {
		evicted := s.Clear(host)
		assert.Len(t, evicted, 13, "источник %s", s.Name())
		assert.Empty(t, s.ResidentChunks())
	}
	assert.Zero(t, host.Total())

	placed, removed := host.Counters()
	assert.Equal(t, placed, removed)
}

func TestSourcesAreIndependent(t *testing.T) {
	params := testParams()
	params.Terrain = Range{Before: 1, After: 1}
	params.Flora = Range{Before: 3, After: 0}

	terrain := NewTerrain(params)
	flora := NewFlora(params, terrain.GroundHeightAt)
	ground := NewTerrainSource(terrain, params)
	trees := NewFloraSource(flora, params)
	host := NewLiveWorld()

	ground.UpdateAroundObserver(0, host)
	trees.UpdateAroundObserver(0, host)

	assert.Equal(t, SourceTerrain, ground.Name())
	assert.Equal(t, SourceFlora, trees.Name())
	assert.Equal(t, []int{-1, 0, 1}, ground.ResidentChunks())
	assert.Equal(t, []int{-3, -2, -1, 0}, trees.ResidentChunks())
}
