package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldstream/internal/app"
	"github.com/annel0/worldstream/internal/config"
	"github.com/annel0/worldstream/internal/world"
)

func newTestServer(t *testing.T) (*Server, *app.App) {
	t.Helper()

	cfg := config.Default()
	cfg.Sim.TickRate = 0
	cfg.Sim.ReportEvery = 0

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return NewServer(Config{World: a, Registry: a.Registry()}), a
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// decodeData разбирает GenericResponse и кладёт поле data в out
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) GenericResponse {
	t.Helper()

	var raw struct {
		GenericResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.GenericResponse
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStatus(t *testing.T) {
	s, a := newTestServer(t)

	rec := get(t, s, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var st app.Status
	resp := decodeData(t, rec, &st)
	assert.True(t, resp.Success)
	assert.Equal(t, a.Seed(), st.Seed)
	assert.Equal(t, a.World().Total(), st.LiveObjects)
	require.Len(t, st.Sources, 2)
	assert.Equal(t, world.SourceTerrain, st.Sources[0].Name)

	chunks := st.Sources[0].Chunks
	require.Len(t, chunks, 13)
	assert.Equal(t, app.ChunkStatus{Index: -6, Left: -1440, Right: -1201}, chunks[0])
	assert.Equal(t, app.ChunkStatus{Index: 6, Left: 1440, Right: 1679}, chunks[12])
}

func TestSource(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/sources/flora")
	require.Equal(t, http.StatusOK, rec.Code)
	var src app.SourceStatus
	decodeData(t, rec, &src)
	assert.Equal(t, world.SourceFlora, src.Name)
	assert.Equal(t, 240, src.ChunkSize)
	assert.Len(t, src.Chunks, 13)

	rec = get(t, s, "/api/sources/clouds")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decodeData(t, rec, nil).Success)
}

func TestTerrainHeights(t *testing.T) {
	s, a := newTestServer(t)

	rec := get(t, s, "/api/terrain?from=-31&to=29")
	require.Equal(t, http.StatusOK, rec.Code)

	var heights []ColumnHeight
	decodeData(t, rec, &heights)
	require.Len(t, heights, 3, "столбцы -60, -30 и 0")
	assert.Equal(t, -60, heights[0].X)
	for _, h := range heights {
		assert.Equal(t, a.Terrain().GroundHeightAt(float64(h.X)), h.Height)
	}
}

func TestTreesInSpan(t *testing.T) {
	s, a := newTestServer(t)

	rec := get(t, s, "/api/trees?from=-3000&to=3000")
	require.Equal(t, http.StatusOK, rec.Code)

	var trees []TreeInfo
	decodeData(t, rec, &trees)
	expected := a.Flora().GenerateTrees(-3000, 3000)
	require.Len(t, trees, len(expected))
	for i, tr := range expected {
		assert.Equal(t, tr.Position.X, trees[i].X)
		assert.Equal(t, tr.TrunkBlocks, trees[i].TrunkBlocks)
		assert.Equal(t, len(tr.Leaves()), trees[i].Leaves)
	}
}

func TestSpanRejectsBadRange(t *testing.T) {
	s, _ := newTestServer(t)

	for _, url := range []string{
		"/api/terrain?from=a&to=10",
		"/api/terrain?from=10",
		"/api/trees?from=100&to=0",
		"/api/terrain?from=0&to=1000000",
		"/api/terrain?from=-9000000000000000000&to=9000000000000000000",
		"/api/trees?from=-9000000000000000000&to=9000000000000000000",
	} {
		rec := get(t, s, url)
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
}

func TestSpanAtIntBoundary(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/terrain?from=9223372036854775800&to=9223372036854775800")
	require.Equal(t, http.StatusOK, rec.Code)

	var heights []ColumnHeight
	decodeData(t, rec, &heights)
	assert.Len(t, heights, 1, "один столбец у math.MaxInt")

	rec = get(t, s, "/api/trees?from=9223372036854775800&to=9223372036854775807")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerInfo(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/server")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"worldstream"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	get(t, s, "/api/sources/clouds")
	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `worldstream_chunks_loaded_total{source="terrain"} 13`)
	assert.Contains(t, string(body), `worldstream_http_request_errors_total{method="GET",path="/api/sources/:name",status="404"} 1`)
}
