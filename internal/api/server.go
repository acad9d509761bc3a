package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/worldstream/internal/app"
	"github.com/annel0/worldstream/internal/logging"
	"github.com/annel0/worldstream/internal/metrics"
	"github.com/annel0/worldstream/internal/util"
	"github.com/annel0/worldstream/internal/world"
)

// maxSpanColumns ограничивает ширину запросов к рельефу и деревьям (в столбцах сетки)
const maxSpanColumns = 4096

// WorldView — то, что API читает из запущенного мира
type WorldView interface {
	Status() app.Status
	Terrain() *world.Terrain
	Flora() *world.Flora
	Process() *metrics.ProcessStats
}

// Config содержит конфигурацию HTTP API
type Config struct {
	Addr     string               // адрес для запуска сервера
	World    WorldView            // источник состояния мира
	Registry *prometheus.Registry // реестр для /metrics и HTTP-метрик
}

// Server — HTTP API только для чтения состояния мира
type Server struct {
	router *gin.Engine
	world  WorldView
	addr   string
	srv    *http.Server
	log    *logging.Logger
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ColumnHeight — высота земли в столбце сетки
type ColumnHeight struct {
	X      int     `json:"x"`
	Height float64 `json:"height"`
}

// TreeInfo — описание дерева для API
type TreeInfo struct {
	X           float64 `json:"x"`
	Ground      float64 `json:"ground"`
	TrunkBlocks int     `json:"trunk_blocks"`
	Leaves      int     `json:"leaves"`
	Fruits      int     `json:"fruits"`
}

// NewServer создаёт HTTP API сервер
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("worldstream_api"))
	router.Use(NewRequestLogger().Handler())
	router.Use(NewPrometheusMiddleware(cfg.Registry).Handler())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))

	s := &Server{
		router: router,
		world:  cfg.World,
		addr:   cfg.Addr,
		log:    logging.GetComponentLogger("api"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes настраивает маршруты API
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/sources/:name", s.handleSource)
		api.GET("/terrain", s.handleTerrain)
		api.GET("/trees", s.handleTrees)
		api.GET("/server", s.handleServerInfo)
	}
}

// Handler возвращает http.Handler сервера
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start запускает сервер в отдельной горутине
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.log.Info("🌐 HTTP API слушает %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP API остановлен с ошибкой: %v", err)
		}
	}()
}

// Shutdown останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние мира",
		Data:    s.world.Status(),
	})
}

func (s *Server) handleSource(c *gin.Context) {
	name := c.Param("name")
	for _, src := range s.world.Status().Sources {
		if src.Name == name {
			c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Источник " + name, Data: src})
			return
		}
	}
	c.JSON(http.StatusNotFound, GenericResponse{
		Success: false,
		Message: fmt.Sprintf("Источник %q не найден", name),
	})
}

// handleTerrain возвращает высоты земли в столбцах [from, to]
func (s *Server) handleTerrain(c *gin.Context) {
	from, to, ok := s.parseSpan(c)
	if !ok {
		return
	}

	terrain := s.world.Terrain()
	bs := terrain.BlockSize()
	start, count := util.GridSpan(from, to, bs)
	heights := make([]ColumnHeight, 0, count)
	for i := uint64(0); i < count; i++ {
		x := util.GridColumn(start, i, bs)
		heights = append(heights, ColumnHeight{X: x, Height: terrain.GroundHeightAt(float64(x))})
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Высоты земли", Data: heights})
}

// handleTrees возвращает деревья в столбцах [from, to]
func (s *Server) handleTrees(c *gin.Context) {
	from, to, ok := s.parseSpan(c)
	if !ok {
		return
	}

	trees := make([]TreeInfo, 0)
	for _, t := range s.world.Flora().GenerateTrees(from, to) {
		trees = append(trees, TreeInfo{
			X:           t.Position.X,
			Ground:      t.Position.Y,
			TrunkBlocks: t.TrunkBlocks,
			Leaves:      len(t.Leaves()),
			Fruits:      len(t.Fruits()),
		})
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Деревья", Data: trees})
}

// handleServerInfo возвращает информацию о процессе
func (s *Server) handleServerInfo(c *gin.Context) {
	ps := s.world.Process()
	if ps == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Метрики процесса недоступны"})
		return
	}

	snap := ps.Snapshot()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data: gin.H{
			"name":        "worldstream",
			"status":      "running",
			"uptime":      snap.Uptime,
			"rss_mb":      fmt.Sprintf("%.1f", snap.RSSMB),
			"heap_mb":     fmt.Sprintf("%.1f", snap.HeapMB),
			"cpu_percent": fmt.Sprintf("%.1f", snap.CPUPercent),
			"goroutines":  snap.Goroutines,
		},
	})
}

// parseSpan читает from/to из запроса и проверяет ширину диапазона
func (s *Server) parseSpan(c *gin.Context) (from, to int, ok bool) {
	from, errFrom := strconv.Atoi(c.Query("from"))
	to, errTo := strconv.Atoi(c.Query("to"))
	if errFrom != nil || errTo != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Параметры from и to должны быть целыми числами"})
		return 0, 0, false
	}
	if to < from {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "to должен быть не меньше from"})
		return 0, 0, false
	}

	_, columns := util.GridSpan(from, to, s.world.Terrain().BlockSize())
	if columns > maxSpanColumns {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Диапазон %d столбцов больше допустимых %d", columns, maxSpanColumns),
		})
		return 0, 0, false
	}
	return from, to, true
}
