package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/worldstream/internal/logging"
	"github.com/annel0/worldstream/internal/world"
)

const namespace = "worldstream"

// StreamMetrics считает загрузки и выгрузки чанков по категориям содержимого.
// Реализует world.ChunkObserver и подключается к менеджерам чанков через WithObserver.
type StreamMetrics struct {
	loaded   *prometheus.CounterVec
	evicted  *prometheus.CounterVec
	placed   *prometheus.CounterVec
	removed  *prometheus.CounterVec
	resident *prometheus.GaugeVec
}

// NewStreamMetrics создаёт метрики и регистрирует их в reg
func NewStreamMetrics(reg prometheus.Registerer) *StreamMetrics {
	m := &StreamMetrics{
		loaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_loaded_total",
			Help:      "Общее число загруженных чанков.",
		}, []string{"source"}),
		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_evicted_total",
			Help:      "Общее число выгруженных чанков.",
		}, []string{"source"}),
		placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_placed_total",
			Help:      "Единиц содержимого, добавленных в живой мир.",
		}, []string{"source"}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_removed_total",
			Help:      "Единиц содержимого, удалённых из живого мира.",
		}, []string{"source"}),
		resident: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_chunks",
			Help:      "Количество загруженных сейчас чанков.",
		}, []string{"source"}),
	}

	reg.MustRegister(m.loaded, m.evicted, m.placed, m.removed, m.resident)
	return m
}

// ChunkLoaded учитывает загрузку чанка
func (m *StreamMetrics) ChunkLoaded(ev world.ChunkEvent) {
	m.loaded.WithLabelValues(ev.Source).Inc()
	m.placed.WithLabelValues(ev.Source).Add(float64(ev.Entities))
	m.resident.WithLabelValues(ev.Source).Inc()
}

// ChunkEvicted учитывает выгрузку чанка
func (m *StreamMetrics) ChunkEvicted(ev world.ChunkEvent) {
	m.evicted.WithLabelValues(ev.Source).Inc()
	m.removed.WithLabelValues(ev.Source).Add(float64(ev.Entities))
	m.resident.WithLabelValues(ev.Source).Dec()
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func StartHTTP(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log := logging.GetMetricsLogger()
	go func() {
		log.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return srv
}

// Shutdown останавливает HTTP-эндпоинт метрик
func Shutdown(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
