package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/drive-backup-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cyclesTotal    *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	rotationsTotal prometheus.Counter
	usersAdmitted  prometheus.Counter
	usersDeferred  prometheus.Counter
	usersManual    prometheus.Counter
	rowsDropped    prometheus.Counter
	copyFailures   prometheus.Counter

	itemPercent   prometheus.Gauge
	folderPercent prometheus.Gauge
	poolItems     prometheus.Gauge
	poolFolders   prometheus.Gauge
}

// NewMetricsService registers the engine's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cyclesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backup_cycles_total",
		Help: "Total backup cycles by terminal status",
	}, []string{"status"})

	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "backup_cycle_duration_seconds",
		Help:    "Wall-clock duration of a full backup cycle",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	rotationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pool_rotations_total",
		Help: "Total pool rotations fired",
	})

	usersAdmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "users_admitted_total",
		Help: "Users admitted into run plans",
	})

	usersDeferred := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "users_deferred_total",
		Help: "Users deferred to a later cycle by budget contention",
	})

	usersManual := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "users_manual_track_total",
		Help: "Users routed to manual handling (estimate exceeds whole budget)",
	})

	rowsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "candidate_rows_dropped_total",
		Help: "Malformed candidate rows dropped during parsing",
	})

	copyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "copy_dispatch_failures_total",
		Help: "Per-user copy dispatches that failed",
	})

	itemPercent := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pool_projected_item_percent",
		Help: "Projected item occupancy of the active pool (percent of hard limit)",
	})

	folderPercent := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pool_projected_folder_percent",
		Help: "Projected folder occupancy of the active pool (percent of hard limit)",
	})

	poolItems := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pool_current_items",
		Help: "Measured items in the active pool",
	})

	poolFolders := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pool_current_folders",
		Help: "Measured folders in the active pool",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cyclesTotal, cycleDuration,
		rotationsTotal, usersAdmitted, usersDeferred, usersManual, rowsDropped,
		copyFailures, itemPercent, folderPercent, poolItems, poolFolders, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cyclesTotal:     cyclesTotal,
		cycleDuration:   cycleDuration,
		rotationsTotal:  rotationsTotal,
		usersAdmitted:   usersAdmitted,
		usersDeferred:   usersDeferred,
		usersManual:     usersManual,
		rowsDropped:     rowsDropped,
		copyFailures:    copyFailures,
		itemPercent:     itemPercent,
		folderPercent:   folderPercent,
		poolItems:       poolItems,
		poolFolders:     poolFolders,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveCycle records the outcome of one completed cycle.
func (m *MetricsService) ObserveCycle(report *models.CycleReport) {
	if m == nil || report == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(string(report.Status)).Inc()
	m.cycleDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	m.usersAdmitted.Add(float64(len(report.Admitted)))
	m.usersDeferred.Add(float64(report.Deferred))
	m.usersManual.Add(float64(report.ManualTrack))
	m.rowsDropped.Add(float64(report.DroppedRows))
	m.copyFailures.Add(float64(report.CopyFailures))
	if report.Rotation.Fired {
		m.rotationsTotal.Inc()
	}
	if report.Projection.Known() {
		m.itemPercent.Set(report.Projection.ItemPercent)
		m.folderPercent.Set(report.Projection.FolderPercent)
		m.poolItems.Set(float64(report.Projection.CurrentItems))
		m.poolFolders.Set(float64(report.Projection.CurrentFolders))
	}
}
