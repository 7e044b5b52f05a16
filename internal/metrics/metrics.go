package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, route, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// DutyStatusChanges counts recorded duty status changes by status.
	DutyStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hos_duty_status_changes_total", Help: "Duty status changes recorded."},
		[]string{"status"},
	)
	// ViolationsDetected counts new violations by type and severity.
	ViolationsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hos_violations_detected_total", Help: "HOS violations detected."},
		[]string{"type", "severity"},
	)
	// ViolationsResolved counts resolved violations by type.
	ViolationsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hos_violations_resolved_total", Help: "HOS violations resolved."},
		[]string{"type"},
	)
	// TripsPlanned counts trip plans by route source.
	TripsPlanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hos_trips_planned_total", Help: "Trips planned by route source."},
		[]string{"route_source"},
	)
	// SimulatedDays records the number of days per simulated trip.
	SimulatedDays = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "hos_simulated_trip_days", Help: "Days per simulated trip.", Buckets: []float64{1, 2, 3, 4, 5, 7, 10, 14, 21, 30}},
	)
	// LockContention counts driver-day lock acquisitions that found the lock held.
	LockContention = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hos_driver_day_lock_contention_total", Help: "Driver-day lock acquisitions rejected because the lock was held."},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call repeatedly.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(DutyStatusChanges)
		Registry.MustRegister(ViolationsDetected)
		Registry.MustRegister(ViolationsResolved)
		Registry.MustRegister(TripsPlanned)
		Registry.MustRegister(SimulatedDays)
		Registry.MustRegister(LockContention)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
