package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector of the service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	leaveEvents     *prometheus.CounterVec
	leaveRejections *prometheus.CounterVec
	outboxPublished *prometheus.CounterVec
	outboxFailed    *prometheus.CounterVec
	outboxBacklog   prometheus.Gauge
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_leave_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hr_leave_http_request_duration_seconds",
			Help:    "HTTP request duration per route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		leaveEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_leave_lifecycle_events_total",
			Help: "Leave request lifecycle transitions by event type.",
		}, []string{"event"}),
		leaveRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_leave_create_rejections_total",
			Help: "Leave submissions refused by a business rule.",
		}, []string{"reason"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_leave_outbox_published_total",
			Help: "Outbox events relayed to Kafka.",
		}, []string{"event"}),
		outboxFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_leave_outbox_failed_total",
			Help: "Outbox relay attempts that failed.",
		}, []string{"event"}),
		outboxBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hr_leave_outbox_backlog",
			Help: "Outbox events waiting to be relayed.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_leave_jobs_total",
			Help: "Background job executions by job name and status.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hr_leave_job_duration_seconds",
			Help:    "Duration of background job executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration,
		m.leaveEvents, m.leaveRejections,
		m.outboxPublished, m.outboxFailed, m.outboxBacklog,
		m.jobRuns, m.jobDuration,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// GinMiddleware records request count and latency keyed by the matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) LeaveEvent(eventType string) {
	if m == nil {
		return
	}
	m.leaveEvents.WithLabelValues(eventType).Inc()
}

func (m *Metrics) LeaveRejected(reason string) {
	if m == nil {
		return
	}
	m.leaveRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) OutboxPublished(eventType string) {
	if m == nil {
		return
	}
	m.outboxPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) OutboxFailed(eventType string) {
	if m == nil {
		return
	}
	m.outboxFailed.WithLabelValues(eventType).Inc()
}

func (m *Metrics) OutboxBacklog(n int64) {
	if m == nil {
		return
	}
	m.outboxBacklog.Set(float64(n))
}

// Tracker instruments a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the outcome and returns err untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.metrics.jobRuns.WithLabelValues(t.job, status).Inc()
	t.metrics.jobDuration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}
