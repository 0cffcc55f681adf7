package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/cytorepo-backend/internal/platform/envutil"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	transitions   *CounterVec
	ingestedRows  *CounterVec
	leaseExpired  *Counter
	eventsPublish *CounterVec

	queueDepth *GaugeVec
	dbStats    *GaugeVec
	redisUp    *Gauge
	redisPing  *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	d := envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Init returns the process-wide registry, or nil when METRICS_ENABLED is off.
// Every method is safe on a nil *Metrics.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("cyto_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cyto_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("cyto_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("cyto_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("cyto_api_requests_error_total", "API requests answered with a 5xx status."),

		aggregateLatency: NewHistogramVec(
			"cyto_aggregate_operation_duration_seconds",
			"Aggregate write latency in seconds by operation/status.",
			[]string{"operation", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		aggregateConflicts: NewCounterVec("cyto_aggregate_conflicts_total", "Aggregate writes that ended in a conflict.", []string{"operation"}),
		aggregateRetries:   NewCounterVec("cyto_aggregate_retries_total", "Aggregate writes that ended in a retryable error.", []string{"operation"}),

		transitions:   NewCounterVec("cyto_process_request_transitions_total", "Process request transitions by transition/outcome.", []string{"transition", "outcome"}),
		ingestedRows:  NewCounterVec("cyto_ingested_rows_total", "Result rows written by table.", []string{"table"}),
		leaseExpired:  NewCounter("cyto_lease_expired_total", "Working requests returned to pending by the lease sweeper."),
		eventsPublish: NewCounterVec("cyto_events_published_total", "Lifecycle events by publish status.", []string{"status"}),

		queueDepth: NewGaugeVec("cyto_process_request_queue_depth", "Process requests by status.", []string{"status"}),
		dbStats:    NewGaugeVec("cyto_db_stats", "Database connection pool stats.", []string{"metric"}),
		redisUp:    NewGauge("cyto_redis_up", "Redis connectivity (1=up, 0=down)."),
		redisPing:  NewGauge("cyto_redis_ping_seconds", "Last Redis ping latency in seconds."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.transitions, m.ingestedRows, m.leaseExpired, m.eventsPublish,
		m.queueDepth, m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

// IncTransition counts one assignment transition attempt. outcome is "applied"
// or the aggregate error code it failed with.
func (m *Metrics) IncTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.transitions.Inc(transition, outcome)
}

func (m *Metrics) AddIngestedRows(table string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestedRows.Add(float64(n), table)
}

func (m *Metrics) IncLeaseExpired() {
	if m == nil {
		return
	}
	m.leaseExpired.Inc()
}

func (m *Metrics) IncEventPublish(status string) {
	if m == nil {
		return
	}
	m.eventsPublish.Inc(status)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

// QueueCounter reports the number of process requests per status.
type QueueCounter func(ctx context.Context) (map[string]int64, error)

// RunQueueCollector samples queue depth until ctx is done. It blocks, so the
// app runs it inside its errgroup.
func (m *Metrics) RunQueueCollector(ctx context.Context, log *logger.Logger, statuses []string, count QueueCounter) error {
	if m == nil || count == nil {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(scrapeInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.sampleQueue(ctx, log, statuses, count)
		}
	}
}

func (m *Metrics) sampleQueue(ctx context.Context, log *logger.Logger, statuses []string, count QueueCounter) {
	rows, err := count(ctx)
	if err != nil {
		if log != nil {
			log.Warn("metrics: queue depth query failed", "error", err)
		}
		return
	}
	for _, s := range statuses {
		m.queueDepth.Set(0, s)
	}
	for status, n := range rows {
		status = strings.TrimSpace(status)
		if status == "" {
			status = "unknown"
		}
		m.queueDepth.Set(float64(n), status)
	}
}
