package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/cytorepo-backend/internal/observability"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

// Hooks receives one ObserveOperation per aggregate write, plus IncConflict or
// IncRetry when the write failed with that code.
type Hooks interface {
	ObserveOperation(op, status string, dur time.Duration)
	IncConflict(op string)
	IncRetry(op string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

// NewObservabilityHooks records aggregate latency, conflicts and retries as
// metrics. A nil metrics registry yields no-op hooks.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricHooks{m: metrics}
}

type metricHooks struct{ m *observability.Metrics }

func (h metricHooks) ObserveOperation(op, status string, dur time.Duration) {
	h.m.ObserveAggregateOperation(strings.TrimSpace(op), strings.TrimSpace(status), dur)
}
func (h metricHooks) IncConflict(op string) { h.m.IncAggregateConflict(strings.TrimSpace(op)) }
func (h metricHooks) IncRetry(op string)    { h.m.IncAggregateRetry(strings.TrimSpace(op)) }

// NewLogHooks warns about writes slower than slow and notes lost races at
// debug level. slow <= 0 disables the slow write warning.
func NewLogHooks(log *logger.Logger, slow time.Duration) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return logHooks{log: log, slow: slow}
}

type logHooks struct {
	log  *logger.Logger
	slow time.Duration
}

func (h logHooks) ObserveOperation(op, status string, dur time.Duration) {
	if h.slow > 0 && dur >= h.slow {
		h.log.Warn("slow aggregate write", "op", op, "status", status, "duration_ms", dur.Milliseconds())
	}
}
func (h logHooks) IncConflict(op string) { h.log.Debug("aggregate write conflict", "op", op) }
func (h logHooks) IncRetry(op string)    { h.log.Warn("aggregate write retryable", "op", op) }

// FanoutHooks forwards every signal to each non-nil hook in order.
func FanoutHooks(hooks ...Hooks) Hooks {
	out := make(fanout, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	switch len(out) {
	case 0:
		return noopHooks{}
	case 1:
		return out[0]
	}
	return out
}

type fanout []Hooks

func (f fanout) ObserveOperation(op, status string, dur time.Duration) {
	for _, h := range f {
		h.ObserveOperation(op, status, dur)
	}
}

func (f fanout) IncConflict(op string) {
	for _, h := range f {
		h.IncConflict(op)
	}
}

func (f fanout) IncRetry(op string) {
	for _, h := range f {
		h.IncRetry(op)
	}
}
