package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

const tracerName = "cytorepo-backend/aggregates"

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return d
}

// executeWrite runs fn in one transaction under op, maps whatever it returns
// to a coded error, and reports the outcome to the span, hooks and log.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, op, trace.WithAttributes(attribute.String("aggregate.op", op)))
	defer span.End()

	err := MapError(op, deps.Runner.InTx(ctx, fn))
	status := aggregateErrorStatus(err)
	span.SetAttributes(attribute.String("aggregate.status", status))

	switch domainagg.CodeOf(err) {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeRetryable:
		deps.Hooks.IncRetry(op)
	case domainagg.CodeInvariantViolation:
		span.RecordError(err)
		deps.Log.Warn("aggregate invariant violated", "op", op, "error", err)
	case domainagg.CodeInternal:
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		deps.Log.Error("aggregate write failed", "op", op, "error", err)
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return err
}

// aggregateErrorStatus is the metric status label for err.
func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	return string(domainagg.CodeOf(MapError("aggregate.status", err)))
}

func nowUTC(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
