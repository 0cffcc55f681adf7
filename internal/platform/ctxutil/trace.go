package ctxutil

import "context"

type traceDataKey struct{}

// TraceData carries the ids the HTTP layer attaches for log correlation.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	td, _ := ctx.Value(traceDataKey{}).(*TraceData)
	return td
}

// LogFields returns trace_id and request_id key/value pairs for ctx, skipping
// ids that are not set.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var kv []interface{}
	if td.TraceID != "" {
		kv = append(kv, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		kv = append(kv, "request_id", td.RequestID)
	}
	return kv
}

// CallerFields adds the caller's identity to LogFields. Worker callers also
// carry worker_id.
func CallerFields(ctx context.Context) []interface{} {
	kv := LogFields(ctx)
	p := GetPrincipal(ctx)
	if p.Anonymous() {
		return kv
	}
	kv = append(kv, "user_id", p.UserID.String(), "role", string(p.Role))
	if p.IsWorker() {
		kv = append(kv, "worker_id", p.WorkerID.String())
	}
	return kv
}
