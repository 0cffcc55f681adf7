package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
)

func TestPrincipalRoundTrip(t *testing.T) {
	if GetPrincipal(context.Background()) != nil {
		t.Fatalf("expected nil principal on empty context")
	}
	p := &auth.Principal{UserID: uuid.New(), Role: auth.RoleUser}
	ctx := WithPrincipal(context.Background(), p)
	if got := GetPrincipal(ctx); got != p {
		t.Fatalf("principal mismatch: want=%p got=%p", p, got)
	}
}

func TestTraceDataRoundTrip(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})
	td := GetTraceData(ctx)
	if td == nil || td.TraceID != "t" || td.RequestID != "r" {
		t.Fatalf("unexpected trace data: %+v", td)
	}
}

func TestCallerFields(t *testing.T) {
	if kv := CallerFields(context.Background()); len(kv) != 0 {
		t.Fatalf("empty context should give no fields: %v", kv)
	}

	w := &auth.Principal{UserID: uuid.New(), Role: auth.RoleWorker, WorkerID: uuid.New()}
	ctx := WithTraceData(context.Background(), &TraceData{RequestID: "poll-1"})
	ctx = WithPrincipal(ctx, w)

	kv := CallerFields(ctx)
	got := map[string]interface{}{}
	for i := 0; i+1 < len(kv); i += 2 {
		got[kv[i].(string)] = kv[i+1]
	}
	if _, ok := got["trace_id"]; ok {
		t.Fatalf("unset trace id should be skipped: %v", got)
	}
	if got["request_id"] != "poll-1" || got["role"] != string(auth.RoleWorker) || got["worker_id"] != w.WorkerID.String() {
		t.Fatalf("unexpected fields: %v", got)
	}
}
