package aggregates

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

func TestFanoutHooks(t *testing.T) {
	a, b := &recordingHooks{}, &recordingHooks{}
	h := FanoutHooks(a, nil, b)
	h.ObserveOperation("Processing.Assignment.claim", "conflict", time.Millisecond)
	h.IncConflict("Processing.Assignment.claim")
	h.IncRetry("Processing.Results.CreateCluster")

	for i, r := range []*recordingHooks{a, b} {
		if len(r.ops) != 1 || r.ops[0] != (opRecord{op: "Processing.Assignment.claim", status: "conflict"}) {
			t.Fatalf("hook %d ops: %v", i, r.ops)
		}
		if len(r.conflicts) != 1 || len(r.retries) != 1 {
			t.Fatalf("hook %d conflicts=%v retries=%v", i, r.conflicts, r.retries)
		}
	}

	if _, ok := FanoutHooks().(noopHooks); !ok {
		t.Fatalf("empty fanout should be a no-op")
	}
	if got := FanoutHooks(nil, a); got != Hooks(a) {
		t.Fatalf("single hook should be returned as is")
	}
}

func TestLogHooksWarnsOnSlowWrites(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	h := NewLogHooks(log, 100*time.Millisecond)

	h.ObserveOperation("Processing.Submission.Submit", "success", 10*time.Millisecond)
	if n := logs.FilterMessage("slow aggregate write").Len(); n != 0 {
		t.Fatalf("fast write logged as slow")
	}
	h.ObserveOperation("Processing.Submission.Delete", "success", 250*time.Millisecond)
	slow := logs.FilterMessage("slow aggregate write").All()
	if len(slow) != 1 {
		t.Fatalf("want one slow write entry got %d", len(slow))
	}
	if slow[0].ContextMap()["op"] != "Processing.Submission.Delete" {
		t.Fatalf("slow entry fields: %v", slow[0].ContextMap())
	}

	h.IncRetry("Processing.Stage2.Compose")
	if logs.FilterMessage("aggregate write retryable").Len() != 1 {
		t.Fatalf("retry not logged")
	}
}

func TestNewHooksNilDependencies(t *testing.T) {
	if _, ok := NewObservabilityHooks(nil).(noopHooks); !ok {
		t.Fatalf("nil metrics should give no-op hooks")
	}
	if _, ok := NewLogHooks(nil, time.Second).(noopHooks); !ok {
		t.Fatalf("nil logger should give no-op hooks")
	}
}
