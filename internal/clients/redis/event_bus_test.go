package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

func TestDecodeEventRejectsUntyped(t *testing.T) {
	if _, err := decodeEvent(`{"process_request_id":"` + uuid.NewString() + `"}`); err == nil {
		t.Fatalf("expected error for event without type")
	}
	if _, err := decodeEvent(`not json`); err == nil {
		t.Fatalf("expected error for garbage payload")
	}
	if _, err := encodeEvent(processing.ProcessRequestEvent{}); err == nil {
		t.Fatalf("expected error encoding untyped event")
	}
}

func TestEncodeDecodeKeepsWorker(t *testing.T) {
	w := uuid.New()
	in := processing.ProcessRequestEvent{
		Type:             processing.EventClaimed,
		ProcessRequestID: uuid.New(),
		ProjectID:        uuid.New(),
		WorkerID:         &w,
		Status:           processing.StatusWorking,
		At:               time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	raw, err := encodeEvent(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(raw), `"type":"process_request.claimed"`) {
		t.Fatalf("unexpected payload %s", raw)
	}
	out, err := decodeEvent(string(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.WorkerID == nil || *out.WorkerID != w || !out.At.Equal(in.At) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestEventBusPublishReachesChannel(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channel := "test_" + uuid.NewString()
	bus, err := NewEventBus(ctx, logger.NewNop(), Config{Addr: addr, Channel: channel})
	if err != nil {
		t.Fatalf("NewEventBus: %v", err)
	}
	defer bus.Close()

	listener := goredis.NewClient(&goredis.Options{Addr: addr})
	defer listener.Close()
	sub := listener.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := processing.ProcessRequestEvent{Type: processing.EventCompleted, ProcessRequestID: uuid.New(), Status: processing.StatusCompleted}
	if err := bus.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case m := <-sub.Channel():
		ev, err := decodeEvent(m.Payload)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.ProcessRequestID != want.ProcessRequestID || ev.Type != want.Type {
			t.Fatalf("got %+v", ev)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for event")
	}
}

func decodeEvent(payload string) (processing.ProcessRequestEvent, error) {
	var ev processing.ProcessRequestEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, err
	}
	if ev.Type == "" {
		return ev, fmt.Errorf("event without type")
	}
	return ev, nil
}
