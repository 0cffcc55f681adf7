package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

func TestLocalStoreLifecycle(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()
	key := EventsKey(uuid.New())

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get before Put: want ErrNotFound, got %v", err)
	}
	if err := store.Put(ctx, key, bytes.NewReader(EncodeEvents([]int64{3, 1, 2}))); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, err := DecodeEvents(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("DecodeEvents: %v", err)
	}
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("round trip: got=%v", got)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete of missing key should be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete: want ErrNotFound, got %v", err)
	}
}

func TestLocalStoreKeysStayUnderRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, logger.NewNop())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ls := store.(*localStore)
	p, err := ls.path("../../etc/passwd")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if !bytes.HasPrefix([]byte(p), []byte(root)) {
		t.Fatalf("path escaped root: %s", p)
	}
	if _, err := ls.path("  "); err == nil {
		t.Fatalf("empty key should be rejected")
	}
	if err := store.Put(context.Background(), "a/b.txt", io.LimitReader(bytes.NewReader([]byte("x")), 1)); err != nil {
		t.Fatalf("Put nested key: %v", err)
	}
}
