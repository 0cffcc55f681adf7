package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestPrincipalRoles(t *testing.T) {
	var nilPrincipal *Principal
	if nilPrincipal.IsWorker() || nilPrincipal.IsAdmin() || !nilPrincipal.Anonymous() {
		t.Fatalf("nil principal must be anonymous without roles")
	}

	w := &Principal{UserID: uuid.New(), Role: RoleWorker, WorkerID: uuid.New()}
	if !w.IsWorker() || w.IsAdmin() {
		t.Fatalf("worker principal: IsWorker=%v IsAdmin=%v", w.IsWorker(), w.IsAdmin())
	}

	// A worker role without a worker record is not a worker.
	broken := &Principal{UserID: uuid.New(), Role: RoleWorker}
	if broken.IsWorker() {
		t.Fatalf("worker role without worker id must not count as worker")
	}

	a := &Principal{UserID: uuid.New(), Role: RoleAdmin}
	if !a.IsAdmin() || a.IsWorker() {
		t.Fatalf("admin principal: IsWorker=%v IsAdmin=%v", a.IsWorker(), a.IsAdmin())
	}
}
