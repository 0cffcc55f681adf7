package aggregates_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	repotest "github.com/yungbote/cytorepo-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

type assignmentHelper struct {
	agg domainagg.AssignmentAggregate
}

func (a *assignmentHelper) do(ctx context.Context, t processing.Transition, id uuid.UUID, actor *auth.Principal) (domainagg.TransitionResult, error) {
	return a.agg.Transition(ctx, domainagg.TransitionInput{RequestID: id, Transition: t, Actor: actor})
}

func mustGetRequest(t *testing.T, h *harness, id uuid.UUID) *types.ProcessRequest {
	t.Helper()
	pr, err := h.set.ProcessRequest.GetByID(dbctx.Context{Ctx: h.ctx, Tx: h.db}, id)
	if err != nil || pr == nil {
		t.Fatalf("GetByID(%s): pr=%v err=%v", id, pr, err)
	}
	if !processing.ConsistentAssignment(pr.Snapshot()) {
		t.Fatalf("inconsistent assignment: status=%s worker=%v", pr.Status, pr.WorkerID)
	}
	return pr
}

func TestAssignmentClaimThenSecondWorkerConflicts(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := newHarness(t, tx)
	a := h.assignment()

	user := repotest.SeedUser(t, h.ctx, tx, false)
	project := repotest.SeedProject(t, h.ctx, tx)
	w1 := repotest.SeedWorker(t, h.ctx, tx)
	w2 := repotest.SeedWorker(t, h.ctx, tx)
	r1 := repotest.SeedProcessRequest(t, h.ctx, tx, project.ID, user.ID)

	res, err := a.do(h.ctx, processing.TransitionClaim, r1.ID, workerPrincipal(w1))
	if err != nil {
		t.Fatalf("claim w1: %v", err)
	}
	if res.From != processing.StatusPending || res.Request.Status != processing.StatusWorking || !res.Request.AssignedTo(w1.ID) {
		t.Fatalf("claim result: from=%s status=%s worker=%v", res.From, res.Request.Status, res.Request.WorkerID)
	}
	if res.Request.AssignmentDate == nil {
		t.Fatalf("claim must set assignment_date")
	}

	_, err = a.do(h.ctx, processing.TransitionClaim, r1.ID, workerPrincipal(w2))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("claim w2: want conflict, got %v", err)
	}
	got := mustGetRequest(t, h, r1.ID)
	if got.Status != processing.StatusWorking || !got.AssignedTo(w1.ID) {
		t.Fatalf("r1 changed after losing claim: status=%s worker=%v", got.Status, got.WorkerID)
	}
	if len(h.hooks.Conflicts) != 1 {
		t.Fatalf("conflict hooks: want=1 got=%v", h.hooks.Conflicts)
	}
	if counts := h.hooks.StatusCounts("Processing.Assignment.claim"); counts["success"] != 1 || counts["conflict"] != 1 {
		t.Fatalf("claim outcomes: %v", counts)
	}
}

func TestAssignmentErrorRevokeReclaim(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := newHarness(t, tx)
	a := h.assignment()

	user := repotest.SeedUser(t, h.ctx, tx, false)
	project := repotest.SeedProject(t, h.ctx, tx)
	w1 := repotest.SeedWorker(t, h.ctx, tx)
	w2 := repotest.SeedWorker(t, h.ctx, tx)
	r1 := repotest.SeedAssigned(t, h.ctx, tx, project.ID, user.ID, w1.ID, processing.StatusWorking)

	percent := 60
	if _, err := a.agg.Transition(h.ctx, domainagg.TransitionInput{
		RequestID:       r1.ID,
		Transition:      processing.TransitionHeartbeat,
		Actor:           workerPrincipal(w1),
		PercentComplete: &percent,
	}); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if _, err := a.agg.Transition(h.ctx, domainagg.TransitionInput{
		RequestID:     r1.ID,
		Transition:    processing.TransitionReportError,
		Actor:         workerPrincipal(w1),
		StatusMessage: "  sampler diverged ",
	}); err != nil {
		t.Fatalf("report_error: %v", err)
	}
	got := mustGetRequest(t, h, r1.ID)
	if got.Status != processing.StatusError || got.StatusMessage != "sampler diverged" {
		t.Fatalf("after error: status=%s message=%q", got.Status, got.StatusMessage)
	}

	if _, err := a.do(h.ctx, processing.TransitionRevoke, r1.ID, adminPrincipal()); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got = mustGetRequest(t, h, r1.ID)
	if got.Status != processing.StatusPending || got.WorkerID != nil {
		t.Fatalf("after revoke: status=%s worker=%v", got.Status, got.WorkerID)
	}
	if got.PercentComplete != 0 || got.StatusMessage != "" || got.HeartbeatAt != nil {
		t.Fatalf("previous worker's progress survived revoke: percent=%d message=%q heartbeat=%v",
			got.PercentComplete, got.StatusMessage, got.HeartbeatAt)
	}

	res, err := a.do(h.ctx, processing.TransitionClaim, r1.ID, workerPrincipal(w2))
	if err != nil {
		t.Fatalf("reclaim w2: %v", err)
	}
	if !res.Request.AssignedTo(w2.ID) || res.Request.Status != processing.StatusWorking {
		t.Fatalf("after reclaim: status=%s worker=%v", res.Request.Status, res.Request.WorkerID)
	}
}

func TestAssignmentRevokeIsIdempotent(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := newHarness(t, tx)
	a := h.assignment()

	user := repotest.SeedUser(t, h.ctx, tx, false)
	project := repotest.SeedProject(t, h.ctx, tx)
	w1 := repotest.SeedWorker(t, h.ctx, tx)
	r1 := repotest.SeedAssigned(t, h.ctx, tx, project.ID, user.ID, w1.ID, processing.StatusWorking)
	admin := adminPrincipal()

	if _, err := a.do(h.ctx, processing.TransitionRevoke, r1.ID, admin); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	before := mustGetRequest(t, h, r1.ID)

	_, err := a.do(h.ctx, processing.TransitionRevoke, r1.ID, admin)
	if !domainagg.IsCode(err, domainagg.CodeNotModified) {
		t.Fatalf("second revoke: want not_modified, got %v", err)
	}
	after := mustGetRequest(t, h, r1.ID)
	if after.Status != before.Status || after.WorkerID != nil || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("second revoke changed state: before=%+v after=%+v", before, after)
	}

	if _, err := a.do(h.ctx, processing.TransitionRevoke, r1.ID, workerPrincipal(w1)); !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("worker revoke: want forbidden, got %v", err)
	}
}

func TestAssignmentCompleteRequiresAssignee(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := newHarness(t, tx)
	a := h.assignment()

	user := repotest.SeedUser(t, h.ctx, tx, false)
	project := repotest.SeedProject(t, h.ctx, tx)
	w1 := repotest.SeedWorker(t, h.ctx, tx)
	w2 := repotest.SeedWorker(t, h.ctx, tx)
	r1 := repotest.SeedAssigned(t, h.ctx, tx, project.ID, user.ID, w1.ID, processing.StatusWorking)
	unassigned := repotest.SeedProcessRequest(t, h.ctx, tx, project.ID, user.ID)

	if _, err := a.do(h.ctx, processing.TransitionComplete, r1.ID, workerPrincipal(w2)); !domainagg.IsCode(err, domainagg.CodeNotModified) {
		t.Fatalf("complete by other worker: want not_modified, got %v", err)
	}
	if got := mustGetRequest(t, h, r1.ID); got.Status != processing.StatusWorking {
		t.Fatalf("status changed by non-assignee: %s", got.Status)
	}
	if _, err := a.do(h.ctx, processing.TransitionComplete, unassigned.ID, workerPrincipal(w1)); !domainagg.IsCode(err, domainagg.CodeNotModified) {
		t.Fatalf("complete unassigned: want not_modified, got %v", err)
	}
	if _, err := a.do(h.ctx, processing.TransitionComplete, r1.ID, &auth.Principal{UserID: user.ID, Role: auth.RoleUser}); !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("complete by user: want forbidden, got %v", err)
	}

	res, err := a.do(h.ctx, processing.TransitionComplete, r1.ID, workerPrincipal(w1))
	if err != nil {
		t.Fatalf("complete by assignee: %v", err)
	}
	if res.Request.Status != processing.StatusCompleted || res.Request.CompletionDate == nil || res.Request.PercentComplete != 100 {
		t.Fatalf("after complete: status=%s completion=%v percent=%d", res.Request.Status, res.Request.CompletionDate, res.Request.PercentComplete)
	}
	if _, err := a.do(h.ctx, processing.TransitionComplete, r1.ID, workerPrincipal(w1)); !domainagg.IsCode(err, domainagg.CodeNotModified) {
		t.Fatalf("second complete: want not_modified, got %v", err)
	}
}

func TestAssignmentRejectsUnknownAndMissing(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := newHarness(t, tx)
	a := h.assignment()
	w1 := repotest.SeedWorker(t, h.ctx, tx)

	if _, err := a.do(h.ctx, processing.TransitionClaim, uuid.New(), workerPrincipal(w1)); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("claim missing: want not_found, got %v", err)
	}
	if _, err := a.do(h.ctx, processing.TransitionClaim, uuid.Nil, workerPrincipal(w1)); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("claim nil id: want validation, got %v", err)
	}
	if _, err := a.do(h.ctx, processing.TransitionClaim, uuid.New(), nil); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("anonymous claim of missing request: want not_found, got %v", err)
	}
}

func TestAssignmentHeartbeatAndExpire(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := newHarness(t, tx)
	a := h.assignment()

	user := repotest.SeedUser(t, h.ctx, tx, false)
	project := repotest.SeedProject(t, h.ctx, tx)
	w1 := repotest.SeedWorker(t, h.ctx, tx)
	r1 := repotest.SeedAssigned(t, h.ctx, tx, project.ID, user.ID, w1.ID, processing.StatusWorking)

	bad := 140
	if _, err := a.agg.Transition(h.ctx, domainagg.TransitionInput{
		RequestID: r1.ID, Transition: processing.TransitionHeartbeat, Actor: workerPrincipal(w1), PercentComplete: &bad,
	}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("heartbeat percent=140: want validation, got %v", err)
	}
	pct := 40
	res, err := a.agg.Transition(h.ctx, domainagg.TransitionInput{
		RequestID: r1.ID, Transition: processing.TransitionHeartbeat, Actor: workerPrincipal(w1), PercentComplete: &pct,
	})
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if res.Request.PercentComplete != 40 || res.Request.HeartbeatAt == nil {
		t.Fatalf("after heartbeat: percent=%d heartbeat=%v", res.Request.PercentComplete, res.Request.HeartbeatAt)
	}

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := a.agg.Transition(h.ctx, domainagg.TransitionInput{
		RequestID: r1.ID, Transition: processing.TransitionExpire, Actor: auth.System(), StaleBefore: &past,
	}); !domainagg.IsCode(err, domainagg.CodeNotModified) {
		t.Fatalf("expire fresh lease: want not_modified, got %v", err)
	}
	future := time.Now().UTC().Add(time.Hour)
	res, err = a.agg.Transition(h.ctx, domainagg.TransitionInput{
		RequestID: r1.ID, Transition: processing.TransitionExpire, Actor: auth.System(), StaleBefore: &future,
	})
	if err != nil {
		t.Fatalf("expire stale lease: %v", err)
	}
	if res.Request.Status != processing.StatusPending || res.Request.WorkerID != nil {
		t.Fatalf("after expire: status=%s worker=%v", res.Request.Status, res.Request.WorkerID)
	}
	if _, err := a.agg.Transition(h.ctx, domainagg.TransitionInput{
		RequestID: r1.ID, Transition: processing.TransitionExpire, Actor: workerPrincipal(w1), StaleBefore: &future,
	}); !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("worker expire: want forbidden, got %v", err)
	}
}

// Runs against the database itself so each claim gets its own transaction.
func TestAssignmentConcurrentClaimExactlyOnce(t *testing.T) {
	db := repotest.DB(t)
	h := newHarness(t, db)
	a := h.assignment()

	user := repotest.SeedUser(t, h.ctx, db, false)
	project := repotest.SeedProject(t, h.ctx, db)
	r1 := repotest.SeedProcessRequest(t, h.ctx, db, project.ID, user.ID)

	const n = 8
	workers := make([]*types.Worker, n)
	for i := range workers {
		workers[i] = repotest.SeedWorker(t, h.ctx, db)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      []uuid.UUID
		conflicts int
		others    []error
	)
	start := make(chan struct{})
	for _, w := range workers {
		wg.Add(1)
		go func(w *types.Worker) {
			defer wg.Done()
			<-start
			_, err := a.do(context.Background(), processing.TransitionClaim, r1.ID, workerPrincipal(w))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins = append(wins, w.ID)
			case domainagg.IsCode(err, domainagg.CodeConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(w)
	}
	close(start)
	wg.Wait()

	if len(others) != 0 {
		t.Fatalf("unexpected claim errors: %v", others)
	}
	if len(wins) != 1 || conflicts != n-1 {
		t.Fatalf("want exactly one winner and %d conflicts, got wins=%d conflicts=%d", n-1, len(wins), conflicts)
	}
	got := mustGetRequest(t, h, r1.ID)
	if !got.AssignedTo(wins[0]) || got.Status != processing.StatusWorking {
		t.Fatalf("stored assignee mismatch: winner=%s stored=%v status=%s", wins[0], got.WorkerID, got.Status)
	}
}
