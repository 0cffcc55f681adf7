package processing

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
)

func workerPrincipal() *auth.Principal {
	return &auth.Principal{UserID: uuid.New(), Role: auth.RoleWorker, WorkerID: uuid.New()}
}

func assignedTo(status Status, p *auth.Principal) Snapshot {
	id := p.WorkerID
	return Snapshot{Status: status, WorkerID: &id}
}

func TestDecideClaim(t *testing.T) {
	w := workerPrincipal()
	user := &auth.Principal{UserID: uuid.New(), Role: auth.RoleUser}
	admin := &auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}

	if got := Decide(TransitionClaim, Snapshot{Status: StatusPending}, w); got != DecisionApply {
		t.Fatalf("worker claiming pending: want=apply got=%s", got)
	}
	if got := Decide(TransitionClaim, assignedTo(StatusWorking, workerPrincipal()), w); got != DecisionConflict {
		t.Fatalf("worker claiming assigned: want=conflict got=%s", got)
	}
	if got := Decide(TransitionClaim, Snapshot{Status: StatusPending}, user); got != DecisionReject {
		t.Fatalf("user claiming: want=reject got=%s", got)
	}
	if got := Decide(TransitionClaim, Snapshot{Status: StatusPending}, admin); got != DecisionReject {
		t.Fatalf("admin claiming: want=reject got=%s", got)
	}
	if got := Decide(TransitionClaim, Snapshot{Status: StatusPending}, nil); got != DecisionReject {
		t.Fatalf("anonymous claiming: want=reject got=%s", got)
	}
}

func TestDecideRevoke(t *testing.T) {
	admin := &auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}
	w := workerPrincipal()

	if got := Decide(TransitionRevoke, assignedTo(StatusError, w), admin); got != DecisionApply {
		t.Fatalf("admin revoking errored: want=apply got=%s", got)
	}
	if got := Decide(TransitionRevoke, Snapshot{Status: StatusPending}, admin); got != DecisionNotModified {
		t.Fatalf("admin revoking unassigned: want=not_modified got=%s", got)
	}
	if got := Decide(TransitionRevoke, assignedTo(StatusWorking, w), w); got != DecisionReject {
		t.Fatalf("worker revoking: want=reject got=%s", got)
	}
}

func TestDecideWorkerTransitions(t *testing.T) {
	w := workerPrincipal()
	other := workerPrincipal()

	cases := []struct {
		name string
		tr   Transition
		snap Snapshot
		p    *auth.Principal
		want Decision
	}{
		{"error by assignee while working", TransitionReportError, assignedTo(StatusWorking, w), w, DecisionApply},
		{"error by other worker", TransitionReportError, assignedTo(StatusWorking, w), other, DecisionNotModified},
		{"error when already errored", TransitionReportError, assignedTo(StatusError, w), w, DecisionNotModified},
		{"complete by assignee", TransitionComplete, assignedTo(StatusWorking, w), w, DecisionApply},
		{"complete errored by assignee", TransitionComplete, assignedTo(StatusError, w), w, DecisionApply},
		{"complete twice", TransitionComplete, assignedTo(StatusCompleted, w), w, DecisionNotModified},
		{"complete by other worker", TransitionComplete, assignedTo(StatusWorking, w), other, DecisionNotModified},
		{"complete unassigned", TransitionComplete, Snapshot{Status: StatusPending}, w, DecisionNotModified},
		{"heartbeat by assignee", TransitionHeartbeat, assignedTo(StatusWorking, w), w, DecisionApply},
		{"heartbeat after error", TransitionHeartbeat, assignedTo(StatusError, w), w, DecisionNotModified},
		{"expire by system", TransitionExpire, assignedTo(StatusWorking, w), auth.System(), DecisionApply},
		{"expire by worker", TransitionExpire, assignedTo(StatusWorking, w), w, DecisionReject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.tr, tc.snap, tc.p); got != tc.want {
				t.Fatalf("want=%s got=%s", tc.want, got)
			}
		})
	}
}

func TestTargetStatusAndGuardFailure(t *testing.T) {
	if TargetStatus(TransitionClaim) != StatusWorking {
		t.Fatalf("claim target")
	}
	if TargetStatus(TransitionRevoke) != StatusPending {
		t.Fatalf("revoke target")
	}
	if GuardFailure(TransitionClaim) != DecisionConflict {
		t.Fatalf("claim guard failure must be a conflict")
	}
	if GuardFailure(TransitionComplete) != DecisionNotModified {
		t.Fatalf("complete guard failure must be not_modified")
	}
	if GuardFailure(Transition("bogus")) != DecisionReject {
		t.Fatalf("unknown transition must reject")
	}
}

func TestConsistentAssignment(t *testing.T) {
	w := workerPrincipal()
	if !ConsistentAssignment(Snapshot{Status: StatusPending}) {
		t.Fatalf("pending unassigned is consistent")
	}
	if ConsistentAssignment(assignedTo(StatusPending, w)) {
		t.Fatalf("pending with worker is inconsistent")
	}
	if ConsistentAssignment(Snapshot{Status: StatusWorking}) {
		t.Fatalf("working without worker is inconsistent")
	}
	for _, s := range []Status{StatusWorking, StatusError, StatusCompleted} {
		if !ConsistentAssignment(assignedTo(s, w)) {
			t.Fatalf("%s with worker is consistent", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Working "); !ok || s != StatusWorking {
		t.Fatalf("ParseStatus: got=%q ok=%v", s, ok)
	}
	if _, ok := ParseStatus("queued"); ok {
		t.Fatalf("unknown status must not parse")
	}
}
