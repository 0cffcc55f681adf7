package processing

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
)

// Status is the lifecycle state of a ProcessRequest.
type Status string

const (
	StatusPending   Status = "pending"
	StatusWorking   Status = "working"
	StatusError     Status = "error"
	StatusCompleted Status = "completed"
)

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusWorking, StatusError, StatusCompleted:
		return s, true
	default:
		return "", false
	}
}

// Transition names an operation that moves a ProcessRequest between states.
type Transition string

const (
	TransitionClaim       Transition = "claim"
	TransitionRevoke      Transition = "revoke"
	TransitionReportError Transition = "report_error"
	TransitionComplete    Transition = "complete"
	TransitionHeartbeat   Transition = "heartbeat"
	TransitionExpire      Transition = "expire"
)

// Decision is the outcome of evaluating a transition against a snapshot.
type Decision string

const (
	// DecisionApply means the guarded update should run.
	DecisionApply Decision = "apply"
	// DecisionNotModified is the benign no-op polling workers retry past.
	DecisionNotModified Decision = "not_modified"
	// DecisionConflict is a guard failure reported as a conflict (claim).
	DecisionConflict Decision = "conflict"
	// DecisionReject means the caller's role may never perform the transition.
	DecisionReject Decision = "reject"
)

// Snapshot is the slice of a ProcessRequest a transition is decided on.
type Snapshot struct {
	Status   Status
	WorkerID *uuid.UUID
}

func (s Snapshot) assigned() bool { return s.WorkerID != nil && *s.WorkerID != uuid.Nil }

func (s Snapshot) assignedTo(p *auth.Principal) bool {
	return s.assigned() && p.IsWorker() && *s.WorkerID == p.WorkerID
}

type rule struct {
	allowed     func(p *auth.Principal) bool
	guard       func(s Snapshot, p *auth.Principal) bool
	onGuardFail Decision
	target      Status
}

func isWorker(p *auth.Principal) bool { return p.IsWorker() }
func isAdmin(p *auth.Principal) bool  { return p.IsAdmin() }
func isSystem(p *auth.Principal) bool { return p != nil && p.Role == auth.RoleSystem }

// transitions is the single table the assignment aggregate consults. The
// guard expressions mirror the WHERE clauses of the conditional updates in the
// process request repo; the update stays authoritative under concurrency.
var transitions = map[Transition]rule{
	TransitionClaim: {
		allowed:     isWorker,
		guard:       func(s Snapshot, _ *auth.Principal) bool { return !s.assigned() && s.Status == StatusPending },
		onGuardFail: DecisionConflict,
		target:      StatusWorking,
	},
	TransitionRevoke: {
		allowed:     isAdmin,
		guard:       func(s Snapshot, _ *auth.Principal) bool { return s.assigned() },
		onGuardFail: DecisionNotModified,
		target:      StatusPending,
	},
	TransitionReportError: {
		allowed:     isWorker,
		guard:       func(s Snapshot, p *auth.Principal) bool { return s.assignedTo(p) && s.Status == StatusWorking },
		onGuardFail: DecisionNotModified,
		target:      StatusError,
	},
	TransitionComplete: {
		allowed:     isWorker,
		guard:       func(s Snapshot, p *auth.Principal) bool { return s.assignedTo(p) && s.Status != StatusCompleted },
		onGuardFail: DecisionNotModified,
		target:      StatusCompleted,
	},
	TransitionHeartbeat: {
		allowed:     isWorker,
		guard:       func(s Snapshot, p *auth.Principal) bool { return s.assignedTo(p) && s.Status == StatusWorking },
		onGuardFail: DecisionNotModified,
		target:      StatusWorking,
	},
	TransitionExpire: {
		allowed:     isSystem,
		guard:       func(s Snapshot, _ *auth.Principal) bool { return s.assigned() && s.Status == StatusWorking },
		onGuardFail: DecisionNotModified,
		target:      StatusPending,
	},
}

// Decide is a pure function of (transition, current state, caller).
func Decide(t Transition, s Snapshot, p *auth.Principal) Decision {
	r, ok := transitions[t]
	if !ok || !r.allowed(p) {
		return DecisionReject
	}
	if !r.guard(s, p) {
		return r.onGuardFail
	}
	return DecisionApply
}

// GuardFailure is the decision reported when the conditional update matched no row.
func GuardFailure(t Transition) Decision {
	if r, ok := transitions[t]; ok {
		return r.onGuardFail
	}
	return DecisionReject
}

// TargetStatus is the status a successful transition leaves the request in.
func TargetStatus(t Transition) Status {
	return transitions[t].target
}

// ConsistentAssignment checks the worker/status invariant:
// worker == nil iff status == pending.
func ConsistentAssignment(s Snapshot) bool {
	if s.Status == StatusPending {
		return !s.assigned()
	}
	return s.assigned()
}
