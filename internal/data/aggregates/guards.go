package aggregates

import (
	"fmt"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
)

// RequireDecision converts a transition decision into the typed error the
// caller surfaces. DecisionApply yields nil.
func RequireDecision(op string, t processing.Transition, d processing.Decision) error {
	switch d {
	case processing.DecisionApply:
		return nil
	case processing.DecisionNotModified:
		return domainagg.NewError(domainagg.CodeNotModified, op, fmt.Sprintf("%s not applied", t), nil)
	case processing.DecisionConflict:
		return domainagg.NewError(domainagg.CodeConflict, op, "process request already assigned", nil)
	default:
		return domainagg.NewError(domainagg.CodeForbidden, op, fmt.Sprintf("caller may not %s", t), nil)
	}
}

// RequireCASSuccess converts a guarded update that matched no row into the
// transition's guard-failure error.
func RequireCASSuccess(op string, t processing.Transition, ok bool) error {
	if ok {
		return nil
	}
	return RequireDecision(op, t, processing.GuardFailure(t))
}

// RequireAssignee rejects callers that are not the worker currently assigned
// to a Working request. Result writes are not safely retryable, so this is a
// rejection rather than a not-modified signal.
func RequireAssignee(op string, pr *processing.ProcessRequest, actor *auth.Principal) error {
	if pr == nil || !actor.IsWorker() || !pr.AssignedTo(actor.WorkerID) {
		return domainagg.NewError(domainagg.CodeForbidden, op, "caller is not the assigned worker", nil)
	}
	if pr.Status != processing.StatusWorking {
		return domainagg.NewError(domainagg.CodeForbidden, op, fmt.Sprintf("process request is %s, not working", pr.Status), nil)
	}
	return nil
}

func requireID(op, field string, id uuid.UUID) error {
	if id == uuid.Nil {
		return domainagg.FieldError(op, field, "is required")
	}
	return nil
}

func notFound(op, what string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("%s not found: %s", what, id), nil)
}
