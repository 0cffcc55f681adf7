package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

type AssignmentAggregateDeps struct {
	Base BaseDeps

	Requests repos.ProcessRequestRepo
}

type assignmentAggregate struct {
	deps AssignmentAggregateDeps
}

func NewAssignmentAggregate(deps AssignmentAggregateDeps) domainagg.AssignmentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &assignmentAggregate{deps: deps}
}

func (a *assignmentAggregate) Contract() domainagg.Contract {
	return domainagg.AssignmentAggregateContract
}

// Transition decides the transition against the current row, then runs the
// matching guarded update. The decision rejects callers early; the update's
// WHERE clause is what settles races between concurrent callers.
func (a *assignmentAggregate) Transition(ctx context.Context, in domainagg.TransitionInput) (domainagg.TransitionResult, error) {
	op := domainagg.AssignmentAggregateContract.Op(string(in.Transition))
	var out domainagg.TransitionResult
	if err := requireID(op, "request_id", in.RequestID); err != nil {
		return out, err
	}
	if a.deps.Requests == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "assignment aggregate repos not configured", nil)
	}
	switch in.Transition {
	case processing.TransitionHeartbeat:
		if in.PercentComplete != nil && (*in.PercentComplete < 0 || *in.PercentComplete > 100) {
			return out, domainagg.FieldError(op, "percent_complete", "must be between 0 and 100")
		}
	case processing.TransitionExpire:
		if in.StaleBefore == nil || in.StaleBefore.IsZero() {
			return out, domainagg.FieldError(op, "stale_before", "is required")
		}
	}
	at := nowUTC(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		pr, err := a.deps.Requests.GetByID(dbc, in.RequestID)
		if err != nil {
			return err
		}
		if pr == nil {
			return notFound(op, "process request", in.RequestID)
		}
		out.From = pr.Status

		if err := RequireDecision(op, in.Transition, processing.Decide(in.Transition, pr.Snapshot(), in.Actor)); err != nil {
			return err
		}

		var ok bool
		switch in.Transition {
		case processing.TransitionClaim:
			ok, err = a.deps.Requests.ClaimUnassigned(dbc, pr.ID, in.Actor.WorkerID, at)
		case processing.TransitionRevoke:
			ok, err = a.deps.Requests.RevokeAssigned(dbc, pr.ID)
		case processing.TransitionReportError:
			ok, err = a.deps.Requests.MarkError(dbc, pr.ID, in.Actor.WorkerID, strings.TrimSpace(in.StatusMessage))
		case processing.TransitionComplete:
			ok, err = a.deps.Requests.MarkCompleted(dbc, pr.ID, in.Actor.WorkerID, at)
		case processing.TransitionHeartbeat:
			ok, err = a.deps.Requests.Touch(dbc, pr.ID, in.Actor.WorkerID, at, in.PercentComplete)
		case processing.TransitionExpire:
			ok, err = a.deps.Requests.ExpireStale(dbc, pr.ID, *in.StaleBefore)
		default:
			return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown transition %q", in.Transition), nil)
		}
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(op, in.Transition, ok); err != nil {
			return err
		}

		updated, err := a.deps.Requests.GetByID(dbc, pr.ID)
		if err != nil {
			return err
		}
		if updated == nil {
			return InvariantError("process request vanished during transition")
		}
		if !processing.ConsistentAssignment(updated.Snapshot()) {
			return InvariantError(fmt.Sprintf("worker/status mismatch after %s: status=%s", in.Transition, updated.Status))
		}
		out.Request = *updated
		return nil
	})
	if err != nil {
		return domainagg.TransitionResult{From: out.From}, err
	}
	return out, nil
}
