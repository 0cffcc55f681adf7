package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
)

var AssignmentAggregateContract = Contract{
	Name:   "Processing.Assignment",
	Tables: []string{"process_request"},
	Notes:  "Owns process request worker/status transitions; every transition is one guarded conditional update.",
}

// AssignmentAggregate applies lifecycle transitions to a process request.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeForbidden (caller role may never perform the
// transition), CodeConflict (claim lost the race), CodeNotModified (guard failed
// for a worker-polled transition), CodeRetryable, CodeInternal.
type AssignmentAggregate interface {
	Aggregate

	Transition(ctx context.Context, in TransitionInput) (TransitionResult, error)
}

type TransitionInput struct {
	RequestID  uuid.UUID
	Transition processing.Transition
	Actor      *auth.Principal
	// StatusMessage is stored by report_error.
	StatusMessage string
	// PercentComplete is optionally stored by heartbeat.
	PercentComplete *int
	// StaleBefore bounds expire: the request is only expired if its last
	// heartbeat (or assignment) is older.
	StaleBefore *time.Time
	At          time.Time
}

type TransitionResult struct {
	Request processing.ProcessRequest
	From    processing.Status
}
