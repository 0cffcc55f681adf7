package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
)

var Stage2AggregateContract = Contract{
	Name:   "Processing.Stage2",
	Tables: []string{"process_request", "process_request_input", "process_request_stage2_cluster"},
	Notes:  "Owns stage-2 composition: the new request, its filter and clustering inputs and its seed cluster links commit together.",
}

// Stage2Aggregate composes a second-stage request from a labeled first stage.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodePreconditionFailed (no cluster of the
// parent carries the label), CodeRetryable, CodeInternal.
type Stage2Aggregate interface {
	Aggregate

	Compose(ctx context.Context, in ComposeStage2Input) (ComposeStage2Result, error)
}

type ComposeStage2Input struct {
	ParentID         uuid.UUID
	LabelID          uuid.UUID
	Description      string
	SubsampleCount   int
	RandomSeed       int
	ClusterCount     int
	Burnin           int
	IterationCount   int
	FilterParameters []string
	RequestedBy      uuid.UUID
	At               time.Time
}

type ComposeStage2Result struct {
	Request        processing.ProcessRequest
	Inputs         []processing.ProcessRequestInput
	SeedClusterIDs []uuid.UUID
}
