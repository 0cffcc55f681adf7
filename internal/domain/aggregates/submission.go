package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
)

var SubmissionAggregateContract = Contract{
	Name:   "Processing.Submission",
	Tables: []string{
		"process_request", "process_request_input", "process_request_stage2_cluster",
		"cluster", "cluster_label", "sample_cluster", "sample_cluster_parameter",
		"sample_cluster_component", "sample_cluster_component_parameter",
	},
	Notes:  "Owns creation and deletion of a process request together with its inputs and downstream result rows.",
}

// SubmissionAggregate creates and deletes whole process requests.
// Permission checks happen in the service before these are called.
type SubmissionAggregate interface {
	Aggregate

	Submit(ctx context.Context, in SubmitInput) (SubmitResult, error)
	// Delete removes the request and everything it owns. It returns the event
	// blob keys the caller should remove after commit.
	Delete(ctx context.Context, requestID uuid.UUID) (DeleteResult, error)
}

type InputValue struct {
	Kind  processing.InputKind
	Value string
}

type SubmitInput struct {
	ProjectID          uuid.UUID
	SampleCollectionID *uuid.UUID
	Description        string
	SubsampleCount     int
	RequestedBy        uuid.UUID
	Inputs             []InputValue
	At                 time.Time
}

type SubmitResult struct {
	Request processing.ProcessRequest
	Inputs  []processing.ProcessRequestInput
}

type DeleteResult struct {
	Request   processing.ProcessRequest
	EventKeys []string
}
