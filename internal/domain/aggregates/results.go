package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
)

var ResultsAggregateContract = Contract{
	Name:   "Processing.Results",
	Tables: []string{"cluster", "sample_cluster", "sample_cluster_parameter", "sample_cluster_component", "sample_cluster_component_parameter"},
	Notes:  "Owns cluster and sample cluster result trees; a sample cluster with its parameters, components and event blob commits as one unit.",
}

// ResultsAggregate ingests a worker's clustering results.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeForbidden (caller is not the assignee),
// CodeConflict (duplicate cluster index), CodeRetryable, CodeInternal.
type ResultsAggregate interface {
	Aggregate

	CreateCluster(ctx context.Context, in CreateClusterInput) (processing.Cluster, error)
	CreateSampleCluster(ctx context.Context, in CreateSampleClusterInput) (CreateSampleClusterResult, error)
}

type CreateClusterInput struct {
	RequestID uuid.UUID
	Index     int
	Actor     *auth.Principal
}

type ComponentInput struct {
	Covariance [][]float64
	Weight     float64
	// Parameters maps channel number to the component mean on that channel.
	Parameters map[int]float64
}

type CreateSampleClusterInput struct {
	ClusterID uuid.UUID
	SampleID  uuid.UUID
	// Events are raw event indices, stored verbatim in caller order.
	Events []int64
	// Parameters maps channel number to the centroid location on that channel.
	Parameters map[int]float64
	Components []ComponentInput
	Actor      *auth.Principal
}

type CreateSampleClusterResult struct {
	SampleCluster           processing.SampleCluster
	ParameterCount          int
	ComponentIDs            []uuid.UUID
	ComponentParameterCount int
}
