package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/observability"
	"github.com/yungbote/cytorepo-backend/internal/platform/blobstore"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type SampleClusterQuery struct {
	ClusterID *uuid.UUID
	RequestID *uuid.UUID
	SampleID  *uuid.UUID
}

// ComponentView is a mixture component with its per-channel means.
type ComponentView struct {
	types.SampleClusterComponent
	Parameters []*types.SampleClusterComponentParameter `json:"parameters"`
}

// ResultsService ingests worker results and serves them back, scoped to the
// projects the caller may process.
type ResultsService interface {
	CreateCluster(ctx context.Context, requestID uuid.UUID, index int) (*types.Cluster, error)
	CreateSampleCluster(ctx context.Context, in domainagg.CreateSampleClusterInput) (domainagg.CreateSampleClusterResult, error)
	ListClusters(ctx context.Context, requestID uuid.UUID) ([]*types.Cluster, error)
	ListSampleClusters(ctx context.Context, q SampleClusterQuery) ([]*types.SampleCluster, error)
	ListSampleClusterComponents(ctx context.Context, sampleClusterID *uuid.UUID) ([]ComponentView, error)
	GetSampleClusterEvents(ctx context.Context, sampleClusterID uuid.UUID) ([]int64, error)
}

type resultsService struct {
	log                 *logger.Logger
	agg                 domainagg.ResultsAggregate
	oracle              PermissionOracle
	requests            repos.ProcessRequestRepo
	clusters            repos.ClusterRepo
	sampleClusters      repos.SampleClusterRepo
	components          repos.SampleClusterComponentRepo
	componentParameters repos.SampleClusterComponentParameterRepo
	blobs               blobstore.Store
	metrics             *observability.Metrics
}

func NewResultsService(
	log *logger.Logger,
	agg domainagg.ResultsAggregate,
	oracle PermissionOracle,
	requests repos.ProcessRequestRepo,
	clusters repos.ClusterRepo,
	sampleClusters repos.SampleClusterRepo,
	components repos.SampleClusterComponentRepo,
	componentParameters repos.SampleClusterComponentParameterRepo,
	blobs blobstore.Store,
	metrics *observability.Metrics,
) ResultsService {
	return &resultsService{
		log:                 log.With("service", "ResultsService"),
		agg:                 agg,
		oracle:              oracle,
		requests:            requests,
		clusters:            clusters,
		sampleClusters:      sampleClusters,
		components:          components,
		componentParameters: componentParameters,
		blobs:               blobs,
		metrics:             metrics,
	}
}

func (s *resultsService) CreateCluster(ctx context.Context, requestID uuid.UUID, index int) (*types.Cluster, error) {
	const op = "Processing.Results.CreateCluster"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	c, err := s.agg.CreateCluster(ctx, domainagg.CreateClusterInput{RequestID: requestID, Index: index, Actor: p})
	if err != nil {
		return nil, err
	}
	s.metrics.AddIngestedRows("cluster", 1)
	return &c, nil
}

func (s *resultsService) CreateSampleCluster(ctx context.Context, in domainagg.CreateSampleClusterInput) (domainagg.CreateSampleClusterResult, error) {
	const op = "Processing.Results.CreateSampleCluster"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return domainagg.CreateSampleClusterResult{}, err
	}
	in.Actor = p
	res, err := s.agg.CreateSampleCluster(ctx, in)
	if err != nil {
		if domainagg.CodeOf(err) == domainagg.CodeInternal {
			s.log.Error("sample cluster ingestion failed", "error", err, "cluster_id", in.ClusterID, "worker_id", p.WorkerID)
		}
		return res, err
	}
	s.metrics.AddIngestedRows("sample_cluster", 1)
	s.metrics.AddIngestedRows("sample_cluster_parameter", res.ParameterCount)
	s.metrics.AddIngestedRows("sample_cluster_component", len(res.ComponentIDs))
	s.metrics.AddIngestedRows("sample_cluster_component_parameter", res.ComponentParameterCount)
	s.log.Info("sample cluster ingested",
		"sample_cluster_id", res.SampleCluster.ID,
		"cluster_id", in.ClusterID,
		"events", res.SampleCluster.EventCount,
		"components", len(res.ComponentIDs),
	)
	return res, nil
}

func (s *resultsService) ListClusters(ctx context.Context, requestID uuid.UUID) ([]*types.Cluster, error) {
	const op = "Processing.Results.ListClusters"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	pr, err := s.requests.GetByID(dbc, requestID)
	if err != nil {
		return nil, readErr(op, err)
	}
	if pr == nil {
		return nil, notFound(op, "process request", requestID)
	}
	ok, err := s.oracle.HasViewPermission(ctx, p, pr.ProjectID)
	if err := requirePermission(op, "view", pr.ProjectID, ok, err); err != nil {
		return nil, err
	}
	out, err := s.clusters.List(dbc, repos.ClusterFilter{ProjectIDs: []uuid.UUID{pr.ProjectID}, RequestID: &pr.ID})
	if err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

func (s *resultsService) ListSampleClusters(ctx context.Context, q SampleClusterQuery) ([]*types.SampleCluster, error) {
	const op = "Processing.Results.ListSampleClusters"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	scope, err := s.oracle.ProjectsUserCanProcess(ctx, p)
	if err != nil {
		return nil, readErr(op, err)
	}
	out, err := s.sampleClusters.List(dbctx.Context{Ctx: ctx}, repos.SampleClusterFilter{
		ProjectIDs: scope,
		ClusterID:  q.ClusterID,
		RequestID:  q.RequestID,
		SampleID:   q.SampleID,
	})
	if err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

func (s *resultsService) ListSampleClusterComponents(ctx context.Context, sampleClusterID *uuid.UUID) ([]ComponentView, error) {
	const op = "Processing.Results.ListSampleClusterComponents"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	scope, err := s.oracle.ProjectsUserCanProcess(ctx, p)
	if err != nil {
		return nil, readErr(op, err)
	}
	dbc := dbctx.Context{Ctx: ctx}
	comps, err := s.components.List(dbc, repos.SampleClusterComponentFilter{ProjectIDs: scope, SampleClusterID: sampleClusterID})
	if err != nil {
		return nil, readErr(op, err)
	}
	ids := make([]uuid.UUID, 0, len(comps))
	for _, c := range comps {
		ids = append(ids, c.ID)
	}
	params, err := s.componentParameters.ListByComponents(dbc, ids)
	if err != nil {
		return nil, readErr(op, err)
	}
	byComp := make(map[uuid.UUID][]*types.SampleClusterComponentParameter, len(comps))
	for _, prm := range params {
		byComp[prm.SampleClusterComponentID] = append(byComp[prm.SampleClusterComponentID], prm)
	}
	out := make([]ComponentView, 0, len(comps))
	for _, c := range comps {
		ps := byComp[c.ID]
		if ps == nil {
			ps = []*types.SampleClusterComponentParameter{}
		}
		out = append(out, ComponentView{SampleClusterComponent: *c, Parameters: ps})
	}
	return out, nil
}

func (s *resultsService) GetSampleClusterEvents(ctx context.Context, sampleClusterID uuid.UUID) ([]int64, error) {
	const op = "Processing.Results.GetSampleClusterEvents"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	sc, err := s.sampleClusters.GetByID(dbc, sampleClusterID)
	if err != nil {
		return nil, readErr(op, err)
	}
	if sc == nil {
		return nil, notFound(op, "sample cluster", sampleClusterID)
	}
	c, err := s.clusters.GetByID(dbc, sc.ClusterID)
	if err != nil {
		return nil, readErr(op, err)
	}
	if c == nil {
		return nil, notFound(op, "cluster", sc.ClusterID)
	}
	pr, err := s.requests.GetByID(dbc, c.ProcessRequestID)
	if err != nil {
		return nil, readErr(op, err)
	}
	if pr == nil {
		return nil, notFound(op, "process request", c.ProcessRequestID)
	}
	ok, err := s.oracle.HasProcessPermission(ctx, p, pr.ProjectID)
	if err := requirePermission(op, "process", pr.ProjectID, ok, err); err != nil {
		return nil, err
	}

	rc, err := s.blobs.Get(ctx, sc.EventsKey)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, domainagg.NewError(domainagg.CodeInvariantViolation, op, "event blob missing", err)
	}
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeRetryable, op, "event blob unavailable", err)
	}
	defer rc.Close()
	events, err := blobstore.DecodeEvents(rc)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return events, nil
}
