package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type Stage2Input struct {
	ParentID         uuid.UUID
	LabelID          uuid.UUID
	Description      string
	SubsampleCount   int
	RandomSeed       int
	ClusterCount     int
	Burnin           int
	IterationCount   int
	FilterParameters []string
}

// Stage2Service re-clusters the labeled subset of a finished request.
type Stage2Service interface {
	CreateStage2Request(ctx context.Context, in Stage2Input) (domainagg.ComposeStage2Result, error)
}

type stage2Service struct {
	log      *logger.Logger
	agg      domainagg.Stage2Aggregate
	oracle   PermissionOracle
	requests repos.ProcessRequestRepo
	notifier Notifier
}

func NewStage2Service(log *logger.Logger, agg domainagg.Stage2Aggregate, oracle PermissionOracle, requests repos.ProcessRequestRepo, notifier Notifier) Stage2Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &stage2Service{
		log:      log.With("service", "Stage2Service"),
		agg:      agg,
		oracle:   oracle,
		requests: requests,
		notifier: notifier,
	}
}

func (s *stage2Service) CreateStage2Request(ctx context.Context, in Stage2Input) (domainagg.ComposeStage2Result, error) {
	const op = "Processing.Stage2.CreateStage2Request"
	var out domainagg.ComposeStage2Result
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return out, err
	}
	parent, err := s.requests.GetByID(dbctx.Context{Ctx: ctx}, in.ParentID)
	if err != nil {
		return out, readErr(op, err)
	}
	if parent == nil {
		return out, notFound(op, "process request", in.ParentID)
	}
	ok, err := s.oracle.HasProcessPermission(ctx, p, parent.ProjectID)
	if err := requirePermission(op, "process", parent.ProjectID, ok, err); err != nil {
		return out, err
	}

	out, err = s.agg.Compose(ctx, domainagg.ComposeStage2Input{
		ParentID:         parent.ID,
		LabelID:          in.LabelID,
		Description:      in.Description,
		SubsampleCount:   in.SubsampleCount,
		RandomSeed:       in.RandomSeed,
		ClusterCount:     in.ClusterCount,
		Burnin:           in.Burnin,
		IterationCount:   in.IterationCount,
		FilterParameters: in.FilterParameters,
		RequestedBy:      p.UserID,
		At:               time.Now().UTC(),
	})
	if err != nil {
		return domainagg.ComposeStage2Result{}, err
	}
	s.notifier.Publish(ctx, processing.NewEvent(processing.EventCreated, &out.Request))
	s.log.Info("stage-2 request created",
		"process_request_id", out.Request.ID,
		"parent_id", parent.ID,
		"label_id", in.LabelID,
		"seed_clusters", len(out.SeedClusterIDs),
	)
	return out, nil
}
