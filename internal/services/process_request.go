package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/blobstore"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type CreateProcessRequestInput struct {
	ProjectID          uuid.UUID
	SampleCollectionID *uuid.UUID
	Description        string
	SubsampleCount     int
	Inputs             []domainagg.InputValue
}

type ProcessRequestQuery struct {
	ProjectID *uuid.UUID
	Status    *processing.Status
	Limit     int
}

// ProcessRequestService is the user-facing side of process requests.
type ProcessRequestService interface {
	Create(ctx context.Context, in CreateProcessRequestInput) (domainagg.SubmitResult, error)
	List(ctx context.Context, q ProcessRequestQuery) ([]*types.ProcessRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*types.ProcessRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListInputs(ctx context.Context, id uuid.UUID) ([]*types.ProcessRequestInput, error)
}

type processRequestService struct {
	log      *logger.Logger
	agg      domainagg.SubmissionAggregate
	oracle   PermissionOracle
	requests repos.ProcessRequestRepo
	inputs   repos.ProcessRequestInputRepo
	blobs    blobstore.Store
	notifier Notifier
}

func NewProcessRequestService(
	log *logger.Logger,
	agg domainagg.SubmissionAggregate,
	oracle PermissionOracle,
	requests repos.ProcessRequestRepo,
	inputs repos.ProcessRequestInputRepo,
	blobs blobstore.Store,
	notifier Notifier,
) ProcessRequestService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &processRequestService{
		log:      log.With("service", "ProcessRequestService"),
		agg:      agg,
		oracle:   oracle,
		requests: requests,
		inputs:   inputs,
		blobs:    blobs,
		notifier: notifier,
	}
}

func (s *processRequestService) Create(ctx context.Context, in CreateProcessRequestInput) (domainagg.SubmitResult, error) {
	const op = "Processing.ProcessRequest.Create"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return domainagg.SubmitResult{}, err
	}
	if in.ProjectID == uuid.Nil {
		return domainagg.SubmitResult{}, domainagg.FieldError(op, "project", "is required")
	}
	ok, err := s.oracle.HasProcessPermission(ctx, p, in.ProjectID)
	if err := requirePermission(op, "process", in.ProjectID, ok, err); err != nil {
		return domainagg.SubmitResult{}, err
	}
	res, err := s.agg.Submit(ctx, domainagg.SubmitInput{
		ProjectID:          in.ProjectID,
		SampleCollectionID: in.SampleCollectionID,
		Description:        in.Description,
		SubsampleCount:     in.SubsampleCount,
		RequestedBy:        p.UserID,
		Inputs:             in.Inputs,
		At:                 time.Now().UTC(),
	})
	if err != nil {
		return res, err
	}
	s.notifier.Publish(ctx, processing.NewEvent(processing.EventCreated, &res.Request))
	s.log.Info("process request created", "process_request_id", res.Request.ID, "project_id", res.Request.ProjectID, "user_id", p.UserID)
	return res, nil
}

func (s *processRequestService) List(ctx context.Context, q ProcessRequestQuery) ([]*types.ProcessRequest, error) {
	const op = "Processing.ProcessRequest.List"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	scope, err := s.oracle.ProjectsUserCanProcess(ctx, p)
	if err != nil {
		return nil, readErr(op, err)
	}
	out, err := s.requests.List(dbctx.Context{Ctx: ctx}, repos.ProcessRequestFilter{
		ProjectIDs: scope,
		ProjectID:  q.ProjectID,
		Status:     q.Status,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

func (s *processRequestService) Get(ctx context.Context, id uuid.UUID) (*types.ProcessRequest, error) {
	const op = "Processing.ProcessRequest.Get"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	return s.loadVisible(ctx, op, p, id)
}

func (s *processRequestService) ListInputs(ctx context.Context, id uuid.UUID) ([]*types.ProcessRequestInput, error) {
	const op = "Processing.ProcessRequest.ListInputs"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	pr, err := s.loadVisible(ctx, op, p, id)
	if err != nil {
		return nil, err
	}
	out, err := s.inputs.ListByRequest(dbctx.Context{Ctx: ctx}, pr.ID)
	if err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

func (s *processRequestService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "Processing.ProcessRequest.Delete"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return err
	}
	pr, err := s.requests.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return readErr(op, err)
	}
	if pr == nil {
		return notFound(op, "process request", id)
	}
	ok, err := s.oracle.HasModifyPermission(ctx, p, pr.ProjectID)
	if err := requirePermission(op, "modify", pr.ProjectID, ok, err); err != nil {
		return err
	}
	res, err := s.agg.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.removeBlobs(ctx, res.EventKeys)
	s.notifier.Publish(ctx, processing.NewEvent(processing.EventDeleted, &res.Request))
	s.log.Info("process request deleted", "process_request_id", id, "event_blobs", len(res.EventKeys))
	return nil
}

// removeBlobs runs after commit; a leftover blob is unreachable, not corrupt.
func (s *processRequestService) removeBlobs(ctx context.Context, keys []string) {
	if s.blobs == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if err := s.blobs.Delete(bg, key); err != nil {
			s.log.Warn("event blob delete failed", "error", err, "key", key)
		}
	}
}

func (s *processRequestService) loadVisible(ctx context.Context, op string, p *auth.Principal, id uuid.UUID) (*types.ProcessRequest, error) {
	pr, err := s.requests.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, readErr(op, err)
	}
	if pr == nil {
		return nil, notFound(op, "process request", id)
	}
	ok, err := s.oracle.HasViewPermission(ctx, p, pr.ProjectID)
	if err := requirePermission(op, "view", pr.ProjectID, ok, err); err != nil {
		return nil, err
	}
	return pr, nil
}
