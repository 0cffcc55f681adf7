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
	"github.com/yungbote/cytorepo-backend/internal/observability"
	"github.com/yungbote/cytorepo-backend/internal/platform/ctxutil"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

// AssignmentService is the worker polling protocol plus the admin revoke.
// Guard failures surface as CodeNotModified (CodeConflict for claim); callers
// of the wrong role get CodeForbidden.
type AssignmentService interface {
	ListViable(ctx context.Context) ([]*types.ProcessRequest, error)
	ListAssigned(ctx context.Context) ([]*types.ProcessRequest, error)
	Claim(ctx context.Context, requestID uuid.UUID) (*types.ProcessRequest, error)
	Revoke(ctx context.Context, requestID uuid.UUID) (*types.ProcessRequest, error)
	ReportError(ctx context.Context, requestID uuid.UUID, message string) (*types.ProcessRequest, error)
	Complete(ctx context.Context, requestID uuid.UUID) (*types.ProcessRequest, error)
	Heartbeat(ctx context.Context, requestID uuid.UUID, percent *int) (*types.ProcessRequest, error)
	VerifyAssignment(ctx context.Context, requestID uuid.UUID) (bool, error)
}

type AssignmentConfig struct {
	// ScopeViableByProject limits viable listings to projects the worker's
	// user may process. Off by default: any worker may take any job.
	ScopeViableByProject bool
}

type assignmentService struct {
	log      *logger.Logger
	requests repos.ProcessRequestRepo
	agg      domainagg.AssignmentAggregate
	oracle   PermissionOracle
	notifier Notifier
	metrics  *observability.Metrics
	cfg      AssignmentConfig
}

func NewAssignmentService(
	log *logger.Logger,
	requests repos.ProcessRequestRepo,
	agg domainagg.AssignmentAggregate,
	oracle PermissionOracle,
	notifier Notifier,
	metrics *observability.Metrics,
	cfg AssignmentConfig,
) AssignmentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &assignmentService{
		log:      log.With("service", "AssignmentService"),
		requests: requests,
		agg:      agg,
		oracle:   oracle,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
	}
}

func (s *assignmentService) ListViable(ctx context.Context) ([]*types.ProcessRequest, error) {
	const op = "Processing.Assignment.ListViable"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	if !p.IsWorker() {
		return []*types.ProcessRequest{}, nil
	}
	var projectIDs []uuid.UUID
	if s.cfg.ScopeViableByProject {
		if projectIDs, err = s.oracle.ProjectsUserCanProcess(ctx, p); err != nil {
			return nil, readErr(op, err)
		}
	}
	out, err := s.requests.ListViable(dbctx.Context{Ctx: ctx}, s.cfg.ScopeViableByProject, projectIDs)
	if err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

func (s *assignmentService) ListAssigned(ctx context.Context) ([]*types.ProcessRequest, error) {
	const op = "Processing.Assignment.ListAssigned"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	if !p.IsWorker() {
		return []*types.ProcessRequest{}, nil
	}
	out, err := s.requests.ListAssigned(dbctx.Context{Ctx: ctx}, p.WorkerID)
	if err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

func (s *assignmentService) Claim(ctx context.Context, requestID uuid.UUID) (*types.ProcessRequest, error) {
	return s.transition(ctx, domainagg.TransitionInput{RequestID: requestID, Transition: processing.TransitionClaim})
}

func (s *assignmentService) Revoke(ctx context.Context, requestID uuid.UUID) (*types.ProcessRequest, error) {
	return s.transition(ctx, domainagg.TransitionInput{RequestID: requestID, Transition: processing.TransitionRevoke})
}

func (s *assignmentService) ReportError(ctx context.Context, requestID uuid.UUID, message string) (*types.ProcessRequest, error) {
	return s.transition(ctx, domainagg.TransitionInput{
		RequestID:     requestID,
		Transition:    processing.TransitionReportError,
		StatusMessage: strings.TrimSpace(message),
	})
}

func (s *assignmentService) Complete(ctx context.Context, requestID uuid.UUID) (*types.ProcessRequest, error) {
	return s.transition(ctx, domainagg.TransitionInput{RequestID: requestID, Transition: processing.TransitionComplete})
}

func (s *assignmentService) Heartbeat(ctx context.Context, requestID uuid.UUID, percent *int) (*types.ProcessRequest, error) {
	return s.transition(ctx, domainagg.TransitionInput{
		RequestID:       requestID,
		Transition:      processing.TransitionHeartbeat,
		PercentComplete: percent,
	})
}

func (s *assignmentService) VerifyAssignment(ctx context.Context, requestID uuid.UUID) (bool, error) {
	const op = "Processing.Assignment.VerifyAssignment"
	p, err := requireWorker(ctx, op)
	if err != nil {
		return false, err
	}
	pr, err := s.requests.GetByID(dbctx.Context{Ctx: ctx}, requestID)
	if err != nil {
		return false, readErr(op, err)
	}
	if pr == nil {
		return false, notFound(op, "process request", requestID)
	}
	return pr.AssignedTo(p.WorkerID), nil
}

func (s *assignmentService) transition(ctx context.Context, in domainagg.TransitionInput) (*types.ProcessRequest, error) {
	op := domainagg.AssignmentAggregateContract.Op(string(in.Transition))
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	in.Actor = p
	in.At = time.Now().UTC()

	res, err := s.agg.Transition(ctx, in)
	if err != nil {
		s.metrics.IncTransition(string(in.Transition), string(domainagg.CodeOf(err)))
		s.logRejected(ctx, in, p, err)
		return nil, err
	}
	s.metrics.IncTransition(string(in.Transition), "applied")
	pr := res.Request
	if typ, ok := processing.EventForTransition(in.Transition); ok {
		s.notifier.Publish(ctx, processing.NewEvent(typ, &pr))
	}
	s.log.With(ctxutil.LogFields(ctx)...).Debug("transition applied",
		"transition", in.Transition,
		"process_request_id", pr.ID,
		"from", res.From,
		"to", pr.Status,
		"worker_id", pr.WorkerID,
	)
	return &pr, nil
}

func (s *assignmentService) logRejected(ctx context.Context, in domainagg.TransitionInput, p *auth.Principal, err error) {
	code := domainagg.CodeOf(err)
	log := s.log.With(ctxutil.LogFields(ctx)...)
	switch code {
	case domainagg.CodeNotModified, domainagg.CodeConflict:
		log.Debug("transition not applied", "transition", in.Transition, "process_request_id", in.RequestID, "code", code)
	case domainagg.CodeForbidden, domainagg.CodeNotFound, domainagg.CodeValidation:
		log.Info("transition rejected", "transition", in.Transition, "process_request_id", in.RequestID, "role", p.Role, "code", code)
	default:
		log.Error("transition failed", "transition", in.Transition, "process_request_id", in.RequestID, "error", err)
	}
}
