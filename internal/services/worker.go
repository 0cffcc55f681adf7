package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type CreateWorkerInput struct {
	UserID   uuid.UUID
	Name     string
	Hostname string
}

// WorkerService is administrator-only worker registration.
type WorkerService interface {
	Create(ctx context.Context, in CreateWorkerInput) (*types.Worker, error)
	List(ctx context.Context) ([]*types.Worker, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type workerService struct {
	log      *logger.Logger
	users    repos.UserRepo
	workers  repos.WorkerRepo
	requests repos.ProcessRequestRepo
}

func NewWorkerService(log *logger.Logger, users repos.UserRepo, workers repos.WorkerRepo, requests repos.ProcessRequestRepo) WorkerService {
	return &workerService{
		log:      log.With("service", "WorkerService"),
		users:    users,
		workers:  workers,
		requests: requests,
	}
}

func (s *workerService) Create(ctx context.Context, in CreateWorkerInput) (*types.Worker, error) {
	const op = "Processing.Worker.Create"
	if _, err := requireAdmin(ctx, op); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domainagg.FieldError(op, "name", "is required")
	}
	hostname := strings.TrimSpace(in.Hostname)
	if hostname == "" {
		return nil, domainagg.FieldError(op, "hostname", "is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	u, err := s.users.GetByID(dbc, in.UserID)
	if err != nil {
		return nil, readErr(op, err)
	}
	if u == nil {
		return nil, domainagg.FieldError(op, "user", "user does not exist")
	}
	existing, err := s.workers.GetByUserID(dbc, u.ID)
	if err != nil {
		return nil, readErr(op, err)
	}
	if existing != nil {
		return nil, domainagg.NewError(domainagg.CodeConflict, op, fmt.Sprintf("user %s already has a worker", u.ID), nil)
	}
	w, err := s.workers.Create(dbc, &types.Worker{UserID: u.ID, Name: name, Hostname: hostname})
	if err != nil {
		return nil, readErr(op, err)
	}
	s.log.Info("worker registered", "worker_id", w.ID, "name", w.Name)
	return w, nil
}

func (s *workerService) List(ctx context.Context) ([]*types.Worker, error) {
	const op = "Processing.Worker.List"
	if _, err := requireAdmin(ctx, op); err != nil {
		return nil, err
	}
	out, err := s.workers.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

// Delete refuses while any process request still references the worker.
func (s *workerService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "Processing.Worker.Delete"
	if _, err := requireAdmin(ctx, op); err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	n, err := s.requests.CountByWorker(dbc, id)
	if err != nil {
		return readErr(op, err)
	}
	if n > 0 {
		return domainagg.NewError(domainagg.CodeConflict, op, fmt.Sprintf("worker is referenced by %d process requests", n), nil)
	}
	ok, err := s.workers.Delete(dbc, id)
	if err != nil {
		return readErr(op, err)
	}
	if !ok {
		return notFound(op, "worker", id)
	}
	s.log.Info("worker deleted", "worker_id", id)
	return nil
}
