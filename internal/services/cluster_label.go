package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type ClusterLabelQuery struct {
	ClusterID *uuid.UUID
	LabelID   *uuid.UUID
}

// ClusterLabelService tags clusters with project labels. Labels are what the
// stage-2 composer selects clusters by.
type ClusterLabelService interface {
	Create(ctx context.Context, clusterID, labelID uuid.UUID) (*types.ClusterLabel, error)
	List(ctx context.Context, q ClusterLabelQuery) ([]*types.ClusterLabel, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type clusterLabelService struct {
	log           *logger.Logger
	oracle        PermissionOracle
	meta          MetadataStore
	clusters      repos.ClusterRepo
	clusterLabels repos.ClusterLabelRepo
	requests      repos.ProcessRequestRepo
}

func NewClusterLabelService(
	log *logger.Logger,
	oracle PermissionOracle,
	meta MetadataStore,
	clusters repos.ClusterRepo,
	clusterLabels repos.ClusterLabelRepo,
	requests repos.ProcessRequestRepo,
) ClusterLabelService {
	return &clusterLabelService{
		log:           log.With("service", "ClusterLabelService"),
		oracle:        oracle,
		meta:          meta,
		clusters:      clusters,
		clusterLabels: clusterLabels,
		requests:      requests,
	}
}

func (s *clusterLabelService) Create(ctx context.Context, clusterID, labelID uuid.UUID) (*types.ClusterLabel, error) {
	const op = "Processing.ClusterLabel.Create"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	label, err := s.meta.GetCellSubsetLabel(ctx, labelID)
	if err != nil {
		return nil, readErr(op, err)
	}
	if label == nil {
		return nil, domainagg.FieldError(op, "label", "label does not exist")
	}
	ok, err := s.oracle.HasAddPermission(ctx, p, label.ProjectID)
	if err := requirePermission(op, "add", label.ProjectID, ok, err); err != nil {
		return nil, err
	}
	projectID, err := s.clusterProject(dbc, op, clusterID)
	if err != nil {
		return nil, err
	}
	if projectID != label.ProjectID {
		return nil, domainagg.FieldError(op, "label", "label belongs to a different project than the cluster")
	}
	exists, err := s.clusterLabels.Exists(dbc, clusterID, labelID)
	if err != nil {
		return nil, readErr(op, err)
	}
	if exists {
		return nil, domainagg.FieldError(op, "label", "cluster already carries this label")
	}
	row, err := s.clusterLabels.Create(dbc, &types.ClusterLabel{ClusterID: clusterID, LabelID: labelID})
	if err != nil {
		mapped := readErr(op, err)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			return nil, domainagg.FieldError(op, "label", "cluster already carries this label")
		}
		return nil, mapped
	}
	return row, nil
}

func (s *clusterLabelService) List(ctx context.Context, q ClusterLabelQuery) ([]*types.ClusterLabel, error) {
	const op = "Processing.ClusterLabel.List"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	scope, err := s.oracle.ProjectsUserCanProcess(ctx, p)
	if err != nil {
		return nil, readErr(op, err)
	}
	out, err := s.clusterLabels.List(dbctx.Context{Ctx: ctx}, repos.ClusterLabelFilter{
		ProjectIDs: scope,
		ClusterID:  q.ClusterID,
		LabelID:    q.LabelID,
	})
	if err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

func (s *clusterLabelService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "Processing.ClusterLabel.Delete"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.clusterLabels.GetByID(dbc, id)
	if err != nil {
		return readErr(op, err)
	}
	if row == nil {
		return notFound(op, "cluster label", id)
	}
	projectID, err := s.clusterProject(dbc, op, row.ClusterID)
	if err != nil {
		return err
	}
	ok, err := s.oracle.HasModifyPermission(ctx, p, projectID)
	if err := requirePermission(op, "modify", projectID, ok, err); err != nil {
		return err
	}
	if _, err := s.clusterLabels.Delete(dbc, id); err != nil {
		return readErr(op, err)
	}
	return nil
}

func (s *clusterLabelService) clusterProject(dbc dbctx.Context, op string, clusterID uuid.UUID) (uuid.UUID, error) {
	c, err := s.clusters.GetByID(dbc, clusterID)
	if err != nil {
		return uuid.Nil, readErr(op, err)
	}
	if c == nil {
		return uuid.Nil, notFound(op, "cluster", clusterID)
	}
	pr, err := s.requests.GetByID(dbc, c.ProcessRequestID)
	if err != nil {
		return uuid.Nil, readErr(op, err)
	}
	if pr == nil {
		return uuid.Nil, notFound(op, "process request", c.ProcessRequestID)
	}
	return pr.ProjectID, nil
}
