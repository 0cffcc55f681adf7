package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/domain/repository"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

// PermissionOracle answers per-project capability questions. Superusers hold
// every permission on every project; anonymous callers hold none.
type PermissionOracle interface {
	HasViewPermission(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (bool, error)
	HasAddPermission(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (bool, error)
	HasModifyPermission(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (bool, error)
	HasProcessPermission(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (bool, error)
	ProjectsUserCanProcess(ctx context.Context, p *auth.Principal) ([]uuid.UUID, error)
}

type permissionOracle struct {
	log         *logger.Logger
	users       repos.UserRepo
	projects    repos.ProjectRepo
	permissions repos.ProjectPermissionRepo
}

func NewPermissionOracle(log *logger.Logger, users repos.UserRepo, projects repos.ProjectRepo, permissions repos.ProjectPermissionRepo) PermissionOracle {
	return &permissionOracle{
		log:         log.With("service", "PermissionOracle"),
		users:       users,
		projects:    projects,
		permissions: permissions,
	}
}

func (o *permissionOracle) HasViewPermission(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (bool, error) {
	return o.has(ctx, p, projectID, repository.PermissionView)
}

func (o *permissionOracle) HasAddPermission(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (bool, error) {
	return o.has(ctx, p, projectID, repository.PermissionAdd)
}

func (o *permissionOracle) HasModifyPermission(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (bool, error) {
	return o.has(ctx, p, projectID, repository.PermissionModify)
}

func (o *permissionOracle) HasProcessPermission(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (bool, error) {
	return o.has(ctx, p, projectID, repository.PermissionProcess)
}

func (o *permissionOracle) ProjectsUserCanProcess(ctx context.Context, p *auth.Principal) ([]uuid.UUID, error) {
	return o.projectsWith(ctx, p, repository.PermissionProcess)
}

func (o *permissionOracle) has(ctx context.Context, p *auth.Principal, projectID uuid.UUID, perm types.Permission) (bool, error) {
	if p.Anonymous() || projectID == uuid.Nil {
		return false, nil
	}
	super, err := o.superuser(ctx, p)
	if err != nil || super {
		return super, err
	}
	return o.permissions.Has(dbctx.Context{Ctx: ctx}, p.UserID, projectID, perm)
}

func (o *permissionOracle) projectsWith(ctx context.Context, p *auth.Principal, perm types.Permission) ([]uuid.UUID, error) {
	if p.Anonymous() {
		return []uuid.UUID{}, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	super, err := o.superuser(ctx, p)
	if err != nil {
		return nil, err
	}
	if super {
		return o.projects.ListIDs(dbc)
	}
	return o.permissions.ProjectIDsWith(dbc, p.UserID, perm)
}

// superuser trusts an admin principal and otherwise checks the user row, so a
// worker account owned by a superuser keeps its project reach.
func (o *permissionOracle) superuser(ctx context.Context, p *auth.Principal) (bool, error) {
	if p.IsAdmin() {
		return true, nil
	}
	u, err := o.users.GetByID(dbctx.Context{Ctx: ctx}, p.UserID)
	if err != nil {
		o.log.Error("superuser lookup failed", "error", err, "user_id", p.UserID)
		return false, err
	}
	return u != nil && u.IsSuperuser, nil
}
