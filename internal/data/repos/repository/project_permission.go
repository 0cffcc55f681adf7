package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type ProjectPermissionRepo interface {
	// Grant is idempotent.
	Grant(dbc dbctx.Context, userID, projectID uuid.UUID, perm types.Permission) error
	Has(dbc dbctx.Context, userID, projectID uuid.UUID, perm types.Permission) (bool, error)
	ProjectIDsWith(dbc dbctx.Context, userID uuid.UUID, perm types.Permission) ([]uuid.UUID, error)
}

type projectPermissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectPermissionRepo(db *gorm.DB, baseLog *logger.Logger) ProjectPermissionRepo {
	return &projectPermissionRepo{db: db, log: baseLog.With("repo", "ProjectPermissionRepo")}
}

func (r *projectPermissionRepo) Grant(dbc dbctx.Context, userID, projectID uuid.UUID, perm types.Permission) error {
	row := &types.ProjectPermission{UserID: userID, ProjectID: projectID, Permission: perm}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "project_id"}, {Name: "permission"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *projectPermissionRepo) Has(dbc dbctx.Context, userID, projectID uuid.UUID, perm types.Permission) (bool, error) {
	if userID == uuid.Nil || projectID == uuid.Nil {
		return false, nil
	}
	var n int64
	err := dbc.DB(r.db).Model(&types.ProjectPermission{}).
		Where("user_id = ? AND project_id = ? AND permission = ?", userID, projectID, perm).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *projectPermissionRepo) ProjectIDsWith(dbc dbctx.Context, userID uuid.UUID, perm types.Permission) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if userID == uuid.Nil {
		return ids, nil
	}
	err := dbc.DB(r.db).Model(&types.ProjectPermission{}).
		Where("user_id = ? AND permission = ?", userID, perm).
		Distinct().
		Pluck("project_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
