package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type ClusterLabelFilter struct {
	ProjectIDs []uuid.UUID
	ClusterID  *uuid.UUID
	LabelID    *uuid.UUID
}

type ClusterLabelRepo interface {
	Create(dbc dbctx.Context, l *types.ClusterLabel) (*types.ClusterLabel, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ClusterLabel, error)
	Exists(dbc dbctx.Context, clusterID, labelID uuid.UUID) (bool, error)
	List(dbc dbctx.Context, f ClusterLabelFilter) ([]*types.ClusterLabel, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	DeleteByClusterIDs(dbc dbctx.Context, clusterIDs []uuid.UUID) (int64, error)
}

type clusterLabelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClusterLabelRepo(db *gorm.DB, baseLog *logger.Logger) ClusterLabelRepo {
	return &clusterLabelRepo{db: db, log: baseLog.With("repo", "ClusterLabelRepo")}
}

func (r *clusterLabelRepo) Create(dbc dbctx.Context, l *types.ClusterLabel) (*types.ClusterLabel, error) {
	if err := dbc.DB(r.db).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

func (r *clusterLabelRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ClusterLabel, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var l types.ClusterLabel
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&l).Error; err != nil {
		return nil, err
	}
	if l.ID == uuid.Nil {
		return nil, nil
	}
	return &l, nil
}

func (r *clusterLabelRepo) Exists(dbc dbctx.Context, clusterID, labelID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.ClusterLabel{}).
		Where("cluster_id = ? AND label_id = ?", clusterID, labelID).
		Count(&n).Error
	return n > 0, err
}

func (r *clusterLabelRepo) List(dbc dbctx.Context, f ClusterLabelFilter) ([]*types.ClusterLabel, error) {
	out := []*types.ClusterLabel{}
	if len(f.ProjectIDs) == 0 {
		return out, nil
	}
	q := dbc.DB(r.db).
		Select("cluster_label.*").
		Joins("JOIN cluster ON cluster.id = cluster_label.cluster_id").
		Joins("JOIN process_request ON process_request.id = cluster.process_request_id").
		Where("process_request.project_id IN ?", f.ProjectIDs)
	if f.ClusterID != nil {
		q = q.Where("cluster_label.cluster_id = ?", *f.ClusterID)
	}
	if f.LabelID != nil {
		q = q.Where("cluster_label.label_id = ?", *f.LabelID)
	}
	if err := q.Order("cluster_label.created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clusterLabelRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.ClusterLabel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *clusterLabelRepo) DeleteByClusterIDs(dbc dbctx.Context, clusterIDs []uuid.UUID) (int64, error) {
	if len(clusterIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("cluster_id IN ?", clusterIDs).Delete(&types.ClusterLabel{})
	return res.RowsAffected, res.Error
}
