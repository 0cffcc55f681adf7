package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type ClusterFilter struct {
	ProjectIDs []uuid.UUID
	RequestID  *uuid.UUID
}

type ClusterRepo interface {
	Create(dbc dbctx.Context, c *types.Cluster) (*types.Cluster, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Cluster, error)
	List(dbc dbctx.Context, f ClusterFilter) ([]*types.Cluster, error)
	IDsByRequest(dbc dbctx.Context, requestID uuid.UUID) ([]uuid.UUID, error)
	// IDsByRequestAndLabel returns the clusters of requestID tagged with labelID.
	IDsByRequestAndLabel(dbc dbctx.Context, requestID, labelID uuid.UUID) ([]uuid.UUID, error)
	DeleteByRequest(dbc dbctx.Context, requestID uuid.UUID) (int64, error)
}

type clusterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClusterRepo(db *gorm.DB, baseLog *logger.Logger) ClusterRepo {
	return &clusterRepo{db: db, log: baseLog.With("repo", "ClusterRepo")}
}

func (r *clusterRepo) Create(dbc dbctx.Context, c *types.Cluster) (*types.Cluster, error) {
	if err := dbc.DB(r.db).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *clusterRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Cluster, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Cluster
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&c).Error; err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

func (r *clusterRepo) List(dbc dbctx.Context, f ClusterFilter) ([]*types.Cluster, error) {
	out := []*types.Cluster{}
	if len(f.ProjectIDs) == 0 {
		return out, nil
	}
	q := dbc.DB(r.db).
		Select("cluster.*").
		Joins("JOIN process_request ON process_request.id = cluster.process_request_id").
		Where("process_request.project_id IN ?", f.ProjectIDs)
	if f.RequestID != nil {
		q = q.Where("cluster.process_request_id = ?", *f.RequestID)
	}
	if err := q.Order("cluster.process_request_id, cluster.cluster_index").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clusterRepo) IDsByRequest(dbc dbctx.Context, requestID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).Model(&types.Cluster{}).
		Where("process_request_id = ?", requestID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *clusterRepo) IDsByRequestAndLabel(dbc dbctx.Context, requestID, labelID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).Model(&types.Cluster{}).
		Joins("JOIN cluster_label ON cluster_label.cluster_id = cluster.id").
		Where("cluster.process_request_id = ? AND cluster_label.label_id = ?", requestID, labelID).
		Order("cluster.cluster_index").
		Pluck("cluster.id", &ids).Error
	return ids, err
}

func (r *clusterRepo) DeleteByRequest(dbc dbctx.Context, requestID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("process_request_id = ?", requestID).Delete(&types.Cluster{})
	return res.RowsAffected, res.Error
}
