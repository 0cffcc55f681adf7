package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type SampleClusterFilter struct {
	ProjectIDs []uuid.UUID
	ClusterID  *uuid.UUID
	RequestID  *uuid.UUID
	SampleID   *uuid.UUID
}

type SampleClusterRepo interface {
	Create(dbc dbctx.Context, sc *types.SampleCluster) (*types.SampleCluster, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SampleCluster, error)
	List(dbc dbctx.Context, f SampleClusterFilter) ([]*types.SampleCluster, error)
	ListByClusterIDs(dbc dbctx.Context, clusterIDs []uuid.UUID) ([]*types.SampleCluster, error)
	CountByCluster(dbc dbctx.Context, clusterID uuid.UUID) (int64, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
}

type sampleClusterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleClusterRepo(db *gorm.DB, baseLog *logger.Logger) SampleClusterRepo {
	return &sampleClusterRepo{db: db, log: baseLog.With("repo", "SampleClusterRepo")}
}

func (r *sampleClusterRepo) Create(dbc dbctx.Context, sc *types.SampleCluster) (*types.SampleCluster, error) {
	if err := dbc.DB(r.db).Create(sc).Error; err != nil {
		return nil, err
	}
	return sc, nil
}

func (r *sampleClusterRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SampleCluster, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var sc types.SampleCluster
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&sc).Error; err != nil {
		return nil, err
	}
	if sc.ID == uuid.Nil {
		return nil, nil
	}
	return &sc, nil
}

func (r *sampleClusterRepo) List(dbc dbctx.Context, f SampleClusterFilter) ([]*types.SampleCluster, error) {
	out := []*types.SampleCluster{}
	if len(f.ProjectIDs) == 0 {
		return out, nil
	}
	q := dbc.DB(r.db).
		Select("sample_cluster.*").
		Joins("JOIN cluster ON cluster.id = sample_cluster.cluster_id").
		Joins("JOIN process_request ON process_request.id = cluster.process_request_id").
		Where("process_request.project_id IN ?", f.ProjectIDs)
	if f.ClusterID != nil {
		q = q.Where("sample_cluster.cluster_id = ?", *f.ClusterID)
	}
	if f.RequestID != nil {
		q = q.Where("cluster.process_request_id = ?", *f.RequestID)
	}
	if f.SampleID != nil {
		q = q.Where("sample_cluster.sample_id = ?", *f.SampleID)
	}
	if err := q.Order("sample_cluster.created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sampleClusterRepo) ListByClusterIDs(dbc dbctx.Context, clusterIDs []uuid.UUID) ([]*types.SampleCluster, error) {
	out := []*types.SampleCluster{}
	if len(clusterIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("cluster_id IN ?", clusterIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sampleClusterRepo) CountByCluster(dbc dbctx.Context, clusterID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.SampleCluster{}).Where("cluster_id = ?", clusterID).Count(&n).Error
	return n, err
}

func (r *sampleClusterRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.SampleCluster{})
	return res.RowsAffected, res.Error
}
