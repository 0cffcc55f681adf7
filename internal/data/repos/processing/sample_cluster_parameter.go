package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type SampleClusterParameterRepo interface {
	Create(dbc dbctx.Context, params []*types.SampleClusterParameter) ([]*types.SampleClusterParameter, error)
	ListBySampleClusters(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SampleClusterParameter, error)
	DeleteBySampleClusters(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
}

type sampleClusterParameterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleClusterParameterRepo(db *gorm.DB, baseLog *logger.Logger) SampleClusterParameterRepo {
	return &sampleClusterParameterRepo{db: db, log: baseLog.With("repo", "SampleClusterParameterRepo")}
}

func (r *sampleClusterParameterRepo) Create(dbc dbctx.Context, params []*types.SampleClusterParameter) ([]*types.SampleClusterParameter, error) {
	if len(params) == 0 {
		return []*types.SampleClusterParameter{}, nil
	}
	if err := dbc.DB(r.db).Create(&params).Error; err != nil {
		return nil, err
	}
	return params, nil
}

func (r *sampleClusterParameterRepo) ListBySampleClusters(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SampleClusterParameter, error) {
	out := []*types.SampleClusterParameter{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("sample_cluster_id IN ?", ids).Order("channel").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sampleClusterParameterRepo) DeleteBySampleClusters(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("sample_cluster_id IN ?", ids).Delete(&types.SampleClusterParameter{})
	return res.RowsAffected, res.Error
}
