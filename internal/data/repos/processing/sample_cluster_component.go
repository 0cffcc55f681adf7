package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type SampleClusterComponentFilter struct {
	ProjectIDs      []uuid.UUID
	SampleClusterID *uuid.UUID
}

type SampleClusterComponentRepo interface {
	Create(dbc dbctx.Context, comps []*types.SampleClusterComponent) ([]*types.SampleClusterComponent, error)
	List(dbc dbctx.Context, f SampleClusterComponentFilter) ([]*types.SampleClusterComponent, error)
	IDsBySampleClusters(dbc dbctx.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	DeleteBySampleClusters(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
}

type sampleClusterComponentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleClusterComponentRepo(db *gorm.DB, baseLog *logger.Logger) SampleClusterComponentRepo {
	return &sampleClusterComponentRepo{db: db, log: baseLog.With("repo", "SampleClusterComponentRepo")}
}

func (r *sampleClusterComponentRepo) Create(dbc dbctx.Context, comps []*types.SampleClusterComponent) ([]*types.SampleClusterComponent, error) {
	if len(comps) == 0 {
		return []*types.SampleClusterComponent{}, nil
	}
	if err := dbc.DB(r.db).Create(&comps).Error; err != nil {
		return nil, err
	}
	return comps, nil
}

func (r *sampleClusterComponentRepo) List(dbc dbctx.Context, f SampleClusterComponentFilter) ([]*types.SampleClusterComponent, error) {
	out := []*types.SampleClusterComponent{}
	if len(f.ProjectIDs) == 0 {
		return out, nil
	}
	q := dbc.DB(r.db).
		Select("sample_cluster_component.*").
		Joins("JOIN sample_cluster ON sample_cluster.id = sample_cluster_component.sample_cluster_id").
		Joins("JOIN cluster ON cluster.id = sample_cluster.cluster_id").
		Joins("JOIN process_request ON process_request.id = cluster.process_request_id").
		Where("process_request.project_id IN ?", f.ProjectIDs)
	if f.SampleClusterID != nil {
		q = q.Where("sample_cluster_component.sample_cluster_id = ?", *f.SampleClusterID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sampleClusterComponentRepo) IDsBySampleClusters(dbc dbctx.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if len(ids) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).Model(&types.SampleClusterComponent{}).
		Where("sample_cluster_id IN ?", ids).
		Pluck("id", &out).Error
	return out, err
}

func (r *sampleClusterComponentRepo) DeleteBySampleClusters(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("sample_cluster_id IN ?", ids).Delete(&types.SampleClusterComponent{})
	return res.RowsAffected, res.Error
}

type SampleClusterComponentParameterRepo interface {
	Create(dbc dbctx.Context, params []*types.SampleClusterComponentParameter) ([]*types.SampleClusterComponentParameter, error)
	ListByComponents(dbc dbctx.Context, componentIDs []uuid.UUID) ([]*types.SampleClusterComponentParameter, error)
	DeleteByComponents(dbc dbctx.Context, componentIDs []uuid.UUID) (int64, error)
}

type sampleClusterComponentParameterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleClusterComponentParameterRepo(db *gorm.DB, baseLog *logger.Logger) SampleClusterComponentParameterRepo {
	return &sampleClusterComponentParameterRepo{db: db, log: baseLog.With("repo", "SampleClusterComponentParameterRepo")}
}

func (r *sampleClusterComponentParameterRepo) Create(dbc dbctx.Context, params []*types.SampleClusterComponentParameter) ([]*types.SampleClusterComponentParameter, error) {
	if len(params) == 0 {
		return []*types.SampleClusterComponentParameter{}, nil
	}
	if err := dbc.DB(r.db).Create(&params).Error; err != nil {
		return nil, err
	}
	return params, nil
}

func (r *sampleClusterComponentParameterRepo) ListByComponents(dbc dbctx.Context, componentIDs []uuid.UUID) ([]*types.SampleClusterComponentParameter, error) {
	out := []*types.SampleClusterComponentParameter{}
	if len(componentIDs) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("sample_cluster_component_id IN ?", componentIDs).
		Order("channel").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sampleClusterComponentParameterRepo) DeleteByComponents(dbc dbctx.Context, componentIDs []uuid.UUID) (int64, error) {
	if len(componentIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("sample_cluster_component_id IN ?", componentIDs).Delete(&types.SampleClusterComponentParameter{})
	return res.RowsAffected, res.Error
}
