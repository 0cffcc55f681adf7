package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type SampleRepo interface {
	Create(dbc dbctx.Context, samples []*types.Sample) ([]*types.Sample, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Sample, error)
}

type sampleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleRepo(db *gorm.DB, baseLog *logger.Logger) SampleRepo {
	return &sampleRepo{db: db, log: baseLog.With("repo", "SampleRepo")}
}

func (r *sampleRepo) Create(dbc dbctx.Context, samples []*types.Sample) ([]*types.Sample, error) {
	if len(samples) == 0 {
		return []*types.Sample{}, nil
	}
	if err := dbc.DB(r.db).Create(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *sampleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Sample, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var s types.Sample
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&s).Error; err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, nil
	}
	return &s, nil
}

type SampleCollectionRepo interface {
	Create(dbc dbctx.Context, c *types.SampleCollection, sampleIDs []uuid.UUID) (*types.SampleCollection, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SampleCollection, error)
	SampleIDs(dbc dbctx.Context, id uuid.UUID) ([]uuid.UUID, error)
}

type sampleCollectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleCollectionRepo(db *gorm.DB, baseLog *logger.Logger) SampleCollectionRepo {
	return &sampleCollectionRepo{db: db, log: baseLog.With("repo", "SampleCollectionRepo")}
}

func (r *sampleCollectionRepo) Create(dbc dbctx.Context, c *types.SampleCollection, sampleIDs []uuid.UUID) (*types.SampleCollection, error) {
	db := dbc.DB(r.db)
	if err := db.Create(c).Error; err != nil {
		return nil, err
	}
	if len(sampleIDs) == 0 {
		return c, nil
	}
	members := make([]*types.SampleCollectionMember, 0, len(sampleIDs))
	for _, sid := range sampleIDs {
		members = append(members, &types.SampleCollectionMember{SampleCollectionID: c.ID, SampleID: sid})
	}
	if err := db.Create(&members).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *sampleCollectionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SampleCollection, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.SampleCollection
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&c).Error; err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

func (r *sampleCollectionRepo) SampleIDs(dbc dbctx.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).Model(&types.SampleCollectionMember{}).
		Where("sample_collection_id = ?", id).
		Pluck("sample_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
