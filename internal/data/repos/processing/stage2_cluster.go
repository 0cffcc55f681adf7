package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type Stage2ClusterRepo interface {
	Create(dbc dbctx.Context, links []*types.ProcessRequestStage2Cluster) ([]*types.ProcessRequestStage2Cluster, error)
	ListByRequest(dbc dbctx.Context, requestID uuid.UUID) ([]*types.ProcessRequestStage2Cluster, error)
	DeleteByRequest(dbc dbctx.Context, requestID uuid.UUID) (int64, error)
}

type stage2ClusterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStage2ClusterRepo(db *gorm.DB, baseLog *logger.Logger) Stage2ClusterRepo {
	return &stage2ClusterRepo{db: db, log: baseLog.With("repo", "Stage2ClusterRepo")}
}

func (r *stage2ClusterRepo) Create(dbc dbctx.Context, links []*types.ProcessRequestStage2Cluster) ([]*types.ProcessRequestStage2Cluster, error) {
	if len(links) == 0 {
		return []*types.ProcessRequestStage2Cluster{}, nil
	}
	if err := dbc.DB(r.db).Create(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *stage2ClusterRepo) ListByRequest(dbc dbctx.Context, requestID uuid.UUID) ([]*types.ProcessRequestStage2Cluster, error) {
	out := []*types.ProcessRequestStage2Cluster{}
	if err := dbc.DB(r.db).Where("process_request_id = ?", requestID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *stage2ClusterRepo) DeleteByRequest(dbc dbctx.Context, requestID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("process_request_id = ?", requestID).Delete(&types.ProcessRequestStage2Cluster{})
	return res.RowsAffected, res.Error
}
