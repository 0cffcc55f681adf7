package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type ProcessRequestInputRepo interface {
	Create(dbc dbctx.Context, inputs []*types.ProcessRequestInput) ([]*types.ProcessRequestInput, error)
	ListByRequest(dbc dbctx.Context, requestID uuid.UUID) ([]*types.ProcessRequestInput, error)
	DeleteByRequest(dbc dbctx.Context, requestID uuid.UUID) (int64, error)
}

type processRequestInputRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessRequestInputRepo(db *gorm.DB, baseLog *logger.Logger) ProcessRequestInputRepo {
	return &processRequestInputRepo{db: db, log: baseLog.With("repo", "ProcessRequestInputRepo")}
}

func (r *processRequestInputRepo) Create(dbc dbctx.Context, inputs []*types.ProcessRequestInput) ([]*types.ProcessRequestInput, error) {
	if len(inputs) == 0 {
		return []*types.ProcessRequestInput{}, nil
	}
	if err := dbc.DB(r.db).Create(&inputs).Error; err != nil {
		return nil, err
	}
	return inputs, nil
}

func (r *processRequestInputRepo) ListByRequest(dbc dbctx.Context, requestID uuid.UUID) ([]*types.ProcessRequestInput, error) {
	out := []*types.ProcessRequestInput{}
	if err := dbc.DB(r.db).Where("process_request_id = ?", requestID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *processRequestInputRepo) DeleteByRequest(dbc dbctx.Context, requestID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("process_request_id = ?", requestID).Delete(&types.ProcessRequestInput{})
	return res.RowsAffected, res.Error
}
