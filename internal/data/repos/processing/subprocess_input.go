package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type SubprocessInputRepo interface {
	GetByDefinition(dbc dbctx.Context, def processing.Definition) (*types.SubprocessInput, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SubprocessInput, error)
}

type subprocessInputRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubprocessInputRepo(db *gorm.DB, baseLog *logger.Logger) SubprocessInputRepo {
	return &subprocessInputRepo{db: db, log: baseLog.With("repo", "SubprocessInputRepo")}
}

func (r *subprocessInputRepo) GetByDefinition(dbc dbctx.Context, def processing.Definition) (*types.SubprocessInput, error) {
	var row types.SubprocessInput
	err := dbc.DB(r.db).
		Where("category = ? AND implementation = ? AND name = ?", def.Category, def.Implementation, def.Name).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *subprocessInputRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SubprocessInput, error) {
	out := []*types.SubprocessInput{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
