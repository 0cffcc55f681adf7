package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type CellSubsetLabelRepo interface {
	Create(dbc dbctx.Context, labels []*types.CellSubsetLabel) ([]*types.CellSubsetLabel, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CellSubsetLabel, error)
}

type cellSubsetLabelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCellSubsetLabelRepo(db *gorm.DB, baseLog *logger.Logger) CellSubsetLabelRepo {
	return &cellSubsetLabelRepo{db: db, log: baseLog.With("repo", "CellSubsetLabelRepo")}
}

func (r *cellSubsetLabelRepo) Create(dbc dbctx.Context, labels []*types.CellSubsetLabel) ([]*types.CellSubsetLabel, error) {
	if len(labels) == 0 {
		return []*types.CellSubsetLabel{}, nil
	}
	if err := dbc.DB(r.db).Create(&labels).Error; err != nil {
		return nil, err
	}
	return labels, nil
}

func (r *cellSubsetLabelRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CellSubsetLabel, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var l types.CellSubsetLabel
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&l).Error; err != nil {
		return nil, err
	}
	if l.ID == uuid.Nil {
		return nil, nil
	}
	return &l, nil
}
