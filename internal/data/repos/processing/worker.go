package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type WorkerRepo interface {
	Create(dbc dbctx.Context, w *types.Worker) (*types.Worker, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Worker, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Worker, error)
	List(dbc dbctx.Context) ([]*types.Worker, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type workerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkerRepo(db *gorm.DB, baseLog *logger.Logger) WorkerRepo {
	return &workerRepo{db: db, log: baseLog.With("repo", "WorkerRepo")}
}

func (r *workerRepo) Create(dbc dbctx.Context, w *types.Worker) (*types.Worker, error) {
	if err := dbc.DB(r.db).Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

func (r *workerRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Worker, error) {
	return r.first(dbc, "id = ?", id)
}

func (r *workerRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Worker, error) {
	return r.first(dbc, "user_id = ?", userID)
}

func (r *workerRepo) first(dbc dbctx.Context, where string, id uuid.UUID) (*types.Worker, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var w types.Worker
	if err := dbc.DB(r.db).Where(where, id).Limit(1).Find(&w).Error; err != nil {
		return nil, err
	}
	if w.ID == uuid.Nil {
		return nil, nil
	}
	return &w, nil
}

func (r *workerRepo) List(dbc dbctx.Context) ([]*types.Worker, error) {
	out := []*types.Worker{}
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *workerRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Worker{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
