package processing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

// ProcessRequestFilter narrows List. ProjectIDs is the caller's permission
// scope and is always applied; an empty scope yields no rows.
type ProcessRequestFilter struct {
	ProjectIDs []uuid.UUID
	ProjectID  *uuid.UUID
	Status     *processing.Status
	WorkerID   *uuid.UUID
	Limit      int
}

// ProcessRequestRepo owns the process_request table. The Claim/Revoke/Mark*/
// Touch/Expire methods are guarded conditional updates: they return false when
// the WHERE clause matched nothing and never read-then-write.
type ProcessRequestRepo interface {
	Create(dbc dbctx.Context, reqs []*types.ProcessRequest) ([]*types.ProcessRequest, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProcessRequest, error)
	// LockByID reads the row FOR UPDATE; it requires dbc.Tx.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ProcessRequest, error)
	List(dbc dbctx.Context, f ProcessRequestFilter) ([]*types.ProcessRequest, error)
	// ListViable returns pending, unassigned, uncompleted requests. When scoped
	// is false projectIDs is ignored.
	ListViable(dbc dbctx.Context, scoped bool, projectIDs []uuid.UUID) ([]*types.ProcessRequest, error)
	ListAssigned(dbc dbctx.Context, workerID uuid.UUID) ([]*types.ProcessRequest, error)
	ListStale(dbc dbctx.Context, cutoff time.Time, limit int) ([]*types.ProcessRequest, error)
	CountByStatus(dbc dbctx.Context) (map[processing.Status]int64, error)
	CountByWorker(dbc dbctx.Context, workerID uuid.UUID) (int64, error)
	CountChildren(dbc dbctx.Context, parentID uuid.UUID) (int64, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)

	ClaimUnassigned(dbc dbctx.Context, id, workerID uuid.UUID, at time.Time) (bool, error)
	RevokeAssigned(dbc dbctx.Context, id uuid.UUID) (bool, error)
	MarkError(dbc dbctx.Context, id, workerID uuid.UUID, message string) (bool, error)
	MarkCompleted(dbc dbctx.Context, id, workerID uuid.UUID, at time.Time) (bool, error)
	Touch(dbc dbctx.Context, id, workerID uuid.UUID, at time.Time, percent *int) (bool, error)
	ExpireStale(dbc dbctx.Context, id uuid.UUID, cutoff time.Time) (bool, error)
}

type processRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessRequestRepo(db *gorm.DB, baseLog *logger.Logger) ProcessRequestRepo {
	return &processRequestRepo{db: db, log: baseLog.With("repo", "ProcessRequestRepo")}
}

func (r *processRequestRepo) Create(dbc dbctx.Context, reqs []*types.ProcessRequest) ([]*types.ProcessRequest, error) {
	if len(reqs) == 0 {
		return []*types.ProcessRequest{}, nil
	}
	if err := dbc.DB(r.db).Create(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *processRequestRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProcessRequest, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var pr types.ProcessRequest
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&pr).Error; err != nil {
		return nil, err
	}
	if pr.ID == uuid.Nil {
		return nil, nil
	}
	return &pr, nil
}

func (r *processRequestRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ProcessRequest, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var pr types.ProcessRequest
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&pr).Error
	if err != nil {
		return nil, err
	}
	if pr.ID == uuid.Nil {
		return nil, nil
	}
	return &pr, nil
}

func (r *processRequestRepo) List(dbc dbctx.Context, f ProcessRequestFilter) ([]*types.ProcessRequest, error) {
	out := []*types.ProcessRequest{}
	if len(f.ProjectIDs) == 0 {
		return out, nil
	}
	q := dbc.DB(r.db).Where("project_id IN ?", f.ProjectIDs)
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.WorkerID != nil {
		q = q.Where("worker_id = ?", *f.WorkerID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Order("request_date DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *processRequestRepo) ListViable(dbc dbctx.Context, scoped bool, projectIDs []uuid.UUID) ([]*types.ProcessRequest, error) {
	out := []*types.ProcessRequest{}
	q := dbc.DB(r.db).
		Where("status = ? AND worker_id IS NULL AND completion_date IS NULL", processing.StatusPending)
	if scoped {
		if len(projectIDs) == 0 {
			return out, nil
		}
		q = q.Where("project_id IN ?", projectIDs)
	}
	if err := q.Order("request_date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *processRequestRepo) ListAssigned(dbc dbctx.Context, workerID uuid.UUID) ([]*types.ProcessRequest, error) {
	out := []*types.ProcessRequest{}
	if workerID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("worker_id = ? AND status IN ? AND completion_date IS NULL", workerID,
			[]processing.Status{processing.StatusPending, processing.StatusWorking}).
		Order("assignment_date ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *processRequestRepo) ListStale(dbc dbctx.Context, cutoff time.Time, limit int) ([]*types.ProcessRequest, error) {
	out := []*types.ProcessRequest{}
	q := dbc.DB(r.db).
		Where("status = ? AND worker_id IS NOT NULL", processing.StatusWorking).
		Where("COALESCE(heartbeat_at, assignment_date) < ?", cutoff.UTC()).
		Order("assignment_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *processRequestRepo) CountByStatus(dbc dbctx.Context) (map[processing.Status]int64, error) {
	var rows []struct {
		Status processing.Status
		N      int64
	}
	err := dbc.DB(r.db).Model(&types.ProcessRequest{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[processing.Status]int64{
		processing.StatusPending:   0,
		processing.StatusWorking:   0,
		processing.StatusError:     0,
		processing.StatusCompleted: 0,
	}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *processRequestRepo) CountByWorker(dbc dbctx.Context, workerID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.ProcessRequest{}).Where("worker_id = ?", workerID).Count(&n).Error
	return n, err
}

func (r *processRequestRepo) CountChildren(dbc dbctx.Context, parentID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.ProcessRequest{}).Where("parent_stage_id = ?", parentID).Count(&n).Error
	return n, err
}

func (r *processRequestRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.ProcessRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *processRequestRepo) guardedUpdate(dbc dbctx.Context, id uuid.UUID, where func(*gorm.DB) *gorm.DB, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	q := dbc.DB(r.db).Model(&types.ProcessRequest{}).Where("id = ?", id)
	res := where(q).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *processRequestRepo) ClaimUnassigned(dbc dbctx.Context, id, workerID uuid.UUID, at time.Time) (bool, error) {
	if workerID == uuid.Nil {
		return false, nil
	}
	at = at.UTC()
	return r.guardedUpdate(dbc, id,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("worker_id IS NULL AND status = ?", processing.StatusPending)
		},
		map[string]interface{}{
			"worker_id":        workerID,
			"status":           processing.StatusWorking,
			"assignment_date":  at,
			"heartbeat_at":     at,
			"status_message":   "",
			"percent_complete": 0,
		})
}

func (r *processRequestRepo) RevokeAssigned(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	return r.guardedUpdate(dbc, id,
		func(q *gorm.DB) *gorm.DB { return q.Where("worker_id IS NOT NULL") },
		map[string]interface{}{
			"worker_id":        nil,
			"status":           processing.StatusPending,
			"completion_date":  nil,
			"heartbeat_at":     nil,
			"percent_complete": 0,
			"status_message":   "",
		})
}

func (r *processRequestRepo) MarkError(dbc dbctx.Context, id, workerID uuid.UUID, message string) (bool, error) {
	if workerID == uuid.Nil {
		return false, nil
	}
	return r.guardedUpdate(dbc, id,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("worker_id = ? AND status = ?", workerID, processing.StatusWorking)
		},
		map[string]interface{}{
			"status":         processing.StatusError,
			"status_message": message,
		})
}

func (r *processRequestRepo) MarkCompleted(dbc dbctx.Context, id, workerID uuid.UUID, at time.Time) (bool, error) {
	if workerID == uuid.Nil {
		return false, nil
	}
	return r.guardedUpdate(dbc, id,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("worker_id = ? AND status <> ?", workerID, processing.StatusCompleted)
		},
		map[string]interface{}{
			"status":           processing.StatusCompleted,
			"completion_date":  at.UTC(),
			"percent_complete": 100,
		})
}

func (r *processRequestRepo) Touch(dbc dbctx.Context, id, workerID uuid.UUID, at time.Time, percent *int) (bool, error) {
	if workerID == uuid.Nil {
		return false, nil
	}
	updates := map[string]interface{}{"heartbeat_at": at.UTC()}
	if percent != nil {
		updates["percent_complete"] = *percent
	}
	return r.guardedUpdate(dbc, id,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("worker_id = ? AND status = ?", workerID, processing.StatusWorking)
		},
		updates)
}

func (r *processRequestRepo) ExpireStale(dbc dbctx.Context, id uuid.UUID, cutoff time.Time) (bool, error) {
	return r.guardedUpdate(dbc, id,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("worker_id IS NOT NULL AND status = ?", processing.StatusWorking).
				Where("COALESCE(heartbeat_at, assignment_date) < ?", cutoff.UTC())
		},
		map[string]interface{}{
			"worker_id":        nil,
			"status":           processing.StatusPending,
			"heartbeat_at":     nil,
			"percent_complete": 0,
			"status_message":   "lease expired",
		})
}
