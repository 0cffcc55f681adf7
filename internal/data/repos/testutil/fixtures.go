package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, superuser bool) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		Username:    "user-" + uuid.NewString()[:8],
		Email:       "u@example.org",
		IsSuperuser: superuser,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.Project {
	tb.Helper()
	p := &types.Project{ID: uuid.New(), Name: "project-" + uuid.NewString()[:8]}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedPermission(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID, perms ...types.Permission) {
	tb.Helper()
	for _, perm := range perms {
		row := &types.ProjectPermission{UserID: userID, ProjectID: projectID, Permission: perm}
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			tb.Fatalf("seed permission %s: %v", perm, err)
		}
	}
}

func SeedSample(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID) *types.Sample {
	tb.Helper()
	s := &types.Sample{ID: uuid.New(), ProjectID: projectID, OriginalFilename: "sample.fcs"}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed sample: %v", err)
	}
	return s
}

func SeedSampleCollection(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID) *types.SampleCollection {
	tb.Helper()
	c := &types.SampleCollection{ID: uuid.New(), ProjectID: projectID}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed sample collection: %v", err)
	}
	return c
}

func SeedLabel(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string) *types.CellSubsetLabel {
	tb.Helper()
	l := &types.CellSubsetLabel{ID: uuid.New(), ProjectID: projectID, Name: name}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed label: %v", err)
	}
	return l
}

// SeedWorker creates a user and the worker bound to it.
func SeedWorker(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.Worker {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, false)
	w := &types.Worker{ID: uuid.New(), UserID: u.ID, Name: "worker-" + uuid.NewString()[:8], Hostname: "node01"}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed worker: %v", err)
	}
	return w
}

func SeedProcessRequest(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) *types.ProcessRequest {
	tb.Helper()
	pr := &types.ProcessRequest{
		ID:            uuid.New(),
		ProjectID:     projectID,
		Description:   "hdp run",
		RequestUserID: userID,
		RequestDate:   time.Now().UTC(),
		Status:        processing.StatusPending,
	}
	if err := tx.WithContext(ctx).Create(pr).Error; err != nil {
		tb.Fatalf("seed process request: %v", err)
	}
	return pr
}

// SeedAssigned creates a request already claimed by workerID with the given status.
func SeedAssigned(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID, workerID uuid.UUID, status processing.Status) *types.ProcessRequest {
	tb.Helper()
	now := time.Now().UTC()
	pr := &types.ProcessRequest{
		ID:             uuid.New(),
		ProjectID:      projectID,
		Description:    "hdp run",
		RequestUserID:  userID,
		RequestDate:    now,
		WorkerID:       PtrUUID(workerID),
		AssignmentDate: PtrTime(now),
		HeartbeatAt:    PtrTime(now),
		Status:         status,
	}
	if status == processing.StatusCompleted {
		pr.CompletionDate = PtrTime(now)
	}
	if err := tx.WithContext(ctx).Create(pr).Error; err != nil {
		tb.Fatalf("seed assigned process request: %v", err)
	}
	return pr
}

func SeedCluster(tb testing.TB, ctx context.Context, tx *gorm.DB, requestID uuid.UUID, index int) *types.Cluster {
	tb.Helper()
	c := &types.Cluster{ID: uuid.New(), ProcessRequestID: requestID, Index: index}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed cluster: %v", err)
	}
	return c
}

func SeedClusterLabel(tb testing.TB, ctx context.Context, tx *gorm.DB, clusterID, labelID uuid.UUID) *types.ClusterLabel {
	tb.Helper()
	l := &types.ClusterLabel{ID: uuid.New(), ClusterID: clusterID, LabelID: labelID}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed cluster label: %v", err)
	}
	return l
}

// Count returns the number of rows of model matching where.
func Count(tb testing.TB, tx *gorm.DB, model any, where string, args ...any) int64 {
	tb.Helper()
	var n int64
	q := tx.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		tb.Fatalf("count: %v", err)
	}
	return n
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
