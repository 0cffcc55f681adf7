package processing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/cytorepo-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

func TestClusterReposProjectScoping(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	clusters := NewClusterRepo(db, log)
	labels := NewClusterLabelRepo(db, log)
	sampleClusters := NewSampleClusterRepo(db, log)
	components := NewSampleClusterComponentRepo(db, log)

	user := testutil.SeedUser(t, ctx, tx, false)
	w := testutil.SeedWorker(t, ctx, tx)
	visible := testutil.SeedProject(t, ctx, tx)
	hidden := testutil.SeedProject(t, ctx, tx)
	prVisible := testutil.SeedAssigned(t, ctx, tx, visible.ID, user.ID, w.ID, processing.StatusWorking)
	prHidden := testutil.SeedAssigned(t, ctx, tx, hidden.ID, user.ID, w.ID, processing.StatusWorking)

	c0 := testutil.SeedCluster(t, ctx, tx, prVisible.ID, 0)
	c1 := testutil.SeedCluster(t, ctx, tx, prVisible.ID, 1)
	testutil.SeedCluster(t, ctx, tx, prHidden.ID, 0)

	label := testutil.SeedLabel(t, ctx, tx, visible.ID, "CD4+")
	testutil.SeedClusterLabel(t, ctx, tx, c1.ID, label.ID)

	scope := []uuid.UUID{visible.ID}
	got, err := clusters.List(dbc, ClusterFilter{ProjectIDs: scope})
	if err != nil || len(got) != 2 {
		t.Fatalf("ClusterRepo.List: err=%v len=%d", err, len(got))
	}
	if got[0].Index != 0 || got[1].Index != 1 {
		t.Fatalf("clusters not ordered by index: %d %d", got[0].Index, got[1].Index)
	}
	if empty, _ := clusters.List(dbc, ClusterFilter{}); len(empty) != 0 {
		t.Fatalf("empty scope must list nothing")
	}

	ids, err := clusters.IDsByRequestAndLabel(dbc, prVisible.ID, label.ID)
	if err != nil || len(ids) != 1 || ids[0] != c1.ID {
		t.Fatalf("IDsByRequestAndLabel: err=%v ids=%v", err, ids)
	}
	if ok, _ := labels.Exists(dbc, c1.ID, label.ID); !ok {
		t.Fatalf("label should exist")
	}
	if ok, _ := labels.Exists(dbc, c0.ID, label.ID); ok {
		t.Fatalf("c0 is not labeled")
	}

	sample := testutil.SeedSample(t, ctx, tx, visible.ID)
	sc, err := sampleClusters.Create(dbc, &types.SampleCluster{ClusterID: c0.ID, SampleID: sample.ID, EventsKey: "k", EventCount: 3})
	if err != nil {
		t.Fatalf("SampleClusterRepo.Create: %v", err)
	}
	if _, err := components.Create(dbc, []*types.SampleClusterComponent{{
		SampleClusterID: sc.ID,
		Covariance:      datatypes.JSON([]byte("[[1,0],[0,1]]")),
		Weight:          1,
	}}); err != nil {
		t.Fatalf("SampleClusterComponentRepo.Create: %v", err)
	}

	scs, err := sampleClusters.List(dbc, SampleClusterFilter{ProjectIDs: scope, RequestID: &prVisible.ID})
	if err != nil || len(scs) != 1 {
		t.Fatalf("SampleClusterRepo.List: err=%v len=%d", err, len(scs))
	}
	if hiddenRows, _ := sampleClusters.List(dbc, SampleClusterFilter{ProjectIDs: []uuid.UUID{hidden.ID}}); len(hiddenRows) != 0 {
		t.Fatalf("sample cluster leaked across projects")
	}
	comps, err := components.List(dbc, SampleClusterComponentFilter{ProjectIDs: scope})
	if err != nil || len(comps) != 1 {
		t.Fatalf("SampleClusterComponentRepo.List: err=%v len=%d", err, len(comps))
	}

	if n, err := labels.DeleteByClusterIDs(dbc, []uuid.UUID{c0.ID, c1.ID}); err != nil || n != 1 {
		t.Fatalf("DeleteByClusterIDs: n=%d err=%v", n, err)
	}
}

func TestClusterRepoUniqueIndexPerRequest(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, tx, false)
	project := testutil.SeedProject(t, ctx, tx)
	pr := testutil.SeedProcessRequest(t, ctx, tx, project.ID, user.ID)
	testutil.SeedCluster(t, ctx, tx, pr.ID, 0)

	repo := NewClusterRepo(db, testutil.Logger(t))
	sp := tx.SavePoint("dup")
	if sp.Error != nil {
		t.Fatalf("savepoint: %v", sp.Error)
	}
	if _, err := repo.Create(dbctx.Context{Ctx: ctx, Tx: tx}, &types.Cluster{ProcessRequestID: pr.ID, Index: 0}); err == nil {
		t.Fatalf("duplicate (request, index) must fail")
	}
	tx.RollbackTo("dup")
}
